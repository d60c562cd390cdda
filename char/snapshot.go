package char

import (
	"database/sql"
	"errors"
	"fmt"
	"os"

	// Registers the sqlite3 driver.
	_ "github.com/mattn/go-sqlite3"
	"github.com/sarchlab/akita/v4/sim"
	"go.uber.org/multierr"

	"github.com/sarchlab/eve/hw"
	"github.com/sarchlab/eve/workload"
)

const snapshotSchema = `
CREATE TABLE ceiling (
	mv      INTEGER PRIMARY KEY,
	freq_hz REAL NOT NULL
);
CREATE TABLE measurement (
	id                INTEGER PRIMARY KEY,
	pe                TEXT    NOT NULL,
	m                 INTEGER NOT NULL,
	k                 INTEGER NOT NULL,
	n                 INTEGER NOT NULL,
	mv                INTEGER NOT NULL,
	clock_period_ns   REAL    NOT NULL,
	execution_time_ns REAL    NOT NULL
);
CREATE TABLE domain_power (
	measurement_id INTEGER NOT NULL REFERENCES measurement(id),
	domain         TEXT    NOT NULL,
	dynamic_mw     REAL,
	static_mw      REAL,
	PRIMARY KEY (measurement_id, domain)
);
`

// Save writes the store to a SQLite file, replacing any existing file.
func (s *Store) Save(path string) (err error) {
	if rmErr := os.Remove(path); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
		return fmt.Errorf("removing old snapshot: %w", rmErr)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return fmt.Errorf("opening snapshot: %w", err)
	}
	defer func() { err = multierr.Append(err, db.Close()) }()

	if _, err := db.Exec(snapshotSchema); err != nil {
		return fmt.Errorf("creating snapshot schema: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("starting snapshot transaction: %w", err)
	}

	if err := s.writeSnapshot(tx); err != nil {
		return multierr.Append(err, tx.Rollback())
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing snapshot: %w", err)
	}

	return nil
}

func (s *Store) writeSnapshot(tx *sql.Tx) error {
	for _, v := range s.ceilings.Voltages() {
		f, _ := s.ceilings.Ceiling(v)
		if _, err := tx.Exec(`INSERT INTO ceiling (mv, freq_hz) VALUES (?, ?)`,
			v.MilliVolts(), float64(f)); err != nil {
			return fmt.Errorf("writing ceiling: %w", err)
		}
	}

	for i, k := range s.order {
		m := s.points[k]
		id := i + 1

		if _, err := tx.Exec(`INSERT INTO measurement
			(id, pe, m, k, n, mv, clock_period_ns, execution_time_ns)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			id, string(m.PE), m.Op.M, m.Op.K, m.Op.N, k.MilliVolts,
			m.ClockPeriodNs, m.ExecutionTimeNs); err != nil {
			return fmt.Errorf("writing measurement %s: %w", k, err)
		}

		for _, d := range powerDomains(m) {
			if _, err := tx.Exec(`INSERT INTO domain_power
				(measurement_id, domain, dynamic_mw, static_mw) VALUES (?, ?, ?, ?)`,
				id, d.String(), nullable(m.Dynamic, d), nullable(m.Static, d)); err != nil {
				return fmt.Errorf("writing power of %s: %w", k, err)
			}
		}
	}

	return nil
}

func nullable(p hw.DomainPower, d hw.Domain) sql.NullFloat64 {
	v, ok := p[d]
	return sql.NullFloat64{Float64: v, Valid: ok}
}

func powerDomains(m Measurement) hw.DomainSet {
	var ds hw.DomainSet
	for _, d := range hw.AllDomains() {
		_, dyn := m.Dynamic[d]
		_, static := m.Static[d]

		if dyn || static {
			ds = append(ds, d)
		}
	}

	return ds
}

// LoadSnapshot reads a store previously written by Save.
func LoadSnapshot(path string) (s *Store, err error) {
	if _, statErr := os.Stat(path); statErr != nil {
		return nil, fmt.Errorf("opening snapshot: %w", statErr)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening snapshot: %w", err)
	}
	defer func() { err = multierr.Append(err, db.Close()) }()

	ceilings, err := readCeilings(db)
	if err != nil {
		return nil, err
	}

	records, err := readMeasurements(db)
	if err != nil {
		return nil, err
	}

	s = NewStore(ceilings)
	if err := s.Load(records); err != nil {
		return nil, fmt.Errorf("snapshot %s holds invalid records: %w", path, err)
	}

	return s, nil
}

// LoadCeilings reads only the ceiling table of a snapshot.
func LoadCeilings(path string) (c hw.CeilingTable, err error) {
	if _, statErr := os.Stat(path); statErr != nil {
		return nil, fmt.Errorf("opening snapshot: %w", statErr)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening snapshot: %w", err)
	}
	defer func() { err = multierr.Append(err, db.Close()) }()

	return readCeilings(db)
}

func readCeilings(db *sql.DB) (hw.CeilingTable, error) {
	rows, err := db.Query(`SELECT mv, freq_hz FROM ceiling ORDER BY mv`)
	if err != nil {
		return nil, fmt.Errorf("reading ceilings: %w", err)
	}
	defer rows.Close()

	c := hw.CeilingTable{}
	for rows.Next() {
		var (
			mv   int
			freq float64
		)

		if err := rows.Scan(&mv, &freq); err != nil {
			return nil, fmt.Errorf("reading ceilings: %w", err)
		}

		c[mv] = sim.Freq(freq)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading ceilings: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("snapshot ceiling table: %w", err)
	}

	return c, nil
}

func readMeasurements(db *sql.DB) ([]Measurement, error) {
	rows, err := db.Query(`SELECT id, pe, m, k, n, mv, clock_period_ns, execution_time_ns
		FROM measurement ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("reading measurements: %w", err)
	}
	defer rows.Close()

	var (
		records []Measurement
		index   = make(map[int]int)
	)

	for rows.Next() {
		var (
			id, m, k, n, mv int
			pe               string
			period, exec     float64
		)

		if err := rows.Scan(&id, &pe, &m, &k, &n, &mv, &period, &exec); err != nil {
			return nil, fmt.Errorf("reading measurements: %w", err)
		}

		index[id] = len(records)
		records = append(records, Measurement{
			PE:              hw.PE(pe),
			Op:              workload.Op(m, k, n),
			Voltage:         hw.FromMilliVolts(mv),
			ClockPeriodNs:   period,
			ExecutionTimeNs: exec,
			Dynamic:         hw.DomainPower{},
			Static:          hw.DomainPower{},
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading measurements: %w", err)
	}

	if err := readDomainPowers(db, records, index); err != nil {
		return nil, err
	}

	return records, nil
}

func readDomainPowers(db *sql.DB, records []Measurement, index map[int]int) error {
	rows, err := db.Query(`SELECT measurement_id, domain, dynamic_mw, static_mw
		FROM domain_power ORDER BY measurement_id, domain`)
	if err != nil {
		return fmt.Errorf("reading domain powers: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id          int
			name        string
			dyn, static sql.NullFloat64
		)

		if err := rows.Scan(&id, &name, &dyn, &static); err != nil {
			return fmt.Errorf("reading domain powers: %w", err)
		}

		i, ok := index[id]
		if !ok {
			return fmt.Errorf("domain power refers to unknown measurement %d", id)
		}

		d, err := hw.ParseDomain(name)
		if err != nil {
			return fmt.Errorf("measurement %d: %w", id, err)
		}

		if dyn.Valid {
			records[i].Dynamic[d] = dyn.Float64
		}

		if static.Valid {
			records[i].Static[d] = static.Float64
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("reading domain powers: %w", err)
	}

	return nil
}
