// Package ilp expresses 0-1 integer programs as plain data and solves them.
//
// A Problem is a set of binary variables, linear constraints over them and a
// linear objective to minimize. Solvers are pluggable behind the Solver
// interface; BranchAndBound is the built-in one.
package ilp

import (
	"errors"
	"fmt"
	"strings"
)

// Errors reported by solvers.
var (
	ErrInfeasible   = errors.New("problem is infeasible")
	ErrNodeLimit    = errors.New("node limit reached before any feasible solution")
	ErrInvalidModel = errors.New("invalid problem")
)

// Sense is the relation of a constraint.
type Sense int

// The supported relations.
const (
	LessEq Sense = iota
	GreaterEq
	Equal
)

func (s Sense) String() string {
	switch s {
	case LessEq:
		return "<="
	case GreaterEq:
		return ">="
	case Equal:
		return "="
	default:
		panic("invalid sense")
	}
}

// Var identifies a binary variable of a problem.
type Var int

// Term is coefficient * variable.
type Term struct {
	Var  Var
	Coef float64
}

// Constraint is sum(Terms) Sense RHS.
type Constraint struct {
	Name  string
	Terms []Term
	Sense Sense
	RHS   float64
}

// Problem is a 0-1 program minimizing sum(Cost[v] * x[v]).
type Problem struct {
	Names       []string
	Cost        []float64
	Constraints []Constraint
}

// NewProblem creates an empty problem.
func NewProblem() *Problem {
	return &Problem{}
}

// AddVar adds a binary variable with its objective coefficient.
func (p *Problem) AddVar(name string, cost float64) Var {
	p.Names = append(p.Names, name)
	p.Cost = append(p.Cost, cost)

	return Var(len(p.Cost) - 1)
}

// NumVars returns the number of variables.
func (p *Problem) NumVars() int {
	return len(p.Cost)
}

// AddConstraint appends a constraint.
func (p *Problem) AddConstraint(name string, terms []Term, sense Sense, rhs float64) {
	p.Constraints = append(p.Constraints, Constraint{
		Name:  name,
		Terms: terms,
		Sense: sense,
		RHS:   rhs,
	})
}

// ExactlyOne constrains the variables so that exactly one of them is set.
func (p *Problem) ExactlyOne(name string, vars ...Var) {
	terms := make([]Term, len(vars))
	for i, v := range vars {
		terms[i] = Term{Var: v, Coef: 1}
	}

	p.AddConstraint(name, terms, Equal, 1)
}

// Validate checks that every term refers to an existing variable.
func (p *Problem) Validate() error {
	if len(p.Names) != len(p.Cost) {
		return fmt.Errorf("%w: %d names for %d variables", ErrInvalidModel, len(p.Names), len(p.Cost))
	}

	for _, c := range p.Constraints {
		for _, t := range c.Terms {
			if t.Var < 0 || int(t.Var) >= len(p.Cost) {
				return fmt.Errorf("%w: constraint %q uses unknown variable %d",
					ErrInvalidModel, c.Name, t.Var)
			}
		}
	}

	return nil
}

// Evaluate returns the objective of an assignment and whether it satisfies
// every constraint.
func (p *Problem) Evaluate(x []bool) (float64, bool) {
	obj := 0.0
	for v, set := range x {
		if set {
			obj += p.Cost[v]
		}
	}

	for _, c := range p.Constraints {
		lhs := 0.0
		for _, t := range c.Terms {
			if x[t.Var] {
				lhs += t.Coef
			}
		}

		if !satisfies(lhs, c.Sense, c.RHS) {
			return obj, false
		}
	}

	return obj, true
}

func (p *Problem) String() string {
	b := strings.Builder{}
	b.WriteString("min")
	for v, c := range p.Cost {
		fmt.Fprintf(&b, " %+g*%s", c, p.Names[v])
	}
	b.WriteString("\n")

	for _, c := range p.Constraints {
		fmt.Fprintf(&b, "%s:", c.Name)
		for _, t := range c.Terms {
			fmt.Fprintf(&b, " %+g*%s", t.Coef, p.Names[t.Var])
		}
		fmt.Fprintf(&b, " %s %g\n", c.Sense, c.RHS)
	}

	return b.String()
}

// Solution is an assignment of the variables.
type Solution struct {
	Values    []bool
	Objective float64

	// Optimal is false when the search stopped at its node limit and the
	// solution is only the best one found.
	Optimal bool
	Nodes   int
}

// Selected returns the variables set to one, in ascending order.
func (s Solution) Selected() []Var {
	var out []Var
	for v, set := range s.Values {
		if set {
			out = append(out, Var(v))
		}
	}

	return out
}

// Solver solves 0-1 programs.
type Solver interface {
	Solve(p *Problem) (Solution, error)
}

func satisfies(lhs float64, s Sense, rhs float64) bool {
	eps := tolerance(rhs)

	switch s {
	case LessEq:
		return lhs <= rhs+eps
	case GreaterEq:
		return lhs >= rhs-eps
	default:
		return lhs >= rhs-eps && lhs <= rhs+eps
	}
}

func tolerance(rhs float64) float64 {
	if rhs < 0 {
		rhs = -rhs
	}

	return 1e-9 * max(1, rhs)
}
