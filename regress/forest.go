package regress

import (
	"math"
	"math/rand"
	"sort"
)

const (
	defaultTrees    = 50
	defaultMaxDepth = 16
	defaultMinLeaf  = 1
)

// forest is a bagged ensemble of CART regression trees.
type forest struct {
	trees    int
	maxDepth int
	minLeaf  int
	seed     int64
	roots    []*treeNode
}

type treeNode struct {
	feature     int
	threshold   float64
	value       float64
	left, right *treeNode
}

func (t *treeNode) leaf() bool {
	return t.left == nil
}

func newForest(cfg Config) *forest {
	f := &forest{
		trees:    cfg.Trees,
		maxDepth: cfg.MaxDepth,
		minLeaf:  cfg.MinLeaf,
		seed:     cfg.Seed,
	}

	if f.trees == 0 {
		f.trees = defaultTrees
	}

	if f.maxDepth == 0 {
		f.maxDepth = defaultMaxDepth
	}

	if f.minLeaf == 0 {
		f.minLeaf = defaultMinLeaf
	}

	return f
}

func (f *forest) fit(X [][]float64, y []float64) error {
	rng := rand.New(rand.NewSource(f.seed))
	n := len(X)

	f.roots = make([]*treeNode, f.trees)
	for t := 0; t < f.trees; t++ {
		sample := make([]int, n)
		for i := range sample {
			sample[i] = rng.Intn(n)
		}

		f.roots[t] = f.grow(X, y, sample, 0)
	}

	return nil
}

func (f *forest) predict(x []float64) float64 {
	if len(f.roots) == 0 {
		return math.NaN()
	}

	sum := 0.0
	for _, root := range f.roots {
		node := root
		for !node.leaf() {
			if x[node.feature] <= node.threshold {
				node = node.left
			} else {
				node = node.right
			}
		}
		sum += node.value
	}

	return sum / float64(len(f.roots))
}

func (f *forest) grow(X [][]float64, y []float64, idx []int, depth int) *treeNode {
	mean := 0.0
	for _, i := range idx {
		mean += y[i]
	}
	mean /= float64(len(idx))

	node := &treeNode{value: mean}
	if depth >= f.maxDepth || len(idx) < 2*f.minLeaf {
		return node
	}

	feature, threshold, ok := f.bestSplit(X, y, idx)
	if !ok {
		return node
	}

	var left, right []int
	for _, i := range idx {
		if X[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	node.feature = feature
	node.threshold = threshold
	node.left = f.grow(X, y, left, depth+1)
	node.right = f.grow(X, y, right, depth+1)

	return node
}

// bestSplit returns the split minimizing the summed squared error of the
// two children. Thresholds sit halfway between distinct feature values.
func (f *forest) bestSplit(X [][]float64, y []float64, idx []int) (int, float64, bool) {
	n := len(idx)
	total, totalSq := 0.0, 0.0
	for _, i := range idx {
		total += y[i]
		totalSq += y[i] * y[i]
	}

	bestErr := totalSq - total*total/float64(n)
	bestFeature, bestThreshold, found := 0, 0.0, false

	sorted := make([]int, n)
	for j := range X[idx[0]] {
		copy(sorted, idx)
		sort.SliceStable(sorted, func(a, b int) bool {
			return X[sorted[a]][j] < X[sorted[b]][j]
		})

		leftSum, leftSq := 0.0, 0.0
		for k := 0; k < n-1; k++ {
			v := y[sorted[k]]
			leftSum += v
			leftSq += v * v

			nl, nr := k+1, n-k-1
			if nl < f.minLeaf || nr < f.minLeaf {
				continue
			}

			lo, hi := X[sorted[k]][j], X[sorted[k+1]][j]
			if lo == hi {
				continue
			}

			rightSum := total - leftSum
			rightSq := totalSq - leftSq
			sse := leftSq - leftSum*leftSum/float64(nl) +
				rightSq - rightSum*rightSum/float64(nr)

			if sse < bestErr-1e-12*math.Abs(bestErr) {
				bestErr = sse
				bestFeature = j
				bestThreshold = (lo + hi) / 2
				found = true
			}
		}
	}

	return bestFeature, bestThreshold, found
}
