package forest

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"Stockyard/internal/domain/service"
)

// Config controls forest training.
type Config struct {
	Trees      int   // number of ensemble members
	MaxDepth   int   // maximum tree depth
	MinLeaf    int   // minimum samples per leaf
	MaxFeature int   // features tried per split; 0 means p/3 (min 1)
	Seed       int64 // RNG seed; same seed and data give the same forest
}

// DefaultConfig mirrors the usual bagging defaults for tabular regression.
func DefaultConfig() Config {
	return Config{Trees: 100, MaxDepth: 12, MinLeaf: 2, Seed: 1}
}

// Forest is a bagged ensemble of regression trees. Every tree is trained on
// a bootstrap sample with random feature subsets per split, so members
// disagree on inputs far from the training data — that disagreement is what
// the confidence interval measures. Fields are exported for JSON
// persistence alongside the owning model.
type Forest struct {
	Trees       []*Tree `json:"trees"`
	NumFeatures int     `json:"num_features"`
}

// Node is one split or leaf of a regression tree.
type Node struct {
	Feature   int     `json:"f"`
	Threshold float64 `json:"t"`
	Value     float64 `json:"v"`
	Leaf      bool    `json:"l"`
	Left      *Node   `json:"lt,omitempty"`
	Right     *Node   `json:"rt,omitempty"`
}

// Tree is a single ensemble member.
type Tree struct {
	Root *Node `json:"root"`
}

// Predict walks the tree for one feature row.
func (t *Tree) Predict(row []float64) float64 {
	n := t.Root
	for n != nil && !n.Leaf {
		if n.Feature < len(row) && row[n.Feature] <= n.Threshold {
			n = n.Left
		} else {
			n = n.Right
		}
	}
	if n == nil {
		return 0
	}
	return n.Value
}

// Fit trains a forest on the feature table and target column.
func Fit(features [][]float64, target []float64, cfg Config) (*Forest, error) {
	if len(features) == 0 {
		return nil, fmt.Errorf("forest fit: empty feature table")
	}
	if len(features) != len(target) {
		return nil, fmt.Errorf("forest fit: %d feature rows vs %d targets", len(features), len(target))
	}
	if cfg.Trees <= 0 {
		cfg.Trees = DefaultConfig().Trees
	}
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = DefaultConfig().MaxDepth
	}
	if cfg.MinLeaf <= 0 {
		cfg.MinLeaf = 1
	}
	p := len(features[0])
	k := cfg.MaxFeature
	if k <= 0 || k > p {
		k = p / 3
		if k < 1 {
			k = 1
		}
	}

	f := &Forest{Trees: make([]*Tree, cfg.Trees), NumFeatures: p}
	for i := 0; i < cfg.Trees; i++ {
		rng := rand.New(rand.NewSource(cfg.Seed + int64(i)))
		idx := bootstrap(len(features), rng)
		b := &builder{
			x:        features,
			y:        target,
			maxDepth: cfg.MaxDepth,
			minLeaf:  cfg.MinLeaf,
			mtry:     k,
			rng:      rng,
		}
		f.Trees[i] = &Tree{Root: b.build(idx, 0)}
	}
	return f, nil
}

// Members exposes the trees as independently queryable predictors.
func (f *Forest) Members() []service.Member {
	out := make([]service.Member, len(f.Trees))
	for i, t := range f.Trees {
		out[i] = t
	}
	return out
}

var (
	_ service.Ensemble = (*Forest)(nil)
	_ service.Member   = (*Tree)(nil)
)

type builder struct {
	x        [][]float64
	y        []float64
	maxDepth int
	minLeaf  int
	mtry     int
	rng      *rand.Rand
}

func (b *builder) build(idx []int, depth int) *Node {
	if len(idx) == 0 {
		return &Node{Leaf: true}
	}
	mean, sse := meanSSE(b.y, idx)
	if depth >= b.maxDepth || len(idx) < 2*b.minLeaf || sse == 0 {
		return &Node{Leaf: true, Value: mean}
	}

	feat, thr, ok := b.bestSplit(idx, sse)
	if !ok {
		return &Node{Leaf: true, Value: mean}
	}

	left := make([]int, 0, len(idx))
	right := make([]int, 0, len(idx))
	for _, i := range idx {
		if b.x[i][feat] <= thr {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) < b.minLeaf || len(right) < b.minLeaf {
		return &Node{Leaf: true, Value: mean}
	}
	return &Node{
		Feature:   feat,
		Threshold: thr,
		Left:      b.build(left, depth+1),
		Right:     b.build(right, depth+1),
	}
}

// bestSplit scans a random feature subset for the threshold minimizing the
// summed child SSE.
func (b *builder) bestSplit(idx []int, parentSSE float64) (int, float64, bool) {
	p := len(b.x[idx[0]])
	perm := b.rng.Perm(p)
	bestSSE := parentSSE
	bestFeat, bestThr := -1, 0.0

	for _, feat := range perm[:b.mtry] {
		vals := make([]float64, len(idx))
		for i, id := range idx {
			vals[i] = b.x[id][feat]
		}
		thrs := candidateThresholds(vals)
		for _, thr := range thrs {
			var nl, nr float64
			var sl, sr float64
			for _, id := range idx {
				if b.x[id][feat] <= thr {
					nl++
					sl += b.y[id]
				} else {
					nr++
					sr += b.y[id]
				}
			}
			if nl == 0 || nr == 0 {
				continue
			}
			ml, mr := sl/nl, sr/nr
			var sse float64
			for _, id := range idx {
				var d float64
				if b.x[id][feat] <= thr {
					d = b.y[id] - ml
				} else {
					d = b.y[id] - mr
				}
				sse += d * d
			}
			if sse < bestSSE {
				bestSSE = sse
				bestFeat = feat
				bestThr = thr
			}
		}
	}
	return bestFeat, bestThr, bestFeat >= 0
}

// candidateThresholds returns midpoints between distinct sorted values,
// capped to keep split search bounded on large nodes.
func candidateThresholds(vals []float64) []float64 {
	uniq := map[float64]struct{}{}
	for _, v := range vals {
		uniq[v] = struct{}{}
	}
	sorted := make([]float64, 0, len(uniq))
	for v := range uniq {
		sorted = append(sorted, v)
	}
	if len(sorted) < 2 {
		return nil
	}
	sort.Float64s(sorted)
	const maxCandidates = 32
	step := 1
	if len(sorted)-1 > maxCandidates {
		step = (len(sorted) - 1) / maxCandidates
	}
	out := make([]float64, 0, maxCandidates)
	for i := 0; i+1 < len(sorted); i += step {
		out = append(out, (sorted[i]+sorted[i+1])/2)
	}
	return out
}

func bootstrap(n int, rng *rand.Rand) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = rng.Intn(n)
	}
	return idx
}

func meanSSE(y []float64, idx []int) (float64, float64) {
	sum := 0.0
	for _, i := range idx {
		sum += y[i]
	}
	mean := sum / float64(len(idx))
	sse := 0.0
	for _, i := range idx {
		d := y[i] - mean
		sse += d * d
	}
	if math.IsNaN(sse) {
		sse = 0
	}
	return mean, sse
}
