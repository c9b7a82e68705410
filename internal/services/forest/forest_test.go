package forest

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func syntheticData(n int) ([][]float64, []float64) {
	rng := rand.New(rand.NewSource(42))
	x := make([][]float64, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		a := rng.Float64() * 10
		b := rng.Float64() * 5
		c := rng.Float64()
		x[i] = []float64{a, b, c}
		y[i] = 3*a - 2*b + rng.NormFloat64()*0.1
	}
	return x, y
}

func TestFitEmptyInput(t *testing.T) {
	_, err := Fit(nil, nil, DefaultConfig())
	assert.Error(t, err)
}

func TestFitLengthMismatch(t *testing.T) {
	_, err := Fit([][]float64{{1}}, []float64{1, 2}, DefaultConfig())
	assert.Error(t, err)
}

func TestFitDeterministicForSeed(t *testing.T) {
	x, y := syntheticData(80)
	cfg := Config{Trees: 10, MaxDepth: 6, MinLeaf: 2, Seed: 7}

	a, err := Fit(x, y, cfg)
	require.NoError(t, err)
	b, err := Fit(x, y, cfg)
	require.NoError(t, err)

	row := []float64{5, 2.5, 0.5}
	for i := range a.Trees {
		assert.Equal(t, a.Trees[i].Predict(row), b.Trees[i].Predict(row))
	}
}

func TestFitDifferentSeedsDiffer(t *testing.T) {
	x, y := syntheticData(80)
	a, err := Fit(x, y, Config{Trees: 5, MaxDepth: 6, MinLeaf: 2, Seed: 1})
	require.NoError(t, err)
	b, err := Fit(x, y, Config{Trees: 5, MaxDepth: 6, MinLeaf: 2, Seed: 2})
	require.NoError(t, err)

	row := []float64{5, 2.5, 0.5}
	diff := false
	for i := range a.Trees {
		if a.Trees[i].Predict(row) != b.Trees[i].Predict(row) {
			diff = true
			break
		}
	}
	assert.True(t, diff, "different seeds should produce different trees")
}

func TestMembersCount(t *testing.T) {
	x, y := syntheticData(50)
	f, err := Fit(x, y, Config{Trees: 17, MaxDepth: 4, MinLeaf: 2, Seed: 3})
	require.NoError(t, err)
	assert.Len(t, f.Members(), 17)
	assert.Equal(t, 3, f.NumFeatures)
}

func TestPredictionsWithinTargetRange(t *testing.T) {
	// Tree leaves average training targets, so no member can predict outside
	// the observed target range.
	x, y := syntheticData(100)
	lo, hi := y[0], y[0]
	for _, v := range y {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	f, err := Fit(x, y, Config{Trees: 20, MaxDepth: 8, MinLeaf: 2, Seed: 5})
	require.NoError(t, err)

	for _, m := range f.Members() {
		p := m.Predict([]float64{5, 2.5, 0.5})
		assert.GreaterOrEqual(t, p, lo)
		assert.LessOrEqual(t, p, hi)
	}
}

func TestConstantTargetCollapses(t *testing.T) {
	x, _ := syntheticData(40)
	y := make([]float64, len(x))
	for i := range y {
		y[i] = 7.5
	}
	f, err := Fit(x, y, Config{Trees: 4, MaxDepth: 6, MinLeaf: 2, Seed: 9})
	require.NoError(t, err)
	for _, m := range f.Members() {
		assert.InDelta(t, 7.5, m.Predict([]float64{1, 1, 1}), 1e-12)
	}
}

func TestCandidateThresholds(t *testing.T) {
	thrs := candidateThresholds([]float64{1, 2, 2, 3})
	assert.Equal(t, []float64{1.5, 2.5}, thrs)
	assert.Nil(t, candidateThresholds([]float64{4, 4, 4}))
}
