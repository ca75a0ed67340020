package analysis

import (
	"bytes"
	"context"
	"errors"
	"math"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"teststand/internal/store"
)

func TestSumEnergyPerEvent(t *testing.T) {
	t.Run("other channels are absent", func(t *testing.T) {
		hits := []store.HitRecord{
			{EventID: 1, Energy: 10, Channel: 'A'},
			{EventID: 2, Energy: 5, Channel: 'B'},
		}
		assert.Equal(t, map[int64]float64{1: 10}, SumEnergyPerEvent(hits, 'A'))
	})

	t.Run("sums hits of one event", func(t *testing.T) {
		hits := []store.HitRecord{
			{EventID: 7, Energy: 100, Channel: 1},
			{EventID: 7, Energy: 20.5, Channel: 1},
			{EventID: 7, Energy: 1000, Channel: 2},
			{EventID: 8, Energy: 1, Channel: 1},
		}
		assert.Equal(t, map[int64]float64{7: 120.5, 8: 1}, SumEnergyPerEvent(hits, 1))
	})

	t.Run("order independent", func(t *testing.T) {
		rng := rand.New(rand.NewSource(1))
		hits := make([]store.HitRecord, 200)
		for i := range hits {
			// quarter-keV energies keep every partial sum exact
			hits[i] = store.HitRecord{EventID: int64(rng.Intn(20)), Energy: float64(rng.Intn(4000)) / 4, Channel: rng.Intn(3)}
		}
		want := SumEnergyPerEvent(hits, 1)
		for k := 0; k < 10; k++ {
			rng.Shuffle(len(hits), func(i, j int) { hits[i], hits[j] = hits[j], hits[i] })
			assert.Equal(t, want, SumEnergyPerEvent(hits, 1))
		}
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Empty(t, SumEnergyPerEvent(nil, 1))
	})

	t.Run("non-finite energy passes through", func(t *testing.T) {
		sums := SumEnergyPerEvent([]store.HitRecord{{EventID: 1, Energy: math.NaN(), Channel: 1}, {EventID: 1, Energy: 3, Channel: 1}}, 1)
		require.Len(t, sums, 1)
		assert.True(t, math.IsNaN(sums[1]))
	})
}

func TestHistogram(t *testing.T) {
	t.Run("weighted counts drop out of range values", func(t *testing.T) {
		bins, err := Histogram([]float64{5, 5, 15, 25}, []float64{0, 10, 20}, 0.5)
		require.NoError(t, err)
		assert.Equal(t, []Bin{{Low: 0, High: 10, Count: 1}, {Low: 10, High: 20, Count: 0.5}}, bins)
	})

	t.Run("bins are half open and the last is closed", func(t *testing.T) {
		bins, err := Histogram([]float64{0, 10, 20, -1e-9, math.NaN()}, []float64{0, 10, 20}, 1)
		require.NoError(t, err)
		assert.Equal(t, 1.0, bins[0].Count)
		assert.Equal(t, 2.0, bins[1].Count)
	})

	t.Run("unsorted input", func(t *testing.T) {
		bins, err := Histogram([]float64{19, 1, 11, 2, 3}, []float64{0, 10, 20}, 1)
		require.NoError(t, err)
		assert.Equal(t, 3.0, bins[0].Count)
		assert.Equal(t, 2.0, bins[1].Count)
	})

	t.Run("no values", func(t *testing.T) {
		bins, err := Histogram(nil, []float64{0, 1}, 1)
		require.NoError(t, err)
		assert.Equal(t, []Bin{{Low: 0, High: 1}}, bins)
	})

	invalid := map[string][]float64{
		"empty":          nil,
		"single edge":    {1},
		"decreasing":     {0, 10, 5},
		"repeated":       {0, 10, 10},
		"nan edge":       {0, math.NaN(), 10},
		"infinite edges": {math.Inf(-1), 0},
	}
	for name, edges := range invalid {
		t.Run(name, func(t *testing.T) {
			_, err := Histogram([]float64{1}, edges, 1)
			assert.True(t, errors.Is(err, ErrInvalidBinEdges), "got %v", err)
		})
	}
}

func TestLinearEdges(t *testing.T) {
	edges, err := LinearEdges(0, 3000, 300)
	require.NoError(t, err)
	require.Len(t, edges, 301)
	assert.Equal(t, 0.0, edges[0])
	assert.Equal(t, 3000.0, edges[300])
	assert.InDelta(t, 10, edges[1], 1e-9)

	_, err = LinearEdges(10, 10, 5)
	assert.ErrorIs(t, err, ErrInvalidBinEdges)
	_, err = LinearEdges(0, 10, 0)
	assert.ErrorIs(t, err, ErrInvalidBinEdges)
}

type mockReader struct {
	tables map[string][]store.HitRecord
}

func (m *mockReader) ReadHits(ctx context.Context, table string) ([]store.HitRecord, error) {
	hits, ok := m.tables[table]
	if !ok {
		return nil, store.ErrTableNotFound
	}
	return hits, nil
}

func TestRun(t *testing.T) {
	reader := &mockReader{tables: map[string][]store.HitRecord{
		"stp/det001": {
			{EventID: 1, Energy: 100, Channel: 1},
			{EventID: 1, Energy: 2500, Channel: 1},
			{EventID: 2, Energy: 661.7, Channel: 1},
			{EventID: 3, Energy: 40, Channel: 2},
			{EventID: 4, Energy: 3500, Channel: 1},
		},
	}}
	edges, _ := LinearEdges(0, 3000, 300)

	res, err := Run(context.Background(), reader, Options{Table: "stp/det001", Channel: 1, Edges: edges, Weight: 0.1})
	require.NoError(t, err)
	assert.Equal(t, 5, res.Hits)
	assert.Len(t, res.Events, 3)
	assert.Equal(t, 1, res.Dropped)
	assert.InDelta(t, 0.1, res.Bins[66].Count, 1e-12)
	assert.InDelta(t, 0.1, res.Bins[260].Count, 1e-12)

	total := 0.0
	for _, b := range res.Bins {
		total += b.Count
	}
	assert.InDelta(t, 0.2, total, 1e-12)

	t.Run("missing table", func(t *testing.T) {
		_, err := Run(context.Background(), reader, Options{Table: "stp/nope", Edges: edges, Weight: 1})
		assert.ErrorIs(t, err, store.ErrTableNotFound)
	})

	t.Run("bad edges fail before reading", func(t *testing.T) {
		_, err := Run(context.Background(), reader, Options{Table: "stp/det001", Edges: []float64{1, 0}})
		assert.ErrorIs(t, err, ErrInvalidBinEdges)
	})
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, []Bin{{Low: 0, High: 10, Count: 1}, {Low: 10, High: 20, Count: 0.5}}))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, []string{"low,high,count", "0,10,1", "10,20,0.5"}, lines)
}
