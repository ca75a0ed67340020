package analysis

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

var ErrInvalidBinEdges = errors.New("invalid bin edges")

type InvalidBinEdgesError struct {
	Index  int
	Reason string
}

func (e *InvalidBinEdgesError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("invalid bin edges: %s", e.Reason)
	}
	return fmt.Sprintf("invalid bin edges at index %d: %s", e.Index, e.Reason)
}

func (e *InvalidBinEdgesError) Is(target error) bool { return target == ErrInvalidBinEdges }

// Bin covers [Low, High). The last bin of a histogram also holds values
// equal to its High edge.
type Bin struct {
	Low   float64 `json:"low"`
	High  float64 `json:"high"`
	Count float64 `json:"count"`
}

// LinearEdges returns n equal-width bins between lo and hi as n+1 edges.
func LinearEdges(lo, hi float64, n int) ([]float64, error) {
	if n < 1 {
		return nil, &InvalidBinEdgesError{Index: -1, Reason: fmt.Sprintf("need at least one bin, got %d", n)}
	}
	if !(hi > lo) || math.IsInf(lo, 0) || math.IsInf(hi, 0) {
		return nil, &InvalidBinEdgesError{Index: -1, Reason: fmt.Sprintf("range [%g, %g] is empty or unbounded", lo, hi)}
	}
	return floats.Span(make([]float64, n+1), lo, hi), nil
}

func validateEdges(edges []float64) error {
	if len(edges) < 2 {
		return &InvalidBinEdgesError{Index: -1, Reason: fmt.Sprintf("need at least 2 edges, got %d", len(edges))}
	}
	for i, e := range edges {
		if math.IsNaN(e) || math.IsInf(e, 0) {
			return &InvalidBinEdgesError{Index: i, Reason: fmt.Sprintf("edge %g is not finite", e)}
		}
		if i > 0 && e <= edges[i-1] {
			return &InvalidBinEdgesError{Index: i, Reason: fmt.Sprintf("edge %g does not exceed %g", e, edges[i-1])}
		}
	}
	return nil
}

// Histogram bins values by edges, each value adding weight to its bin.
// Values outside [edges[0], edges[last]] and NaN values are dropped.
func Histogram(values, edges []float64, weight float64) ([]Bin, error) {
	bins, _, err := histogram(values, edges, weight)
	return bins, err
}

// histogram also reports how many values were dropped.
func histogram(values, edges []float64, weight float64) ([]Bin, int, error) {
	if err := validateEdges(edges); err != nil {
		return nil, 0, err
	}
	lo, hi := edges[0], edges[len(edges)-1]

	// stat.Histogram wants sorted input strictly below the last divider
	inside := make([]float64, 0, len(values))
	onEdge, dropped := 0, 0
	for _, v := range values {
		switch {
		case v == hi:
			onEdge++
		case v >= lo && v < hi:
			inside = append(inside, v)
		default:
			dropped++
		}
	}
	sort.Float64s(inside)

	counts := make([]float64, len(edges)-1)
	if len(inside) > 0 {
		weights := make([]float64, len(inside))
		for i := range weights {
			weights[i] = weight
		}
		stat.Histogram(counts, edges, inside, weights)
	}
	for i := 0; i < onEdge; i++ {
		counts[len(counts)-1] += weight
	}

	bins := make([]Bin, len(counts))
	for i := range counts {
		bins[i] = Bin{Low: edges[i], High: edges[i+1], Count: counts[i]}
	}
	return bins, dropped, nil
}
