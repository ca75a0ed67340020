// Package analysis reduces hit tables to per-event energies and weighted
// energy spectra.
package analysis

import (
	"sort"

	"teststand/internal/store"
)

// SumEnergyPerEvent sums the deposited energy of every event on channel.
// Events without a hit on channel are absent from the result. Energies are
// added as they are; a non-finite energy makes its event's sum non-finite.
func SumEnergyPerEvent(hits []store.HitRecord, channel int) map[int64]float64 {
	sums := make(map[int64]float64)
	for _, h := range hits {
		if h.Channel != channel {
			continue
		}
		sums[h.EventID] += h.Energy
	}
	return sums
}

type EventEnergy struct {
	EventID int64   `json:"evtid"`
	Energy  float64 `json:"energy"`
}

// SortedEvents lists sums by event id.
func SortedEvents(sums map[int64]float64) []EventEnergy {
	out := make([]EventEnergy, 0, len(sums))
	for id, e := range sums {
		out = append(out, EventEnergy{EventID: id, Energy: e})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EventID < out[j].EventID })
	return out
}

// Energies returns the values of sums in event id order.
func Energies(sums map[int64]float64) []float64 {
	events := SortedEvents(sums)
	out := make([]float64, len(events))
	for i, e := range events {
		out[i] = e.Energy
	}
	return out
}
