package buildorder

import "sort"

// Event is a single +1 (created) or -1 (destroyed) step at a point in time.
type Event struct {
	Time  float64
	Delta int
}

// Events collects the creation and destruction events of every entry matching
// the category. The bool is false if any matched entry had a badly shaped field.
func Events(entries []Entry, c Category) ([]Event, bool) {
	var events []Event
	ok := true

	for _, e := range entries {
		if !c.Matches(e) {
			continue
		}

		created, createdOK := CreatedAt(e)
		destroyed, destroyedOK := DestroyedAt(e)
		if !createdOK || !destroyedOK {
			ok = false
		}

		for _, t := range created {
			events = append(events, Event{Time: t, Delta: 1})
		}
		for _, t := range destroyed {
			events = append(events, Event{Time: t, Delta: -1})
		}
	}

	return events, ok
}

// SortEvents orders events by time. At equal times losses come before
// creations, so the result does not depend on input order.
func SortEvents(events []Event) {
	sort.Slice(events, func(i, j int) bool {
		if events[i].Time != events[j].Time {
			return events[i].Time < events[j].Time
		}
		return events[i].Delta < events[j].Delta
	})
}

// Sweep returns the highest running total over time-sorted events. The total
// may dip below zero on inconsistent logs but the result is never negative.
func Sweep(events []Event) int {
	peak, current := 0, 0
	for _, ev := range events {
		current += ev.Delta
		if current > peak {
			peak = current
		}
	}
	return peak
}

// PeakConcurrency returns the maximum number of units of the category alive
// at the same time.
func PeakConcurrency(entries []Entry, c Category) int {
	peak, _ := peakConcurrency(entries, c)
	return peak
}

func peakConcurrency(entries []Entry, c Category) (int, bool) {
	events, ok := Events(entries, c)
	if len(events) == 0 {
		return 0, ok
	}
	SortEvents(events)
	return Sweep(events), ok
}
