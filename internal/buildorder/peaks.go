package buildorder

import (
	"bytes"

	jsoniter "github.com/json-iterator/go"
)

// WorkerPeaks holds the highest simultaneous worker counts of one player in
// one game. Complete is false when the build order was missing or partly
// unreadable, in which case the counts may be undercounted.
type WorkerPeaks struct {
	MaxVillagers int  `json:"maxVillagers"`
	MaxTraders   int  `json:"maxTraders"`
	MaxFishing   int  `json:"maxFishing"`
	Complete     bool `json:"complete"`
}

// Compute decodes a raw build order and returns its worker peaks. A missing,
// null or non-list build order yields zero counts.
func Compute(raw jsoniter.RawMessage) WorkerPeaks {
	entries, ok := Decode(raw)
	if entries == nil {
		return WorkerPeaks{Complete: ok}
	}

	peaks := ComputeEntries(entries)
	peaks.Complete = peaks.Complete && ok
	return peaks
}

// Decode turns a raw build order into entries. Elements that are not objects
// are skipped. The bool reports whether the whole list decoded cleanly; it is
// false for a missing or non-list build order.
func Decode(raw jsoniter.RawMessage) ([]Entry, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, false
	}

	var items []jsoniter.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, false
	}

	ok := true
	entries := make([]Entry, 0, len(items))
	for _, item := range items {
		var e Entry
		if err := json.Unmarshal(item, &e); err != nil {
			ok = false
			continue
		}
		entries = append(entries, e)
	}
	return entries, ok
}

// ComputeEntries runs the peak calculation once per tracked category.
func ComputeEntries(entries []Entry) WorkerPeaks {
	if entries == nil {
		return WorkerPeaks{}
	}

	peaks := WorkerPeaks{Complete: true}
	counts := []*int{&peaks.MaxVillagers, &peaks.MaxTraders, &peaks.MaxFishing}
	for i, c := range Categories {
		n, ok := peakConcurrency(entries, c)
		*counts[i] = n
		peaks.Complete = peaks.Complete && ok
	}
	return peaks
}
