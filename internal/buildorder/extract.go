package buildorder

// creationSource pulls one candidate creation list out of an entry.
type creationSource func(Entry) Timestamps

// creationSources are tried in order; the first non-empty list wins outright.
// Lists from different sources are never merged.
var creationSources = []creationSource{
	func(e Entry) Timestamps { return e.Finished },
	func(e Entry) Timestamps { return e.Legacy },
}

// CreatedAt returns the creation timestamps of an entry and whether every
// source consulted had the expected shape.
func CreatedAt(e Entry) ([]float64, bool) {
	ok := true
	for _, src := range creationSources {
		ts := src(e)
		if ts.Malformed() {
			ok = false
		}
		if ts.Len() > 0 {
			return ts.Values(), ok
		}
	}
	return nil, ok
}

// DestroyedAt returns the destruction timestamps of an entry and whether the
// field had the expected shape. A missing field means no losses.
func DestroyedAt(e Entry) ([]float64, bool) {
	return e.Destroyed.Values(), !e.Destroyed.Malformed()
}
