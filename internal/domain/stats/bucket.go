package stats

import (
	"math"
	"sort"
	"strconv"
)

// OtherBucketID labels the catch-all bucket for values outside every range.
const OtherBucketID = "other"

// Point is an entity and the value it is bucketed by.
type Point struct {
	ID    int64
	Value float64
}

// Bucket is one histogram bin. Regular bins cover [Lower, Upper); the
// "other" bin has no bounds and holds everything below the first boundary,
// at or above the last one, or NaN.
type Bucket struct {
	ID      string   `json:"_id"`
	Lower   *float64 `json:"lower_bound,omitempty"`
	Upper   *float64 `json:"upper_bound,omitempty"`
	Count   int      `json:"count"`
	Members []int64  `json:"learners"`
}

// IsOther reports whether b is the catch-all bucket.
func (b Bucket) IsOther() bool { return b.ID == OtherBucketID }

// BucketOption configures a Bucketer.
type BucketOption func(*Bucketer)

// WithMemberLimit caps how many member ids each bucket records. Counts are
// never capped. Zero or negative means unlimited.
func WithMemberLimit(n int) BucketOption {
	return func(b *Bucketer) {
		if n > 0 {
			b.memberLimit = n
		}
	}
}

// WithEmptyBuckets makes Distribute emit every regular bucket and the other
// bucket even when they have no members.
func WithEmptyBuckets(include bool) BucketOption {
	return func(b *Bucketer) {
		b.includeEmpty = include
	}
}

// Bucketer assigns values to a fixed ascending set of ranges.
type Bucketer struct {
	boundaries   []float64
	memberLimit  int
	includeEmpty bool
}

// ValidateBoundaries checks there are at least two finite, strictly
// ascending boundaries.
func ValidateBoundaries(boundaries []float64) error {
	if len(boundaries) < 2 {
		return computationErrorf("need at least 2 boundaries, got %d", len(boundaries))
	}
	for i, v := range boundaries {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return computationErrorf("boundary %d is not finite", i)
		}
		if i > 0 && v <= boundaries[i-1] {
			return computationErrorf("boundaries must be strictly ascending at index %d", i)
		}
	}
	return nil
}

// NewBucketer creates a Bucketer over boundaries.
func NewBucketer(boundaries []float64, opts ...BucketOption) (*Bucketer, error) {
	if err := ValidateBoundaries(boundaries); err != nil {
		return nil, err
	}
	b := &Bucketer{boundaries: append([]float64(nil), boundaries...)}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// Boundaries returns a copy of the configured boundaries.
func (b *Bucketer) Boundaries() []float64 {
	return append([]float64(nil), b.boundaries...)
}

// Index returns the regular bucket holding v, or -1 for the other bucket.
func (b *Bucketer) Index(v float64) int {
	// first boundary strictly greater than v
	i := sort.Search(len(b.boundaries), func(i int) bool { return b.boundaries[i] > v })
	if i == 0 || i == len(b.boundaries) {
		return -1
	}
	return i - 1
}

// Distribute counts points per bucket. Buckets come back in boundary order
// with "other" last; empty buckets are dropped unless WithEmptyBuckets is set.
func (b *Bucketer) Distribute(points []Point) []Bucket {
	regular := make([]Bucket, len(b.boundaries)-1)
	for i := range regular {
		lower, upper := b.boundaries[i], b.boundaries[i+1]
		regular[i] = Bucket{
			ID:      strconv.FormatFloat(lower, 'f', -1, 64),
			Lower:   &lower,
			Upper:   &upper,
			Members: []int64{},
		}
	}
	other := Bucket{ID: OtherBucketID, Members: []int64{}}

	for _, p := range points {
		dst := &other
		if i := b.Index(p.Value); i >= 0 {
			dst = &regular[i]
		}
		dst.Count++
		if b.memberLimit == 0 || len(dst.Members) < b.memberLimit {
			dst.Members = append(dst.Members, p.ID)
		}
	}

	out := make([]Bucket, 0, len(regular)+1)
	for _, bk := range append(regular, other) {
		if bk.Count > 0 || b.includeEmpty {
			out = append(out, bk)
		}
	}
	return out
}
