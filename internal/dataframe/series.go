package dataframe

import (
	"math"

	"github.com/gammazero/deque"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Series is one column of a Table. Values are kept in a deque so the oldest
// entries can be evicted cheaply when a window bound applies.
type Series struct {
	values *deque.Deque[Value]
}

func NewSeries(values ...Value) *Series {
	s := &Series{values: deque.New[Value]()}
	for _, v := range values {
		s.values.PushBack(v)
	}
	return s
}

func (s *Series) Len() int { return s.values.Len() }

// At returns the value at index i, or false when i is out of range.
func (s *Series) At(i int) (Value, bool) {
	if i < 0 || i >= s.values.Len() {
		return Null, false
	}
	return s.values.At(i), true
}

func (s *Series) Append(v Value) { s.values.PushBack(v) }

// fill pads the series with Null until it holds n values.
func (s *Series) fill(n int) {
	for s.values.Len() < n {
		s.values.PushBack(Null)
	}
}

// Remove deletes and returns the value at index i.
func (s *Series) Remove(i int) (Value, bool) {
	n := s.values.Len()
	if i < 0 || i >= n {
		return Null, false
	}
	switch i {
	case 0:
		return s.values.PopFront(), true
	case n - 1:
		return s.values.PopBack(), true
	}
	v := s.values.At(i)
	for j := i; j < n-1; j++ {
		s.values.Set(j, s.values.At(j+1))
	}
	s.values.PopBack()
	return v, true
}

func (s *Series) Clear() { s.values.Clear() }

// Values returns a copy of the series contents.
func (s *Series) Values() []Value {
	out := make([]Value, s.values.Len())
	for i := range out {
		out[i] = s.values.At(i)
	}
	return out
}

func (s *Series) Clone() *Series {
	c := &Series{values: deque.New[Value](s.values.Len())}
	for i := 0; i < s.values.Len(); i++ {
		c.values.PushBack(s.values.At(i))
	}
	return c
}

// numbers collects the numeric entries, skipping everything else.
func (s *Series) numbers() []float64 {
	out := make([]float64, 0, s.values.Len())
	for i := 0; i < s.values.Len(); i++ {
		if f, ok := s.values.At(i).Numeric(); ok {
			out = append(out, f)
		}
	}
	return out
}

// Mean is the arithmetic mean of the numeric entries, 0 if there are none.
func (s *Series) Mean() float64 {
	xs := s.numbers()
	if len(xs) == 0 {
		return 0
	}
	return stat.Mean(xs, nil)
}

// Variance is the population variance of the numeric entries, 0 if there are none.
func (s *Series) Variance() float64 {
	xs := s.numbers()
	if len(xs) == 0 {
		return 0
	}
	return stat.PopVariance(xs, nil)
}

func (s *Series) Std() float64 {
	return math.Sqrt(s.Variance())
}

// Min returns the smallest numeric entry. ok is false when the series has none.
func (s *Series) Min() (min float64, ok bool) {
	xs := s.numbers()
	if len(xs) == 0 {
		return 0, false
	}
	return floats.Min(xs), true
}

// Max returns the largest numeric entry. ok is false when the series has none.
func (s *Series) Max() (max float64, ok bool) {
	xs := s.numbers()
	if len(xs) == 0 {
		return 0, false
	}
	return floats.Max(xs), true
}
