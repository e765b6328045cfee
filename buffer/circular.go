// Package buffer provides a fixed-size ring of float64 values used to track
// rolling statistics (such as the recent acceptance rate of likelihood
// evaluations).
package buffer

import "github.com/pkg/errors"

// CircularFloat is a circular buffer of float64 values with the ability to
// iterate over the first and second halves of the values collected in the
// order that they were appended.
type CircularFloat struct {
	buffer    []float64
	pos       int   // next write position
	BufSize   int   // BufSize is the fixed number of values kept in memory
	Count     int   // Count is the number of values in memory, always <= BufSize
	TotalSeen int64 // TotalSeen is the total number of times Add has been called
}

// NewCircularFloat creates a new circular buffer of totalSize. An odd size is
// rounded down so the buffer splits into two equal halves.
func NewCircularFloat(totalSize int) (*CircularFloat, error) {
	half := totalSize / 2
	total := half + half
	if total < 2 {
		return nil, errors.Errorf("Circular buffer needs a size of at least 2, got %d", totalSize)
	}

	return &CircularFloat{
		buffer:  make([]float64, total),
		BufSize: total,
	}, nil
}

// Add appends v to the buffer, overwriting the oldest entry
func (c *CircularFloat) Add(v float64) {
	c.TotalSeen++

	if c.Count < c.BufSize {
		c.Count++
	}
	c.buffer[c.pos] = v
	c.pos = (c.pos + 1) % c.BufSize
}

// Mean of the values currently held, 0 when empty
func (c *CircularFloat) Mean() float64 {
	if c.Count == 0 {
		return 0
	}
	sum := 0.0
	for it := c.iter(c.oldest(), c.Count); it.Next(); {
		sum += it.Value()
	}
	return sum / float64(c.Count)
}

// Values returns the stored values oldest first
func (c *CircularFloat) Values() []float64 {
	out := make([]float64, 0, c.Count)
	for it := c.iter(c.oldest(), c.Count); it.Next(); {
		out = append(out, it.Value())
	}
	return out
}

func (c *CircularFloat) oldest() int {
	if c.Count < c.BufSize {
		return 0
	}
	return c.pos
}

func (c *CircularFloat) iter(start, n int) *CircularFloatIterator {
	return &CircularFloatIterator{buf: c, curr: start, remain: n}
}

// FirstHalf returns an iterator over the oldest half of the stored values.
// Returns nil until the buffer is full.
func (c *CircularFloat) FirstHalf() *CircularFloatIterator {
	if c.Count < c.BufSize {
		return nil
	}
	return c.iter(c.pos, c.BufSize/2)
}

// SecondHalf returns an iterator over the most recent half of the stored
// values. Returns nil until the buffer is full.
func (c *CircularFloat) SecondHalf() *CircularFloatIterator {
	if c.Count < c.BufSize {
		return nil
	}
	half := c.BufSize / 2
	return c.iter((c.pos+half)%c.BufSize, half)
}

// CircularFloatIterator walks part of a CircularFloat
type CircularFloatIterator struct {
	buf    *CircularFloat
	curr   int
	remain int
}

// Next returns true when there are more values to read via Value
func (i *CircularFloatIterator) Next() bool {
	return i.remain > 0
}

// Value returns the next value. Only call it when Next is true.
func (i *CircularFloatIterator) Value() float64 {
	v := i.buf.buffer[i.curr]
	i.curr = (i.curr + 1) % i.buf.BufSize
	i.remain--
	return v
}
