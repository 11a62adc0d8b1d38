// Package transform turns source events into table rows through an ordered chain
// of steps. Steps may keep state (previous timestamps, labels) that belongs to the
// chain instance they were built for; a chain is therefore owned by exactly one
// accumulator and is not safe for concurrent use.
package transform

import (
	"github.com/sanspareilsmyn/sensorlens/internal/dataframe"
)

// Step writes or rewrites columns of row for one event. Later steps see the
// columns written by earlier ones.
type Step[T any] interface {
	Apply(event T, row *dataframe.Row)
}

// StepFunc adapts a plain function to Step.
type StepFunc[T any] func(event T, row *dataframe.Row)

func (f StepFunc[T]) Apply(event T, row *dataframe.Row) { f(event, row) }

// Chain is an ordered list of steps.
type Chain[T any] struct {
	steps []Step[T]
}

func NewChain[T any](steps ...Step[T]) *Chain[T] {
	c := &Chain[T]{}
	c.Append(steps...)
	return c
}

// Append adds steps at the end of the chain. Nil steps are skipped.
func (c *Chain[T]) Append(steps ...Step[T]) *Chain[T] {
	for _, s := range steps {
		if s != nil {
			c.steps = append(c.steps, s)
		}
	}
	return c
}

func (c *Chain[T]) Len() int { return len(c.steps) }

// Apply runs every step against a fresh row and returns it.
func (c *Chain[T]) Apply(event T) *dataframe.Row {
	row := dataframe.NewRow()
	c.ApplyTo(event, row)
	return row
}

// ApplyTo runs every step against an existing row.
func (c *Chain[T]) ApplyTo(event T, row *dataframe.Row) {
	for _, s := range c.steps {
		s.Apply(event, row)
	}
}
