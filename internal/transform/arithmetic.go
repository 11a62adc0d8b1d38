package transform

import (
	"github.com/sanspareilsmyn/sensorlens/internal/dataframe"
)

// Operator combines a cell value with a constant.
type Operator func(value, constant float64) float64

var (
	OpAdd      Operator = func(v, c float64) float64 { return v + c }
	OpSubtract Operator = func(v, c float64) float64 { return v - c }
	OpMultiply Operator = func(v, c float64) float64 { return v * c }
	OpDivide   Operator = func(v, c float64) float64 { return v / c }
)

type arithmetic[T any] struct {
	constants *dataframe.Row
	op        Operator
}

// Arithmetic replaces each cell whose column also appears in constants with
// op(cell, constant). Cells or constants that are not numbers are left untouched.
// The constants row is copied.
func Arithmetic[T any](constants *dataframe.Row, op Operator) Step[T] {
	if constants == nil {
		constants = dataframe.NewRow()
	}
	return &arithmetic[T]{constants: constants.Clone(), op: op}
}

func (a *arithmetic[T]) Apply(_ T, row *dataframe.Row) {
	a.constants.Range(func(name string, c dataframe.Value) bool {
		v, ok := row.Get(name)
		if !ok {
			return true
		}
		x, ok := v.Float64()
		if !ok {
			return true
		}
		k, ok := c.Float64()
		if !ok {
			return true
		}
		row.Set(name, dataframe.Float(a.op(x, k)))
		return true
	})
}

func AddValues[T any](constants *dataframe.Row) Step[T] {
	return Arithmetic[T](constants, OpAdd)
}

func SubtractValues[T any](constants *dataframe.Row) Step[T] {
	return Arithmetic[T](constants, OpSubtract)
}

func MultiplyValues[T any](constants *dataframe.Row) Step[T] {
	return Arithmetic[T](constants, OpMultiply)
}

// DivideValues divides by the constants. Division by zero follows IEEE-754 and
// yields an infinity or NaN.
func DivideValues[T any](constants *dataframe.Row) Step[T] {
	return Arithmetic[T](constants, OpDivide)
}
