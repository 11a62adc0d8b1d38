package pipeline

import (
	"go.uber.org/zap"

	"github.com/sanspareilsmyn/sensorlens/internal/dataframe"
	"github.com/sanspareilsmyn/sensorlens/internal/metrics"
)

// ColumnStats summarizes one column of a snapshot.
type ColumnStats struct {
	Table    string
	Column   string
	Rows     int
	NullRate float64
	Mean     float64
	StdDev   float64
	Min, Max float64
	Numeric  bool
}

// Reporter publishes per-column statistics of table snapshots as gauges and logs.
type Reporter struct {
	logger *zap.Logger
}

func NewReporter(logger *zap.Logger) *Reporter {
	return &Reporter{logger: logger}
}

// Report computes and publishes statistics for every column of every table.
// Gauges are only updated for columns holding numbers.
func (r *Reporter) Report(tables []*dataframe.Table) []ColumnStats {
	sugar := r.logger.Sugar()
	var out []ColumnStats
	for _, tbl := range tables {
		if tbl.RowCount() == 0 {
			continue
		}
		for _, name := range tbl.Columns() {
			s, _ := tbl.Column(name)
			st := columnStats(tbl.Name(), name, s)
			out = append(out, st)

			metrics.ColumnNullRate.WithLabelValues(st.Table, st.Column).Set(st.NullRate)
			if !st.Numeric {
				continue
			}
			metrics.ColumnMean.WithLabelValues(st.Table, st.Column).Set(st.Mean)
			metrics.ColumnStdDev.WithLabelValues(st.Table, st.Column).Set(st.StdDev)
			sugar.Infow("Column stats processed",
				zap.String("table", st.Table),
				zap.String("column", st.Column),
				zap.Int("rows", st.Rows),
				zap.Float64("null_rate", st.NullRate),
				zap.Float64("mean", st.Mean),
				zap.Float64("stddev", st.StdDev),
				zap.Float64("min", st.Min),
				zap.Float64("max", st.Max),
			)
		}
	}
	return out
}

func columnStats(table, column string, s *dataframe.Series) ColumnStats {
	st := ColumnStats{Table: table, Column: column, Rows: s.Len()}
	nulls := 0
	for _, v := range s.Values() {
		if v.IsNull() {
			nulls++
		}
	}
	if st.Rows > 0 {
		st.NullRate = float64(nulls) / float64(st.Rows)
	}
	if min, ok := s.Min(); ok {
		st.Numeric = true
		st.Min = min
		st.Max, _ = s.Max()
		st.Mean = s.Mean()
		st.StdDev = s.Std()
	}
	return st
}
