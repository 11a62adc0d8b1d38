package pipeline

import (
	"fmt"
	"math/rand"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/sanspareilsmyn/sensorlens/internal/accumulator"
	"github.com/sanspareilsmyn/sensorlens/internal/config"
	"github.com/sanspareilsmyn/sensorlens/internal/dataframe"
	"github.com/sanspareilsmyn/sensorlens/internal/registry"
	"github.com/sanspareilsmyn/sensorlens/internal/scheduler"
	"github.com/sanspareilsmyn/sensorlens/internal/sensor"
	"github.com/sanspareilsmyn/sensorlens/internal/supplier"
	"github.com/sanspareilsmyn/sensorlens/internal/transform"
)

var defaultRandomColumns = []string{"score"}

// labeler is the runtime handle on an accumulator's label step.
type labeler interface {
	Set(v dataframe.Value)
	Clear()
}

// built is one configured accumulator with the handles the pipeline keeps on it.
type built struct {
	recorder registry.Recorder
	label    labeler
	queue    *supplier.Queue[*dataframe.Row] // kafka sources only
}

func buildAccumulator(cfg config.AccumulatorConfig, sched *scheduler.Scheduler, logger *zap.Logger) (built, error) {
	switch cfg.Source {
	case config.SourceSensor:
		sim := sensor.NewSimulator(sensor.Config{Rate: cfg.Rate}, logger)
		head := []transform.Step[sensor.Event]{
			sensor.Values(cfg.Columns...),
			sensor.Accuracy(),
			sensor.Timestamp(),
		}
		return assemble(cfg, head, sim, sched, logger)

	case config.SourceRandom:
		return assemble(cfg, rowHead(), randomSource(cfg.Columns), sched, logger)

	case config.SourceKafka:
		q := supplier.NewQueue[*dataframe.Row]()
		b, err := assemble(cfg, rowHead(), q, sched, logger)
		b.queue = q
		return b, err
	}
	return built{}, fmt.Errorf("%w: %q", ErrUnknownSource, cfg.Source)
}

func rowHead() []transform.Step[*dataframe.Row] {
	return []transform.Step[*dataframe.Row]{transform.CopyRow()}
}

// assemble builds the chain head, configured steps, label, then the accumulator.
func assemble[T any](cfg config.AccumulatorConfig, head []transform.Step[T], src supplier.Supplier,
	sched *scheduler.Scheduler, logger *zap.Logger) (built, error) {
	steps, err := buildSteps[T](cfg.Steps)
	if err != nil {
		return built{}, err
	}
	chain := transform.NewChain(head...).Append(steps...)

	var b built
	if cfg.Label != "" {
		label := transform.NewLabel[T](cfg.Label)
		chain.Append(label)
		b.label = label
	}

	acc, err := accumulator.New(accumulator.Config{
		Name:       cfg.Name,
		WindowSize: cfg.WindowSize,
		Delay:      cfg.Delay,
	}, chain, sched, logger)
	if err != nil {
		return built{}, err
	}
	if err := acc.SetSupplier(src); err != nil {
		return built{}, err
	}
	b.recorder = acc
	return b, nil
}

func buildSteps[T any](steps []config.StepConfig) ([]transform.Step[T], error) {
	out := make([]transform.Step[T], 0, len(steps))
	for _, s := range steps {
		var step transform.Step[T]
		switch s.Type {
		case config.StepAdd:
			step = transform.AddValues[T](floatRow(s.Values))
		case config.StepSubtract:
			step = transform.SubtractValues[T](floatRow(s.Values))
		case config.StepMultiply:
			step = transform.MultiplyValues[T](floatRow(s.Values))
		case config.StepDivide:
			step = transform.DivideValues[T](floatRow(s.Values))
		case config.StepSelect:
			step = transform.SelectColumns[T](s.Columns...)
		case config.StepRename:
			step = transform.RenameColumns[T](s.Mapping)
		case config.StepConstant:
			step = transform.Constant[T](floatRow(s.Values))
		case config.StepEpochTimestamp:
			step = transform.EpochTimestamp[T]()
		case config.StepSystemClockTimestamp:
			step = transform.SystemClockTimestamp[T]()
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnknownStep, s.Type)
		}
		out = append(out, step)
	}
	return out, nil
}

// floatRow turns a config value map into a row with columns in name order.
func floatRow(values map[string]float64) *dataframe.Row {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)
	row := dataframe.NewRow()
	for _, name := range names {
		row.Set(name, dataframe.Float(values[name]))
	}
	return row
}

// randomSource is a polled source of uniform scores, standing in for the output
// of a model evaluated on a schedule. Produce runs on one scheduler task at a time.
func randomSource(columns []string) *supplier.Func[*dataframe.Row] {
	if len(columns) == 0 {
		columns = defaultRandomColumns
	}
	names := append([]string(nil), columns...)
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	return supplier.NewFunc(func() (*dataframe.Row, error) {
		row := dataframe.NewRow()
		for _, name := range names {
			row.Set(name, dataframe.Float(rng.Float64()))
		}
		return row, nil
	})
}
