// Package pipeline wires configured accumulators to their sources, the
// scheduler, the registry lifecycle and the periodic export of their tables.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sanspareilsmyn/sensorlens/internal/config"
	"github.com/sanspareilsmyn/sensorlens/internal/dataframe"
	"github.com/sanspareilsmyn/sensorlens/internal/export"
	"github.com/sanspareilsmyn/sensorlens/internal/message"
	"github.com/sanspareilsmyn/sensorlens/internal/registry"
	"github.com/sanspareilsmyn/sensorlens/internal/scheduler"
	"github.com/sanspareilsmyn/sensorlens/internal/supplier"
)

const (
	channelBufferSize = 100
	defaultFlushEvery = time.Minute
)

// Pipeline owns every accumulator of the process and drives them from Run.
type Pipeline struct {
	cfg    *config.Config
	logger *zap.Logger

	sched    *scheduler.Scheduler
	registry *registry.Registry[string]
	labels   map[string]labeler

	rawMessages chan []byte
	queues      []*supplier.Queue[*dataframe.Row]
	consumer    *Consumer // nil without kafka sources

	exporter *export.Exporter // nil when export is disabled
	reporter *Reporter

	shutdownOnce sync.Once
}

// New creates and wires up a pipeline. Nothing records until Run is called.
func New(cfg *config.Config, logger *zap.Logger) (*Pipeline, error) {
	return build(cfg, logger, newKafkaReader)
}

func build(cfg *config.Config, logger *zap.Logger, newReader readerFactory) (*Pipeline, error) {
	initLogger := logger.Named("pipeline.init")

	sched, err := scheduler.New(scheduler.Config{
		Workers:     cfg.Scheduler.Workers,
		MinInterval: cfg.Scheduler.MinInterval,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSchedulerCreationFailed, err)
	}

	p := &Pipeline{
		cfg:         cfg,
		logger:      logger.Named("pipeline"),
		sched:       sched,
		registry:    registry.New[string](logger),
		labels:      make(map[string]labeler),
		rawMessages: make(chan []byte, channelBufferSize),
		reporter:    NewReporter(logger.Named("reporter")),
	}
	fail := func(err error) (*Pipeline, error) {
		p.registry.Destroy()
		p.sched.Close()
		return nil, err
	}

	for _, acfg := range cfg.Accumulators {
		b, err := buildAccumulator(acfg, sched, logger)
		if err != nil {
			return fail(fmt.Errorf("%w: %q: %w", ErrAccumulatorCreationFailed, acfg.Name, err))
		}
		if _, err := p.registry.Put(acfg.Name, b.recorder); err != nil {
			return fail(fmt.Errorf("%w: %q: %w", ErrAccumulatorCreationFailed, acfg.Name, err))
		}
		if b.label != nil {
			p.labels[acfg.Name] = b.label
		}
		if b.queue != nil {
			p.queues = append(p.queues, b.queue)
		}
		initLogger.Debug("Accumulator created", zap.String("name", acfg.Name), zap.String("source", acfg.Source))
	}

	if len(p.queues) > 0 {
		k := cfg.Kafka
		if len(k.Brokers) == 0 || k.Topic == "" || k.GroupID == "" {
			return fail(fmt.Errorf("%w: %w", ErrConsumerCreationFailed, ErrInvalidKafkaConfig))
		}
		consumerLogger := logger.Named("consumer")
		p.consumer = newConsumer(newReader(k, consumerLogger), p.rawMessages, consumerLogger)
	}

	if cfg.Export.Directory != "" {
		p.exporter, err = export.NewExporter(export.Config{
			Directory: cfg.Export.Directory,
			Prefix:    cfg.Export.Prefix,
		}, logger)
		if err != nil {
			return fail(fmt.Errorf("%w: %w", ErrExporterCreationFailed, err))
		}
	}

	initLogger.Info("Pipeline instance created successfully",
		zap.Int("accumulators", p.registry.Len()),
		zap.Bool("kafka", p.consumer != nil),
		zap.Bool("export", p.exporter != nil),
	)
	return p, nil
}

// Run starts recording and blocks until ctx is cancelled or a component fails.
// On return every accumulator is stopped, the remaining rows have been flushed
// and the scheduler is closed.
func (p *Pipeline) Run(ctx context.Context) error {
	sugar := p.logger.Sugar()
	sugar.Info("Pipeline Run: Starting components...")

	if err := p.registry.Start(); err != nil {
		sugar.Warnw("Some accumulators failed to start", zap.Error(err))
	}

	g, gctx := errgroup.WithContext(ctx)
	if p.consumer != nil {
		g.Go(func() error { return p.runConsumer(gctx) })
		g.Go(func() error { return p.runParser(gctx) })
	}
	g.Go(func() error { return p.runFlusher(gctx) })
	if addr := p.cfg.Metrics.ListenAddr; addr != "" {
		g.Go(func() error { return serveMetrics(gctx, addr, p.logger.Named("metrics")) })
	}

	err := g.Wait()
	p.shutdown()

	if err != nil && !errors.Is(err, context.Canceled) {
		sugar.Errorw("Pipeline Run: component failed", zap.Error(err))
		return err
	}
	sugar.Info("Pipeline Run: All components finished.")
	return nil
}

// SetLabel sets the value the named accumulator stamps into its label column.
func (p *Pipeline) SetLabel(accumulator, value string) error {
	l, err := p.label(accumulator)
	if err != nil {
		return err
	}
	l.Set(dataframe.String(value))
	return nil
}

// ClearLabel stops the named accumulator from writing its label column.
func (p *Pipeline) ClearLabel(accumulator string) error {
	l, err := p.label(accumulator)
	if err != nil {
		return err
	}
	l.Clear()
	return nil
}

func (p *Pipeline) label(accumulator string) (labeler, error) {
	if _, ok := p.registry.Get(accumulator); !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAccumulator, accumulator)
	}
	l, ok := p.labels[accumulator]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNoLabel, accumulator)
	}
	return l, nil
}

// DataFrames returns a snapshot of every table in configuration order.
func (p *Pipeline) DataFrames() []*dataframe.Table {
	return p.registry.GetDataFrames()
}

func (p *Pipeline) runConsumer(ctx context.Context) error {
	defer close(p.rawMessages)
	if err := p.consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %w", ErrConsumerRunFailed, err)
	}
	return nil
}

// runParser turns raw payloads into rows and pushes them to every kafka-backed
// accumulator. Rows arriving while an accumulator is not recording are dropped.
func (p *Pipeline) runParser(ctx context.Context) error {
	sugar := p.logger.Named("parser").Sugar()
	for {
		select {
		case raw, ok := <-p.rawMessages:
			if !ok {
				return nil
			}
			msg, err := message.ParseDynamicJSON(raw)
			if err != nil {
				sugar.Warnw("Failed to parse message, skipping", zap.Error(err))
				continue
			}
			row := msg.ToRow()
			for _, q := range p.queues {
				if err := q.Push(row); err != nil && !errors.Is(err, supplier.ErrNotActive) {
					sugar.Warnw("Failed to push row", zap.Error(err))
				}
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// runFlusher reports and exports the tables every export interval.
func (p *Pipeline) runFlusher(ctx context.Context) error {
	every := p.cfg.Export.Interval
	if every <= 0 {
		every = defaultFlushEvery
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			p.flush()
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// flush reports on the current tables. With export enabled the tables are
// drained into an archive, so consecutive archives never share a row.
func (p *Pipeline) flush() {
	if p.exporter == nil {
		p.reporter.Report(p.registry.GetDataFrames())
		return
	}
	tables := p.registry.DrainDataFrames()
	p.reporter.Report(tables)
	if _, err := p.exporter.Export(tables); err != nil {
		p.logger.Error("Failed to export tables", zap.Error(err))
	}
}

func (p *Pipeline) shutdown() {
	p.shutdownOnce.Do(func() {
		p.registry.Destroy()
		p.flush()
		p.sched.Close()
		p.logger.Info("Pipeline shut down")
	})
}

// Close releases the pipeline without running it.
func (p *Pipeline) Close() {
	p.shutdown()
}
