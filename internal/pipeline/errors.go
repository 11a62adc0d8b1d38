package pipeline

import "errors"

var (
	ErrInvalidKafkaConfig        = errors.New("invalid Kafka configuration provided")
	ErrKafkaFetchFailed          = errors.New("failed to fetch message from Kafka")
	ErrKafkaCommitFailed         = errors.New("failed to commit Kafka message")
	ErrConsumerCreationFailed    = errors.New("failed to create consumer")
	ErrConsumerRunFailed         = errors.New("consumer component failed")
	ErrSchedulerCreationFailed   = errors.New("failed to create scheduler")
	ErrAccumulatorCreationFailed = errors.New("failed to create accumulator")
	ErrExporterCreationFailed    = errors.New("failed to create exporter")
	ErrMetricsServerFailed       = errors.New("metrics server failed")
	ErrUnknownStep               = errors.New("unknown transform step")
	ErrUnknownSource             = errors.New("unknown accumulator source")
	ErrUnknownAccumulator        = errors.New("no accumulator with that name")
	ErrNoLabel                   = errors.New("accumulator has no label column")
)
