package config

import "errors"

var (
	ErrReadingConfigFile    = errors.New("failed to read config file")
	ErrUnmarshallingConfig  = errors.New("failed to unmarshal config")
	ErrConfigFileMissing    = errors.New("config file not found")
	ErrNoAccumulators       = errors.New("at least one accumulator must be configured")
	ErrEmptyAccumulatorName = errors.New("accumulator name cannot be empty")
	ErrDuplicateAccumulator = errors.New("accumulator names must be unique")
	ErrUnknownSource        = errors.New("unknown accumulator source")
	ErrUnknownStep          = errors.New("unknown transform step")
	ErrInvalidWindowSize    = errors.New("accumulator windowSize cannot be negative")
	ErrInvalidDelay         = errors.New("accumulator delay cannot be negative")
	ErrInvalidWorkers       = errors.New("scheduler workers must be positive")
	ErrEmptyKafkaBrokers    = errors.New("kafka brokers list cannot be empty")
	ErrEmptyKafkaTopic      = errors.New("kafka topic cannot be empty")
	ErrEmptyKafkaGroupID    = errors.New("kafka groupID cannot be empty")
	ErrInvalidExportPeriod  = errors.New("export interval must be positive")
)
