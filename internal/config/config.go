package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	defaultLogLevel       = "info"
	defaultLogFormat      = "console"
	defaultLogFileEnabled = false
	defaultLogDirectory   = "log"
	defaultLogFilename    = "sensorlens.log"
	defaultLogMaxSizeMB   = 100
	defaultLogMaxBackups  = 3
	defaultLogMaxAgeDays  = 7
	defaultLogCompress    = false

	defaultWorkers       = 4
	defaultMinInterval   = time.Millisecond
	defaultKafkaGroupID  = "sensorlens-default-group"
	defaultExportPeriod  = time.Minute
	defaultExportPrefix  = "sensorlens"
	defaultSensorRate    = 20 * time.Millisecond
	defaultPollingPeriod = 100 * time.Millisecond

	// Environment variable prefix
	envPrefix = "SENSORLENS"
)

// Accumulator sources.
const (
	SourceSensor = "sensor"
	SourceRandom = "random"
	SourceKafka  = "kafka"
)

// Transform step types accepted in accumulators[].steps.
const (
	StepAdd                  = "add"
	StepSubtract             = "subtract"
	StepMultiply             = "multiply"
	StepDivide               = "divide"
	StepSelect               = "select"
	StepRename               = "rename"
	StepConstant             = "constant"
	StepEpochTimestamp       = "epoch_timestamp"
	StepSystemClockTimestamp = "systemclock_timestamp"
)

type Config struct {
	Log          LogConfig           `mapstructure:"log"`
	Scheduler    SchedulerConfig     `mapstructure:"scheduler"`
	Kafka        KafkaConfig         `mapstructure:"kafka"`
	Export       ExportConfig        `mapstructure:"export"`
	Metrics      MetricsConfig       `mapstructure:"metrics"`
	Accumulators []AccumulatorConfig `mapstructure:"accumulators"`
}

type LogConfig struct {
	Level              string `mapstructure:"level"`
	Format             string `mapstructure:"format"`
	FileLoggingEnabled bool   `mapstructure:"fileLoggingEnabled"`
	Directory          string `mapstructure:"directory"`
	Filename           string `mapstructure:"filename"`
	MaxSize            int    `mapstructure:"maxSize"`    // Max size in MB
	MaxBackups         int    `mapstructure:"maxBackups"` // Max backup files
	MaxAge             int    `mapstructure:"maxAge"`     // Max days to retain
	Compress           bool   `mapstructure:"compress"`
}

type SchedulerConfig struct {
	Workers     int           `mapstructure:"workers"`
	MinInterval time.Duration `mapstructure:"minInterval"`
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
	GroupID string   `mapstructure:"groupID"`
}

// ExportConfig controls periodic archiving. An empty Directory disables it.
type ExportConfig struct {
	Directory string        `mapstructure:"directory"`
	Prefix    string        `mapstructure:"prefix"`
	Interval  time.Duration `mapstructure:"interval"`
}

// MetricsConfig controls the Prometheus endpoint. An empty ListenAddr disables it.
type MetricsConfig struct {
	ListenAddr string `mapstructure:"listenAddr"`
}

type AccumulatorConfig struct {
	Name       string        `mapstructure:"name"`
	Source     string        `mapstructure:"source"`
	WindowSize int           `mapstructure:"windowSize"` // 0 keeps every row
	Delay      time.Duration `mapstructure:"delay"`      // polling period of pull sources
	Rate       time.Duration `mapstructure:"rate"`       // reading interval of the sensor source
	Columns    []string      `mapstructure:"columns"`
	Label      string        `mapstructure:"label"` // label column, set at runtime
	Steps      []StepConfig  `mapstructure:"steps"`
}

// StepConfig describes one transform step. Which fields are used depends on Type.
// Viper lowercases map keys, so Values and Mapping keys must be lowercase columns.
type StepConfig struct {
	Type    string             `mapstructure:"type"`
	Values  map[string]float64 `mapstructure:"values"`
	Columns []string           `mapstructure:"columns"`
	Mapping map[string]string  `mapstructure:"mapping"`
}

// UsesKafka reports whether any accumulator records from the kafka topic.
func (c *Config) UsesKafka() bool {
	for _, a := range c.Accumulators {
		if a.Source == SourceKafka {
			return true
		}
	}
	return false
}

// Load initializes viper, reads config, applies defaults, unmarshals, and validates.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	configureViper(v, configPath)
	setDefaults(v)

	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnmarshallingConfig, err)
	}
	applyAccumulatorDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func configureViper(v *viper.Viper, configPath string) {
	if configPath != "" {
		v.SetConfigFile(configPath)
	}

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", defaultLogLevel)
	v.SetDefault("log.format", defaultLogFormat)
	v.SetDefault("log.fileLoggingEnabled", defaultLogFileEnabled)
	v.SetDefault("log.directory", defaultLogDirectory)
	v.SetDefault("log.filename", defaultLogFilename)
	v.SetDefault("log.maxSize", defaultLogMaxSizeMB)
	v.SetDefault("log.maxBackups", defaultLogMaxBackups)
	v.SetDefault("log.maxAge", defaultLogMaxAgeDays)
	v.SetDefault("log.compress", defaultLogCompress)
	v.SetDefault("scheduler.workers", defaultWorkers)
	v.SetDefault("scheduler.minInterval", defaultMinInterval)
	v.SetDefault("kafka.groupID", defaultKafkaGroupID)
	v.SetDefault("export.interval", defaultExportPeriod)
	v.SetDefault("export.prefix", defaultExportPrefix)
}

// applyAccumulatorDefaults fills per-entry defaults viper cannot express for
// list elements.
func applyAccumulatorDefaults(cfg *Config) {
	for i := range cfg.Accumulators {
		a := &cfg.Accumulators[i]
		a.Source = strings.ToLower(a.Source)
		switch a.Source {
		case SourceSensor:
			if a.Rate == 0 {
				a.Rate = defaultSensorRate
			}
		case SourceRandom:
			if a.Delay == 0 {
				a.Delay = defaultPollingPeriod
			}
		}
		for j := range a.Steps {
			a.Steps[j].Type = strings.ToLower(a.Steps[j].Type)
		}
	}
}

func readConfigFile(v *viper.Viper) error {
	err := v.ReadInConfig()
	if err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) || errors.Is(err, fs.ErrNotExist) {
			return ErrConfigFileMissing
		}
		return fmt.Errorf("%w: %w", ErrReadingConfigFile, err)
	}
	return nil
}

func validateConfig(cfg *Config) error {
	if cfg.Scheduler.Workers <= 0 {
		return ErrInvalidWorkers
	}
	if cfg.Export.Directory != "" && cfg.Export.Interval <= 0 {
		return ErrInvalidExportPeriod
	}
	if len(cfg.Accumulators) == 0 {
		return ErrNoAccumulators
	}

	seen := make(map[string]bool, len(cfg.Accumulators))
	for _, a := range cfg.Accumulators {
		if err := validateAccumulator(a); err != nil {
			return err
		}
		if seen[a.Name] {
			return fmt.Errorf("%w: %q", ErrDuplicateAccumulator, a.Name)
		}
		seen[a.Name] = true
	}

	if cfg.UsesKafka() {
		if len(cfg.Kafka.Brokers) == 0 {
			return ErrEmptyKafkaBrokers
		}
		if cfg.Kafka.Topic == "" {
			return ErrEmptyKafkaTopic
		}
		if cfg.Kafka.GroupID == "" {
			return ErrEmptyKafkaGroupID
		}
	}
	return nil
}

func validateAccumulator(a AccumulatorConfig) error {
	if a.Name == "" {
		return ErrEmptyAccumulatorName
	}
	switch a.Source {
	case SourceSensor, SourceRandom, SourceKafka:
	default:
		return fmt.Errorf("%w: %q for accumulator %q", ErrUnknownSource, a.Source, a.Name)
	}
	if a.WindowSize < 0 {
		return fmt.Errorf("%w: %q", ErrInvalidWindowSize, a.Name)
	}
	if a.Delay < 0 {
		return fmt.Errorf("%w: %q", ErrInvalidDelay, a.Name)
	}
	for _, s := range a.Steps {
		switch s.Type {
		case StepAdd, StepSubtract, StepMultiply, StepDivide, StepSelect, StepRename,
			StepConstant, StepEpochTimestamp, StepSystemClockTimestamp:
		default:
			return fmt.Errorf("%w: %q in accumulator %q", ErrUnknownStep, s.Type, a.Name)
		}
	}
	return nil
}
