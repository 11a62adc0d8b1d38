package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
log:
  level: warn
scheduler:
  workers: 2
kafka:
  brokers: ["localhost:9092"]
  topic: sensor-rows
export:
  directory: /tmp/sensorlens
  interval: 30s
metrics:
  listenAddr: ":9100"
accumulators:
  - name: accelerometer
    source: sensor
    windowSize: 500
    columns: [x, y, z]
    label: activity
    steps:
      - type: Multiply
        values: {x: 2}
      - type: epoch_timestamp
  - name: inference
    source: random
    columns: [score]
  - name: remote
    source: kafka
    steps:
      - type: rename
        mapping: {feature_a: a}
      - type: select
        columns: [a, feature_b]
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 2, cfg.Scheduler.Workers)
	assert.Equal(t, time.Millisecond, cfg.Scheduler.MinInterval)
	assert.Equal(t, defaultKafkaGroupID, cfg.Kafka.GroupID)
	assert.Equal(t, 30*time.Second, cfg.Export.Interval)
	assert.Equal(t, defaultExportPrefix, cfg.Export.Prefix)
	assert.Equal(t, ":9100", cfg.Metrics.ListenAddr)
	assert.True(t, cfg.UsesKafka())

	require.Len(t, cfg.Accumulators, 3)
	accel := cfg.Accumulators[0]
	assert.Equal(t, 500, accel.WindowSize)
	assert.Equal(t, defaultSensorRate, accel.Rate)
	assert.Equal(t, []string{"x", "y", "z"}, accel.Columns)
	assert.Equal(t, "activity", accel.Label)
	require.Len(t, accel.Steps, 2)
	assert.Equal(t, StepMultiply, accel.Steps[0].Type)
	assert.Equal(t, map[string]float64{"x": 2}, accel.Steps[0].Values)

	assert.Equal(t, defaultPollingPeriod, cfg.Accumulators[1].Delay)
	assert.Equal(t, map[string]string{"feature_a": "a"}, cfg.Accumulators[2].Steps[0].Mapping)
}

func TestLoadEnvironmentOverride(t *testing.T) {
	t.Setenv("SENSORLENS_LOG_LEVEL", "debug")
	t.Setenv("SENSORLENS_SCHEDULER_WORKERS", "8")
	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 8, cfg.Scheduler.Workers)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, ErrConfigFileMissing)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{
			name:    "no accumulators",
			content: "log: {level: info}\n",
			wantErr: ErrNoAccumulators,
		},
		{
			name:    "unknown source",
			content: "accumulators: [{name: a, source: camera}]\n",
			wantErr: ErrUnknownSource,
		},
		{
			name:    "duplicate names",
			content: "accumulators: [{name: a, source: sensor}, {name: a, source: random}]\n",
			wantErr: ErrDuplicateAccumulator,
		},
		{
			name:    "empty name",
			content: "accumulators: [{source: sensor}]\n",
			wantErr: ErrEmptyAccumulatorName,
		},
		{
			name:    "negative window",
			content: "accumulators: [{name: a, source: sensor, windowSize: -1}]\n",
			wantErr: ErrInvalidWindowSize,
		},
		{
			name:    "unknown step",
			content: "accumulators: [{name: a, source: sensor, steps: [{type: fft}]}]\n",
			wantErr: ErrUnknownStep,
		},
		{
			name:    "kafka source without brokers",
			content: "accumulators: [{name: a, source: kafka}]\n",
			wantErr: ErrEmptyKafkaBrokers,
		},
		{
			name:    "kafka source without topic",
			content: "kafka: {brokers: [b:9092]}\naccumulators: [{name: a, source: kafka}]\n",
			wantErr: ErrEmptyKafkaTopic,
		},
		{
			name:    "zero workers",
			content: "scheduler: {workers: 0}\naccumulators: [{name: a, source: sensor}]\n",
			wantErr: ErrInvalidWorkers,
		},
		{
			name:    "malformed yaml",
			content: "accumulators: [\n",
			wantErr: ErrReadingConfigFile,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
