package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"math/rand"
	"os/signal"
	"syscall"
	"time"

	"github.com/segmentio/kafka-go"
)

var (
	broker   = flag.String("broker", "localhost:9092", "Kafka broker address")
	topic    = flag.String("topic", "sensor-rows", "Topic to write rows to")
	interval = flag.Duration("interval", 200*time.Millisecond, "Time between two rows")
)

// SensorRow matches the rows a kafka-sourced accumulator records. Nil fields are
// sent as null and recorded as empty cells.
type SensorRow struct {
	Timestamp  time.Time `json:"timestamp"`
	DeviceID   string    `json:"device_id"`
	HeartRate  *int      `json:"heart_rate"`
	SkinTemp   *float64  `json:"skin_temp"`
	Activity   *string   `json:"activity"`
	BatteryPct float64   `json:"battery_pct"`
}

func main() {
	flag.Parse()

	writer := &kafka.Writer{
		Addr:     kafka.TCP(*broker),
		Topic:    *topic,
		Balancer: &kafka.LeastBytes{},
	}
	defer func() {
		if err := writer.Close(); err != nil {
			log.Printf("Error closing kafka writer: %v", err)
		}
	}()
	log.Printf("Starting sample producer for topic: %s on broker: %s", *topic, *broker)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	battery := 100.0

	for {
		select {
		case <-ticker.C:
			battery -= rng.Float64() * 0.01
			if battery < 5 {
				battery = 100
			}
			b, err := json.Marshal(sampleRow(rng, battery))
			if err != nil {
				log.Printf("Error marshalling row: %v", err)
				continue
			}
			if err := writer.WriteMessages(ctx, kafka.Message{Value: b}); err != nil {
				if ctx.Err() != nil {
					return
				}
				log.Printf("Error writing row: %v", err)
			}

		case <-ctx.Done():
			log.Println("Producer loop stopped.")
			return
		}
	}
}

// sampleRow returns a wearable reading with occasional gaps and outliers.
func sampleRow(rng *rand.Rand, battery float64) SensorRow {
	row := SensorRow{
		Timestamp:  time.Now(),
		DeviceID:   "watch-" + string(rune('a'+rng.Intn(4))),
		BatteryPct: battery,
	}
	if rng.Float64() > 0.05 {
		hr := 70 + int(rng.NormFloat64()*8)
		if rng.Float64() < 0.02 {
			hr += 60
		}
		row.HeartRate = &hr
	}
	if rng.Float64() > 0.1 {
		t := 33.5 + rng.Float64()*1.5
		row.SkinTemp = &t
	}
	activities := []string{"still", "walking", "running", "cycling"}
	if rng.Float64() > 0.15 {
		a := activities[rng.Intn(len(activities))]
		row.Activity = &a
	}
	return row
}
