package kafka

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type PublishConfig struct {
	Enabled bool

	Brokers  []string
	Topic    string
	ClientID string

	Timeout    time.Duration
	MaxRetries int
}

func FromEnv() PublishConfig {
	enabled := strings.ToLower(os.Getenv("PUBLISH_ENABLED")) == "true"
	brokers := strings.TrimSpace(os.Getenv("KAFKA_BROKERS"))
	if brokers == "" {
		brokers = "localhost:9092"
	}
	topic := strings.TrimSpace(os.Getenv("KAFKA_TOPIC"))
	if topic == "" {
		topic = "osm-extents"
	}
	client := strings.TrimSpace(os.Getenv("KAFKA_CLIENT_ID"))
	if client == "" {
		client = "osm-ingest"
	}
	retries := 3
	if v, err := strconv.Atoi(os.Getenv("KAFKA_MAX_RETRIES")); err == nil && v >= 0 {
		retries = v
	}

	return PublishConfig{
		Enabled:    enabled,
		Brokers:    split(brokers),
		Topic:      topic,
		ClientID:   client,
		Timeout:    10 * time.Second,
		MaxRetries: retries,
	}
}

func split(s string) []string {
	var out []string
	for p := range strings.SplitSeq(s, ",") {
		if x := strings.TrimSpace(p); x != "" {
			out = append(out, x)
		}
	}
	return out
}
