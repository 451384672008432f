// Package kafka publishes extent summaries to a Kafka topic, keyed by
// dataset.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/IBM/sarama"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mohammed-shakir/osm-ingest/internal/extent"
)

type Options struct {
	Logger   *slog.Logger
	Register prometheus.Registerer
}

type Publisher struct {
	log  *slog.Logger
	cfg  PublishConfig
	prod sarama.SyncProducer
	ms   *metricSet
	ver  *versionDedupe
}

// NewProducer dials the brokers with a config suited to a sync producer.
func NewProducer(cfg PublishConfig) (sarama.SyncProducer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka publisher: no brokers configured")
	}
	sc := sarama.NewConfig()
	sc.Version = sarama.V2_5_0_0
	sc.ClientID = cfg.ClientID
	sc.Producer.Return.Successes = true
	sc.Producer.RequiredAcks = sarama.WaitForAll
	sc.Producer.Retry.Max = cfg.MaxRetries
	sc.Producer.Timeout = cfg.Timeout
	sc.Producer.Partitioner = sarama.NewHashPartitioner

	p, err := sarama.NewSyncProducer(cfg.Brokers, sc)
	if err != nil {
		return nil, fmt.Errorf("sync producer: %w", err)
	}
	return p, nil
}

func New(cfg PublishConfig, prod sarama.SyncProducer, opts Options) *Publisher {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Publisher{
		log:  opts.Logger,
		cfg:  cfg,
		prod: prod,
		ms:   newMetricSet(opts.Register),
		ver:  newVersionDedupe(4096),
	}
}

// Save publishes s; it makes Publisher an extent.Sink. Summaries older than
// the last one published for the same dataset are skipped.
func (p *Publisher) Save(ctx context.Context, s extent.Summary) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ev := eventFor(s)
	if !p.ver.newer(ev.Dataset, ev.Version) {
		p.ms.msgs.WithLabelValues("stale").Inc()
		p.log.InfoContext(ctx, "extent publish skipped, newer version already sent",
			"dataset", ev.Dataset, "version", ev.Version)
		return nil
	}

	body, err := json.Marshal(ev)
	if err != nil {
		p.ms.msgs.WithLabelValues("encode_error").Inc()
		return fmt.Errorf("kafka publish encode: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: p.cfg.Topic,
		Key:   sarama.StringEncoder(ev.Dataset),
		Value: sarama.ByteEncoder(body),
	}
	if !ev.TS.IsZero() {
		msg.Timestamp = ev.TS
	}

	start := time.Now()
	partition, offset, err := p.prod.SendMessage(msg)
	p.ms.send.Observe(time.Since(start).Seconds())
	if err != nil {
		p.ms.msgs.WithLabelValues("error").Inc()
		return fmt.Errorf("kafka publish %q: %w", ev.Dataset, err)
	}
	p.ver.record(ev.Dataset, ev.Version)
	p.ms.msgs.WithLabelValues("ok").Inc()
	p.log.DebugContext(ctx, "extent published",
		"topic", p.cfg.Topic, "partition", partition, "offset", offset, "dataset", ev.Dataset)
	return nil
}

func (p *Publisher) Close() error {
	if err := p.prod.Close(); err != nil {
		return fmt.Errorf("kafka producer close: %w", err)
	}
	return nil
}
