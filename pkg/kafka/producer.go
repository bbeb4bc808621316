package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/segmentio/kafka-go"
)

// Message is one key/value pair for batch publishing.
type Message struct {
	Key   []byte
	Value interface{}
}

// Producer wraps a Kafka writer.
type Producer struct {
	writer *kafka.Writer
	comp   string
}

var (
	producerMetricsOnce sync.Once
	producerMessages    *prometheus.CounterVec
	producerErrors      *prometheus.CounterVec
	producerLatency     *prometheus.HistogramVec
)

func initProducerMetrics() {
	producerMetricsOnce.Do(func() {
		producerMessages = promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "quantdesk_kafka_messages_total",
			Help: "Total messages written to Kafka",
		}, []string{"topic", "compression"})
		producerErrors = promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "quantdesk_kafka_write_errors_total",
			Help: "Total Kafka write errors",
		}, []string{"topic"})
		producerLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "quantdesk_kafka_write_duration_seconds",
			Help:    "Kafka write latency in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"topic"})
	})
}

// NewProducer creates a new Kafka producer.
func NewProducer(opts ...ProducerOption) (*Producer, error) {
	cfg := &ProducerConfig{
		RequiredAcks: -1,
		Compression:  "gzip",
		MaxAttempts:  3,
		WriteTimeout: 10 * time.Second,
		ReadTimeout:  10 * time.Second,
		BatchSize:    100,
		BatchBytes:   1048576,
		BatchTimeout: 1 * time.Second,
		Async:        false,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("brokers are required")
	}

	bal := kafka.Balancer(&kafka.LeastBytes{})
	if cfg.HashByKey {
		bal = &kafka.Hash{}
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     bal,
		RequiredAcks: kafka.RequiredAcks(cfg.RequiredAcks),
		Compression:  parseCompression(cfg.Compression),
		MaxAttempts:  cfg.MaxAttempts,
		WriteTimeout: cfg.WriteTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		BatchSize:    cfg.BatchSize,
		BatchBytes:   int64(cfg.BatchBytes),
		BatchTimeout: cfg.BatchTimeout,
		Async:        cfg.Async,
	}

	initProducerMetrics()
	return &Producer{writer: writer, comp: cfg.Compression}, nil
}

// Publish sends one message to the given topic. Non-byte values are JSON
// encoded.
func (p *Producer) Publish(ctx context.Context, topic string, key []byte, value interface{}) error {
	v, err := encodeValue(value)
	if err != nil {
		return err
	}

	start := time.Now()
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   key,
		Value: v,
		Time:  time.Now(),
	})
	observeWrite(topic, p.comp, 1, time.Since(start), err)
	return err
}

// PublishBatch sends multiple messages to the given topic.
func (p *Producer) PublishBatch(ctx context.Context, topic string, messages []Message) error {
	if len(messages) == 0 {
		return nil
	}

	msgs := make([]kafka.Message, len(messages))
	now := time.Now()
	for i, m := range messages {
		v, err := encodeValue(m.Value)
		if err != nil {
			return err
		}
		msgs[i] = kafka.Message{Topic: topic, Key: m.Key, Value: v, Time: now}
	}

	start := time.Now()
	err := p.writer.WriteMessages(ctx, msgs...)
	observeWrite(topic, p.comp, len(msgs), time.Since(start), err)
	return err
}

// Close closes the writer.
func (p *Producer) Close() error {
	return p.writer.Close()
}

func encodeValue(value interface{}) ([]byte, error) {
	switch val := value.(type) {
	case []byte:
		return val, nil
	case string:
		return []byte(val), nil
	default:
		v, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("marshal value: %w", err)
		}
		return v, nil
	}
}

func observeWrite(topic, comp string, n int, d time.Duration, err error) {
	if err != nil {
		producerErrors.WithLabelValues(topic).Inc()
		return
	}
	producerMessages.WithLabelValues(topic, comp).Add(float64(n))
	producerLatency.WithLabelValues(topic).Observe(d.Seconds())
}

func parseCompression(name string) kafka.Compression {
	switch name {
	case "gzip":
		return kafka.Gzip
	case "snappy":
		return kafka.Snappy
	case "lz4":
		return kafka.Lz4
	case "zstd":
		return kafka.Zstd
	default:
		return kafka.Gzip
	}
}
