package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"hrportal/pkg/platform/audit"
)

const (
	HeaderEventType     = "event_type"
	HeaderAggregateType = "aggregate_type"
	HeaderOutboxID      = "outbox_id"
)

// KafkaSink produces outbox entries to one topic, keyed by aggregate id so
// events for one application stay on one partition.
type KafkaSink struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
	closed atomic.Bool
}

type KafkaOptions struct {
	Brokers    []string
	Topic      string
	Partitions int32
	// Replication of -1 uses the broker default.
	Replication int16
}

// NewKafkaSink connects to the brokers and creates the topic if it is missing.
func NewKafkaSink(ctx context.Context, opts KafkaOptions, logger *slog.Logger) (*KafkaSink, error) {
	if len(opts.Brokers) == 0 {
		return nil, errors.New("kafka: no brokers configured")
	}
	if opts.Topic == "" {
		return nil, errors.New("kafka: topic is required")
	}
	if opts.Partitions <= 0 {
		opts.Partitions = 3
	}
	if opts.Replication == 0 {
		opts.Replication = -1
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(opts.Brokers...),
		kgo.DefaultProduceTopic(opts.Topic),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.ProducerLinger(5*time.Millisecond),
		kgo.RecordRetries(5),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka: create client: %w", err)
	}
	if err := ensureTopic(ctx, client, opts); err != nil {
		client.Close()
		return nil, err
	}
	logger.InfoContext(ctx, "kafka sink ready", "topic", opts.Topic, "brokers", opts.Brokers)
	return &KafkaSink{client: client, topic: opts.Topic, logger: logger}, nil
}

func ensureTopic(ctx context.Context, client *kgo.Client, opts KafkaOptions) error {
	adm := kadm.NewClient(client)
	resp, err := adm.CreateTopics(ctx, opts.Partitions, opts.Replication, nil, opts.Topic)
	if err != nil {
		return fmt.Errorf("kafka: create topic %s: %w", opts.Topic, err)
	}
	for _, r := range resp {
		if r.Err != nil && !errors.Is(r.Err, kerr.TopicAlreadyExists) {
			return fmt.Errorf("kafka: create topic %s: %w", r.Topic, r.Err)
		}
	}
	return nil
}

func (s *KafkaSink) Name() string { return "kafka" }

func (s *KafkaSink) Publish(ctx context.Context, entries []audit.OutboxEntry) error {
	if s.closed.Load() {
		return errClosed
	}
	records := make([]*kgo.Record, 0, len(entries))
	for _, e := range entries {
		records = append(records, &kgo.Record{
			Topic:     s.topic,
			Key:       []byte(e.AggregateID),
			Value:     e.Payload,
			Timestamp: e.CreatedAt,
			Headers: []kgo.RecordHeader{
				{Key: HeaderEventType, Value: []byte(e.EventType)},
				{Key: HeaderAggregateType, Value: []byte(e.AggregateType)},
				{Key: HeaderOutboxID, Value: []byte(e.ID.String())},
			},
		})
	}
	if err := s.client.ProduceSync(ctx, records...).FirstErr(); err != nil {
		return err
	}
	return nil
}

func (s *KafkaSink) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.client.Flush(ctx); err != nil {
		s.logger.Warn("kafka flush on close failed", "error", err)
	}
	s.client.Close()
	return nil
}
