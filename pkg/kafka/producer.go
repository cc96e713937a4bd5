package kafka

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/segmentio/kafka-go"

	"github.com/siqueiraa/FrameFlow/pkg/avro"
	"github.com/siqueiraa/FrameFlow/pkg/config"
	"github.com/siqueiraa/FrameFlow/pkg/frame"
)

const (
	batchTimeoutMillis = 100 // Batch timeout in milliseconds
	batchTimeoutSecs   = 10  // Batch write timeout in seconds
	checksumKeyBase    = 16  // Message keys are hex checksums
)

// jsonFast is ConfigFastest without the 6-digit float truncation.
var jsonFast = jsoniter.Config{
	EscapeHTML:                    false,
	ObjectFieldMustBeSimpleString: true,
}.Froze()

// messageWriter is the part of kafka.Writer the producer uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes frames as JSON, or as Confluent-framed Avro when a
// schema registry is configured.
type Producer struct {
	ctx      context.Context
	writer   messageWriter
	registry *avro.Registry
}

// NewProducer creates a new Kafka producer.
func NewProducer(ctx context.Context, cfg config.KafkaConfig) (*Producer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers are required")
	}
	w := kafka.NewWriter(kafka.WriterConfig{
		Brokers:      cfg.Brokers,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: batchTimeoutMillis * time.Millisecond,
		// RequiredAcks is an int, so cast the constant.
		RequiredAcks: int(kafka.RequireAll),
	})

	var registry *avro.Registry
	if cfg.UseAvro {
		registry = avro.NewRegistry(cfg.SchemaRegistry)
	}
	return newProducer(ctx, w, registry), nil
}

func newProducer(ctx context.Context, w messageWriter, registry *avro.Registry) *Producer {
	return &Producer{ctx: ctx, writer: w, registry: registry}
}

func valueSubject(topic string) string { return topic + "-value" }

// Prepare registers the frame schema for topic when publishing Avro.
func (p *Producer) Prepare(topic string) error {
	if p.registry == nil {
		return nil
	}
	id, err := p.registry.EnsureFrameSchema(valueSubject(topic))
	if err != nil {
		return err
	}
	log.Printf("[Kafka] Using schema %d for %s", id, valueSubject(topic))
	return nil
}

// Encode serializes f the way it will be published to topic.
func (p *Producer) Encode(topic string, f *frame.Frame) ([]byte, error) {
	if p.registry != nil {
		payload, err := p.registry.EncodeFrame(valueSubject(topic), f)
		if err != nil {
			return nil, fmt.Errorf("avro encode failed: %w", err)
		}
		return payload, nil
	}
	payload, err := jsonFast.Marshal(avro.FromFrame(f))
	if err != nil {
		return nil, fmt.Errorf("json marshal failed: %w", err)
	}
	return payload, nil
}

// MessageKey is the partitioning key of f: its content checksum in hex.
func MessageKey(f *frame.Frame) []byte {
	return strconv.AppendUint(nil, f.Checksum(), checksumKeyBase)
}

// PublishBatch encodes every frame and writes them as one batch. A frame that
// fails to encode fails the whole batch.
func (p *Producer) PublishBatch(topic string, frames []*frame.Frame) error {
	if len(frames) == 0 {
		return nil
	}

	msgs := make([]kafka.Message, 0, len(frames))
	now := time.Now()
	for _, f := range frames {
		payload, err := p.Encode(topic, f)
		if err != nil {
			return fmt.Errorf("frame %d: %w", f.Index(), err)
		}
		msgs = append(msgs, kafka.Message{
			Topic: topic,
			Key:   MessageKey(f),
			Value: payload,
			Time:  now,
		})
	}

	ctx, cancel := context.WithTimeout(p.ctx, batchTimeoutSecs*time.Second)
	defer cancel()

	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		log.Printf("[Kafka] publish failed topic=%s: %v", topic, err)
		return err
	}
	return nil
}

// Close shuts down the writer cleanly.
func (p *Producer) Close() error {
	return p.writer.Close()
}
