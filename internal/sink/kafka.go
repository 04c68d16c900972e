package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"plategate/internal/config"
	"plategate/internal/constants"
	"plategate/pkg/models"
	"plategate/pkg/tracing"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink publishes each event as JSON keyed by licence plate, so all
// sightings of one plate land on the same partition.
type KafkaSink struct {
	writer messageWriter
	topic  string
}

func NewKafkaSink(cfg config.KafkaConfig) *KafkaSink {
	writeTimeout := cfg.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = constants.KafkaWriteTimeout
	}

	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.Hash{},
		BatchTimeout:           constants.KafkaBatchTimeout,
		WriteTimeout:           writeTimeout,
		MaxAttempts:            1,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		Async:                  false,
	}
	return &KafkaSink{writer: w, topic: cfg.Topic}
}

func (s *KafkaSink) Name() string { return "kafka" }

func (s *KafkaSink) Write(ctx context.Context, event models.StructuredEvent) error {
	ctx, span := tracing.StartProducerSpan(ctx, s.topic)
	defer span.End()

	body, err := json.Marshal(event)
	if err != nil {
		return unavailable(s.Name(), fmt.Errorf("failed to marshal event: %w", err))
	}

	headers := []kafka.Header{{Key: "content-type", Value: []byte("application/json")}}
	headers = tracing.InjectTraceContext(ctx, headers)

	err = s.writer.WriteMessages(ctx, kafka.Message{
		Topic:   s.topic,
		Key:     []byte(event.LicensePlate),
		Value:   body,
		Headers: headers,
		Time:    time.Now(),
	})
	if err != nil {
		span.RecordError(err)
		return unavailable(s.Name(), fmt.Errorf("failed to write kafka message: %w", err))
	}
	return nil
}

func (s *KafkaSink) Close() error {
	return s.writer.Close()
}
