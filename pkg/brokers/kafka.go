package brokers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/compress"
)

// Kafka реализует Publisher для Apache Kafka.
// Reader создается при первом Receive и нужен только для проверки доставки.
type Kafka struct {
	config Config
	writer *kafka.Writer
	reader *kafka.Reader
}

// NewKafka создает новый Kafka publisher
func NewKafka(cfg Config) (*Kafka, error) {
	if cfg.Topic == "" {
		return nil, fmt.Errorf("topic name is required for Kafka")
	}
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("at least one broker address is required for Kafka")
	}
	if _, err := kafkaCompression(cfg.Compression); err != nil {
		return nil, err
	}
	if cfg.ConsumerGroup == "" {
		cfg.ConsumerGroup = "tds-consumer-group"
	}
	return &Kafka{config: cfg}, nil
}

// kafkaCompression сопоставляет имя кодека из конфигурации
func kafkaCompression(name string) (compress.Compression, error) {
	switch strings.ToLower(name) {
	case "", "zstd":
		return compress.Zstd, nil
	case "none":
		return compress.None, nil
	case "snappy":
		return compress.Snappy, nil
	case "gzip":
		return compress.Gzip, nil
	case "lz4":
		return compress.Lz4, nil
	default:
		return compress.None, fmt.Errorf("unsupported Kafka compression: %s", name)
	}
}

// Connect проверяет доступность topic и создает writer
func (k *Kafka) Connect(ctx context.Context) error {
	codec, err := kafkaCompression(k.config.Compression)
	if err != nil {
		return err
	}
	if err := k.Ping(ctx); err != nil {
		return err
	}

	k.writer = &kafka.Writer{
		Addr:         kafka.TCP(k.config.Brokers...),
		Topic:        k.config.Topic,
		Balancer:     &kafka.Hash{}, // строки с одним ключом попадают в одну партицию
		RequiredAcks: kafka.RequireAll,
		Compression:  codec,
		MaxAttempts:  3,
		BatchTimeout: 50 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
	}
	return nil
}

// Close закрывает writer и reader
func (k *Kafka) Close() error {
	var errs []error
	if k.writer != nil {
		if err := k.writer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close writer: %w", err))
		}
		k.writer = nil
	}
	if k.reader != nil {
		if err := k.reader.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close reader: %w", err))
		}
		k.reader = nil
	}
	return errors.Join(errs...)
}

// Send отправляет одно сообщение в topic
func (k *Kafka) Send(ctx context.Context, message []byte) error {
	return k.SendBatch(ctx, [][]byte{message})
}

// SendBatch отправляет сообщения одним вызовом writer
func (k *Kafka) SendBatch(ctx context.Context, messages [][]byte) error {
	if k.writer == nil {
		return fmt.Errorf("not connected to Kafka")
	}
	now := time.Now()
	msgs := make([]kafka.Message, len(messages))
	for i, m := range messages {
		msgs[i] = kafka.Message{
			Key:   []byte(fmt.Sprintf("tds-%d-%d", now.UnixNano(), i)),
			Value: m,
			Time:  now,
			Headers: []kafka.Header{
				{Key: "content-type", Value: []byte("application/json")},
				{Key: "protocol", Value: []byte("tds")},
			},
		}
	}
	if err := k.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("failed to write messages to Kafka: %w", kafkaBatchError(err))
	}
	return nil
}

// kafkaBatchError переводит kafka.WriteErrors в BatchError с индексами неотправленных сообщений
func kafkaBatchError(err error) error {
	var werrs kafka.WriteErrors
	if !errors.As(err, &werrs) {
		return err
	}
	be := &BatchError{Err: err}
	for i, e := range werrs {
		if e != nil {
			be.Failed = append(be.Failed, i)
		}
	}
	return be
}

// Receive читает следующее сообщение consumer group и сразу фиксирует offset
func (k *Kafka) Receive(ctx context.Context) ([]byte, error) {
	if k.reader == nil {
		k.reader = kafka.NewReader(kafka.ReaderConfig{
			Brokers:     k.config.Brokers,
			GroupID:     k.config.ConsumerGroup,
			Topic:       k.config.Topic,
			MinBytes:    1,
			MaxBytes:    10e6, // 10MB
			StartOffset: kafka.FirstOffset,
			MaxWait:     time.Second,
		})
	}
	msg, err := k.reader.ReadMessage(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read message: %w", err)
	}
	return msg.Value, nil
}

// Ping проверяет доступность брокера и существование topic
func (k *Kafka) Ping(ctx context.Context) error {
	conn, err := kafka.DialContext(ctx, "tcp", k.config.Brokers[0])
	if err != nil {
		return fmt.Errorf("failed to dial Kafka broker: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ReadPartitions(k.config.Topic); err != nil {
		return fmt.Errorf("failed to read topic partitions: %w", err)
	}
	return nil
}

// GetBrokerType возвращает тип брокера
func (k *Kafka) GetBrokerType() string {
	return "kafka"
}
