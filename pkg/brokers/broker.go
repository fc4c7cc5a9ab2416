package brokers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ruslano69/tdtp-tds/pkg/core/tds"
)

// Publisher представляет универсальный интерфейс отправки сообщений в брокер.
// Поддерживает Apache Kafka, RabbitMQ и in-memory брокер для тестов.
type Publisher interface {
	// Connect устанавливает соединение с брокером
	Connect(ctx context.Context) error

	// Close закрывает соединение с брокером
	Close() error

	// Send отправляет сообщение (JSON строки результата)
	Send(ctx context.Context, message []byte) error

	// Ping проверяет доступность брокера
	Ping(ctx context.Context) error

	// GetBrokerType возвращает тип брокера (kafka, rabbitmq, memory)
	GetBrokerType() string
}

// Config содержит параметры подключения к message broker
type Config struct {
	Type     string `yaml:"type"`     // kafka, rabbitmq, memory
	Host     string `yaml:"host"`     // Хост (для RabbitMQ)
	Port     int    `yaml:"port"`     // Порт (для RabbitMQ)
	User     string `yaml:"user"`     // Пользователь (для RabbitMQ)
	Password string `yaml:"password"` // Пароль (для RabbitMQ)
	Queue    string `yaml:"queue"`    // Имя очереди (для RabbitMQ)
	VHost    string `yaml:"vhost"`    // Virtual host (для RabbitMQ, по умолчанию "/")
	UseTLS   bool   `yaml:"tls"`      // Использовать TLS/SSL (amqps://) для RabbitMQ
	Exchange string `yaml:"exchange"` // RabbitMQ exchange (пустая строка = default exchange)

	// RabbitMQ параметры очереди (должны совпадать с существующей очередью)
	Durable    bool `yaml:"durable"`
	AutoDelete bool `yaml:"auto_delete"`

	// Kafka параметры
	Brokers       []string `yaml:"brokers"`        // Список Kafka brokers (["localhost:9092"])
	Topic         string   `yaml:"topic"`          // Имя Kafka topic
	ConsumerGroup string   `yaml:"consumer_group"` // Consumer group ID (по умолчанию "tds-consumer-group")
	Compression   string   `yaml:"compression"`    // zstd (по умолчанию), snappy, gzip, lz4, none
}

// batchSender - брокер, умеющий отправить несколько сообщений за один вызов
type batchSender interface {
	SendBatch(ctx context.Context, messages [][]byte) error
}

// BatchError сообщает, какие сообщения пакета не были отправлены.
// Остальные сообщения пакета доставлены.
type BatchError struct {
	Failed []int // индексы в пакете
	Err    error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("%d messages of batch not sent: %v", len(e.Failed), e.Err)
}

func (e *BatchError) Unwrap() error { return e.Err }

// New создает новый Publisher на основе конфигурации
func New(cfg Config) (Publisher, error) {
	switch cfg.Type {
	case "kafka":
		return NewKafka(cfg)
	case "rabbitmq":
		return NewRabbitMQ(cfg)
	case "memory":
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unsupported broker type: %s (supported: kafka, rabbitmq, memory)", cfg.Type)
	}
}

// RowMessage кодирует строку результата в JSON-объект.
// Ключи идут в порядке дескрипторов, DECIMAL передается строкой.
func RowMessage(fields tds.Fields, row tds.Row) ([]byte, error) {
	if row.Len() != len(fields) {
		return nil, fmt.Errorf("row has %d values, expected %d", row.Len(), len(fields))
	}
	for i, name := range row.Names() {
		if name != fields[i].Name {
			return nil, fmt.Errorf("column %d is %s, expected name %s", i, name, fields[i].Name)
		}
	}
	msg, err := json.Marshal(row)
	if err != nil {
		return nil, fmt.Errorf("failed to encode row: %w", err)
	}
	return msg, nil
}

// SendRows отправляет каждую строку отдельным сообщением и возвращает число отправленных.
// Если брокер поддерживает пакетную отправку, строки уходят одним вызовом.
func SendRows(ctx context.Context, p Publisher, fields tds.Fields, rows []tds.Row) (int, error) {
	if b, ok := p.(batchSender); ok {
		msgs := make([][]byte, len(rows))
		for i, row := range rows {
			msg, err := RowMessage(fields, row)
			if err != nil {
				return 0, fmt.Errorf("row %d: %w", i, err)
			}
			msgs[i] = msg
		}
		if err := b.SendBatch(ctx, msgs); err != nil {
			return 0, err
		}
		return len(rows), nil
	}

	for i, row := range rows {
		msg, err := RowMessage(fields, row)
		if err != nil {
			return i, fmt.Errorf("row %d: %w", i, err)
		}
		if err := p.Send(ctx, msg); err != nil {
			return i, fmt.Errorf("row %d: %w", i, err)
		}
	}
	return len(rows), nil
}
