package brokers

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// RabbitMQ реализует Publisher для RabbitMQ.
// Канал работает в режиме publisher confirms: Send ждет подтверждения брокера.
type RabbitMQ struct {
	config  Config
	conn    *amqp.Connection
	channel *amqp.Channel
}

// NewRabbitMQ создает новый RabbitMQ publisher
func NewRabbitMQ(cfg Config) (*RabbitMQ, error) {
	if cfg.Queue == "" {
		return nil, fmt.Errorf("queue name is required for RabbitMQ")
	}
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port == 0 {
		if cfg.UseTLS {
			cfg.Port = 5671 // amqps default
		} else {
			cfg.Port = 5672 // amqp default
		}
	}
	if cfg.VHost == "" {
		cfg.VHost = "/"
	}
	return &RabbitMQ{config: cfg}, nil
}

// URI возвращает адрес подключения
func (r *RabbitMQ) URI() amqp.URI {
	scheme := "amqp"
	if r.config.UseTLS {
		scheme = "amqps"
	}
	return amqp.URI{
		Scheme:   scheme,
		Host:     r.config.Host,
		Port:     r.config.Port,
		Username: r.config.User,
		Password: r.config.Password,
		Vhost:    r.config.VHost,
	}
}

// Connect открывает соединение, канал с confirms и объявляет очередь
func (r *RabbitMQ) Connect(ctx context.Context) error {
	props := amqp.NewConnectionProperties()
	props.SetClientConnectionName("tdscat")

	cfg := amqp.Config{
		Properties: props,
		Heartbeat:  10 * time.Second,
	}
	if r.config.UseTLS {
		cfg.TLSClientConfig = &tls.Config{
			ServerName: r.config.Host,
			MinVersion: tls.VersionTLS12,
		}
	}
	if deadline, ok := ctx.Deadline(); ok {
		cfg.Dial = amqp.DefaultDial(time.Until(deadline))
	}

	conn, err := amqp.DialConfig(r.URI().String(), cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to open channel: %w", err)
	}
	if err := ch.Confirm(false); err != nil {
		ch.Close()
		conn.Close()
		return fmt.Errorf("failed to enable publisher confirms: %w", err)
	}

	// Очередь объявляется идемпотентно; параметры должны совпадать с существующей
	if _, err := ch.QueueDeclare(r.config.Queue, r.config.Durable, r.config.AutoDelete, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	r.conn = conn
	r.channel = ch
	return nil
}

// Close закрывает канал и соединение
func (r *RabbitMQ) Close() error {
	if r.channel != nil {
		if err := r.channel.Close(); err != nil && err != amqp.ErrClosed {
			return fmt.Errorf("failed to close channel: %w", err)
		}
		r.channel = nil
	}
	if r.conn != nil {
		if err := r.conn.Close(); err != nil && err != amqp.ErrClosed {
			return fmt.Errorf("failed to close connection: %w", err)
		}
		r.conn = nil
	}
	return nil
}

// Send публикует сообщение и ждет подтверждения брокера
func (r *RabbitMQ) Send(ctx context.Context, message []byte) error {
	if r.channel == nil {
		return fmt.Errorf("not connected to RabbitMQ")
	}

	dc, err := r.channel.PublishWithDeferredConfirmWithContext(ctx,
		r.config.Exchange, // пустая строка = default exchange
		r.config.Queue,    // routing key = имя очереди
		false,             // mandatory
		false,             // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         message,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}

	acked, err := dc.WaitContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to wait for confirm: %w", err)
	}
	if !acked {
		return fmt.Errorf("message rejected by broker")
	}
	return nil
}

// Receive забирает одно сообщение из очереди с подтверждением
func (r *RabbitMQ) Receive(ctx context.Context) ([]byte, error) {
	if r.channel == nil {
		return nil, fmt.Errorf("not connected to RabbitMQ")
	}
	for {
		delivery, ok, err := r.channel.Get(r.config.Queue, true)
		if err != nil {
			return nil, fmt.Errorf("failed to get message: %w", err)
		}
		if ok {
			return delivery.Body, nil
		}
		select {
		case <-time.After(100 * time.Millisecond):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Ping проверяет, что соединение и канал открыты
func (r *RabbitMQ) Ping(ctx context.Context) error {
	if r.conn == nil || r.conn.IsClosed() {
		return fmt.Errorf("not connected to RabbitMQ")
	}
	if r.channel == nil || r.channel.IsClosed() {
		return fmt.Errorf("channel not open")
	}
	return nil
}

// GetBrokerType возвращает тип брокера
func (r *RabbitMQ) GetBrokerType() string {
	return "rabbitmq"
}
