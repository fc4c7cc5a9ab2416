package brokers

import (
	"context"
	"strings"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/ruslano69/tdtp-tds/pkg/core/tds"
)

var cityFields = tds.Fields{
	{Name: "id", Type: tds.TypeInt4},
	{Name: "name", Type: tds.TypeNVarchar},
	{Name: "budget", Type: tds.TypeNumericN, Precision: 20, Scale: 2},
}

func cityRows() []tds.Row {
	names := cityFields.Names()
	return []tds.Row{
		tds.NewRow(names, []tds.Value{tds.Int(1), tds.Text("Stockholm"), tds.Decimal("1234567890123456.78")}),
		tds.NewRow(names, []tds.Value{tds.Int(2), tds.Null(), tds.Float(0.5)}),
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		cfg      Config
		wantType string
		wantErr  bool
	}{
		{"kafka", Config{Type: "kafka", Brokers: []string{"localhost:9092"}, Topic: "rows"}, "kafka", false},
		{"rabbitmq", Config{Type: "rabbitmq", Queue: "rows"}, "rabbitmq", false},
		{"memory", Config{Type: "memory"}, "memory", false},
		{"msmq", Config{Type: "msmq"}, "", true},
		{"empty", Config{}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := New(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && p.GetBrokerType() != tt.wantType {
				t.Errorf("Expected broker type %q, got %q", tt.wantType, p.GetBrokerType())
			}
		})
	}
}

func TestKafkaValidation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid config", Config{Brokers: []string{"localhost:9092"}, Topic: "test"}, false},
		{"snappy", Config{Brokers: []string{"localhost:9092"}, Topic: "test", Compression: "snappy"}, false},
		{"missing topic", Config{Brokers: []string{"localhost:9092"}}, true},
		{"missing brokers", Config{Topic: "test"}, true},
		{"unknown compression", Config{Brokers: []string{"localhost:9092"}, Topic: "test", Compression: "brotli"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewKafka(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewKafka() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestKafkaNotConnected(t *testing.T) {
	k, err := NewKafka(Config{Brokers: []string{"localhost:9092"}, Topic: "test"})
	if err != nil {
		t.Fatalf("NewKafka() error = %v", err)
	}
	if err := k.Send(context.Background(), []byte("{}")); err == nil {
		t.Error("Expected error sending without Connect")
	}
	if k.config.ConsumerGroup != "tds-consumer-group" {
		t.Errorf("Expected default consumer group, got %q", k.config.ConsumerGroup)
	}
}

func TestRabbitMQDefaults(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want amqp.URI
	}{
		{"plain", Config{Queue: "rows", User: "tds", Password: "secret"},
			amqp.URI{Scheme: "amqp", Host: "localhost", Port: 5672, Username: "tds", Password: "secret", Vhost: "/"}},
		{"tls", Config{Queue: "rows", User: "tds", Password: "secret", Host: "mq.local", UseTLS: true, VHost: "scan"},
			amqp.URI{Scheme: "amqps", Host: "mq.local", Port: 5671, Username: "tds", Password: "secret", Vhost: "scan"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewRabbitMQ(tt.cfg)
			if err != nil {
				t.Fatalf("NewRabbitMQ() error = %v", err)
			}
			got, err := amqp.ParseURI(r.URI().String())
			if err != nil {
				t.Fatalf("ParseURI() error = %v", err)
			}
			if got.Scheme != tt.want.Scheme || got.Host != tt.want.Host || got.Port != tt.want.Port ||
				got.Username != tt.want.Username || got.Password != tt.want.Password || got.Vhost != tt.want.Vhost {
				t.Errorf("URI = %+v, want %+v", got, tt.want)
			}
		})
	}

	if _, err := NewRabbitMQ(Config{}); err == nil {
		t.Error("Expected error for missing queue")
	}
}

func TestRowMessage(t *testing.T) {
	rows := cityRows()
	tests := []struct {
		row  tds.Row
		want string
	}{
		{rows[0], `{"id":1,"name":"Stockholm","budget":"1234567890123456.78"}`},
		{rows[1], `{"id":2,"name":null,"budget":0.5}`},
	}
	for _, tt := range tests {
		got, err := RowMessage(cityFields, tt.row)
		if err != nil {
			t.Fatalf("RowMessage() error = %v", err)
		}
		if string(got) != tt.want {
			t.Errorf("RowMessage() = %s, want %s", got, tt.want)
		}
	}

	short := tds.NewRow([]string{"id"}, []tds.Value{tds.Int(1)})
	if _, err := RowMessage(cityFields, short); err == nil {
		t.Error("Expected error for row width mismatch")
	}
	renamed := tds.NewRow([]string{"id", "city", "budget"}, []tds.Value{tds.Int(1), tds.Text("Oslo"), tds.Null()})
	if _, err := RowMessage(cityFields, renamed); err == nil || !strings.Contains(err.Error(), "expected name") {
		t.Errorf("Expected column name error, got %v", err)
	}
}

func TestSendRows_Memory(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	if _, err := SendRows(ctx, m, cityFields, cityRows()); err == nil {
		t.Error("Expected error before Connect")
	}
	if err := m.Connect(ctx); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer m.Close()

	n, err := SendRows(ctx, m, cityFields, cityRows())
	if err != nil {
		t.Fatalf("SendRows() error = %v", err)
	}
	if n != 2 {
		t.Errorf("Expected 2 rows sent, got %d", n)
	}
	msgs := m.Messages()
	if len(msgs) != 2 || !strings.Contains(string(msgs[0]), "Stockholm") {
		t.Errorf("unexpected messages: %q", msgs)
	}
}

// batchRecorder записывает пакеты SendBatch
type batchRecorder struct {
	Memory
	batches int
}

func (b *batchRecorder) SendBatch(ctx context.Context, messages [][]byte) error {
	b.batches++
	for _, m := range messages {
		if err := b.Send(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

func TestSendRows_Batch(t *testing.T) {
	ctx := context.Background()
	b := &batchRecorder{}
	b.Connect(ctx)

	n, err := SendRows(ctx, b, cityFields, cityRows())
	if err != nil {
		t.Fatalf("SendRows() error = %v", err)
	}
	if n != 2 || b.batches != 1 {
		t.Errorf("Expected 2 rows in 1 batch, got %d rows in %d batches", n, b.batches)
	}
}

// TestKafkaIntegration требует запущенного Kafka сервера на localhost:9092
func TestKafkaIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping Kafka integration test in short mode")
	}

	k, err := NewKafka(Config{
		Brokers:       []string{"localhost:9092"},
		Topic:         "tds-test-topic",
		ConsumerGroup: "tds-test-group",
	})
	if err != nil {
		t.Fatalf("NewKafka() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := k.Connect(ctx); err != nil {
		t.Skipf("Skipping test: Kafka server not available: %v", err)
	}
	defer k.Close()

	if _, err := SendRows(ctx, k, cityFields, cityRows()[:1]); err != nil {
		t.Fatalf("SendRows() error = %v", err)
	}
	received, err := k.Receive(ctx)
	if err != nil {
		t.Fatalf("Receive() error = %v", err)
	}
	if !strings.Contains(string(received), `"id":1`) {
		t.Errorf("unexpected message: %s", received)
	}
}
