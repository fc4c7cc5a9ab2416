package brokers

import (
	"context"
	"fmt"
	"sync"
)

// Memory - брокер в памяти. Сообщения сохраняются в порядке отправки.
type Memory struct {
	mu        sync.Mutex
	connected bool
	messages  [][]byte
}

// NewMemory создает пустой in-memory брокер
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Connect(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connected = true
	return nil
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connected = false
	return nil
}

func (m *Memory) Send(ctx context.Context, message []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.connected {
		return fmt.Errorf("not connected to memory broker")
	}
	m.messages = append(m.messages, append([]byte(nil), message...))
	return nil
}

func (m *Memory) Ping(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.connected {
		return fmt.Errorf("not connected to memory broker")
	}
	return nil
}

func (m *Memory) GetBrokerType() string {
	return "memory"
}

// Messages возвращает копию отправленных сообщений
func (m *Memory) Messages() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]byte, len(m.messages))
	copy(out, m.messages)
	return out
}
