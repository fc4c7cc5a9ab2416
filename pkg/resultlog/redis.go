package resultlog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config - подключение к Redis и имя, под которым публикуются результаты
type Config struct {
	Enabled  bool   `yaml:"enabled"`
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Name     string `yaml:"name"`
	TTL      int    `yaml:"ttl"` // секунды, 0 - без срока хранения
}

// Статусы ScanResult
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// ScanResult представляет итог чтения потока или запроса, публикуемый в Redis
// после завершения (успешного или с ошибкой).
//
// Redis-ключи:
//
//	SET  tds:scan:<name>:state  <JSON>  EX <ttl>  - для GET-запросов оркестратора
//	PUB  tds:scan:<name>                          - для event-driven маршрутизации
type ScanResult struct {
	Name        string    `json:"name"`
	Source      string    `json:"source"` // файл захвата или тип адаптера
	Status      string    `json:"status"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
	DurationMs  int64     `json:"duration_ms"`
	ResultSets  int       `json:"result_sets"`
	Rows        int       `json:"rows"`
	Fingerprint string    `json:"fingerprint,omitempty"`
	Error       *string   `json:"error,omitempty"`
}

// Finish заполняет время завершения и статус. err == nil означает успех.
func (r *ScanResult) Finish(finishedAt time.Time, err error) {
	r.FinishedAt = finishedAt
	r.DurationMs = finishedAt.Sub(r.StartedAt).Milliseconds()
	if err != nil {
		r.Status = StatusFailed
		errStr := err.Error()
		r.Error = &errStr
		return
	}
	r.Status = StatusSuccess
	r.Error = nil
}

// RedisPublisher публикует результат чтения в Redis
type RedisPublisher struct {
	client *redis.Client
	config Config
}

// NewRedisPublisher создает новый Redis publisher на основе конфигурации
func NewRedisPublisher(config Config) *RedisPublisher {
	client := redis.NewClient(&redis.Options{
		Addr:     config.Address,
		Password: config.Password,
		DB:       config.DB,
	})
	return &RedisPublisher{client: client, config: config}
}

// StateKey - ключ последнего состояния
func StateKey(name string) string {
	return fmt.Sprintf("tds:scan:%s:state", name)
}

// EventChannel - канал событий
func EventChannel(name string) string {
	return fmt.Sprintf("tds:scan:%s", name)
}

// Publish публикует результат:
//   - SET tds:scan:<name>:state <JSON> EX <ttl>  → для опроса (polling)
//   - PUBLISH tds:scan:<name> <JSON>              → для подписки (pub/sub)
//
// Имя берется из конфигурации, если в result оно не задано.
func (p *RedisPublisher) Publish(ctx context.Context, result ScanResult) error {
	if result.Name == "" {
		result.Name = p.config.Name
	}
	if result.Name == "" {
		return fmt.Errorf("result name is empty")
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	ttl := time.Duration(p.config.TTL) * time.Second

	// SET ключ с TTL - оркестратор может GET для получения последнего состояния
	if err := p.client.Set(ctx, StateKey(result.Name), payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis SET failed: %w", err)
	}

	// PUBLISH событие - оркестратор может SUBSCRIBE для event-driven маршрутизации
	if err := p.client.Publish(ctx, EventChannel(result.Name), payload).Err(); err != nil {
		return fmt.Errorf("redis PUBLISH failed: %w", err)
	}

	return nil
}

// Close закрывает соединение с Redis
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
