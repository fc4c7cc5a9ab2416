package adapters

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
)

// ErrUnknownType возвращается для типа СУБД без зарегистрированного адаптера
var ErrUnknownType = errors.New("unknown database type")

// AdapterConstructor - функция-конструктор адаптера
// Возвращает новый экземпляр адаптера (еще не подключенный к БД)
type AdapterConstructor func() Adapter

// registry хранит конструкторы адаптеров по типу СУБД.
// Заполняется из init() пакетов адаптеров, дальше только читается.
var registry = struct {
	sync.RWMutex
	constructors map[string]AdapterConstructor
}{constructors: make(map[string]AdapterConstructor)}

// Register регистрирует конструктор адаптера для типа БД.
// Вызывается в init() пакета адаптера:
//
//	func init() {
//	    adapters.Register("postgres", func() adapters.Adapter {
//	        return &Adapter{}
//	    })
//	}
//
// Повторная регистрация типа или nil-конструктор - ошибка программы (panic).
func Register(dbType string, constructor AdapterConstructor) {
	if constructor == nil {
		panic("adapters: Register constructor is nil for " + dbType)
	}
	registry.Lock()
	defer registry.Unlock()
	if _, dup := registry.constructors[dbType]; dup {
		panic("adapters: Register called twice for " + dbType)
	}
	registry.constructors[dbType] = constructor
}

// IsRegistered проверяет, есть ли адаптер для типа БД
func IsRegistered(dbType string) bool {
	registry.RLock()
	defer registry.RUnlock()
	_, ok := registry.constructors[dbType]
	return ok
}

// GetRegisteredTypes возвращает отсортированный список зарегистрированных типов БД
func GetRegisteredTypes() []string {
	registry.RLock()
	defer registry.RUnlock()
	types := make([]string, 0, len(registry.constructors))
	for dbType := range registry.constructors {
		types = append(types, dbType)
	}
	slices.Sort(types)
	return types
}

// NewWithoutConnect создает адаптер без подключения к БД
func NewWithoutConnect(dbType string) (Adapter, error) {
	registry.RLock()
	constructor, ok := registry.constructors[dbType]
	registry.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q (available types: %v)", ErrUnknownType, dbType, GetRegisteredTypes())
	}
	return constructor(), nil
}

// New создает адаптер и подключает его к БД.
// cfg.Timeout ограничивает только подключение; адаптер, не сумевший
// подключиться, закрывается.
//
//	adapter, err := adapters.New(ctx, adapters.Config{Type: "sqlite", DSN: "app.db"})
//	if err != nil {
//	    return err
//	}
//	defer adapter.Close(ctx)
func New(ctx context.Context, cfg Config) (Adapter, error) {
	adapter, err := NewWithoutConnect(cfg.Type)
	if err != nil {
		return nil, err
	}

	connectCtx := ctx
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		connectCtx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}
	if err := adapter.Connect(connectCtx, cfg); err != nil {
		adapter.Close(ctx)
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.Type, err)
	}
	return adapter, nil
}
