/*
Package adapters предоставляет источники строк для курсоров resultset
поверх различных СУБД.

# Двухуровневый адаптер

	┌──────────────────────────────────────────┐
	│  resultset.Buffered / resultset.Unbuffered │
	└─────────────────┬────────────────────────┘
	                  │ Source.Fetch
	┌─────────────────▼────────────────────────┐
	│  Level 1: adapters.Adapter / Result        │  ← pkg/adapters
	└─────────────────┬────────────────────────┘
	                  │
	  ┌──────────┬────┴──────┬──────────┐
	  │ SQLite   │ PostgreSQL │ MS SQL   │ MySQL   ← Level 2
	  └──────────┴───────────┴──────────┘

Level 2 реализации регистрируются в глобальной фабрике в init():

	import (
	    "github.com/ruslano69/tdtp-tds/pkg/adapters"
	    _ "github.com/ruslano69/tdtp-tds/pkg/adapters/sqlite"
	)

	adapter, err := adapters.New(ctx, adapters.Config{Type: "sqlite", DSN: ":memory:"})
	if err != nil {
	    return err
	}
	defer adapter.Close(ctx)

	rs, err := adapters.Open(ctx, adapter, "SELECT id, name, price FROM products")
	if err != nil {
	    return err
	}
	defer rs.Close()

	for {
	    row, ok, err := rs.Next()
	    ...
	}

# Сырые значения

Драйверы возвращают значения в своих формах (int64, float64, []byte с
десятичным текстом, time.Time). Пакет base приводит их к сырым формам,
которые понимает tds.DecodeField: MONEY - tds.MoneyWords,
DECIMAL - строка цифр немасштабированного значения, и т.д.
Поэтому значения из БД и из потока TDS декодируются одинаково.
*/
package adapters
