package security

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// ErrNotReadOnly возвращается для запросов, которые могут изменить данные
var ErrNotReadOnly = errors.New("query is not read-only")

// forbidden - ключевые слова, недопустимые в read-only запросе
var forbidden = map[string]bool{
	// DML
	"INSERT": true, "UPDATE": true, "DELETE": true, "TRUNCATE": true, "MERGE": true,
	// DDL
	"DROP": true, "CREATE": true, "ALTER": true, "RENAME": true,
	// DCL
	"GRANT": true, "REVOKE": true,
	// процедуры
	"EXECUTE": true, "EXEC": true, "CALL": true,
	// SQLite
	"PRAGMA": true, "ATTACH": true, "DETACH": true,
	// транзакции
	"BEGIN": true, "COMMIT": true, "ROLLBACK": true,
	// SELECT ... INTO создает таблицу (MS SQL)
	"INTO": true,
}

// QueryPolicy проверяет запросы перед отправкой в базу.
//
// По умолчанию разрешен только один SELECT или WITH без изменяющих
// ключевых слов и комментариев. С allowWrite проверка отключена.
type QueryPolicy struct {
	allowWrite bool
}

// NewQueryPolicy создает политику; allowWrite разрешает любые запросы
func NewQueryPolicy(allowWrite bool) *QueryPolicy {
	return &QueryPolicy{allowWrite: allowWrite}
}

// AllowsWrite возвращает true, если проверка отключена
func (p *QueryPolicy) AllowsWrite() bool {
	return p.allowWrite
}

// Check возвращает ошибку, оборачивающую ErrNotReadOnly, если запрос не проходит политику
func (p *QueryPolicy) Check(query string) error {
	if p.allowWrite {
		return nil
	}

	words, err := scanWords(query)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNotReadOnly, err)
	}
	if len(words) == 0 {
		return fmt.Errorf("%w: empty query", ErrNotReadOnly)
	}
	if words[0] != "SELECT" && words[0] != "WITH" {
		return fmt.Errorf("%w: only SELECT and WITH queries allowed, got %s", ErrNotReadOnly, words[0])
	}
	for _, w := range words {
		if forbidden[w] {
			return fmt.Errorf("%w: forbidden keyword %s", ErrNotReadOnly, w)
		}
	}
	return nil
}

// scanWords возвращает слова запроса в верхнем регистре.
// Строковые литералы и идентификаторы в кавычках пропускаются.
func scanWords(query string) ([]string, error) {
	var words []string
	rs := []rune(query)

	for i := 0; i < len(rs); i++ {
		r := rs[i]
		switch {
		case r == '\'' || r == '"' || r == '`' || r == '[':
			end := closing(r)
			j := i + 1
			for ; j < len(rs); j++ {
				if rs[j] != end {
					continue
				}
				// удвоенная кавычка - экранирование
				if j+1 < len(rs) && rs[j+1] == end && r != '[' {
					j++
					continue
				}
				break
			}
			if j >= len(rs) {
				return nil, fmt.Errorf("unterminated %c", r)
			}
			i = j

		case r == '-' && i+1 < len(rs) && rs[i+1] == '-',
			r == '/' && i+1 < len(rs) && rs[i+1] == '*':
			return nil, fmt.Errorf("comments are not allowed")

		case r == ';':
			if strings.TrimSpace(string(rs[i+1:])) != "" {
				return nil, fmt.Errorf("multiple statements are not allowed")
			}
			return words, nil

		case unicode.IsLetter(r) || r == '_':
			j := i
			for j < len(rs) && (unicode.IsLetter(rs[j]) || unicode.IsDigit(rs[j]) || rs[j] == '_') {
				j++
			}
			words = append(words, strings.ToUpper(string(rs[i:j])))
			i = j - 1
		}
	}
	return words, nil
}

func closing(open rune) rune {
	if open == '[' {
		return ']'
	}
	return open
}
