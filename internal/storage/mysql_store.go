package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	_ "github.com/go-sql-driver/mysql"
)

// MySQLStore хранит секции строками таблицы world_sections (MySQL/MariaDB).
// Save заменяет набор секций в одной транзакции.
type MySQLStore struct {
	db  *sql.DB
	key string
}

const createSectionsTable = `
	CREATE TABLE IF NOT EXISTS world_sections (
		world_key  VARCHAR(64)  NOT NULL,
		name       VARCHAR(64)  NOT NULL,
		data       LONGBLOB     NOT NULL,
		updated_at TIMESTAMP    DEFAULT CURRENT_TIMESTAMP
		           ON UPDATE    CURRENT_TIMESTAMP,
		PRIMARY KEY (world_key, name)
	) ENGINE=InnoDB
`

// NewMySQLStore открывает базу по DSN (user:pass@tcp(host:port)/dbname)
// и создаёт таблицу, если её нет. key отделяет миры в одной таблице.
func NewMySQLStore(ctx context.Context, dsn, key string) (*MySQLStore, error) {
	if key == "" {
		key = "world"
	}
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("не удалось подключиться к MySQL: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("не удалось проверить соединение с MySQL: %w", err)
	}

	if _, err := db.ExecContext(ctx, createSectionsTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("ошибка создания таблицы world_sections: %w", err)
	}

	return &MySQLStore{db: db, key: key}, nil
}

// Load читает все секции мира
func (s *MySQLStore) Load(ctx context.Context) (map[string][]byte, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, data FROM world_sections WHERE world_key = ?`, s.key)
	if err != nil {
		return nil, fmt.Errorf("чтение мира %s: %w", s.key, err)
	}
	defer rows.Close()

	out := make(map[string][]byte)
	for rows.Next() {
		var name string
		var data []byte
		if err := rows.Scan(&name, &data); err != nil {
			return nil, fmt.Errorf("чтение секции мира %s: %w", s.key, err)
		}
		if data == nil {
			data = []byte{}
		}
		out[name] = data
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("чтение мира %s: %w", s.key, err)
	}
	if len(out) == 0 {
		return nil, ErrWorldNotFound
	}
	return out, nil
}

// Save удаляет старые секции и вставляет новые в одной транзакции
func (s *MySQLStore) Save(ctx context.Context, sections map[string][]byte) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("начало транзакции: %w", err)
	}
	defer func() {
		if err == nil {
			return
		}
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			err = errors.Join(err, rbErr)
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM world_sections WHERE world_key = ?`, s.key); err != nil {
		return fmt.Errorf("очистка мира %s: %w", s.key, err)
	}

	names := make([]string, 0, len(sections))
	for name := range sections {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		data := sections[name]
		if data == nil {
			data = []byte{}
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO world_sections (world_key, name, data) VALUES (?, ?, ?)`, s.key, name, data)
		if err != nil {
			return fmt.Errorf("запись секции %s: %w", name, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("фиксация мира %s: %w", s.key, err)
	}
	return nil
}

// Close закрывает пул соединений
func (s *MySQLStore) Close() error {
	return s.db.Close()
}
