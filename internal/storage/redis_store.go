package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisConfig содержит настройки подключения к Redis
type RedisConfig struct {
	Addr     string // Адрес Redis сервера
	Password string // Пароль (пустой если не требуется)
	DB       int    // Номер базы данных
	Key      string // Ключ хэша с секциями
}

// DefaultRedisConfig возвращает конфигурацию по умолчанию
func DefaultRedisConfig() *RedisConfig {
	return &RedisConfig{
		Addr: "localhost:6379",
		Key:  "sandbox:world",
	}
}

// RedisStore хранит секции в одном хэше Redis
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore подключается к Redis и проверяет соединение
func NewRedisStore(ctx context.Context, config *RedisConfig) (*RedisStore, error) {
	if config == nil {
		config = DefaultRedisConfig()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisStore{client: client, key: config.Key}, nil
}

// Load читает все секции
func (s *RedisStore) Load(ctx context.Context) (map[string][]byte, error) {
	values, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("чтение %s из Redis: %w", s.key, err)
	}
	if len(values) == 0 {
		return nil, ErrWorldNotFound
	}
	out := make(map[string][]byte, len(values))
	for name, v := range values {
		out[name] = []byte(v)
	}
	return out, nil
}

// Save атомарно заменяет хэш: DEL и HSET в одной транзакции
func (s *RedisStore) Save(ctx context.Context, sections map[string][]byte) error {
	fields := make(map[string]interface{}, len(sections))
	for name, data := range sections {
		fields[name] = data
	}

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.key)
		if len(fields) > 0 {
			pipe.HSet(ctx, s.key, fields)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("запись %s в Redis: %w", s.key, err)
	}
	return nil
}

// Close закрывает клиент
func (s *RedisStore) Close() error {
	return s.client.Close()
}
