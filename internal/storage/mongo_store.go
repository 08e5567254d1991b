package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoConfig содержит настройки подключения к MongoDB
type MongoConfig struct {
	URI        string // mongodb://localhost:27017
	Database   string // sandbox
	Collection string // worlds
	Key        string // _id документа мира
}

// DefaultMongoConfig возвращает конфигурацию по умолчанию
func DefaultMongoConfig() *MongoConfig {
	return &MongoConfig{
		URI:        "mongodb://localhost:27017",
		Database:   "sandbox",
		Collection: "worlds",
		Key:        "world",
	}
}

// MongoStore хранит мир одним документом: {_id, sections: {имя: данные}}.
// Замена документа атомарна, поэтому Save не оставляет смеси старых и новых секций.
// Документ ограничен 16 МиБ, для больших миров подходят file и badger.
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
	key        string
	ctxTimeout time.Duration
}

type worldDocument struct {
	ID        string            `bson:"_id"`
	Sections  map[string][]byte `bson:"sections"`
	UpdatedAt time.Time         `bson:"updated_at"`
}

// NewMongoStore подключается к MongoDB и проверяет соединение
func NewMongoStore(ctx context.Context, config *MongoConfig) (*MongoStore, error) {
	def := DefaultMongoConfig()
	if config == nil {
		config = def
	}
	cfg := *config
	if cfg.URI == "" {
		cfg.URI = def.URI
	}
	if cfg.Database == "" {
		cfg.Database = def.Database
	}
	if cfg.Collection == "" {
		cfg.Collection = def.Collection
	}
	if cfg.Key == "" {
		cfg.Key = def.Key
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("не удалось подключиться к MongoDB: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("не удалось проверить соединение с MongoDB: %w", err)
	}

	return &MongoStore{
		client:     client,
		collection: client.Database(cfg.Database).Collection(cfg.Collection),
		key:        cfg.Key,
		ctxTimeout: 30 * time.Second,
	}, nil
}

// Load читает документ мира
func (s *MongoStore) Load(ctx context.Context) (map[string][]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, s.ctxTimeout)
	defer cancel()

	var doc worldDocument
	err := s.collection.FindOne(ctx, bson.M{"_id": s.key}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrWorldNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("чтение %s из MongoDB: %w", s.key, err)
	}
	if len(doc.Sections) == 0 {
		return nil, ErrWorldNotFound
	}

	out := make(map[string][]byte, len(doc.Sections))
	for name, data := range doc.Sections {
		if data == nil {
			data = []byte{}
		}
		out[name] = data
	}
	return out, nil
}

// Save заменяет документ мира целиком (upsert)
func (s *MongoStore) Save(ctx context.Context, sections map[string][]byte) error {
	ctx, cancel := context.WithTimeout(ctx, s.ctxTimeout)
	defer cancel()

	doc := worldDocument{
		ID:        s.key,
		Sections:  sections,
		UpdatedAt: time.Now().UTC(),
	}
	if doc.Sections == nil {
		doc.Sections = map[string][]byte{}
	}
	_, err := s.collection.ReplaceOne(ctx, bson.M{"_id": s.key}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("запись %s в MongoDB: %w", s.key, err)
	}
	return nil
}

// Close закрывает соединение
func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
