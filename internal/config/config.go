package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config корневая структура конфигурации сервера.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	World     WorldConfig     `yaml:"world"`
	Network   NetworkConfig   `yaml:"network"`
	Players   PlayersConfig   `yaml:"players"`
	EventBus  EventBusConfig  `yaml:"eventbus"`
	Admin     AdminConfig     `yaml:"admin"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type ServerConfig struct {
	TickRate             int           `yaml:"tick_rate"`
	StrictInternalErrors bool          `yaml:"strict_internal_errors"`
	AutosaveInterval     time.Duration `yaml:"autosave_interval"`
}

// Storage backends
const (
	StorageFile   = "file"
	StorageBadger = "badger"
	StorageRedis  = "redis"
	StorageMongo  = "mongo"
	StorageMySQL  = "mysql"
)

type WorldConfig struct {
	Width     uint32 `yaml:"width"`
	Height    uint32 `yaml:"height"`
	Seed      int64  `yaml:"seed"`
	SaveDir   string `yaml:"save_dir"`
	Storage   string `yaml:"storage"`
	RedisAddr string `yaml:"redis_addr"`
	RedisKey  string `yaml:"redis_key"`
	MongoURI  string `yaml:"mongo_uri"`
	MongoDB   string `yaml:"mongo_db"`
	MySQLDSN  string `yaml:"mysql_dsn"`
	// Ключ мира в общих хранилищах (_id в MongoDB, world_key в MySQL)
	WorldKey string `yaml:"world_key"`
}

type NetworkConfig struct {
	TCPAddr      string `yaml:"tcp_addr"`
	KCPAddr      string `yaml:"kcp_addr"`
	WSAddr       string `yaml:"ws_addr"`
	Compression  bool   `yaml:"compression"`
	SendQueueLen int    `yaml:"send_queue_len"`
}

type StarterItem struct {
	Item  string `yaml:"item"`
	Count int32  `yaml:"count"`
}

type PlayersConfig struct {
	InventorySize int           `yaml:"inventory_size"`
	StarterKit    []StarterItem `yaml:"starter_kit"`
}

// EventBus backends
const (
	EventBusMemory    = "memory"
	EventBusJetStream = "jetstream"
)

type EventBusConfig struct {
	Backend   string `yaml:"backend"`
	URL       string `yaml:"url"`
	Stream    string `yaml:"stream"`
	Retention int    `yaml:"retention_hours"`
}

type AdminConfig struct {
	Addr        string `yaml:"addr"`
	JWTSecret   string `yaml:"jwt_secret"`
	MetricsPath string `yaml:"metrics_path"`
	// Вход администратора: пароль хранится только bcrypt-хэшем.
	// Пустой хэш отключает /api/login.
	Username     string        `yaml:"username"`
	PasswordHash string        `yaml:"password_hash"`
	TokenTTL     time.Duration `yaml:"token_ttl"`
}

type TelemetryConfig struct {
	Enabled      bool   `yaml:"enabled"`
	OTLPEndpoint string `yaml:"otlp_endpoint"`
	ServiceName  string `yaml:"service_name"`
}

type LoggingConfig struct {
	ConsoleLevel string `yaml:"console_level"`
	FileLevel    string `yaml:"file_level"`
	Dir          string `yaml:"dir"`
	// Порог консоли для отдельных компонентов: network, game, mods, http...
	Components map[string]string `yaml:"components"`
}

// Default возвращает полностью заполненную конфигурацию
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			TickRate:         20,
			AutosaveInterval: 5 * time.Minute,
		},
		World: WorldConfig{
			Width:    4096,
			Height:   1024,
			Seed:     1234,
			SaveDir:  "world",
			Storage:  StorageFile,
			RedisKey: "sandbox:world",
			MongoDB:  "sandbox",
			WorldKey: "world",
		},
		Network: NetworkConfig{
			TCPAddr:      ":7777",
			KCPAddr:      ":7778",
			WSAddr:       ":7779",
			Compression:  true,
			SendQueueLen: 256,
		},
		Players: PlayersConfig{
			InventorySize: 20,
			StarterKit: []StarterItem{
				{Item: "copper_pickaxe", Count: 1},
				{Item: "copper_axe", Count: 1},
				{Item: "wood", Count: 50},
				{Item: "torch", Count: 20},
			},
		},
		EventBus: EventBusConfig{
			Backend:   EventBusMemory,
			URL:       "nats://127.0.0.1:4222",
			Stream:    "WORLD_EVENTS",
			Retention: 24,
		},
		Admin: AdminConfig{
			Addr:        ":8088",
			MetricsPath: "/metrics",
			Username:    "admin",
			TokenTTL:    12 * time.Hour,
		},
		Telemetry: TelemetryConfig{
			OTLPEndpoint: "localhost:4318",
			ServiceName:  "sandbox-world",
		},
		Logging: LoggingConfig{
			ConsoleLevel: "info",
			FileLevel:    "debug",
			Dir:          "logs",
		},
	}
}

// Load читает YAML файл поверх значений по умолчанию и применяет переменные окружения.
// Если path == "", используется GAME_CONFIG; если и он пуст, файл не читается.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("GAME_CONFIG")
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("чтение конфигурации %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("разбор конфигурации %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv переопределяет значения из окружения: env -> config
func (c *Config) applyEnv() {
	c.Network.TCPAddr = getEnvFallback("GAME_TCP_ADDR", c.Network.TCPAddr)
	c.Network.KCPAddr = getEnvFallback("GAME_KCP_ADDR", c.Network.KCPAddr)
	c.Network.WSAddr = getEnvFallback("GAME_WS_ADDR", c.Network.WSAddr)
	c.Admin.Addr = getEnvFallback("GAME_ADMIN_ADDR", c.Admin.Addr)
	c.Admin.JWTSecret = getEnvFallback("GAME_JWT_SECRET", c.Admin.JWTSecret)
	c.Admin.PasswordHash = getEnvFallback("GAME_ADMIN_PASSWORD_HASH", c.Admin.PasswordHash)
	c.World.RedisAddr = getEnvFallback("GAME_REDIS_ADDR", c.World.RedisAddr)
	c.World.MongoURI = getEnvFallback("GAME_MONGO_URI", c.World.MongoURI)
	c.World.MySQLDSN = getEnvFallback("GAME_MYSQL_DSN", c.World.MySQLDSN)
	c.EventBus.URL = getEnvFallback("GAME_NATS_URL", c.EventBus.URL)
	c.World.SaveDir = getEnvFallback("GAME_WORLD_DIR", c.World.SaveDir)
}

// getEnvFallback возвращает значение переменной окружения, если она задана
func getEnvFallback(envVar, current string) string {
	if v := os.Getenv(envVar); v != "" {
		return v
	}
	return current
}

// TickInterval возвращает длительность одного тика
func (s ServerConfig) TickInterval() time.Duration {
	return time.Second / time.Duration(s.TickRate)
}

var ErrInvalidConfig = errors.New("некорректная конфигурация")

// Validate проверяет согласованность значений
func (c *Config) Validate() error {
	if c.Server.TickRate < 1 || c.Server.TickRate > 1000 {
		return fmt.Errorf("%w: tick_rate=%d вне диапазона [1,1000]", ErrInvalidConfig, c.Server.TickRate)
	}
	if c.Server.AutosaveInterval < 0 {
		return fmt.Errorf("%w: autosave_interval отрицательный", ErrInvalidConfig)
	}
	if c.World.Width == 0 || c.World.Height == 0 {
		return fmt.Errorf("%w: размер мира %dx%d", ErrInvalidConfig, c.World.Width, c.World.Height)
	}
	switch c.World.Storage {
	case StorageFile, StorageBadger:
		if c.World.SaveDir == "" {
			return fmt.Errorf("%w: save_dir обязателен для %s", ErrInvalidConfig, c.World.Storage)
		}
	case StorageRedis:
		if c.World.RedisAddr == "" {
			return fmt.Errorf("%w: redis_addr обязателен для redis", ErrInvalidConfig)
		}
	case StorageMongo:
		if c.World.MongoURI == "" {
			return fmt.Errorf("%w: mongo_uri обязателен для mongo", ErrInvalidConfig)
		}
	case StorageMySQL:
		if c.World.MySQLDSN == "" {
			return fmt.Errorf("%w: mysql_dsn обязателен для mysql", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: неизвестное хранилище %q", ErrInvalidConfig, c.World.Storage)
	}
	switch c.EventBus.Backend {
	case EventBusMemory, EventBusJetStream:
	default:
		return fmt.Errorf("%w: неизвестная шина событий %q", ErrInvalidConfig, c.EventBus.Backend)
	}
	if c.Admin.PasswordHash != "" {
		if c.Admin.JWTSecret == "" {
			return fmt.Errorf("%w: password_hash задан без jwt_secret", ErrInvalidConfig)
		}
		if c.Admin.Username == "" || c.Admin.TokenTTL <= 0 {
			return fmt.Errorf("%w: вход администратора требует username и token_ttl", ErrInvalidConfig)
		}
	}
	if c.Network.SendQueueLen <= 0 {
		return fmt.Errorf("%w: send_queue_len=%d", ErrInvalidConfig, c.Network.SendQueueLen)
	}
	if c.Players.InventorySize <= 0 {
		return fmt.Errorf("%w: inventory_size=%d", ErrInvalidConfig, c.Players.InventorySize)
	}
	for _, it := range c.Players.StarterKit {
		if it.Item == "" || it.Count <= 0 {
			return fmt.Errorf("%w: стартовый предмет %q x%d", ErrInvalidConfig, it.Item, it.Count)
		}
	}
	return nil
}
