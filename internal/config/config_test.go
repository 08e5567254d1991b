package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 20, cfg.Server.TickRate)
	assert.Equal(t, 50*time.Millisecond, cfg.Server.TickInterval())
}

func TestLoadOverlaysFile(t *testing.T) {
	t.Setenv("GAME_CONFIG", "")
	dir := t.TempDir()
	path := filepath.Join(dir, "game.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  tick_rate: 40
  strict_internal_errors: true
world:
  width: 64
  height: 32
  storage: badger
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 40, cfg.Server.TickRate)
	assert.True(t, cfg.Server.StrictInternalErrors)
	assert.Equal(t, uint32(64), cfg.World.Width)
	assert.Equal(t, StorageBadger, cfg.World.Storage)
	assert.Equal(t, ":7777", cfg.Network.TCPAddr, "незаданные поля берутся из значений по умолчанию")
}

func TestExampleConfigLoads(t *testing.T) {
	t.Setenv("GAME_CONFIG", "")
	t.Setenv("GAME_JWT_SECRET", "")
	t.Setenv("GAME_ADMIN_PASSWORD_HASH", "")

	cfg, err := Load(filepath.Join("..", "..", "configs", "server.yaml"))
	require.NoError(t, err, "пример конфигурации должен проходить проверку")
	assert.Equal(t, 60, cfg.Server.TickRate)
	assert.Equal(t, 5*time.Minute, cfg.Server.AutosaveInterval)
	assert.Equal(t, StorageFile, cfg.World.Storage)
	assert.Equal(t, EventBusMemory, cfg.EventBus.Backend)
	require.Len(t, cfg.Players.StarterKit, 4)
	assert.Equal(t, "copper_pickaxe", cfg.Players.StarterKit[0].Item)
	assert.Equal(t, "world", cfg.World.WorldKey)
	assert.Equal(t, 12*time.Hour, cfg.Admin.TokenTTL)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("GAME_CONFIG", "")
	t.Setenv("GAME_TCP_ADDR", "127.0.0.1:9000")
	t.Setenv("GAME_WORLD_DIR", "/tmp/w")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", cfg.Network.TCPAddr)
	assert.Equal(t, "/tmp/w", cfg.World.SaveDir)
}

func TestSQLStorageFromEnv(t *testing.T) {
	t.Setenv("GAME_CONFIG", "")
	dir := t.TempDir()
	path := filepath.Join(dir, "game.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
world:
  storage: mysql
admin:
  jwt_secret: s3cret
`), 0644))

	t.Setenv("GAME_MYSQL_DSN", "")
	_, err := Load(path)
	assert.ErrorIs(t, err, ErrInvalidConfig, "mysql без DSN")

	t.Setenv("GAME_MYSQL_DSN", "game:pw@tcp(db:3306)/sandbox")
	t.Setenv("GAME_ADMIN_PASSWORD_HASH", "$2a$04$abcdefghijklmnopqrstuu")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, StorageMySQL, cfg.World.Storage)
	assert.Equal(t, "game:pw@tcp(db:3306)/sandbox", cfg.World.MySQLDSN)
	assert.Equal(t, "$2a$04$abcdefghijklmnopqrstuu", cfg.Admin.PasswordHash)
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]func(*Config){
		"tick_rate 0":       func(c *Config) { c.Server.TickRate = 0 },
		"tick_rate 1001":    func(c *Config) { c.Server.TickRate = 1001 },
		"нулевая ширина":    func(c *Config) { c.World.Width = 0 },
		"хранилище":         func(c *Config) { c.World.Storage = "ftp" },
		"redis без адреса":  func(c *Config) { c.World.Storage = StorageRedis; c.World.RedisAddr = "" },
		"mongo без uri":     func(c *Config) { c.World.Storage = StorageMongo },
		"mysql без dsn":     func(c *Config) { c.World.Storage = StorageMySQL },
		"хэш без секрета":   func(c *Config) { c.Admin.PasswordHash = "$2a$10$x" },
		"хэш без ttl": func(c *Config) {
			c.Admin.JWTSecret = "s"
			c.Admin.PasswordHash = "$2a$10$x"
			c.Admin.TokenTTL = 0
		},
		"шина":              func(c *Config) { c.EventBus.Backend = "kafka" },
		"очередь":           func(c *Config) { c.Network.SendQueueLen = 0 },
		"стартовый предмет": func(c *Config) { c.Players.StarterKit = []StarterItem{{Item: "wood"}} },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}
