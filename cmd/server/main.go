package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/annel0/sandbox-world/internal/api"
	"github.com/annel0/sandbox-world/internal/auth"
	"github.com/annel0/sandbox-world/internal/config"
	"github.com/annel0/sandbox-world/internal/content"
	"github.com/annel0/sandbox-world/internal/eventbus"
	"github.com/annel0/sandbox-world/internal/game"
	"github.com/annel0/sandbox-world/internal/logging"
	"github.com/annel0/sandbox-world/internal/network"
	"github.com/annel0/sandbox-world/internal/observability"
	"github.com/annel0/sandbox-world/internal/storage"
)

func main() {
	var (
		configPath = flag.String("config", "", "путь к YAML-конфигурации (по умолчанию GAME_CONFIG)")
		issueToken = flag.String("issue-token", "", "выпустить админ-токен для указанного субъекта и выйти")
		tokenTTL   = flag.Duration("token-ttl", 24*time.Hour, "срок жизни токена для -issue-token")
		hashPass   = flag.Bool("hash-password", false, "прочитать пароль из stdin, напечатать bcrypt-хэш для admin.password_hash и выйти")
	)
	flag.Parse()

	if *hashPass {
		if err := printPasswordHash(os.Stdin, os.Stdout); err != nil {
			log.Fatalf("❌ Ошибка хэширования пароля: %v", err)
		}
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Ошибка загрузки конфигурации: %v", err)
	}

	if *issueToken != "" {
		if cfg.Admin.JWTSecret == "" {
			log.Fatalf("❌ Для выпуска токена нужен admin.jwt_secret или GAME_JWT_SECRET")
		}
		tok, err := auth.NewSigner(cfg.Admin.JWTSecret).Generate(*issueToken, true, *tokenTTL)
		if err != nil {
			log.Fatalf("❌ Ошибка выпуска токена: %v", err)
		}
		fmt.Println(tok)
		return
	}

	if err := initLogging(cfg.Logging); err != nil {
		// Логгер остался консольным, работаем дальше
		log.Printf("⚠️ Логи пишутся только в консоль: %v", err)
	}
	defer logging.CloseDefaultLogger()

	if err := run(cfg); err != nil {
		logging.Error("❌ %v", err)
		logging.CloseDefaultLogger()
		os.Exit(1)
	}
}

func initLogging(cfg config.LoggingConfig) error {
	console, err := logging.ParseLevel(cfg.ConsoleLevel)
	if err != nil {
		return err
	}
	file, err := logging.ParseLevel(cfg.FileLevel)
	if err != nil {
		return err
	}
	components, err := logging.ParseComponentLevels(cfg.Components)
	if err != nil {
		return err
	}
	logging.SetComponentLevels(components)
	return logging.InitDefaultLogger(logging.ComponentServer, logging.Options{Dir: cfg.Dir, ConsoleLevel: console, FileLevel: file})
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logging.Info("🎮 Запуск сервера мира %dx%d (seed=%d)", cfg.World.Width, cfg.World.Height, cfg.World.Seed)

	// === Телеметрия ===
	shutdownTelemetry, err := observability.InitTelemetry(ctx, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("телеметрия: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			logging.Warn("остановка телеметрии: %v", err)
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// === Хранилище мира ===
	store, err := openStore(ctx, cfg.World)
	if err != nil {
		return err
	}
	defer store.Close()

	// === Шина событий ===
	bus, err := openBus(cfg.EventBus)
	if err != nil {
		return err
	}
	defer bus.Close()

	if _, err := eventbus.StartLoggingListener(ctx, bus); err != nil {
		return fmt.Errorf("подписка логирования событий: %w", err)
	}
	exporter, err := eventbus.NewMetricsExporter(bus, reg)
	if err != nil {
		return fmt.Errorf("метрики шины: %w", err)
	}
	exporter.Start()
	defer exporter.Stop()

	// === Сеть ===
	netCfg := network.DefaultChannelConfig()
	netCfg.Compression = cfg.Network.Compression
	netCfg.SendQueueLen = cfg.Network.SendQueueLen
	hub := network.NewHub(netCfg)
	defer hub.Close()

	// === Игровой цикл ===
	server, err := game.NewServer(game.Options{
		Config:     cfg,
		Incoming:   hub.Incoming(),
		Sender:     hub,
		Store:      store,
		Bus:        bus,
		Base:       content.New(cfg.World.Seed),
		Registerer: reg,
	})
	if err != nil {
		return err
	}

	// Админ-API поднимается до загрузки, чтобы /health показывал прогресс генерации
	signer := auth.NewSigner(cfg.Admin.JWTSecret)
	if cfg.Admin.JWTSecret == "" {
		logging.Warn("⚠️ admin.jwt_secret не задан: токены действуют до перезапуска")
	}
	admin := auth.Credentials{Username: cfg.Admin.Username, PasswordHash: cfg.Admin.PasswordHash}
	if admin.Enabled() {
		logging.Info("🔑 Вход администратора %s через POST /api/login", admin.Username)
	}
	rest, err := api.NewRestServer(api.Config{
		Addr:        cfg.Admin.Addr,
		MetricsPath: cfg.Admin.MetricsPath,
		DataDir:     cfg.World.SaveDir,
		World:       server,
		Signer:      signer,
		Registerer:  reg,
		Gatherer:    reg,
		Admin:       admin,
		TokenTTL:    cfg.Admin.TokenTTL,
	})
	if err != nil {
		return err
	}
	go func() {
		if err := rest.Start(); err != nil {
			logging.Error("❌ Админ-API: %v", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rest.Stop(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Warn("остановка админ-API: %v", err)
		}
	}()

	if err := server.Load(ctx); err != nil {
		return err
	}

	// Соединения принимаются только после загрузки мира
	if err := listen(hub, cfg.Network); err != nil {
		return err
	}

	logging.Info("✅ Сервер запущен, моды: %v", server.Info().Mods)
	logging.Info("   ❤️  Health check: http://localhost%s/health", cfg.Admin.Addr)

	if err := server.Run(ctx); err != nil {
		return fmt.Errorf("игровой цикл: %w", err)
	}
	logging.Info("👋 Сервер успешно остановлен")
	return nil
}

func openStore(ctx context.Context, cfg config.WorldConfig) (storage.SectionStore, error) {
	switch cfg.Storage {
	case config.StorageFile:
		logging.Info("💾 Хранилище: файл %s", filepath.Join(cfg.SaveDir, storage.WorldFileName))
		return storage.NewFileStore(cfg.SaveDir), nil
	case config.StorageBadger:
		logging.Info("💾 Хранилище: BadgerDB в %s", cfg.SaveDir)
		return storage.NewBadgerStore(cfg.SaveDir)
	case config.StorageRedis:
		logging.Info("💾 Хранилище: Redis %s, ключ %s", cfg.RedisAddr, cfg.RedisKey)
		rc := storage.DefaultRedisConfig()
		rc.Addr = cfg.RedisAddr
		rc.Key = cfg.RedisKey
		return storage.NewRedisStore(ctx, rc)
	case config.StorageMongo:
		logging.Info("💾 Хранилище: MongoDB, база %s, документ %s", cfg.MongoDB, cfg.WorldKey)
		mc := storage.DefaultMongoConfig()
		mc.URI = cfg.MongoURI
		mc.Database = cfg.MongoDB
		mc.Key = cfg.WorldKey
		return storage.NewMongoStore(ctx, mc)
	case config.StorageMySQL:
		logging.Info("💾 Хранилище: MySQL, мир %s", cfg.WorldKey)
		return storage.NewMySQLStore(ctx, cfg.MySQLDSN, cfg.WorldKey)
	default:
		return nil, fmt.Errorf("неизвестное хранилище %q", cfg.Storage)
	}
}

// printPasswordHash читает первую строку и печатает её bcrypt-хэш
func printPasswordHash(r io.Reader, w io.Writer) error {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return errors.New("пустой пароль")
	}
	hash, err := auth.HashPassword(password, 0)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, hash)
	return err
}

func openBus(cfg config.EventBusConfig) (eventbus.EventBus, error) {
	switch cfg.Backend {
	case config.EventBusJetStream:
		logging.Info("📨 Шина событий: NATS JetStream %s, стрим %s", cfg.URL, cfg.Stream)
		bus, err := eventbus.NewJetStreamBus(cfg.URL, cfg.Stream, time.Duration(cfg.Retention)*time.Hour)
		if err != nil {
			return nil, fmt.Errorf("шина событий: %w", err)
		}
		return bus, nil
	default:
		logging.Info("📨 Шина событий: в памяти")
		return eventbus.NewMemoryBus(4096), nil
	}
}

func listen(hub *network.Hub, cfg config.NetworkConfig) error {
	if cfg.TCPAddr != "" {
		addr, err := hub.ServeTCP(cfg.TCPAddr)
		if err != nil {
			return fmt.Errorf("TCP %s: %w", cfg.TCPAddr, err)
		}
		logging.Info("📡 TCP слушает %s", addr)
	}
	if cfg.KCPAddr != "" {
		addr, err := hub.ServeKCP(cfg.KCPAddr)
		if err != nil {
			return fmt.Errorf("KCP %s: %w", cfg.KCPAddr, err)
		}
		logging.Info("📡 KCP слушает %s", addr)
	}
	if cfg.WSAddr != "" {
		addr, err := hub.ServeWebSocket(cfg.WSAddr)
		if err != nil {
			return fmt.Errorf("WebSocket %s: %w", cfg.WSAddr, err)
		}
		logging.Info("📡 WebSocket слушает %s", addr)
	}
	return nil
}
