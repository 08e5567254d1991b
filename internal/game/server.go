// Package game - авторитетный игровой цикл: владеет сетками блоков и стен,
// применяет пакеты клиентов, рассылает изменения и сохраняет мир.
package game

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/annel0/sandbox-world/internal/codec"
	"github.com/annel0/sandbox-world/internal/config"
	"github.com/annel0/sandbox-world/internal/content"
	"github.com/annel0/sandbox-world/internal/eventbus"
	"github.com/annel0/sandbox-world/internal/logging"
	"github.com/annel0/sandbox-world/internal/modhost"
	"github.com/annel0/sandbox-world/internal/network"
	"github.com/annel0/sandbox-world/internal/observability"
	"github.com/annel0/sandbox-world/internal/protocol"
	"github.com/annel0/sandbox-world/internal/storage"
	"github.com/annel0/sandbox-world/internal/vec"
	"github.com/annel0/sandbox-world/internal/world"
	"github.com/annel0/sandbox-world/internal/world/block"
	"github.com/annel0/sandbox-world/internal/world/item"
	"github.com/annel0/sandbox-world/internal/world/wall"
	"github.com/annel0/sandbox-world/internal/worldgen"
)

// Тексты статуса сервера
const (
	StatusStarting = "Starting"
	StatusRunning  = "Running"
	StatusSaving   = "Saving world"
	StatusStopped  = "Stopped"
)

// RandomTickSpeed - случайных тиков на чанк за тик
const RandomTickSpeed = 10

// EventSource - источник событий в зеркале шины
const EventSource = "sandbox-world"

const (
	maxInboundPerTick = 4096
	maxEventsPerPass  = 1 << 20
	mirrorBuffer      = 4096
)

// ErrStopped - игровой цикл уже завершён
var ErrStopped = errors.New("игровой цикл остановлен")

func generatingStatus(percent int) string {
	return fmt.Sprintf("Generating world %d%%", percent)
}

// Options - зависимости сервера
type Options struct {
	Config     *config.Config
	Incoming   <-chan network.Inbound
	Sender     Sender
	Store      storage.SectionStore
	Bus        eventbus.EventBus     // nil - без зеркала событий
	Base       *content.Base         // nil - content.New(seed)
	Mods       []modhost.Mod         // дополнительные моды после базового
	Registerer prometheus.Registerer // nil - метрики не регистрируются
}

// World - состояние мира, доступное запросам Do
type World struct {
	Blocks  *block.Blocks
	Walls   *wall.Walls
	Items   *item.Registry
	Players *Players
	Events  world.Emitter
}

type request struct {
	fn   func(w *World) error
	done chan error
}

// Info - сводка для админки, читается из любой горутины
type Info struct {
	Status      string   `json:"status"`
	Tick        uint64   `json:"tick"`
	Players     int      `json:"players"`
	DirtyChunks int      `json:"dirty_chunks"`
	Width       uint32   `json:"width"`
	Height      uint32   `json:"height"`
	Mods        []string `json:"mods"`
}

// Server - игровой цикл. Все поля, кроме атомарных, принадлежат горутине Run.
type Server struct {
	cfg     *config.Config
	state   World
	events  *world.EventQueue
	host    *modhost.Host
	relay   *modhost.Relay
	base    *content.Base
	players *Players

	blocksBridge *BlocksBridge
	wallsBridge  *WallsBridge

	incoming <-chan network.Inbound
	sender   Sender
	store    storage.SectionStore
	bus      eventbus.EventBus
	metrics  *serverMetrics
	counters map[world.EventType]prometheus.Counter
	logger   *logging.Logger
	errs     internalReporter
	rng      *rand.Rand
	seed     int64

	requests   chan request
	done       chan struct{}
	mirror     chan world.Event
	mirrorDone chan struct{}
	dirty      map[vec.Vec2]struct{}
	lastSave   time.Time

	status     atomic.Value
	tick       atomic.Uint64
	dirtyCount atomic.Int64
	online     atomic.Int64
	width      atomic.Uint32
	height     atomic.Uint32
}

// NewServer загружает моды и собирает мосты. Мир ещё пуст: его создаёт Load.
func NewServer(opts Options) (*Server, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	if opts.Sender == nil {
		return nil, errors.New("не задан Sender")
	}
	if opts.Store == nil {
		return nil, errors.New("не задано хранилище мира")
	}
	base := opts.Base
	if base == nil {
		base = content.New(cfg.World.Seed)
	}

	blocks := block.New()
	walls := wall.New()
	items := item.NewRegistry()
	relay := &modhost.Relay{}
	host := modhost.NewHost(modhost.NewAPI(blocks, walls, items, relay), relay)
	if err := host.Load(append([]modhost.Mod{base}, opts.Mods...)...); err != nil {
		return nil, err
	}

	players, err := NewPlayers(items, cfg.Players.InventorySize, cfg.Players.StarterKit)
	if err != nil {
		return nil, err
	}
	metrics, err := newServerMetrics(opts.Registerer)
	if err != nil {
		return nil, fmt.Errorf("метрики игрового цикла: %w", err)
	}

	s := &Server{
		cfg:      cfg,
		events:   world.NewEventQueue(),
		host:     host,
		relay:    relay,
		base:     base,
		players:  players,
		incoming: opts.Incoming,
		sender:   opts.Sender,
		store:    opts.Store,
		bus:      opts.Bus,
		metrics:  metrics,
		counters: make(map[world.EventType]prometheus.Counter),
		logger:   logging.GetGameLogger(),
		rng:      rand.New(rand.NewSource(cfg.World.Seed)),
		seed:     cfg.World.Seed,
		requests: make(chan request, 64),
		done:     make(chan struct{}),
		dirty:    make(map[vec.Vec2]struct{}),
	}
	s.state = World{Blocks: blocks, Walls: walls, Items: items, Players: players, Events: s.events}
	s.errs = internalReporter{strict: cfg.Server.StrictInternalErrors, logger: s.logger, count: metrics.internalErrors.Inc}
	s.blocksBridge = NewBlocksBridge(blocks, walls, items, players, opts.Sender, s.events, s.errs)
	s.wallsBridge = NewWallsBridge(walls, opts.Sender, s.events, s.errs)
	s.setStatus(StatusStarting)
	return s, nil
}

// Status возвращает текст статуса
func (s *Server) Status() string {
	v, _ := s.status.Load().(string)
	return v
}

func (s *Server) setStatus(text string) {
	if prev := s.Status(); prev == text {
		return
	}
	s.status.Store(text)
	s.logger.Debug("статус: %s", text)
}

// Info возвращает сводку состояния
func (s *Server) Info() Info {
	return Info{
		Status:      s.Status(),
		Tick:        s.tick.Load(),
		Players:     int(s.online.Load()),
		DirtyChunks: int(s.dirtyCount.Load()),
		Width:       s.width.Load(),
		Height:      s.height.Load(),
		Mods:        s.host.Mods(),
	}
}

// Load читает мир из хранилища, а если его нет - генерирует и сразу сохраняет.
// Повреждённое сохранение - ошибка: продолжать с неизвестным состоянием нельзя.
func (s *Server) Load(ctx context.Context) error {
	ctx, span := observability.Tracer().Start(ctx, "world.load")
	defer span.End()

	sections, err := s.store.Load(ctx)
	if errors.Is(err, storage.ErrWorldNotFound) {
		return s.generate(ctx)
	}
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("загрузка мира: %w", err)
	}
	if err := s.restore(sections); err != nil {
		span.RecordError(err)
		return fmt.Errorf("загрузка мира: %w", err)
	}

	w, h := s.state.Blocks.Width(), s.state.Blocks.Height()
	span.SetAttributes(attribute.Int("world.width", int(w)), attribute.Int("world.height", int(h)))
	s.logger.Info("🌍 Мир загружен: %dx%d, тик %d", w, h, s.tick.Load())
	return nil
}

func (s *Server) restore(sections map[string][]byte) error {
	data, ok := sections[storage.SectionBlocks]
	if !ok {
		return fmt.Errorf("%w: нет секции %q", world.ErrSerialization, storage.SectionBlocks)
	}
	if err := s.state.Blocks.Deserialize(data); err != nil {
		return fmt.Errorf("секция %s: %w", storage.SectionBlocks, err)
	}

	w, h := s.state.Blocks.Width(), s.state.Blocks.Height()
	if data, ok := sections[storage.SectionWalls]; ok {
		if err := s.state.Walls.Deserialize(data); err != nil {
			return fmt.Errorf("секция %s: %w", storage.SectionWalls, err)
		}
		if s.state.Walls.Map() != s.state.Blocks.Map() {
			return fmt.Errorf("%w: стены %dx%d, блоки %dx%d", world.ErrShapeMismatch,
				s.state.Walls.Map().Width(), s.state.Walls.Map().Height(), w, h)
		}
	} else {
		s.state.Walls.Create(w, h)
	}

	if data, ok := sections[storage.SectionMeta]; ok {
		if err := s.decodeMeta(data); err != nil {
			return fmt.Errorf("секция %s: %w", storage.SectionMeta, err)
		}
	}
	s.width.Store(w)
	s.height.Store(h)
	return nil
}

// Поля секции meta
const (
	metaSeed = 1
	metaTick = 2
)

func (s *Server) encodeMeta() []byte {
	var b []byte
	b = codec.AppendUint(b, metaSeed, uint64(s.seed))
	return codec.AppendUint(b, metaTick, s.tick.Load())
}

func (s *Server) decodeMeta(data []byte) error {
	return codec.Walk(data, func(f codec.Field) error {
		switch f.Num {
		case metaSeed:
			s.seed = int64(f.Varint)
		case metaTick:
			s.tick.Store(f.Varint)
		}
		return nil
	})
}

func (s *Server) generate(ctx context.Context) error {
	ctx, span := observability.Tracer().Start(ctx, "world.generate")
	defer span.End()

	w, h := s.cfg.World.Width, s.cfg.World.Height
	s.logger.Info("🌱 Сохранение не найдено, генерация мира %dx%d (seed=%d)", w, h, s.seed)

	gen := worldgen.New(s.seed, s.base.Palette())
	gen.OnProgress(func(percent int) {
		s.setStatus(generatingStatus(percent))
		if percent%25 == 0 {
			s.logger.Info("Generating world %d%%", percent)
		}
	})
	res, err := gen.Generate(ctx, w, h)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("генерация мира: %w", err)
	}
	if err := s.state.Blocks.CreateFromIDs(res.Blocks); err != nil {
		return fmt.Errorf("генерация мира: %w", err)
	}
	if err := s.state.Walls.CreateFromIDs(res.Walls); err != nil {
		return fmt.Errorf("генерация мира: %w", err)
	}
	s.setStatus(StatusStarting)
	s.width.Store(w)
	s.height.Store(h)
	return s.Save(ctx)
}

// Save записывает мир в хранилище. Вызывается только из горутины цикла
// (или до Run / после его завершения).
func (s *Server) Save(ctx context.Context) error {
	ctx, span := observability.Tracer().Start(ctx, "world.save")
	defer span.End()

	prev := s.Status()
	s.setStatus(StatusSaving)
	defer s.setStatus(prev)

	start := time.Now()
	sections := map[string][]byte{
		storage.SectionMeta:   s.encodeMeta(),
		storage.SectionBlocks: s.state.Blocks.Serialize(),
		storage.SectionWalls:  s.state.Walls.Serialize(),
	}
	err := s.store.Save(ctx, sections)
	s.metrics.saveDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		s.metrics.saves.WithLabelValues("error").Inc()
		span.RecordError(err)
		return fmt.Errorf("сохранение мира: %w", err)
	}
	s.metrics.saves.WithLabelValues("ok").Inc()

	size := 0
	for _, data := range sections {
		size += len(data)
	}
	span.SetAttributes(attribute.Int("world.bytes", size), attribute.Int("world.dirty_chunks", len(s.dirty)))
	s.logger.Info("💾 Мир сохранён: %d байт, изменённых чанков %d", size, len(s.dirty))

	clear(s.dirty)
	s.dirtyCount.Store(0)
	s.metrics.dirtyChunks.Set(0)
	s.lastSave = time.Now()
	return nil
}

// Run крутит игровой цикл до отмены ctx, затем сохраняет мир
func (s *Server) Run(ctx context.Context) error {
	defer close(s.done)

	if s.bus != nil {
		s.mirror = make(chan world.Event, mirrorBuffer)
		s.mirrorDone = make(chan struct{})
		go s.mirrorLoop()
	}

	interval := s.cfg.Server.TickInterval()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.setStatus(StatusRunning)
	s.logger.Info("▶️ Игровой цикл запущен: %d тиков/с", s.cfg.Server.TickRate)

	last := time.Now()
	if s.lastSave.IsZero() {
		s.lastSave = last
	}
	for {
		select {
		case <-ctx.Done():
			return s.shutdown()
		case now := <-ticker.C:
			frame := now.Sub(last).Milliseconds()
			// Остаток меньше миллисекунды переносится на следующий тик
			last = last.Add(time.Duration(frame) * time.Millisecond)
			s.Step(int32(frame))
			s.autosave(ctx, now)
		}
	}
}

func (s *Server) shutdown() error {
	s.logger.Info("⏹ Остановка игрового цикла, сохранение мира")
	saveCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	err := s.Save(saveCtx)
	s.failPending()
	if s.mirror != nil {
		close(s.mirror)
		<-s.mirrorDone
	}
	s.setStatus(StatusStopped)
	return err
}

func (s *Server) autosave(ctx context.Context, now time.Time) {
	every := s.cfg.Server.AutosaveInterval
	if every <= 0 || len(s.dirty) == 0 || now.Sub(s.lastSave) < every {
		return
	}
	if err := s.Save(ctx); err != nil {
		s.logger.Error("автосохранение: %v", err)
		// Следующая попытка через полный интервал
		s.lastSave = now
	}
}

// Step выполняет один тик: пакеты клиентов, события, ломание,
// случайные тики, запросы Do
func (s *Server) Step(frame int32) {
	start := time.Now()

	s.drainIncoming()
	s.processEvents()

	s.blocksBridge.Tick(frame)
	s.wallsBridge.Tick(frame)
	s.randomTicks()
	s.processEvents()

	s.runRequests()
	s.processEvents()

	s.tick.Add(1)
	s.metrics.ticks.Inc()
	s.metrics.tickDuration.Observe(time.Since(start).Seconds())
}

func (s *Server) drainIncoming() {
	for i := 0; i < maxInboundPerTick; i++ {
		select {
		case in, ok := <-s.incoming:
			if !ok {
				s.incoming = nil
				return
			}
			s.handleInbound(in)
		default:
			return
		}
	}
}

func (s *Server) handleInbound(in network.Inbound) {
	switch in.Kind {
	case network.InboundOpened:
		pl := s.players.Join(in.Conn)
		s.online.Store(int64(s.players.Count()))
		s.metrics.players.Set(float64(s.players.Count()))
		err := s.sender.Welcome(in.Conn,
			s.blocksBridge.WelcomePacket(),
			s.wallsBridge.WelcomePacket(),
			pl.InventoryPacket(),
		)
		if err != nil {
			s.logger.Warn("приветствие %s: %v", in.Conn, err)
			return
		}
		s.logger.Info("👤 Игрок подключён: %s", in.Conn)

	case network.InboundPacket:
		if in.Packet == nil {
			return
		}
		if s.blocksBridge.HandlePacket(in.Conn, in.Packet) || s.wallsBridge.HandlePacket(in.Conn, in.Packet) {
			return
		}
		switch pkt := in.Packet.(type) {
		case *protocol.SelectSlot:
			s.selectSlot(in.Conn, pkt.Slot)
		default:
			s.logger.Debug("пакет %s от %s не обрабатывается сервером", in.Packet.Type(), in.Conn)
		}

	case network.InboundClosed:
		s.blocksBridge.Disconnect(in.Conn)
		s.wallsBridge.Disconnect(in.Conn)
		s.players.Leave(in.Conn)
		s.online.Store(int64(s.players.Count()))
		s.metrics.players.Set(float64(s.players.Count()))
		s.logger.Info("👋 Игрок отключён: %s", in.Conn)
	}
}

func (s *Server) selectSlot(conn network.ConnID, slot int32) {
	pl, ok := s.players.Get(conn)
	if !ok {
		return
	}
	if err := pl.Inventory.Select(int(slot)); err != nil {
		s.logger.Debug("SelectSlot от %s отклонён: %v", conn, err)
		return
	}
	if err := s.sender.Send(conn, pl.InventoryPacket()); err != nil {
		s.logger.Debug("отправка инвентаря %s: %v", conn, err)
	}
}

// processEvents раздаёт события мостам и модам, пока очередь не опустеет.
// Перед каждым событием в очередь переносятся события модов.
func (s *Server) processEvents() {
	for i := 0; ; i++ {
		s.relay.Flush(s.events)
		if i >= maxEventsPerPass {
			s.errs.report("очередь событий не иссякает, осталось %d", s.events.Len())
			return
		}
		e, ok := s.events.Pop()
		if !ok {
			return
		}
		s.handleEvent(e)
	}
}

func (s *Server) handleEvent(e world.Event) {
	s.countEvent(e.GetType())

	switch ev := e.(type) {
	case block.ChangeEvent:
		s.markDirty(ev.X, ev.Y)
	case block.InventoryChangeEvent:
		s.markDirty(ev.X, ev.Y)
	case wall.ChangeEvent:
		s.markDirty(ev.X, ev.Y)
	}

	s.blocksBridge.HandleEvent(e)
	s.wallsBridge.HandleEvent(e)
	if err := s.host.Dispatch(e); err != nil {
		s.errs.report("%v", err)
	}
	s.publish(e)
}

func (s *Server) countEvent(t world.EventType) {
	c, ok := s.counters[t]
	if !ok {
		c = s.metrics.events.WithLabelValues(t.String())
		s.counters[t] = c
	}
	c.Inc()
}

func (s *Server) markDirty(x, y int32) {
	c := vec.New(x, y).ToChunkCoords()
	if _, ok := s.dirty[c]; ok {
		return
	}
	s.dirty[c] = struct{}{}
	s.dirtyCount.Store(int64(len(s.dirty)))
	s.metrics.dirtyChunks.Set(float64(len(s.dirty)))
}

// randomTicks выбирает RandomTickSpeed случайных клеток в каждом чанке.
// Воздух не тикает.
func (s *Server) randomTicks() {
	blocks := s.state.Blocks
	w, h := int32(blocks.Width()), int32(blocks.Height())
	air := blocks.Air()
	for cx := int32(0); cx < w; cx += world.ChunkSize {
		for cy := int32(0); cy < h; cy += world.ChunkSize {
			for i := 0; i < RandomTickSpeed; i++ {
				x := cx + s.rng.Int31n(world.ChunkSize)
				y := cy + s.rng.Int31n(world.ChunkSize)
				id, err := blocks.Block(x, y)
				if err != nil || id == air {
					continue
				}
				s.events.Emit(block.RandomTickEvent{X: x, Y: y})
			}
		}
	}
}

// Do выполняет fn в горутине игрового цикла и ждёт результата.
// Так HTTP и другие горутины читают и меняют мир без гонок.
func (s *Server) Do(ctx context.Context, fn func(w *World) error) error {
	req := request{fn: fn, done: make(chan error, 1)}
	select {
	case s.requests <- req:
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		return ErrStopped
	}
	select {
	case err := <-req.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		// Запрос мог успеть выполниться перед остановкой
		select {
		case err := <-req.done:
			return err
		default:
			return ErrStopped
		}
	}
}

// RequestSave сохраняет мир через игровой цикл
func (s *Server) RequestSave(ctx context.Context) error {
	return s.Do(ctx, func(*World) error { return s.Save(ctx) })
}

func (s *Server) runRequests() {
	for {
		select {
		case req := <-s.requests:
			req.done <- s.runRequest(req.fn)
		default:
			return
		}
	}
}

func (s *Server) runRequest(fn func(w *World) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("паника в запросе: %v", r)
			s.logger.Error("%v", err)
		}
	}()
	return fn(&s.state)
}

func (s *Server) failPending() {
	for {
		select {
		case req := <-s.requests:
			req.done <- ErrStopped
		default:
			return
		}
	}
}

// publish отправляет событие в зеркало шины без блокировки цикла
func (s *Server) publish(e world.Event) {
	if s.mirror == nil {
		return
	}
	select {
	case s.mirror <- e:
	default:
		s.logger.Trace("зеркало событий переполнено, %s отброшено", e.GetType())
	}
}

func (s *Server) mirrorLoop() {
	defer close(s.mirrorDone)
	for e := range s.mirror {
		env, ok := eventbus.FromWorldEvent(e, EventSource)
		if !ok {
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := s.bus.Publish(ctx, env); err != nil {
			s.logger.Warn("публикация %s: %v", env.EventType, err)
		}
		cancel()
	}
}
