package network

import (
	"context"
	"io"
	"sort"
	"sync"

	"github.com/annel0/sandbox-world/internal/logging"
	"github.com/annel0/sandbox-world/internal/protocol"
)

// InboundKind вид входящего события
type InboundKind int

const (
	InboundOpened InboundKind = iota
	InboundPacket
	InboundClosed
)

// Inbound событие соединения для игрового цикла.
// Для одного соединения порядок всегда Opened, пакеты, Closed.
type Inbound struct {
	Conn   ConnID
	Kind   InboundKind
	Packet protocol.Packet
}

// Hub владеет всеми соединениями: принимает их со всех транспортов,
// сводит входящие пакеты в один канал и рассылает исходящие.
type Hub struct {
	config   *ChannelConfig
	incoming chan Inbound

	mu        sync.RWMutex
	conns     map[ConnID]*Conn
	listeners []io.Closer
	closed    bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	logger *logging.Logger
}

// NewHub создаёт хаб
func NewHub(config *ChannelConfig) *Hub {
	if config == nil {
		config = DefaultChannelConfig()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		config:   config,
		incoming: make(chan Inbound, 1024),
		conns:    make(map[ConnID]*Conn),
		ctx:      ctx,
		cancel:   cancel,
		logger:   logging.GetNetworkLogger(),
	}
}

// Config возвращает конфигурацию каналов
func (h *Hub) Config() *ChannelConfig { return h.config }

// Incoming возвращает канал входящих событий. Закрывается после Close.
func (h *Hub) Incoming() <-chan Inbound { return h.incoming }

// Attach регистрирует готовое соединение и запускает его циклы
func (h *Hub) Attach(frames FrameConn, kind ChannelType) (*Conn, error) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		_ = frames.Close()
		return nil, ErrHubClosed
	}
	c := newConn(h, frames, kind)
	h.conns[c.id] = c
	h.wg.Add(2)
	h.mu.Unlock()

	activeConnections.WithLabelValues(kind.String()).Inc()
	h.logger.Info("Новое соединение %s (%s) от %s", c.id, kind, frames.RemoteAddr())

	go c.sendLoop()
	go c.receiveLoop()
	return c, nil
}

// track регистрирует слушатель и резервирует горутину приёма
func (h *Hub) track(l io.Closer) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		_ = l.Close()
		return ErrHubClosed
	}
	h.listeners = append(h.listeners, l)
	h.wg.Add(1)
	return nil
}

func (h *Hub) remove(c *Conn) {
	h.mu.Lock()
	_, ok := h.conns[c.id]
	delete(h.conns, c.id)
	h.mu.Unlock()

	if !ok {
		return
	}

	activeConnections.WithLabelValues(c.kind.String()).Dec()
	h.logger.Info("Соединение %s закрыто", c.id)
	h.deliver(Inbound{Conn: c.id, Kind: InboundClosed})
}

// deliver передаёт событие игровому циклу; false, если хаб остановлен
func (h *Hub) deliver(in Inbound) bool {
	select {
	case h.incoming <- in:
		return true
	case <-h.ctx.Done():
		return false
	}
}

func (h *Hub) get(id ConnID) (*Conn, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.conns[id]
	return c, ok
}

// Send отправляет пакет одному соединению. Переполненная очередь
// закрывает соединение: клиент с пропущенными изменениями рассинхронизирован.
func (h *Hub) Send(id ConnID, p protocol.Packet) error {
	c, ok := h.get(id)
	if !ok {
		return ErrConnNotFound
	}

	frame, err := EncodePacket(p, h.config)
	if err != nil {
		return err
	}

	if err := c.enqueue(outFrame{data: frame, msgType: p.Type()}); err != nil {
		if err == ErrSendQueueFull {
			h.logger.Warn("Очередь %s переполнена, соединение закрывается", id)
			c.close()
		}
		return err
	}
	return nil
}

// Welcome отправляет начальные пакеты и включает соединение в рассылки.
// Все Broadcast после Welcome приходят клиенту строго после этих пакетов.
func (h *Hub) Welcome(id ConnID, packets ...protocol.Packet) error {
	for _, p := range packets {
		if err := h.Send(id, p); err != nil {
			return err
		}
	}

	c, ok := h.get(id)
	if !ok {
		return ErrConnNotFound
	}
	c.welcomed.Store(true)
	return nil
}

// Broadcast отправляет пакет всем соединениям, прошедшим Welcome
func (h *Hub) Broadcast(p protocol.Packet) {
	frame, err := EncodePacket(p, h.config)
	if err != nil {
		h.logger.Error("Ошибка кодирования %s: %v", p.Type(), err)
		return
	}

	h.mu.RLock()
	targets := make([]*Conn, 0, len(h.conns))
	for _, c := range h.conns {
		if c.welcomed.Load() {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range targets {
		if err := c.enqueue(outFrame{data: frame, msgType: p.Type()}); err == ErrSendQueueFull {
			h.logger.Warn("Очередь %s переполнена, соединение закрывается", c.id)
			c.close()
		}
	}
}

// Disconnect закрывает соединение
func (h *Hub) Disconnect(id ConnID) {
	if c, ok := h.get(id); ok {
		c.close()
	}
}

// Connections возвращает отсортированный список соединений
func (h *Hub) Connections() []ConnID {
	h.mu.RLock()
	ids := make([]ConnID, 0, len(h.conns))
	for id := range h.conns {
		ids = append(ids, id)
	}
	h.mu.RUnlock()

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Stats возвращает статистику соединения
func (h *Hub) Stats(id ConnID) (ConnectionStats, bool) {
	c, ok := h.get(id)
	if !ok {
		return ConnectionStats{}, false
	}
	return c.Stats(), true
}

// Count возвращает число соединений
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// Close закрывает все соединения и ждёт завершения их горутин
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	conns := make([]*Conn, 0, len(h.conns))
	for _, c := range h.conns {
		conns = append(conns, c)
	}
	listeners := h.listeners
	h.listeners = nil
	h.mu.Unlock()

	h.cancel()
	for _, l := range listeners {
		_ = l.Close()
	}
	for _, c := range conns {
		c.close()
	}
	h.wg.Wait()
	close(h.incoming)
	h.logger.Info("Сетевой хаб остановлен")
}
