package network

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/annel0/sandbox-world/internal/logging"
	"github.com/annel0/sandbox-world/internal/protocol"
	"github.com/google/uuid"
)

// ConnID идентифицирует соединение в пределах хаба
type ConnID string

// NewConnID генерирует новый идентификатор
func NewConnID() ConnID {
	return ConnID(uuid.NewString())
}

type outFrame struct {
	data    []byte
	msgType protocol.MsgType
}

// Conn соединение, принадлежащее хабу
type Conn struct {
	id     ConnID
	kind   ChannelType
	frames FrameConn
	hub    *Hub

	sendBuffer chan outFrame
	welcomed   atomic.Bool

	ctx    context.Context
	cancel context.CancelFunc

	stats   ConnectionStats
	statsMu sync.Mutex

	closeOnce sync.Once
}

func newConn(hub *Hub, frames FrameConn, kind ChannelType) *Conn {
	ctx, cancel := context.WithCancel(hub.ctx)
	c := &Conn{
		id:         NewConnID(),
		kind:       kind,
		frames:     frames,
		hub:        hub,
		sendBuffer: make(chan outFrame, hub.config.SendQueueLen),
		ctx:        ctx,
		cancel:     cancel,
	}
	c.stats.Connected = true
	c.stats.RemoteAddr = frames.RemoteAddr()
	c.stats.LastActivity = time.Now()
	return c
}

// ID возвращает идентификатор соединения
func (c *Conn) ID() ConnID { return c.id }

// Kind возвращает тип канала
func (c *Conn) Kind() ChannelType { return c.kind }

// Stats возвращает копию статистики
func (c *Conn) Stats() ConnectionStats {
	c.statsMu.Lock()
	defer c.statsMu.Unlock()
	return c.stats
}

// enqueue ставит кадр в очередь без блокировки
func (c *Conn) enqueue(f outFrame) error {
	select {
	case <-c.ctx.Done():
		return ErrConnNotFound
	default:
	}

	select {
	case c.sendBuffer <- f:
		return nil
	default:
		packetsDropped.WithLabelValues("queue_full").Inc()
		return ErrSendQueueFull
	}
}

// sendLoop пишет кадры из очереди
func (c *Conn) sendLoop() {
	defer c.hub.wg.Done()
	logger := logging.GetNetworkLogger()

	for {
		select {
		case <-c.ctx.Done():
			return
		case f := <-c.sendBuffer:
			if err := c.frames.WriteFrame(f.data); err != nil {
				logger.Debug("Ошибка записи в %s: %v", c.id, err)
				c.close()
				return
			}

			packetsSent.WithLabelValues(f.msgType.String()).Inc()
			bytesSent.Add(float64(len(f.data)))

			c.statsMu.Lock()
			c.stats.PacketsSent++
			c.stats.BytesSent += uint64(len(f.data))
			c.stats.LastActivity = time.Now()
			c.statsMu.Unlock()
		}
	}
}

// receiveLoop читает кадры. Opened уходит в хаб до первого пакета, Closed после последнего.
func (c *Conn) receiveLoop() {
	defer c.hub.wg.Done()
	defer c.hub.remove(c)

	if !c.hub.deliver(Inbound{Conn: c.id, Kind: InboundOpened}) {
		c.close()
		return
	}

	for {
		frame, err := c.frames.ReadFrame()
		if err != nil {
			select {
			case <-c.ctx.Done():
			default:
				logging.GetNetworkLogger().Debug("Соединение %s завершено: %v", c.id, err)
			}
			c.close()
			return
		}

		bytesReceived.Add(float64(len(frame)))
		c.statsMu.Lock()
		c.stats.BytesReceived += uint64(len(frame))
		c.stats.LastActivity = time.Now()
		c.statsMu.Unlock()

		packet, err := DecodePacket(frame, c.hub.config)
		if err != nil {
			packetsDropped.WithLabelValues("decode").Inc()
			logging.LogProtocolError(string(c.id), err, frame)
			continue
		}

		c.statsMu.Lock()
		c.stats.PacketsReceived++
		c.statsMu.Unlock()
		packetsReceived.WithLabelValues(packet.Type().String()).Inc()

		if !c.hub.deliver(Inbound{Conn: c.id, Kind: InboundPacket, Packet: packet}) {
			c.close()
			return
		}
	}
}

func (c *Conn) close() {
	c.closeOnce.Do(func() {
		c.cancel()
		_ = c.frames.Close()

		c.statsMu.Lock()
		c.stats.Connected = false
		c.statsMu.Unlock()
	})
}
