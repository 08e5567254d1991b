package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/annel0/sandbox-world/internal/logging"
	"github.com/annel0/sandbox-world/internal/modhost"
	"github.com/annel0/sandbox-world/internal/network"
	"github.com/annel0/sandbox-world/internal/protocol"
)

// ErrClosed - соединение с сервером закрыто
var ErrClosed = errors.New("соединение с сервером закрыто")

// Transport - то, что клиенту нужно от соединения
type Transport interface {
	Send(p protocol.Packet) error
	Recv() (protocol.Packet, error)
	Close() error
}

// Client держит соединение и реплику мира. Пакеты применяются в фоне,
// читать реплику можно только через View.
type Client struct {
	conn    Transport
	logger  *logging.Logger
	mu      sync.Mutex
	replica *Replica
	ready   chan struct{}
	done    chan struct{}
	err     error
}

// Dial подключается к серверу
func Dial(ctx context.Context, kind network.ChannelType, addr string, config *network.ChannelConfig, mods ...modhost.Mod) (*Client, error) {
	conn, err := network.Dial(ctx, kind, addr, config)
	if err != nil {
		return nil, fmt.Errorf("подключение к %s (%s): %w", addr, kind, err)
	}
	c, err := New(conn, mods...)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return c, nil
}

// New запускает клиента поверх готового соединения
func New(conn Transport, mods ...modhost.Mod) (*Client, error) {
	replica, err := NewReplica(mods...)
	if err != nil {
		return nil, err
	}
	c := &Client{
		conn:    conn,
		logger:  logging.GetComponentLogger("client"),
		replica: replica,
		ready:   make(chan struct{}),
		done:    make(chan struct{}),
	}
	go c.receiveLoop()
	return c, nil
}

func (c *Client) receiveLoop() {
	defer close(c.done)
	readyClosed := false
	for {
		p, err := c.conn.Recv()
		if err != nil {
			c.mu.Lock()
			c.err = err
			c.mu.Unlock()
			c.logger.Debug("приём остановлен: %v", err)
			return
		}

		c.mu.Lock()
		if err := c.replica.Apply(p); err != nil {
			c.logger.Warn("пакет %s не применён: %v", p.Type(), err)
		}
		ready := c.replica.Ready()
		c.mu.Unlock()

		if ready && !readyClosed {
			close(c.ready)
			readyClosed = true
		}
	}
}

// WaitReady ждёт оба снимка мира
func (c *Client) WaitReady(ctx context.Context) error {
	select {
	case <-c.ready:
		return nil
	case <-c.done:
		return c.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Err возвращает ошибку, остановившую приём
func (c *Client) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrClosed, c.err)
}

// Done закрывается, когда приём остановлен
func (c *Client) Done() <-chan struct{} { return c.done }

// View даёт fn доступ к реплике под блокировкой
func (c *Client) View(fn func(r *Replica)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(c.replica)
}

// Run продвигает локальную анимацию ломания до отмены ctx или разрыва
func (c *Client) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.done:
			return c.Err()
		case now := <-ticker.C:
			frame := int32(now.Sub(last).Milliseconds())
			last = now
			c.mu.Lock()
			err := c.replica.Tick(frame)
			c.mu.Unlock()
			if err != nil {
				return err
			}
		}
	}
}

// BreakBlock начинает ломать блок
func (c *Client) BreakBlock(x, y int32) error {
	return c.conn.Send(&protocol.ClientBlockBreakStart{X: x, Y: y})
}

// StopBreakingBlock прекращает ломать блок
func (c *Client) StopBreakingBlock(x, y int32) error {
	return c.conn.Send(&protocol.BlockBreakStop{X: x, Y: y})
}

// RightClick ставит предмет из выбранного слота
func (c *Client) RightClick(x, y int32) error {
	return c.conn.Send(&protocol.BlockRightClick{X: x, Y: y})
}

// BreakWall начинает ломать стену
func (c *Client) BreakWall(x, y int32) error {
	return c.conn.Send(&protocol.ClientWallBreakStart{X: x, Y: y})
}

// StopBreakingWall прекращает ломать стену
func (c *Client) StopBreakingWall(x, y int32) error {
	return c.conn.Send(&protocol.WallBreakStop{X: x, Y: y})
}

// SelectSlot выбирает слот инвентаря
func (c *Client) SelectSlot(slot int32) error {
	return c.conn.Send(&protocol.SelectSlot{Slot: slot})
}

// Close закрывает соединение и ждёт остановки приёма
func (c *Client) Close() error {
	err := c.conn.Close()
	<-c.done
	return err
}
