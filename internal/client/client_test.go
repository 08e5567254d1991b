package client

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/sandbox-world/internal/content"
	"github.com/annel0/sandbox-world/internal/protocol"
)

type pipeTransport struct {
	in     chan protocol.Packet
	out    chan protocol.Packet
	closed chan struct{}
	once   sync.Once
}

func newPipe() *pipeTransport {
	return &pipeTransport{
		in:     make(chan protocol.Packet, 16),
		out:    make(chan protocol.Packet, 16),
		closed: make(chan struct{}),
	}
}

func (p *pipeTransport) Send(pkt protocol.Packet) error {
	select {
	case <-p.closed:
		return io.ErrClosedPipe
	case p.out <- pkt:
		return nil
	}
}

func (p *pipeTransport) Recv() (protocol.Packet, error) {
	select {
	case pkt := <-p.in:
		return pkt, nil
	case <-p.closed:
		return nil, io.EOF
	}
}

func (p *pipeTransport) Close() error {
	p.once.Do(func() { close(p.closed) })
	return nil
}

func TestClientWaitsForWelcome(t *testing.T) {
	server, _, base := newPair(t)
	require.NoError(t, server.Blocks.SetBlock(server.events, 1, 2, base.Blocks.Sand))

	pipe := newPipe()
	c, err := New(pipe, content.New(1))
	require.NoError(t, err)
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	pipe.in <- &protocol.BlocksWelcome{Data: server.Blocks.Serialize()}
	pipe.in <- &protocol.WallsWelcome{Data: server.Walls.Serialize()}
	require.NoError(t, c.WaitReady(ctx))

	c.View(func(r *Replica) {
		id, err := r.Blocks.Block(1, 2)
		require.NoError(t, err)
		assert.Equal(t, base.Blocks.Sand, id)
	})
}

func TestClientSendsActions(t *testing.T) {
	pipe := newPipe()
	c, err := New(pipe, content.New(1))
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.BreakBlock(3, 4))
	require.NoError(t, c.RightClick(5, 6))
	require.NoError(t, c.SelectSlot(2))

	assert.Equal(t, &protocol.ClientBlockBreakStart{X: 3, Y: 4}, <-pipe.out)
	assert.Equal(t, &protocol.BlockRightClick{X: 5, Y: 6}, <-pipe.out)
	assert.Equal(t, &protocol.SelectSlot{Slot: 2}, <-pipe.out)
}

func TestClientStopsOnDisconnect(t *testing.T) {
	pipe := newPipe()
	c, err := New(pipe, content.New(1))
	require.NoError(t, err)

	require.NoError(t, pipe.Close())
	select {
	case <-c.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("приём не остановился после закрытия")
	}
	assert.ErrorIs(t, c.Err(), ErrClosed)
	assert.ErrorIs(t, c.WaitReady(context.Background()), ErrClosed)
	assert.ErrorIs(t, c.Run(context.Background(), time.Millisecond), ErrClosed)
}
