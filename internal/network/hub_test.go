package network

import (
	"context"
	"encoding/binary"
	"net"
	"runtime"
	"testing"
	"time"

	"github.com/annel0/sandbox-world/internal/codec"
	"github.com/annel0/sandbox-world/internal/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nextInbound(t *testing.T, h *Hub) Inbound {
	t.Helper()
	select {
	case in, ok := <-h.Incoming():
		require.True(t, ok, "канал входящих закрыт")
		return in
	case <-time.After(2 * time.Second):
		t.Fatal("нет входящего события")
	}
	return Inbound{}
}

func attachPipe(t *testing.T, h *Hub) (ConnID, *PacketConn) {
	t.Helper()
	server, client := net.Pipe()
	c, err := h.Attach(NewStreamFrames(server, h.Config()), ChannelPipe)
	require.NoError(t, err)

	in := nextInbound(t, h)
	assert.Equal(t, InboundOpened, in.Kind)
	assert.Equal(t, c.ID(), in.Conn)

	return c.ID(), NewPacketConn(NewStreamFrames(client, h.Config()), h.Config())
}

func recvPacket(t *testing.T, pc *PacketConn) protocol.Packet {
	t.Helper()
	done := make(chan protocol.Packet, 1)
	errs := make(chan error, 1)
	go func() {
		p, err := pc.Recv()
		if err != nil {
			errs <- err
			return
		}
		done <- p
	}()
	select {
	case p := <-done:
		return p
	case err := <-errs:
		t.Fatalf("ошибка чтения: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("пакет не пришёл")
	}
	return nil
}

func TestHubDeliversClientPackets(t *testing.T) {
	h := NewHub(nil)
	defer h.Close()

	id, client := attachPipe(t, h)

	go func() { _ = client.Send(&protocol.ClientBlockBreakStart{X: 3, Y: 4}) }()

	in := nextInbound(t, h)
	require.Equal(t, InboundPacket, in.Kind)
	assert.Equal(t, id, in.Conn)
	assert.Equal(t, &protocol.ClientBlockBreakStart{X: 3, Y: 4}, in.Packet)

	_ = client.Close()
	in = nextInbound(t, h)
	assert.Equal(t, InboundClosed, in.Kind)
	assert.Equal(t, 0, h.Count())
}

func TestHubDropsMalformedFrames(t *testing.T) {
	h := NewHub(nil)
	defer h.Close()

	_, client := attachPipe(t, h)

	go func() {
		_ = client.frames.WriteFrame([]byte{frameRaw, 0xff, 0xff})
		_ = client.Send(&protocol.SelectSlot{Slot: 2})
	}()

	in := nextInbound(t, h)
	require.Equal(t, InboundPacket, in.Kind, "испорченный кадр пропускается, соединение живо")
	assert.Equal(t, &protocol.SelectSlot{Slot: 2}, in.Packet)
}

func TestBroadcastOnlyAfterWelcome(t *testing.T) {
	h := NewHub(nil)
	defer h.Close()

	idA, clientA := attachPipe(t, h)
	_, clientB := attachPipe(t, h)

	// B ещё не получил приветствие и не должен получить рассылку
	h.Broadcast(&protocol.WallChange{X: 1, Y: 1, Wall: 2})

	require.NoError(t, h.Welcome(idA, &protocol.BlocksWelcome{Data: []byte{1, 2, 3}}))
	h.Broadcast(&protocol.WallChange{X: 5, Y: 6, Wall: 1})

	p := recvPacket(t, clientA)
	assert.Equal(t, &protocol.BlocksWelcome{Data: []byte{1, 2, 3}}, p, "сначала приветствие")
	p = recvPacket(t, clientA)
	assert.Equal(t, &protocol.WallChange{X: 5, Y: 6, Wall: 1}, p)

	_ = clientB.frames.(*streamFrames).conn.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	_, err := clientB.Recv()
	assert.Error(t, err, "неприветствованный клиент ничего не получает")
}

func TestSendUnknownConnection(t *testing.T) {
	h := NewHub(nil)
	defer h.Close()

	assert.ErrorIs(t, h.Send("nope", &protocol.SelectSlot{}), ErrConnNotFound)
	assert.ErrorIs(t, h.Welcome("nope"), ErrConnNotFound)
}

func TestCompressedFrames(t *testing.T) {
	cfg := DefaultChannelConfig()
	cfg.CompressThreshold = 16

	big := &protocol.BlocksWelcome{Data: make([]byte, 4096)}
	frame, err := EncodePacket(big, cfg)
	require.NoError(t, err)
	assert.Equal(t, frameZstd, frame[0])
	assert.Less(t, len(frame), 4096)

	p, err := DecodePacket(frame, cfg)
	require.NoError(t, err)
	assert.Equal(t, big, p)

	cfg.Compression = false
	frame, err = EncodePacket(big, cfg)
	require.NoError(t, err)
	assert.Equal(t, frameRaw, frame[0])

	_, err = DecodePacket([]byte{7, 1}, cfg)
	assert.ErrorIs(t, err, ErrBadFrameHeader)
}

func TestCompressedFrameSizeLimit(t *testing.T) {
	cfg := DefaultChannelConfig()

	// Заголовок обещает 500 MiB, а тело - один байт
	body := []byte{0x28, 0xB5, 0x2F, 0xFD, 0xE0}
	body = binary.LittleEndian.AppendUint64(body, 500<<20)
	body = append(body, 0x09, 0x00, 0x00, 'x')
	frame := append([]byte{frameZstd}, body...)

	var before, after runtime.MemStats
	runtime.ReadMemStats(&before)
	_, err := DecodePacket(frame, cfg)
	runtime.ReadMemStats(&after)

	assert.ErrorIs(t, err, codec.ErrTooLarge)
	assert.Less(t, after.TotalAlloc-before.TotalAlloc, uint64(8<<20), "память под заявленный размер не выделяется")

	// Честно сжатый кадр больше MaxFrameSize тоже отвергается
	cfg.CompressThreshold = 16
	big := &protocol.BlocksWelcome{Data: make([]byte, 8192)}
	frame, err = EncodePacket(big, cfg)
	require.NoError(t, err)
	require.Equal(t, frameZstd, frame[0])

	small := DefaultChannelConfig()
	small.MaxFrameSize = 4096
	_, err = DecodePacket(frame, small)
	assert.ErrorIs(t, err, codec.ErrTooLarge)
}

func TestServeTCP(t *testing.T) {
	h := NewHub(nil)
	defer h.Close()

	addr, err := h.ServeTCP("127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	client, err := Dial(ctx, ChannelTCP, addr.String(), nil)
	require.NoError(t, err)
	defer client.Close()

	in := nextInbound(t, h)
	require.Equal(t, InboundOpened, in.Kind)

	require.NoError(t, h.Welcome(in.Conn, &protocol.PlayerInventory{Selected: 1}))
	p := recvPacket(t, client)
	assert.Equal(t, &protocol.PlayerInventory{Selected: 1}, p)
}

func TestCloseClosesIncoming(t *testing.T) {
	h := NewHub(nil)
	_, _ = attachPipe(t, h)
	h.Close()

	for range h.Incoming() {
	}
	_, err := h.Attach(NewStreamFrames(&net.TCPConn{}, nil), ChannelTCP)
	assert.ErrorIs(t, err, ErrHubClosed)
}
