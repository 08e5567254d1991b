package network

import (
	"context"
	"fmt"
	"net"

	"github.com/annel0/sandbox-world/internal/protocol"
	"github.com/gorilla/websocket"
	"github.com/xtaci/kcp-go/v5"
)

// PacketConn синхронная клиентская сторона соединения
type PacketConn struct {
	frames FrameConn
	config *ChannelConfig
}

// NewPacketConn оборачивает FrameConn
func NewPacketConn(frames FrameConn, config *ChannelConfig) *PacketConn {
	if config == nil {
		config = DefaultChannelConfig()
	}
	return &PacketConn{frames: frames, config: config}
}

// Send отправляет пакет
func (p *PacketConn) Send(packet protocol.Packet) error {
	frame, err := EncodePacket(packet, p.config)
	if err != nil {
		return err
	}
	return p.frames.WriteFrame(frame)
}

// Recv блокируется до следующего пакета
func (p *PacketConn) Recv() (protocol.Packet, error) {
	frame, err := p.frames.ReadFrame()
	if err != nil {
		return nil, err
	}
	return DecodePacket(frame, p.config)
}

// Close закрывает соединение
func (p *PacketConn) Close() error {
	return p.frames.Close()
}

// Dial подключается к серверу по выбранному транспорту.
// Для WebSocket addr - полный URL вида ws://host:port/ws.
func Dial(ctx context.Context, kind ChannelType, addr string, config *ChannelConfig) (*PacketConn, error) {
	if config == nil {
		config = DefaultChannelConfig()
	}

	var frames FrameConn
	switch kind {
	case ChannelTCP:
		var d net.Dialer
		conn, err := d.DialContext(ctx, "tcp", addr)
		if err != nil {
			return nil, err
		}
		frames = NewStreamFrames(conn, config)
	case ChannelKCP:
		session, err := kcp.DialWithOptions(addr, nil, 10, 3)
		if err != nil {
			return nil, err
		}
		tuneKCP(session)
		frames = NewStreamFrames(session, config)
	case ChannelWebSocket:
		conn, _, err := websocket.DefaultDialer.DialContext(ctx, addr, nil)
		if err != nil {
			return nil, err
		}
		frames = NewWebSocketFrames(conn, config)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedChannel, kind)
	}

	return NewPacketConn(frames, config), nil
}
