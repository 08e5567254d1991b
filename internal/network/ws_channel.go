package network

import (
	"fmt"
	"time"

	"github.com/gorilla/websocket"
)

// wsFrames передаёт по одному кадру в бинарном сообщении WebSocket
type wsFrames struct {
	conn         *websocket.Conn
	writeTimeout time.Duration
}

// NewWebSocketFrames оборачивает WebSocket соединение
func NewWebSocketFrames(conn *websocket.Conn, config *ChannelConfig) FrameConn {
	if config == nil {
		config = DefaultChannelConfig()
	}
	conn.SetReadLimit(int64(config.MaxFrameSize))
	return &wsFrames{conn: conn, writeTimeout: config.WriteTimeout}
}

func (w *wsFrames) ReadFrame() ([]byte, error) {
	for {
		msgType, data, err := w.conn.ReadMessage()
		if err != nil {
			return nil, err
		}
		if msgType != websocket.BinaryMessage {
			continue
		}
		if len(data) == 0 {
			return nil, fmt.Errorf("%w: пустое сообщение", ErrBadFrameHeader)
		}
		return data, nil
	}
}

func (w *wsFrames) WriteFrame(frame []byte) error {
	if w.writeTimeout > 0 {
		_ = w.conn.SetWriteDeadline(time.Now().Add(w.writeTimeout))
	}
	return w.conn.WriteMessage(websocket.BinaryMessage, frame)
}

func (w *wsFrames) Close() error {
	_ = w.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"),
		time.Now().Add(time.Second))
	return w.conn.Close()
}

func (w *wsFrames) RemoteAddr() string {
	return w.conn.RemoteAddr().String()
}
