package network

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/xtaci/kcp-go/v5"
)

// ServeTCP слушает TCP адрес и подключает входящие соединения к хабу.
// Возвращает фактический адрес (удобно для ":0").
func (h *Hub) ServeTCP(addr string) (net.Addr, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	if err := h.track(listener); err != nil {
		return nil, err
	}

	h.logger.Info("TCP сервер запущен на %s", listener.Addr())
	go h.acceptLoop(func() (net.Conn, error) {
		conn, err := listener.Accept()
		if err != nil {
			return nil, err
		}
		if tcp, ok := conn.(*net.TCPConn); ok {
			_ = tcp.SetNoDelay(true)
			_ = tcp.SetKeepAlive(true)
			_ = tcp.SetKeepAlivePeriod(30 * time.Second)
		}
		return conn, nil
	}, ChannelTCP)

	return listener.Addr(), nil
}

// ServeKCP слушает UDP адрес с протоколом KCP
func (h *Hub) ServeKCP(addr string) (net.Addr, error) {
	listener, err := kcp.ListenWithOptions(addr, nil, 10, 3)
	if err != nil {
		return nil, err
	}
	if err := h.track(listener); err != nil {
		return nil, err
	}

	h.logger.Info("KCP сервер запущен на %s", listener.Addr())
	go h.acceptLoop(func() (net.Conn, error) {
		session, err := listener.AcceptKCP()
		if err != nil {
			return nil, err
		}
		tuneKCP(session)
		return session, nil
	}, ChannelKCP)

	return listener.Addr(), nil
}

func (h *Hub) acceptLoop(accept func() (net.Conn, error), kind ChannelType) {
	defer h.wg.Done()

	for {
		conn, err := accept()
		if err != nil {
			select {
			case <-h.ctx.Done():
				return
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			h.logger.Warn("Ошибка приёма %s соединения: %v", kind, err)
			time.Sleep(50 * time.Millisecond)
			continue
		}

		if _, err := h.Attach(NewStreamFrames(conn, h.config), kind); err != nil {
			return
		}
	}
}

// tuneKCP настраивает сессию под игровой трафик
func tuneKCP(session *kcp.UDPSession) {
	session.SetStreamMode(true)
	session.SetWriteDelay(false)
	session.SetNoDelay(1, 20, 2, 1)
	session.SetWindowSize(512, 512)
	session.SetMtu(1400)
}

// WebSocketHandler возвращает HTTP обработчик, переводящий запросы в WebSocket соединения хаба
func (h *Hub) WebSocketHandler() http.Handler {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  64 * 1024,
		WriteBufferSize: 64 * 1024,
		CheckOrigin:     func(r *http.Request) bool { return true },
	}

	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(rw, r, nil)
		if err != nil {
			h.logger.Debug("Ошибка WebSocket upgrade от %s: %v", r.RemoteAddr, err)
			return
		}
		if _, err := h.Attach(NewWebSocketFrames(conn, h.config), ChannelWebSocket); err != nil {
			return
		}
	})
}

// ServeWebSocket поднимает HTTP сервер с WebSocket обработчиком на /ws
func (h *Hub) ServeWebSocket(addr string) (net.Addr, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/ws", h.WebSocketHandler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	if err := h.track(closerFunc(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	})); err != nil {
		_ = listener.Close()
		return nil, err
	}

	h.logger.Info("WebSocket сервер запущен на %s", listener.Addr())
	go func() {
		defer h.wg.Done()
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			h.logger.Error("Ошибка WebSocket сервера: %v", err)
		}
	}()
	return listener.Addr(), nil
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }
