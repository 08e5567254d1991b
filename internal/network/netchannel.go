// Package network доставляет пакеты протокола между сервером и клиентами
// поверх TCP, KCP и WebSocket.
package network

import (
	"errors"
	"time"
)

// ChannelType определяет тип канала связи
type ChannelType int

const (
	ChannelTCP ChannelType = iota
	ChannelKCP
	ChannelWebSocket
	ChannelPipe
)

func (t ChannelType) String() string {
	switch t {
	case ChannelTCP:
		return "tcp"
	case ChannelKCP:
		return "kcp"
	case ChannelWebSocket:
		return "websocket"
	case ChannelPipe:
		return "pipe"
	default:
		return "unknown"
	}
}

// ConnectionStats содержит статистику соединения
type ConnectionStats struct {
	PacketsSent     uint64    // Отправлено пакетов
	PacketsReceived uint64    // Получено пакетов
	BytesSent       uint64    // Отправлено байт
	BytesReceived   uint64    // Получено байт
	LastActivity    time.Time // Последняя активность
	Connected       bool      // Статус соединения
	RemoteAddr      string    // Адрес удалённого узла
}

// ChannelConfig конфигурация каналов
type ChannelConfig struct {
	SendQueueLen      int           // Длина очереди отправки на соединение
	Compression       bool          // Сжимать кадры zstd
	CompressThreshold int           // Минимальный размер кадра для сжатия
	MaxFrameSize      int           // Максимальный размер кадра
	WriteTimeout      time.Duration // Таймаут записи кадра
}

// DefaultChannelConfig возвращает конфигурацию по умолчанию
func DefaultChannelConfig() *ChannelConfig {
	return &ChannelConfig{
		SendQueueLen:      256,
		Compression:       true,
		CompressThreshold: 512,
		MaxFrameSize:      16 << 20,
		WriteTimeout:      10 * time.Second,
	}
}

var (
	ErrFrameTooLarge  = errors.New("кадр превышает допустимый размер")
	ErrConnNotFound   = errors.New("соединение не найдено")
	ErrSendQueueFull  = errors.New("очередь отправки переполнена")
	ErrHubClosed      = errors.New("хаб закрыт")
	ErrBadFrameHeader = errors.New("неизвестный флаг кадра")

	ErrUnsupportedChannel = errors.New("транспорт не поддерживается")
)

// FrameConn передаёт целые кадры. ReadFrame вызывается из одной горутины,
// WriteFrame из другой.
type FrameConn interface {
	ReadFrame() ([]byte, error)
	WriteFrame(frame []byte) error
	Close() error
	RemoteAddr() string
}
