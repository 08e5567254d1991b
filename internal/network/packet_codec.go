package network

import (
	"fmt"

	"github.com/annel0/sandbox-world/internal/codec"
	"github.com/annel0/sandbox-world/internal/protocol"
)

// Первый байт кадра
const (
	frameRaw  byte = 0
	frameZstd byte = 1
)

// EncodePacket упаковывает пакет в кадр, сжимая крупные кадры при включённом сжатии
func EncodePacket(p protocol.Packet, config *ChannelConfig) ([]byte, error) {
	body := protocol.Marshal(p)

	if config != nil && config.Compression && len(body) >= config.CompressThreshold {
		compressed, err := codec.CompressZstd(body)
		if err != nil {
			return nil, err
		}
		if len(compressed) < len(body) {
			return append([]byte{frameZstd}, compressed...), nil
		}
	}

	return append([]byte{frameRaw}, body...), nil
}

// DecodePacket разбирает кадр, полученный EncodePacket. Сжатое тело
// не может распаковаться больше, чем в config.MaxFrameSize.
func DecodePacket(frame []byte, config *ChannelConfig) (protocol.Packet, error) {
	if config == nil {
		config = DefaultChannelConfig()
	}
	if len(frame) == 0 {
		return nil, fmt.Errorf("%w: пустой кадр", ErrBadFrameHeader)
	}

	body := frame[1:]
	switch frame[0] {
	case frameRaw:
	case frameZstd:
		var err error
		body, err = codec.DecompressZstd(body, config.MaxFrameSize)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: %d", ErrBadFrameHeader, frame[0])
	}

	return protocol.Unmarshal(body)
}
