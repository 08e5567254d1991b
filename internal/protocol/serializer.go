package protocol

import (
	"errors"
	"fmt"

	"github.com/annel0/sandbox-world/internal/codec"
)

// ErrUnknownPacket - тип пакета не поддерживается
var ErrUnknownPacket = errors.New("неизвестный тип пакета")

// Поля конверта пакета
const (
	fieldType = 1
	fieldBody = 2
)

func newPacket(t MsgType) (Packet, error) {
	switch t {
	case MsgBlocksWelcome:
		return &BlocksWelcome{}, nil
	case MsgBlockChange:
		return &BlockChange{}, nil
	case MsgClientBlockBreakStart:
		return &ClientBlockBreakStart{}, nil
	case MsgBlockBreakStart:
		return &BlockBreakStart{}, nil
	case MsgBlockBreakStop:
		return &BlockBreakStop{}, nil
	case MsgBlockRightClick:
		return &BlockRightClick{}, nil
	case MsgWallsWelcome:
		return &WallsWelcome{}, nil
	case MsgWallChange:
		return &WallChange{}, nil
	case MsgClientWallBreakStart:
		return &ClientWallBreakStart{}, nil
	case MsgWallBreakStart:
		return &WallBreakStart{}, nil
	case MsgWallBreakStop:
		return &WallBreakStop{}, nil
	case MsgSelectSlot:
		return &SelectSlot{}, nil
	case MsgPlayerInventory:
		return &PlayerInventory{}, nil
	}
	return nil, fmt.Errorf("%w: %d", ErrUnknownPacket, t)
}

// Marshal сериализует пакет в конверт {тип, тело}
func Marshal(p Packet) []byte {
	body := p.marshal(nil)
	b := make([]byte, 0, len(body)+8)
	b = codec.AppendUint(b, fieldType, uint64(p.Type()))
	return codec.AppendBytes(b, fieldBody, body)
}

// Unmarshal разбирает конверт и тело пакета
func Unmarshal(data []byte) (Packet, error) {
	var t MsgType
	var body []byte
	err := codec.Walk(data, func(f codec.Field) error {
		switch f.Num {
		case fieldType:
			t = MsgType(f.Varint)
		case fieldBody:
			body = f.Bytes
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка десериализации конверта: %w", err)
	}

	p, err := newPacket(t)
	if err != nil {
		return nil, err
	}
	err = codec.Walk(body, func(f codec.Field) error {
		p.unmarshal(f)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка десериализации пакета %d: %w", t, err)
	}
	return p, nil
}
