// Package protocol описывает пакеты между клиентом и сервером и их
// бинарное представление.
package protocol

import (
	"github.com/annel0/sandbox-world/internal/codec"
	"github.com/annel0/sandbox-world/internal/world"
	"github.com/annel0/sandbox-world/internal/world/block"
	"github.com/annel0/sandbox-world/internal/world/wall"
)

// MsgType определяет тип пакета
type MsgType int32

// Определение констант для типов пакетов
const (
	MsgUnknown MsgType = 0

	// Блоки
	MsgBlocksWelcome         MsgType = 10
	MsgBlockChange           MsgType = 11
	MsgClientBlockBreakStart MsgType = 12
	MsgBlockBreakStart       MsgType = 13
	MsgBlockBreakStop        MsgType = 14
	MsgBlockRightClick       MsgType = 15

	// Стены
	MsgWallsWelcome         MsgType = 20
	MsgWallChange           MsgType = 21
	MsgClientWallBreakStart MsgType = 22
	MsgWallBreakStart       MsgType = 23
	MsgWallBreakStop        MsgType = 24

	// Игрок
	MsgSelectSlot      MsgType = 30
	MsgPlayerInventory MsgType = 31
)

var msgTypeNames = map[MsgType]string{
	MsgBlocksWelcome:         "BlocksWelcome",
	MsgBlockChange:           "BlockChange",
	MsgClientBlockBreakStart: "ClientBlockBreakStart",
	MsgBlockBreakStart:       "BlockBreakStart",
	MsgBlockBreakStop:        "BlockBreakStop",
	MsgBlockRightClick:       "BlockRightClick",
	MsgWallsWelcome:          "WallsWelcome",
	MsgWallChange:            "WallChange",
	MsgClientWallBreakStart:  "ClientWallBreakStart",
	MsgWallBreakStart:        "WallBreakStart",
	MsgWallBreakStop:         "WallBreakStop",
	MsgSelectSlot:            "SelectSlot",
	MsgPlayerInventory:       "PlayerInventory",
}

func (t MsgType) String() string {
	if name, ok := msgTypeNames[t]; ok {
		return name
	}
	return "Unknown"
}

// Packet - любой пакет протокола
type Packet interface {
	Type() MsgType
	marshal(b []byte) []byte
	unmarshal(f codec.Field)
}

// BlocksWelcome - снимок слоя блоков для нового подключения
type BlocksWelcome struct {
	Data []byte
}

// Type возвращает тип пакета
func (*BlocksWelcome) Type() MsgType { return MsgBlocksWelcome }

func (p *BlocksWelcome) marshal(b []byte) []byte { return codec.AppendBytes(b, 1, p.Data) }

func (p *BlocksWelcome) unmarshal(f codec.Field) {
	if f.Num == 1 {
		p.Data = append([]byte(nil), f.Bytes...)
	}
}

// BlockChange - новое состояние клетки вместе с инвентарём. Этой же формой
// передаётся изменение инвентаря блока.
type BlockChange struct {
	X, Y      int32
	FromMainX int32
	FromMainY int32
	Block     block.ID
	Inventory world.Slots
}

// Type возвращает тип пакета
func (*BlockChange) Type() MsgType { return MsgBlockChange }

func (p *BlockChange) marshal(b []byte) []byte {
	b = codec.AppendInt(b, 1, p.X)
	b = codec.AppendInt(b, 2, p.Y)
	b = codec.AppendInt(b, 3, p.FromMainX)
	b = codec.AppendInt(b, 4, p.FromMainY)
	b = codec.AppendInt(b, 5, int32(p.Block))
	return codec.AppendSlots(b, 6, p.Inventory)
}

func (p *BlockChange) unmarshal(f codec.Field) {
	switch f.Num {
	case 1:
		p.X = f.Int32()
	case 2:
		p.Y = f.Int32()
	case 3:
		p.FromMainX = f.Int32()
	case 4:
		p.FromMainY = f.Int32()
	case 5:
		p.Block = block.ID(f.Int32())
	case 6:
		s, err := codec.DecodeSlot(f.Bytes)
		if err == nil {
			p.Inventory = append(p.Inventory, s)
		}
	}
}

// ClientBlockBreakStart - клиент начал ломать блок
type ClientBlockBreakStart struct {
	X, Y int32
}

// Type возвращает тип пакета
func (*ClientBlockBreakStart) Type() MsgType { return MsgClientBlockBreakStart }

func (p *ClientBlockBreakStart) marshal(b []byte) []byte { return appendXY(b, p.X, p.Y) }

func (p *ClientBlockBreakStart) unmarshal(f codec.Field) { readXY(f, &p.X, &p.Y) }

// BlockBreakStart - сервер сообщает, что блок начали ломать
type BlockBreakStart struct {
	X, Y      int32
	Tool      block.ToolID
	ToolPower int32
}

// Type возвращает тип пакета
func (*BlockBreakStart) Type() MsgType { return MsgBlockBreakStart }

func (p *BlockBreakStart) marshal(b []byte) []byte {
	b = appendXY(b, p.X, p.Y)
	b = codec.AppendInt(b, 3, int32(p.Tool))
	return codec.AppendInt(b, 4, p.ToolPower)
}

func (p *BlockBreakStart) unmarshal(f codec.Field) {
	switch f.Num {
	case 3:
		p.Tool = block.ToolID(f.Int32())
	case 4:
		p.ToolPower = f.Int32()
	default:
		readXY(f, &p.X, &p.Y)
	}
}

// BlockBreakStop - остановка ломания. От сервера несёт накопленный прогресс.
type BlockBreakStop struct {
	X, Y      int32
	BreakTime int32
}

// Type возвращает тип пакета
func (*BlockBreakStop) Type() MsgType { return MsgBlockBreakStop }

func (p *BlockBreakStop) marshal(b []byte) []byte {
	return codec.AppendInt(appendXY(b, p.X, p.Y), 3, p.BreakTime)
}

func (p *BlockBreakStop) unmarshal(f codec.Field) {
	if f.Num == 3 {
		p.BreakTime = f.Int32()
		return
	}
	readXY(f, &p.X, &p.Y)
}

// BlockRightClick - клиент кликнул по клетке (установка предмета)
type BlockRightClick struct {
	X, Y int32
}

// Type возвращает тип пакета
func (*BlockRightClick) Type() MsgType { return MsgBlockRightClick }

func (p *BlockRightClick) marshal(b []byte) []byte { return appendXY(b, p.X, p.Y) }

func (p *BlockRightClick) unmarshal(f codec.Field) { readXY(f, &p.X, &p.Y) }

// WallsWelcome - снимок слоя стен
type WallsWelcome struct {
	Data []byte
}

// Type возвращает тип пакета
func (*WallsWelcome) Type() MsgType { return MsgWallsWelcome }

func (p *WallsWelcome) marshal(b []byte) []byte { return codec.AppendBytes(b, 1, p.Data) }

func (p *WallsWelcome) unmarshal(f codec.Field) {
	if f.Num == 1 {
		p.Data = append([]byte(nil), f.Bytes...)
	}
}

// WallChange - в клетке сменилась стена
type WallChange struct {
	X, Y int32
	Wall wall.ID
}

// Type возвращает тип пакета
func (*WallChange) Type() MsgType { return MsgWallChange }

func (p *WallChange) marshal(b []byte) []byte {
	return codec.AppendInt(appendXY(b, p.X, p.Y), 3, int32(p.Wall))
}

func (p *WallChange) unmarshal(f codec.Field) {
	if f.Num == 3 {
		p.Wall = wall.ID(f.Int32())
		return
	}
	readXY(f, &p.X, &p.Y)
}

// ClientWallBreakStart - клиент начал ломать стену
type ClientWallBreakStart struct {
	X, Y int32
}

// Type возвращает тип пакета
func (*ClientWallBreakStart) Type() MsgType { return MsgClientWallBreakStart }

func (p *ClientWallBreakStart) marshal(b []byte) []byte { return appendXY(b, p.X, p.Y) }

func (p *ClientWallBreakStart) unmarshal(f codec.Field) { readXY(f, &p.X, &p.Y) }

// WallBreakStart - сервер сообщает, что стену начали ломать
type WallBreakStart struct {
	X, Y int32
}

// Type возвращает тип пакета
func (*WallBreakStart) Type() MsgType { return MsgWallBreakStart }

func (p *WallBreakStart) marshal(b []byte) []byte { return appendXY(b, p.X, p.Y) }

func (p *WallBreakStart) unmarshal(f codec.Field) { readXY(f, &p.X, &p.Y) }

// WallBreakStop - остановка ломания стены
type WallBreakStop struct {
	X, Y      int32
	BreakTime int32
}

// Type возвращает тип пакета
func (*WallBreakStop) Type() MsgType { return MsgWallBreakStop }

func (p *WallBreakStop) marshal(b []byte) []byte {
	return codec.AppendInt(appendXY(b, p.X, p.Y), 3, p.BreakTime)
}

func (p *WallBreakStop) unmarshal(f codec.Field) {
	if f.Num == 3 {
		p.BreakTime = f.Int32()
		return
	}
	readXY(f, &p.X, &p.Y)
}

// SelectSlot - клиент выбрал слот инвентаря
type SelectSlot struct {
	Slot int32
}

// Type возвращает тип пакета
func (*SelectSlot) Type() MsgType { return MsgSelectSlot }

func (p *SelectSlot) marshal(b []byte) []byte { return codec.AppendInt(b, 1, p.Slot) }

func (p *SelectSlot) unmarshal(f codec.Field) {
	if f.Num == 1 {
		p.Slot = f.Int32()
	}
}

// PlayerInventory - содержимое инвентаря игрока
type PlayerInventory struct {
	Slots    world.Slots
	Selected int32
}

// Type возвращает тип пакета
func (*PlayerInventory) Type() MsgType { return MsgPlayerInventory }

func (p *PlayerInventory) marshal(b []byte) []byte {
	b = codec.AppendInt(b, 1, p.Selected)
	return codec.AppendSlots(b, 2, p.Slots)
}

func (p *PlayerInventory) unmarshal(f codec.Field) {
	switch f.Num {
	case 1:
		p.Selected = f.Int32()
	case 2:
		s, err := codec.DecodeSlot(f.Bytes)
		if err == nil {
			p.Slots = append(p.Slots, s)
		}
	}
}

func appendXY(b []byte, x, y int32) []byte {
	b = codec.AppendInt(b, 1, x)
	return codec.AppendInt(b, 2, y)
}

func readXY(f codec.Field, x, y *int32) {
	switch f.Num {
	case 1:
		*x = f.Int32()
	case 2:
		*y = f.Int32()
	}
}
