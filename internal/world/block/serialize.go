package block

import (
	"fmt"
	"sort"

	"github.com/annel0/sandbox-world/internal/codec"
	"github.com/annel0/sandbox-world/internal/vec"
	"github.com/annel0/sandbox-world/internal/world"
)

// Поля снимка сетки
const (
	fieldWidth     = 1
	fieldHeight    = 2
	fieldIDs       = 3
	fieldFromMain  = 4
	fieldExtra     = 5
	fieldInventory = 6
)

// Serialize кодирует сетку (плотный массив и все разреженные карты) и сжимает её.
// Записи карт упорядочены по индексу, так что одинаковые сетки дают одинаковые байты.
func (b *Blocks) Serialize() []byte {
	d := &b.data
	buf := make([]byte, 0, len(d.ids)+64)
	buf = codec.AppendUint(buf, fieldWidth, uint64(d.wmap.Width()))
	buf = codec.AppendUint(buf, fieldHeight, uint64(d.wmap.Height()))

	ids := make([]byte, len(d.ids))
	for i, id := range d.ids {
		ids[i] = byte(id)
	}
	buf = codec.AppendBytes(buf, fieldIDs, ids)

	for _, i := range sortedKeys(d.fromMain) {
		fm := d.fromMain[i]
		var m []byte
		m = codec.AppendUint(m, 1, uint64(i))
		m = codec.AppendInt(m, 2, fm.X)
		m = codec.AppendInt(m, 3, fm.Y)
		buf = codec.AppendBytes(buf, fieldFromMain, m)
	}
	for _, i := range sortedKeys(d.extra) {
		var m []byte
		m = codec.AppendUint(m, 1, uint64(i))
		m = codec.AppendBytes(m, 2, d.extra[i])
		buf = codec.AppendBytes(buf, fieldExtra, m)
	}
	for _, i := range sortedKeys(d.inventory) {
		var m []byte
		m = codec.AppendUint(m, 1, uint64(i))
		m = codec.AppendSlots(m, 2, d.inventory[i])
		buf = codec.AppendBytes(buf, fieldInventory, m)
	}
	return codec.CompressSnapshot(buf)
}

// Deserialize заменяет состояние сетки снимком. При ошибке сетка не меняется.
func (b *Blocks) Deserialize(data []byte) error {
	raw, err := codec.DecompressSnapshot(data)
	if err != nil {
		return fmt.Errorf("%w: %v", world.ErrSerialization, err)
	}

	var width, height uint32
	var ids []byte
	// Индексы из снимка проверяются после того, как известен размер сетки
	fromMain := make(map[uint64]vec.Vec2)
	extra := make(map[uint64][]byte)
	inventory := make(map[uint64]world.Slots)

	err = codec.Walk(raw, func(f codec.Field) error {
		switch f.Num {
		case fieldWidth:
			width = f.Uint32()
		case fieldHeight:
			height = f.Uint32()
		case fieldIDs:
			ids = f.Bytes
		case fieldFromMain:
			var i uint64
			var fm vec.Vec2
			err := codec.Walk(f.Bytes, func(g codec.Field) error {
				switch g.Num {
				case 1:
					i = g.Varint
				case 2:
					fm.X = g.Int32()
				case 3:
					fm.Y = g.Int32()
				}
				return nil
			})
			if err != nil {
				return err
			}
			fromMain[i] = fm
		case fieldExtra:
			var i uint64
			var payload []byte
			err := codec.Walk(f.Bytes, func(g codec.Field) error {
				switch g.Num {
				case 1:
					i = g.Varint
				case 2:
					payload = append([]byte(nil), g.Bytes...)
				}
				return nil
			})
			if err != nil {
				return err
			}
			extra[i] = payload
		case fieldInventory:
			var i uint64
			var slots world.Slots
			err := codec.Walk(f.Bytes, func(g codec.Field) error {
				switch g.Num {
				case 1:
					i = g.Varint
				case 2:
					s, err := codec.DecodeSlot(g.Bytes)
					if err != nil {
						return err
					}
					slots = append(slots, s)
				}
				return nil
			})
			if err != nil {
				return err
			}
			inventory[i] = slots
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", world.ErrSerialization, err)
	}

	wmap := world.NewWorldMap(width, height)
	cells := wmap.Cells()
	if len(ids) != cells {
		return fmt.Errorf("%w: %d id на %d клеток", world.ErrSerialization, len(ids), cells)
	}
	grid := newGridData(wmap)
	for i, raw := range ids {
		id := ID(int8(raw))
		if !b.registry.Valid(id) {
			return fmt.Errorf("%w: неизвестный id %d", world.ErrSerialization, id)
		}
		grid.ids[i] = id
	}

	for i, fm := range fromMain {
		if i >= uint64(cells) {
			return fmt.Errorf("%w: индекс from_main %d вне сетки", world.ErrSerialization, i)
		}
		x, y := int32(i/uint64(height)), int32(i%uint64(height))
		if fm.X < 0 || fm.Y < 0 || !wmap.Contains(x-fm.X, y-fm.Y) {
			return fmt.Errorf("%w: from_main (%d,%d) в (%d,%d) указывает за пределы сетки",
				world.ErrSerialization, fm.X, fm.Y, x, y)
		}
		grid.fromMain[int(i)] = fm
	}
	for i, payload := range extra {
		if i >= uint64(cells) {
			return fmt.Errorf("%w: индекс данных %d вне сетки", world.ErrSerialization, i)
		}
		grid.extra[int(i)] = payload
	}
	for i, slots := range inventory {
		if i >= uint64(cells) {
			return fmt.Errorf("%w: индекс инвентаря %d вне сетки", world.ErrSerialization, i)
		}
		want := 0
		if grid.fromMain[int(i)].IsZero() {
			t, err := b.registry.typ(grid.ids[i])
			if err != nil {
				return fmt.Errorf("%w: %v", world.ErrSerialization, err)
			}
			want = len(t.InventorySlots)
		}
		if len(slots) != want {
			return fmt.Errorf("%w: инвентарь в клетке %d: %d слотов вместо %d",
				world.ErrSerialization, i, len(slots), want)
		}
		grid.inventory[int(i)] = slots
	}

	b.data = grid
	b.breaking.Clear()
	return nil
}

func sortedKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
