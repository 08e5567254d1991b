package block

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/sandbox-world/internal/vec"
	"github.com/annel0/sandbox-world/internal/world"
)

type testWorld struct {
	blocks  *Blocks
	events  *world.EventQueue
	stone   ID
	bench   ID
	chest   ID
	pickaxe ToolID
}

func newTestWorld(t *testing.T, width, height uint32) *testWorld {
	t.Helper()
	b := New()
	r := b.Registry()

	pickaxe, err := r.RegisterTool("pickaxe")
	require.NoError(t, err)
	stone, err := r.Register(Type{Name: "stone", BreakTime: 100})
	require.NoError(t, err)
	bench, err := r.Register(Type{Name: "bench", Width: 2, Height: 1, BreakTime: 50})
	require.NoError(t, err)
	chest, err := r.Register(Type{
		Name:           "chest",
		Width:          2,
		Height:         2,
		BreakTime:      80,
		InventorySlots: []SlotPos{{0, 0}, {1, 0}, {2, 0}},
	})
	require.NoError(t, err)

	b.Create(width, height)
	return &testWorld{blocks: b, events: world.NewEventQueue(), stone: stone, bench: bench, chest: chest, pickaxe: pickaxe}
}

// settle прогоняет события так же, как мост сервера: после каждого
// ChangeEvent перепроверяются клетка и четыре соседа.
func (w *testWorld) settle(t *testing.T) []world.Event {
	t.Helper()
	var seen []world.Event
	for {
		e, ok := w.events.Pop()
		if !ok {
			return seen
		}
		seen = append(seen, e)
		ch, ok := e.(ChangeEvent)
		if !ok {
			continue
		}
		c := vec.New(ch.X, ch.Y)
		nb := c.Neighbors4()
		cells := append([]vec.Vec2{c}, nb[:]...)
		for _, n := range cells {
			if !w.blocks.Map().Contains(n.X, n.Y) {
				continue
			}
			require.NoError(t, w.blocks.UpdateMulticell(w.events, n.X, n.Y))
		}
	}
}

func countEvents[T world.Event](events []world.Event) int {
	n := 0
	for _, e := range events {
		if _, ok := e.(T); ok {
			n++
		}
	}
	return n
}

func TestSetGetBlock(t *testing.T) {
	w := newTestWorld(t, 10, 10)
	for x := int32(0); x < 10; x++ {
		for y := int32(0); y < 10; y++ {
			require.NoError(t, w.blocks.SetBlock(w.events, x, y, w.stone))
			id, err := w.blocks.Block(x, y)
			require.NoError(t, err)
			assert.Equal(t, w.stone, id, "Блок в (%d,%d)", x, y)
		}
	}
}

func TestOutOfBoundsAccessors(t *testing.T) {
	w := newTestWorld(t, 4, 4)
	b := w.blocks
	for _, c := range [][2]int32{{-1, 0}, {4, 0}, {0, 4}, {0, -1}} {
		x, y := c[0], c[1]
		_, err := b.Block(x, y)
		assert.ErrorIs(t, err, world.ErrOutOfBounds)
		assert.ErrorIs(t, b.SetBlock(w.events, x, y, w.stone), world.ErrOutOfBounds)
		_, err = b.FromMain(x, y)
		assert.ErrorIs(t, err, world.ErrOutOfBounds)
		_, err = b.Inventory(x, y)
		assert.ErrorIs(t, err, world.ErrOutOfBounds)
		_, err = b.InventorySize(x, y)
		assert.ErrorIs(t, err, world.ErrOutOfBounds)
		assert.ErrorIs(t, b.SetInventory(w.events, x, y, nil), world.ErrOutOfBounds)
		assert.ErrorIs(t, b.BreakBlock(w.events, x, y), world.ErrOutOfBounds)
		assert.ErrorIs(t, b.StartBreaking(w.events, x, y, NoTool, 0), world.ErrOutOfBounds)
		assert.ErrorIs(t, b.StopBreaking(w.events, x, y), world.ErrOutOfBounds)
		_, err = b.BreakProgress(x, y)
		assert.ErrorIs(t, err, world.ErrOutOfBounds)
		_, err = b.Data(x, y)
		assert.ErrorIs(t, err, world.ErrOutOfBounds)
	}
	assert.Equal(t, 0, w.events.Len(), "Ошибки не порождают событий")
}

func TestSetBigBlockIdempotent(t *testing.T) {
	w := newTestWorld(t, 5, 5)
	require.NoError(t, w.blocks.SetBigBlock(w.events, 1, 1, w.stone, vec.Zero))
	require.NoError(t, w.blocks.SetBigBlock(w.events, 1, 1, w.stone, vec.Zero))

	events := w.events.Drain()
	require.Equal(t, 1, countEvents[ChangeEvent](events), "Второй вызов ничего не меняет")
	assert.Equal(t, ChangeEvent{X: 1, Y: 1, Prev: w.blocks.Air()}, events[0])
}

func TestSetBigBlockClearsState(t *testing.T) {
	w := newTestWorld(t, 5, 5)
	b := w.blocks
	require.NoError(t, b.SetBlock(w.events, 2, 2, w.stone))
	require.NoError(t, b.SetData(2, 2, []byte{1, 2, 3}))
	require.NoError(t, b.StartBreaking(w.events, 2, 2, NoTool, 0))
	require.NoError(t, b.UpdateBreaking(w.events, 30))

	require.NoError(t, b.SetBlock(w.events, 2, 2, w.chest))

	data, err := b.Data(2, 2)
	require.NoError(t, err)
	assert.Empty(t, data, "Дополнительные данные очищены")
	progress, err := b.BreakProgress(2, 2)
	require.NoError(t, err)
	assert.Zero(t, progress, "Ломание сброшено")
	inv, err := b.Inventory(2, 2)
	require.NoError(t, err)
	assert.Equal(t, world.NewSlots(3), inv, "Инвентарь пересоздан по размеру типа")
}

func TestUnknownBlockType(t *testing.T) {
	w := newTestWorld(t, 3, 3)
	err := w.blocks.SetBlock(w.events, 0, 0, ID(100))
	assert.True(t, errors.Is(err, world.ErrUnknownBlockType))
	_, err = w.blocks.Registry().Get(ID(-1))
	assert.ErrorIs(t, err, world.ErrUnknownBlockType)
}

func TestCreateFromIDs(t *testing.T) {
	w := newTestWorld(t, 1, 1)
	air := w.blocks.Air()
	grid := [][]ID{
		{air, w.stone, w.stone},
		{air, air, w.stone},
	}
	require.NoError(t, w.blocks.CreateFromIDs(grid))
	assert.Equal(t, uint32(2), w.blocks.Width())
	assert.Equal(t, uint32(3), w.blocks.Height())

	id, err := w.blocks.Block(1, 2)
	require.NoError(t, err)
	assert.Equal(t, w.stone, id, "grid[x][y]")
	id, err = w.blocks.Block(1, 1)
	require.NoError(t, err)
	assert.Equal(t, air, id)

	err = w.blocks.CreateFromIDs([][]ID{{air, air}, {air}})
	assert.ErrorIs(t, err, world.ErrShapeMismatch, "Неровные столбцы")
	err = w.blocks.CreateFromIDs(nil)
	assert.ErrorIs(t, err, world.ErrShapeMismatch, "Пустая сетка")
	assert.Equal(t, uint32(2), w.blocks.Width(), "Неудачная загрузка не меняет сетку")
}

func TestBenchStampsAndCollapses(t *testing.T) {
	w := newTestWorld(t, 10, 10)
	b := w.blocks

	require.NoError(t, b.SetBigBlock(w.events, 0, 0, w.bench, vec.Zero))
	require.NoError(t, b.UpdateMulticell(w.events, 0, 0))

	id, err := b.Block(1, 0)
	require.NoError(t, err)
	assert.Equal(t, w.bench, id, "Вторая клетка верстака достроена")
	fm, err := b.FromMain(1, 0)
	require.NoError(t, err)
	assert.Equal(t, vec.New(1, 0), fm)
	w.events.Drain()

	require.NoError(t, b.SetBlock(w.events, 0, 0, b.Air()))
	require.NoError(t, b.UpdateMulticell(w.events, 1, 0))
	id, err = b.Block(1, 0)
	require.NoError(t, err)
	assert.Equal(t, b.Air(), id, "Осиротевшая клетка становится воздухом")
}

func TestBigBlockCascade(t *testing.T) {
	w := newTestWorld(t, 10, 10)
	b := w.blocks

	require.NoError(t, b.SetBlock(w.events, 3, 3, w.chest))
	w.settle(t)

	for _, c := range []vec.Vec2{{X: 3, Y: 3}, {X: 4, Y: 3}, {X: 3, Y: 4}, {X: 4, Y: 4}} {
		id, err := b.Block(c.X, c.Y)
		require.NoError(t, err)
		assert.Equal(t, w.chest, id, "Клетка %v занята сундуком", c)
		fm, err := b.FromMain(c.X, c.Y)
		require.NoError(t, err)
		assert.Equal(t, c.Sub(vec.New(3, 3)), fm, "Смещение клетки %v", c)
	}
	size, err := b.InventorySize(4, 4)
	require.NoError(t, err)
	assert.Zero(t, size, "Неглавные клетки без инвентаря")
	size, err = b.InventorySize(3, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, size)

	require.NoError(t, b.SetBlock(w.events, 3, 3, b.Air()))
	w.settle(t)

	for _, c := range []vec.Vec2{{X: 3, Y: 3}, {X: 4, Y: 3}, {X: 3, Y: 4}, {X: 4, Y: 4}} {
		id, err := b.Block(c.X, c.Y)
		require.NoError(t, err)
		assert.Equal(t, b.Air(), id, "Клетка %v осыпалась", c)
	}
}

func TestBreakBlockResolvesMainCell(t *testing.T) {
	w := newTestWorld(t, 10, 10)
	b := w.blocks
	require.NoError(t, b.SetBlock(w.events, 5, 5, w.chest))
	w.settle(t)

	require.NoError(t, b.BreakBlock(w.events, 6, 6))
	events := w.settle(t)
	require.NotEmpty(t, events)
	assert.Equal(t, BreakEvent{X: 5, Y: 5, Prev: w.chest}, events[0], "Событие в главной клетке")

	for _, c := range []vec.Vec2{{X: 5, Y: 5}, {X: 6, Y: 5}, {X: 5, Y: 6}, {X: 6, Y: 6}} {
		id, err := b.Block(c.X, c.Y)
		require.NoError(t, err)
		assert.Equal(t, b.Air(), id)
	}
}

func TestInventorySizeMismatchAndIdempotence(t *testing.T) {
	w := newTestWorld(t, 5, 5)
	b := w.blocks
	require.NoError(t, b.SetBlock(w.events, 1, 1, w.chest))
	w.events.Drain()

	err := b.SetInventory(w.events, 1, 1, world.NewSlots(2))
	assert.ErrorIs(t, err, world.ErrSizeMismatch)

	inv := world.Slots{world.NewItemStack(7, 3), nil, nil}
	require.NoError(t, b.SetInventory(w.events, 1, 1, inv))
	require.NoError(t, b.SetInventory(w.events, 1, 1, inv.Clone()))
	events := w.events.Drain()
	assert.Equal(t, 1, countEvents[InventoryChangeEvent](events), "Одинаковая запись порождает одно событие")

	inv[0].Count = 99
	got, err := b.Inventory(1, 1)
	require.NoError(t, err)
	assert.Equal(t, int32(3), got[0].Count, "Инвентарь хранится копией")

	require.NoError(t, b.SetInventory(w.events, 0, 0, nil), "Блок без слотов принимает пустой инвентарь")
}

func TestPlace(t *testing.T) {
	w := newTestWorld(t, 10, 10)
	b := w.blocks

	ok, err := b.Place(w.events, 2, 5, w.chest)
	require.NoError(t, err)
	require.True(t, ok)
	w.settle(t)

	id, err := b.Block(2, 4)
	require.NoError(t, err)
	assert.Equal(t, w.chest, id, "Якорь на y - height + 1")
	fm, err := b.FromMain(3, 5)
	require.NoError(t, err)
	assert.Equal(t, vec.New(1, 1), fm)

	ok, err = b.Place(w.events, 3, 5, w.stone)
	require.NoError(t, err)
	assert.False(t, ok, "Нельзя ставить в занятую клетку")

	_, err = b.Place(w.events, 9, 0, w.chest)
	assert.ErrorIs(t, err, world.ErrOutOfBounds, "Область выходит за мир")
}
