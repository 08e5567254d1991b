package modhost

import (
	"errors"
	"testing"

	"github.com/annel0/sandbox-world/internal/world"
	"github.com/annel0/sandbox-world/internal/world/block"
	"github.com/annel0/sandbox-world/internal/world/item"
	"github.com/annel0/sandbox-world/internal/world/wall"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingMod struct {
	stone  block.ID
	chest  block.ID
	broken [][2]int32
	ticks  int
	fail   bool
}

func (m *recordingMod) Name() string { return "recording" }

func (m *recordingMod) Init(api *API) error {
	var err error
	if m.stone, err = api.RegisterBlockType(block.Type{Name: "stone", BreakTime: 100}); err != nil {
		return err
	}
	m.chest, err = api.RegisterBlockType(block.Type{Name: "chest", BreakTime: 50, InventorySlots: make([]block.SlotPos, 2)})
	return err
}

func (m *recordingMod) OnBlockBreak(api *API, x, y int32, prev block.ID) error {
	if m.fail {
		return errors.New("сбой мода")
	}
	m.broken = append(m.broken, [2]int32{x, y})
	// сломанный камень оставляет под собой сундук
	if prev == m.stone {
		return api.SetBlock(x, y, m.chest)
	}
	return nil
}

func (m *recordingMod) OnBlockRandomTick(api *API, x, y int32) error {
	m.ticks++
	return nil
}

func newTestHost(t *testing.T) (*Host, *recordingMod, *block.Blocks) {
	t.Helper()
	blocks := block.New()
	blocks.Create(8, 8)
	walls := wall.New()
	walls.Create(8, 8)
	items := item.NewRegistry()
	_, err := items.Register(item.Type{Name: "gem"})
	require.NoError(t, err)

	relay := &Relay{}
	h := NewHost(NewAPI(blocks, walls, items, relay), relay)
	mod := &recordingMod{}
	require.NoError(t, h.Load(mod))
	return h, mod, blocks
}

func TestDispatchBreakRelaysModChanges(t *testing.T) {
	h, mod, blocks := newTestHost(t)
	assert.Equal(t, []string{"recording"}, h.Mods())

	require.NoError(t, h.Dispatch(block.BreakEvent{X: 2, Y: 3, Prev: mod.stone}))
	assert.Equal(t, [][2]int32{{2, 3}}, mod.broken)

	id, err := blocks.Block(2, 3)
	require.NoError(t, err)
	assert.Equal(t, mod.chest, id, "мод поставил сундук")

	q := world.NewEventQueue()
	assert.Equal(t, 1, h.Relay().Flush(q))
	ev, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, block.ChangeEvent{X: 2, Y: 3, Prev: blocks.Air()}, ev)
	assert.Equal(t, 0, h.Relay().Len())
}

func TestDispatchErrorsAndUnlistenedEvents(t *testing.T) {
	h, mod, _ := newTestHost(t)

	require.NoError(t, h.Dispatch(block.UpdateEvent{X: 1, Y: 1}), "обработчика нет, событие игнорируется")
	require.NoError(t, h.Dispatch(block.RandomTickEvent{X: 1, Y: 1}))
	assert.Equal(t, 1, mod.ticks)

	mod.fail = true
	assert.Error(t, h.Dispatch(block.BreakEvent{X: 0, Y: 0, Prev: mod.stone}))
}

func TestBlockInventoryFunctions(t *testing.T) {
	h, mod, blocks := newTestHost(t)
	api := h.API()
	q := world.NewEventQueue()
	require.NoError(t, blocks.SetBlock(q, 4, 4, mod.chest))

	gem, err := api.ItemIDByName("gem")
	require.NoError(t, err)

	require.NoError(t, api.SetBlockInventoryItem(4, 4, 1, gem, 5))
	assert.ErrorIs(t, api.SetBlockInventoryItem(4, 4, 2, gem, 1), world.ErrOutOfBounds)
	assert.ErrorIs(t, api.SetBlockInventoryItem(4, 4, 0, 42, 1), world.ErrUnknownItem)

	items, err := api.BlockInventoryItems(4, 4)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Nil(t, items[0])
	assert.Equal(t, gem, *items[1])

	counts, err := api.BlockInventoryItemCounts(4, 4)
	require.NoError(t, err)
	assert.Nil(t, counts[0])
	assert.Equal(t, int32(5), *counts[1])

	require.NoError(t, api.SetBlockInventoryItem(4, 4, 1, gem, 0))
	counts, err = api.BlockInventoryItemCounts(4, 4)
	require.NoError(t, err)
	assert.Nil(t, counts[1], "нулевое количество очищает слот")
}

func TestWallFunctions(t *testing.T) {
	h, _, _ := newTestHost(t)
	api := h.API()

	brick, err := api.RegisterWallType("brick", 40)
	require.NoError(t, err)
	got, err := api.WallIDByName("brick")
	require.NoError(t, err)
	assert.Equal(t, brick, got)

	require.NoError(t, api.SetWall(1, 1, brick))
	w, err := api.Wall(1, 1)
	require.NoError(t, err)
	assert.Equal(t, brick, w)

	_, err = api.WallIDByName("glass")
	assert.ErrorIs(t, err, world.ErrNotFound)
}
