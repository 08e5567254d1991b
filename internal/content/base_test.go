package content

import (
	"testing"

	"github.com/annel0/sandbox-world/internal/modhost"
	"github.com/annel0/sandbox-world/internal/world"
	"github.com/annel0/sandbox-world/internal/world/block"
	"github.com/annel0/sandbox-world/internal/world/item"
	"github.com/annel0/sandbox-world/internal/world/wall"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testWorld struct {
	base   *Base
	host   *modhost.Host
	blocks *block.Blocks
	items  *item.Registry
	events *world.EventQueue
}

func newTestWorld(t *testing.T) *testWorld {
	t.Helper()
	blocks := block.New()
	blocks.Create(16, 16)
	walls := wall.New()
	walls.Create(16, 16)
	items := item.NewRegistry()
	relay := &modhost.Relay{}

	host := modhost.NewHost(modhost.NewAPI(blocks, walls, items, relay), relay)
	base := New(1)
	require.NoError(t, host.Load(base))

	return &testWorld{base: base, host: host, blocks: blocks, items: items, events: world.NewEventQueue()}
}

// run раздаёт события модам, пока они порождают новые
func (w *testWorld) run(t *testing.T) {
	t.Helper()
	for i := 0; i < 1000; i++ {
		w.host.Relay().Flush(w.events)
		e, ok := w.events.Pop()
		if !ok {
			return
		}
		require.NoError(t, w.host.Dispatch(e))
	}
	t.Fatal("события не иссякли")
}

func (w *testWorld) set(t *testing.T, x, y int32, id block.ID) {
	t.Helper()
	require.NoError(t, w.blocks.SetBlock(w.events, x, y, id))
}

func (w *testWorld) at(t *testing.T, x, y int32) block.ID {
	t.Helper()
	id, err := w.blocks.Block(x, y)
	require.NoError(t, err)
	return id
}

func TestRegistration(t *testing.T) {
	w := newTestWorld(t)
	b := w.base.Blocks

	chest, err := w.blocks.Registry().Get(b.Chest)
	require.NoError(t, err)
	assert.Equal(t, int32(2), chest.Width)
	assert.Len(t, chest.InventorySlots, 20)

	dirt, err := w.blocks.Registry().Get(b.Dirt)
	require.NoError(t, err)
	assert.True(t, dirt.ConnectsWith(b.Grass), "земля соединяется с травой")

	stone, err := w.blocks.Registry().Get(b.Stone)
	require.NoError(t, err)
	assert.Equal(t, w.base.Tools.Pickaxe, stone.EffectiveTool)

	for _, name := range []string{"copper_pickaxe", "copper_axe", "wood", "torch", "stone_wall"} {
		_, err := w.items.IDByName(name)
		assert.NoError(t, err, name)
	}

	pick, err := w.items.IDByName("copper_pickaxe")
	require.NoError(t, err)
	tool, power := w.items.ToolOf(world.NewItemStack(pick, 1))
	assert.Equal(t, w.base.Tools.Pickaxe, tool)
	assert.True(t, stone.AcceptsTool(tool, power))
}

func TestGrassUnderBlockTurnsToDirt(t *testing.T) {
	w := newTestWorld(t)
	b := w.base.Blocks
	w.set(t, 5, 6, b.Grass)
	w.set(t, 5, 5, b.Stone)

	require.NoError(t, w.base.OnBlockRandomTick(w.host.API(), 5, 6))
	w.run(t)
	assert.Equal(t, b.Dirt, w.at(t, 5, 6))
}

func TestGrassSpreadsToOpenDirt(t *testing.T) {
	w := newTestWorld(t)
	b := w.base.Blocks
	for x := int32(4); x <= 6; x++ {
		w.set(t, x, 10, b.Dirt)
	}
	w.set(t, 5, 10, b.Grass)

	for i := 0; i < 20000 && w.at(t, 4, 10) == b.Dirt && w.at(t, 6, 10) == b.Dirt; i++ {
		require.NoError(t, w.base.OnBlockRandomTick(w.host.API(), 5, 10))
	}
	w.run(t)

	spread := w.at(t, 4, 10) == b.Grass || w.at(t, 6, 10) == b.Grass
	assert.True(t, spread, "трава разрослась на соседнюю землю")
}

func TestCactusNeedsSupport(t *testing.T) {
	w := newTestWorld(t)
	b := w.base.Blocks
	w.set(t, 3, 11, b.Sand)
	w.set(t, 3, 10, b.Cactus)
	w.set(t, 3, 9, b.Cactus)
	w.run(t)

	require.NoError(t, w.base.OnBlockUpdate(w.host.API(), 3, 9))
	w.run(t)
	assert.Equal(t, b.Cactus, w.at(t, 3, 9), "кактус на кактусе держится")

	w.set(t, 3, 11, b.Air)
	require.NoError(t, w.base.OnBlockUpdate(w.host.API(), 3, 10))
	w.run(t)
	assert.Equal(t, b.Air, w.at(t, 3, 10), "кактус без песка ломается")
}

func TestTreeFelling(t *testing.T) {
	w := newTestWorld(t)
	b := w.base.Blocks
	for y := int32(8); y <= 12; y++ {
		w.set(t, 7, y, b.Tree)
	}
	w.run(t)

	require.NoError(t, w.host.API().BreakBlock(7, 11))
	w.run(t)

	for y := int32(8); y <= 11; y++ {
		assert.Equal(t, b.Air, w.at(t, 7, y), "ствол выше сломанного сегмента падает")
	}
	assert.Equal(t, b.Tree, w.at(t, 7, 12), "нижний сегмент остаётся")
}
