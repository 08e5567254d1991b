package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/sandbox-world/internal/content"
	"github.com/annel0/sandbox-world/internal/protocol"
	"github.com/annel0/sandbox-world/internal/vec"
	"github.com/annel0/sandbox-world/internal/world"
)

// newPair возвращает "серверную" и клиентскую реплики с одинаковым контентом
func newPair(t *testing.T) (*Replica, *Replica, *content.Base) {
	t.Helper()
	base := content.New(1)
	server, err := NewReplica(base)
	require.NoError(t, err)
	server.Blocks.Create(16, 16)
	server.Walls.Create(16, 16)

	local, err := NewReplica(content.New(1))
	require.NoError(t, err)
	return server, local, base
}

func welcome(t *testing.T, server, local *Replica) {
	t.Helper()
	assert.False(t, local.Ready())
	require.NoError(t, local.Apply(&protocol.BlocksWelcome{Data: server.Blocks.Serialize()}))
	assert.False(t, local.Ready(), "нужны оба снимка")
	require.NoError(t, local.Apply(&protocol.WallsWelcome{Data: server.Walls.Serialize()}))
	assert.True(t, local.Ready())
}

func TestReplicaWelcome(t *testing.T) {
	server, local, base := newPair(t)
	require.NoError(t, server.Blocks.SetBlock(server.events, 2, 2, base.Blocks.Stone))
	require.NoError(t, server.Walls.SetWall(server.events, 3, 3, base.Walls.Dirt))

	welcome(t, server, local)
	id, err := local.Blocks.Block(2, 2)
	require.NoError(t, err)
	assert.Equal(t, base.Blocks.Stone, id)
	wid, err := local.Walls.Wall(3, 3)
	require.NoError(t, err)
	assert.Equal(t, base.Walls.Dirt, wid)
}

func TestReplicaBlockChangeWithInventory(t *testing.T) {
	server, local, base := newPair(t)
	welcome(t, server, local)

	inv := world.NewSlots(20)
	inv[0] = world.NewItemStack(1, 5)
	require.NoError(t, local.Apply(&protocol.BlockChange{X: 3, Y: 3, Block: base.Blocks.Chest, Inventory: inv}))
	require.NoError(t, local.Apply(&protocol.BlockChange{X: 4, Y: 3, FromMainX: 1, Block: base.Blocks.Chest}))

	id, err := local.Blocks.Block(4, 3)
	require.NoError(t, err)
	assert.Equal(t, base.Blocks.Chest, id)
	fm, err := local.Blocks.FromMain(4, 3)
	require.NoError(t, err)
	assert.Equal(t, vec.New(1, 0), fm)

	got, err := local.Blocks.Inventory(3, 3)
	require.NoError(t, err)
	assert.True(t, got.Equal(inv))
	assert.NotEmpty(t, local.Events(), "изменения видны как локальные события")

	// Обратно в воздух без инвентаря
	require.NoError(t, local.Apply(&protocol.BlockChange{X: 3, Y: 3, Block: base.Blocks.Air}))
	id, _ = local.Blocks.Block(3, 3)
	assert.Equal(t, base.Blocks.Air, id)
}

func TestReplicaBreakingIsCappedLocally(t *testing.T) {
	server, local, base := newPair(t)
	require.NoError(t, server.Blocks.SetBlock(server.events, 5, 5, base.Blocks.Stone))
	welcome(t, server, local)

	require.NoError(t, local.Apply(&protocol.BlockBreakStart{X: 5, Y: 5, Tool: base.Tools.Pickaxe, ToolPower: 2}))
	require.NoError(t, local.Tick(300))
	progress, err := local.Blocks.BreakProgress(5, 5)
	require.NoError(t, err)
	assert.Equal(t, int32(300), progress)

	require.NoError(t, local.Tick(5000))
	progress, _ = local.Blocks.BreakProgress(5, 5)
	assert.Equal(t, int32(1000), progress, "прогресс упирается во время ломания")
	id, _ := local.Blocks.Block(5, 5)
	assert.Equal(t, base.Blocks.Stone, id, "блок ломает только сервер")

	require.NoError(t, local.Apply(&protocol.BlockBreakStop{X: 5, Y: 5, BreakTime: 420}))
	require.NoError(t, local.Tick(100))
	progress, _ = local.Blocks.BreakProgress(5, 5)
	assert.Equal(t, int32(420), progress, "после остановки прогресс берётся с сервера")
}

func TestReplicaWalls(t *testing.T) {
	server, local, base := newPair(t)
	welcome(t, server, local)

	require.NoError(t, local.Apply(&protocol.WallChange{X: 1, Y: 1, Wall: base.Walls.Stone}))
	require.NoError(t, local.Apply(&protocol.WallBreakStart{X: 1, Y: 1}))
	require.NoError(t, local.Tick(2000))
	progress, err := local.Walls.BreakProgress(1, 1)
	require.NoError(t, err)
	assert.Equal(t, int32(900), progress)

	require.NoError(t, local.Apply(&protocol.WallBreakStop{X: 1, Y: 1, BreakTime: 50}))
	progress, _ = local.Walls.BreakProgress(1, 1)
	assert.Equal(t, int32(50), progress)
}

func TestReplicaInventoryAndUnexpectedPacket(t *testing.T) {
	_, local, _ := newPair(t)
	slots := world.NewSlots(4)
	slots[1] = world.NewItemStack(7, 3)

	require.NoError(t, local.Apply(&protocol.PlayerInventory{Slots: slots, Selected: 1}))
	require.NotNil(t, local.SelectedStack())
	assert.Equal(t, int32(3), local.SelectedStack().Count)

	local.Selected = 9
	assert.Nil(t, local.SelectedStack())

	err := local.Apply(&protocol.ClientBlockBreakStart{X: 1, Y: 1})
	assert.ErrorIs(t, err, protocol.ErrUnknownPacket)
}
