package block

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/sandbox-world/internal/world"
)

func TestBreakingScenario(t *testing.T) {
	w := newTestWorld(t, 10, 10)
	b := w.blocks
	require.NoError(t, b.SetBlock(w.events, 3, 3, w.stone))
	w.events.Drain()

	require.NoError(t, b.StartBreaking(w.events, 3, 3, NoTool, 0))
	require.NoError(t, b.UpdateBreaking(w.events, 50))

	progress, err := b.BreakProgress(3, 3)
	require.NoError(t, err)
	assert.Equal(t, int32(50), progress)
	id, _ := b.Block(3, 3)
	assert.Equal(t, w.stone, id, "Камень ещё цел")
	stage, err := b.BreakStage(3, 3)
	require.NoError(t, err)
	assert.Equal(t, int32(4), stage)

	require.NoError(t, b.UpdateBreaking(w.events, 60))
	progress, err = b.BreakProgress(3, 3)
	require.NoError(t, err)
	assert.Zero(t, progress, "Запись удалена после разрушения")
	id, _ = b.Block(3, 3)
	assert.Equal(t, b.Air(), id, "Камень сломан")
	assert.Empty(t, b.BreakingBlocks())

	events := w.events.Drain()
	assert.Equal(t, 1, countEvents[StartedBreakingEvent](events))
	assert.Equal(t, 1, countEvents[BreakEvent](events))
	assert.Equal(t, 1, countEvents[ChangeEvent](events))
}

func TestBreakingExactThresholdDoesNotBreak(t *testing.T) {
	w := newTestWorld(t, 5, 5)
	b := w.blocks
	require.NoError(t, b.SetBlock(w.events, 1, 1, w.stone))
	require.NoError(t, b.StartBreaking(w.events, 1, 1, NoTool, 0))
	require.NoError(t, b.UpdateBreaking(w.events, 100))

	id, _ := b.Block(1, 1)
	assert.Equal(t, w.stone, id, "progress == break_time ещё не ломает")
	require.NoError(t, b.UpdateBreaking(w.events, 1))
	id, _ = b.Block(1, 1)
	assert.Equal(t, b.Air(), id)
}

func TestUnbreakableIsNoop(t *testing.T) {
	w := newTestWorld(t, 5, 5)
	b := w.blocks
	bedrock, err := b.Registry().Register(Type{Name: "bedrock", BreakTime: Unbreakable})
	require.NoError(t, err)
	require.NoError(t, b.SetBlock(w.events, 0, 0, bedrock))
	w.events.Drain()

	require.NoError(t, b.StartBreaking(w.events, 0, 0, NoTool, 0))
	assert.Empty(t, b.BreakingBlocks(), "Запись не создана")
	assert.Zero(t, w.events.Len(), "Событий нет")

	require.NoError(t, b.StartBreaking(w.events, 1, 1, NoTool, 0))
	assert.Empty(t, b.BreakingBlocks(), "Воздух тоже не ломается")
}

func TestZeroBreakTimeBreaksOnFirstTick(t *testing.T) {
	w := newTestWorld(t, 5, 5)
	b := w.blocks
	leaves, err := b.Registry().Register(Type{Name: "leaves"})
	require.NoError(t, err)
	require.NoError(t, b.SetBlock(w.events, 2, 2, leaves))

	typ, err := b.Registry().Get(leaves)
	require.NoError(t, err)
	assert.True(t, typ.Breakable(), "BreakTime по умолчанию не делает блок неломаемым")

	require.NoError(t, b.StartBreaking(w.events, 2, 2, NoTool, 0))
	require.NoError(t, b.UpdateBreaking(w.events, 0))
	id, _ := b.Block(2, 2)
	assert.Equal(t, leaves, id, "нулевой кадр прогресса не добавляет")

	require.NoError(t, b.UpdateBreaking(w.events, 1))
	id, _ = b.Block(2, 2)
	assert.Equal(t, b.Air(), id, "первый же ненулевой тик ломает блок")
}

func TestPauseAndResume(t *testing.T) {
	w := newTestWorld(t, 5, 5)
	b := w.blocks
	require.NoError(t, b.SetBlock(w.events, 2, 2, w.stone))

	require.NoError(t, b.StartBreaking(w.events, 2, 2, NoTool, 0))
	require.NoError(t, b.UpdateBreaking(w.events, 30))
	require.NoError(t, b.StopBreaking(w.events, 2, 2))
	require.NoError(t, b.UpdateBreaking(w.events, 500))

	progress, _ := b.BreakProgress(2, 2)
	assert.Equal(t, int32(30), progress, "Пауза сохраняет прогресс")
	id, _ := b.Block(2, 2)
	assert.Equal(t, w.stone, id)

	require.NoError(t, b.StartBreaking(w.events, 2, 2, NoTool, 0))
	require.NoError(t, b.UpdateBreaking(w.events, 20))
	progress, _ = b.BreakProgress(2, 2)
	assert.Equal(t, int32(50), progress, "Возобновление с сохранённого прогресса")

	events := w.events.Drain()
	assert.Equal(t, 1, countEvents[StoppedBreakingEvent](events))
	assert.Equal(t, 2, countEvents[StartedBreakingEvent](events))

	require.NoError(t, b.StopBreaking(w.events, 4, 4))
	assert.Zero(t, w.events.Len(), "Остановка без записи не порождает событий")
}

func TestToolGating(t *testing.T) {
	w := newTestWorld(t, 5, 5)
	b := w.blocks
	r := b.Registry()
	axe, err := r.RegisterTool("axe")
	require.NoError(t, err)
	ore, err := r.Register(Type{Name: "iron_ore", BreakTime: 200, EffectiveTool: w.pickaxe, RequiredToolPower: 2})
	require.NoError(t, err)
	require.NoError(t, b.SetBlock(w.events, 1, 1, ore))
	w.events.Drain()

	require.NoError(t, b.StartBreaking(w.events, 1, 1, NoTool, 5))
	require.NoError(t, b.StartBreaking(w.events, 1, 1, axe, 5))
	require.NoError(t, b.StartBreaking(w.events, 1, 1, w.pickaxe, 1))
	assert.Empty(t, b.BreakingBlocks(), "Неподходящий инструмент или сила")
	assert.Zero(t, w.events.Len(), "Отказ без событий")

	require.NoError(t, b.StartBreaking(w.events, 1, 1, w.pickaxe, 2))
	require.Len(t, b.BreakingBlocks(), 1)
	e, ok := w.events.Pop()
	require.True(t, ok)
	assert.Equal(t, StartedBreakingEvent{X: 1, Y: 1, Tool: w.pickaxe, ToolPower: 2}, e)
}

func TestMultipleBreaksInOneTick(t *testing.T) {
	w := newTestWorld(t, 5, 5)
	b := w.blocks
	for x := int32(0); x < 3; x++ {
		require.NoError(t, b.SetBlock(w.events, x, 0, w.stone))
		require.NoError(t, b.StartBreaking(w.events, x, 0, NoTool, 0))
	}
	require.NoError(t, b.UpdateBreaking(w.events, 101))
	for x := int32(0); x < 3; x++ {
		id, _ := b.Block(x, 0)
		assert.Equal(t, b.Air(), id, "Блок %d сломан", x)
	}
}

func TestBreakingBigBlockFromSideCell(t *testing.T) {
	w := newTestWorld(t, 6, 6)
	b := w.blocks
	require.NoError(t, b.SetBlock(w.events, 0, 0, w.bench))
	w.settle(t)

	require.NoError(t, b.StartBreaking(w.events, 1, 0, NoTool, 0))
	require.NoError(t, b.UpdateBreaking(w.events, 51))
	w.settle(t)

	for x := int32(0); x < 2; x++ {
		id, _ := b.Block(x, 0)
		assert.Equal(t, b.Air(), id)
	}
	assert.Empty(t, b.BreakingBlocks())
}

func TestSetBreakProgress(t *testing.T) {
	w := newTestWorld(t, 5, 5)
	b := w.blocks
	require.NoError(t, b.SetBlock(w.events, 1, 1, w.stone))
	require.NoError(t, b.SetBreakProgress(1, 1, 75))

	entries := b.BreakingBlocks()
	require.Len(t, entries, 1)
	assert.False(t, entries[0].Breaking, "Новая запись приостановлена")
	stage, _ := b.BreakStage(1, 1)
	assert.Equal(t, int32(6), stage)
	assert.ErrorIs(t, b.SetBreakProgress(9, 9, 1), world.ErrOutOfBounds)
}
