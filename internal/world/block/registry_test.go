package block

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/sandbox-world/internal/world"
)

func TestRegistryAirFirst(t *testing.T) {
	r := NewRegistry()
	require.Equal(t, 1, r.Len(), "Воздух зарегистрирован при создании")
	air, err := r.Get(r.Air())
	require.NoError(t, err)
	assert.Equal(t, AirName, air.Name)
	assert.True(t, air.Ghost)
	assert.True(t, air.Transparent)
	assert.False(t, air.Breakable())
}

func TestRegistrySequentialIDs(t *testing.T) {
	r := NewRegistry()
	a, err := r.Register(Type{Name: "dirt", BreakTime: 10})
	require.NoError(t, err)
	b, err := r.Register(Type{Name: "stone", BreakTime: 20})
	require.NoError(t, err)
	assert.Equal(t, ID(1), a)
	assert.Equal(t, ID(2), b)
	assert.Equal(t, []ID{0, 1, 2}, r.IDs())

	typ, err := r.Get(a)
	require.NoError(t, err)
	assert.Equal(t, int32(1), typ.Width, "Размер по умолчанию 1x1")
	assert.Equal(t, int32(1), typ.Height)

	id, err := r.IDByName("stone")
	require.NoError(t, err)
	assert.Equal(t, b, id)
	_, err = r.IDByName("lava")
	assert.ErrorIs(t, err, world.ErrNotFound)

	_, err = r.Register(Type{Name: "dirt"})
	assert.Error(t, err, "Имя уникально")
}

func TestRegistryCeiling(t *testing.T) {
	r := NewRegistry()
	for i := 1; i < MaxTypes; i++ {
		_, err := r.Register(Type{Name: "t" + string(rune('A'+i%26)) + string(rune('a'+i/26))})
		require.NoError(t, err)
	}
	_, err := r.Register(Type{Name: "overflow"})
	assert.ErrorIs(t, err, world.ErrRegistryFull)
	assert.Equal(t, MaxTypes, r.Len())
}

func TestRegistryConnect(t *testing.T) {
	r := NewRegistry()
	a, _ := r.Register(Type{Name: "fence"})
	b, _ := r.Register(Type{Name: "gate"})

	require.NoError(t, r.Connect(a, b))
	require.NoError(t, r.Connect(a, b))
	ta, _ := r.Get(a)
	tb, _ := r.Get(b)
	assert.Equal(t, []ID{b}, ta.ConnectsTo, "Соединение без дублей")
	assert.Equal(t, []ID{a}, tb.ConnectsTo, "Соединение симметрично")

	ta.ConnectsTo[0] = 0
	again, _ := r.Get(a)
	assert.Equal(t, b, again.ConnectsTo[0], "Get возвращает копию")

	assert.ErrorIs(t, r.Connect(a, ID(50)), world.ErrUnknownBlockType)
}

func TestRegistryTools(t *testing.T) {
	r := NewRegistry()
	pick, err := r.RegisterTool("pickaxe")
	require.NoError(t, err)
	assert.Equal(t, ToolID(1), pick, "Инструменты нумеруются с 1")

	id, err := r.ToolIDByName("pickaxe")
	require.NoError(t, err)
	assert.Equal(t, pick, id)
	_, err = r.Tool(ToolID(9))
	assert.ErrorIs(t, err, world.ErrUnknownTool)

	_, err = r.Register(Type{Name: "ore", EffectiveTool: ToolID(9)})
	assert.ErrorIs(t, err, world.ErrUnknownTool, "Неизвестный инструмент отклоняется")
	assert.Len(t, r.Tools(), 1)
}
