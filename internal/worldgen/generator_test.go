package worldgen

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPalette() Palette {
	return Palette{
		Air: 0, Dirt: 1, Grass: 2, Stone: 3, Sand: 4, Ore: 5, Cactus: 6, Tree: 7,
		ClearWall: 0, DirtWall: 1, StoneWall: 2,
	}
}

func TestGenerateShapeAndProgress(t *testing.T) {
	g := New(99, testPalette())

	var reports []int
	g.OnProgress(func(p int) { reports = append(reports, p) })

	res, err := g.Generate(context.Background(), 64, 48)
	require.NoError(t, err)
	require.Len(t, res.Blocks, 64)
	require.Len(t, res.Walls, 64)
	for x := range res.Blocks {
		require.Len(t, res.Blocks[x], 48)
		require.Len(t, res.Walls[x], 48)
	}

	require.NotEmpty(t, reports)
	assert.Equal(t, 100, reports[len(reports)-1], "последний отчёт - 100%")
	for i := 1; i < len(reports); i++ {
		assert.Greater(t, reports[i], reports[i-1], "прогресс строго растёт")
	}
}

func TestGenerateDeterministic(t *testing.T) {
	a, err := New(5, testPalette()).Generate(context.Background(), 40, 32)
	require.NoError(t, err)
	b, err := New(5, testPalette()).Generate(context.Background(), 40, 32)
	require.NoError(t, err)
	assert.Equal(t, a, b, "одинаковый сид даёт одинаковый мир")
}

func TestGenerateLayers(t *testing.T) {
	p := testPalette()
	res, err := New(1, p).Generate(context.Background(), 32, 64)
	require.NoError(t, err)

	for x := range res.Blocks {
		assert.Equal(t, p.Air, res.Blocks[x][0], "верхняя строка - воздух")
		assert.Equal(t, p.ClearWall, res.Walls[x][0])

		bottom := res.Walls[x][63]
		assert.Equal(t, p.StoneWall, bottom, "глубоко под землёй каменные стены")
	}
}

func TestGenerateCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(1, testPalette()).Generate(ctx, 32, 32)
	assert.ErrorIs(t, err, context.Canceled)

	_, err = New(1, testPalette()).Generate(context.Background(), 8, 8)
	assert.ErrorIs(t, err, ErrTooSmall)
}
