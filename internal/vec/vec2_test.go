package vec

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVec2Arithmetic(t *testing.T) {
	a := New(3, 5)
	b := New(1, 2)

	assert.Equal(t, New(4, 7), a.Add(b), "Сложение векторов")
	assert.Equal(t, New(2, 3), a.Sub(b), "Вычитание векторов")
	assert.True(t, Zero.IsZero(), "Нулевой вектор")
	assert.False(t, a.IsZero(), "Ненулевой вектор")
}

func TestVec2Chunks(t *testing.T) {
	v := New(35, 17)
	assert.Equal(t, New(2, 1), v.ToChunkCoords(), "Координаты чанка")
	assert.Equal(t, New(3, 1), v.LocalInChunk(), "Локальные координаты в чанке")
}

func TestVec2Neighbors(t *testing.T) {
	n := New(5, 5).Neighbors4()
	assert.ElementsMatch(t, []Vec2{{4, 5}, {6, 5}, {5, 4}, {5, 6}}, n[:], "Четыре соседа")
	assert.InDelta(t, 5.0, New(0, 0).DistanceTo(New(3, 4)), 1e-9, "Расстояние")
}
