package world

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslateCoords(t *testing.T) {
	m := NewWorldMap(10, 20)

	idx, err := m.TranslateCoords(0, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, idx, "Начало координат")

	idx, err = m.TranslateCoords(3, 7)
	require.NoError(t, err)
	assert.Equal(t, 3*20+7, idx, "Индекс должен быть x*height+y")

	idx, err = m.TranslateCoords(9, 19)
	require.NoError(t, err)
	assert.Equal(t, m.Cells()-1, idx, "Последняя клетка")
}

func TestTranslateCoordsOutOfBounds(t *testing.T) {
	m := NewWorldMap(10, 20)
	cases := [][2]int32{{-1, 0}, {0, -1}, {10, 0}, {0, 20}, {-5, 100}}
	for _, c := range cases {
		_, err := m.TranslateCoords(c[0], c[1])
		assert.True(t, errors.Is(err, ErrOutOfBounds), "Ожидалась ошибка OutOfBounds для %v", c)
	}
}

func TestTranslateCoordsBijection(t *testing.T) {
	m := NewWorldMap(7, 5)
	seen := make(map[int]bool)
	for x := int32(0); x < 7; x++ {
		for y := int32(0); y < 5; y++ {
			idx, err := m.TranslateCoords(x, y)
			require.NoError(t, err)
			assert.False(t, seen[idx], "Индекс %d повторился", idx)
			seen[idx] = true
		}
	}
	assert.Len(t, seen, m.Cells(), "Все индексы уникальны")
}

func TestTranslateChunkCoords(t *testing.T) {
	m := NewWorldMap(64, 32)
	assert.Equal(t, int32(4), m.ChunksX())
	assert.Equal(t, int32(2), m.ChunksY())

	idx, err := m.TranslateChunkCoords(3, 1)
	require.NoError(t, err)
	assert.Equal(t, 3+1*4, idx, "Индекс чанка x + y*chunksX")

	_, err = m.TranslateChunkCoords(4, 0)
	assert.ErrorIs(t, err, ErrOutOfBounds)
	_, err = m.TranslateChunkCoords(0, -1)
	assert.ErrorIs(t, err, ErrOutOfBounds)
}

type testEvent struct{ n int }

func (testEvent) GetType() EventType { return EventTypeBlockUpdate }

func TestEventQueueFIFO(t *testing.T) {
	q := NewEventQueue()
	for i := 0; i < 3; i++ {
		q.Emit(testEvent{n: i})
	}
	assert.Equal(t, 3, q.Len())

	e, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, 0, e.(testEvent).n, "Первым выходит первое событие")

	q.Emit(testEvent{n: 3})
	rest := q.Drain()
	require.Len(t, rest, 3)
	assert.Equal(t, 3, rest[2].(testEvent).n)

	_, ok = q.Pop()
	assert.False(t, ok, "Очередь пуста")
	assert.Equal(t, "BlockUpdate", EventTypeBlockUpdate.String())
}

func TestSlotsEqualAndClone(t *testing.T) {
	a := Slots{NewItemStack(1, 5), nil}
	b := a.Clone()
	assert.True(t, a.Equal(b), "Копия равна оригиналу")

	b[0].Count = 6
	assert.False(t, a.Equal(b), "Копия глубокая")
	assert.Equal(t, int32(5), a[0].Count)

	assert.False(t, a.Equal(Slots{nil, nil}))
	assert.True(t, NewSlots(2).IsEmpty())
	assert.True(t, Slots(nil).Equal(Slots{}), "nil и пустой список равны")
}
