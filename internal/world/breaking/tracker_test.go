package breaking

import (
	"testing"

	"github.com/annel0/sandbox-world/internal/vec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackerPauseKeepsProgress(t *testing.T) {
	tr := NewTracker()
	c := vec.New(2, 3)

	tr.Start(c)
	tr.Advance(40)
	assert.Equal(t, int32(40), tr.Progress(c), "Прогресс накапливается")

	require.True(t, tr.Stop(c))
	tr.Advance(100)
	assert.Equal(t, int32(40), tr.Progress(c), "Пауза не увеличивает прогресс")

	tr.Start(c)
	tr.Advance(10)
	assert.Equal(t, int32(50), tr.Progress(c), "Возобновление продолжает с сохранённого прогресса")
	assert.Equal(t, 1, tr.Len(), "Одна запись на клетку")
}

func TestTrackerStopWithoutEntry(t *testing.T) {
	tr := NewTracker()
	assert.False(t, tr.Stop(vec.New(1, 1)), "Нет записи - нечего останавливать")
	assert.Equal(t, 0, tr.Len())
}

func TestTrackerCompleted(t *testing.T) {
	tr := NewTracker()
	a, b, u := vec.New(0, 0), vec.New(1, 0), vec.New(2, 0)
	tr.Start(a)
	tr.Start(b)
	tr.Start(u)
	tr.Advance(100)

	done := tr.Completed(func(c vec.Vec2) (int32, bool) {
		switch c {
		case a:
			return 99, true
		case b:
			return 100, true
		}
		return 0, false
	})
	assert.Equal(t, []vec.Vec2{a}, done, "Ломается только при progress > break_time")
}

func TestTrackerSetProgressCreatesPausedEntry(t *testing.T) {
	tr := NewTracker()
	c := vec.New(4, 4)
	tr.SetProgress(c, 30)

	e, ok := tr.Get(c)
	require.True(t, ok)
	assert.False(t, e.Breaking, "Созданная запись приостановлена")
	assert.Equal(t, int32(30), e.Progress)

	tr.Remove(c)
	_, ok = tr.Get(c)
	assert.False(t, ok)
}

func TestStage(t *testing.T) {
	assert.Equal(t, int32(0), Stage(0, 100))
	assert.Equal(t, int32(4), Stage(50, 100))
	assert.Equal(t, int32(7), Stage(99, 100))
	assert.Equal(t, int32(8), Stage(100, 100))
	assert.Equal(t, int32(8), Stage(500, 100), "Стадия ограничена сверху")
	assert.Equal(t, int32(0), Stage(50, 0), "Неломаемый тип")
}
