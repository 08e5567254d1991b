// Package breaking хранит прогресс ломания клеток. Один и тот же трекер
// используется и слоем блоков, и слоем стен.
package breaking

import (
	"sort"

	"github.com/annel0/sandbox-world/internal/vec"
)

// StageCount - число кадров анимации ломания. Стадия лежит в [0, StageCount].
const StageCount = 8

// Entry - состояние ломания одной клетки
type Entry struct {
	Coord    vec.Vec2
	Progress int32
	Breaking bool
}

// Tracker - разреженное множество ломаемых клеток, не больше одной записи на клетку
type Tracker struct {
	entries map[vec.Vec2]*Entry
}

// NewTracker создаёт пустой трекер
func NewTracker() *Tracker {
	return &Tracker{entries: make(map[vec.Vec2]*Entry)}
}

// Start создаёт запись или возобновляет приостановленную с сохранённым прогрессом
func (t *Tracker) Start(c vec.Vec2) *Entry {
	e, ok := t.entries[c]
	if !ok {
		e = &Entry{Coord: c}
		t.entries[c] = e
	}
	e.Breaking = true
	return e
}

// Stop приостанавливает ломание. Возвращает false, если записи нет.
func (t *Tracker) Stop(c vec.Vec2) bool {
	e, ok := t.entries[c]
	if !ok {
		return false
	}
	e.Breaking = false
	return true
}

// Get возвращает копию записи
func (t *Tracker) Get(c vec.Vec2) (Entry, bool) {
	e, ok := t.entries[c]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// Progress возвращает прогресс клетки, 0 если записи нет
func (t *Tracker) Progress(c vec.Vec2) int32 {
	if e, ok := t.entries[c]; ok {
		return e.Progress
	}
	return 0
}

// SetProgress задаёт прогресс. Отсутствующая запись создаётся приостановленной.
func (t *Tracker) SetProgress(c vec.Vec2, progress int32) {
	e, ok := t.entries[c]
	if !ok {
		e = &Entry{Coord: c}
		t.entries[c] = e
	}
	e.Progress = progress
}

// Remove удаляет запись клетки
func (t *Tracker) Remove(c vec.Vec2) {
	delete(t.entries, c)
}

// Clear удаляет все записи
func (t *Tracker) Clear() {
	t.entries = make(map[vec.Vec2]*Entry)
}

// Len возвращает число записей
func (t *Tracker) Len() int {
	return len(t.entries)
}

// Advance прибавляет frame к прогрессу всех активных записей
func (t *Tracker) Advance(frame int32) {
	if frame <= 0 {
		return
	}
	for _, e := range t.entries {
		if e.Breaking {
			e.Progress += frame
		}
	}
}

// Completed возвращает клетки, чей прогресс превысил порог. threshold
// возвращает false для клеток, которые сломать нельзя. Порядок детерминирован
// (по X, затем по Y), хотя вызывающим он не важен.
func (t *Tracker) Completed(threshold func(c vec.Vec2) (int32, bool)) []vec.Vec2 {
	var done []vec.Vec2
	for c, e := range t.entries {
		limit, ok := threshold(c)
		if ok && e.Progress > limit {
			done = append(done, c)
		}
	}
	sortCoords(done)
	return done
}

// Entries возвращает снимок всех записей
func (t *Tracker) Entries() []Entry {
	out := make([]Entry, 0, len(t.entries))
	for _, e := range t.entries {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return less(out[i].Coord, out[j].Coord) })
	return out
}

// Stage переводит прогресс в кадр анимации: floor(progress/breakTime*StageCount).
func Stage(progress, breakTime int32) int32 {
	if breakTime <= 0 || progress <= 0 {
		return 0
	}
	s := int32(int64(progress) * StageCount / int64(breakTime))
	if s > StageCount {
		return StageCount
	}
	return s
}

func sortCoords(cs []vec.Vec2) {
	sort.Slice(cs, func(i, j int) bool { return less(cs[i], cs[j]) })
}

func less(a, b vec.Vec2) bool {
	if a.X != b.X {
		return a.X < b.X
	}
	return a.Y < b.Y
}
