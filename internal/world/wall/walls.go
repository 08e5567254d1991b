// Package wall - фоновый слой стен: одна стена на клетку, свой реестр
// типов и свой трекер ломания.
package wall

import (
	"fmt"

	"github.com/annel0/sandbox-world/internal/codec"
	"github.com/annel0/sandbox-world/internal/vec"
	"github.com/annel0/sandbox-world/internal/world"
	"github.com/annel0/sandbox-world/internal/world/breaking"
)

// Walls - слой стен, принадлежит потоку симуляции
type Walls struct {
	registry *Registry
	wmap     world.WorldMap
	ids      []ID
	breaking *breaking.Tracker
}

// New создаёт пустой слой со своим реестром
func New() *Walls {
	return NewWithRegistry(NewRegistry())
}

// NewWithRegistry создаёт слой поверх готового реестра
func NewWithRegistry(r *Registry) *Walls {
	return &Walls{registry: r, wmap: world.NewWorldMap(0, 0), breaking: breaking.NewTracker()}
}

// Registry возвращает реестр стен
func (w *Walls) Registry() *Registry { return w.registry }

// Clear возвращает id пустой стены
func (w *Walls) Clear() ID { return w.registry.Clear() }

// Map возвращает размеры мира
func (w *Walls) Map() world.WorldMap { return w.wmap }

// Create заполняет мир пустыми стенами
func (w *Walls) Create(width, height uint32) {
	w.wmap = world.NewWorldMap(width, height)
	w.ids = make([]ID, w.wmap.Cells())
	empty := w.Clear()
	for i := range w.ids {
		w.ids[i] = empty
	}
	w.breaking.Clear()
}

// CreateFromIDs принимает начальную сетку grid[x][y]
func (w *Walls) CreateFromIDs(grid [][]ID) error {
	if len(grid) == 0 || len(grid[0]) == 0 {
		return fmt.Errorf("%w: пустая сетка стен", world.ErrShapeMismatch)
	}
	height := len(grid[0])
	for x, col := range grid {
		if len(col) != height {
			return fmt.Errorf("%w: столбец %d длины %d, ожидалось %d", world.ErrShapeMismatch, x, len(col), height)
		}
		for _, id := range col {
			if !w.registry.Valid(id) {
				return fmt.Errorf("%w: %d", world.ErrUnknownWallType, id)
			}
		}
	}
	w.Create(uint32(len(grid)), uint32(height))
	i := 0
	for _, col := range grid {
		copy(w.ids[i:], col)
		i += height
	}
	return nil
}

// Wall возвращает id стены в клетке
func (w *Walls) Wall(x, y int32) (ID, error) {
	i, err := w.wmap.TranslateCoords(x, y)
	if err != nil {
		return 0, err
	}
	return w.ids[i], nil
}

// TypeAt возвращает тип стены в клетке
func (w *Walls) TypeAt(x, y int32) (Type, error) {
	id, err := w.Wall(x, y)
	if err != nil {
		return Type{}, err
	}
	return w.registry.Get(id)
}

// SetWall меняет стену. Повторная установка того же id ничего не делает.
func (w *Walls) SetWall(ev world.Emitter, x, y int32, id ID) error {
	i, err := w.wmap.TranslateCoords(x, y)
	if err != nil {
		return err
	}
	if !w.registry.Valid(id) {
		return fmt.Errorf("%w: %d", world.ErrUnknownWallType, id)
	}
	prev := w.ids[i]
	if prev == id {
		return nil
	}
	w.ids[i] = id
	w.breaking.Remove(vec.New(x, y))
	ev.Emit(ChangeEvent{X: x, Y: y, Prev: prev})
	return nil
}

// BreakWall ломает стену: событие и пустая стена на её месте
func (w *Walls) BreakWall(ev world.Emitter, x, y int32) error {
	prev, err := w.Wall(x, y)
	if err != nil {
		return err
	}
	ev.Emit(BreakEvent{X: x, Y: y, Prev: prev})
	return w.SetWall(ev, x, y, w.Clear())
}

// BreakProgress возвращает прогресс ломания стены
func (w *Walls) BreakProgress(x, y int32) (int32, error) {
	if _, err := w.wmap.TranslateCoords(x, y); err != nil {
		return 0, err
	}
	return w.breaking.Progress(vec.New(x, y)), nil
}

// SetBreakProgress задаёт прогресс ломания стены, например по пакету сервера
func (w *Walls) SetBreakProgress(x, y int32, progress int32) error {
	if _, err := w.wmap.TranslateCoords(x, y); err != nil {
		return err
	}
	w.breaking.SetProgress(vec.New(x, y), progress)
	return nil
}

// BreakStage возвращает кадр анимации ломания
func (w *Walls) BreakStage(x, y int32) (int32, error) {
	progress, err := w.BreakProgress(x, y)
	if err != nil {
		return 0, err
	}
	t, err := w.TypeAt(x, y)
	if err != nil {
		return 0, err
	}
	if !t.Breakable() {
		return 0, nil
	}
	return breaking.Stage(progress, t.BreakTime), nil
}

// StartBreaking начинает или возобновляет ломание стены
func (w *Walls) StartBreaking(ev world.Emitter, x, y int32) error {
	t, err := w.TypeAt(x, y)
	if err != nil {
		return err
	}
	if !t.Breakable() {
		return nil
	}
	w.breaking.Start(vec.New(x, y))
	ev.Emit(StartedBreakingEvent{X: x, Y: y})
	return nil
}

// StopBreaking приостанавливает ломание стены
func (w *Walls) StopBreaking(ev world.Emitter, x, y int32) error {
	if _, err := w.wmap.TranslateCoords(x, y); err != nil {
		return err
	}
	if w.breaking.Stop(vec.New(x, y)) {
		ev.Emit(StoppedBreakingEvent{X: x, Y: y})
	}
	return nil
}

// UpdateBreaking продвигает ломание стен на frame
func (w *Walls) UpdateBreaking(ev world.Emitter, frame int32) error {
	w.breaking.Advance(frame)
	done := w.breaking.Completed(func(c vec.Vec2) (int32, bool) {
		t, err := w.TypeAt(c.X, c.Y)
		if err != nil || !t.Breakable() {
			return 0, false
		}
		return t.BreakTime, true
	})
	for _, c := range done {
		w.breaking.Remove(c)
		if err := w.BreakWall(ev, c.X, c.Y); err != nil {
			return err
		}
	}
	return nil
}

// BreakingWalls возвращает снимок ломаемых стен
func (w *Walls) BreakingWalls() []breaking.Entry {
	return w.breaking.Entries()
}

// Serialize кодирует и сжимает слой стен
func (w *Walls) Serialize() []byte {
	ids := make([]byte, len(w.ids))
	for i, id := range w.ids {
		ids[i] = byte(id)
	}
	var buf []byte
	buf = codec.AppendUint(buf, 1, uint64(w.wmap.Width()))
	buf = codec.AppendUint(buf, 2, uint64(w.wmap.Height()))
	buf = codec.AppendBytes(buf, 3, ids)
	return codec.CompressSnapshot(buf)
}

// Deserialize заменяет слой снимком. При ошибке слой не меняется.
func (w *Walls) Deserialize(data []byte) error {
	raw, err := codec.DecompressSnapshot(data)
	if err != nil {
		return fmt.Errorf("%w: %v", world.ErrSerialization, err)
	}
	var width, height uint32
	var ids []byte
	err = codec.Walk(raw, func(f codec.Field) error {
		switch f.Num {
		case 1:
			width = f.Uint32()
		case 2:
			height = f.Uint32()
		case 3:
			ids = f.Bytes
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", world.ErrSerialization, err)
	}
	wmap := world.NewWorldMap(width, height)
	if len(ids) != wmap.Cells() {
		return fmt.Errorf("%w: %d id на %d клеток", world.ErrSerialization, len(ids), wmap.Cells())
	}
	decoded := make([]ID, len(ids))
	for i, raw := range ids {
		id := ID(int8(raw))
		if !w.registry.Valid(id) {
			return fmt.Errorf("%w: неизвестная стена %d", world.ErrSerialization, id)
		}
		decoded[i] = id
	}
	w.wmap = wmap
	w.ids = decoded
	w.breaking.Clear()
	return nil
}
