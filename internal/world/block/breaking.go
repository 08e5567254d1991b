package block

import (
	"github.com/annel0/sandbox-world/internal/vec"
	"github.com/annel0/sandbox-world/internal/world"
	"github.com/annel0/sandbox-world/internal/world/breaking"
)

// BreakProgress возвращает прогресс ломания клетки, 0 если она не ломается
func (b *Blocks) BreakProgress(x, y int32) (int32, error) {
	if _, err := b.index(x, y); err != nil {
		return 0, err
	}
	return b.breaking.Progress(vec.New(x, y)), nil
}

// SetBreakProgress задаёт прогресс, создавая приостановленную запись при необходимости
func (b *Blocks) SetBreakProgress(x, y int32, progress int32) error {
	if _, err := b.index(x, y); err != nil {
		return err
	}
	b.breaking.SetProgress(vec.New(x, y), progress)
	return nil
}

// BreakStage возвращает кадр анимации ломания в [0, breaking.StageCount]
func (b *Blocks) BreakStage(x, y int32) (int32, error) {
	progress, err := b.BreakProgress(x, y)
	if err != nil {
		return 0, err
	}
	t, err := b.typeAt(x, y)
	if err != nil {
		return 0, err
	}
	if !t.Breakable() {
		return 0, nil
	}
	return breaking.Stage(progress, t.BreakTime), nil
}

// StartBreaking начинает или возобновляет ломание. Неломаемый блок или
// неподходящий инструмент молча игнорируются.
func (b *Blocks) StartBreaking(ev world.Emitter, x, y int32, tool ToolID, toolPower int32) error {
	t, err := b.typeAt(x, y)
	if err != nil {
		return err
	}
	if !t.Breakable() || !t.AcceptsTool(tool, toolPower) {
		return nil
	}
	b.breaking.Start(vec.New(x, y))
	ev.Emit(StartedBreakingEvent{X: x, Y: y, Tool: tool, ToolPower: toolPower})
	return nil
}

// StopBreaking приостанавливает ломание, прогресс сохраняется
func (b *Blocks) StopBreaking(ev world.Emitter, x, y int32) error {
	if _, err := b.index(x, y); err != nil {
		return err
	}
	if b.breaking.Stop(vec.New(x, y)) {
		ev.Emit(StoppedBreakingEvent{X: x, Y: y})
	}
	return nil
}

// UpdateBreaking продвигает ломание на frame и ломает блоки, чей прогресс
// превысил время ломания.
func (b *Blocks) UpdateBreaking(ev world.Emitter, frame int32) error {
	b.breaking.Advance(frame)

	done := b.breaking.Completed(func(c vec.Vec2) (int32, bool) {
		t, err := b.typeAt(c.X, c.Y)
		if err != nil || !t.Breakable() {
			return 0, false
		}
		return t.BreakTime, true
	})
	for _, c := range done {
		b.breaking.Remove(c)
		if err := b.BreakBlock(ev, c.X, c.Y); err != nil {
			return err
		}
	}
	return nil
}

// BreakingBlocks возвращает снимок ломаемых клеток
func (b *Blocks) BreakingBlocks() []breaking.Entry {
	return b.breaking.Entries()
}
