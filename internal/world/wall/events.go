package wall

import "github.com/annel0/sandbox-world/internal/world"

// ChangeEvent - в клетке сменилась стена
type ChangeEvent struct {
	X, Y int32
	Prev ID
}

// GetType возвращает тип события
func (ChangeEvent) GetType() world.EventType { return world.EventTypeWallChange }

// BreakEvent - стена сломана
type BreakEvent struct {
	X, Y int32
	Prev ID
}

// GetType возвращает тип события
func (BreakEvent) GetType() world.EventType { return world.EventTypeWallBreak }

// StartedBreakingEvent - началось ломание стены
type StartedBreakingEvent struct {
	X, Y int32
}

// GetType возвращает тип события
func (StartedBreakingEvent) GetType() world.EventType { return world.EventTypeWallStartedBreaking }

// StoppedBreakingEvent - ломание стены приостановлено
type StoppedBreakingEvent struct {
	X, Y int32
}

// GetType возвращает тип события
func (StoppedBreakingEvent) GetType() world.EventType { return world.EventTypeWallStoppedBreaking }
