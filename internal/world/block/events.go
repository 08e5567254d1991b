package block

import "github.com/annel0/sandbox-world/internal/world"

// ChangeEvent - клетка получила новый id или смещение от главной клетки
type ChangeEvent struct {
	X, Y int32
	Prev ID
}

// GetType возвращает тип события
func (ChangeEvent) GetType() world.EventType { return world.EventTypeBlockChange }

// BreakEvent - блок сломан, координаты главной клетки
type BreakEvent struct {
	X, Y int32
	Prev ID
}

// GetType возвращает тип события
func (BreakEvent) GetType() world.EventType { return world.EventTypeBlockBreak }

// InventoryChangeEvent - изменилось содержимое инвентаря блока
type InventoryChangeEvent struct {
	X, Y int32
}

// GetType возвращает тип события
func (InventoryChangeEvent) GetType() world.EventType { return world.EventTypeBlockInventoryChange }

// StartedBreakingEvent - началось или возобновилось ломание
type StartedBreakingEvent struct {
	X, Y      int32
	Tool      ToolID
	ToolPower int32
}

// GetType возвращает тип события
func (StartedBreakingEvent) GetType() world.EventType { return world.EventTypeBlockStartedBreaking }

// StoppedBreakingEvent - ломание приостановлено
type StoppedBreakingEvent struct {
	X, Y int32
}

// GetType возвращает тип события
func (StoppedBreakingEvent) GetType() world.EventType { return world.EventTypeBlockStoppedBreaking }

// UpdateEvent - клетка перепроверена после изменения по соседству
type UpdateEvent struct {
	X, Y int32
}

// GetType возвращает тип события
func (UpdateEvent) GetType() world.EventType { return world.EventTypeBlockUpdate }

// RandomTickEvent - случайный тик клетки
type RandomTickEvent struct {
	X, Y int32
}

// GetType возвращает тип события
func (RandomTickEvent) GetType() world.EventType { return world.EventTypeBlockRandomTick }
