// Package item описывает типы предметов и инвентарь игрока.
package item

import (
	"fmt"

	"github.com/annel0/sandbox-world/internal/world"
	"github.com/annel0/sandbox-world/internal/world/block"
	"github.com/annel0/sandbox-world/internal/world/wall"
)

// Type - свойства типа предмета. Нулевые PlacesBlock/PlacesWall означают,
// что предмет ничего не ставит (воздух и пустую стену ставить нельзя).
type Type struct {
	ID          world.ItemID
	Name        string
	DisplayName string
	MaxStack    int32
	PlacesBlock block.ID
	PlacesWall  wall.ID
	Tool        block.ToolID
	ToolPower   int32
}

// Registry - каталог типов предметов
type Registry struct {
	types []Type
}

// NewRegistry создаёт пустой каталог
func NewRegistry() *Registry {
	return &Registry{}
}

// Register добавляет тип предмета
func (r *Registry) Register(t Type) (world.ItemID, error) {
	if t.Name == "" {
		return 0, fmt.Errorf("предмет без имени")
	}
	if _, err := r.IDByName(t.Name); err == nil {
		return 0, fmt.Errorf("предмет %q уже зарегистрирован", t.Name)
	}
	if t.MaxStack <= 0 {
		t.MaxStack = 99
	}
	if t.DisplayName == "" {
		t.DisplayName = t.Name
	}
	t.ID = world.ItemID(len(r.types))
	r.types = append(r.types, t)
	return t.ID, nil
}

// Get возвращает тип предмета
func (r *Registry) Get(id world.ItemID) (Type, error) {
	if id < 0 || int(id) >= len(r.types) {
		return Type{}, fmt.Errorf("%w: %d", world.ErrUnknownItem, id)
	}
	return r.types[id], nil
}

// IDByName ищет предмет по имени
func (r *Registry) IDByName(name string) (world.ItemID, error) {
	for _, t := range r.types {
		if t.Name == name {
			return t.ID, nil
		}
	}
	return 0, fmt.Errorf("%w: предмет %q", world.ErrNotFound, name)
}

// Len возвращает число типов
func (r *Registry) Len() int { return len(r.types) }

// ToolOf возвращает инструмент и силу, которые даёт стопка. nil - пустая рука.
func (r *Registry) ToolOf(stack *world.ItemStack) (block.ToolID, int32) {
	if stack == nil {
		return block.NoTool, 0
	}
	t, err := r.Get(stack.Item)
	if err != nil {
		return block.NoTool, 0
	}
	return t.Tool, t.ToolPower
}
