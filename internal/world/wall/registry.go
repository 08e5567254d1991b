package wall

import (
	"fmt"

	"github.com/annel0/sandbox-world/internal/world"
)

// ID - дескриптор типа стены
type ID int8

// MaxTypes - потолок числа типов стен
const MaxTypes = 127

// Unbreakable - значение BreakTime для неломаемых стен
const Unbreakable int32 = -1

// ClearName - имя служебного типа "нет стены"
const ClearName = "clear"

// Type - свойства типа стены. Нулевой BreakTime ломается на первом тике,
// неломаемую стену задаёт только Unbreakable.
type Type struct {
	ID        ID
	Name      string
	BreakTime int32
}

// Breakable сообщает, можно ли сломать стену
func (t *Type) Breakable() bool {
	return t.BreakTime != Unbreakable
}

// Registry - каталог типов стен одного мира
type Registry struct {
	types []Type
}

// NewRegistry создаёт реестр с типом "clear" под id 0
func NewRegistry() *Registry {
	r := &Registry{}
	_, _ = r.Register(ClearName, Unbreakable)
	return r
}

// Clear возвращает id пустой стены
func (r *Registry) Clear() ID { return 0 }

// Register добавляет тип стены
func (r *Registry) Register(name string, breakTime int32) (ID, error) {
	if len(r.types) >= MaxTypes {
		return 0, fmt.Errorf("%w: не больше %d типов стен", world.ErrRegistryFull, MaxTypes)
	}
	if _, err := r.IDByName(name); err == nil {
		return 0, fmt.Errorf("тип стены %q уже зарегистрирован", name)
	}
	id := ID(len(r.types))
	r.types = append(r.types, Type{ID: id, Name: name, BreakTime: breakTime})
	return id, nil
}

// Valid проверяет, что id зарегистрирован
func (r *Registry) Valid(id ID) bool {
	return id >= 0 && int(id) < len(r.types)
}

// Get возвращает тип по id
func (r *Registry) Get(id ID) (Type, error) {
	if !r.Valid(id) {
		return Type{}, fmt.Errorf("%w: %d", world.ErrUnknownWallType, id)
	}
	return r.types[id], nil
}

// IDByName ищет тип по имени
func (r *Registry) IDByName(name string) (ID, error) {
	for _, t := range r.types {
		if t.Name == name {
			return t.ID, nil
		}
	}
	return 0, fmt.Errorf("%w: тип стены %q", world.ErrNotFound, name)
}

// Len возвращает число типов
func (r *Registry) Len() int { return len(r.types) }

// Types возвращает все типы
func (r *Registry) Types() []Type {
	return append([]Type(nil), r.types...)
}
