package block

import (
	"fmt"

	"github.com/annel0/sandbox-world/internal/world"
)

// AirName - имя служебного типа "воздух", всегда с id 0
const AirName = "air"

// Registry - каталог типов блоков и инструментов одного мира.
// Заполняется при инициализации модов, после этого только читается.
type Registry struct {
	types []Type
	tools []Tool
}

// NewRegistry создаёт реестр с зарегистрированным воздухом
func NewRegistry() *Registry {
	r := &Registry{}
	_, _ = r.Register(Type{
		Name:        AirName,
		Ghost:       true,
		Transparent: true,
		BreakTime:   Unbreakable,
	})
	return r
}

// Air возвращает id воздуха
func (r *Registry) Air() ID { return 0 }

// Register добавляет тип и назначает ему следующий id
func (r *Registry) Register(t Type) (ID, error) {
	if len(r.types) >= MaxTypes {
		return 0, fmt.Errorf("%w: не больше %d типов блоков", world.ErrRegistryFull, MaxTypes)
	}
	if t.Name == "" {
		return 0, fmt.Errorf("тип блока без имени")
	}
	if _, err := r.IDByName(t.Name); err == nil {
		return 0, fmt.Errorf("тип блока %q уже зарегистрирован", t.Name)
	}
	for _, c := range t.ConnectsTo {
		if !r.Valid(c) {
			return 0, fmt.Errorf("%w: connects_to %d", world.ErrUnknownBlockType, c)
		}
	}
	if t.EffectiveTool != NoTool {
		if _, err := r.Tool(t.EffectiveTool); err != nil {
			return 0, err
		}
	}
	if t.Width < 1 {
		t.Width = 1
	}
	if t.Height < 1 {
		t.Height = 1
	}

	t = t.clone()
	t.ID = ID(len(r.types))
	r.types = append(r.types, t)
	return t.ID, nil
}

// Valid проверяет, что id зарегистрирован
func (r *Registry) Valid(id ID) bool {
	return id >= 0 && int(id) < len(r.types)
}

// Get возвращает копию типа
func (r *Registry) Get(id ID) (Type, error) {
	t, err := r.typ(id)
	if err != nil {
		return Type{}, err
	}
	return t.clone(), nil
}

func (r *Registry) typ(id ID) (*Type, error) {
	if !r.Valid(id) {
		return nil, fmt.Errorf("%w: %d", world.ErrUnknownBlockType, id)
	}
	return &r.types[id], nil
}

// IDByName ищет тип по имени линейным проходом
func (r *Registry) IDByName(name string) (ID, error) {
	for i := range r.types {
		if r.types[i].Name == name {
			return r.types[i].ID, nil
		}
	}
	return 0, fmt.Errorf("%w: тип блока %q", world.ErrNotFound, name)
}

// IDs возвращает все id по порядку
func (r *Registry) IDs() []ID {
	ids := make([]ID, len(r.types))
	for i := range r.types {
		ids[i] = r.types[i].ID
	}
	return ids
}

// Len возвращает число типов, включая воздух
func (r *Registry) Len() int { return len(r.types) }

// Connect симметрично соединяет два типа
func (r *Registry) Connect(a, b ID) error {
	ta, err := r.typ(a)
	if err != nil {
		return err
	}
	tb, err := r.typ(b)
	if err != nil {
		return err
	}
	if !ta.ConnectsWith(b) {
		ta.ConnectsTo = append(ta.ConnectsTo, b)
	}
	if !tb.ConnectsWith(a) {
		tb.ConnectsTo = append(tb.ConnectsTo, a)
	}
	return nil
}

// RegisterTool добавляет инструмент. Id инструментов начинаются с 1.
func (r *Registry) RegisterTool(name string) (ToolID, error) {
	if _, err := r.ToolIDByName(name); err == nil {
		return NoTool, fmt.Errorf("инструмент %q уже зарегистрирован", name)
	}
	id := ToolID(len(r.tools) + 1)
	r.tools = append(r.tools, Tool{ID: id, Name: name})
	return id, nil
}

// Tool возвращает инструмент по id
func (r *Registry) Tool(id ToolID) (Tool, error) {
	if id < 1 || int(id) > len(r.tools) {
		return Tool{}, fmt.Errorf("%w: %d", world.ErrUnknownTool, id)
	}
	return r.tools[id-1], nil
}

// ToolIDByName ищет инструмент по имени
func (r *Registry) ToolIDByName(name string) (ToolID, error) {
	for _, t := range r.tools {
		if t.Name == name {
			return t.ID, nil
		}
	}
	return NoTool, fmt.Errorf("%w: инструмент %q", world.ErrNotFound, name)
}

// Tools возвращает все инструменты
func (r *Registry) Tools() []Tool {
	return append([]Tool(nil), r.tools...)
}
