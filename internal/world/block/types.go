package block

// ID - небольшой дескриптор типа блока, индекс в реестре
type ID int8

// MaxTypes - потолок числа типов блоков (знаковый 8-битный id)
const MaxTypes = 127

// Unbreakable - значение BreakTime для неломаемых блоков
const Unbreakable int32 = -1

// ToolID - идентификатор инструмента. NoTool означает "без инструмента".
type ToolID int32

// NoTool - отсутствие инструмента
const NoTool ToolID = 0

// Tool описывает зарегистрированный инструмент
type Tool struct {
	ID   ToolID
	Name string
}

// SlotPos - позиция слота инвентаря в окне блока
type SlotPos struct {
	X, Y int32
}

// Type - статические свойства типа блока.
//
// BreakTime по умолчанию равен нулю: такой блок ломается на первом же тике
// с ненулевым кадром, ведь для разрушения нужен прогресс строго больше
// BreakTime. Неломаемый блок надо явно пометить значением Unbreakable.
type Type struct {
	ID   ID
	Name string

	// Размер в клетках, больше 1x1 - большой блок
	Width  int32
	Height int32

	// Время ломания в единицах прогресса. 0 - ломается мгновенно, Unbreakable - никогда
	BreakTime         int32
	EffectiveTool     ToolID
	RequiredToolPower int32

	Transparent    bool
	Ghost          bool
	FeetCollidable bool
	Clickable      bool
	LightEmission  [3]uint8

	ConnectsTo     []ID
	InventorySlots []SlotPos
}

// Breakable сообщает, можно ли сломать блок
func (t *Type) Breakable() bool {
	return t.BreakTime != Unbreakable
}

// IsBig сообщает, занимает ли блок больше одной клетки
func (t *Type) IsBig() bool {
	return t.Width > 1 || t.Height > 1
}

// ConnectsWith сообщает, соединяется ли блок визуально с другим типом
func (t *Type) ConnectsWith(id ID) bool {
	for _, c := range t.ConnectsTo {
		if c == id {
			return true
		}
	}
	return false
}

// AcceptsTool проверяет инструмент и его силу
func (t *Type) AcceptsTool(tool ToolID, power int32) bool {
	if t.EffectiveTool == NoTool {
		return true
	}
	return t.EffectiveTool == tool && power >= t.RequiredToolPower
}

func (t Type) clone() Type {
	t.ConnectsTo = append([]ID(nil), t.ConnectsTo...)
	t.InventorySlots = append([]SlotPos(nil), t.InventorySlots...)
	return t
}
