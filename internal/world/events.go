package world

// EventType определяет тип доменного события
type EventType uint8

const (
	EventTypeBlockChange          EventType = iota // Изменение блока
	EventTypeBlockBreak                            // Разрушение блока
	EventTypeBlockInventoryChange                  // Изменение инвентаря блока
	EventTypeBlockStartedBreaking                  // Начало ломания блока
	EventTypeBlockStoppedBreaking                  // Остановка ломания блока
	EventTypeBlockUpdate                           // Блок перепроверен после изменения соседа
	EventTypeBlockRandomTick                       // Случайный тик блока
	EventTypeWallChange                            // Изменение стены
	EventTypeWallBreak                             // Разрушение стены
	EventTypeWallStartedBreaking                   // Начало ломания стены
	EventTypeWallStoppedBreaking                   // Остановка ломания стены
	EventTypeConnectionOpened                      // Новое подключение
	EventTypeConnectionClosed                      // Подключение закрыто
	EventTypePacketFromClient                      // Пакет от клиента
)

var eventTypeNames = [...]string{
	EventTypeBlockChange:          "BlockChanged",
	EventTypeBlockBreak:           "BlockBroken",
	EventTypeBlockInventoryChange: "BlockInventoryChanged",
	EventTypeBlockStartedBreaking: "BlockStartedBreaking",
	EventTypeBlockStoppedBreaking: "BlockStoppedBreaking",
	EventTypeBlockUpdate:          "BlockUpdate",
	EventTypeBlockRandomTick:      "BlockRandomTick",
	EventTypeWallChange:           "WallChanged",
	EventTypeWallBreak:            "WallBroken",
	EventTypeWallStartedBreaking:  "WallStartedBreaking",
	EventTypeWallStoppedBreaking:  "WallStoppedBreaking",
	EventTypeConnectionOpened:     "ConnectionOpened",
	EventTypeConnectionClosed:     "ConnectionClosed",
	EventTypePacketFromClient:     "PacketFromClient",
}

// String возвращает имя типа события
func (t EventType) String() string {
	if int(t) < len(eventTypeNames) {
		return eventTypeNames[t]
	}
	return "Unknown"
}

// Event представляет собой интерфейс для всех событий
type Event interface {
	GetType() EventType
}

// Emitter принимает события от мутирующих операций
type Emitter interface {
	Emit(e Event)
}

// EventQueue - FIFO очередь событий симуляции. Не потокобезопасна:
// принадлежит одной горутине.
type EventQueue struct {
	events []Event
	head   int
}

// NewEventQueue создаёт пустую очередь
func NewEventQueue() *EventQueue {
	return &EventQueue{}
}

// Emit добавляет событие в конец очереди
func (q *EventQueue) Emit(e Event) {
	q.events = append(q.events, e)
}

// Pop извлекает первое событие
func (q *EventQueue) Pop() (Event, bool) {
	if q.head >= len(q.events) {
		q.events = q.events[:0]
		q.head = 0
		return nil, false
	}
	e := q.events[q.head]
	q.events[q.head] = nil
	q.head++
	return e, true
}

// Len возвращает количество ожидающих событий
func (q *EventQueue) Len() int {
	return len(q.events) - q.head
}

// Drain извлекает все события разом
func (q *EventQueue) Drain() []Event {
	out := make([]Event, 0, q.Len())
	for {
		e, ok := q.Pop()
		if !ok {
			return out
		}
		out = append(out, e)
	}
}

// EmitterFunc адаптирует функцию к Emitter
type EmitterFunc func(Event)

// Emit вызывает функцию
func (f EmitterFunc) Emit(e Event) { f(e) }
