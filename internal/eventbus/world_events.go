package eventbus

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/annel0/sandbox-world/internal/world"
	"github.com/annel0/sandbox-world/internal/world/block"
	"github.com/annel0/sandbox-world/internal/world/wall"
)

// PayloadVersion - версия схемы CellPayload
const PayloadVersion = 1

// CellPayload - полезная нагрузка событий мира
type CellPayload struct {
	X         int32 `json:"x"`
	Y         int32 `json:"y"`
	Prev      int32 `json:"prev,omitempty"`
	Tool      int32 `json:"tool,omitempty"`
	ToolPower int32 `json:"tool_power,omitempty"`
}

// FromWorldEvent заворачивает доменное событие в Envelope.
// Служебные события (тики, обновления соседей) не публикуются: ok == false.
func FromWorldEvent(e world.Event, source string) (*Envelope, bool) {
	var p CellPayload
	priority := 3

	switch ev := e.(type) {
	case block.ChangeEvent:
		p = CellPayload{X: ev.X, Y: ev.Y, Prev: int32(ev.Prev)}
	case block.BreakEvent:
		p = CellPayload{X: ev.X, Y: ev.Y, Prev: int32(ev.Prev)}
		priority = 5
	case block.InventoryChangeEvent:
		p = CellPayload{X: ev.X, Y: ev.Y}
	case block.StartedBreakingEvent:
		p = CellPayload{X: ev.X, Y: ev.Y, Tool: int32(ev.Tool), ToolPower: ev.ToolPower}
		priority = 1
	case block.StoppedBreakingEvent:
		p = CellPayload{X: ev.X, Y: ev.Y}
		priority = 1
	case wall.ChangeEvent:
		p = CellPayload{X: ev.X, Y: ev.Y, Prev: int32(ev.Prev)}
	case wall.BreakEvent:
		p = CellPayload{X: ev.X, Y: ev.Y, Prev: int32(ev.Prev)}
		priority = 5
	case wall.StartedBreakingEvent:
		p = CellPayload{X: ev.X, Y: ev.Y}
		priority = 1
	case wall.StoppedBreakingEvent:
		p = CellPayload{X: ev.X, Y: ev.Y}
		priority = 1
	default:
		return nil, false
	}

	data, err := json.Marshal(p)
	if err != nil {
		return nil, false
	}
	return &Envelope{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Source:    source,
		EventType: e.GetType().String(),
		Version:   PayloadVersion,
		Priority:  priority,
		Payload:   data,
	}, true
}
