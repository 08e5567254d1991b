package modhost

import (
	"fmt"

	"github.com/annel0/sandbox-world/internal/logging"
	"github.com/annel0/sandbox-world/internal/world"
	"github.com/annel0/sandbox-world/internal/world/block"
	"github.com/annel0/sandbox-world/internal/world/wall"
)

// Mod - подключаемый набор контента и поведения
type Mod interface {
	Name() string
	// Init регистрирует типы блоков, стен, инструментов и предметов
	Init(api *API) error
}

// BlockBreakListener вызывается после того, как блок сломан
type BlockBreakListener interface {
	OnBlockBreak(api *API, x, y int32, prev block.ID) error
}

// BlockUpdateListener вызывается после перепроверки клетки соседями
type BlockUpdateListener interface {
	OnBlockUpdate(api *API, x, y int32) error
}

// BlockRandomTickListener вызывается на случайном тике клетки
type BlockRandomTickListener interface {
	OnBlockRandomTick(api *API, x, y int32) error
}

// WallBreakListener вызывается после того, как стена сломана
type WallBreakListener interface {
	OnWallBreak(api *API, x, y int32, prev wall.ID) error
}

// Host хранит моды и раздаёт им события
type Host struct {
	api    *API
	relay  *Relay
	mods   []Mod
	logger *logging.Logger
}

// NewHost создаёт хост
func NewHost(api *API, relay *Relay) *Host {
	return &Host{api: api, relay: relay, logger: logging.GetModsLogger()}
}

// API возвращает функции для модов
func (h *Host) API() *API { return h.api }

// Relay возвращает очередь событий модов
func (h *Host) Relay() *Relay { return h.relay }

// Load инициализирует моды в порядке перечисления
func (h *Host) Load(mods ...Mod) error {
	for _, m := range mods {
		if err := m.Init(h.api); err != nil {
			return fmt.Errorf("мод %s: %w", m.Name(), err)
		}
		h.mods = append(h.mods, m)
		h.logger.Info("Мод %s загружен", m.Name())
	}
	return nil
}

// Mods возвращает имена загруженных модов
func (h *Host) Mods() []string {
	names := make([]string, len(h.mods))
	for i, m := range h.mods {
		names[i] = m.Name()
	}
	return names
}

// Dispatch передаёт событие модам, которые его слушают.
// Первая ошибка прерывает рассылку и возвращается вызывающему.
func (h *Host) Dispatch(e world.Event) error {
	switch ev := e.(type) {
	case block.BreakEvent:
		for _, m := range h.mods {
			if l, ok := m.(BlockBreakListener); ok {
				if err := l.OnBlockBreak(h.api, ev.X, ev.Y, ev.Prev); err != nil {
					return fmt.Errorf("%s.OnBlockBreak(%d,%d): %w", m.Name(), ev.X, ev.Y, err)
				}
			}
		}
	case block.UpdateEvent:
		for _, m := range h.mods {
			if l, ok := m.(BlockUpdateListener); ok {
				if err := l.OnBlockUpdate(h.api, ev.X, ev.Y); err != nil {
					return fmt.Errorf("%s.OnBlockUpdate(%d,%d): %w", m.Name(), ev.X, ev.Y, err)
				}
			}
		}
	case block.RandomTickEvent:
		for _, m := range h.mods {
			if l, ok := m.(BlockRandomTickListener); ok {
				if err := l.OnBlockRandomTick(h.api, ev.X, ev.Y); err != nil {
					return fmt.Errorf("%s.OnBlockRandomTick(%d,%d): %w", m.Name(), ev.X, ev.Y, err)
				}
			}
		}
	case wall.BreakEvent:
		for _, m := range h.mods {
			if l, ok := m.(WallBreakListener); ok {
				if err := l.OnWallBreak(h.api, ev.X, ev.Y, ev.Prev); err != nil {
					return fmt.Errorf("%s.OnWallBreak(%d,%d): %w", m.Name(), ev.X, ev.Y, err)
				}
			}
		}
	}
	return nil
}
