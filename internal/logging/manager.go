package logging

import (
	"fmt"
	"log"
	"os"
	"sort"
	"sync"
)

// Компоненты, под которыми пишут подсистемы сервера
const (
	ComponentServer  = "server"
	ComponentGame    = "game"
	ComponentNetwork = "network"
	ComponentMods    = "mods"
	ComponentHTTP    = "http"
)

// Общие логгеры компонентов и пороги консоли, заданные конфигурацией
var (
	componentsMu sync.Mutex
	components   = make(map[string]*Logger)
	consoleByCmp = make(map[string]LogLevel)
)

// GetComponentLogger возвращает общий логгер компонента, создавая его при первом
// обращении. Если файл логов недоступен, компонент пишет только в консоль.
func GetComponentLogger(component string) *Logger {
	componentsMu.Lock()
	defer componentsMu.Unlock()

	if l, ok := components[component]; ok {
		return l
	}

	l, err := NewLogger(component)
	if err != nil {
		l = consoleLogger(component)
		l.Warn("файл логов недоступен: %v", err)
	}
	if level, ok := consoleByCmp[component]; ok {
		l.setConsoleLevel(level)
	}
	components[component] = l
	return l
}

// consoleLogger строит логгер без файла с текущими порогами
func consoleLogger(component string) *Logger {
	opts := currentOptions()
	console := opts.Console
	if console == nil {
		console = os.Stderr
	}
	return &Logger{
		component:       component,
		consoleLogger:   log.New(console, "", log.LstdFlags),
		minConsoleLevel: opts.ConsoleLevel,
		minFileLevel:    opts.FileLevel,
	}
}

func (l *Logger) setConsoleLevel(level LogLevel) {
	l.mu.Lock()
	l.minConsoleLevel = level
	l.mu.Unlock()
}

// ParseComponentLevels разбирает секцию logging.components: имя компонента -> уровень
func ParseComponentLevels(raw map[string]string) (map[string]LogLevel, error) {
	levels := make(map[string]LogLevel, len(raw))
	for component, s := range raw {
		level, err := ParseLevel(s)
		if err != nil {
			return nil, fmt.Errorf("уровень компонента %s: %w", component, err)
		}
		levels[component] = level
	}
	return levels, nil
}

// SetComponentLevels задаёт порог консоли для отдельных компонентов.
// Действует и на уже созданные логгеры, и на будущие.
func SetComponentLevels(levels map[string]LogLevel) {
	componentsMu.Lock()
	defer componentsMu.Unlock()

	consoleByCmp = make(map[string]LogLevel, len(levels))
	for component, level := range levels {
		consoleByCmp[component] = level
		if l, ok := components[component]; ok {
			l.setConsoleLevel(level)
		}
	}
}

// Components возвращает имена созданных логгеров компонентов
func Components() []string {
	componentsMu.Lock()
	defer componentsMu.Unlock()

	names := make([]string, 0, len(components))
	for name := range components {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// closeComponents закрывает файлы компонентов; следующий вызов
// GetComponentLogger создаст логгер заново с актуальными Options.
func closeComponents() {
	componentsMu.Lock()
	defer componentsMu.Unlock()

	for name, l := range components {
		_ = l.Close()
		delete(components, name)
	}
}

func GetNetworkLogger() *Logger { return GetComponentLogger(ComponentNetwork) }
func GetServerLogger() *Logger  { return GetComponentLogger(ComponentServer) }
func GetGameLogger() *Logger    { return GetComponentLogger(ComponentGame) }
func GetModsLogger() *Logger    { return GetComponentLogger(ComponentMods) }
