// event-cli читает поток событий мира из NATS JetStream и печатает их
// в консоль, как tail -f. Фильтры по типу и источнику задаются флагами.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/annel0/sandbox-world/internal/eventbus"
)

const timeFormat = "2006-01-02T15:04:05.000Z"

func main() {
	var (
		natsURL    = flag.String("nats", "nats://127.0.0.1:4222", "адрес NATS")
		stream     = flag.String("stream", "WORLD_EVENTS", "имя JetStream потока")
		eventTypes = flag.String("types", "", "фильтр типов событий через запятую")
		sources    = flag.String("sources", "", "фильтр источников через запятую")
		limit      = flag.Int("limit", 0, "остановиться после N событий, 0 - без ограничения")
		asJSON     = flag.Bool("json", false, "печатать конверт целиком в JSON")
		statsEvery = flag.Duration("stats", 0, "период вывода статистики шины, 0 - не выводить")
	)
	flag.Parse()

	bus, err := eventbus.NewJetStreamBus(*natsURL, *stream, 0)
	if err != nil {
		log.Fatalf("❌ Не удалось подключиться к NATS: %v", err)
	}
	defer bus.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := &printer{limit: *limit, asJSON: *asJSON, done: cancel}
	sub, err := bus.Subscribe(ctx, eventbus.Filter{
		Types:   parseStringList(*eventTypes),
		Sources: parseStringList(*sources),
	}, p.handle)
	if err != nil {
		log.Fatalf("❌ Подписка не удалась: %v", err)
	}
	defer sub.Unsubscribe()

	log.Printf("📡 Слушаем %s (поток %s)", *natsURL, *stream)

	var statsC <-chan time.Time
	if *statsEvery > 0 {
		t := time.NewTicker(*statsEvery)
		defer t.Stop()
		statsC = t.C
	}
	for {
		select {
		case <-ctx.Done():
			s := bus.Metrics()
			log.Printf("👋 Получено %d событий", s.Consumed)
			return
		case <-statsC:
			s := bus.Metrics()
			log.Printf("📊 consumed=%d published=%d dropped=%d", s.Consumed, s.Published, s.Dropped)
		}
	}
}

type printer struct {
	mu     sync.Mutex
	seen   int
	limit  int
	asJSON bool
	done   context.CancelFunc
}

func (p *printer) handle(_ context.Context, ev *eventbus.Envelope) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.limit > 0 && p.seen >= p.limit {
		return
	}
	p.seen++

	if p.asJSON {
		data, err := json.Marshal(ev)
		if err != nil {
			fmt.Fprintf(os.Stderr, "⚠️ %s: %v\n", ev.ID, err)
			return
		}
		fmt.Println(string(data))
	} else {
		fmt.Printf("%s %-20s %-14s %s\n",
			ev.Timestamp.UTC().Format(timeFormat), ev.EventType, ev.Source, string(ev.Payload))
	}

	if p.limit > 0 && p.seen >= p.limit {
		p.done()
	}
}

func parseStringList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
