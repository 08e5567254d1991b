// Клиент-зонд: подключается к серверу, получает снимок мира, печатает сводку
// и при желании ломает или ставит блок. Полезен для проверки транспорта.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/annel0/sandbox-world/internal/client"
	"github.com/annel0/sandbox-world/internal/content"
	"github.com/annel0/sandbox-world/internal/logging"
	"github.com/annel0/sandbox-world/internal/network"
	"github.com/annel0/sandbox-world/internal/world/block"
)

func main() {
	var (
		addr      = flag.String("addr", "localhost:7777", "адрес сервера; для ws - URL ws://host:port/ws")
		transport = flag.String("transport", "tcp", "транспорт: tcp, kcp, ws")
		seed      = flag.Int64("seed", 1234, "seed базового мода, как на сервере")
		breakAt   = flag.String("break", "", "сломать блок в клетке x,y")
		placeAt   = flag.String("place", "", "поставить предмет из слота -slot в клетку x,y")
		slot      = flag.Int("slot", 0, "слот инвентаря для -place")
		watch     = flag.Duration("watch", 3*time.Second, "сколько следить за миром после действий")
	)
	flag.Parse()

	if err := logging.InitDefaultLogger("client", logging.Options{ConsoleLevel: logging.INFO, FileLevel: logging.DEBUG}); err != nil {
		log.Printf("⚠️ Логи пишутся только в консоль: %v", err)
	}
	defer logging.CloseDefaultLogger()

	kind, err := parseTransport(*transport)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	c, err := client.Dial(dialCtx, kind, *addr, nil, content.New(*seed))
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	defer c.Close()
	logging.Info("✅ Подключен к %s (%s)", *addr, kind)

	if err := c.WaitReady(dialCtx); err != nil {
		log.Fatalf("❌ Снимок мира не получен: %v", err)
	}
	c.View(printSummary)

	if *placeAt != "" {
		x, y, err := parseCell(*placeAt)
		if err != nil {
			log.Fatalf("❌ -place: %v", err)
		}
		if err := c.SelectSlot(int32(*slot)); err != nil {
			log.Fatalf("❌ %v", err)
		}
		if err := c.RightClick(x, y); err != nil {
			log.Fatalf("❌ %v", err)
		}
		logging.Info("📤 RightClick (%d,%d) из слота %d", x, y, *slot)
	}
	if *breakAt != "" {
		x, y, err := parseCell(*breakAt)
		if err != nil {
			log.Fatalf("❌ -break: %v", err)
		}
		if err := c.BreakBlock(x, y); err != nil {
			log.Fatalf("❌ %v", err)
		}
		logging.Info("📤 BreakStart (%d,%d)", x, y)
	}

	watchCtx, cancelWatch := context.WithTimeout(ctx, *watch)
	defer cancelWatch()
	go func() {
		_ = c.Run(watchCtx, 50*time.Millisecond)
	}()

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-watchCtx.Done():
			logging.Info("👋 Зонд завершён")
			return
		case <-c.Done():
			log.Fatalf("❌ Соединение закрыто: %v", c.Err())
		case <-ticker.C:
			c.View(func(r *client.Replica) {
				for _, e := range r.Events() {
					logging.Info("📥 %s %+v", e.GetType(), e)
				}
			})
		}
	}
}

func parseTransport(s string) (network.ChannelType, error) {
	switch s {
	case "tcp":
		return network.ChannelTCP, nil
	case "kcp":
		return network.ChannelKCP, nil
	case "ws", "websocket":
		return network.ChannelWebSocket, nil
	}
	return 0, fmt.Errorf("неизвестный транспорт %q", s)
}

func parseCell(s string) (int32, int32, error) {
	var x, y int32
	if _, err := fmt.Sscanf(s, "%d,%d", &x, &y); err != nil {
		return 0, 0, fmt.Errorf("ожидалось x,y: %w", err)
	}
	return x, y, nil
}

func printSummary(r *client.Replica) {
	w, h := r.Blocks.Width(), r.Blocks.Height()
	counts := make(map[block.ID]int)
	for x := int32(0); x < int32(w); x++ {
		for y := int32(0); y < int32(h); y++ {
			id, _ := r.Blocks.Block(x, y)
			counts[id]++
		}
	}

	ids := make([]block.ID, 0, len(counts))
	for id := range counts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return counts[ids[i]] > counts[ids[j]] })

	fmt.Fprintf(os.Stdout, "Мир %dx%d\n", w, h)
	for _, id := range ids {
		name := fmt.Sprintf("#%d", id)
		if t, err := r.Blocks.Registry().Get(id); err == nil {
			name = t.Name
		}
		fmt.Fprintf(os.Stdout, "  %-12s %d\n", name, counts[id])
	}
	fmt.Fprintf(os.Stdout, "Инвентарь (выбран слот %d):\n", r.Selected)
	for i, st := range r.Inventory {
		if st == nil {
			continue
		}
		name := fmt.Sprintf("#%d", st.Item)
		if t, err := r.Items.Get(st.Item); err == nil {
			name = t.DisplayName
		}
		fmt.Fprintf(os.Stdout, "  [%d] %s x%d\n", i, name, st.Count)
	}
}
