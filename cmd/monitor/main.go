package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"
	"sync"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
)

// DetectorStatus tracks the most recent heartbeat from one detector.
type DetectorStatus struct {
	ModelName    string `json:"model_name"`
	State        string `json:"state"`
	Reason       string `json:"reason,omitempty"`
	ModelVersion string `json:"model_version,omitempty"`
	Endpoint     string `json:"endpoint"`
	NATSTopic    string `json:"nats_topic"`
	Cache        struct {
		Hits    int64 `json:"hits"`
		Misses  int64 `json:"misses"`
		Entries int   `json:"entries"`
	} `json:"cache"`
	LastSeen time.Time `json:"-"`
}

// BackpressureReport mirrors the monitoring payload published by detectors.
type BackpressureReport struct {
	ModelName        string `json:"model_name"`
	PendingMessages  int64  `json:"pending_messages"`
	ActiveProcessing int64  `json:"active_processing"`
	Status           string `json:"status"`
}

type monitor struct {
	mu        sync.RWMutex
	detectors map[string]*DetectorStatus
	pressure  map[string]*BackpressureReport
}

func main() {
	var (
		natsURL  = flag.String("nats", "nats://127.0.0.1:4222", "NATS server URL")
		interval = flag.Duration("interval", 10*time.Second, "Refresh interval")
	)
	flag.Parse()

	conn, err := nats.Connect(*natsURL)
	if err != nil {
		log.Fatalf("Failed to connect to NATS: %v", err)
	}
	defer conn.Close()

	m := &monitor{
		detectors: map[string]*DetectorStatus{},
		pressure:  map[string]*BackpressureReport{},
	}

	if _, err := conn.Subscribe("detectors.*.heartbeat", func(msg *nats.Msg) {
		var status DetectorStatus
		if err := json.Unmarshal(msg.Data, &status); err != nil {
			return
		}
		status.LastSeen = time.Now()
		m.mu.Lock()
		m.detectors[status.ModelName] = &status
		m.mu.Unlock()
	}); err != nil {
		log.Fatalf("Failed to subscribe to heartbeats: %v", err)
	}

	if _, err := conn.Subscribe("detectors.monitoring.*", func(msg *nats.Msg) {
		var report BackpressureReport
		if err := json.Unmarshal(msg.Data, &report); err != nil {
			return
		}
		m.mu.Lock()
		m.pressure[report.ModelName] = &report
		m.mu.Unlock()
	}); err != nil {
		log.Fatalf("Failed to subscribe to monitoring: %v", err)
	}

	fmt.Printf("Watching detector heartbeats on %s (refresh %s)\n", *natsURL, *interval)

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-ticker.C:
			m.render()
		case <-sig:
			return
		}
	}
}

func (m *monitor) render() {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.detectors) == 0 {
		fmt.Println("No detectors seen yet")
		return
	}

	names := make([]string, 0, len(m.detectors))
	for name := range m.detectors {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Printf("\n%-16s %-8s %-10s %-24s %-20s %s\n", "DETECTOR", "STATE", "VERSION", "CACHE (hit/miss/size)", "QUEUE (pend/active)", "LAST SEEN")
	for _, name := range names {
		d := m.detectors[name]
		queue := "-"
		if p, ok := m.pressure[name]; ok {
			queue = fmt.Sprintf("%d/%d %s", p.PendingMessages, p.ActiveProcessing, p.Status)
		}
		fmt.Printf("%-16s %-8s %-10s %-24s %-20s %s\n",
			d.ModelName,
			d.State,
			d.ModelVersion,
			fmt.Sprintf("%d/%d/%d", d.Cache.Hits, d.Cache.Misses, d.Cache.Entries),
			queue,
			d.LastSeen.Format("15:04:05"))
	}
}
