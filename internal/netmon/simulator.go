// Package netmon feeds the network monitor panel with simulated
// connection events. It captures nothing from the real network.
package netmon

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/guardview/guardview/internal/models"
)

const defaultMaxEvents = 200

var protocols = []string{"TCP", "UDP", "TLS", "DNS", "HTTP"}

// Simulator produces a rolling window of fake network events.
type Simulator struct {
	mu        sync.RWMutex
	events    []models.NetworkEvent
	maxEvents int
	rng       *rand.Rand
}

// NewSimulator creates a simulator with the given window size; sizes
// below 1 fall back to the default.
func NewSimulator(maxEvents int) *Simulator {
	if maxEvents < 1 {
		maxEvents = defaultMaxEvents
	}
	return &Simulator{
		maxEvents: maxEvents,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Run appends one event per interval until ctx is cancelled.
func (s *Simulator) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.append(s.generate())
		}
	}
}

// Events returns a copy of the current window, oldest first.
func (s *Simulator) Events() []models.NetworkEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.NetworkEvent, len(s.events))
	copy(out, s.events)
	return out
}

func (s *Simulator) append(ev models.NetworkEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	if len(s.events) > s.maxEvents {
		s.events = s.events[len(s.events)-s.maxEvents:]
	}
}

// generate is only called from the Run goroutine, so rng needs no lock.
func (s *Simulator) generate() models.NetworkEvent {
	return models.NetworkEvent{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		SrcIP:     fmt.Sprintf("192.168.1.%d", 2+s.rng.Intn(250)),
		DstIP:     fmt.Sprintf("%d.%d.%d.%d", 1+s.rng.Intn(222), s.rng.Intn(255), s.rng.Intn(255), 1+s.rng.Intn(253)),
		SrcPort:   1024 + s.rng.Intn(64000),
		DstPort:   wellKnownPort(s.rng),
		Protocol:  protocols[s.rng.Intn(len(protocols))],
		Bytes:     64 + s.rng.Intn(1400),
	}
}

func wellKnownPort(rng *rand.Rand) int {
	ports := []int{53, 80, 123, 443, 8443}
	return ports[rng.Intn(len(ports))]
}
