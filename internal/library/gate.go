package library

import (
	"context"
	"sync"
)

// ScanGate is closed while a scan is running. Waiters block until the scan
// ends or their context is cancelled.
type ScanGate struct {
	mu      sync.Mutex
	running bool
	idle    chan struct{}
}

// NewScanGate returns an open gate.
func NewScanGate() *ScanGate {
	idle := make(chan struct{})
	close(idle)
	return &ScanGate{idle: idle}
}

// Hold closes the gate. It returns false when it is already held.
func (g *ScanGate) Hold() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.running {
		return false
	}
	g.running = true
	g.idle = make(chan struct{})
	return true
}

// Release opens the gate and wakes every waiter.
func (g *ScanGate) Release() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.running {
		return
	}
	g.running = false
	close(g.idle)
}

// Held reports whether a scan holds the gate.
func (g *ScanGate) Held() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.running
}

// WaitScan blocks until the gate is open.
func (g *ScanGate) WaitScan(ctx context.Context) error {
	g.mu.Lock()
	idle := g.idle
	g.mu.Unlock()
	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
