package services

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"
)

// Prober answers whether the collection endpoint is reachable right now.
type Prober interface {
	Probe(ctx context.Context) bool
}

// HTTPProbe considers the device online when a HEAD request to the probe
// URL gets any HTTP response at all. Transport errors mean offline.
type HTTPProbe struct {
	url    string
	client *http.Client
}

func NewHTTPProbe(url string, timeout time.Duration) *HTTPProbe {
	return &HTTPProbe{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

func (p *HTTPProbe) Probe(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, p.url, nil)
	if err != nil {
		return false
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return true
}

// ConnectivityMonitor tracks online/offline transitions and fires
// edge-triggered callbacks. Transitions come from two sources: the
// background probe worker, and the form UI reporting the browser's own
// online/offline events through the API.
type ConnectivityMonitor struct {
	probe    Prober
	interval time.Duration

	mu        sync.Mutex
	online    bool
	onOnline  []func()
	onOffline []func()

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewConnectivityMonitor creates a monitor that starts offline until the
// first probe or report says otherwise. probe may be nil to rely on
// UI-reported transitions alone.
func NewConnectivityMonitor(probe Prober, interval time.Duration) *ConnectivityMonitor {
	return &ConnectivityMonitor{
		probe:    probe,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// OnOnline registers a callback fired on each offline-to-online edge.
// Register before Start.
func (m *ConnectivityMonitor) OnOnline(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onOnline = append(m.onOnline, fn)
}

// OnOffline registers a callback fired on each online-to-offline edge.
func (m *ConnectivityMonitor) OnOffline(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onOffline = append(m.onOffline, fn)
}

// IsOnline reports the last observed connectivity.
func (m *ConnectivityMonitor) IsOnline() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// Report applies a UI-observed connectivity change.
func (m *ConnectivityMonitor) Report(online bool) {
	m.transition(online)
}

// Start launches the background probe worker. No-op without a probe.
func (m *ConnectivityMonitor) Start() {
	if m.probe == nil || m.interval <= 0 {
		log.Println("[Connectivity] Probe disabled, relying on reported transitions")
		return
	}

	m.wg.Add(1)
	go m.worker()
}

// Stop shuts the probe worker down.
func (m *ConnectivityMonitor) Stop() {
	close(m.stopCh)
	m.wg.Wait()
}

func (m *ConnectivityMonitor) worker() {
	defer m.wg.Done()
	log.Printf("[Connectivity] Probe worker started (every %s)", m.interval)

	// Probe once up front so the engine doesn't wait a full interval
	m.runProbe()

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopCh:
			log.Println("[Connectivity] Probe worker stopping")
			return
		case <-ticker.C:
			m.runProbe()
		}
	}
}

func (m *ConnectivityMonitor) runProbe() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	m.transition(m.probe.Probe(ctx))
}

func (m *ConnectivityMonitor) transition(online bool) {
	m.mu.Lock()
	if m.online == online {
		m.mu.Unlock()
		return
	}
	m.online = online
	var callbacks []func()
	if online {
		callbacks = m.onOnline
	} else {
		callbacks = m.onOffline
	}
	m.mu.Unlock()

	if online {
		log.Println("[Connectivity] Went online")
	} else {
		log.Println("[Connectivity] Went offline")
	}
	for _, fn := range callbacks {
		fn()
	}
}
