package metrics

import (
	"runtime"
	"sync"
	"time"
)

// Collector records shell events and periodically refreshes system gauges.
// All methods are safe on a nil *Collector so callers can run without metrics.
type Collector struct {
	metrics     *Metrics
	windowCount func() int
	startTime   time.Time
	interval    time.Duration
	ticker      *time.Ticker
	done        chan struct{}
	mu          sync.Mutex
	running     bool
}

// NewCollector creates a new metrics collector. windowCount may be nil.
func NewCollector(metrics *Metrics, windowCount func() int) *Collector {
	return &Collector{
		metrics:     metrics,
		windowCount: windowCount,
		startTime:   time.Now(),
		interval:    15 * time.Second,
	}
}

// Metrics returns the underlying metric set.
func (c *Collector) Metrics() *Metrics {
	if c == nil {
		return nil
	}
	return c.metrics
}

// Start starts the periodic collection loop.
func (c *Collector) Start() {
	if c == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return
	}

	c.running = true
	c.done = make(chan struct{})
	c.ticker = time.NewTicker(c.interval)

	go c.collectLoop(c.ticker, c.done)
}

// Stop stops the collection loop.
func (c *Collector) Stop() {
	if c == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		return
	}

	close(c.done)
	c.ticker.Stop()
	c.running = false
}

func (c *Collector) collectLoop(ticker *time.Ticker, done chan struct{}) {
	c.collect()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			c.collect()
		}
	}
}

func (c *Collector) collect() {
	c.metrics.Uptime.Set(time.Since(c.startTime).Seconds())
	c.metrics.GoRoutines.Set(float64(runtime.NumGoroutine()))

	if c.windowCount != nil {
		c.metrics.WindowsAlive.Set(float64(c.windowCount()))
	}
}

// RecordUpdateEvent counts one update client event of the given kind.
func (c *Collector) RecordUpdateEvent(kind string) {
	if c == nil {
		return
	}
	c.metrics.UpdateEvents.WithLabelValues(kind).Inc()
}

// RecordDownloadProgress sets the current download percentage.
func (c *Collector) RecordDownloadProgress(percent float64) {
	if c == nil {
		return
	}
	c.metrics.UpdateProgress.Set(percent)
}

// PopupOpened records a popup being shown and returns the function that
// records it closing.
func (c *Collector) PopupOpened() func() {
	if c == nil {
		return func() {}
	}

	c.metrics.PopupsTotal.Inc()
	c.metrics.PopupsOpen.Inc()

	return func() {
		c.metrics.PopupsOpen.Dec()
	}
}

// RecordMainWindow records a main window being created.
func (c *Collector) RecordMainWindow() {
	if c == nil {
		return
	}
	c.metrics.MainWindows.Inc()
}
