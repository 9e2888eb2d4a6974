package game

import (
	"sort"
	"sync"
	"time"
)

// SystemMetrics метрики одной системы
type SystemMetrics struct {
	Name            string        `json:"name"`
	LastTime        time.Duration `json:"last_time_ns"`
	AverageTime     time.Duration `json:"average_time_ns"`
	MaxTime         time.Duration `json:"max_time_ns"`
	TotalExecutions uint64        `json:"total_executions"`
	Errors          uint64        `json:"errors"`
}

// TickerStats снимок состояния игрового цикла
type TickerStats struct {
	TargetTPS       int           `json:"target_tps"`
	ActualTPS       float64       `json:"actual_tps"`
	TickCount       uint64        `json:"tick_count"`
	Uptime          time.Duration `json:"uptime_ns"`
	AverageTickTime time.Duration `json:"average_tick_time_ns"`
	MaxTickTime     time.Duration `json:"max_tick_time_ns"`
	LateTicks       uint64        `json:"late_ticks"`
	Running         bool          `json:"running"`
	Paused          bool          `json:"paused"`
	Systems         int           `json:"systems"`
}

// window кольцевой буфер последних замеров с текущей суммой
type window struct {
	samples []time.Duration
	next    int
	filled  bool
	sum     time.Duration
}

func newWindow(size int) window {
	if size <= 0 {
		size = 1
	}
	return window{samples: make([]time.Duration, size)}
}

func (w *window) add(d time.Duration) {
	w.sum += d - w.samples[w.next]
	w.samples[w.next] = d
	w.next = (w.next + 1) % len(w.samples)
	if w.next == 0 {
		w.filled = true
	}
}

func (w *window) average() time.Duration {
	n := w.next
	if w.filled {
		n = len(w.samples)
	}
	if n == 0 {
		return 0
	}
	return w.sum / time.Duration(n)
}

type systemEntry struct {
	metrics SystemMetrics
	recent  window
}

// PerformanceMonitor копит время выполнения систем в скользящем окне
type PerformanceMonitor struct {
	mu         sync.RWMutex
	systems    map[string]*systemEntry
	windowSize int
}

func NewPerformanceMonitor(windowSize int) *PerformanceMonitor {
	return &PerformanceMonitor{
		systems:    make(map[string]*systemEntry),
		windowSize: windowSize,
	}
}

func (pm *PerformanceMonitor) register(name string) {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.systems[name] = &systemEntry{
		metrics: SystemMetrics{Name: name},
		recent:  newWindow(pm.windowSize),
	}
}

func (pm *PerformanceMonitor) recordExecution(name string, elapsed time.Duration) {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	e, ok := pm.systems[name]
	if !ok {
		return
	}
	e.metrics.LastTime = elapsed
	e.metrics.TotalExecutions++
	e.metrics.MaxTime = max(e.metrics.MaxTime, elapsed)
	e.recent.add(elapsed)
	e.metrics.AverageTime = e.recent.average()
}

func (pm *PerformanceMonitor) recordError(name string) {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	if e, ok := pm.systems[name]; ok {
		e.metrics.Errors++
	}
}

// Get копия метрик системы
func (pm *PerformanceMonitor) Get(name string) (SystemMetrics, bool) {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	e, ok := pm.systems[name]
	if !ok {
		return SystemMetrics{}, false
	}
	return e.metrics, true
}

// All метрики всех систем, отсортированные по имени
func (pm *PerformanceMonitor) All() []SystemMetrics {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	out := make([]SystemMetrics, 0, len(pm.systems))
	for _, e := range pm.systems {
		out = append(out, e.metrics)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
