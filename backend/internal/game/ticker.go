package game

import (
	"context"
	"errors"
	"log"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// TickSystem одна система игрового цикла
type TickSystem interface {
	Update(deltaTime time.Duration) error
	GetName() string
	GetPriority() int // меньше = раньше
}

// Не чаще одного предупреждения о медленных тиках в этот интервал
const slowTickLogInterval = time.Second

// GameTicker вызывает системы с фиксированной частотой
type GameTicker struct {
	targetTPS    int
	tickDuration time.Duration

	running   atomic.Bool
	paused    atomic.Bool
	tickCount atomic.Uint64

	systemsMu sync.RWMutex
	systems   []TickSystem
	perf      *PerformanceMonitor

	ctx       context.Context
	cancel    context.CancelFunc
	pauseChan chan bool
	done      chan struct{}

	// Поля ниже под statsMu
	statsMu      sync.Mutex
	startTime    time.Time
	lastTickTime time.Time
	avgTick      time.Duration
	maxTick      time.Duration
	lateTicks    uint64
	lastSlowLog  time.Time
	slowSilenced int

	logger *log.Logger
}

func NewGameTicker(targetTPS int, logger *log.Logger) *GameTicker {
	if targetTPS <= 0 {
		targetTPS = 60
	}
	if logger == nil {
		logger = log.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &GameTicker{
		targetTPS:    targetTPS,
		tickDuration: time.Second / time.Duration(targetTPS),
		perf:         NewPerformanceMonitor(50),
		ctx:          ctx,
		cancel:       cancel,
		pauseChan:    make(chan bool, 1),
		done:         make(chan struct{}),
		logger:       logger,
	}
}

// TickDuration длительность одного тика
func (gt *GameTicker) TickDuration() time.Duration { return gt.tickDuration }

// Start запускает цикл. Остановленный тикер заново не запускается.
func (gt *GameTicker) Start() error {
	if gt.ctx.Err() != nil {
		return errors.New("game ticker already stopped")
	}
	if !gt.running.CompareAndSwap(false, true) {
		return nil
	}

	gt.statsMu.Lock()
	gt.startTime = time.Now()
	gt.lastTickTime = gt.startTime
	gt.statsMu.Unlock()

	gt.logger.Printf("[GameTicker] Запуск: %d TPS, тик %v", gt.targetTPS, gt.tickDuration)
	go gt.loop()
	return nil
}

// Stop останавливает цикл и ждет конца текущего тика
func (gt *GameTicker) Stop() {
	if !gt.running.CompareAndSwap(true, false) {
		return
	}
	gt.cancel()
	<-gt.done
	gt.logger.Printf("[GameTicker] Остановлен после %d тиков", gt.tickCount.Load())
}

func (gt *GameTicker) Pause() { gt.setPaused(true) }

func (gt *GameTicker) Resume() { gt.setPaused(false) }

func (gt *GameTicker) setPaused(pause bool) {
	if gt.paused.Swap(pause) == pause {
		return
	}
	// Непрочитанная команда заменяется новой
	select {
	case <-gt.pauseChan:
	default:
	}
	select {
	case gt.pauseChan <- pause:
	default:
	}
}

// RegisterSystem добавляет систему, порядок систем с равным приоритетом сохраняется
func (gt *GameTicker) RegisterSystem(system TickSystem) {
	gt.systemsMu.Lock()
	gt.systems = append(gt.systems, system)
	sort.SliceStable(gt.systems, func(i, j int) bool {
		return gt.systems[i].GetPriority() < gt.systems[j].GetPriority()
	})
	gt.systemsMu.Unlock()

	gt.perf.register(system.GetName())
	gt.logger.Printf("[GameTicker] Система %s, приоритет %d", system.GetName(), system.GetPriority())
}

func (gt *GameTicker) loop() {
	defer close(gt.done)
	ticker := time.NewTicker(gt.tickDuration)
	defer ticker.Stop()

	for {
		select {
		case <-gt.ctx.Done():
			return
		case pause := <-gt.pauseChan:
			for pause {
				select {
				case <-gt.ctx.Done():
					return
				case pause = <-gt.pauseChan:
				}
			}
			// Пауза не попадает в delta следующего тика
			gt.statsMu.Lock()
			gt.lastTickTime = time.Now()
			gt.statsMu.Unlock()
		case now := <-ticker.C:
			gt.statsMu.Lock()
			delta := now.Sub(gt.lastTickTime)
			gt.lastTickTime = now
			if delta > gt.tickDuration*2 {
				gt.lateTicks++
			}
			gt.statsMu.Unlock()
			gt.Tick(delta)
		}
	}
}

// Tick один раз выполняет все системы с заданным deltaTime
func (gt *GameTicker) Tick(deltaTime time.Duration) {
	start := time.Now()
	gt.tickCount.Add(1)

	gt.systemsMu.RLock()
	systems := append([]TickSystem(nil), gt.systems...)
	gt.systemsMu.RUnlock()
	for _, system := range systems {
		gt.runSystem(system, deltaTime)
	}

	gt.recordTick(time.Since(start))
}

func (gt *GameTicker) runSystem(system TickSystem, deltaTime time.Duration) {
	name := system.GetName()
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			gt.logger.Printf("[GameTicker] Паника в системе %s: %v", name, r)
			gt.perf.recordError(name)
		}
	}()

	err := system.Update(deltaTime)
	gt.perf.recordExecution(name, time.Since(start))
	if err != nil {
		gt.logger.Printf("[GameTicker] Ошибка в системе %s: %v", name, err)
		gt.perf.recordError(name)
	}
}

// recordTick обновляет среднее и предупреждает о тиках дольше половины бюджета
func (gt *GameTicker) recordTick(elapsed time.Duration) {
	gt.statsMu.Lock()
	defer gt.statsMu.Unlock()

	gt.maxTick = max(gt.maxTick, elapsed)
	if gt.avgTick == 0 {
		gt.avgTick = elapsed
	} else {
		gt.avgTick = (gt.avgTick*9 + elapsed) / 10
	}

	if elapsed <= gt.tickDuration/2 {
		return
	}
	now := time.Now()
	if now.Sub(gt.lastSlowLog) < slowTickLogInterval {
		gt.slowSilenced++
		return
	}
	gt.logger.Printf("[GameTicker] Медленный тик: %v при бюджете %v (пропущено предупреждений: %d)",
		elapsed, gt.tickDuration, gt.slowSilenced)
	gt.lastSlowLog = now
	gt.slowSilenced = 0
}

// GetStats снимок состояния цикла
func (gt *GameTicker) GetStats() TickerStats {
	gt.systemsMu.RLock()
	systems := len(gt.systems)
	gt.systemsMu.RUnlock()

	gt.statsMu.Lock()
	defer gt.statsMu.Unlock()
	stats := TickerStats{
		TargetTPS:       gt.targetTPS,
		TickCount:       gt.tickCount.Load(),
		AverageTickTime: gt.avgTick,
		MaxTickTime:     gt.maxTick,
		LateTicks:       gt.lateTicks,
		Running:         gt.running.Load(),
		Paused:          gt.paused.Load(),
		Systems:         systems,
	}
	if !gt.startTime.IsZero() {
		stats.Uptime = time.Since(gt.startTime)
		stats.ActualTPS = float64(stats.TickCount) / stats.Uptime.Seconds()
	}
	return stats
}

func (gt *GameTicker) GetTickCount() uint64 { return gt.tickCount.Load() }

// GetSystemMetrics метрики системы по имени
func (gt *GameTicker) GetSystemMetrics(name string) (SystemMetrics, bool) {
	return gt.perf.Get(name)
}

// GetSystemsStats метрики всех систем
func (gt *GameTicker) GetSystemsStats() []SystemMetrics { return gt.perf.All() }
