package telemetry

import (
	"encoding/json"
	"io"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

// Виды записей телеметрии
const (
	KindStep  = "step"
	KindQuery = "query"
	KindActor = "actor"
)

// TelemetryData одна запись телеметрии
type TelemetryData struct {
	Timestamp int64       `json:"timestamp"`            // Время в миллисекундах
	Kind      string      `json:"kind"`                 // step, query или actor
	Name      string      `json:"name,omitempty"`       // Вид запроса или имя персонажа
	Substeps  int         `json:"substeps,omitempty"`   // Подшаги симуляции
	ElapsedUs int64       `json:"elapsed_us,omitempty"` // Длительность шага в микросекундах
	Hit       bool        `json:"hit,omitempty"`        // Запрос что-то нашел
	Position  *mgl64.Vec3 `json:"position,omitempty"`   // Позиция персонажа
	OnGround  bool        `json:"on_ground,omitempty"`  // Персонаж стоит на земле
}

// QueryStats счетчики одного вида запросов
type QueryStats struct {
	Count int `json:"count"`
	Hits  int `json:"hits"`
}

// Summary агрегированная статистика за период
type Summary struct {
	Steps        int                   `json:"steps"`
	Substeps     int                   `json:"substeps"`
	StepTime     time.Duration         `json:"step_time_ns"`
	MaxStepTime  time.Duration         `json:"max_step_time_ns"`
	Queries      map[string]QueryStats `json:"queries"`
	ActorSamples int                   `json:"actor_samples"`
}

// TelemetryManager собирает статистику физики. Реализует physics.Monitor.
type TelemetryManager struct {
	enabled    bool
	data       []TelemetryData
	mutex      sync.Mutex
	maxEntries int

	summary       Summary
	lastPrint     time.Time
	printInterval time.Duration
	logger        *log.Logger
}

// NewTelemetryManager создает менеджер с буфером на maxEntries записей
func NewTelemetryManager(maxEntries int, printInterval time.Duration, logger *log.Logger) *TelemetryManager {
	if maxEntries <= 0 {
		maxEntries = 200
	}
	if logger == nil {
		logger = log.Default()
	}
	return &TelemetryManager{
		enabled:       true,
		data:          make([]TelemetryData, 0, maxEntries),
		maxEntries:    maxEntries,
		summary:       Summary{Queries: make(map[string]QueryStats)},
		lastPrint:     time.Now(),
		printInterval: printInterval,
		logger:        logger,
	}
}

// RecordStep записывает шаг симуляции
func (tm *TelemetryManager) RecordStep(substeps int, elapsed time.Duration) {
	tm.mutex.Lock()
	defer tm.mutex.Unlock()
	if !tm.enabled {
		return
	}

	tm.summary.Steps++
	tm.summary.Substeps += substeps
	tm.summary.StepTime += elapsed
	if elapsed > tm.summary.MaxStepTime {
		tm.summary.MaxStepTime = elapsed
	}
	tm.appendLocked(TelemetryData{
		Kind:      KindStep,
		Substeps:  substeps,
		ElapsedUs: elapsed.Microseconds(),
	})
}

// RecordQuery записывает пространственный запрос
func (tm *TelemetryManager) RecordQuery(kind string, hit bool) {
	tm.mutex.Lock()
	defer tm.mutex.Unlock()
	if !tm.enabled {
		return
	}

	stats := tm.summary.Queries[kind]
	stats.Count++
	if hit {
		stats.Hits++
	}
	tm.summary.Queries[kind] = stats
	tm.appendLocked(TelemetryData{Kind: KindQuery, Name: kind, Hit: hit})
}

// LogActorState записывает положение персонажа
func (tm *TelemetryManager) LogActorState(name string, position mgl64.Vec3, onGround bool) {
	tm.mutex.Lock()
	defer tm.mutex.Unlock()
	if !tm.enabled {
		return
	}

	tm.summary.ActorSamples++
	tm.appendLocked(TelemetryData{Kind: KindActor, Name: name, Position: &position, OnGround: onGround})
}

func (tm *TelemetryManager) appendLocked(entry TelemetryData) {
	entry.Timestamp = time.Now().UnixMilli()
	tm.data = append(tm.data, entry)

	// Ограничиваем размер буфера
	if len(tm.data) > tm.maxEntries {
		tm.data = tm.data[len(tm.data)-tm.maxEntries:]
	}
}

// Snapshot возвращает копию текущей статистики
func (tm *TelemetryManager) Snapshot() Summary {
	tm.mutex.Lock()
	defer tm.mutex.Unlock()
	return tm.snapshotLocked()
}

func (tm *TelemetryManager) snapshotLocked() Summary {
	out := tm.summary
	out.Queries = make(map[string]QueryStats, len(tm.summary.Queries))
	for k, v := range tm.summary.Queries {
		out.Queries[k] = v
	}
	return out
}

// Records возвращает копию буфера записей
func (tm *TelemetryManager) Records() []TelemetryData {
	tm.mutex.Lock()
	defer tm.mutex.Unlock()
	return append([]TelemetryData(nil), tm.data...)
}

// PrintSummary выводит сводку, если прошел интервал, и сбрасывает счетчики.
// Возвращает true, если сводка была выведена.
func (tm *TelemetryManager) PrintSummary() bool {
	tm.mutex.Lock()
	defer tm.mutex.Unlock()
	if !tm.enabled {
		return false
	}

	now := time.Now()
	if now.Sub(tm.lastPrint) < tm.printInterval {
		return false
	}

	s := tm.summary
	tm.logger.Println("[Telemetry] ===== ФИЗИКА =====")
	tm.logger.Printf("[Telemetry] Шагов: %d, подшагов: %d, записей в буфере: %d", s.Steps, s.Substeps, len(tm.data))
	if s.Steps > 0 {
		tm.logger.Printf("[Telemetry] Среднее время шага: %v, максимум: %v",
			s.StepTime/time.Duration(s.Steps), s.MaxStepTime)
	}

	kinds := make([]string, 0, len(s.Queries))
	for k := range s.Queries {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		q := s.Queries[k]
		tm.logger.Printf("[Telemetry] %s: %d (попаданий %d)", k, q.Count, q.Hits)
	}

	// Сброс счетчиков
	tm.summary = Summary{Queries: make(map[string]QueryStats)}
	tm.lastPrint = now
	return true
}

// GetTelemetryJSON возвращает сводку и буфер записей в JSON формате
func (tm *TelemetryManager) GetTelemetryJSON() (string, error) {
	tm.mutex.Lock()
	payload := struct {
		Summary Summary         `json:"summary"`
		Records []TelemetryData `json:"records"`
	}{tm.snapshotLocked(), append([]TelemetryData(nil), tm.data...)}
	tm.mutex.Unlock()

	jsonData, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", err
	}
	return string(jsonData), nil
}

// WriteJSON пишет телеметрию в w
func (tm *TelemetryManager) WriteJSON(w io.Writer) error {
	data, err := tm.GetTelemetryJSON()
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, data)
	return err
}

// SetEnabled включает/выключает телеметрию
func (tm *TelemetryManager) SetEnabled(enabled bool) {
	tm.mutex.Lock()
	defer tm.mutex.Unlock()

	tm.enabled = enabled
	tm.logger.Printf("[Telemetry] Телеметрия %s", map[bool]string{true: "включена", false: "выключена"}[enabled])
}

// Clear очищает все данные телеметрии
func (tm *TelemetryManager) Clear() {
	tm.mutex.Lock()
	defer tm.mutex.Unlock()

	tm.data = make([]TelemetryData, 0, tm.maxEntries)
	tm.summary = Summary{Queries: make(map[string]QueryStats)}
	tm.logger.Println("[Telemetry] Данные телеметрии очищены")
}
