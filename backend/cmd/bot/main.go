package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand/v2"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/LeonardMeagher2/openmw-tes3mp/backend/internal/transport"
)

// Bot управляет одним персонажем на сервере физики через gRPC
type Bot struct {
	ID          string
	ServerAddr  string
	Mesh        string
	Pattern     string
	Speed       float64
	Duration    time.Duration
	CommandRate time.Duration

	client transport.IPhysicsClient
	stats  BotStats
	start  mgl64.Vec3
}

// BotStats содержит статистику работы бота
type BotStats struct {
	CommandsSent int
	Probes       int
	ProbeHits    int
	Errors       int
	StartTime    time.Time
	mu           sync.RWMutex
}

// NewBot создает нового бота
func NewBot(id, serverAddr, mesh, pattern string, speed float64, duration, commandRate time.Duration) *Bot {
	return &Bot{
		ID:          id,
		ServerAddr:  serverAddr,
		Mesh:        mesh,
		Pattern:     pattern,
		Speed:       speed,
		Duration:    duration,
		CommandRate: commandRate,
		stats:       BotStats{StartTime: time.Now()},
		start:       mgl64.Vec3{rand.Float64()*200 - 100, rand.Float64()*200 - 100, 500},
	}
}

// Connect создает клиента и персонажа бота
func (b *Bot) Connect(ctx context.Context) error {
	client, err := transport.NewPhysicsClient(b.ServerAddr)
	if err != nil {
		return err
	}
	b.client = client

	state, err := client.AddCharacter(ctx, &transport.AddCharacterRequest{
		Name:     b.ID,
		Mesh:     b.Mesh,
		Position: b.start,
	})
	if err != nil {
		client.Close()
		return fmt.Errorf("не удалось создать персонажа: %w", err)
	}
	log.Printf("[Bot %s] Персонаж создан в (%.1f, %.1f, %.1f), капсула: %v",
		b.ID, state.Position[0], state.Position[1], state.Position[2], state.Capsule)
	return nil
}

// Disconnect удаляет персонажа и закрывает соединение
func (b *Bot) Disconnect() {
	if b.client == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := b.client.RemoveCharacter(ctx, &transport.NameRequest{Name: b.ID}); err != nil {
		log.Printf("[Bot %s] Ошибка удаления персонажа: %v", b.ID, err)
	}
	b.client.Close()
	b.client = nil
	log.Printf("[Bot %s] Отключен", b.ID)
}

// generateForce направление движения в зависимости от паттерна
func (b *Bot) generateForce() mgl64.Vec3 {
	elapsed := time.Since(b.stats.StartTime).Seconds()
	var dir mgl64.Vec3
	switch b.Pattern {
	case "circle":
		angle := elapsed * 0.5
		dir = mgl64.Vec3{math.Cos(angle), math.Sin(angle), 0}
	case "linear":
		// Вперед-назад по оси X
		dir = mgl64.Vec3{math.Sin(elapsed * 0.3), 0, 0}
	default: // "random"
		angle := rand.Float64() * 2 * math.Pi
		dir = mgl64.Vec3{math.Cos(angle), math.Sin(angle), 0}
	}
	return dir.Mul(b.Speed)
}

func (b *Bot) recordError() {
	b.stats.mu.Lock()
	b.stats.Errors++
	b.stats.mu.Unlock()
}

// sendForce задает персонажу силу движения
func (b *Bot) sendForce(ctx context.Context) error {
	force := b.generateForce()
	_, err := b.client.SetCharacterState(ctx, &transport.SetCharacterStateRequest{
		Name:          b.ID,
		InertialForce: &force,
	})
	if err != nil {
		return fmt.Errorf("ошибка отправки силы: %w", err)
	}
	b.stats.mu.Lock()
	b.stats.CommandsSent++
	b.stats.mu.Unlock()
	return nil
}

// probe читает состояние персонажа и бросает луч под ноги
func (b *Bot) probe(ctx context.Context) error {
	state, err := b.client.GetCharacter(ctx, &transport.NameRequest{Name: b.ID})
	if err != nil {
		return err
	}
	from := state.Position.Add(mgl64.Vec3{0, 0, state.HalfExtents[2]})
	raycastingOnly := false
	res, err := b.client.RayTest(ctx, &transport.RayTestRequest{
		From:           from,
		To:             from.Sub(mgl64.Vec3{0, 0, 1000}),
		RaycastingOnly: &raycastingOnly,
	})
	if err != nil {
		return err
	}

	b.stats.mu.Lock()
	b.stats.Probes++
	if res.Hit {
		b.stats.ProbeHits++
	}
	b.stats.mu.Unlock()

	log.Printf("[Bot %s] Позиция (%.1f, %.1f, %.1f), на земле: %v, под ногами: %q",
		b.ID, state.Position[0], state.Position[1], state.Position[2], state.OnGround, res.Name)
	return nil
}

// Run запускает бота до истечения Duration или отмены ctx
func (b *Bot) Run(ctx context.Context) error {
	if err := b.Connect(ctx); err != nil {
		return err
	}
	defer b.Disconnect()

	commandTicker := time.NewTicker(b.CommandRate)
	defer commandTicker.Stop()
	probeTicker := time.NewTicker(time.Second)
	defer probeTicker.Stop()

	runCtx, cancel := context.WithTimeout(ctx, b.Duration)
	defer cancel()

	for {
		select {
		case <-runCtx.Done():
			log.Printf("[Bot %s] Завершение работы", b.ID)
			return nil
		case <-commandTicker.C:
			if err := b.sendForce(runCtx); err != nil && runCtx.Err() == nil {
				log.Printf("[Bot %s] %v", b.ID, err)
				b.recordError()
			}
		case <-probeTicker.C:
			if err := b.probe(runCtx); err != nil && runCtx.Err() == nil {
				log.Printf("[Bot %s] Ошибка опроса: %v", b.ID, err)
				b.recordError()
			}
		}
	}
}

// PrintStats выводит статистику бота
func (b *Bot) PrintStats() {
	b.stats.mu.RLock()
	defer b.stats.mu.RUnlock()

	duration := time.Since(b.stats.StartTime)
	log.Printf("[Bot %s] Статистика:", b.ID)
	log.Printf("  Время работы: %v", duration)
	log.Printf("  Команд отправлено: %d", b.stats.CommandsSent)
	log.Printf("  Лучей: %d (попаданий %d)", b.stats.Probes, b.stats.ProbeHits)
	log.Printf("  Ошибок: %d", b.stats.Errors)
	if b.stats.CommandsSent > 0 {
		log.Printf("  Частота команд: %.2f команд/сек", float64(b.stats.CommandsSent)/duration.Seconds())
	}
}

func main() {
	// Флаги командной строки
	var (
		serverAddr  = flag.String("addr", "localhost:50051", "Адрес gRPC сервера физики")
		botCount    = flag.Int("count", 1, "Количество ботов")
		mesh        = flag.String("mesh", "meshes/base_anim.nif", "Меш персонажа")
		pattern     = flag.String("pattern", "random", "Паттерн движения (random, circle, linear)")
		speed       = flag.Float64("speed", 100, "Скорость движения")
		duration    = flag.Duration("duration", 30*time.Second, "Длительность работы бота")
		commandRate = flag.Duration("rate", 100*time.Millisecond, "Частота отправки команд")
	)
	flag.Parse()

	// Обработка сигналов для корректного завершения
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var wg sync.WaitGroup
	bots := make([]*Bot, 0, *botCount)
	for i := 0; i < *botCount; i++ {
		bot := NewBot(fmt.Sprintf("bot_%d", i+1), *serverAddr, *mesh, *pattern, *speed, *duration, *commandRate)
		bots = append(bots, bot)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := bot.Run(ctx); err != nil {
				log.Printf("[Bot %s] Ошибка: %v", bot.ID, err)
			}
		}()
	}
	wg.Wait()

	// Выводим статистику
	for _, bot := range bots {
		bot.PrintStats()
	}
}
