package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"

	"github.com/LeonardMeagher2/openmw-tes3mp/backend/internal/game"
	"github.com/LeonardMeagher2/openmw-tes3mp/backend/internal/physics"
	"github.com/LeonardMeagher2/openmw-tes3mp/backend/internal/telemetry"
	"github.com/LeonardMeagher2/openmw-tes3mp/backend/internal/transport"
	"github.com/LeonardMeagher2/openmw-tes3mp/backend/internal/transport/ws"
	"github.com/LeonardMeagher2/openmw-tes3mp/backend/internal/world"
)

// Интервал выборки положений персонажей для телеметрии
const actorSampleInterval = time.Second

func main() {
	configPath := flag.String("config", "config/engine.yaml", "Путь к конфигурации движка")
	flag.Parse()

	cfg, err := world.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("[Server] Ошибка загрузки конфигурации: %v", err)
	}
	store := world.NewConfigStore(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Меши и загрузчик форм
	library := world.NewMeshLibrary()
	n, err := library.LoadDir(cfg.Assets.ManifestDir)
	if err != nil {
		log.Fatalf("[Server] Ошибка загрузки манифестов: %v", err)
	}
	log.Printf("[Server] Загружено мешей: %d из %s", n, cfg.Assets.ManifestDir)
	loader := world.NewShapeLoader(library, nil)

	// Физический мир
	w := physics.NewWorld(loader, store.Physics(), nil)
	scene := ws.NewDebugScene()
	w.SetSceneRoot(scene)

	tm := telemetry.NewTelemetryManager(cfg.Telemetry.MaxRecords, cfg.Telemetry.SummaryInterval, nil)
	tm.SetEnabled(cfg.Telemetry.Enabled)
	w.SetMonitor(tm)

	tiles := world.PopulateTerrain(w, cfg.Terrain)
	log.Printf("[Server] Создано тайлов террейна: %d", tiles)

	var watched []string
	for _, path := range cfg.Assets.Cells {
		cell, err := world.LoadCell(path)
		if err != nil {
			log.Fatalf("[Server] Ошибка загрузки ячейки: %v", err)
		}
		world.PopulateCell(w, cell, cfg.Terrain, nil)
		for _, o := range cell.Objects {
			if o.WatchContacts {
				watched = append(watched, o.Name)
			}
		}
	}

	host := game.NewWorldHost(w)
	defer host.Close()

	// Горячая перезагрузка конфигурации и манифестов
	store.OnChange(func(c world.Config) {
		host.Do(func(w *physics.World) { w.SetConfig(c.Physics) })
		tm.SetEnabled(c.Telemetry.Enabled)
	})
	if cfg.Assets.Watch {
		if cw, err := world.WatchConfig(*configPath, store, nil); err != nil {
			log.Printf("[Server] Слежение за конфигурацией недоступно: %v", err)
		} else {
			defer cw.Close()
		}
		mw, err := world.WatchManifests(cfg.Assets.ManifestDir, library, loader, nil, nil)
		if err != nil {
			log.Printf("[Server] Слежение за манифестами недоступно: %v", err)
		} else {
			defer mw.Close()
		}
	}

	// WebSocket поток отладочной отрисовки
	wsServer := ws.NewWSServer(host, scene, nil)
	wsServer.SetUpdateInterval(cfg.Server.DebugInterval)

	// Игровой цикл
	ticker := game.NewGameTicker(cfg.Server.TickRate, nil)
	contacts := game.NewContactSystem(host, nil)
	contacts.SetListener(wsServer)
	for _, name := range watched {
		contacts.Watch(name)
	}
	ticker.RegisterSystem(game.NewMovementSystem(host, nil))
	ticker.RegisterSystem(game.NewPhysicsSystem(host, nil))
	ticker.RegisterSystem(contacts)
	ticker.RegisterSystem(game.NewTelemetrySystem(host, tm, actorSampleInterval))

	// gRPC сервис физики
	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		log.Fatalf("[Server] Не удалось открыть порт gRPC %s: %v", cfg.Server.GRPCAddr, err)
	}
	grpcServer := grpc.NewServer()
	transport.RegisterPhysicsServer(grpcServer, transport.NewPhysicsServer(host, nil))
	go func() {
		log.Printf("[Server] gRPC сервер запущен на %s", cfg.Server.GRPCAddr)
		if err := grpcServer.Serve(lis); err != nil {
			log.Printf("[Server] gRPC сервер остановлен: %v", err)
		}
	}()

	// HTTP: WebSocket и телеметрия
	mux := http.NewServeMux()
	wsServer.Register(mux)
	mux.HandleFunc("/telemetry", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "application/json")
		if err := tm.WriteJSON(rw); err != nil {
			log.Printf("[Server] Ошибка отправки телеметрии: %v", err)
		}
	})
	mux.HandleFunc("/stats", func(rw http.ResponseWriter, r *http.Request) {
		writeJSON(rw, map[string]interface{}{
			"ticker":  ticker.GetStats(),
			"systems": ticker.GetSystemsStats(),
		})
	})
	mux.HandleFunc("/health", func(rw http.ResponseWriter, r *http.Request) {
		bodies := 0
		alive := host.Do(func(w *physics.World) { bodies = w.NumCollisionObjects() })
		code, status := http.StatusOK, "ok"
		if !alive {
			code, status = http.StatusServiceUnavailable, "closed"
		}
		writeJSONStatus(rw, code, map[string]interface{}{
			"status":     status,
			"tick_count": ticker.GetTickCount(),
			"bodies":     bodies,
			"ws_clients": wsServer.ClientCount(),
		})
	})
	mux.HandleFunc("/control", func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(rw, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		switch action := r.URL.Query().Get("action"); action {
		case "pause":
			ticker.Pause()
		case "resume":
			ticker.Resume()
		default:
			http.Error(rw, "unknown action: "+action, http.StatusBadRequest)
			return
		}
		writeJSON(rw, ticker.GetStats())
	})
	httpServer := &http.Server{Addr: cfg.Server.HTTPAddr, Handler: mux}
	go func() {
		log.Printf("[Server] HTTP сервер запущен на %s", cfg.Server.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("[Server] Ошибка HTTP сервера: %v", err)
			stop()
		}
	}()
	go wsServer.Run(ctx)

	if err := ticker.Start(); err != nil {
		log.Fatalf("[Server] Не удалось запустить игровой цикл: %v", err)
	}

	<-ctx.Done()
	log.Printf("[Server] Получен сигнал завершения, останавливаемся...")

	// Порядок: сначала внешние входы, затем цикл, мир закрывается последним
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("[Server] Ошибка остановки HTTP сервера: %v", err)
	}
	grpcServer.GracefulStop()
	ticker.Stop()
	tm.PrintSummary()
}

func writeJSON(rw http.ResponseWriter, v interface{}) {
	writeJSONStatus(rw, http.StatusOK, v)
}

// writeJSONStatus заголовок ставится до WriteHeader, иначе он теряется
func writeJSONStatus(rw http.ResponseWriter, code int, v interface{}) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(code)
	if err := json.NewEncoder(rw).Encode(v); err != nil {
		log.Printf("[Server] Ошибка кодирования ответа: %v", err)
	}
}
