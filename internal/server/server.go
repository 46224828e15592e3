package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/chistopro/internal/backup"
	"github.com/dukerupert/chistopro/internal/checklist"
	"github.com/dukerupert/chistopro/internal/config"
	"github.com/dukerupert/chistopro/internal/events"
	"github.com/dukerupert/chistopro/internal/handler"
	"github.com/dukerupert/chistopro/internal/lifecycle"
	"github.com/dukerupert/chistopro/internal/middleware"
	"github.com/dukerupert/chistopro/internal/progress"
	"github.com/dukerupert/chistopro/internal/reminder"
	"github.com/dukerupert/chistopro/internal/store"
	ws "github.com/dukerupert/chistopro/internal/websocket"
)

type Server struct {
	bus           *events.Bus
	hub           *ws.Hub
	controller    *lifecycle.Controller
	checklistH    *handler.ChecklistHandler
	profileH      *handler.ProfileHandler
	pushH         *handler.PushHandler
	backupH       *handler.BackupHandler
	rateLimiter   *middleware.RateLimiter
	backupManager *backup.Manager
	pushScheduler *reminder.Scheduler
	unsubscribe   []func()
	logger        *slog.Logger
}

// New wires every component over the given key-value store.
func New(kvs backup.Store, cfg *config.Config, logger *slog.Logger) *Server {
	bus := events.NewBus()
	hub := ws.NewHub(logger)

	profileStore := store.NewProfileStore(kvs)
	checklistStore := store.NewChecklistStore(kvs)
	historyStore := store.NewHistoryStore(kvs)
	metaStore := store.NewMetaStore(kvs)
	pushStore := store.NewPushStore(kvs)

	generator := checklist.NewGenerator(historyStore, nil, logger)
	engine := progress.NewEngine(progress.Config{
		TotalDays: cfg.Progress.TotalDays,
		Bands:     cfg.Progress.Bands,
	}, profileStore, logger)
	controller := lifecycle.NewController(
		lifecycle.Config{MaxMissedDays: cfg.Lifecycle.MaxMissedDays},
		profileStore, checklistStore, metaStore, generator, engine, bus, logger,
	)

	s := &Server{
		bus:         bus,
		hub:         hub,
		controller:  controller,
		rateLimiter: middleware.NewRateLimiter(),
		logger:      logger,
	}
	s.unsubscribe = append(s.unsubscribe, bus.Subscribe(hub.HandleEvent))
	hub.SetCurrentChecklist(func() string {
		if cl := controller.Current(); cl != nil {
			return cl.ID
		}
		return ""
	})

	// Push reminders
	pushCfg := reminder.Config{
		VAPIDPublicKey:  cfg.Push.VAPIDPublicKey,
		VAPIDPrivateKey: cfg.Push.VAPIDPrivateKey,
		Subscriber:      cfg.Push.Subscriber,
		MaxMissedDays:   cfg.Lifecycle.MaxMissedDays,
	}
	var pushSvc *reminder.Service
	var evaluator handler.Evaluator
	if pushCfg.Enabled() {
		pushSvc = reminder.NewService(pushCfg)
		s.pushScheduler = reminder.NewScheduler(pushCfg, pushSvc, pushStore, profileStore, checklistStore, metaStore, logger)
		s.unsubscribe = append(s.unsubscribe, bus.Subscribe(s.pushScheduler.HandleEvent))
		evaluator = s.pushScheduler
	}

	// Backups
	s.backupManager = backup.NewManager(backup.Config{
		S3: backup.S3Config{
			Endpoint:  cfg.Backup.S3.Endpoint,
			Bucket:    cfg.Backup.S3.Bucket,
			Region:    cfg.Backup.S3.Region,
			AccessKey: cfg.Backup.S3.AccessKey,
			SecretKey: cfg.Backup.S3.SecretKey,
		},
		Passphrase:    cfg.Backup.Passphrase,
		Interval:      cfg.Backup.Interval(),
		RetentionDays: cfg.Backup.RetentionDays,
	}, kvs, logger, func(st backup.Status) {
		logger.Debug("backup status", "state", st.State, "in_progress", st.InProgress)
	})

	s.checklistH = handler.NewChecklistHandler(controller, checklistStore, logger.With("component", "checklist_handler"))
	s.profileH = handler.NewProfileHandler(profileStore, checklistStore, engine, logger.With("component", "profile_handler"))
	s.pushH = handler.NewPushHandler(pushStore, profileStore, pushSvc, evaluator, logger.With("component", "push_handler"))
	s.backupH = handler.NewBackupHandler(s.backupManager, logger.With("component", "backup_handler"))
	return s
}

// Controller returns the checklist lifecycle controller.
func (s *Server) Controller() *lifecycle.Controller {
	return s.controller
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

// Start launches background work: scheduled backups.
func (s *Server) Start(ctx context.Context) {
	s.backupManager.Start(ctx)
}

// Close stops background work and detaches event subscribers.
func (s *Server) Close() {
	for _, unsub := range s.unsubscribe {
		unsub()
	}
	if s.pushScheduler != nil {
		s.pushScheduler.Stop()
	}
	s.backupManager.Stop()
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthHandler)

	// Checklist lifecycle
	mux.HandleFunc("GET /api/checklist", s.checklistH.Current)
	mux.HandleFunc("POST /api/session/resume", s.checklistH.Resume)
	mux.HandleFunc("GET /api/checklists", s.checklistH.List)
	mux.HandleFunc("POST /api/checklists/{id}/tasks/{taskID}/toggle", s.checklistH.Toggle)
	mux.HandleFunc("PUT /api/checklists/{id}/tasks/{taskID}", s.checklistH.SetStatus)

	// Profile, progress and statistics
	mux.HandleFunc("GET /api/profile", s.profileH.Get)
	mux.HandleFunc("PUT /api/profile", s.profileH.Put)
	mux.HandleFunc("GET /api/progress", s.profileH.Progress)
	mux.HandleFunc("GET /api/stats", s.profileH.Stats)

	// Push notifications
	mux.HandleFunc("POST /api/push/subscriptions", s.pushH.Subscribe)
	mux.HandleFunc("GET /api/push/subscriptions", s.pushH.ListSubscriptions)
	mux.HandleFunc("DELETE /api/push/subscriptions", s.pushH.Unsubscribe)
	mux.HandleFunc("GET /api/push/vapid-key", s.pushH.GetVAPIDKey)
	mux.HandleFunc("PUT /api/push/preferences", s.pushH.UpdatePreferences)

	// Backups
	mux.HandleFunc("POST /api/backup", s.rateLimitedHandler(s.backupH.Run))
	mux.HandleFunc("GET /api/backups", s.backupH.List)
	mux.HandleFunc("POST /api/backups/restore", s.rateLimitedHandler(s.backupH.Restore))

	// WebSocket
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, s.logger))

	return middleware.RequestLogger(s.logger.With("component", "http"))(mux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 5, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}
