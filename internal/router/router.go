package router

import (
	"context"
	"net/http"
	"os"
	"time"

	boltstore "safepets-citas/internal/adapters/devicestore/bolt"
	memstore "safepets-citas/internal/adapters/devicestore/memory"
	expopush "safepets-citas/internal/adapters/notify/expo"
	"safepets-citas/internal/adapters/notify/local"
	mem "safepets-citas/internal/adapters/storage/memory"
	pg "safepets-citas/internal/adapters/storage/postgres"
	"safepets-citas/internal/adapters/upstream/safepets"
	"safepets-citas/internal/domain/adoptantes"
	"safepets-citas/internal/domain/citas"
	"safepets-citas/internal/domain/preferencias"
	"safepets-citas/internal/domain/recordatorios"
	"safepets-citas/internal/middleware"
	"safepets-citas/internal/platform/logger"
	"safepets-citas/internal/ports/auth"
	"safepets-citas/internal/ports/devicestore"
	"safepets-citas/internal/ports/notify"
	"safepets-citas/internal/ports/upstream"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

type Options struct {
	AuthVerifier auth.AuthVerifier // puede ser nil (modo dev)

	// Opcional: si viene, reemplaza al cliente construido desde
	// UPSTREAM_BASE_URL (tests).
	Upstream upstream.Client

	// Opcional: si no vienen, se resuelven por env o in-memory.
	Store         devicestore.Store
	Recordatorios recordatorios.Repository
	Sender        notify.Sender

	Logger logger.Logger
}

func NewRouter(opts Options) http.Handler {
	r := chi.NewRouter()

	log := opts.Logger
	if log == nil {
		log = logger.NewFromEnv()
	}

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	r.Use(middleware.AuthContext(opts.AuthVerifier))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// Cliente del backend: inyectado o construido desde env.
	api := opts.Upstream
	if api == nil {
		base := os.Getenv("UPSTREAM_BASE_URL")
		if base == "" {
			base = "http://localhost:3000"
		}
		client, err := safepets.New(base, 10*time.Second)
		if err != nil {
			log.Error("upstream base url inválida", map[string]any{
				"base_url": base,
				"error":    err.Error(),
			})
			client, _ = safepets.New("http://localhost:3000", 10*time.Second)
		}
		api = client
	}

	// Estado local del dispositivo: bbolt si hay path, in-memory si no.
	store := opts.Store
	if store == nil {
		if path := os.Getenv("BOLT_PATH"); path != "" {
			opened, err := boltstore.Open(path)
			if err != nil {
				log.Error("no se pudo abrir bolt, usando memoria", map[string]any{
					"path":  path,
					"error": err.Error(),
				})
			} else {
				store = opened
			}
		}
		if store == nil {
			store = memstore.New()
		}
	}

	// Registro de recordatorios: Postgres por env, in-memory si no.
	repo := opts.Recordatorios
	if repo == nil {
		if dsn := os.Getenv("DB_DSN"); dsn != "" {
			if db, err := pg.Open(dsn); err == nil {
				repo = pg.NewRecordatoriosRepo(db)
			} else {
				log.Error("no se pudo abrir postgres, usando memoria", map[string]any{
					"error": err.Error(),
				})
			}
		}
		if repo == nil {
			repo = mem.NewRecordatoriosRepo()
		}
	}

	sender := opts.Sender
	if sender == nil {
		sender = expopush.New()
	}

	sched := local.NewScheduler(sender, log)

	// Services por módulo
	recordatoriosSvc := recordatorios.NewService(repo, store, sched)
	citasSvc := citas.NewService(api, recordatoriosSvc)
	adoptantesSvc := adoptantes.NewService(api)
	preferenciasSvc := preferencias.NewService(store)

	sched.OnFired(func(citaID string) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := recordatoriosSvc.MarcarEnviado(ctx, citaID); err != nil {
			log.Warn("no se pudo marcar recordatorio enviado", map[string]any{
				"cita_id": citaID,
				"error":   err.Error(),
			})
		}
	})
	sched.OnFailed(func(citaID string) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := recordatoriosSvc.MarcarFallido(ctx, citaID); err != nil {
			log.Warn("no se pudo marcar recordatorio fallido", map[string]any{
				"cita_id": citaID,
				"error":   err.Error(),
			})
		}
	})

	// Rutas por módulo
	citas.RegisterRoutes(r, citasSvc, adoptantesSvc)
	adoptantes.RegisterRoutes(r, adoptantesSvc)
	recordatorios.RegisterRoutes(r, recordatoriosSvc, citasSvc)
	preferencias.RegisterRoutes(r, preferenciasSvc)

	return r
}
