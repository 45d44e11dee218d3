package recordatorios

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"safepets-citas/internal/domain/citas"
	"safepets-citas/internal/platform/inflight"
	"safepets-citas/internal/ports/devicestore"
	"safepets-citas/internal/ports/notify"
)

var (
	ErrCitaSinConfirmar = errors.New("no se puede programar una notificación si la cita no ha sido confirmada")
	ErrSinPermiso       = errors.New("no tienes permisos para recibir notificaciones")
	ErrMuyPronto        = errors.New("la cita es muy pronto, no se puede programar la notificación un día antes")
	ErrEnCurso          = errors.New("ya hay una operación en curso para esta cita")
	ErrNotFound         = errors.New("recordatorio no encontrado")
)

type Service struct {
	repo  Repository
	store devicestore.Store
	sched Scheduler
	guard *inflight.Guard
	now   func() time.Time
}

func NewService(repo Repository, store devicestore.Store, sched Scheduler) *Service {
	return &Service{
		repo:  repo,
		store: store,
		sched: sched,
		guard: inflight.New(),
		now:   time.Now,
	}
}

// Programar agenda un recordatorio 24h antes de la cita. Guardas, en
// orden: la cita debe estar confirmada (antes que cualquier chequeo de
// permisos), el permiso del SO y la preferencia deben estar activos, y
// el disparo debe quedar en el futuro. Si ya había un recordatorio
// programado para la cita, se reemplaza.
func (s *Service) Programar(ctx context.Context, email string, cita citas.CitaClinica) (Recordatorio, error) {
	if cita.Estado != citas.EstadoConfirmada {
		return Recordatorio{}, ErrCitaSinConfirmar
	}

	prefs, err := s.store.Preferencias(ctx, email)
	if err != nil && !errors.Is(err, devicestore.ErrNotFound) {
		return Recordatorio{}, err
	}
	if !prefs.PermisoConcedido || !prefs.NotificacionesActivas {
		return Recordatorio{}, ErrSinPermiso
	}

	disparaEn := cita.ScheduledAt.Add(-Antelacion)
	if !disparaEn.After(s.now()) {
		return Recordatorio{}, ErrMuyPronto
	}

	key := inflight.Key("recordatorio", cita.ID)
	if !s.guard.TryAcquire(key) {
		return Recordatorio{}, ErrEnCurso
	}
	defer s.guard.Release(key)

	// Reemplazo: un recordatorio programado previo para la misma cita
	// se revoca antes de agendar el nuevo.
	if prev, err := s.repo.GetByCita(ctx, cita.ID); err == nil && prev.Estado == EstadoProgramado {
		_ = s.sched.Cancelar(cita.ID)
		prev.Estado = EstadoCancelado
		if err := s.repo.Update(ctx, prev); err != nil {
			return Recordatorio{}, err
		}
	}

	destino := notify.Destino{Email: strings.TrimSpace(email)}
	if d, err := s.store.Dispositivo(ctx, email); err == nil {
		destino.PushToken = d.PushToken
	}

	r := Recordatorio{
		ID:        uuid.NewString(),
		CitaID:    cita.ID,
		DisparaEn: disparaEn,
		Titulo:    "🔔 Recordatorio de cita",
		Cuerpo: fmt.Sprintf(
			"Tienes una cita mañana, el %s a las %s. No olvides asistir.",
			cita.Fecha(), cita.Hora(),
		),
		Destino:  destino,
		Estado:   EstadoProgramado,
		CreadoEn: s.now(),
	}

	if err := s.repo.Create(ctx, r); err != nil {
		return Recordatorio{}, err
	}
	if err := s.sched.Programar(r); err != nil {
		r.Estado = EstadoCancelado
		_ = s.repo.Update(ctx, r)
		return Recordatorio{}, err
	}
	return r, nil
}

// CancelarPorCita revoca el recordatorio programado de una cita.
// Idempotente: sin recordatorio, o ya enviado/cancelado, es un no-op.
func (s *Service) CancelarPorCita(ctx context.Context, citaID string) error {
	citaID = strings.TrimSpace(citaID)
	if citaID == "" {
		return nil
	}

	r, err := s.repo.GetByCita(ctx, citaID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}
	if r.Estado != EstadoProgramado {
		return nil
	}

	_ = s.sched.Cancelar(citaID)
	r.Estado = EstadoCancelado
	return s.repo.Update(ctx, r)
}

// MarcarEnviado registra que el scheduler entregó el recordatorio.
// Lo invoca el hook de disparo, fuera del request original.
func (s *Service) MarcarEnviado(ctx context.Context, citaID string) error {
	r, err := s.repo.GetByCita(ctx, citaID)
	if err != nil {
		return err
	}
	if r.Estado != EstadoProgramado {
		return nil
	}
	r.Estado = EstadoEnviado
	return s.repo.Update(ctx, r)
}

// MarcarFallido registra que el timer disparó pero la entrega falló.
func (s *Service) MarcarFallido(ctx context.Context, citaID string) error {
	r, err := s.repo.GetByCita(ctx, citaID)
	if err != nil {
		return err
	}
	if r.Estado != EstadoProgramado {
		return nil
	}
	r.Estado = EstadoFallido
	return s.repo.Update(ctx, r)
}

// PorCita expone el recordatorio vigente de una cita.
func (s *Service) PorCita(ctx context.Context, citaID string) (Recordatorio, error) {
	return s.repo.GetByCita(ctx, citaID)
}
