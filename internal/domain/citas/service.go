package citas

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"time"

	"safepets-citas/internal/platform/inflight"
	"safepets-citas/internal/ports/upstream"
)

var (
	ErrCamposIncompletos = errors.New("completa todos los campos")
	ErrFechaPasada       = errors.New("no puedes seleccionar una fecha anterior al día actual")
	ErrEstadoFinal       = errors.New("la cita ya fue cancelada o completada")
	ErrAvisoInsuficiente = errors.New("debes cancelar con al menos 2 días de anticipación")
	ErrSolicitudEnCurso  = errors.New("ya hay una solicitud en curso, espera a que termine")
	ErrSinConsultorios   = errors.New("no hay consultorios disponibles")
	ErrCitaNoEncontrada  = errors.New("cita no encontrada")
)

// MinAvisoCancelacion es la antelación mínima para cancelar.
const MinAvisoCancelacion = 48 * time.Hour

// Reminders desacopla la revocación de recordatorios al cancelar una
// cita (evita el ciclo de imports citas <-> recordatorios).
type Reminders interface {
	CancelarPorCita(ctx context.Context, citaID string) error
}

type Service struct {
	api       upstream.Client
	reminders Reminders // puede ser nil
	guard     *inflight.Guard
	now       func() time.Time
}

func NewService(api upstream.Client, reminders Reminders) *Service {
	return &Service{
		api:       api,
		reminders: reminders,
		guard:     inflight.New(),
		now:       time.Now,
	}
}

type CrearInput struct {
	PacienteID    string
	MedicoID      string
	ConsultorioID string
	ScheduledAt   time.Time
	Motivo        string
}

// Crear registra una cita clínica (flujo admin). La cita nace
// pendiente; el record autoritativo es el que devuelve el backend.
func (s *Service) Crear(ctx context.Context, token string, in CrearInput) (CitaClinica, error) {
	if strings.TrimSpace(in.PacienteID) == "" ||
		strings.TrimSpace(in.MedicoID) == "" ||
		strings.TrimSpace(in.ConsultorioID) == "" ||
		in.ScheduledAt.IsZero() {
		return CitaClinica{}, ErrCamposIncompletos
	}
	if esFechaPasada(in.ScheduledAt, s.now()) {
		return CitaClinica{}, ErrFechaPasada
	}

	key := inflight.Key("crear", in.PacienteID)
	if !s.guard.TryAcquire(key) {
		return CitaClinica{}, ErrSolicitudEnCurso
	}
	defer s.guard.Release(key)

	rec, err := s.api.CrearCita(ctx, token, upstream.CrearCitaInput{
		PacienteID:    in.PacienteID,
		MedicoID:      in.MedicoID,
		ConsultorioID: in.ConsultorioID,
		Fecha:         in.ScheduledAt.Format("2006-01-02"),
		Hora:          in.ScheduledAt.Format("15:04"),
		Motivo:        strings.TrimSpace(in.Motivo),
		Estado:        string(EstadoPendiente),
	})
	if err != nil {
		return CitaClinica{}, err
	}
	return FromRecord(rec)
}

type SolicitarInput struct {
	PacienteID    string
	MedicoID      string
	ConsultorioID string // vacío => se asigna uno disponible
	ScheduledAt   time.Time
	Motivo        string
	Email         string // vacío => se completa desde /me
}

// Solicitar registra una cita desde el flujo adoptante. Las
// verificaciones de elegibilidad (perfil de adoptante, cita activa)
// corren antes, en el módulo adoptantes.
func (s *Service) Solicitar(ctx context.Context, token string, in SolicitarInput) (CitaClinica, error) {
	if strings.TrimSpace(in.PacienteID) == "" ||
		strings.TrimSpace(in.MedicoID) == "" ||
		in.ScheduledAt.IsZero() {
		return CitaClinica{}, ErrCamposIncompletos
	}
	if esFechaPasada(in.ScheduledAt, s.now()) {
		return CitaClinica{}, ErrFechaPasada
	}

	key := inflight.Key("solicitar", in.PacienteID)
	if !s.guard.TryAcquire(key) {
		return CitaClinica{}, ErrSolicitudEnCurso
	}
	defer s.guard.Release(key)

	// El email puede faltar en sesiones viejas; se completa desde /me
	// (best-effort).
	email := strings.TrimSpace(in.Email)
	if email == "" {
		if perfil, err := s.api.Me(ctx, token); err == nil {
			email = strings.TrimSpace(perfil.Email)
		}
	}

	consultorioID := strings.TrimSpace(in.ConsultorioID)
	if consultorioID == "" {
		disponibles, err := s.api.ListarConsultorios(ctx, token)
		if err != nil {
			return CitaClinica{}, err
		}
		if len(disponibles) == 0 {
			return CitaClinica{}, ErrSinConsultorios
		}
		consultorioID = disponibles[rand.Intn(len(disponibles))].ID
	}

	rec, err := s.api.CrearCita(ctx, token, upstream.CrearCitaInput{
		PacienteID:    in.PacienteID,
		MedicoID:      in.MedicoID,
		ConsultorioID: consultorioID,
		Fecha:         in.ScheduledAt.Format("2006-01-02"),
		Hora:          in.ScheduledAt.Format("15:04"),
		Motivo:        strings.TrimSpace(in.Motivo),
		Estado:        string(EstadoPendiente),
		Email:         email,
	})
	if err != nil {
		return CitaClinica{}, err
	}
	return FromRecord(rec)
}

// Cancelar transiciona la cita a cancelada. Las guardas locales cortan
// antes de cualquier request: estado activo y antelación mínima.
func (s *Service) Cancelar(ctx context.Context, token string, c CitaClinica) (CitaClinica, error) {
	if !c.Estado.Activa() {
		return CitaClinica{}, ErrEstadoFinal
	}
	if c.ScheduledAt.Sub(s.now()) < MinAvisoCancelacion {
		return CitaClinica{}, ErrAvisoInsuficiente
	}

	key := inflight.Key("cancelar", c.ID)
	if !s.guard.TryAcquire(key) {
		return CitaClinica{}, ErrSolicitudEnCurso
	}
	defer s.guard.Release(key)

	rec, err := s.api.ActualizarCita(ctx, token, c.ID, upstream.ActualizarCitaInput{
		Estado: string(EstadoCancelada),
	})
	if err != nil {
		return CitaClinica{}, err
	}

	// El backend ya canceló: revocar el recordatorio programado para
	// esta cita antes de cualquier mapeo del payload.
	if s.reminders != nil {
		_ = s.reminders.CancelarPorCita(ctx, c.ID)
	}

	cancelada, err := FromRecord(rec)
	if err != nil {
		// Algunos backends responden la cancelación solo con
		// {"message": ...}; la transición ya ocurrió, así que se
		// refleja sobre la cita conocida.
		cancelada = c
		cancelada.Estado = EstadoCancelada
	}
	return cancelada, nil
}

// Eliminar borra la cita (flujo admin, passthrough).
func (s *Service) Eliminar(ctx context.Context, token, citaID string) error {
	citaID = strings.TrimSpace(citaID)
	if citaID == "" {
		return ErrCamposIncompletos
	}
	return s.api.EliminarCita(ctx, token, citaID)
}

// MisCitas lista las citas de la sesión. El segundo valor es el id de
// paciente de la sesión (vacío si falta el formulario).
func (s *Service) MisCitas(ctx context.Context, token string) ([]CitaClinica, string, error) {
	recs, pacienteID, err := s.api.ListarMisCitas(ctx, token)
	if err != nil {
		return nil, "", err
	}

	out := make([]CitaClinica, 0, len(recs))
	for _, rec := range recs {
		c, err := FromRecord(rec)
		if err != nil {
			// tolera records con estados sucios en vez de romper la lista
			continue
		}
		out = append(out, c)
	}
	return out, pacienteID, nil
}

// BuscarMia devuelve una cita de la sesión por id.
func (s *Service) BuscarMia(ctx context.Context, token, citaID string) (CitaClinica, error) {
	misCitas, _, err := s.MisCitas(ctx, token)
	if err != nil {
		return CitaClinica{}, err
	}
	for _, c := range misCitas {
		if c.ID == citaID {
			return c, nil
		}
	}
	return CitaClinica{}, ErrCitaNoEncontrada
}

// Historial agrupa las visitas de adopción del adoptante: en proceso
// (Pendiente/Confirmada) y pasadas (Cancelada/Completada).
func (s *Service) Historial(ctx context.Context, token, email string) (enProceso, pasadas []CitaAdopcion, err error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, nil, ErrCamposIncompletos
	}

	recs, err := s.api.HistorialPorEmail(ctx, token, email)
	if err != nil {
		return nil, nil, err
	}

	enProceso = make([]CitaAdopcion, 0)
	pasadas = make([]CitaAdopcion, 0)
	for _, rec := range recs {
		v, err := VisitaFromRecord(rec)
		if err != nil {
			continue
		}
		if v.Estado.Activa() {
			enProceso = append(enProceso, v)
		} else {
			pasadas = append(pasadas, v)
		}
	}
	return enProceso, pasadas, nil
}

// esFechaPasada compara solo fechas de calendario, con la hora en
// cero, para no rechazar citas del mismo día por la hora.
func esFechaPasada(t, now time.Time) bool {
	ty, tm, td := t.Date()
	ny, nm, nd := now.Date()
	fecha := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	hoy := time.Date(ny, nm, nd, 0, 0, 0, 0, time.UTC)
	return fecha.Before(hoy)
}
