package citas

import (
	"errors"
	"strings"
	"time"

	"safepets-citas/internal/ports/upstream"
)

// Las citas clínicas y las visitas de adopción usan vocabularios de
// estado distintos en el backend (minúsculas vs. capitalizado, y solo
// las visitas conocen "Completada"). Se mantienen como dos
// enumeraciones separadas; la normalización de casing ocurre una sola
// vez, al mapear los records del backend.

// EstadoClinica define los estados de una cita clínica.
// @Enum pendiente, confirmada, cancelada
type EstadoClinica string

const (
	EstadoPendiente  EstadoClinica = "pendiente"
	EstadoConfirmada EstadoClinica = "confirmada"
	EstadoCancelada  EstadoClinica = "cancelada"
)

// EstadoVisita define los estados de una visita de adopción.
// @Enum Pendiente, Confirmada, Cancelada, Completada
type EstadoVisita string

const (
	VisitaPendiente  EstadoVisita = "Pendiente"
	VisitaConfirmada EstadoVisita = "Confirmada"
	VisitaCancelada  EstadoVisita = "Cancelada"
	VisitaCompletada EstadoVisita = "Completada"
)

var ErrEstadoDesconocido = errors.New("estado de cita desconocido")

// ParseEstadoClinica normaliza el estado crudo del backend al casing
// canónico. Vacío se trata como pendiente.
func ParseEstadoClinica(raw string) (EstadoClinica, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "pendiente":
		return EstadoPendiente, nil
	case "confirmada":
		return EstadoConfirmada, nil
	case "cancelada":
		return EstadoCancelada, nil
	default:
		return "", ErrEstadoDesconocido
	}
}

// ParseEstadoVisita normaliza el estado crudo de una visita de adopción.
func ParseEstadoVisita(raw string) (EstadoVisita, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "pendiente":
		return VisitaPendiente, nil
	case "confirmada":
		return VisitaConfirmada, nil
	case "cancelada":
		return VisitaCancelada, nil
	case "completada":
		return VisitaCompletada, nil
	default:
		return "", ErrEstadoDesconocido
	}
}

// Activa: la cita sigue en juego (puede cancelarse o recibir recordatorio).
func (e EstadoClinica) Activa() bool {
	return e == EstadoPendiente || e == EstadoConfirmada
}

// Terminal: no hay transiciones de salida.
func (e EstadoClinica) Terminal() bool {
	return e == EstadoCancelada
}

func (e EstadoVisita) Activa() bool {
	return e == VisitaPendiente || e == VisitaConfirmada
}

func (e EstadoVisita) Terminal() bool {
	return e == VisitaCancelada || e == VisitaCompletada
}

// PuedeTransicionar valida el ciclo pendiente → confirmada, con
// cancelada alcanzable desde ambos estados activos.
func (e EstadoClinica) PuedeTransicionar(a EstadoClinica) bool {
	switch e {
	case EstadoPendiente:
		return a == EstadoConfirmada || a == EstadoCancelada
	case EstadoConfirmada:
		return a == EstadoCancelada
	default:
		return false
	}
}

// CitaClinica es una cita de consulta (paciente/médico/consultorio).
type CitaClinica struct {
	ID            string
	PacienteID    string
	MedicoID      string
	ConsultorioID string

	ScheduledAt time.Time // fecha + hora combinadas, zona local
	Motivo      string
	Estado      EstadoClinica
}

// Fecha devuelve la parte de fecha en el formato del backend.
func (c CitaClinica) Fecha() string {
	return c.ScheduledAt.Format("2006-01-02")
}

// Hora devuelve la parte de hora en el formato del backend.
func (c CitaClinica) Hora() string {
	return c.ScheduledAt.Format("15:04")
}

// CitaAdopcion es una visita de adopción del historial.
type CitaAdopcion struct {
	ID            string
	MascotaID     string
	MascotaNombre string

	ScheduledAt time.Time
	Estado      EstadoVisita
}

// FromRecord mapea un record del backend al dominio, normalizando el
// estado y combinando fecha + hora.
func FromRecord(rec upstream.CitaRecord) (CitaClinica, error) {
	estado, err := ParseEstadoClinica(rec.Estado)
	if err != nil {
		return CitaClinica{}, err
	}

	at, err := parseFechaHora(rec.Fecha, rec.Hora)
	if err != nil {
		return CitaClinica{}, err
	}

	return CitaClinica{
		ID:            rec.ID,
		PacienteID:    rec.PacienteID,
		MedicoID:      rec.MedicoID,
		ConsultorioID: rec.ConsultorioID,
		ScheduledAt:   at,
		Motivo:        rec.Motivo,
		Estado:        estado,
	}, nil
}

// VisitaFromRecord mapea una entrada del historial de adopción.
func VisitaFromRecord(rec upstream.VisitaRecord) (CitaAdopcion, error) {
	estado, err := ParseEstadoVisita(rec.Estado)
	if err != nil {
		return CitaAdopcion{}, err
	}

	// fecha_cita viene combinada: "YYYY-MM-DD HH:MM:SS"
	at, err := time.ParseInLocation("2006-01-02 15:04:05", strings.TrimSpace(rec.FechaCita), time.Local)
	if err != nil {
		return CitaAdopcion{}, err
	}

	return CitaAdopcion{
		ID:            rec.ID,
		MascotaID:     rec.MascotaID,
		MascotaNombre: rec.MascotaNombre,
		ScheduledAt:   at,
		Estado:        estado,
	}, nil
}

func parseFechaHora(fecha, hora string) (time.Time, error) {
	fecha = strings.TrimSpace(fecha)
	hora = strings.TrimSpace(hora)
	if hora == "" {
		return time.ParseInLocation("2006-01-02", fecha, time.Local)
	}
	// El backend a veces incluye segundos en la hora.
	if len(hora) > 5 {
		hora = hora[:5]
	}
	return time.ParseInLocation("2006-01-02 15:04", fecha+" "+hora, time.Local)
}
