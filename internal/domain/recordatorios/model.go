package recordatorios

import (
	"time"

	"safepets-citas/internal/ports/notify"
)

// Antelacion: el recordatorio dispara un día antes de la cita.
const Antelacion = 24 * time.Hour

type Estado string

const (
	EstadoProgramado Estado = "programado"
	EstadoEnviado    Estado = "enviado"
	EstadoCancelado  Estado = "cancelado"
	// El timer disparó pero la entrega falló; el registro no queda
	// como programado fantasma.
	EstadoFallido Estado = "fallido"
)

// Recordatorio es una notificación programada, registrada por id de
// cita para poder revocarla si la cita se cancela.
type Recordatorio struct {
	ID     string
	CitaID string

	DisparaEn time.Time
	Titulo    string
	Cuerpo    string
	Destino   notify.Destino

	Estado   Estado
	CreadoEn time.Time
}
