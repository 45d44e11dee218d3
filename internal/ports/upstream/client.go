package upstream

import (
	"context"
	"errors"
	"fmt"
)

// El backend es la fuente de verdad de las citas: el cliente nunca
// transiciona un estado localmente sin una respuesta confirmada.
// Todas las operaciones reciben el bearer token de la sesión y lo
// reenvían tal cual.
type Client interface {
	CrearCita(ctx context.Context, token string, in CrearCitaInput) (CitaRecord, error)
	ActualizarCita(ctx context.Context, token, citaID string, in ActualizarCitaInput) (CitaRecord, error)
	EliminarCita(ctx context.Context, token, citaID string) error

	// ListarMisCitas devuelve las citas de la sesión y el id de
	// paciente asociado (vacío si el usuario aún no llenó el formulario).
	ListarMisCitas(ctx context.Context, token string) ([]CitaRecord, string, error)
	HistorialPorEmail(ctx context.Context, token, email string) ([]VisitaRecord, error)

	// AdoptantePorEmail devuelve ErrNotFound si no existe perfil.
	AdoptantePorEmail(ctx context.Context, token, email string) (Adoptante, error)
	CitaActivaPorEmail(ctx context.Context, token, email string) (bool, error)
	RegistrarAdoptante(ctx context.Context, token string, in RegistrarAdoptanteInput) (Adoptante, error)

	ListarConsultorios(ctx context.Context, token string) ([]Consultorio, error)
	Me(ctx context.Context, token string) (Perfil, error)
}

// ErrNotFound: el recurso consultado no existe en el backend (404).
var ErrNotFound = errors.New("upstream: not found")

// RejectionError: el backend respondió no-2xx. Message trae el campo
// "message" del payload cuando existe; si no, el caller usa un
// mensaje genérico.
type RejectionError struct {
	StatusCode int
	Message    string
}

func (e *RejectionError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("upstream rejected: status=%d", e.StatusCode)
	}
	return fmt.Sprintf("upstream rejected: status=%d message=%s", e.StatusCode, e.Message)
}

// ConnectivityError: el request falló antes de obtener respuesta.
type ConnectivityError struct {
	Err error
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("upstream unreachable: %v", e.Err)
}

func (e *ConnectivityError) Unwrap() error { return e.Err }

// AsRejection devuelve el RejectionError envuelto, si lo hay.
func AsRejection(err error) (*RejectionError, bool) {
	var rej *RejectionError
	if errors.As(err, &rej) {
		return rej, true
	}
	return nil, false
}

// IsConnectivity reporta si err es un fallo de conexión.
func IsConnectivity(err error) bool {
	var ce *ConnectivityError
	return errors.As(err, &ce)
}
