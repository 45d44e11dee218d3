package devicestore

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("devicestore: not found")

// Preferencias del usuario para notificaciones. Campos tipados; la
// serialización queda en cada adapter.
type Preferencias struct {
	NotificacionesActivas bool
	ModoOscuro            bool
	// PermisoConcedido refleja el permiso de notificaciones del SO,
	// reportado por la app al registrar el dispositivo.
	PermisoConcedido bool
}

// Dispositivo asocia el email de la sesión con su push token de Expo.
type Dispositivo struct {
	Email      string
	PushToken  string
	Plataforma string // ios, android
}

// Store es el equivalente tipado del key-value local del dispositivo.
type Store interface {
	Preferencias(ctx context.Context, email string) (Preferencias, error)
	GuardarPreferencias(ctx context.Context, email string, p Preferencias) error

	Dispositivo(ctx context.Context, email string) (Dispositivo, error)
	GuardarDispositivo(ctx context.Context, d Dispositivo) error
}
