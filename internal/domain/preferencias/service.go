package preferencias

import (
	"context"
	"errors"
	"strings"

	"safepets-citas/internal/ports/devicestore"
)

var ErrCamposIncompletos = errors.New("completa todos los campos")

// Service expone el estado local del dispositivo (preferencias y
// push token).
type Service struct {
	store devicestore.Store
}

func NewService(store devicestore.Store) *Service {
	return &Service{store: store}
}

// Obtener devuelve las preferencias del usuario; si nunca se
// guardaron, aplica los defaults (todo apagado).
func (s *Service) Obtener(ctx context.Context, email string) (devicestore.Preferencias, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return devicestore.Preferencias{}, ErrCamposIncompletos
	}

	p, err := s.store.Preferencias(ctx, email)
	if err != nil {
		if errors.Is(err, devicestore.ErrNotFound) {
			return devicestore.Preferencias{}, nil
		}
		return devicestore.Preferencias{}, err
	}
	return p, nil
}

func (s *Service) Guardar(ctx context.Context, email string, p devicestore.Preferencias) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ErrCamposIncompletos
	}
	return s.store.GuardarPreferencias(ctx, email, p)
}

// RegistrarDispositivo asocia el push token de Expo a la sesión. El
// formato del token lo valida el sender al entregar.
func (s *Service) RegistrarDispositivo(ctx context.Context, d devicestore.Dispositivo) error {
	d.Email = strings.TrimSpace(d.Email)
	d.PushToken = strings.TrimSpace(d.PushToken)
	if d.Email == "" || d.PushToken == "" {
		return ErrCamposIncompletos
	}
	return s.store.GuardarDispositivo(ctx, d)
}
