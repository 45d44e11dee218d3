package adoptantes

import (
	"context"
	"errors"
	"strings"

	"safepets-citas/internal/ports/upstream"
)

var (
	ErrCamposIncompletos = errors.New("completa todos los campos")
	// La mascota en tratamiento bloquea la adopción sin importar el
	// resto del estado; se corta antes de cualquier lookup remoto.
	ErrMascotaEnTratamiento = errors.New("la mascota está en tratamiento y no puede recibir visitas")
	ErrPerfilNoEncontrado   = errors.New("debes completar el formulario de adoptante antes de solicitar una cita")
	ErrCitaActiva           = errors.New("ya tienes una cita pendiente o confirmada, espera a que termine")
)

// EstadoEnTratamiento es el estado de mascota que bloquea la adopción.
const EstadoEnTratamiento = "En Tratamiento"

type Service struct {
	api upstream.Client
}

func NewService(api upstream.Client) *Service {
	return &Service{api: api}
}

// Elegibilidad es el resultado de la verificación, pensado para que la
// pantalla decida a dónde navegar.
type Elegibilidad struct {
	Elegible         bool
	RequiereRegistro bool
	Motivo           string
	Adoptante        upstream.Adoptante
}

// Verificar aplica la puerta de elegibilidad en orden:
//  1. mascota en tratamiento => rechazo inmediato, sin red
//  2. perfil de adoptante por email => si no existe, se dirige al
//     formulario de registro en vez de enviar la solicitud
//  3. cita activa por email => si existe, rechazo con mensaje
func (s *Service) Verificar(ctx context.Context, token, email, mascotaEstado string) (Elegibilidad, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return Elegibilidad{}, ErrCamposIncompletos
	}

	if strings.TrimSpace(mascotaEstado) == EstadoEnTratamiento {
		return Elegibilidad{Motivo: ErrMascotaEnTratamiento.Error()}, ErrMascotaEnTratamiento
	}

	adoptante, err := s.api.AdoptantePorEmail(ctx, token, email)
	if err != nil {
		if errors.Is(err, upstream.ErrNotFound) {
			return Elegibilidad{
				RequiereRegistro: true,
				Motivo:           ErrPerfilNoEncontrado.Error(),
			}, ErrPerfilNoEncontrado
		}
		return Elegibilidad{}, err
	}

	activa, err := s.api.CitaActivaPorEmail(ctx, token, email)
	if err != nil {
		return Elegibilidad{}, err
	}
	if activa {
		return Elegibilidad{
			Adoptante: adoptante,
			Motivo:    ErrCitaActiva.Error(),
		}, ErrCitaActiva
	}

	return Elegibilidad{Elegible: true, Adoptante: adoptante}, nil
}

type RegistrarInput struct {
	Nombre    string
	Apellido  string
	Email     string
	Telefono  string
	Direccion string
}

// Registrar da de alta el perfil de adoptante (passthrough al backend).
func (s *Service) Registrar(ctx context.Context, token string, in RegistrarInput) (upstream.Adoptante, error) {
	if strings.TrimSpace(in.Nombre) == "" || strings.TrimSpace(in.Email) == "" {
		return upstream.Adoptante{}, ErrCamposIncompletos
	}

	return s.api.RegistrarAdoptante(ctx, token, upstream.RegistrarAdoptanteInput{
		Nombre:    strings.TrimSpace(in.Nombre),
		Apellido:  strings.TrimSpace(in.Apellido),
		Email:     strings.TrimSpace(in.Email),
		Telefono:  strings.TrimSpace(in.Telefono),
		Direccion: strings.TrimSpace(in.Direccion),
	})
}
