package notify

import "context"

// Destino identifica a quién entregar una notificación. PushToken es
// el token Expo del dispositivo; Email es el canal de respaldo.
type Destino struct {
	PushToken string
	Email     string
}

type Mensaje struct {
	Titulo  string
	Cuerpo  string
	Destino Destino
}

// Sender entrega una notificación por un canal concreto (push, email).
type Sender interface {
	Send(ctx context.Context, m Mensaje) error
}
