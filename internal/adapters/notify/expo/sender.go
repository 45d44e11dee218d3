// Package expo envía notificaciones push vía el servicio de Expo.
package expo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"safepets-citas/internal/ports/notify"

	expo "github.com/oliveroneill/exponent-server-sdk-golang/sdk"
)

var ErrSinToken = errors.New("expo: destino sin push token")

type Sender struct {
	client *expo.PushClient
}

var _ notify.Sender = (*Sender)(nil)

func New() *Sender {
	return &Sender{client: expo.NewPushClient(nil)}
}

func (s *Sender) Send(_ context.Context, m notify.Mensaje) error {
	if strings.TrimSpace(m.Destino.PushToken) == "" {
		return ErrSinToken
	}

	token, err := expo.NewExponentPushToken(m.Destino.PushToken)
	if err != nil {
		return fmt.Errorf("expo: push token inválido: %w", err)
	}

	resp, err := s.client.Publish(&expo.PushMessage{
		To:       []expo.ExponentPushToken{token},
		Title:    m.Titulo,
		Body:     m.Cuerpo,
		Sound:    "default",
		Priority: expo.DefaultPriority,
	})
	if err != nil {
		return fmt.Errorf("expo: publish: %w", err)
	}
	if err := resp.ValidateResponse(); err != nil {
		return fmt.Errorf("expo: respuesta rechazada: %w", err)
	}
	return nil
}
