// Package email envía recordatorios por SMTP como alternativa al
// canal push (útil cuando el dispositivo no registró token).
package email

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"safepets-citas/internal/ports/notify"

	gomail "gopkg.in/gomail.v2"
)

var ErrSinEmail = errors.New("email: destino sin dirección")

type Config struct {
	Host string
	Port int
	User string
	Pass string
	From string
}

type Sender struct {
	dialer *gomail.Dialer
	from   string
}

var _ notify.Sender = (*Sender)(nil)

func New(cfg Config) (*Sender, error) {
	if strings.TrimSpace(cfg.Host) == "" || cfg.Port == 0 {
		return nil, errors.New("email: host y puerto SMTP requeridos")
	}
	from := cfg.From
	if strings.TrimSpace(from) == "" {
		from = cfg.User
	}
	return &Sender{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Pass),
		from:   from,
	}, nil
}

func (s *Sender) Send(_ context.Context, m notify.Mensaje) error {
	if strings.TrimSpace(m.Destino.Email) == "" {
		return ErrSinEmail
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", s.from)
	msg.SetHeader("To", m.Destino.Email)
	msg.SetHeader("Subject", m.Titulo)
	msg.SetBody("text/plain", m.Cuerpo)

	if err := s.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("email: enviar: %w", err)
	}
	return nil
}
