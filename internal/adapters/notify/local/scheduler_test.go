package local

import (
	"context"
	"errors"
	"testing"
	"time"

	"safepets-citas/internal/domain/recordatorios"
	"safepets-citas/internal/platform/logger"
	"safepets-citas/internal/ports/notify"
)

type testSender struct {
	err      error
	enviados chan notify.Mensaje
}

func newTestSender(err error) *testSender {
	return &testSender{err: err, enviados: make(chan notify.Mensaje, 1)}
}

func (s *testSender) Send(_ context.Context, m notify.Mensaje) error {
	if s.err != nil {
		return s.err
	}
	s.enviados <- m
	return nil
}

func recordatorioInmediato(citaID string) recordatorios.Recordatorio {
	return recordatorios.Recordatorio{
		ID:        "r-" + citaID,
		CitaID:    citaID,
		DisparaEn: time.Now().Add(-time.Second), // dispara ya
		Titulo:    "🔔 Recordatorio de cita",
		Cuerpo:    "Tienes una cita mañana.",
		Destino:   notify.Destino{Email: "ana@example.com"},
	}
}

func esperar(t *testing.T, ch <-chan string, quiero string) {
	t.Helper()
	select {
	case got := <-ch:
		if got != quiero {
			t.Fatalf("hook con cita %q, want %q", got, quiero)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("el hook no se invocó")
	}
}

func TestScheduler_Dispara_InvocaOnFired(t *testing.T) {
	sender := newTestSender(nil)
	sched := NewScheduler(sender, logger.New(logger.Options{}))
	defer sched.Stop()

	fired := make(chan string, 1)
	sched.OnFired(func(citaID string) { fired <- citaID })

	if err := sched.Programar(recordatorioInmediato("cita-1")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	esperar(t, fired, "cita-1")
	select {
	case m := <-sender.enviados:
		if m.Destino.Email != "ana@example.com" {
			t.Fatalf("destino inesperado: %+v", m.Destino)
		}
	default:
		t.Fatal("el mensaje no llegó al sender")
	}
}

func TestScheduler_EnvioFalla_InvocaOnFailed(t *testing.T) {
	sender := newTestSender(errors.New("push caído"))
	sched := NewScheduler(sender, logger.New(logger.Options{}))
	defer sched.Stop()

	fired := make(chan string, 1)
	failed := make(chan string, 1)
	sched.OnFired(func(citaID string) { fired <- citaID })
	sched.OnFailed(func(citaID string) { failed <- citaID })

	if err := sched.Programar(recordatorioInmediato("cita-1")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	esperar(t, failed, "cita-1")
	select {
	case <-fired:
		t.Fatal("OnFired no debe invocarse si el envío falló")
	default:
	}
}

func TestScheduler_Cancelar_DetieneElTimer(t *testing.T) {
	sender := newTestSender(nil)
	sched := NewScheduler(sender, logger.New(logger.Options{}))
	defer sched.Stop()

	fired := make(chan string, 1)
	sched.OnFired(func(citaID string) { fired <- citaID })

	r := recordatorioInmediato("cita-1")
	r.DisparaEn = time.Now().Add(200 * time.Millisecond)
	if err := sched.Programar(r); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := sched.Cancelar("cita-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	select {
	case <-fired:
		t.Fatal("el timer cancelado no debe disparar")
	case <-time.After(500 * time.Millisecond):
	}
}
