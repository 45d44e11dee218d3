// Package local programa recordatorios con timers en proceso. Un
// proceso reiniciado pierde los timers pendientes; el repositorio
// conserva el registro y permite reprogramar desde el cliente.
package local

import (
	"context"
	"sync"
	"time"

	"safepets-citas/internal/domain/recordatorios"
	"safepets-citas/internal/platform/logger"
	"safepets-citas/internal/ports/notify"
)

type Scheduler struct {
	sender notify.Sender
	log    logger.Logger

	mu       sync.Mutex
	timers   map[string]*time.Timer // por cita
	onFired  func(citaID string)
	onFailed func(citaID string)
}

var _ recordatorios.Scheduler = (*Scheduler)(nil)

func NewScheduler(sender notify.Sender, log logger.Logger) *Scheduler {
	return &Scheduler{
		sender: sender,
		log:    log,
		timers: make(map[string]*time.Timer),
	}
}

// OnFired registra el hook que se invoca tras disparar el envío
// (marca el recordatorio como enviado). Debe llamarse antes de
// programar nada.
func (s *Scheduler) OnFired(fn func(citaID string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onFired = fn
}

// OnFailed registra el hook que se invoca cuando el timer disparó
// pero el envío falló (marca el recordatorio como fallido).
func (s *Scheduler) OnFailed(fn func(citaID string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onFailed = fn
}

func (s *Scheduler) Programar(r recordatorios.Recordatorio) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.timers[r.CitaID]; ok {
		prev.Stop()
	}

	espera := time.Until(r.DisparaEn)
	if espera < 0 {
		espera = 0
	}

	citaID := r.CitaID
	mensaje := notify.Mensaje{
		Titulo:  r.Titulo,
		Cuerpo:  r.Cuerpo,
		Destino: r.Destino,
	}

	s.timers[citaID] = time.AfterFunc(espera, func() {
		s.disparar(citaID, mensaje)
	})

	s.log.Debug("recordatorio programado", map[string]any{
		"cita_id":    citaID,
		"dispara_en": r.DisparaEn.Format(time.RFC3339),
	})
	return nil
}

func (s *Scheduler) Cancelar(citaID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.timers[citaID]; ok {
		t.Stop()
		delete(s.timers, citaID)
		s.log.Debug("recordatorio cancelado", map[string]any{"cita_id": citaID})
	}
	return nil
}

// Stop detiene todos los timers pendientes (shutdown).
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
}

func (s *Scheduler) disparar(citaID string, m notify.Mensaje) {
	s.mu.Lock()
	delete(s.timers, citaID)
	fired := s.onFired
	failed := s.onFailed
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := s.sender.Send(ctx, m); err != nil {
		s.log.Error("envío de recordatorio falló", map[string]any{
			"cita_id": citaID,
			"error":   err.Error(),
		})
		if failed != nil {
			failed(citaID)
		}
		return
	}

	s.log.Info("recordatorio enviado", map[string]any{"cita_id": citaID})
	if fired != nil {
		fired(citaID)
	}
}
