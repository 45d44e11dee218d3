// Package memory guarda preferencias y dispositivos en memoria.
// Se usa en tests y cuando no se configura persistencia.
package memory

import (
	"context"
	"sync"

	"safepets-citas/internal/ports/devicestore"
)

type Store struct {
	mu           sync.RWMutex
	prefs        map[string]devicestore.Preferencias
	dispositivos map[string]devicestore.Dispositivo
}

var _ devicestore.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		prefs:        make(map[string]devicestore.Preferencias),
		dispositivos: make(map[string]devicestore.Dispositivo),
	}
}

func (s *Store) Preferencias(_ context.Context, email string) (devicestore.Preferencias, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.prefs[email]
	if !ok {
		return devicestore.Preferencias{}, devicestore.ErrNotFound
	}
	return p, nil
}

func (s *Store) GuardarPreferencias(_ context.Context, email string, p devicestore.Preferencias) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.prefs[email] = p
	return nil
}

func (s *Store) Dispositivo(_ context.Context, email string) (devicestore.Dispositivo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.dispositivos[email]
	if !ok {
		return devicestore.Dispositivo{}, devicestore.ErrNotFound
	}
	return d, nil
}

func (s *Store) GuardarDispositivo(_ context.Context, d devicestore.Dispositivo) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.dispositivos[d.Email] = d
	return nil
}
