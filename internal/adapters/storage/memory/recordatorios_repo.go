// Package memory implementa el repositorio de recordatorios en
// memoria para tests y despliegues sin base de datos.
package memory

import (
	"context"
	"sync"

	"safepets-citas/internal/domain/recordatorios"
)

type RecordatoriosRepo struct {
	mu    sync.RWMutex
	items map[string]recordatorios.Recordatorio
	orden []string // ids en orden de creación
}

var _ recordatorios.Repository = (*RecordatoriosRepo)(nil)

func NewRecordatoriosRepo() *RecordatoriosRepo {
	return &RecordatoriosRepo{
		items: make(map[string]recordatorios.Recordatorio),
	}
}

func (r *RecordatoriosRepo) Create(_ context.Context, rec recordatorios.Recordatorio) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[rec.ID]; !ok {
		r.orden = append(r.orden, rec.ID)
	}
	r.items[rec.ID] = rec
	return nil
}

func (r *RecordatoriosRepo) Update(_ context.Context, rec recordatorios.Recordatorio) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[rec.ID]; !ok {
		return recordatorios.ErrNotFound
	}
	r.items[rec.ID] = rec
	return nil
}

func (r *RecordatoriosRepo) GetByID(_ context.Context, id string) (recordatorios.Recordatorio, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.items[id]
	if !ok {
		return recordatorios.Recordatorio{}, recordatorios.ErrNotFound
	}
	return rec, nil
}

func (r *RecordatoriosRepo) GetByCita(_ context.Context, citaID string) (recordatorios.Recordatorio, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	// El más reciente gana: se recorre en orden inverso de creación.
	for i := len(r.orden) - 1; i >= 0; i-- {
		rec := r.items[r.orden[i]]
		if rec.CitaID == citaID {
			return rec, nil
		}
	}
	return recordatorios.Recordatorio{}, recordatorios.ErrNotFound
}
