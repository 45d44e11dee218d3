package recordatorios

import "context"

type Repository interface {
	Create(ctx context.Context, r Recordatorio) error
	Update(ctx context.Context, r Recordatorio) error
	GetByID(ctx context.Context, id string) (Recordatorio, error)
	// GetByCita devuelve el recordatorio más reciente de una cita.
	GetByCita(ctx context.Context, citaID string) (Recordatorio, error)
}

// Scheduler programa la entrega diferida. La implementación real usa
// timers en proceso; los tests inyectan una fake.
type Scheduler interface {
	Programar(r Recordatorio) error
	Cancelar(citaID string) error
}
