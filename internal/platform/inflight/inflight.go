package inflight

import (
	"strings"
	"sync"
)

// Guard evita dobles envíos mientras una acción sigue en vuelo:
// una guarda por clave lógica (acción + sujeto) aplicada uniforme en
// todos los flujos mutantes.
type Guard struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func New() *Guard {
	return &Guard{
		held: make(map[string]struct{}),
	}
}

// TryAcquire toma la clave si está libre. Devuelve false si la acción
// ya está en vuelo; el caller debe rechazar sin efectos secundarios.
func (g *Guard) TryAcquire(key string) bool {
	key = strings.TrimSpace(key)
	if key == "" {
		return false
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.held[key]; ok {
		return false
	}
	g.held[key] = struct{}{}
	return true
}

// Release libera la clave. Liberar una clave no tomada es un no-op.
func (g *Guard) Release(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.held, strings.TrimSpace(key))
}

// Key arma una clave "accion:sujeto".
func Key(action, subject string) string {
	return action + ":" + subject
}
