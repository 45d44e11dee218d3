package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	memstore "safepets-citas/internal/adapters/devicestore/memory"
	mem "safepets-citas/internal/adapters/storage/memory"
	"safepets-citas/internal/ports/notify"
	"safepets-citas/internal/ports/upstream"
	"safepets-citas/internal/router"
)

// -------------------------
// Backend fake (stateful)
// -------------------------

type fakeBackend struct {
	seq        int
	citas      map[string]upstream.CitaRecord
	duenos     map[string]string // cita id -> email de la sesión dueña
	adoptantes map[string]upstream.Adoptante
	activas    map[string]bool
	historial  []upstream.VisitaRecord
}

var _ upstream.Client = (*fakeBackend)(nil)

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		citas:      map[string]upstream.CitaRecord{},
		duenos:     map[string]string{},
		adoptantes: map[string]upstream.Adoptante{},
		activas:    map[string]bool{},
	}
}

func (b *fakeBackend) CrearCita(_ context.Context, _ string, in upstream.CrearCitaInput) (upstream.CitaRecord, error) {
	b.seq++
	rec := upstream.CitaRecord{
		ID:            fmt.Sprintf("cita-%d", b.seq),
		PacienteID:    in.PacienteID,
		MedicoID:      in.MedicoID,
		ConsultorioID: in.ConsultorioID,
		Fecha:         in.Fecha,
		Hora:          in.Hora,
		Motivo:        in.Motivo,
		Estado:        in.Estado,
	}
	b.citas[rec.ID] = rec
	return rec, nil
}

func (b *fakeBackend) ActualizarCita(_ context.Context, _, citaID string, in upstream.ActualizarCitaInput) (upstream.CitaRecord, error) {
	rec, ok := b.citas[citaID]
	if !ok {
		return upstream.CitaRecord{}, &upstream.RejectionError{StatusCode: 404, Message: "cita no encontrada"}
	}
	if in.Estado != "" {
		rec.Estado = in.Estado
	}
	b.citas[citaID] = rec
	return rec, nil
}

func (b *fakeBackend) EliminarCita(_ context.Context, _, citaID string) error {
	delete(b.citas, citaID)
	return nil
}

func (b *fakeBackend) ListarMisCitas(_ context.Context, token string) ([]upstream.CitaRecord, string, error) {
	// El token de las requests de test es el email de la sesión; las
	// citas sin dueño asignado son visibles para cualquiera.
	out := make([]upstream.CitaRecord, 0, len(b.citas))
	for id, rec := range b.citas {
		if dueno := b.duenos[id]; dueno != "" && dueno != token {
			continue
		}
		out = append(out, rec)
	}
	return out, "p1", nil
}

func (b *fakeBackend) HistorialPorEmail(_ context.Context, _, _ string) ([]upstream.VisitaRecord, error) {
	return b.historial, nil
}

func (b *fakeBackend) AdoptantePorEmail(_ context.Context, _, email string) (upstream.Adoptante, error) {
	a, ok := b.adoptantes[email]
	if !ok {
		return upstream.Adoptante{}, upstream.ErrNotFound
	}
	return a, nil
}

func (b *fakeBackend) CitaActivaPorEmail(_ context.Context, _, email string) (bool, error) {
	return b.activas[email], nil
}

func (b *fakeBackend) RegistrarAdoptante(_ context.Context, _ string, in upstream.RegistrarAdoptanteInput) (upstream.Adoptante, error) {
	a := upstream.Adoptante{ID: "a1", Nombre: in.Nombre, Email: in.Email}
	b.adoptantes[in.Email] = a
	return a, nil
}

func (b *fakeBackend) ListarConsultorios(_ context.Context, _ string) ([]upstream.Consultorio, error) {
	return []upstream.Consultorio{{ID: "c1", Numero: "1"}}, nil
}

func (b *fakeBackend) Me(_ context.Context, _ string) (upstream.Perfil, error) {
	return upstream.Perfil{Email: "ana@example.com", Role: "adoptante"}, nil
}

// -------------------------
// Helpers
// -------------------------

func newTestServer(t *testing.T, backend *fakeBackend) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(router.NewRouter(router.Options{
		AuthVerifier:  nil, // modo dev: identidad por headers de debug
		Upstream:      backend,
		Store:         memstore.New(),
		Recordatorios: mem.NewRecordatoriosRepo(),
		Sender:        noopSender{},
	}))
	t.Cleanup(ts.Close)
	return ts
}

type noopSender struct{}

func (noopSender) Send(_ context.Context, _ notify.Mensaje) error { return nil }

func doReq(t *testing.T, baseURL, method, path, email, role string, body any) (int, []byte) {
	t.Helper()

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, baseURL+path, rd)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+email)
	req.Header.Set("X-Debug-User-ID", "u1")
	req.Header.Set("X-Debug-Email", email)
	req.Header.Set("X-Debug-Role", role)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, raw
}

// -------------------------
// Tests
// -------------------------

func TestHTTP_Health(t *testing.T) {
	ts := newTestServer(t, newFakeBackend())

	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("get health: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestHTTP_SolicitarYListar(t *testing.T) {
	backend := newFakeBackend()
	backend.adoptantes["ana@example.com"] = upstream.Adoptante{ID: "a1", Email: "ana@example.com"}
	ts := newTestServer(t, backend)

	fecha := time.Now().AddDate(0, 0, 5).Format("2006-01-02")

	st, body := doReq(t, ts.URL, "POST", "/citas/solicitar", "ana@example.com", "adoptante", map[string]any{
		"id_pacientes": "p1",
		"id_medicos":   "m1",
		"fecha":        fecha,
		"hora":         "10:00",
		"motivo":       "visita de adopción",
	})
	if st != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", st, string(body))
	}

	var creada struct {
		ID     string `json:"id"`
		Estado string `json:"estado"`
	}
	if err := json.Unmarshal(body, &creada); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if creada.Estado != "pendiente" {
		t.Fatalf("la cita recién creada debe nacer pendiente, got %q", creada.Estado)
	}

	// La cita aparece en el listado con el mismo estado.
	st, body = doReq(t, ts.URL, "GET", "/citas/mis", "ana@example.com", "adoptante", nil)
	if st != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", st, string(body))
	}
	var listado struct {
		Citas []struct {
			ID     string `json:"id"`
			Estado string `json:"estado"`
		} `json:"citas"`
	}
	if err := json.Unmarshal(body, &listado); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(listado.Citas) != 1 || listado.Citas[0].ID != creada.ID || listado.Citas[0].Estado != "pendiente" {
		t.Fatalf("unexpected listado: %s", string(body))
	}
}

func TestHTTP_Solicitar_SinPerfil(t *testing.T) {
	ts := newTestServer(t, newFakeBackend())

	fecha := time.Now().AddDate(0, 0, 5).Format("2006-01-02")
	st, body := doReq(t, ts.URL, "POST", "/citas/solicitar", "nueva@example.com", "adoptante", map[string]any{
		"id_pacientes": "p1",
		"id_medicos":   "m1",
		"fecha":        fecha,
		"hora":         "10:00",
	})
	if st != http.StatusConflict {
		t.Fatalf("expected 409 sin perfil, got %d body=%s", st, string(body))
	}
	var out struct {
		RequiereRegistro bool `json:"requiere_registro"`
	}
	if err := json.Unmarshal(body, &out); err != nil || !out.RequiereRegistro {
		t.Fatalf("expected requiere_registro, body=%s", string(body))
	}
}

func TestHTTP_Solicitar_FechaPasada(t *testing.T) {
	backend := newFakeBackend()
	backend.adoptantes["ana@example.com"] = upstream.Adoptante{ID: "a1"}
	ts := newTestServer(t, backend)

	fecha := time.Now().AddDate(0, 0, -1).Format("2006-01-02")
	st, body := doReq(t, ts.URL, "POST", "/citas/solicitar", "ana@example.com", "adoptante", map[string]any{
		"id_pacientes": "p1",
		"id_medicos":   "m1",
		"fecha":        fecha,
		"hora":         "10:00",
	})
	if st != http.StatusBadRequest {
		t.Fatalf("expected 400 fecha pasada, got %d body=%s", st, string(body))
	}
}

func TestHTTP_Cancelar(t *testing.T) {
	backend := newFakeBackend()
	backend.adoptantes["ana@example.com"] = upstream.Adoptante{ID: "a1"}
	ts := newTestServer(t, backend)

	// Cita mañana: dentro de la ventana de 48h, se rechaza.
	maniana := time.Now().Add(24 * time.Hour)
	backend.citas["cita-pronto"] = upstream.CitaRecord{
		ID: "cita-pronto", PacienteID: "p1", MedicoID: "m1", ConsultorioID: "c1",
		Fecha: maniana.Format("2006-01-02"), Hora: maniana.Format("15:04"),
		Estado: "confirmada",
	}
	st, body := doReq(t, ts.URL, "POST", "/citas/cita-pronto/cancelar", "ana@example.com", "adoptante", nil)
	if st != http.StatusConflict {
		t.Fatalf("expected 409 dentro de ventana, got %d body=%s", st, string(body))
	}
	if backend.citas["cita-pronto"].Estado != "confirmada" {
		t.Fatal("la cita no debe transicionar si la guarda local rechaza")
	}

	// Cita en 5 días: cancelación válida.
	enCinco := time.Now().AddDate(0, 0, 5)
	backend.citas["cita-lejos"] = upstream.CitaRecord{
		ID: "cita-lejos", PacienteID: "p1", MedicoID: "m1", ConsultorioID: "c1",
		Fecha: enCinco.Format("2006-01-02"), Hora: "10:00",
		Estado: "confirmada",
	}
	st, body = doReq(t, ts.URL, "POST", "/citas/cita-lejos/cancelar", "ana@example.com", "adoptante", nil)
	if st != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", st, string(body))
	}
	if backend.citas["cita-lejos"].Estado != "cancelada" {
		t.Fatalf("expected cancelada en backend, got %q", backend.citas["cita-lejos"].Estado)
	}

	// Cancelar de nuevo: el estado ya es terminal.
	st, body = doReq(t, ts.URL, "POST", "/citas/cita-lejos/cancelar", "ana@example.com", "adoptante", nil)
	if st != http.StatusConflict {
		t.Fatalf("expected 409 en estado terminal, got %d body=%s", st, string(body))
	}
}

func TestHTTP_CrearCita_SoloAdmin(t *testing.T) {
	ts := newTestServer(t, newFakeBackend())

	fecha := time.Now().AddDate(0, 0, 3).Format("2006-01-02")
	payload := map[string]any{
		"id_pacientes":    "p1",
		"id_medicos":      "m1",
		"id_consultorios": "c1",
		"fecha":           fecha,
		"hora":            "09:00",
	}

	st, _ := doReq(t, ts.URL, "POST", "/citas", "ana@example.com", "adoptante", payload)
	if st != http.StatusForbidden {
		t.Fatalf("expected 403 para no-admin, got %d", st)
	}

	st, body := doReq(t, ts.URL, "POST", "/citas", "admin@example.com", "admin", payload)
	if st != http.StatusCreated {
		t.Fatalf("expected 201 para admin, got %d body=%s", st, string(body))
	}
}

func TestHTTP_Recordatorio_FlujoCompleto(t *testing.T) {
	backend := newFakeBackend()
	ts := newTestServer(t, backend)

	email := "ana@example.com"

	// Cita confirmada en 3 días.
	enTres := time.Now().AddDate(0, 0, 3)
	backend.citas["cita-1"] = upstream.CitaRecord{
		ID: "cita-1", PacienteID: "p1", MedicoID: "m1", ConsultorioID: "c1",
		Fecha: enTres.Format("2006-01-02"), Hora: "10:00",
		Estado: "confirmada",
	}

	// Sin permisos todavía: rechazo.
	st, body := doReq(t, ts.URL, "POST", "/citas/cita-1/recordatorio", email, "adoptante", nil)
	if st != http.StatusConflict {
		t.Fatalf("expected 409 sin permisos, got %d body=%s", st, string(body))
	}

	// Conceder permisos y registrar dispositivo.
	st, body = doReq(t, ts.URL, "PUT", "/preferencias", email, "adoptante", map[string]any{
		"notificaciones_activas": true,
		"permiso_concedido":      true,
	})
	if st != http.StatusOK {
		t.Fatalf("expected 200 guardando preferencias, got %d body=%s", st, string(body))
	}
	st, body = doReq(t, ts.URL, "POST", "/dispositivos", email, "adoptante", map[string]any{
		"push_token": "ExponentPushToken[xyz]",
		"plataforma": "android",
	})
	if st != http.StatusCreated {
		t.Fatalf("expected 201 registrando dispositivo, got %d body=%s", st, string(body))
	}

	// Ahora sí se programa.
	st, body = doReq(t, ts.URL, "POST", "/citas/cita-1/recordatorio", email, "adoptante", nil)
	if st != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", st, string(body))
	}
	var rec struct {
		Estado string `json:"estado"`
	}
	if err := json.Unmarshal(body, &rec); err != nil || rec.Estado != "programado" {
		t.Fatalf("expected recordatorio programado, body=%s", string(body))
	}

	// Cancelar la cita revoca el recordatorio.
	st, body = doReq(t, ts.URL, "POST", "/citas/cita-1/cancelar", email, "adoptante", nil)
	if st != http.StatusOK {
		t.Fatalf("expected 200 cancelando, got %d body=%s", st, string(body))
	}
	st, body = doReq(t, ts.URL, "GET", "/citas/cita-1/recordatorio", email, "adoptante", nil)
	if st != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", st, string(body))
	}
	if err := json.Unmarshal(body, &rec); err != nil || rec.Estado != "cancelado" {
		t.Fatalf("expected recordatorio cancelado tras cancelar la cita, body=%s", string(body))
	}
}

func TestHTTP_Recordatorio_SoloDelDueno(t *testing.T) {
	backend := newFakeBackend()
	ts := newTestServer(t, backend)

	dueno := "ana@example.com"
	otra := "otra@example.com"

	enTres := time.Now().AddDate(0, 0, 3)
	backend.citas["cita-1"] = upstream.CitaRecord{
		ID: "cita-1", PacienteID: "p1", MedicoID: "m1", ConsultorioID: "c1",
		Fecha: enTres.Format("2006-01-02"), Hora: "10:00",
		Estado: "confirmada",
	}
	backend.duenos["cita-1"] = dueno

	st, body := doReq(t, ts.URL, "PUT", "/preferencias", dueno, "adoptante", map[string]any{
		"notificaciones_activas": true,
		"permiso_concedido":      true,
	})
	if st != http.StatusOK {
		t.Fatalf("expected 200 guardando preferencias, got %d body=%s", st, string(body))
	}
	st, body = doReq(t, ts.URL, "POST", "/citas/cita-1/recordatorio", dueno, "adoptante", nil)
	if st != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", st, string(body))
	}

	// El dueño puede consultarlo; otra sesión no ve la cita.
	st, body = doReq(t, ts.URL, "GET", "/citas/cita-1/recordatorio", dueno, "adoptante", nil)
	if st != http.StatusOK {
		t.Fatalf("expected 200 para el dueño, got %d body=%s", st, string(body))
	}
	st, body = doReq(t, ts.URL, "GET", "/citas/cita-1/recordatorio", otra, "adoptante", nil)
	if st != http.StatusNotFound {
		t.Fatalf("expected 404 para otra sesión, got %d body=%s", st, string(body))
	}
}

func TestHTTP_Elegibilidad(t *testing.T) {
	backend := newFakeBackend()
	backend.adoptantes["ana@example.com"] = upstream.Adoptante{ID: "a1", Email: "ana@example.com"}
	ts := newTestServer(t, backend)

	// Mascota en tratamiento: veredicto negativo, sin registro requerido.
	st, body := doReq(t, ts.URL, "GET", "/mascotas/m1/elegibilidad?estado=En+Tratamiento", "ana@example.com", "adoptante", nil)
	if st != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", st, string(body))
	}
	var out struct {
		Elegible         bool `json:"elegible"`
		RequiereRegistro bool `json:"requiere_registro"`
	}
	if err := json.Unmarshal(body, &out); err != nil || out.Elegible {
		t.Fatalf("expected no elegible en tratamiento, body=%s", string(body))
	}

	// Sin perfil: dirige al registro.
	st, body = doReq(t, ts.URL, "GET", "/mascotas/m1/elegibilidad?estado=Disponible", "nueva@example.com", "adoptante", nil)
	if st != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", st, string(body))
	}
	if err := json.Unmarshal(body, &out); err != nil || !out.RequiereRegistro {
		t.Fatalf("expected requiere_registro, body=%s", string(body))
	}

	// Perfil existente y sin cita activa: elegible.
	st, body = doReq(t, ts.URL, "GET", "/mascotas/m1/elegibilidad?estado=Disponible", "ana@example.com", "adoptante", nil)
	if st != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", st, string(body))
	}
	if err := json.Unmarshal(body, &out); err != nil || !out.Elegible {
		t.Fatalf("expected elegible, body=%s", string(body))
	}
}

func TestHTTP_SinIdentidad(t *testing.T) {
	ts := newTestServer(t, newFakeBackend())

	req, _ := http.NewRequest("GET", ts.URL+"/citas/mis", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 sin identidad, got %d", resp.StatusCode)
	}
}
