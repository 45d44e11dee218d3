package safepets

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"safepets-citas/internal/ports/upstream"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	c, err := New(ts.URL, 2*time.Second)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func TestClient_CrearCita_MapeaRecord(t *testing.T) {
	var gotAuth string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/crearCitas" {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(map[string]any{
			"id_citas":        7,
			"id_pacientes":    3,
			"id_medicos":      2,
			"id_consultorios": 1,
			"fecha":           "2030-01-10",
			"hora":            "10:00:00",
			"motivo":          "control",
			"estado":          "pendiente",
		})
	}))

	rec, err := c.CrearCita(context.Background(), "tok", upstream.CrearCitaInput{
		PacienteID: "3", MedicoID: "2", ConsultorioID: "1",
		Fecha: "2030-01-10", Hora: "10:00", Estado: "pendiente",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotAuth != "Bearer tok" {
		t.Fatalf("expected bearer passthrough, got %q", gotAuth)
	}
	if rec.ID != "7" || rec.PacienteID != "3" {
		t.Fatalf("ids numéricos mal mapeados: %+v", rec)
	}
	if rec.Estado != "pendiente" {
		t.Fatalf("unexpected estado: %q", rec.Estado)
	}
}

func TestClient_Rechazo_ConMensaje(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]string{"message": "el horario no está disponible"})
	}))

	_, err := c.CrearCita(context.Background(), "tok", upstream.CrearCitaInput{})
	rej, ok := upstream.AsRejection(err)
	if !ok {
		t.Fatalf("expected RejectionError, got %v", err)
	}
	if rej.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rej.StatusCode)
	}
	if rej.Message != "el horario no está disponible" {
		t.Fatalf("expected message passthrough, got %q", rej.Message)
	}
}

func TestClient_AdoptantePorEmail_NotFound(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	_, err := c.AdoptantePorEmail(context.Background(), "tok", "nadie@example.com")
	if err != upstream.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestClient_FalloDeConexion(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := ts.URL
	ts.Close() // el server ya no está

	c, err := New(url, 500*time.Millisecond)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	_, err = c.Me(context.Background(), "tok")
	if !upstream.IsConnectivity(err) {
		t.Fatalf("expected ConnectivityError, got %v", err)
	}
}

func TestClient_ListarMisCitas_Envelope(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/listarMisCitas" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data": []map[string]any{
				{"id_citas": 1, "fecha": "2030-01-10", "hora": "10:00:00", "estado": "confirmada"},
			},
			"paciente_id": 9,
		})
	}))

	recs, pacienteID, err := c.ListarMisCitas(context.Background(), "tok")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pacienteID != "9" {
		t.Fatalf("expected paciente 9, got %q", pacienteID)
	}
	if len(recs) != 1 || recs[0].ID != "1" || recs[0].Hora != "10:00:00" {
		t.Fatalf("unexpected records: %+v", recs)
	}
}

func TestClient_Historial_MascotaAnidada(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/historialCitasPorEmail/ana@example.com" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"citas": []map[string]any{
				{
					"id_citas":   4,
					"fecha_cita": "2030-02-01 10:00:00",
					"estado":     "Pendiente",
					"mascota":    map[string]any{"id_mascotas": 11, "nombre": "Milo"},
				},
			},
		})
	}))

	visitas, err := c.HistorialPorEmail(context.Background(), "tok", "ana@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(visitas) != 1 {
		t.Fatalf("expected 1 visita, got %d", len(visitas))
	}
	v := visitas[0]
	if v.ID != "4" || v.MascotaID != "11" || v.MascotaNombre != "Milo" {
		t.Fatalf("mascota anidada mal mapeada: %+v", v)
	}
	if v.Estado != "Pendiente" {
		t.Fatalf("el estado crudo no debe normalizarse acá: %q", v.Estado)
	}
}
