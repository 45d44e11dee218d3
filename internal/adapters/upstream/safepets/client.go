// Package safepets implementa el puerto upstream contra la API REST
// del backend SafePets. Aquí se traduce el formato de cable (ids
// numéricos, fecha y hora separadas, respuestas con envelope) a los
// DTOs del puerto, y los fallos HTTP a la taxonomía de errores.
package safepets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"safepets-citas/internal/platform/httpclient"
	"safepets-citas/internal/ports/upstream"
)

type Client struct {
	http *httpclient.Client
}

var _ upstream.Client = (*Client)(nil)

func New(baseURL string, timeout time.Duration) (*Client, error) {
	hc, err := httpclient.NewWithBaseURL(baseURL, timeout)
	if err != nil {
		return nil, err
	}
	if hc.BaseURL == "" {
		return nil, errors.New("safepets: base url requerida")
	}
	return &Client{http: hc}, nil
}

// NewWithHTTPClient inyecta el cliente HTTP (tests).
func NewWithHTTPClient(hc *httpclient.Client) *Client {
	return &Client{http: hc}
}

// --- formato de cable ---

// wireID tolera ids numéricos o string; el backend serializa enteros.
type wireID = json.Number

type citaWire struct {
	ID            wireID `json:"id_citas"`
	PacienteID    wireID `json:"id_pacientes"`
	MedicoID      wireID `json:"id_medicos"`
	ConsultorioID wireID `json:"id_consultorios"`
	Fecha         string `json:"fecha"`
	Hora          string `json:"hora"`
	Motivo        string `json:"motivo"`
	Estado        string `json:"estado"`
}

type crearCitaWire struct {
	PacienteID    string `json:"id_pacientes,omitempty"`
	MedicoID      string `json:"id_medicos"`
	ConsultorioID string `json:"id_consultorios"`
	Fecha         string `json:"fecha"`
	Hora          string `json:"hora"`
	Motivo        string `json:"motivo,omitempty"`
	Estado        string `json:"estado,omitempty"`
	Email         string `json:"email,omitempty"`
}

type actualizarCitaWire struct {
	Fecha  string `json:"fecha,omitempty"`
	Hora   string `json:"hora,omitempty"`
	Motivo string `json:"motivo,omitempty"`
	Estado string `json:"estado,omitempty"`
}

type misCitasWire struct {
	Success    bool       `json:"success"`
	Data       []citaWire `json:"data"`
	PacienteID wireID     `json:"paciente_id"`
}

type mascotaWire struct {
	ID     wireID `json:"id_mascotas"`
	Nombre string `json:"nombre"`
}

type visitaWire struct {
	ID        wireID      `json:"id_citas"`
	FechaCita string      `json:"fecha_cita"`
	Estado    string      `json:"estado"`
	Mascota   mascotaWire `json:"mascota"`
}

type historialWire struct {
	Citas []visitaWire `json:"citas"`
}

type adoptanteWire struct {
	ID     wireID `json:"id_adoptantes"`
	Nombre string `json:"nombre"`
	Email  string `json:"email"`
}

type citaActivaWire struct {
	Activa bool `json:"activa"`
}

type consultorioWire struct {
	ID     wireID `json:"id_consultorios"`
	Numero string `json:"numero"`
}

type perfilWire struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

// --- operaciones ---

func (c *Client) CrearCita(ctx context.Context, token string, in upstream.CrearCitaInput) (upstream.CitaRecord, error) {
	body := crearCitaWire{
		PacienteID:    in.PacienteID,
		MedicoID:      in.MedicoID,
		ConsultorioID: in.ConsultorioID,
		Fecha:         in.Fecha,
		Hora:          in.Hora,
		Motivo:        in.Motivo,
		Estado:        in.Estado,
		Email:         in.Email,
	}

	var out citaWire
	if err := c.http.DoJSON(ctx, http.MethodPost, "/crearCitas", token, body, &out); err != nil {
		return upstream.CitaRecord{}, traducir(err)
	}
	return toRecord(out), nil
}

func (c *Client) ActualizarCita(ctx context.Context, token, citaID string, in upstream.ActualizarCitaInput) (upstream.CitaRecord, error) {
	body := actualizarCitaWire{
		Fecha:  in.Fecha,
		Hora:   in.Hora,
		Motivo: in.Motivo,
		Estado: in.Estado,
	}

	var out citaWire
	path := "/actualizarCitas/" + url.PathEscape(citaID)
	if err := c.http.DoJSON(ctx, http.MethodPut, path, token, body, &out); err != nil {
		return upstream.CitaRecord{}, traducir(err)
	}

	rec := toRecord(out)
	if rec.ID == "" {
		// Algunas versiones del backend responden solo {"message": ...};
		// se conserva al menos el id y el estado pedidos.
		rec.ID = citaID
		rec.Estado = in.Estado
	}
	return rec, nil
}

func (c *Client) EliminarCita(ctx context.Context, token, citaID string) error {
	path := "/eliminarCitas/" + url.PathEscape(citaID)
	if err := c.http.DoJSON(ctx, http.MethodDelete, path, token, nil, nil); err != nil {
		return traducir(err)
	}
	return nil
}

func (c *Client) ListarMisCitas(ctx context.Context, token string) ([]upstream.CitaRecord, string, error) {
	var out misCitasWire
	if err := c.http.DoJSON(ctx, http.MethodGet, "/listarMisCitas", token, nil, &out); err != nil {
		return nil, "", traducir(err)
	}

	recs := make([]upstream.CitaRecord, 0, len(out.Data))
	for _, w := range out.Data {
		recs = append(recs, toRecord(w))
	}
	return recs, out.PacienteID.String(), nil
}

func (c *Client) HistorialPorEmail(ctx context.Context, token, email string) ([]upstream.VisitaRecord, error) {
	var out historialWire
	path := "/historialCitasPorEmail/" + url.PathEscape(email)
	if err := c.http.DoJSON(ctx, http.MethodGet, path, token, nil, &out); err != nil {
		return nil, traducir(err)
	}

	visitas := make([]upstream.VisitaRecord, 0, len(out.Citas))
	for _, w := range out.Citas {
		visitas = append(visitas, upstream.VisitaRecord{
			ID:            w.ID.String(),
			MascotaID:     w.Mascota.ID.String(),
			MascotaNombre: w.Mascota.Nombre,
			FechaCita:     w.FechaCita,
			Estado:        w.Estado,
		})
	}
	return visitas, nil
}

func (c *Client) AdoptantePorEmail(ctx context.Context, token, email string) (upstream.Adoptante, error) {
	var out adoptanteWire
	path := "/adoptanteInfo/" + url.PathEscape(email)
	err := c.http.DoJSON(ctx, http.MethodGet, path, token, nil, &out)
	if err != nil {
		var he *httpclient.HTTPError
		if errors.As(err, &he) && he.StatusCode == http.StatusNotFound {
			return upstream.Adoptante{}, upstream.ErrNotFound
		}
		return upstream.Adoptante{}, traducir(err)
	}
	return upstream.Adoptante{
		ID:     out.ID.String(),
		Nombre: out.Nombre,
		Email:  out.Email,
	}, nil
}

func (c *Client) CitaActivaPorEmail(ctx context.Context, token, email string) (bool, error) {
	var out citaActivaWire
	path := "/citaActivaPorEmail/" + url.PathEscape(email)
	if err := c.http.DoJSON(ctx, http.MethodGet, path, token, nil, &out); err != nil {
		return false, traducir(err)
	}
	return out.Activa, nil
}

func (c *Client) RegistrarAdoptante(ctx context.Context, token string, in upstream.RegistrarAdoptanteInput) (upstream.Adoptante, error) {
	body := map[string]string{
		"nombre":    in.Nombre,
		"apellido":  in.Apellido,
		"email":     in.Email,
		"telefono":  in.Telefono,
		"direccion": in.Direccion,
	}

	var out adoptanteWire
	if err := c.http.DoJSON(ctx, http.MethodPost, "/registrarAdoptante", token, body, &out); err != nil {
		return upstream.Adoptante{}, traducir(err)
	}
	return upstream.Adoptante{
		ID:     out.ID.String(),
		Nombre: out.Nombre,
		Email:  out.Email,
	}, nil
}

func (c *Client) ListarConsultorios(ctx context.Context, token string) ([]upstream.Consultorio, error) {
	var out []consultorioWire
	if err := c.http.DoJSON(ctx, http.MethodGet, "/listarConsultorios", token, nil, &out); err != nil {
		return nil, traducir(err)
	}

	cons := make([]upstream.Consultorio, 0, len(out))
	for _, w := range out {
		cons = append(cons, upstream.Consultorio{ID: w.ID.String(), Numero: w.Numero})
	}
	return cons, nil
}

func (c *Client) Me(ctx context.Context, token string) (upstream.Perfil, error) {
	var out perfilWire
	if err := c.http.DoJSON(ctx, http.MethodGet, "/me", token, nil, &out); err != nil {
		return upstream.Perfil{}, traducir(err)
	}
	return upstream.Perfil{Email: out.Email, Role: out.Role}, nil
}

// --- helpers ---

func toRecord(w citaWire) upstream.CitaRecord {
	return upstream.CitaRecord{
		ID:            w.ID.String(),
		PacienteID:    w.PacienteID.String(),
		MedicoID:      w.MedicoID.String(),
		ConsultorioID: w.ConsultorioID.String(),
		Fecha:         strings.TrimSpace(w.Fecha),
		Hora:          strings.TrimSpace(w.Hora),
		Motivo:        w.Motivo,
		Estado:        w.Estado,
	}
}

// traducir mapea el error del cliente HTTP a la taxonomía del puerto:
// respuesta no-2xx => RejectionError, fallo antes de la respuesta =>
// ConnectivityError.
func traducir(err error) error {
	var he *httpclient.HTTPError
	if errors.As(err, &he) {
		return &upstream.RejectionError{
			StatusCode: he.StatusCode,
			Message:    he.Message(),
		}
	}
	return &upstream.ConnectivityError{Err: fmt.Errorf("safepets: %w", err)}
}
