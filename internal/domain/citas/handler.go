package citas

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"safepets-citas/internal/domain/adoptantes"
	"safepets-citas/internal/middleware"
	"safepets-citas/internal/ports/upstream"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, adoptantesSvc *adoptantes.Service) {
	// Alta directa (flujo admin)
	r.Post("/citas", crearCitaHandler(svc))

	// Solicitud desde el flujo adoptante (elegibilidad incluida)
	r.Post("/citas/solicitar", solicitarCitaHandler(svc, adoptantesSvc))

	r.Get("/citas/mis", misCitasHandler(svc))
	r.Get("/citas/historial", historialHandler(svc))

	r.Post("/citas/{citaID}/cancelar", cancelarCitaHandler(svc))
	r.Delete("/citas/{citaID}", eliminarCitaHandler(svc))
}

type crearCitaRequest struct {
	PacienteID    string `json:"id_pacientes"`
	MedicoID      string `json:"id_medicos"`
	ConsultorioID string `json:"id_consultorios"`
	Fecha         string `json:"fecha"` // YYYY-MM-DD
	Hora          string `json:"hora"`  // HH:MM
	Motivo        string `json:"motivo"`
}

type citaResponse struct {
	ID            string `json:"id"`
	PacienteID    string `json:"id_pacientes"`
	MedicoID      string `json:"id_medicos"`
	ConsultorioID string `json:"id_consultorios"`
	Fecha         string `json:"fecha"`
	Hora          string `json:"hora"`
	Motivo        string `json:"motivo,omitempty"`
	Estado        string `json:"estado"`
}

type visitaResponse struct {
	ID            string `json:"id"`
	MascotaID     string `json:"id_mascotas"`
	MascotaNombre string `json:"mascota"`
	FechaCita     string `json:"fecha_cita"`
	Estado        string `json:"estado"`
}

type misCitasResponse struct {
	Citas      []citaResponse `json:"citas"`
	PacienteID string         `json:"paciente_id,omitempty"`
}

type historialResponse struct {
	EnProceso []visitaResponse `json:"en_proceso"`
	Pasadas   []visitaResponse `json:"pasadas"`
}

type errorResponse struct {
	Message          string `json:"message"`
	RequiereRegistro bool   `json:"requiere_registro,omitempty"`
}

func crearCitaHandler(svc *Service) http.HandlerFunc {
	// Solo admin: el backend valida igual, pero no tiene sentido dejar
	// pasar el request de un adoptante.
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if !strings.EqualFold(claims.Role, "admin") {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		var req crearCitaRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		at, err := parseScheduledAt(req.Fecha, req.Hora)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Message: ErrCamposIncompletos.Error()})
			return
		}

		c, err := svc.Crear(r.Context(), middleware.GetToken(r.Context()), CrearInput{
			PacienteID:    req.PacienteID,
			MedicoID:      req.MedicoID,
			ConsultorioID: req.ConsultorioID,
			ScheduledAt:   at,
			Motivo:        req.Motivo,
		})
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toCitaResponse(c))
	}
}

func solicitarCitaHandler(svc *Service, adoptantesSvc *adoptantes.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.Email) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		token := middleware.GetToken(r.Context())

		var req crearCitaRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		at, err := parseScheduledAt(req.Fecha, req.Hora)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Message: ErrCamposIncompletos.Error()})
			return
		}

		// Puerta de elegibilidad antes de enviar la solicitud: perfil
		// de adoptante existente y sin cita activa.
		if _, err := adoptantesSvc.Verificar(r.Context(), token, claims.Email, ""); err != nil {
			writeError(w, err)
			return
		}

		c, err := svc.Solicitar(r.Context(), token, SolicitarInput{
			PacienteID:    req.PacienteID,
			MedicoID:      req.MedicoID,
			ConsultorioID: req.ConsultorioID,
			ScheduledAt:   at,
			Motivo:        req.Motivo,
			Email:         claims.Email,
		})
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toCitaResponse(c))
	}
}

func misCitasHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := middleware.GetClaims(r.Context()); !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		items, pacienteID, err := svc.MisCitas(r.Context(), middleware.GetToken(r.Context()))
		if err != nil {
			writeError(w, err)
			return
		}

		out := misCitasResponse{
			Citas:      make([]citaResponse, 0, len(items)),
			PacienteID: pacienteID,
		}
		for _, c := range items {
			out.Citas = append(out.Citas, toCitaResponse(c))
		}

		writeJSON(w, http.StatusOK, out)
	}
}

func historialHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.Email) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		enProceso, pasadas, err := svc.Historial(r.Context(), middleware.GetToken(r.Context()), claims.Email)
		if err != nil {
			writeError(w, err)
			return
		}

		out := historialResponse{
			EnProceso: make([]visitaResponse, 0, len(enProceso)),
			Pasadas:   make([]visitaResponse, 0, len(pasadas)),
		}
		for _, v := range enProceso {
			out.EnProceso = append(out.EnProceso, toVisitaResponse(v))
		}
		for _, v := range pasadas {
			out.Pasadas = append(out.Pasadas, toVisitaResponse(v))
		}

		writeJSON(w, http.StatusOK, out)
	}
}

func cancelarCitaHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := middleware.GetClaims(r.Context()); !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		token := middleware.GetToken(r.Context())

		cita, err := svc.BuscarMia(r.Context(), token, chi.URLParam(r, "citaID"))
		if err != nil {
			writeError(w, err)
			return
		}

		cancelada, err := svc.Cancelar(r.Context(), token, cita)
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toCitaResponse(cancelada))
	}
}

func eliminarCitaHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if !strings.EqualFold(claims.Role, "admin") {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		if err := svc.Eliminar(r.Context(), middleware.GetToken(r.Context()), chi.URLParam(r, "citaID")); err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"message": "la cita ha sido eliminada"})
	}
}

func toCitaResponse(c CitaClinica) citaResponse {
	return citaResponse{
		ID:            c.ID,
		PacienteID:    c.PacienteID,
		MedicoID:      c.MedicoID,
		ConsultorioID: c.ConsultorioID,
		Fecha:         c.Fecha(),
		Hora:          c.Hora(),
		Motivo:        c.Motivo,
		Estado:        string(c.Estado),
	}
}

func toVisitaResponse(v CitaAdopcion) visitaResponse {
	return visitaResponse{
		ID:            v.ID,
		MascotaID:     v.MascotaID,
		MascotaNombre: v.MascotaNombre,
		FechaCita:     v.ScheduledAt.Format("2006-01-02 15:04:05"),
		Estado:        string(v.Estado),
	}
}

func parseScheduledAt(fecha, hora string) (time.Time, error) {
	fecha = strings.TrimSpace(fecha)
	hora = strings.TrimSpace(hora)
	if fecha == "" || hora == "" {
		return time.Time{}, ErrCamposIncompletos
	}
	return time.ParseInLocation("2006-01-02 15:04", fecha+" "+hora, time.Local)
}

// writeError mapea la taxonomía de errores a HTTP: guardas locales
// (4xx con mensaje instructivo), rechazo del backend (status y message
// passthrough) y fallo de conexión (502 genérico).
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrCamposIncompletos),
		errors.Is(err, ErrFechaPasada),
		errors.Is(err, ErrSinConsultorios):
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: err.Error()})
	case errors.Is(err, ErrEstadoFinal),
		errors.Is(err, ErrAvisoInsuficiente),
		errors.Is(err, ErrSolicitudEnCurso),
		errors.Is(err, adoptantes.ErrMascotaEnTratamiento),
		errors.Is(err, adoptantes.ErrCitaActiva):
		writeJSON(w, http.StatusConflict, errorResponse{Message: err.Error()})
	case errors.Is(err, adoptantes.ErrPerfilNoEncontrado):
		writeJSON(w, http.StatusConflict, errorResponse{
			Message:          err.Error(),
			RequiereRegistro: true,
		})
	case errors.Is(err, ErrCitaNoEncontrada):
		writeJSON(w, http.StatusNotFound, errorResponse{Message: err.Error()})
	default:
		writeRemoteError(w, err)
	}
}

func writeRemoteError(w http.ResponseWriter, err error) {
	if rej, ok := upstream.AsRejection(err); ok {
		msg := rej.Message
		if msg == "" {
			msg = "no se pudo procesar la solicitud"
		}
		writeJSON(w, rej.StatusCode, errorResponse{Message: msg})
		return
	}
	if upstream.IsConnectivity(err) {
		writeJSON(w, http.StatusBadGateway, errorResponse{Message: "error de conexión"})
		return
	}
	writeJSON(w, http.StatusInternalServerError, errorResponse{Message: "error interno"})
}

// writeJSON está duplicado a propósito en los handlers de cada módulo
// para no crear helpers compartidos antes de tiempo.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
