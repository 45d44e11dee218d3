package recordatorios

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"safepets-citas/internal/domain/citas"
	"safepets-citas/internal/middleware"
	"safepets-citas/internal/ports/upstream"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, citasSvc *citas.Service) {
	r.Post("/citas/{citaID}/recordatorio", programarHandler(svc, citasSvc))
	r.Get("/citas/{citaID}/recordatorio", consultarHandler(svc, citasSvc))
}

type recordatorioResponse struct {
	ID        string    `json:"id"`
	CitaID    string    `json:"cita_id"`
	DisparaEn time.Time `json:"dispara_en"`
	Estado    string    `json:"estado"`
}

type errorResponse struct {
	Message string `json:"message"`
}

func programarHandler(svc *Service, citasSvc *citas.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.Email) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		// La cita tiene que ser del usuario autenticado: se resuelve
		// contra su propio listado, no por ID arbitrario.
		cita, err := citasSvc.BuscarMia(r.Context(), middleware.GetToken(r.Context()), chi.URLParam(r, "citaID"))
		if err != nil {
			if errors.Is(err, citas.ErrCitaNoEncontrada) {
				writeJSON(w, http.StatusNotFound, errorResponse{Message: err.Error()})
				return
			}
			writeRemoteError(w, err)
			return
		}

		rec, err := svc.Programar(r.Context(), claims.Email, cita)
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toResponse(rec))
	}
}

func consultarHandler(svc *Service, citasSvc *citas.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := middleware.GetClaims(r.Context()); !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		// Misma regla de pertenencia que al programar: la cita se
		// resuelve contra el listado del usuario autenticado.
		citaID := chi.URLParam(r, "citaID")
		if _, err := citasSvc.BuscarMia(r.Context(), middleware.GetToken(r.Context()), citaID); err != nil {
			if errors.Is(err, citas.ErrCitaNoEncontrada) {
				writeJSON(w, http.StatusNotFound, errorResponse{Message: err.Error()})
				return
			}
			writeRemoteError(w, err)
			return
		}

		rec, err := svc.PorCita(r.Context(), citaID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				writeJSON(w, http.StatusNotFound, errorResponse{Message: "no hay recordatorio para esta cita"})
				return
			}
			writeJSON(w, http.StatusInternalServerError, errorResponse{Message: "error interno"})
			return
		}

		writeJSON(w, http.StatusOK, toResponse(rec))
	}
}

func toResponse(rec Recordatorio) recordatorioResponse {
	return recordatorioResponse{
		ID:        rec.ID,
		CitaID:    rec.CitaID,
		DisparaEn: rec.DisparaEn,
		Estado:    string(rec.Estado),
	}
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrCitaSinConfirmar),
		errors.Is(err, ErrSinPermiso),
		errors.Is(err, ErrMuyPronto),
		errors.Is(err, ErrEnCurso):
		writeJSON(w, http.StatusConflict, errorResponse{Message: err.Error()})
	case errors.Is(err, ErrNotFound):
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

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
