package preferencias

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"safepets-citas/internal/middleware"
	"safepets-citas/internal/ports/devicestore"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Get("/preferencias", obtenerHandler(svc))
	r.Put("/preferencias", guardarHandler(svc))
	r.Post("/dispositivos", registrarDispositivoHandler(svc))
}

type preferenciasPayload struct {
	NotificacionesActivas bool `json:"notificaciones_activas"`
	ModoOscuro            bool `json:"modo_oscuro"`
	PermisoConcedido      bool `json:"permiso_concedido"`
}

type dispositivoRequest struct {
	PushToken  string `json:"push_token"`
	Plataforma string `json:"plataforma"`
}

type errorResponse struct {
	Message string `json:"message"`
}

func obtenerHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.Email) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		p, err := svc.Obtener(r.Context(), claims.Email)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, errorResponse{Message: "error interno"})
			return
		}

		writeJSON(w, http.StatusOK, preferenciasPayload{
			NotificacionesActivas: p.NotificacionesActivas,
			ModoOscuro:            p.ModoOscuro,
			PermisoConcedido:      p.PermisoConcedido,
		})
	}
}

func guardarHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.Email) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req preferenciasPayload
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		p := devicestore.Preferencias{
			NotificacionesActivas: req.NotificacionesActivas,
			ModoOscuro:            req.ModoOscuro,
			PermisoConcedido:      req.PermisoConcedido,
		}
		if err := svc.Guardar(r.Context(), claims.Email, p); err != nil {
			writeJSON(w, http.StatusInternalServerError, errorResponse{Message: "error interno"})
			return
		}

		writeJSON(w, http.StatusOK, req)
	}
}

func registrarDispositivoHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.Email) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req dispositivoRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		err := svc.RegistrarDispositivo(r.Context(), devicestore.Dispositivo{
			Email:      claims.Email,
			PushToken:  req.PushToken,
			Plataforma: req.Plataforma,
		})
		if err != nil {
			if errors.Is(err, ErrCamposIncompletos) {
				writeJSON(w, http.StatusBadRequest, errorResponse{Message: err.Error()})
				return
			}
			writeJSON(w, http.StatusInternalServerError, errorResponse{Message: "error interno"})
			return
		}

		writeJSON(w, http.StatusCreated, map[string]string{"message": "dispositivo registrado"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
