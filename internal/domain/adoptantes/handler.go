package adoptantes

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"safepets-citas/internal/middleware"
	"safepets-citas/internal/ports/upstream"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Get("/mascotas/{mascotaID}/elegibilidad", elegibilidadHandler(svc))
	r.Post("/adoptantes", registrarHandler(svc))
}

type elegibilidadResponse struct {
	Elegible         bool   `json:"elegible"`
	RequiereRegistro bool   `json:"requiere_registro"`
	Motivo           string `json:"motivo,omitempty"`
	AdoptanteID      string `json:"adoptante_id,omitempty"`
}

type registrarRequest struct {
	Nombre    string `json:"nombre"`
	Apellido  string `json:"apellido"`
	Email     string `json:"email"`
	Telefono  string `json:"telefono"`
	Direccion string `json:"direccion"`
}

type adoptanteResponse struct {
	ID     string `json:"id"`
	Nombre string `json:"nombre"`
	Email  string `json:"email"`
}

type errorResponse struct {
	Message string `json:"message"`
}

func elegibilidadHandler(svc *Service) http.HandlerFunc {
	// La verificación siempre responde 200 con el veredicto: el
	// front decide a qué pantalla mandar al usuario.
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.Email) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		estadoMascota := r.URL.Query().Get("estado")
		res, err := svc.Verificar(r.Context(), middleware.GetToken(r.Context()), claims.Email, estadoMascota)
		if err != nil && !esVeredicto(err) {
			writeRemoteError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, elegibilidadResponse{
			Elegible:         res.Elegible,
			RequiereRegistro: res.RequiereRegistro,
			Motivo:           res.Motivo,
			AdoptanteID:      res.Adoptante.ID,
		})
	}
}

func registrarHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req registrarRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(req.Email) == "" {
			req.Email = claims.Email
		}

		a, err := svc.Registrar(r.Context(), middleware.GetToken(r.Context()), RegistrarInput{
			Nombre:    req.Nombre,
			Apellido:  req.Apellido,
			Email:     req.Email,
			Telefono:  req.Telefono,
			Direccion: req.Direccion,
		})
		if err != nil {
			if errors.Is(err, ErrCamposIncompletos) {
				writeJSON(w, http.StatusBadRequest, errorResponse{Message: err.Error()})
				return
			}
			writeRemoteError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, adoptanteResponse{
			ID:     a.ID,
			Nombre: a.Nombre,
			Email:  a.Email,
		})
	}
}

// esVeredicto distingue las guardas de elegibilidad (resultado
// esperado) de los fallos reales de la consulta.
func esVeredicto(err error) bool {
	return errors.Is(err, ErrMascotaEnTratamiento) ||
		errors.Is(err, ErrPerfilNoEncontrado) ||
		errors.Is(err, ErrCitaActiva)
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
