package auth

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/travelhouse/crm-prospectos/internal/models"
	"github.com/travelhouse/crm-prospectos/internal/session"
	"github.com/travelhouse/crm-prospectos/internal/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Handler atiende login, logout y chequeo de sesión.
type Handler struct {
	DB     *gorm.DB
	Store  session.Store
	Logger *zap.Logger
}

func NewHandler(db *gorm.DB, store session.Store, logger *zap.Logger) *Handler {
	return &Handler{DB: db, Store: store, Logger: logger}
}

// Login valida credenciales, crea la sesión en el store y deja el token
// opaco en una cookie HTTP-only.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	username := r.FormValue("username")
	password := r.FormValue("password")

	var user models.Usuario
	if err := h.DB.Where("username = ?", username).First(&user).Error; err != nil {
		http.Redirect(w, r, "/?error=Usuario no encontrado", http.StatusSeeOther)
		return
	}

	if !utils.VerificarPassword(user.HashedPassword, password) {
		http.Redirect(w, r, "/?error=Contraseña incorrecta", http.StatusSeeOther)
		return
	}

	token := uuid.NewString()
	if err := h.Store.Crear(r.Context(), token, user.ID); err != nil {
		h.Logger.Error("error creando sesión", zap.Error(err))
		http.Redirect(w, r, "/?error=Error al iniciar sesión", http.StatusSeeOther)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     session.CookieName,
		Value:    token,
		HttpOnly: true,
		MaxAge:   int(session.TTL.Seconds()),
		Path:     "/",
	})

	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// Logout elimina la sesión del store y borra la cookie.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(session.CookieName); err == nil && cookie.Value != "" {
		if err := h.Store.Eliminar(r.Context(), cookie.Value); err != nil {
			h.Logger.Warn("error eliminando sesión", zap.Error(err))
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     session.CookieName,
		Value:    "",
		HttpOnly: true,
		MaxAge:   -1,
		Path:     "/",
	})

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// CheckAuth informa si la cookie actual corresponde a una sesión viva.
func (h *Handler) CheckAuth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	u := h.usuarioDesdeCookie(r)
	if u == nil {
		json.NewEncoder(w).Encode(map[string]any{"authenticated": false})
		return
	}
	json.NewEncoder(w).Encode(map[string]any{
		"authenticated": true,
		"user":          u.Username,
		"user_type":     u.TipoUsuario,
	})
}

func (h *Handler) usuarioDesdeCookie(r *http.Request) *models.Usuario {
	cookie, err := r.Cookie(session.CookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}
	usuarioID, err := h.Store.Obtener(r.Context(), cookie.Value)
	if err != nil {
		return nil
	}
	var u models.Usuario
	if err := h.DB.First(&u, usuarioID).Error; err != nil {
		return nil
	}
	return &u
}
