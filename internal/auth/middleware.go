package auth

import (
	"context"
	"net/http"

	"github.com/travelhouse/crm-prospectos/internal/models"
	"github.com/travelhouse/crm-prospectos/internal/session"
	"gorm.io/gorm"
)

type ctxKey string

const ctxUsuario ctxKey = "usuarioActual"

// Middleware resuelve la cookie de sesión contra el store y deja el usuario
// en el contexto. Sin sesión válida: las vistas redirigen al login y los
// endpoints /api responden 401.
type Middleware struct {
	DB    *gorm.DB
	Store session.Store
}

func NewMiddleware(db *gorm.DB, store session.Store) *Middleware {
	return &Middleware{DB: db, Store: store}
}

// UsuarioActual extrae el usuario autenticado del contexto, o nil.
func UsuarioActual(r *http.Request) *models.Usuario {
	u, _ := r.Context().Value(ctxUsuario).(*models.Usuario)
	return u
}

func (m *Middleware) resolver(r *http.Request) *models.Usuario {
	cookie, err := r.Cookie(session.CookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}
	usuarioID, err := m.Store.Obtener(r.Context(), cookie.Value)
	if err != nil {
		return nil
	}
	var u models.Usuario
	if err := m.DB.First(&u, usuarioID).Error; err != nil {
		return nil
	}
	return &u
}

// RequiereSesion redirige al login cuando no hay sesión.
func (m *Middleware) RequiereSesion(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u := m.resolver(r)
		if u == nil {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxUsuario, u)))
	})
}

// RequiereSesionAPI responde 401 JSON cuando no hay sesión.
func (m *Middleware) RequiereSesionAPI(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u := m.resolver(r)
		if u == nil {
			http.Error(w, "No autenticado", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxUsuario, u)))
	})
}

// RequiereAdmin exige tipo administrador.
func (m *Middleware) RequiereAdmin(next http.Handler) http.Handler {
	return m.RequiereSesion(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if u := UsuarioActual(r); u == nil || u.TipoUsuario != models.TipoAdministrador {
			http.Error(w, "No tiene permisos de administrador", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	}))
}

// RequierePrivilegiado exige administrador o supervisor.
func (m *Middleware) RequierePrivilegiado(next http.Handler) http.Handler {
	return m.RequiereSesion(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if u := UsuarioActual(r); u == nil || !u.EsPrivilegiado() {
			http.Error(w, "No tiene permisos para esta acción", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	}))
}
