package usuario

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travelhouse/crm-prospectos/internal/auth"
	"github.com/travelhouse/crm-prospectos/internal/models"
	"github.com/travelhouse/crm-prospectos/internal/session"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func abrirDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.Usuario{}, &models.Prospecto{}))
	return db
}

func crearUsuario(t *testing.T, db *gorm.DB, username, tipo string) *models.Usuario {
	t.Helper()
	u := models.Usuario{
		Username:       username,
		Email:          username + "@travelhouse.com",
		HashedPassword: "x",
		TipoUsuario:    tipo,
		Activo:         1,
	}
	require.NoError(t, db.Create(&u).Error)
	return &u
}

// montar arma el router con la sesión del usuario dado ya creada en Redis.
func montar(t *testing.T, db *gorm.DB, actor *models.Usuario) (*mux.Router, *http.Cookie) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	store := session.NewRedisStore(client)
	require.NoError(t, store.Crear(context.Background(), "token-test", actor.ID))

	mw := auth.NewMiddleware(db, store)
	h := NewHandler(db, zap.NewNop())

	r := mux.NewRouter()
	r.Handle("/usuarios/{id}/desactivar", mw.RequiereSesion(http.HandlerFunc(h.Desactivar))).Methods("POST")
	r.Handle("/usuarios/{id}/reactivar", mw.RequiereSesion(http.HandlerFunc(h.Reactivar))).Methods("POST")

	return r, &http.Cookie{Name: session.CookieName, Value: "token-test"}
}

func TestDesactivarReasignaProspectosActivos(t *testing.T) {
	db := abrirDB(t)
	admin := crearUsuario(t, db, "admin", models.TipoAdministrador)
	agente := crearUsuario(t, db, "cvargas", models.TipoAgente)

	estados := []string{models.EstadoNuevo, models.EstadoCotizado, models.EstadoGanado}
	for i, estado := range estados {
		p := models.Prospecto{
			Telefono:         fmt.Sprintf("30000000%d", i),
			Estado:           estado,
			AgenteAsignadoID: &agente.ID,
		}
		require.NoError(t, db.Create(&p).Error)
	}

	router, cookie := montar(t, db, admin)

	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/usuarios/%d/desactivar", agente.ID), nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Contains(t, rec.Header().Get("Location"), "success=")

	var fallback models.Usuario
	require.NoError(t, db.Where("username = ?", models.UsernameServicioCliente).First(&fallback).Error)

	// Los dos prospectos en gestión pasan al comodín conservando el dueño
	// original; el ganado no se toca.
	var reasignados []models.Prospecto
	require.NoError(t, db.Where("agente_asignado_id = ?", fallback.ID).Find(&reasignados).Error)
	require.Len(t, reasignados, 2)
	for _, p := range reasignados {
		require.NotNil(t, p.AgenteOriginalID)
		assert.Equal(t, agente.ID, *p.AgenteOriginalID)
	}

	var ganado models.Prospecto
	require.NoError(t, db.Where("estado = ?", models.EstadoGanado).First(&ganado).Error)
	require.NotNil(t, ganado.AgenteAsignadoID)
	assert.Equal(t, agente.ID, *ganado.AgenteAsignadoID)

	var desactivado models.Usuario
	require.NoError(t, db.First(&desactivado, agente.ID).Error)
	assert.Equal(t, 0, desactivado.Activo)
	assert.Equal(t, models.EmailServicioCliente, desactivado.Email)
}

func TestDesactivarPropiaCuentaRechazado(t *testing.T) {
	db := abrirDB(t)
	admin := crearUsuario(t, db, "admin", models.TipoAdministrador)

	router, cookie := montar(t, db, admin)

	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/usuarios/%d/desactivar", admin.ID), nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Contains(t, rec.Header().Get("Location"), "error=")

	var u models.Usuario
	require.NoError(t, db.First(&u, admin.ID).Error)
	assert.Equal(t, 1, u.Activo)
}

func TestReactivarExigeEmailLibre(t *testing.T) {
	db := abrirDB(t)
	admin := crearUsuario(t, db, "admin", models.TipoAdministrador)
	otro := crearUsuario(t, db, "otro", models.TipoAgente)

	inactivo := crearUsuario(t, db, "retirado", models.TipoAgente)
	inactivo.Activo = 0
	inactivo.Email = models.EmailServicioCliente
	require.NoError(t, db.Save(inactivo).Error)

	router, cookie := montar(t, db, admin)

	enviar := func(email string) *httptest.ResponseRecorder {
		form := url.Values{"email": {email}}
		req := httptest.NewRequest(http.MethodPost,
			fmt.Sprintf("/usuarios/%d/reactivar", inactivo.ID),
			strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.AddCookie(cookie)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	// Email de otro usuario activo: rechazado.
	rec := enviar(otro.Email)
	assert.Contains(t, rec.Header().Get("Location"), "error=")

	var u models.Usuario
	require.NoError(t, db.First(&u, inactivo.ID).Error)
	assert.Equal(t, 0, u.Activo)

	// Email libre: reactivado.
	rec = enviar("retirado.nuevo@travelhouse.com")
	assert.Contains(t, rec.Header().Get("Location"), "success=")

	require.NoError(t, db.First(&u, inactivo.ID).Error)
	assert.Equal(t, 1, u.Activo)
	assert.Equal(t, "retirado.nuevo@travelhouse.com", u.Email)
}
