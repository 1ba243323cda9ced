package notificacion

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travelhouse/crm-prospectos/internal/models"
)

func TestVerificarInactividadNotificaAlAgente(t *testing.T) {
	db := abrirDB(t)
	repo := NewRepository()
	ahora := time.Now()

	agenteID := uint(3)
	require.NoError(t, db.Create(&models.Prospecto{
		Telefono:         "3000000001",
		Estado:           models.EstadoNuevo,
		AgenteAsignadoID: &agenteID,
		FechaRegistro:    ahora.Add(-5 * time.Hour),
	}).Error)

	creadas, err := VerificarInactividad(db, repo, ahora)
	require.NoError(t, err)
	assert.Equal(t, 1, creadas)

	var n models.Notificacion
	require.NoError(t, db.First(&n).Error)
	assert.Equal(t, agenteID, n.UsuarioID)
	assert.Equal(t, models.NotificacionInactividad, n.Tipo)

	// Segunda pasada dentro de la ventana de 24h: no duplica.
	creadas, err = VerificarInactividad(db, repo, ahora)
	require.NoError(t, err)
	assert.Equal(t, 0, creadas)
}

func TestVerificarInactividadSinAgenteNotificaSupervisores(t *testing.T) {
	db := abrirDB(t)
	repo := NewRepository()
	ahora := time.Now()

	require.NoError(t, db.Create(&models.Usuario{Username: "admin", TipoUsuario: models.TipoAdministrador, Activo: 1}).Error)
	require.NoError(t, db.Create(&models.Usuario{Username: "sup", TipoUsuario: models.TipoSupervisor, Activo: 1}).Error)
	require.NoError(t, db.Create(&models.Usuario{Username: "agente", TipoUsuario: models.TipoAgente, Activo: 1}).Error)
	// Un supervisor desactivado no recibe alertas.
	require.NoError(t, db.Create(&models.Usuario{Username: "sup-baja", TipoUsuario: models.TipoSupervisor, Activo: 0}).Error)

	require.NoError(t, db.Create(&models.Prospecto{
		Telefono:      "3000000002",
		Nombre:        "SIN",
		Apellido:      "AGENTE",
		Estado:        models.EstadoNuevo,
		FechaRegistro: ahora.Add(-6 * time.Hour),
	}).Error)

	creadas, err := VerificarInactividad(db, repo, ahora)
	require.NoError(t, err)
	assert.Equal(t, 2, creadas)
}

func TestVerificarInactividadIgnoraRecientesYGestionados(t *testing.T) {
	db := abrirDB(t)
	repo := NewRepository()
	ahora := time.Now()

	agenteID := uint(3)
	require.NoError(t, db.Create(&models.Prospecto{
		Telefono:         "3000000003",
		Estado:           models.EstadoNuevo,
		AgenteAsignadoID: &agenteID,
		FechaRegistro:    ahora.Add(-1 * time.Hour),
	}).Error)
	require.NoError(t, db.Create(&models.Prospecto{
		Telefono:         "3000000004",
		Estado:           models.EstadoEnSeguimiento,
		AgenteAsignadoID: &agenteID,
		FechaRegistro:    ahora.Add(-10 * time.Hour),
	}).Error)

	creadas, err := VerificarInactividad(db, repo, ahora)
	require.NoError(t, err)
	assert.Equal(t, 0, creadas)
}
