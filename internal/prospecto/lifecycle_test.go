package prospecto

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travelhouse/crm-prospectos/internal/cotizacion"
	"github.com/travelhouse/crm-prospectos/internal/models"
	"github.com/travelhouse/crm-prospectos/internal/notificacion"
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

	require.NoError(t, db.AutoMigrate(
		&models.Usuario{},
		&models.Prospecto{},
		&models.Interaccion{},
		&models.HistorialEstado{},
		&models.EstadisticaCotizacion{},
		&models.Notificacion{},
	))
	return db
}

func crearAgente(t *testing.T, db *gorm.DB, username, tipo string) *models.Usuario {
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

func TestValidarTransicion(t *testing.T) {
	casos := []struct {
		nombre         string
		estado         string
		estadoAnterior string
		estadoNuevo    string
		comentario     string
		privilegiado   bool
		rechaza        bool
	}{
		{nombre: "avance normal", estado: models.EstadoNuevo, estadoNuevo: models.EstadoEnSeguimiento},
		{nombre: "regresión temprana permitida", estado: models.EstadoEnSeguimiento, estadoNuevo: models.EstadoNuevo},
		{nombre: "regresión desde cotizado bloqueada", estado: models.EstadoCotizado, estadoNuevo: models.EstadoNuevo, rechaza: true},
		{nombre: "regresión desde cotizado permitida a privilegiado", estado: models.EstadoCotizado, estadoNuevo: models.EstadoNuevo, privilegiado: true},
		{nombre: "regresión desde ganado bloqueada", estado: models.EstadoGanado, estadoNuevo: models.EstadoCotizado, rechaza: true},
		{nombre: "ganado a cerrado_perdido no es regresión", estado: models.EstadoGanado, estadoNuevo: models.EstadoCerradoPerdido, comentario: "cliente desistió"},
		{nombre: "cerrado_perdido a ganado no es regresión", estado: models.EstadoCerradoPerdido, estadoNuevo: models.EstadoGanado},
		{nombre: "cerrado_perdido sin comentario rechazado", estado: models.EstadoCotizado, estadoNuevo: models.EstadoCerradoPerdido, rechaza: true},
		{nombre: "cerrado_perdido con solo espacios rechazado", estado: models.EstadoCotizado, estadoNuevo: models.EstadoCerradoPerdido, comentario: "   ", rechaza: true},
		{nombre: "cerrado_perdido con comentario aceptado", estado: models.EstadoCotizado, estadoNuevo: models.EstadoCerradoPerdido, comentario: "precio alto"},
		{nombre: "cancelar venta ganada", estado: models.EstadoGanado, estadoNuevo: models.EstadoVentaCancelada},
		{nombre: "cancelar con ganado como anterior", estado: models.EstadoCerradoPerdido, estadoAnterior: models.EstadoGanado, estadoNuevo: models.EstadoVentaCancelada},
		{nombre: "cancelar sin haber ganado rechazado", estado: models.EstadoCotizado, estadoAnterior: models.EstadoEnSeguimiento, estadoNuevo: models.EstadoVentaCancelada, rechaza: true},
	}

	for _, c := range casos {
		t.Run(c.nombre, func(t *testing.T) {
			p := models.Prospecto{Estado: c.estado, EstadoAnterior: c.estadoAnterior}
			err := ValidarTransicion(&p, c.estadoNuevo, c.comentario, c.privilegiado)
			if c.rechaza {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAplicarCambioEstadoCotizado(t *testing.T) {
	db := abrirDB(t)
	agente := crearAgente(t, db, "mrodriguez", models.TipoAgente)
	cotRepo := cotizacion.NewRepository()
	notRepo := notificacion.NewRepository()

	p := models.Prospecto{
		Telefono:         "3001234567",
		Estado:           models.EstadoEnSeguimiento,
		AgenteAsignadoID: &agente.ID,
	}
	require.NoError(t, db.Create(&p).Error)

	err := AplicarCambioEstado(db, cotRepo, notRepo, &p, CambioEstado{
		EstadoNuevo: models.EstadoCotizado,
		Descripcion: "se envió cotización",
		Usuario:     agente,
		Ahora:       time.Now(),
	})
	require.NoError(t, err)

	assert.Equal(t, models.EstadoCotizado, p.Estado)
	assert.Equal(t, models.EstadoEnSeguimiento, p.EstadoAnterior)
	assert.NotEmpty(t, p.IDCotizacion)

	// Cada evento de cotización crea una fila nueva, incluso repetido.
	err = AplicarCambioEstado(db, cotRepo, notRepo, &p, CambioEstado{
		EstadoNuevo: models.EstadoCotizado,
		Descripcion: "cotización ajustada",
		Usuario:     agente,
		Ahora:       time.Now(),
	})
	require.NoError(t, err)

	var filas int64
	require.NoError(t, db.Model(&models.EstadisticaCotizacion{}).Count(&filas).Error)
	assert.Equal(t, int64(2), filas)

	var historial int64
	require.NoError(t, db.Model(&models.HistorialEstado{}).Count(&historial).Error)
	assert.Equal(t, int64(1), historial, "solo el primer evento cambió de estado")

	var interacciones int64
	require.NoError(t, db.Model(&models.Interaccion{}).Count(&interacciones).Error)
	assert.Equal(t, int64(2), interacciones)
}

func TestAplicarCambioEstadoGanado(t *testing.T) {
	db := abrirDB(t)
	agente := crearAgente(t, db, "lgomez", models.TipoAgente)
	cotRepo := cotizacion.NewRepository()
	notRepo := notificacion.NewRepository()

	ida := time.Now().AddDate(0, 0, 60)
	p := models.Prospecto{
		Telefono:         "3009876543",
		Destino:          "CANCUN",
		Estado:           models.EstadoCotizado,
		AgenteAsignadoID: &agente.ID,
		FechaIda:         &ida,
	}
	require.NoError(t, db.Create(&p).Error)

	err := AplicarCambioEstado(db, cotRepo, notRepo, &p, CambioEstado{
		EstadoNuevo: models.EstadoGanado,
		Descripcion: "venta confirmada",
		Usuario:     agente,
		Ahora:       time.Now(),
	})
	require.NoError(t, err)

	assert.Equal(t, models.EstadoGanado, p.Estado)
	require.NotNil(t, p.FechaCompra)

	var recordatorios []models.Notificacion
	require.NoError(t, db.Where("tipo = ?", models.NotificacionSeguimientoViaje).Find(&recordatorios).Error)
	assert.Len(t, recordatorios, 3)
	for _, n := range recordatorios {
		assert.Equal(t, agente.ID, n.UsuarioID)
		assert.Contains(t, n.Mensaje, "CANCUN")
	}
}

func TestAplicarCambioEstadoRegresionRechazada(t *testing.T) {
	db := abrirDB(t)
	agente := crearAgente(t, db, "jperez", models.TipoAgente)
	cotRepo := cotizacion.NewRepository()
	notRepo := notificacion.NewRepository()

	p := models.Prospecto{Telefono: "3005551234", Estado: models.EstadoCotizado}
	require.NoError(t, db.Create(&p).Error)

	err := AplicarCambioEstado(db, cotRepo, notRepo, &p, CambioEstado{
		EstadoNuevo: models.EstadoNuevo,
		Descripcion: "retroceso",
		Usuario:     agente,
		Ahora:       time.Now(),
	})
	require.Error(t, err)

	// El estado guardado no cambió.
	var guardado models.Prospecto
	require.NoError(t, db.First(&guardado, p.ID).Error)
	assert.Equal(t, models.EstadoCotizado, guardado.Estado)
}

func TestSolicitudesSinConsecutivoCoexisten(t *testing.T) {
	db := abrirDB(t)

	// Varias filas recién insertadas todavía no tienen consecutivo; el
	// índice único solo aplica cuando ya fue asignado.
	a := models.Prospecto{Telefono: "3001110001"}
	b := models.Prospecto{Telefono: "3001110002"}
	require.NoError(t, db.Create(&a).Error)
	require.NoError(t, db.Create(&b).Error)
	assert.Nil(t, a.IDSolicitud)
	assert.Nil(t, b.IDSolicitud)

	a.GenerarIDSolicitud()
	b.GenerarIDSolicitud()
	require.NoError(t, db.Save(&a).Error)
	require.NoError(t, db.Save(&b).Error)
	assert.NotEqual(t, *a.IDSolicitud, *b.IDSolicitud)
}
