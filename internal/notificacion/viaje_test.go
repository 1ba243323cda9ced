package notificacion

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travelhouse/crm-prospectos/internal/models"
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
		&models.Notificacion{},
	))
	return db
}

func prospectoGanado(agenteID uint, ida time.Time) *models.Prospecto {
	return &models.Prospecto{
		ID:               1,
		Telefono:         "3001112233",
		Destino:          "PUNTA CANA",
		Estado:           models.EstadoGanado,
		AgenteAsignadoID: &agenteID,
		FechaIda:         &ida,
	}
}

func TestGenerarRecordatoriosViajeCompletos(t *testing.T) {
	db := abrirDB(t)
	repo := NewRepository()

	ahora := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	p := prospectoGanado(7, ahora.AddDate(0, 0, 50))
	require.NoError(t, db.Create(p).Error)

	require.NoError(t, GenerarRecordatoriosViaje(db, repo, p, ahora))

	var recordatorios []models.Notificacion
	require.NoError(t, db.Order("fecha_programada ASC").Find(&recordatorios).Error)
	require.Len(t, recordatorios, 3)

	// 45, 10 y 2 días antes de la ida
	assert.WithinDuration(t, p.FechaIda.AddDate(0, 0, -45), *recordatorios[0].FechaProgramada, time.Second)
	assert.WithinDuration(t, p.FechaIda.AddDate(0, 0, -10), *recordatorios[1].FechaProgramada, time.Second)
	assert.WithinDuration(t, p.FechaIda.AddDate(0, 0, -2), *recordatorios[2].FechaProgramada, time.Second)
	for _, n := range recordatorios {
		assert.Equal(t, uint(7), n.UsuarioID)
		assert.Equal(t, models.NotificacionSeguimientoViaje, n.Tipo)
		assert.Contains(t, n.Mensaje, "PUNTA CANA")
	}
}

func TestGenerarRecordatoriosViajeOmitePasados(t *testing.T) {
	db := abrirDB(t)
	repo := NewRepository()

	ahora := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	// A 5 días del viaje solo cabe el recordatorio de 2 días.
	p := prospectoGanado(3, ahora.AddDate(0, 0, 5))
	require.NoError(t, db.Create(p).Error)

	require.NoError(t, GenerarRecordatoriosViaje(db, repo, p, ahora))

	var total int64
	require.NoError(t, db.Model(&models.Notificacion{}).Count(&total).Error)
	assert.Equal(t, int64(1), total)
}

func TestGenerarRecordatoriosViajeRegeneraSinDuplicar(t *testing.T) {
	db := abrirDB(t)
	repo := NewRepository()

	ahora := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	p := prospectoGanado(3, ahora.AddDate(0, 0, 50))
	require.NoError(t, db.Create(p).Error)

	require.NoError(t, GenerarRecordatoriosViaje(db, repo, p, ahora))

	// Cambia la fecha de ida y regenera: el plan anterior se purga.
	nuevaIda := ahora.AddDate(0, 0, 60)
	p.FechaIda = &nuevaIda
	require.NoError(t, GenerarRecordatoriosViaje(db, repo, p, ahora))

	var recordatorios []models.Notificacion
	require.NoError(t, db.Find(&recordatorios).Error)
	assert.Len(t, recordatorios, 3)
	for _, n := range recordatorios {
		assert.False(t, n.FechaProgramada.Before(nuevaIda.AddDate(0, 0, -45)))
	}
}

func TestGenerarRecordatoriosViajeNoOp(t *testing.T) {
	db := abrirDB(t)
	repo := NewRepository()
	ahora := time.Now()

	sinFecha := &models.Prospecto{ID: 1, Telefono: "300", Estado: models.EstadoGanado}
	require.NoError(t, db.Create(sinFecha).Error)
	require.NoError(t, GenerarRecordatoriosViaje(db, repo, sinFecha, ahora))

	ida := ahora.AddDate(0, 0, 30)
	noGanado := &models.Prospecto{ID: 2, Telefono: "301", Estado: models.EstadoCotizado, FechaIda: &ida}
	require.NoError(t, db.Create(noGanado).Error)
	require.NoError(t, GenerarRecordatoriosViaje(db, repo, noGanado, ahora))

	var total int64
	require.NoError(t, db.Model(&models.Notificacion{}).Count(&total).Error)
	assert.Equal(t, int64(0), total)
}
