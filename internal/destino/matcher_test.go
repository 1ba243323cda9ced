package destino

import (
	"testing"

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

	require.NoError(t, db.AutoMigrate(&models.Destino{}, &models.Prospecto{}))
	return db
}

func sembrarCatalogo(t *testing.T, db *gorm.DB, nombres ...string) {
	t.Helper()
	for _, nombre := range nombres {
		require.NoError(t, db.Create(&models.Destino{Nombre: nombre, Activo: 1}).Error)
	}
}

func TestEmparejarExacto(t *testing.T) {
	db := abrirDB(t)
	repo := NewRepository()
	sembrarCatalogo(t, db, "CANCUN", "PUNTA CANA", "SAN ANDRES")

	d, err := Emparejar(db, repo, "  cancun ")
	require.NoError(t, err)
	assert.Equal(t, "CANCUN", d.Nombre)
}

func TestEmparejarPorSimilitud(t *testing.T) {
	db := abrirDB(t)
	repo := NewRepository()
	sembrarCatalogo(t, db, "CANCUN", "PUNTA CANA")

	// Error de tipeo dentro del umbral
	d, err := Emparejar(db, repo, "CANCUM")
	require.NoError(t, err)
	assert.Equal(t, "CANCUN", d.Nombre)

	var total int64
	require.NoError(t, db.Model(&models.Destino{}).Count(&total).Error)
	assert.Equal(t, int64(2), total, "no debe crear entradas nuevas")
}

func TestEmparejarCreaCuandoNoHayParecido(t *testing.T) {
	db := abrirDB(t)
	repo := NewRepository()
	sembrarCatalogo(t, db, "CANCUN")

	d, err := Emparejar(db, repo, "tokio")
	require.NoError(t, err)
	assert.Equal(t, "TOKIO", d.Nombre)
	assert.NotZero(t, d.ID)

	var total int64
	require.NoError(t, db.Model(&models.Destino{}).Count(&total).Error)
	assert.Equal(t, int64(2), total)
}

func TestEmparejarIgnoraInactivos(t *testing.T) {
	db := abrirDB(t)
	repo := NewRepository()
	require.NoError(t, db.Create(&models.Destino{Nombre: "CARTAGENA", Activo: 0}).Error)

	// La coincidencia exacta no filtra por activo; la similitud sí.
	d, err := Emparejar(db, repo, "CARTAGENA")
	require.NoError(t, err)
	assert.Equal(t, "CARTAGENA", d.Nombre)

	d, err = Emparejar(db, repo, "CARTAJENA")
	require.NoError(t, err)
	assert.Equal(t, "CARTAJENA", d.Nombre, "sin catálogo activo se crea la entrada")
}
