package cotizacion

import (
	"time"

	"github.com/travelhouse/crm-prospectos/internal/models"
	"gorm.io/gorm"
)

// Repository registra eventos de cotización. Cada evento crea una fila
// nueva: las cotizaciones nunca se deduplican, todas se conservan para los
// reportes de conversión.
type Repository interface {
	Registrar(db *gorm.DB, prospectoID uint, agenteID *uint, fecha time.Time) (*models.EstadisticaCotizacion, error)
	ListarPorProspecto(db *gorm.DB, prospectoID uint) ([]models.EstadisticaCotizacion, error)
	ListarPorRango(db *gorm.DB, desde, hasta time.Time) ([]models.EstadisticaCotizacion, error)
}

type repositoryImpl struct{}

func NewRepository() Repository {
	return &repositoryImpl{}
}

// Registrar inserta la fila y le asigna su ID COT- una vez que la base
// entregó el ID numérico.
func (r *repositoryImpl) Registrar(db *gorm.DB, prospectoID uint, agenteID *uint, fecha time.Time) (*models.EstadisticaCotizacion, error) {
	e := models.EstadisticaCotizacion{
		AgenteID:        agenteID,
		ProspectoID:     prospectoID,
		FechaCotizacion: fecha,
	}
	if err := db.Create(&e).Error; err != nil {
		return nil, err
	}
	e.GenerarIDCotizacion()
	if err := db.Model(&e).Update("id_cotizacion", e.IDCotizacion).Error; err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *repositoryImpl) ListarPorProspecto(db *gorm.DB, prospectoID uint) ([]models.EstadisticaCotizacion, error) {
	var list []models.EstadisticaCotizacion
	err := db.Where("prospecto_id = ?", prospectoID).Order("fecha_registro DESC").Find(&list).Error
	return list, err
}

func (r *repositoryImpl) ListarPorRango(db *gorm.DB, desde, hasta time.Time) ([]models.EstadisticaCotizacion, error) {
	var list []models.EstadisticaCotizacion
	err := db.Where("fecha_cotizacion BETWEEN ? AND ?", desde, hasta).Find(&list).Error
	return list, err
}
