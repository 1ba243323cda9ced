package destino

import (
	"github.com/travelhouse/crm-prospectos/internal/models"
	"gorm.io/gorm"
)

type Repository interface {
	BuscarPorID(db *gorm.DB, id uint) (*models.Destino, error)
	BuscarPorNombre(db *gorm.DB, nombre string) (*models.Destino, error)
	Listar(db *gorm.DB, soloActivos bool) ([]models.Destino, error)
	BuscarSimilares(db *gorm.DB, prefijo string, limite int) ([]models.Destino, error)
	ContarProspectos(db *gorm.DB, destinoID uint) (int64, error)
}

type repositoryImpl struct{}

func NewRepository() Repository {
	return &repositoryImpl{}
}

func (rp *repositoryImpl) BuscarPorID(db *gorm.DB, id uint) (*models.Destino, error) {
	var d models.Destino
	if err := db.First(&d, id).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

func (rp *repositoryImpl) BuscarPorNombre(db *gorm.DB, nombre string) (*models.Destino, error) {
	var d models.Destino
	if err := db.Where("nombre = ?", models.NormalizarNombreDestino(nombre)).First(&d).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

func (rp *repositoryImpl) Listar(db *gorm.DB, soloActivos bool) ([]models.Destino, error) {
	var list []models.Destino
	q := db.Order("nombre ASC")
	if soloActivos {
		q = q.Where("activo = ?", 1)
	}
	if err := q.Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (rp *repositoryImpl) BuscarSimilares(db *gorm.DB, prefijo string, limite int) ([]models.Destino, error) {
	var list []models.Destino
	err := db.Where("activo = ? AND nombre LIKE ?", 1, models.NormalizarNombreDestino(prefijo)+"%").
		Order("nombre ASC").Limit(limite).Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (rp *repositoryImpl) ContarProspectos(db *gorm.DB, destinoID uint) (int64, error) {
	var n int64
	err := db.Model(&models.Prospecto{}).Where("destino_id = ?", destinoID).Count(&n).Error
	return n, err
}
