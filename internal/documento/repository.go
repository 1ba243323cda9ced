package documento

import (
	"github.com/travelhouse/crm-prospectos/internal/models"
	"gorm.io/gorm"
)

type Repository interface {
	BuscarPorID(db *gorm.DB, id uint) (*models.Documento, error)
	ListarPorProspecto(db *gorm.DB, prospectoID uint) ([]models.Documento, error)
	Crear(db *gorm.DB, d *models.Documento) error
	Eliminar(db *gorm.DB, d *models.Documento) error
}

type repositoryImpl struct{}

func NewRepository() Repository {
	return &repositoryImpl{}
}

func (rp *repositoryImpl) BuscarPorID(db *gorm.DB, id uint) (*models.Documento, error) {
	var d models.Documento
	if err := db.First(&d, id).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

func (rp *repositoryImpl) ListarPorProspecto(db *gorm.DB, prospectoID uint) ([]models.Documento, error) {
	var list []models.Documento
	err := db.Where("prospecto_id = ?", prospectoID).Order("fecha_subida DESC").Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

// Crear inserta el documento y le asigna el ID legible, que requiere el ID
// numérico de la fila.
func (rp *repositoryImpl) Crear(db *gorm.DB, d *models.Documento) error {
	if err := db.Create(d).Error; err != nil {
		return err
	}
	d.GenerarIDDocumento()
	return db.Model(d).Update("id_documento", d.IDDocumento).Error
}

func (rp *repositoryImpl) Eliminar(db *gorm.DB, d *models.Documento) error {
	return db.Delete(d).Error
}
