package cliente

import (
	"github.com/travelhouse/crm-prospectos/internal/models"
	"gorm.io/gorm"
)

type Repository interface {
	BuscarPorID(db *gorm.DB, id uint) (*models.Cliente, error)
	BuscarPorTelefono(db *gorm.DB, telefono string) (*models.Cliente, error)
	Listar(db *gorm.DB, busqueda string, pagina, porPagina int) ([]models.Cliente, int64, error)
	Salvar(db *gorm.DB, c *models.Cliente) error
}

type repositoryImpl struct{}

func NewRepository() Repository {
	return &repositoryImpl{}
}

func (rp *repositoryImpl) BuscarPorID(db *gorm.DB, id uint) (*models.Cliente, error) {
	var c models.Cliente
	if err := db.First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (rp *repositoryImpl) BuscarPorTelefono(db *gorm.DB, telefono string) (*models.Cliente, error) {
	var c models.Cliente
	err := db.Where("telefono = ? OR telefono_secundario = ?", telefono, telefono).
		Order("fecha_registro DESC").First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (rp *repositoryImpl) Listar(db *gorm.DB, busqueda string, pagina, porPagina int) ([]models.Cliente, int64, error) {
	q := db.Model(&models.Cliente{}).Where("fecha_eliminacion IS NULL")
	if busqueda != "" {
		like := "%" + busqueda + "%"
		q = q.Where("nombre LIKE ? OR apellido LIKE ? OR telefono LIKE ? OR correo_electronico LIKE ? OR id_cliente LIKE ?",
			like, like, like, like, like)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if pagina < 1 {
		pagina = 1
	}
	if porPagina < 1 {
		porPagina = 20
	}

	var list []models.Cliente
	err := q.Order("fecha_registro DESC").
		Offset((pagina - 1) * porPagina).Limit(porPagina).Find(&list).Error
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (rp *repositoryImpl) Salvar(db *gorm.DB, c *models.Cliente) error {
	return db.Save(c).Error
}
