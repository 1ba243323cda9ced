package usuario

import (
	"errors"

	"github.com/travelhouse/crm-prospectos/internal/models"
	"github.com/travelhouse/crm-prospectos/internal/utils"
	"gorm.io/gorm"
)

type Repository interface {
	BuscarPorID(db *gorm.DB, id uint) (*models.Usuario, error)
	BuscarPorUsername(db *gorm.DB, username string) (*models.Usuario, error)
	Listar(db *gorm.DB, soloActivos bool) ([]models.Usuario, error)
	ListarAgentesActivos(db *gorm.DB) ([]models.Usuario, error)
	ObtenerServicioCliente(db *gorm.DB) (*models.Usuario, error)
}

type repositoryImpl struct{}

func NewRepository() Repository {
	return &repositoryImpl{}
}

func (rp *repositoryImpl) BuscarPorID(db *gorm.DB, id uint) (*models.Usuario, error) {
	var u models.Usuario
	if err := db.First(&u, id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (rp *repositoryImpl) BuscarPorUsername(db *gorm.DB, username string) (*models.Usuario, error) {
	var u models.Usuario
	if err := db.Where("username = ?", username).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (rp *repositoryImpl) Listar(db *gorm.DB, soloActivos bool) ([]models.Usuario, error) {
	var list []models.Usuario
	q := db.Order("username ASC")
	if soloActivos {
		q = q.Where("activo = ?", 1)
	}
	if err := q.Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (rp *repositoryImpl) ListarAgentesActivos(db *gorm.DB) ([]models.Usuario, error) {
	var list []models.Usuario
	err := db.Where("tipo_usuario = ? AND activo = ?", models.TipoAgente, 1).
		Order("username ASC").Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

// ObtenerServicioCliente devuelve la cuenta comodín que recibe los prospectos
// de agentes desactivados, creándola si aún no existe.
func (rp *repositoryImpl) ObtenerServicioCliente(db *gorm.DB) (*models.Usuario, error) {
	var u models.Usuario
	err := db.Where("username = ?", models.UsernameServicioCliente).First(&u).Error
	if err == nil {
		return &u, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	password, err := utils.GenerarPasswordAleatoria(16)
	if err != nil {
		return nil, err
	}
	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, err
	}
	u = models.Usuario{
		Username:       models.UsernameServicioCliente,
		Email:          models.EmailServicioCliente,
		HashedPassword: hash,
		TipoUsuario:    models.TipoAgente,
		Activo:         1,
	}
	if err := db.Create(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}
