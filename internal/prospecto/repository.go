package prospecto

import (
	"time"

	"github.com/travelhouse/crm-prospectos/internal/models"
	"gorm.io/gorm"
)

// Filtro acota los listados de prospectos.
type Filtro struct {
	Estado          string
	AgenteID        *uint
	Destino         string
	Telefono        string
	Busqueda        string
	RegistroDesde   *time.Time
	RegistroHasta   *time.Time
	IncluirBorrados bool
	Pagina          int
	PorPagina       int
}

type Repository interface {
	Salvar(db *gorm.DB, p *models.Prospecto) error
	BuscarPorID(db *gorm.DB, id uint) (*models.Prospecto, error)
	BuscarPorTelefono(db *gorm.DB, telefono string) ([]models.Prospecto, error)
	Listar(db *gorm.DB, f Filtro) ([]models.Prospecto, int64, error)
	ListarActivosPorAgente(db *gorm.DB, agenteID uint) ([]models.Prospecto, error)
	ListarInteracciones(db *gorm.DB, prospectoID uint) ([]models.Interaccion, error)
}

type repositoryImpl struct{}

func NewRepository() Repository {
	return &repositoryImpl{}
}

func (r *repositoryImpl) Salvar(db *gorm.DB, p *models.Prospecto) error {
	return db.Save(p).Error
}

func (r *repositoryImpl) BuscarPorID(db *gorm.DB, id uint) (*models.Prospecto, error) {
	var p models.Prospecto
	err := db.First(&p, id).Error
	return &p, err
}

// BuscarPorTelefono encuentra solicitudes previas del mismo contacto mirando
// teléfono principal y secundario, las más recientes primero.
func (r *repositoryImpl) BuscarPorTelefono(db *gorm.DB, telefono string) ([]models.Prospecto, error) {
	var list []models.Prospecto
	err := db.Where("telefono = ? OR telefono_secundario = ?", telefono, telefono).
		Order("fecha_registro DESC").
		Find(&list).Error
	return list, err
}

func (r *repositoryImpl) Listar(db *gorm.DB, f Filtro) ([]models.Prospecto, int64, error) {
	q := db.Model(&models.Prospecto{})

	if !f.IncluirBorrados {
		q = q.Where("fecha_eliminacion IS NULL")
	}
	if f.Estado != "" && f.Estado != "todos" {
		q = q.Where("estado = ?", f.Estado)
	}
	if f.AgenteID != nil {
		q = q.Where("agente_asignado_id = ?", *f.AgenteID)
	}
	if f.Destino != "" {
		q = q.Where("destino LIKE ?", "%"+f.Destino+"%")
	}
	if f.Telefono != "" {
		q = q.Where("telefono LIKE ? OR telefono_secundario LIKE ?", "%"+f.Telefono+"%", "%"+f.Telefono+"%")
	}
	if f.Busqueda != "" {
		like := "%" + f.Busqueda + "%"
		q = q.Where("nombre LIKE ? OR apellido LIKE ? OR correo_electronico LIKE ? OR id_solicitud LIKE ? OR id_cliente LIKE ?",
			like, like, like, like, like)
	}
	if f.RegistroDesde != nil {
		q = q.Where("fecha_registro >= ?", *f.RegistroDesde)
	}
	if f.RegistroHasta != nil {
		q = q.Where("fecha_registro <= ?", *f.RegistroHasta)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if f.PorPagina > 0 {
		pagina := f.Pagina
		if pagina < 1 {
			pagina = 1
		}
		q = q.Offset((pagina - 1) * f.PorPagina).Limit(f.PorPagina)
	}

	var list []models.Prospecto
	err := q.Order("fecha_registro DESC").Find(&list).Error
	return list, total, err
}

// ListarActivosPorAgente devuelve los prospectos aún en gestión de un agente,
// los que migran a servicio_cliente cuando el agente se desactiva.
func (r *repositoryImpl) ListarActivosPorAgente(db *gorm.DB, agenteID uint) ([]models.Prospecto, error) {
	var list []models.Prospecto
	err := db.Where("agente_asignado_id = ? AND estado IN ?", agenteID,
		[]string{models.EstadoNuevo, models.EstadoEnSeguimiento, models.EstadoCotizado}).
		Find(&list).Error
	return list, err
}

func (r *repositoryImpl) ListarInteracciones(db *gorm.DB, prospectoID uint) ([]models.Interaccion, error) {
	var list []models.Interaccion
	err := db.Where("prospecto_id = ?", prospectoID).
		Order("fecha_creacion DESC").
		Find(&list).Error
	return list, err
}
