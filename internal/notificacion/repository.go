package notificacion

import (
	"time"

	"github.com/travelhouse/crm-prospectos/internal/models"
	"gorm.io/gorm"
)

type Repository interface {
	Crear(db *gorm.DB, n *models.Notificacion) error
	BuscarPorID(db *gorm.DB, id uint) (*models.Notificacion, error)
	ListarPorUsuario(db *gorm.DB, usuarioID uint) ([]models.Notificacion, error)
	PendientesVencidas(db *gorm.DB, usuarioID uint, ahora time.Time) ([]models.Notificacion, error)
	MarcarLeida(db *gorm.DB, id, usuarioID uint) error
	EliminarDeViaje(db *gorm.DB, prospectoID uint) error
}

type repositoryImpl struct{}

func NewRepository() Repository {
	return &repositoryImpl{}
}

func (r *repositoryImpl) Crear(db *gorm.DB, n *models.Notificacion) error {
	return db.Create(n).Error
}

func (r *repositoryImpl) BuscarPorID(db *gorm.DB, id uint) (*models.Notificacion, error) {
	var n models.Notificacion
	err := db.First(&n, id).Error
	return &n, err
}

func (r *repositoryImpl) ListarPorUsuario(db *gorm.DB, usuarioID uint) ([]models.Notificacion, error) {
	var list []models.Notificacion
	err := db.Where("usuario_id = ?", usuarioID).Order("fecha_creacion DESC").Find(&list).Error
	return list, err
}

// PendientesVencidas devuelve las notificaciones no leídas cuya fecha
// programada ya llegó, para el polling del navegador.
func (r *repositoryImpl) PendientesVencidas(db *gorm.DB, usuarioID uint, ahora time.Time) ([]models.Notificacion, error) {
	var list []models.Notificacion
	err := db.Where("usuario_id = ? AND leida = ? AND fecha_programada IS NOT NULL AND fecha_programada <= ?",
		usuarioID, false, ahora).
		Order("fecha_programada ASC").
		Find(&list).Error
	return list, err
}

func (r *repositoryImpl) MarcarLeida(db *gorm.DB, id, usuarioID uint) error {
	return db.Model(&models.Notificacion{}).
		Where("id = ? AND usuario_id = ?", id, usuarioID).
		Update("leida", true).Error
}

// EliminarDeViaje purga los recordatorios automáticos de viaje del prospecto
// antes de regenerarlos.
func (r *repositoryImpl) EliminarDeViaje(db *gorm.DB, prospectoID uint) error {
	return db.Where("prospecto_id = ? AND tipo = ?", prospectoID, models.NotificacionSeguimientoViaje).
		Delete(&models.Notificacion{}).Error
}
