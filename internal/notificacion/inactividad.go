package notificacion

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/travelhouse/crm-prospectos/internal/models"
	"gorm.io/gorm"
)

// Umbrales del chequeo de inactividad. No hay timers en el proceso: el
// chequeo se dispara desde un endpoint de polling.
const (
	umbralInactividad = 4 * time.Hour
	ventanaDedup      = 24 * time.Hour
)

// VerificarInactividad alerta sobre prospectos nuevos sin gestión por más de
// 4 horas. Notifica al agente asignado, o a todos los administradores y
// supervisores si no hay agente. Una alerta por prospecto cada 24 horas.
func VerificarInactividad(db *gorm.DB, repo Repository, ahora time.Time) (int, error) {
	limite := ahora.Add(-umbralInactividad)

	var inactivos []models.Prospecto
	if err := db.Where("estado = ? AND fecha_registro <= ? AND fecha_eliminacion IS NULL",
		models.EstadoNuevo, limite).Find(&inactivos).Error; err != nil {
		return 0, err
	}

	count := 0
	for i := range inactivos {
		p := &inactivos[i]

		var existente models.Notificacion
		err := db.Where("prospecto_id = ? AND tipo = ? AND fecha_creacion >= ?",
			p.ID, models.NotificacionInactividad, ahora.Add(-ventanaDedup)).
			First(&existente).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return count, err
		}

		var destinatarios []uint
		if p.AgenteAsignadoID != nil {
			destinatarios = append(destinatarios, *p.AgenteAsignadoID)
		} else {
			var supervisores []models.Usuario
			if err := db.Where("tipo_usuario IN ? AND activo = ?",
				[]string{models.TipoAdministrador, models.TipoSupervisor}, 1).
				Find(&supervisores).Error; err != nil {
				return count, err
			}
			for _, u := range supervisores {
				destinatarios = append(destinatarios, u.ID)
			}
		}

		nombre := strings.TrimSpace(fmt.Sprintf("%s %s", p.Nombre, p.Apellido))
		for _, uid := range destinatarios {
			n := models.Notificacion{
				UsuarioID:   uid,
				ProspectoID: &p.ID,
				Tipo:        models.NotificacionInactividad,
				Mensaje:     fmt.Sprintf("Prospecto inactivo > 4h: %s", nombre),
			}
			if err := repo.Crear(db, &n); err != nil {
				return count, err
			}
			count++
		}
	}
	return count, nil
}
