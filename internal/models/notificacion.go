package models

import "time"

// Tipos de notificación
const (
	NotificacionAsignacion       = "asignacion"
	NotificacionInactividad      = "inactividad"
	NotificacionSeguimiento      = "seguimiento"
	NotificacionSeguimientoViaje = "seguimiento_viaje"
)

// Notificacion es un recordatorio inmediato o programado dirigido a un
// usuario, opcionalmente ligado a un prospecto.
type Notificacion struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	UsuarioID       uint       `json:"usuarioId"`
	ProspectoID     *uint      `json:"prospectoId,omitempty"`
	Tipo            string     `gorm:"size:50" json:"tipo"`
	Mensaje         string     `gorm:"type:text;not null" json:"mensaje"`
	FechaCreacion   time.Time  `gorm:"autoCreateTime" json:"fechaCreacion"`
	FechaProgramada *time.Time `json:"fechaProgramada,omitempty"`
	Leida           bool       `gorm:"default:false" json:"leida"`
	EmailEnviado    bool       `gorm:"default:false" json:"emailEnviado"`
}
