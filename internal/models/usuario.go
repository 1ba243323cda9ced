package models

import "time"

// Tipos de usuario del sistema
const (
	TipoAdministrador = "administrador"
	TipoSupervisor    = "supervisor"
	TipoAgente        = "agente"
)

// EmailServicioCliente reemplaza el correo de un agente desactivado para que
// los envíos no lleguen al buzón de un empleado retirado.
const EmailServicioCliente = "servicioclientetravelhouse@gmail.com"

// UsernameServicioCliente es la cuenta comodín que recibe los prospectos
// de agentes desactivados.
const UsernameServicioCliente = "servicio_cliente"

// Usuario representa una cuenta del sistema (administrador, supervisor o agente)
type Usuario struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Username       string    `gorm:"size:50;uniqueIndex;not null" json:"username"`
	Email          string    `gorm:"size:100;not null" json:"email"`
	HashedPassword string    `gorm:"size:255;not null" json:"-"`
	TipoUsuario    string    `gorm:"size:20;not null;default:agente" json:"tipoUsuario"`
	Activo         int       `gorm:"default:1" json:"activo"`
	FechaCreacion  time.Time `gorm:"autoCreateTime" json:"fechaCreacion"`
}

// EsPrivilegiado indica si el usuario puede saltarse las reglas de regresión
// de estado y gestionar prospectos ajenos.
func (u *Usuario) EsPrivilegiado() bool {
	return u.TipoUsuario == TipoAdministrador || u.TipoUsuario == TipoSupervisor
}

// TipoUsuarioValido valida el tipo recibido en formularios e importaciones.
func TipoUsuarioValido(tipo string) bool {
	switch tipo {
	case TipoAdministrador, TipoSupervisor, TipoAgente:
		return true
	}
	return false
}
