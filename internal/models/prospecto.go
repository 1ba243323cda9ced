package models

import (
	"fmt"
	"strings"
	"time"
)

// Prospecto representa una solicitud de viaje de un contacto. Varios campos
// de contacto están duplicados respecto de Cliente por compatibilidad con los
// datos históricos; Cliente es la entidad canónica nueva.
type Prospecto struct {
	ID uint `gorm:"primaryKey" json:"id"`

	ClienteID *uint `json:"clienteId,omitempty"`

	// IDCliente identifica a la PERSONA y se reutiliza entre solicitudes del
	// mismo contacto. IDSolicitud identifica cada CASO y es único e inmutable;
	// queda en NULL hasta que el insert asigna el consecutivo.
	IDCliente    string  `gorm:"size:20;index" json:"idCliente"`
	IDSolicitud  *string `gorm:"size:20;uniqueIndex" json:"idSolicitud,omitempty"`
	IDCotizacion string  `gorm:"size:20" json:"idCotizacion"`

	Nombre                        string     `gorm:"size:100" json:"nombre"`
	Apellido                      string     `gorm:"size:100" json:"apellido"`
	CorreoElectronico             string     `gorm:"size:100" json:"correoElectronico"`
	Telefono                      string     `gorm:"size:20" json:"telefono"`
	IndicativoTelefono            string     `gorm:"size:10;default:57" json:"indicativoTelefono"`
	TelefonoSecundario            string     `gorm:"size:20" json:"telefonoSecundario"`
	IndicativoTelefonoSecundario  string     `gorm:"size:10;default:57" json:"indicativoTelefonoSecundario"`
	FechaNacimiento               *time.Time `json:"fechaNacimiento,omitempty"`
	NumeroIdentificacion          string     `gorm:"size:50" json:"numeroIdentificacion"`
	Direccion                     string     `gorm:"size:255" json:"direccion"`
	EmpresaSegundoTitular         string     `gorm:"size:255" json:"empresaSegundoTitular"`

	DestinoID *uint  `json:"destinoId,omitempty"`
	Destino   string `gorm:"size:100" json:"destino"`

	CiudadOrigen      string     `gorm:"size:100" json:"ciudadOrigen"`
	FechaIda          *time.Time `json:"fechaIda,omitempty"`
	FechaVuelta       *time.Time `json:"fechaVuelta,omitempty"`
	PasajerosAdultos  int        `gorm:"default:1" json:"pasajerosAdultos"`
	PasajerosNinos    int        `gorm:"default:0" json:"pasajerosNinos"`
	PasajerosInfantes int        `gorm:"default:0" json:"pasajerosInfantes"`
	MedioIngresoID    *uint      `json:"medioIngresoId,omitempty"`
	Observaciones     string     `gorm:"type:text" json:"observaciones"`

	FechaRegistro    time.Time `gorm:"autoCreateTime" json:"fechaRegistro"`
	AgenteAsignadoID *uint     `json:"agenteAsignadoId,omitempty"`
	// AgenteOriginalID conserva al dueño previo cuando una desactivación
	// reasigna el prospecto a servicio_cliente.
	AgenteOriginalID *uint `json:"agenteOriginalId,omitempty"`

	Estado         string `gorm:"size:20;default:nuevo" json:"estado"`
	EstadoAnterior string `gorm:"size:20" json:"estadoAnterior"`

	TieneDatosCompletos bool `gorm:"default:false" json:"tieneDatosCompletos"`

	// ClienteRecurrente marca solicitudes cuyo teléfono ya existía;
	// ProspectoOriginalID encadena hacia la solicitud previa.
	ClienteRecurrente    bool  `gorm:"default:false" json:"clienteRecurrente"`
	ProspectoOriginalID  *uint `json:"prospectoOriginalId,omitempty"`

	FechaCompra      *time.Time `json:"fechaCompra,omitempty"`
	FechaEliminacion *time.Time `json:"fechaEliminacion,omitempty"`
}

// GenerarIDCliente asigna el ID legible de persona una sola vez, cuando la
// fila ya tiene ID numérico. Nunca se regenera.
func (p *Prospecto) GenerarIDCliente() string {
	if p.IDCliente == "" {
		p.IDCliente = fmt.Sprintf("CL-%s-%04d", time.Now().Format("20060102"), p.ID)
	}
	return p.IDCliente
}

// GenerarIDSolicitud asigna el ID legible de caso una sola vez.
func (p *Prospecto) GenerarIDSolicitud() string {
	if p.IDSolicitud == nil {
		s := fmt.Sprintf("SOL-%s-%04d", time.Now().Format("20060102"), p.ID)
		p.IDSolicitud = &s
	}
	return *p.IDSolicitud
}

// VerificarDatosCompletos recalcula la bandera de datos completos: basta con
// email, fecha de ida, pasajeros distintos del default, destino u origen.
func (p *Prospecto) VerificarDatosCompletos() bool {
	tieneEmail := strings.TrimSpace(p.CorreoElectronico) != ""
	tieneFechas := p.FechaIda != nil
	tienePasajeros := p.PasajerosAdultos > 1 || p.PasajerosNinos > 0 || p.PasajerosInfantes > 0
	tieneDestino := strings.TrimSpace(p.Destino) != ""
	tieneOrigen := strings.TrimSpace(p.CiudadOrigen) != ""

	p.TieneDatosCompletos = tieneEmail || tieneFechas || tienePasajeros || tieneDestino || tieneOrigen
	return p.TieneDatosCompletos
}

// TelefonoWhatsapp arma el número completo indicativo+teléfono sin separadores.
func (p *Prospecto) TelefonoWhatsapp(principal bool) string {
	indicativo, telefono := p.IndicativoTelefono, p.Telefono
	if !principal {
		indicativo, telefono = p.IndicativoTelefonoSecundario, p.TelefonoSecundario
	}
	if indicativo == "" {
		indicativo = "57"
	}
	telefono = strings.NewReplacer(" ", "", "-", "").Replace(telefono)
	if telefono == "" {
		return ""
	}
	return indicativo + telefono
}

// LinkWhatsapp genera el enlace wa.me, o "#" si no hay teléfono.
func (p *Prospecto) LinkWhatsapp(principal bool) string {
	if t := p.TelefonoWhatsapp(principal); t != "" {
		return "https://wa.me/" + t
	}
	return "#"
}

// EsActivo indica si el prospecto sigue en gestión (no terminal ni eliminado).
func (p *Prospecto) EsActivo() bool {
	switch p.Estado {
	case EstadoNuevo, EstadoEnSeguimiento, EstadoCotizado:
		return p.FechaEliminacion == nil
	}
	return false
}
