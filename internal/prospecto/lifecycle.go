package prospecto

import (
	"strings"
	"time"

	"github.com/travelhouse/crm-prospectos/internal/apperror"
	"github.com/travelhouse/crm-prospectos/internal/cotizacion"
	"github.com/travelhouse/crm-prospectos/internal/models"
	"github.com/travelhouse/crm-prospectos/internal/notificacion"
	"gorm.io/gorm"
)

// ValidarTransicion aplica las reglas del embudo sobre un cambio de estado:
//
//   - Un actor sin privilegio no puede retroceder en el orden lineal una vez
//     que el prospecto llegó a cotizado (índice >= 2). Antes de eso las
//     regresiones son libres. GANADO y CERRADO_PERDIDO comparten índice, por
//     lo que moverse entre ellos nunca cuenta como regresión.
//   - Cerrar como perdido exige un comentario no vacío.
//   - Cancelar una venta exige que el estado actual o el inmediatamente
//     anterior haya sido GANADO.
func ValidarTransicion(p *models.Prospecto, estadoNuevo, comentario string, privilegiado bool) error {
	if estadoNuevo == models.EstadoVentaCancelada {
		if p.Estado != models.EstadoGanado && p.EstadoAnterior != models.EstadoGanado {
			return apperror.Transicion("solo se puede cancelar una venta que haya estado en estado GANADO")
		}
		return nil
	}

	idxActual := models.IndiceEstado(p.Estado)
	idxNuevo := models.IndiceEstado(estadoNuevo)

	if idxNuevo >= 0 && idxActual >= 2 && idxNuevo < idxActual && !privilegiado {
		return apperror.Transicion("no puede regresar a un estado anterior")
	}

	if estadoNuevo == models.EstadoCerradoPerdido && strings.TrimSpace(comentario) == "" {
		return apperror.Transicion("debe agregar un comentario al cerrar el prospecto")
	}

	return nil
}

// CambioEstado describe una transición solicitada sobre un prospecto.
type CambioEstado struct {
	EstadoNuevo     string
	TipoInteraccion string
	Descripcion     string
	Usuario         *models.Usuario
	Ahora           time.Time
}

// AplicarCambioEstado valida y ejecuta la transición con todos sus efectos:
// historial, bitácora, estadística de cotización (cada paso por COTIZADO
// crea una fila nueva, sin deduplicar), fecha de compra y recordatorios de
// viaje al ganar. Debe invocarse dentro de la transacción del request.
func AplicarCambioEstado(tx *gorm.DB, cotRepo cotizacion.Repository, notRepo notificacion.Repository, p *models.Prospecto, c CambioEstado) error {
	if err := ValidarTransicion(p, c.EstadoNuevo, c.Descripcion, c.Usuario.EsPrivilegiado()); err != nil {
		return err
	}

	estadoAnterior := p.Estado

	if c.EstadoNuevo != "" && c.EstadoNuevo != estadoAnterior {
		historial := models.HistorialEstado{
			ProspectoID:    p.ID,
			EstadoAnterior: estadoAnterior,
			EstadoNuevo:    c.EstadoNuevo,
			UsuarioID:      c.Usuario.ID,
			Comentario:     c.Descripcion,
		}
		if err := tx.Create(&historial).Error; err != nil {
			return err
		}
	}

	tipo := c.TipoInteraccion
	if tipo == "" {
		tipo = models.InteraccionGeneral
	}
	interaccion := models.Interaccion{
		ProspectoID:     &p.ID,
		UsuarioID:       c.Usuario.ID,
		TipoInteraccion: tipo,
		Descripcion:     c.Descripcion,
		EstadoAnterior:  estadoAnterior,
		EstadoNuevo:     c.EstadoNuevo,
	}
	if err := tx.Create(&interaccion).Error; err != nil {
		return err
	}

	if c.EstadoNuevo == "" {
		return nil
	}

	if c.EstadoNuevo == models.EstadoCotizado {
		agenteID := p.AgenteAsignadoID
		if agenteID == nil {
			agenteID = &c.Usuario.ID
		}
		estadistica, err := cotRepo.Registrar(tx, p.ID, agenteID, c.Ahora)
		if err != nil {
			return err
		}
		// Puntero a la última cotización; el historial completo queda en
		// estadisticas_cotizacion.
		p.IDCotizacion = estadistica.GenerarIDCotizacion()
	}

	if c.EstadoNuevo != estadoAnterior {
		p.EstadoAnterior = estadoAnterior
		p.Estado = c.EstadoNuevo
	}

	if c.EstadoNuevo == models.EstadoGanado {
		if p.FechaCompra == nil {
			fecha := c.Ahora
			p.FechaCompra = &fecha
		}
		if err := tx.Save(p).Error; err != nil {
			return err
		}
		return notificacion.GenerarRecordatoriosViaje(tx, notRepo, p, c.Ahora)
	}

	return tx.Save(p).Error
}
