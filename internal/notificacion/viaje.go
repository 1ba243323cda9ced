package notificacion

import (
	"fmt"
	"time"

	"github.com/travelhouse/crm-prospectos/internal/models"
	"gorm.io/gorm"
)

// recordatorioViaje define un recordatorio fijo previo a la fecha de ida.
type recordatorioViaje struct {
	diasAntes int
	mensaje   string
}

var recordatoriosViaje = []recordatorioViaje{
	{45, "Confirmar pagos y estado de reserva - Viaje a %s"},
	{10, "Validar con cliente gestiones pre-viaje - Viaje a %s"},
	{2, "Validar pre-viaje, formularios y gestiones finales - Viaje a %s"},
}

// GenerarRecordatoriosViaje crea el plan fijo de recordatorios pre-viaje de
// un prospecto ganado. Borra los recordatorios de viaje anteriores y crea
// hasta tres nuevos (45, 10 y 2 días antes de la ida) dirigidos al agente
// asignado actual. Los recordatorios cuya fecha ya pasó se omiten. No hace
// nada si el prospecto no está ganado o no tiene fecha de ida.
func GenerarRecordatoriosViaje(db *gorm.DB, repo Repository, p *models.Prospecto, ahora time.Time) error {
	if p.FechaIda == nil || p.Estado != models.EstadoGanado {
		return nil
	}

	hoy := time.Date(ahora.Year(), ahora.Month(), ahora.Day(), 0, 0, 0, 0, ahora.Location())

	if err := repo.EliminarDeViaje(db, p.ID); err != nil {
		return err
	}

	destino := p.Destino
	if destino == "" {
		destino = "destino"
	}

	for _, rec := range recordatoriosViaje {
		fecha := p.FechaIda.AddDate(0, 0, -rec.diasAntes)
		if fecha.Before(hoy) {
			continue
		}

		var usuarioID uint
		if p.AgenteAsignadoID != nil {
			usuarioID = *p.AgenteAsignadoID
		}

		n := models.Notificacion{
			UsuarioID:       usuarioID,
			ProspectoID:     &p.ID,
			Tipo:            models.NotificacionSeguimientoViaje,
			Mensaje:         fmt.Sprintf(rec.mensaje, destino),
			FechaProgramada: &fecha,
		}
		if err := repo.Crear(db, &n); err != nil {
			return err
		}
	}
	return nil
}
