package dashboard

import (
	"time"

	"github.com/travelhouse/crm-prospectos/internal/models"
	"gorm.io/gorm"
)

// EstadisticasAgente acumula la actividad de un agente en el periodo.
type EstadisticasAgente struct {
	AgenteID     uint   `json:"agenteId"`
	Username     string `json:"username"`
	Prospectos   int64  `json:"prospectos"`
	Cotizaciones int64  `json:"cotizaciones"`
	Ventas       int64  `json:"ventas"`
}

// Estadisticas es el resumen del dashboard para un rango de fechas.
type Estadisticas struct {
	Desde time.Time `json:"desde"`
	Hasta time.Time `json:"hasta"`

	TotalProspectos int64            `json:"totalProspectos"`
	PorEstado       map[string]int64 `json:"porEstado"`
	Cotizaciones    int64            `json:"cotizaciones"`
	Ventas          int64            `json:"ventas"`
	// TasaConversion es ventas/prospectos del periodo, entre 0 y 100.
	TasaConversion float64              `json:"tasaConversion"`
	PorAgente      []EstadisticasAgente `json:"porAgente"`
}

// Calcular arma el resumen del periodo. Los prospectos se filtran por fecha
// de registro, las cotizaciones por fecha de cotización y las ventas por
// fecha de compra; un agente restringe todo a lo suyo.
func Calcular(db *gorm.DB, desde, hasta time.Time, agenteID *uint) (*Estadisticas, error) {
	stats := &Estadisticas{
		Desde:     desde,
		Hasta:     hasta,
		PorEstado: make(map[string]int64),
	}

	base := db.Model(&models.Prospecto{}).
		Where("fecha_registro BETWEEN ? AND ?", desde, hasta).
		Where("fecha_eliminacion IS NULL")
	if agenteID != nil {
		base = base.Where("agente_asignado_id = ?", *agenteID)
	}
	// Session permite reutilizar la consulta base para los dos conteos.
	base = base.Session(&gorm.Session{})
	if err := base.Count(&stats.TotalProspectos).Error; err != nil {
		return nil, err
	}

	type conteoEstado struct {
		Estado string
		Total  int64
	}
	var porEstado []conteoEstado
	if err := base.Select("estado, COUNT(*) AS total").Group("estado").
		Scan(&porEstado).Error; err != nil {
		return nil, err
	}
	for _, c := range porEstado {
		stats.PorEstado[c.Estado] = c.Total
	}

	cotizaciones := db.Model(&models.EstadisticaCotizacion{}).
		Where("fecha_cotizacion BETWEEN ? AND ?", desde, hasta)
	if agenteID != nil {
		cotizaciones = cotizaciones.Where("agente_id = ?", *agenteID)
	}
	if err := cotizaciones.Count(&stats.Cotizaciones).Error; err != nil {
		return nil, err
	}

	ventas := db.Model(&models.Prospecto{}).
		Where("estado = ? AND fecha_compra BETWEEN ? AND ?", models.EstadoGanado, desde, hasta)
	if agenteID != nil {
		ventas = ventas.Where("agente_asignado_id = ?", *agenteID)
	}
	if err := ventas.Count(&stats.Ventas).Error; err != nil {
		return nil, err
	}

	if stats.TotalProspectos > 0 {
		stats.TasaConversion = float64(stats.Ventas) / float64(stats.TotalProspectos) * 100
	}

	if agenteID == nil {
		porAgente, err := calcularPorAgente(db, desde, hasta)
		if err != nil {
			return nil, err
		}
		stats.PorAgente = porAgente
	}

	return stats, nil
}

func calcularPorAgente(db *gorm.DB, desde, hasta time.Time) ([]EstadisticasAgente, error) {
	var agentes []models.Usuario
	err := db.Where("tipo_usuario = ? AND activo = ?", models.TipoAgente, 1).
		Order("username ASC").Find(&agentes).Error
	if err != nil {
		return nil, err
	}

	resultado := make([]EstadisticasAgente, 0, len(agentes))
	for _, a := range agentes {
		e := EstadisticasAgente{AgenteID: a.ID, Username: a.Username}

		if err := db.Model(&models.Prospecto{}).
			Where("agente_asignado_id = ? AND fecha_registro BETWEEN ? AND ?", a.ID, desde, hasta).
			Where("fecha_eliminacion IS NULL").
			Count(&e.Prospectos).Error; err != nil {
			return nil, err
		}
		if err := db.Model(&models.EstadisticaCotizacion{}).
			Where("agente_id = ? AND fecha_cotizacion BETWEEN ? AND ?", a.ID, desde, hasta).
			Count(&e.Cotizaciones).Error; err != nil {
			return nil, err
		}
		if err := db.Model(&models.Prospecto{}).
			Where("agente_asignado_id = ? AND estado = ? AND fecha_compra BETWEEN ? AND ?",
				a.ID, models.EstadoGanado, desde, hasta).
			Count(&e.Ventas).Error; err != nil {
			return nil, err
		}

		resultado = append(resultado, e)
	}
	return resultado, nil
}
