package dashboard

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/travelhouse/crm-prospectos/internal/auth"
	"github.com/travelhouse/crm-prospectos/internal/excel"
	"github.com/travelhouse/crm-prospectos/internal/models"
	"github.com/travelhouse/crm-prospectos/internal/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Handler struct {
	DB     *gorm.DB
	Logger *zap.Logger
}

func NewHandler(db *gorm.DB, logger *zap.Logger) *Handler {
	return &Handler{DB: db, Logger: logger}
}

func (h *Handler) rangoYAgente(r *http.Request) (time.Time, time.Time, *uint) {
	user := auth.UsuarioActual(r)
	q := r.URL.Query()

	desde, hasta := utils.RangoPeriodo(q.Get("periodo"), q.Get("fecha_inicio"), q.Get("fecha_fin"), time.Now())

	var agenteID *uint
	if user.TipoUsuario == models.TipoAgente {
		agenteID = &user.ID
	} else if v := q.Get("agente_id"); v != "" && v != "todos" {
		if id, err := strconv.Atoi(v); err == nil && id > 0 {
			aid := uint(id)
			agenteID = &aid
		}
	}
	return desde, hasta, agenteID
}

// Resumen devuelve las estadísticas del periodo en JSON.
func (h *Handler) Resumen(w http.ResponseWriter, r *http.Request) {
	desde, hasta, agenteID := h.rangoYAgente(r)

	stats, err := Calcular(h.DB, desde, hasta, agenteID)
	if err != nil {
		h.Logger.Error("error calculando estadísticas", zap.Error(err))
		http.Error(w, "Error al calcular estadísticas", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}

// Exportar descarga las estadísticas del periodo como libro de dos hojas:
// resumen general y desglose por agente.
func (h *Handler) Exportar(w http.ResponseWriter, r *http.Request) {
	desde, hasta, agenteID := h.rangoYAgente(r)

	stats, err := Calcular(h.DB, desde, hasta, agenteID)
	if err != nil {
		h.Logger.Error("error calculando estadísticas", zap.Error(err))
		http.Error(w, "Error al exportar", http.StatusInternalServerError)
		return
	}

	resumen := [][]any{
		{"Periodo", fmt.Sprintf("%s - %s", desde.Format("02/01/2006"), hasta.Format("02/01/2006"))},
		{"Total prospectos", stats.TotalProspectos},
		{"Cotizaciones", stats.Cotizaciones},
		{"Ventas", stats.Ventas},
		{"Tasa de conversión (%)", fmt.Sprintf("%.1f", stats.TasaConversion)},
	}
	for _, estado := range []string{
		models.EstadoNuevo, models.EstadoEnSeguimiento, models.EstadoCotizado,
		models.EstadoGanado, models.EstadoCerradoPerdido, models.EstadoVentaCancelada,
	} {
		resumen = append(resumen, []any{"Estado " + estado, stats.PorEstado[estado]})
	}

	libro, err := excel.NuevoLibro("Resumen", []string{"Métrica", "Valor"}, resumen)
	if err != nil {
		h.Logger.Error("error generando reporte", zap.Error(err))
		http.Error(w, "Error al exportar", http.StatusInternalServerError)
		return
	}
	defer libro.Close()

	if len(stats.PorAgente) > 0 {
		filas := make([][]any, 0, len(stats.PorAgente))
		for _, a := range stats.PorAgente {
			filas = append(filas, []any{a.Username, a.Prospectos, a.Cotizaciones, a.Ventas})
		}
		if err := excel.EscribirHoja(libro, "Por Agente",
			[]string{"Agente", "Prospectos", "Cotizaciones", "Ventas"}, filas); err != nil {
			h.Logger.Error("error generando hoja por agente", zap.Error(err))
			http.Error(w, "Error al exportar", http.StatusInternalServerError)
			return
		}
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="dashboard.xlsx"`)
	if err := libro.Write(w); err != nil {
		h.Logger.Error("error escribiendo libro", zap.Error(err))
	}
}
