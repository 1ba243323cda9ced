package notificacion

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/travelhouse/crm-prospectos/internal/auth"
	"github.com/travelhouse/crm-prospectos/internal/models"
	"github.com/travelhouse/crm-prospectos/internal/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Handler struct {
	DB         *gorm.DB
	Repository Repository
	Logger     *zap.Logger
}

func NewHandler(db *gorm.DB, logger *zap.Logger) *Handler {
	return &Handler{DB: db, Repository: NewRepository(), Logger: logger}
}

// Listar devuelve las notificaciones del usuario autenticado.
func (h *Handler) Listar(w http.ResponseWriter, r *http.Request) {
	user := auth.UsuarioActual(r)

	list, err := h.Repository.ListarPorUsuario(h.DB, user.ID)
	if err != nil {
		h.Logger.Error("error listando notificaciones", zap.Error(err))
		http.Error(w, "Error al listar notificaciones", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(list)
}

// Pendientes devuelve las notificaciones programadas ya vencidas y no
// leídas, para el polling del navegador.
func (h *Handler) Pendientes(w http.ResponseWriter, r *http.Request) {
	user := auth.UsuarioActual(r)

	list, err := h.Repository.PendientesVencidas(h.DB, user.ID, time.Now())
	if err != nil {
		h.Logger.Error("error consultando pendientes", zap.Error(err))
		http.Error(w, "Error al consultar notificaciones", http.StatusInternalServerError)
		return
	}

	type pendienteDTO struct {
		ID              uint   `json:"id"`
		Mensaje         string `json:"mensaje"`
		Tipo            string `json:"tipo"`
		ProspectoID     *uint  `json:"prospectoId"`
		FechaProgramada string `json:"fechaProgramada"`
		ProspectoNombre string `json:"prospectoNombre"`
	}

	resultado := make([]pendienteDTO, 0, len(list))
	for _, n := range list {
		dto := pendienteDTO{
			ID:              n.ID,
			Mensaje:         n.Mensaje,
			Tipo:            n.Tipo,
			ProspectoID:     n.ProspectoID,
			ProspectoNombre: "N/A",
		}
		if n.FechaProgramada != nil {
			dto.FechaProgramada = n.FechaProgramada.Format("02/01/2006 15:04")
		}
		if n.ProspectoID != nil {
			var p models.Prospecto
			if err := h.DB.First(&p, *n.ProspectoID).Error; err == nil {
				dto.ProspectoNombre = strings.TrimSpace(p.Nombre + " " + p.Apellido)
			}
		}
		resultado = append(resultado, dto)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"notificaciones": resultado})
}

// MarcarLeida marca como leída una notificación propia.
func (h *Handler) MarcarLeida(w http.ResponseWriter, r *http.Request) {
	user := auth.UsuarioActual(r)

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "ID inválido", http.StatusBadRequest)
		return
	}

	if err := h.Repository.MarcarLeida(h.DB, uint(id), user.ID); err != nil {
		h.Logger.Error("error marcando notificación", zap.Error(err))
		http.Redirect(w, r, "/notificaciones?error=Error al marcar notificación", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/notificaciones?success=Notificación marcada como leída", http.StatusSeeOther)
}

// CrearManual crea un recordatorio programado; la fecha debe ser futura.
// Si referencia un prospecto deja constancia en su bitácora.
func (h *Handler) CrearManual(w http.ResponseWriter, r *http.Request) {
	user := auth.UsuarioActual(r)

	mensaje := r.FormValue("mensaje")
	fechaProg := utils.ParsearFechaHora(r.FormValue("fecha_programada"))
	if mensaje == "" || fechaProg == nil {
		http.Redirect(w, r, "/notificaciones?error="+url.QueryEscape("Formato de fecha inválido"), http.StatusSeeOther)
		return
	}
	if !fechaProg.After(time.Now()) {
		http.Redirect(w, r, "/notificaciones?error="+url.QueryEscape("La fecha debe ser futura"), http.StatusSeeOther)
		return
	}

	var prospectoID *uint
	if v := r.FormValue("prospecto_id"); v != "" {
		if id, err := strconv.Atoi(v); err == nil && id > 0 {
			pid := uint(id)
			prospectoID = &pid
		}
	}

	err := h.DB.Transaction(func(tx *gorm.DB) error {
		n := models.Notificacion{
			UsuarioID:       user.ID,
			ProspectoID:     prospectoID,
			Tipo:            models.NotificacionSeguimiento,
			Mensaje:         mensaje,
			FechaProgramada: fechaProg,
		}
		if err := h.Repository.Crear(tx, &n); err != nil {
			return err
		}

		if prospectoID != nil {
			var p models.Prospecto
			if err := tx.First(&p, *prospectoID).Error; err == nil {
				interaccion := models.Interaccion{
					ProspectoID:     prospectoID,
					UsuarioID:       user.ID,
					TipoInteraccion: models.InteraccionSistema,
					Descripcion: fmt.Sprintf("Contacto programado para %s\n%s",
						fechaProg.Format("02/01/2006 a las 15:04"), mensaje),
					EstadoAnterior: p.Estado,
					EstadoNuevo:    p.Estado,
				}
				if err := tx.Create(&interaccion).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		h.Logger.Error("error creando notificación", zap.Error(err))
		http.Redirect(w, r, "/notificaciones?error="+url.QueryEscape("Error al crear recordatorio"), http.StatusSeeOther)
		return
	}

	http.Redirect(w, r, "/notificaciones?success="+url.QueryEscape("Recordatorio creado correctamente"), http.StatusSeeOther)
}

// CheckInactividad dispara el chequeo de prospectos sin gestión. Se invoca
// por polling externo; no hay timer interno.
func (h *Handler) CheckInactividad(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	count, err := VerificarInactividad(h.DB, h.Repository, time.Now())
	if err != nil {
		h.Logger.Error("error en chequeo de inactividad", zap.Error(err))
		json.NewEncoder(w).Encode(map[string]any{"status": "error", "message": "Error en el chequeo"})
		return
	}
	json.NewEncoder(w).Encode(map[string]any{"status": "ok", "alertas_generadas": count})
}
