package destino

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gorilla/mux"
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

func redirigir(w http.ResponseWriter, r *http.Request, clave, mensaje string) {
	http.Redirect(w, r, "/destinos?"+clave+"="+url.QueryEscape(mensaje), http.StatusSeeOther)
}

func (h *Handler) Listar(w http.ResponseWriter, r *http.Request) {
	soloActivos := r.URL.Query().Get("activos") != "0"
	list, err := h.Repository.Listar(h.DB, soloActivos)
	if err != nil {
		h.Logger.Error("error listando destinos", zap.Error(err))
		http.Error(w, "Error al listar destinos", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"destinos": list})
}

func (h *Handler) Crear(w http.ResponseWriter, r *http.Request) {
	nombre := models.NormalizarNombreDestino(r.FormValue("nombre"))
	if nombre == "" {
		redirigir(w, r, "error", "El nombre del destino es requerido")
		return
	}

	if _, err := h.Repository.BuscarPorNombre(h.DB, nombre); err == nil {
		redirigir(w, r, "error", "El destino ya existe")
		return
	}

	d := models.Destino{
		Nombre:     nombre,
		Pais:       utils.NormalizarMayusculas(r.FormValue("pais")),
		Continente: utils.NormalizarMayusculas(r.FormValue("continente")),
		Activo:     1,
	}
	if err := h.DB.Create(&d).Error; err != nil {
		h.Logger.Error("error creando destino", zap.Error(err))
		redirigir(w, r, "error", "Error al crear destino")
		return
	}
	redirigir(w, r, "success", fmt.Sprintf("Destino %s creado correctamente", nombre))
}

func (h *Handler) Editar(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		redirigir(w, r, "error", "ID inválido")
		return
	}
	d, err := h.Repository.BuscarPorID(h.DB, uint(id))
	if err != nil {
		redirigir(w, r, "error", "Destino no encontrado")
		return
	}

	if nombre := models.NormalizarNombreDestino(r.FormValue("nombre")); nombre != "" && nombre != d.Nombre {
		if otro, err := h.Repository.BuscarPorNombre(h.DB, nombre); err == nil && otro.ID != d.ID {
			redirigir(w, r, "error", "Ya existe otro destino con ese nombre")
			return
		}
		d.Nombre = nombre
	}
	if pais := utils.NormalizarMayusculas(r.FormValue("pais")); pais != "" {
		d.Pais = pais
	}
	if cont := utils.NormalizarMayusculas(r.FormValue("continente")); cont != "" {
		d.Continente = cont
	}

	if err := h.DB.Save(d).Error; err != nil {
		h.Logger.Error("error actualizando destino", zap.Error(err))
		redirigir(w, r, "error", "Error al actualizar destino")
		return
	}
	redirigir(w, r, "success", "Destino actualizado correctamente")
}

// Eliminar desactiva el destino. Se bloquea si hay prospectos que lo
// referencian; en ese caso debe usarse la fusión.
func (h *Handler) Eliminar(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		redirigir(w, r, "error", "ID inválido")
		return
	}
	d, err := h.Repository.BuscarPorID(h.DB, uint(id))
	if err != nil {
		redirigir(w, r, "error", "Destino no encontrado")
		return
	}

	n, err := h.Repository.ContarProspectos(h.DB, d.ID)
	if err != nil {
		h.Logger.Error("error contando prospectos del destino", zap.Error(err))
		redirigir(w, r, "error", "Error al eliminar destino")
		return
	}
	if n > 0 {
		redirigir(w, r, "error",
			fmt.Sprintf("No se puede eliminar: %d prospectos usan este destino. Use la fusión", n))
		return
	}

	d.Activo = 0
	if err := h.DB.Save(d).Error; err != nil {
		h.Logger.Error("error desactivando destino", zap.Error(err))
		redirigir(w, r, "error", "Error al eliminar destino")
		return
	}
	redirigir(w, r, "success", fmt.Sprintf("Destino %s eliminado correctamente", d.Nombre))
}

// Fusionar mueve todas las referencias del destino secundario al principal
// (FK y texto libre) y desactiva el secundario.
func (h *Handler) Fusionar(w http.ResponseWriter, r *http.Request) {
	principalID, err1 := strconv.Atoi(r.FormValue("destino_principal_id"))
	secundarioID, err2 := strconv.Atoi(r.FormValue("destino_secundario_id"))
	if err1 != nil || err2 != nil || principalID == secundarioID {
		redirigir(w, r, "error", "Debe seleccionar dos destinos distintos")
		return
	}

	principal, err := h.Repository.BuscarPorID(h.DB, uint(principalID))
	if err != nil {
		redirigir(w, r, "error", "Destino principal no encontrado")
		return
	}
	secundario, err := h.Repository.BuscarPorID(h.DB, uint(secundarioID))
	if err != nil {
		redirigir(w, r, "error", "Destino secundario no encontrado")
		return
	}

	var movidos int64
	err = h.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Prospecto{}).
			Where("destino_id = ? OR destino = ?", secundario.ID, secundario.Nombre).
			Updates(map[string]any{
				"destino_id": principal.ID,
				"destino":    principal.Nombre,
			})
		if res.Error != nil {
			return res.Error
		}
		movidos = res.RowsAffected

		secundario.Activo = 0
		return tx.Save(secundario).Error
	})
	if err != nil {
		h.Logger.Error("error fusionando destinos", zap.Error(err))
		redirigir(w, r, "error", "Error al fusionar destinos")
		return
	}

	redirigir(w, r, "success",
		fmt.Sprintf("Destinos fusionados: %d prospectos movidos a %s", movidos, principal.Nombre))
}

// Buscar es el autocompletado por prefijo para los formularios.
func (h *Handler) Buscar(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if len(q) < 2 {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"destinos": []models.Destino{}})
		return
	}
	list, err := h.Repository.BuscarSimilares(h.DB, q, 10)
	if err != nil {
		h.Logger.Error("error buscando destinos", zap.Error(err))
		http.Error(w, "Error en la búsqueda", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"destinos": list})
}

// Sugerencias devuelve la mejor entrada del catálogo para un texto libre,
// usando el mismo emparejador de las importaciones pero sin crear entradas.
func (h *Handler) Sugerencias(w http.ResponseWriter, r *http.Request) {
	texto := models.NormalizarNombreDestino(r.URL.Query().Get("q"))
	w.Header().Set("Content-Type", "application/json")
	if texto == "" {
		json.NewEncoder(w).Encode(map[string]any{"sugerencia": nil})
		return
	}

	if d, err := h.Repository.BuscarPorNombre(h.DB, texto); err == nil {
		json.NewEncoder(w).Encode(map[string]any{"sugerencia": d, "exacta": true})
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		http.Error(w, "Error en la búsqueda", http.StatusInternalServerError)
		return
	}

	existentes, err := h.Repository.Listar(h.DB, true)
	if err != nil {
		http.Error(w, "Error en la búsqueda", http.StatusInternalServerError)
		return
	}
	if mejor := masParecido(texto, existentes); mejor != nil {
		json.NewEncoder(w).Encode(map[string]any{"sugerencia": mejor, "exacta": false})
		return
	}
	json.NewEncoder(w).Encode(map[string]any{"sugerencia": nil})
}

// Normalizar reescribe el texto libre de destino de todos los prospectos que
// coincidan con una entrada del catálogo, y fija su FK.
func (h *Handler) Normalizar(w http.ResponseWriter, r *http.Request) {
	destinos, err := h.Repository.Listar(h.DB, true)
	if err != nil {
		h.Logger.Error("error listando destinos", zap.Error(err))
		http.Error(w, "Error al normalizar", http.StatusInternalServerError)
		return
	}

	var prospectos []models.Prospecto
	if err := h.DB.Where("destino <> '' AND destino_id IS NULL").Find(&prospectos).Error; err != nil {
		h.Logger.Error("error listando prospectos", zap.Error(err))
		http.Error(w, "Error al normalizar", http.StatusInternalServerError)
		return
	}

	actualizados := 0
	for i := range prospectos {
		p := &prospectos[i]
		nombre := models.NormalizarNombreDestino(p.Destino)
		var destino *models.Destino
		for j := range destinos {
			if destinos[j].Nombre == nombre {
				destino = &destinos[j]
				break
			}
		}
		if destino == nil {
			destino = masParecido(nombre, destinos)
		}
		if destino == nil {
			continue
		}
		err := h.DB.Model(p).Updates(map[string]any{
			"destino_id": destino.ID,
			"destino":    destino.Nombre,
		}).Error
		if err != nil {
			h.Logger.Warn("error normalizando prospecto", zap.Uint("id", p.ID), zap.Error(err))
			continue
		}
		actualizados++
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":       "ok",
		"actualizados": actualizados,
		"revisados":    len(prospectos),
	})
}
