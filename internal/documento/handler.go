package documento

import (
	"fmt"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/travelhouse/crm-prospectos/internal/auth"
	"github.com/travelhouse/crm-prospectos/internal/cotizacion"
	"github.com/travelhouse/crm-prospectos/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// tamañoMaximoUpload limita los adjuntos a 10 MB.
const tamanoMaximoUpload = 10 << 20

type Handler struct {
	DB         *gorm.DB
	Repository Repository
	Storage    *Storage
	CotRepo    cotizacion.Repository
	Logger     *zap.Logger
}

func NewHandler(db *gorm.DB, storage *Storage, logger *zap.Logger) *Handler {
	return &Handler{
		DB:         db,
		Repository: NewRepository(),
		Storage:    storage,
		CotRepo:    cotizacion.NewRepository(),
		Logger:     logger,
	}
}

func redirigirSeguimiento(w http.ResponseWriter, r *http.Request, prospectoID uint, clave, mensaje string) {
	destino := fmt.Sprintf("/prospectos/%d/seguimiento?%s=%s", prospectoID, clave, url.QueryEscape(mensaje))
	http.Redirect(w, r, destino, http.StatusSeeOther)
}

// Subir adjunta un archivo al prospecto. Subir un documento de tipo
// "cotizacion" fuerza el estado COTIZADO y registra la estadística.
func (h *Handler) Subir(w http.ResponseWriter, r *http.Request) {
	user := auth.UsuarioActual(r)

	prospectoID, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "ID inválido", http.StatusBadRequest)
		return
	}

	var p models.Prospecto
	if err := h.DB.First(&p, prospectoID).Error; err != nil {
		http.Error(w, "Prospecto no encontrado", http.StatusNotFound)
		return
	}
	if user.TipoUsuario == models.TipoAgente && (p.AgenteAsignadoID == nil || *p.AgenteAsignadoID != user.ID) {
		redirigirSeguimiento(w, r, p.ID, "error", "No tiene permisos para este prospecto")
		return
	}

	if err := r.ParseMultipartForm(tamanoMaximoUpload); err != nil {
		redirigirSeguimiento(w, r, p.ID, "error", "Archivo demasiado grande o formulario inválido")
		return
	}
	archivo, cabecera, err := r.FormFile("archivo")
	if err != nil {
		redirigirSeguimiento(w, r, p.ID, "error", "Debe seleccionar un archivo")
		return
	}
	defer archivo.Close()

	if !ExtensionPermitida(cabecera.Filename) {
		redirigirSeguimiento(w, r, p.ID, "error",
			fmt.Sprintf("Extensión no permitida: %s", filepath.Ext(cabecera.Filename)))
		return
	}

	tipo := r.FormValue("tipo_documento")
	if tipo == "" {
		tipo = models.DocumentoOtro
	}

	ahora := time.Now()
	ruta, err := h.Storage.Guardar(archivo, cabecera.Filename, ahora)
	if err != nil {
		h.Logger.Error("error guardando archivo", zap.Error(err))
		redirigirSeguimiento(w, r, p.ID, "error", "Error al guardar el archivo")
		return
	}

	err = h.DB.Transaction(func(tx *gorm.DB) error {
		doc := models.Documento{
			ProspectoID:   p.ID,
			UsuarioID:     user.ID,
			NombreArchivo: cabecera.Filename,
			TipoDocumento: tipo,
			RutaArchivo:   ruta,
			Descripcion:   r.FormValue("descripcion"),
		}
		if err := h.Repository.Crear(tx, &doc); err != nil {
			return err
		}

		estadoAnterior := p.Estado

		// La cotización adjunta mueve el prospecto a COTIZADO de forma
		// incondicional y suma una fila de estadística.
		if tipo == models.DocumentoCotizacion {
			agenteID := p.AgenteAsignadoID
			if agenteID == nil {
				agenteID = &user.ID
			}
			estadistica, err := h.CotRepo.Registrar(tx, p.ID, agenteID, ahora)
			if err != nil {
				return err
			}
			p.IDCotizacion = estadistica.GenerarIDCotizacion()

			if p.Estado != models.EstadoCotizado {
				historial := models.HistorialEstado{
					ProspectoID:    p.ID,
					EstadoAnterior: p.Estado,
					EstadoNuevo:    models.EstadoCotizado,
					UsuarioID:      user.ID,
					Comentario:     fmt.Sprintf("Cotización adjuntada: %s", cabecera.Filename),
				}
				if err := tx.Create(&historial).Error; err != nil {
					return err
				}
				p.EstadoAnterior = p.Estado
				p.Estado = models.EstadoCotizado
			}
			if err := tx.Save(&p).Error; err != nil {
				return err
			}
		}

		interaccion := models.Interaccion{
			ProspectoID:     &p.ID,
			UsuarioID:       user.ID,
			TipoInteraccion: models.InteraccionDocumento,
			Descripcion:     fmt.Sprintf("Documento subido: %s (%s)", cabecera.Filename, tipo),
			EstadoAnterior:  estadoAnterior,
			EstadoNuevo:     p.Estado,
		}
		return tx.Create(&interaccion).Error
	})
	if err != nil {
		h.Logger.Error("error registrando documento", zap.Error(err))
		if rmErr := h.Storage.Eliminar(ruta); rmErr != nil {
			h.Logger.Warn("error limpiando archivo huérfano", zap.Error(rmErr))
		}
		redirigirSeguimiento(w, r, p.ID, "error", "Error al registrar el documento")
		return
	}

	redirigirSeguimiento(w, r, p.ID, "success", "Documento subido correctamente")
}

func (h *Handler) Descargar(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "ID inválido", http.StatusBadRequest)
		return
	}
	doc, err := h.Repository.BuscarPorID(h.DB, uint(id))
	if err != nil {
		http.Error(w, "Documento no encontrado", http.StatusNotFound)
		return
	}

	ruta, err := h.Storage.RutaAbsoluta(doc.RutaArchivo)
	if err != nil {
		h.Logger.Error("ruta de documento inválida", zap.String("ruta", doc.RutaArchivo))
		http.Error(w, "Documento no disponible", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", doc.NombreArchivo))
	http.ServeFile(w, r, ruta)
}

func (h *Handler) Eliminar(w http.ResponseWriter, r *http.Request) {
	user := auth.UsuarioActual(r)

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "ID inválido", http.StatusBadRequest)
		return
	}
	doc, err := h.Repository.BuscarPorID(h.DB, uint(id))
	if err != nil {
		http.Error(w, "Documento no encontrado", http.StatusNotFound)
		return
	}

	var p models.Prospecto
	if err := h.DB.First(&p, doc.ProspectoID).Error; err == nil {
		if user.TipoUsuario == models.TipoAgente && (p.AgenteAsignadoID == nil || *p.AgenteAsignadoID != user.ID) {
			redirigirSeguimiento(w, r, p.ID, "error", "No tiene permisos para este prospecto")
			return
		}
	}

	if err := h.Repository.Eliminar(h.DB, doc); err != nil {
		h.Logger.Error("error eliminando documento", zap.Error(err))
		redirigirSeguimiento(w, r, doc.ProspectoID, "error", "Error al eliminar documento")
		return
	}
	if err := h.Storage.Eliminar(doc.RutaArchivo); err != nil {
		h.Logger.Warn("error eliminando archivo", zap.String("ruta", doc.RutaArchivo), zap.Error(err))
	}

	redirigirSeguimiento(w, r, doc.ProspectoID, "success", "Documento eliminado correctamente")
}
