package usuario

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

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

func redirigir(w http.ResponseWriter, r *http.Request, clave, mensaje string) {
	http.Redirect(w, r, "/usuarios?"+clave+"="+url.QueryEscape(mensaje), http.StatusSeeOther)
}

// Listar devuelve todos los usuarios; con ?activos=1 solo las cuentas activas.
func (h *Handler) Listar(w http.ResponseWriter, r *http.Request) {
	soloActivos := r.URL.Query().Get("activos") == "1"
	list, err := h.Repository.Listar(h.DB, soloActivos)
	if err != nil {
		h.Logger.Error("error listando usuarios", zap.Error(err))
		http.Error(w, "Error al listar usuarios", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"usuarios": list})
}

// Agentes devuelve los agentes activos, para los selectores de asignación.
func (h *Handler) Agentes(w http.ResponseWriter, r *http.Request) {
	list, err := h.Repository.ListarAgentesActivos(h.DB)
	if err != nil {
		h.Logger.Error("error listando agentes", zap.Error(err))
		http.Error(w, "Error al listar agentes", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"agentes": list})
}

func (h *Handler) Crear(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(r.FormValue("username"))
	email := utils.NormalizarEmail(r.FormValue("email"))
	password := r.FormValue("password")
	tipo := r.FormValue("tipo_usuario")

	if username == "" || email == "" || password == "" {
		redirigir(w, r, "error", "Username, email y contraseña son requeridos")
		return
	}
	if !utils.ValidarEmail(email) {
		redirigir(w, r, "error", "Email inválido")
		return
	}
	if !models.TipoUsuarioValido(tipo) {
		redirigir(w, r, "error", "Tipo de usuario inválido")
		return
	}

	var existentes int64
	h.DB.Model(&models.Usuario{}).Where("username = ?", username).Count(&existentes)
	if existentes > 0 {
		redirigir(w, r, "error", "El username ya está en uso")
		return
	}
	h.DB.Model(&models.Usuario{}).Where("email = ? AND activo = ?", email, 1).Count(&existentes)
	if existentes > 0 {
		redirigir(w, r, "error", "El email ya está en uso por un usuario activo")
		return
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		h.Logger.Error("error generando hash", zap.Error(err))
		redirigir(w, r, "error", "Error al crear usuario")
		return
	}

	u := models.Usuario{
		Username:       username,
		Email:          email,
		HashedPassword: hash,
		TipoUsuario:    tipo,
		Activo:         1,
	}
	if err := h.DB.Create(&u).Error; err != nil {
		h.Logger.Error("error creando usuario", zap.Error(err))
		redirigir(w, r, "error", "Error al crear usuario")
		return
	}

	redirigir(w, r, "success", fmt.Sprintf("Usuario %s creado correctamente", username))
}

func (h *Handler) Editar(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		redirigir(w, r, "error", "ID inválido")
		return
	}
	u, err := h.Repository.BuscarPorID(h.DB, uint(id))
	if err != nil {
		redirigir(w, r, "error", "Usuario no encontrado")
		return
	}

	if email := utils.NormalizarEmail(r.FormValue("email")); email != "" {
		if !utils.ValidarEmail(email) {
			redirigir(w, r, "error", "Email inválido")
			return
		}
		u.Email = email
	}
	if tipo := r.FormValue("tipo_usuario"); tipo != "" {
		if !models.TipoUsuarioValido(tipo) {
			redirigir(w, r, "error", "Tipo de usuario inválido")
			return
		}
		u.TipoUsuario = tipo
	}
	if password := r.FormValue("password"); password != "" {
		hash, err := utils.HashPassword(password)
		if err != nil {
			h.Logger.Error("error generando hash", zap.Error(err))
			redirigir(w, r, "error", "Error al actualizar usuario")
			return
		}
		u.HashedPassword = hash
	}

	if err := h.DB.Save(u).Error; err != nil {
		h.Logger.Error("error actualizando usuario", zap.Error(err))
		redirigir(w, r, "error", "Error al actualizar usuario")
		return
	}
	redirigir(w, r, "success", "Usuario actualizado correctamente")
}

// Desactivar apaga la cuenta y reasigna sus prospectos aún en gestión a la
// cuenta servicio_cliente, conservando en agente_original_id al dueño previo.
// El email del desactivado se reemplaza por el comodín para que los envíos no
// lleguen a un buzón retirado.
func (h *Handler) Desactivar(w http.ResponseWriter, r *http.Request) {
	actor := auth.UsuarioActual(r)

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		redirigir(w, r, "error", "ID inválido")
		return
	}
	if uint(id) == actor.ID {
		redirigir(w, r, "error", "No puede desactivar su propia cuenta")
		return
	}

	u, err := h.Repository.BuscarPorID(h.DB, uint(id))
	if err != nil {
		redirigir(w, r, "error", "Usuario no encontrado")
		return
	}
	if u.Activo == 0 {
		redirigir(w, r, "error", "El usuario ya está desactivado")
		return
	}

	var reasignados int64
	err = h.DB.Transaction(func(tx *gorm.DB) error {
		fallback, err := h.Repository.ObtenerServicioCliente(tx)
		if err != nil {
			return err
		}

		res := tx.Model(&models.Prospecto{}).
			Where("agente_asignado_id = ? AND estado IN ?", u.ID,
				[]string{models.EstadoNuevo, models.EstadoEnSeguimiento, models.EstadoCotizado}).
			Updates(map[string]any{
				"agente_original_id": u.ID,
				"agente_asignado_id": fallback.ID,
			})
		if res.Error != nil {
			return res.Error
		}
		reasignados = res.RowsAffected

		u.Email = models.EmailServicioCliente
		u.Activo = 0
		return tx.Save(u).Error
	})
	if err != nil {
		h.Logger.Error("error desactivando usuario", zap.Error(err))
		redirigir(w, r, "error", "Error al desactivar usuario")
		return
	}

	h.Logger.Info("usuario desactivado",
		zap.String("username", u.Username), zap.Int64("prospectos_reasignados", reasignados))
	redirigir(w, r, "success",
		fmt.Sprintf("Usuario %s desactivado. Prospectos reasignados: %d", u.Username, reasignados))
}

// Reactivar reactiva la cuenta con un email nuevo que ningún otro usuario
// activo esté usando. No devuelve los prospectos reasignados.
func (h *Handler) Reactivar(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		redirigir(w, r, "error", "ID inválido")
		return
	}
	u, err := h.Repository.BuscarPorID(h.DB, uint(id))
	if err != nil {
		redirigir(w, r, "error", "Usuario no encontrado")
		return
	}
	if u.Activo == 1 {
		redirigir(w, r, "error", "El usuario ya está activo")
		return
	}

	email := utils.NormalizarEmail(r.FormValue("email"))
	if email == "" || !utils.ValidarEmail(email) {
		redirigir(w, r, "error", "Debe indicar un email válido para reactivar")
		return
	}

	var enUso int64
	if err := h.DB.Model(&models.Usuario{}).
		Where("email = ? AND activo = ? AND id <> ?", email, 1, u.ID).
		Count(&enUso).Error; err != nil {
		h.Logger.Error("error verificando email", zap.Error(err))
		redirigir(w, r, "error", "Error al reactivar usuario")
		return
	}
	if enUso > 0 {
		redirigir(w, r, "error", "El email ya está en uso por otro usuario activo")
		return
	}

	u.Email = email
	u.Activo = 1
	if err := h.DB.Save(u).Error; err != nil {
		h.Logger.Error("error reactivando usuario", zap.Error(err))
		redirigir(w, r, "error", "Error al reactivar usuario")
		return
	}

	redirigir(w, r, "success", fmt.Sprintf("Usuario %s reactivado correctamente", u.Username))
}

func (h *Handler) Detalle(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "ID inválido", http.StatusBadRequest)
		return
	}
	u, err := h.Repository.BuscarPorID(h.DB, uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.Error(w, "Usuario no encontrado", http.StatusNotFound)
			return
		}
		http.Error(w, "Error al cargar usuario", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(u)
}
