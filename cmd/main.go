package main

import (
	"log"
	"net/http"
	"os"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/travelhouse/crm-prospectos/internal/auth"
	"github.com/travelhouse/crm-prospectos/internal/cliente"
	"github.com/travelhouse/crm-prospectos/internal/dashboard"
	"github.com/travelhouse/crm-prospectos/internal/destino"
	"github.com/travelhouse/crm-prospectos/internal/documento"
	"github.com/travelhouse/crm-prospectos/internal/email"
	"github.com/travelhouse/crm-prospectos/internal/excel"
	"github.com/travelhouse/crm-prospectos/internal/models"
	"github.com/travelhouse/crm-prospectos/internal/notificacion"
	"github.com/travelhouse/crm-prospectos/internal/prospecto"
	"github.com/travelhouse/crm-prospectos/internal/session"
	"github.com/travelhouse/crm-prospectos/internal/usuario"
	"github.com/travelhouse/crm-prospectos/internal/utils/db"
)

func main() {
	// .env es opcional; en producción las variables vienen del entorno
	_ = godotenv.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal("Error inicializando logger:", err)
	}
	defer logger.Sync()

	conexion, err := db.ObtenerDB()
	if err != nil {
		logger.Fatal("Error al conectar a la base de datos", zap.Error(err))
	}

	// AutoMigrate para todos los modelos
	if err := conexion.AutoMigrate(
		&models.Usuario{},
		&models.Cliente{},
		&models.Prospecto{},
		&models.Destino{},
		&models.MedioIngreso{},
		&models.Interaccion{},
		&models.HistorialEstado{},
		&models.EstadisticaCotizacion{},
		&models.Documento{},
		&models.Notificacion{},
	); err != nil {
		logger.Fatal("Error en AutoMigrate", zap.Error(err))
	}

	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	redisClient := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: os.Getenv("REDIS_PASSWORD"),
	})
	store := session.NewRedisStore(redisClient)

	var sender email.Sender
	if os.Getenv("SMTP_HOST") != "" {
		sender = email.NewSMTPSenderDesdeEnv()
	} else {
		sender = &email.LogSender{Logger: logger}
	}

	storage := documento.NewStorage(os.Getenv("UPLOADS_DIR"))

	// Handlers
	mw := auth.NewMiddleware(conexion, store)
	authHandler := auth.NewHandler(conexion, store, logger)
	prospectoHandler := prospecto.NewHandler(conexion, sender, logger)
	usuarioHandler := usuario.NewHandler(conexion, logger)
	destinoHandler := destino.NewHandler(conexion, logger)
	clienteHandler := cliente.NewHandler(conexion, logger)
	documentoHandler := documento.NewHandler(conexion, storage, logger)
	notificacionHandler := notificacion.NewHandler(conexion, logger)
	excelHandler := excel.NewHandler(conexion, logger)
	dashboardHandler := dashboard.NewHandler(conexion, logger)

	// Router
	r := mux.NewRouter()

	sesion := func(h http.HandlerFunc) http.Handler { return mw.RequiereSesion(h) }
	api := func(h http.HandlerFunc) http.Handler { return mw.RequiereSesionAPI(h) }
	admin := func(h http.HandlerFunc) http.Handler { return mw.RequiereAdmin(h) }
	privilegiado := func(h http.HandlerFunc) http.Handler { return mw.RequierePrivilegiado(h) }

	// Autenticación
	r.HandleFunc("/login", authHandler.Login).Methods("POST")
	r.HandleFunc("/logout", authHandler.Logout).Methods("GET", "POST")
	r.HandleFunc("/api/check-auth", authHandler.CheckAuth).Methods("GET")

	// Prospectos
	r.Handle("/prospectos", api(prospectoHandler.Listar)).Methods("GET")
	r.Handle("/prospectos", sesion(prospectoHandler.Crear)).Methods("POST")
	r.Handle("/prospectos/cerrados", api(prospectoHandler.ListarCerrados)).Methods("GET")
	r.Handle("/prospectos/buscar", api(prospectoHandler.BuscarPorIDNegocio)).Methods("GET")
	r.Handle("/prospectos/{id}/seguimiento", api(prospectoHandler.Seguimiento)).Methods("GET")
	r.Handle("/prospectos/{id}/interacciones", sesion(prospectoHandler.RegistrarInteraccion)).Methods("POST")
	r.Handle("/prospectos/{id}/editar", sesion(prospectoHandler.Editar)).Methods("POST")
	r.Handle("/prospectos/{id}/actualizar-viaje", sesion(prospectoHandler.ActualizarViaje)).Methods("POST")
	r.Handle("/prospectos/{id}/eliminar", sesion(prospectoHandler.Eliminar)).Methods("POST")
	r.Handle("/prospectos/{id}/reactivar", sesion(prospectoHandler.Reactivar)).Methods("POST")
	r.Handle("/prospectos/{id}/asignar", privilegiado(prospectoHandler.Asignar)).Methods("POST")
	r.Handle("/clientes/historial", api(prospectoHandler.HistorialCliente)).Methods("GET")

	// Documentos
	r.Handle("/prospectos/{id}/documento", sesion(documentoHandler.Subir)).Methods("POST")
	r.Handle("/documentos/{id}/descargar", sesion(documentoHandler.Descargar)).Methods("GET")
	r.Handle("/documentos/{id}/eliminar", sesion(documentoHandler.Eliminar)).Methods("POST")

	// Usuarios
	r.Handle("/usuarios", admin(usuarioHandler.Listar)).Methods("GET")
	r.Handle("/usuarios", admin(usuarioHandler.Crear)).Methods("POST")
	r.Handle("/usuarios/{id}", admin(usuarioHandler.Detalle)).Methods("GET")
	r.Handle("/usuarios/{id}/editar", admin(usuarioHandler.Editar)).Methods("POST")
	r.Handle("/usuarios/{id}/desactivar", admin(usuarioHandler.Desactivar)).Methods("POST")
	r.Handle("/usuarios/{id}/reactivar", admin(usuarioHandler.Reactivar)).Methods("POST")
	r.Handle("/api/agentes", api(usuarioHandler.Agentes)).Methods("GET")

	// Destinos
	r.Handle("/destinos", api(destinoHandler.Listar)).Methods("GET")
	r.Handle("/destinos", admin(destinoHandler.Crear)).Methods("POST")
	r.Handle("/destinos/{id}/editar", admin(destinoHandler.Editar)).Methods("POST")
	r.Handle("/destinos/{id}/eliminar", admin(destinoHandler.Eliminar)).Methods("POST")
	r.Handle("/destinos/fusionar", admin(destinoHandler.Fusionar)).Methods("POST")
	r.Handle("/api/destinos/buscar", api(destinoHandler.Buscar)).Methods("GET")
	r.Handle("/api/destinos/sugerencias", api(destinoHandler.Sugerencias)).Methods("GET")
	r.Handle("/api/destinos/normalizar", privilegiado(destinoHandler.Normalizar)).Methods("POST")

	// Clientes
	r.Handle("/clientes", api(clienteHandler.Listar)).Methods("GET")
	r.Handle("/clientes/{id}", api(clienteHandler.Detalle)).Methods("GET")

	// Notificaciones
	r.Handle("/notificaciones", api(notificacionHandler.Listar)).Methods("GET")
	r.Handle("/notificaciones/crear", sesion(notificacionHandler.CrearManual)).Methods("POST")
	r.Handle("/notificaciones/{id}/leer", api(notificacionHandler.MarcarLeida)).Methods("POST")
	r.Handle("/api/notificaciones/pendientes", api(notificacionHandler.Pendientes)).Methods("GET")
	r.Handle("/api/notificaciones/check-inactivity", api(notificacionHandler.CheckInactividad)).Methods("GET")

	// Importación y exportación Excel
	r.Handle("/importar/usuarios", admin(excelHandler.ImportarUsuarios)).Methods("POST")
	r.Handle("/importar/prospectos", privilegiado(excelHandler.ImportarProspectos)).Methods("POST")
	r.Handle("/importar/clientes", privilegiado(excelHandler.ImportarClientes)).Methods("POST")
	r.Handle("/exportar/prospectos", api(excelHandler.ExportarProspectos)).Methods("GET")
	r.Handle("/exportar/usuarios", admin(excelHandler.ExportarUsuarios)).Methods("GET")
	r.Handle("/exportar/interacciones", privilegiado(excelHandler.ExportarInteracciones)).Methods("GET")
	r.Handle("/exportar/clientes-ganados", privilegiado(excelHandler.ExportarClientesGanados)).Methods("GET")
	r.Handle("/plantillas/{tipo}", api(excelHandler.Plantilla)).Methods("GET")

	// Dashboard
	r.Handle("/dashboard", api(dashboardHandler.Resumen)).Methods("GET")
	r.Handle("/exportar/dashboard", api(dashboardHandler.Exportar)).Methods("GET")

	corsOptions := cors.New(cors.Options{
		AllowedOrigins:   []string{os.Getenv("FRONTEND_ORIGIN")},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})

	puerto := os.Getenv("PORT")
	if puerto == "" {
		puerto = "8080"
	}

	logger.Info("Servidor escuchando", zap.String("puerto", puerto))
	if err := http.ListenAndServe(":"+puerto, corsOptions.Handler(r)); err != nil {
		logger.Fatal("Error en el servidor", zap.Error(err))
	}
}
