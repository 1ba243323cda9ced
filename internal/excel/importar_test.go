package excel

import (
	"bytes"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travelhouse/crm-prospectos/internal/destino"
	"github.com/travelhouse/crm-prospectos/internal/models"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func abrirDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.Usuario{},
		&models.Cliente{},
		&models.Prospecto{},
		&models.Destino{},
		&models.MedioIngreso{},
		&models.EstadisticaCotizacion{},
	))
	return db
}

// libroEnMemoria arma un xlsx con encabezado y filas para las pruebas de
// importación.
func libroEnMemoria(t *testing.T, filas [][]any) *bytes.Buffer {
	t.Helper()
	libro := excelize.NewFile()
	defer libro.Close()

	for i, fila := range filas {
		ref, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, libro.SetSheetRow("Sheet1", ref, &fila))
	}

	buf, err := libro.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestImportarProspectosFilasBuenasYMalas(t *testing.T) {
	db := abrirDB(t)
	repo := destino.NewRepository()

	buf := libroEnMemoria(t, [][]any{
		{"telefono", "nombre", "apellido", "destino", "estado"},
		{"300 123-4567", "maria", "lopez", "Cancun", "nuevo"},
		{"", "sin", "telefono", "", ""},
	})

	resultado, err := ImportarProspectos(db, repo, buf)
	require.NoError(t, err)

	assert.Equal(t, 1, resultado.Creados)
	require.Len(t, resultado.Errores, 1)
	assert.Equal(t, 3, resultado.Errores[0].Fila)
	assert.Contains(t, resultado.Errores[0].Error, "telefono")

	var p models.Prospecto
	require.NoError(t, db.First(&p).Error)
	assert.Equal(t, "3001234567", p.Telefono)
	assert.Equal(t, "MARIA", p.Nombre)
	assert.Equal(t, "CANCUN", p.Destino)
	assert.NotEmpty(t, p.IDSolicitud)
	assert.NotEmpty(t, p.IDCliente)

	// El destino de texto libre quedó en el catálogo.
	var d models.Destino
	require.NoError(t, db.Where("nombre = ?", "CANCUN").First(&d).Error)
}

func TestImportarProspectosEmailInvalido(t *testing.T) {
	db := abrirDB(t)
	repo := destino.NewRepository()

	buf := libroEnMemoria(t, [][]any{
		{"telefono", "nombre", "correo_electronico"},
		{"3001111111", "mala", "no-es-un-email"},
		{"3002222222", "buena", "buena@mail.com"},
	})

	resultado, err := ImportarProspectos(db, repo, buf)
	require.NoError(t, err)

	assert.Equal(t, 1, resultado.Creados)
	require.Len(t, resultado.Errores, 1)
	assert.Equal(t, 2, resultado.Errores[0].Fila)
	assert.Contains(t, resultado.Errores[0].Error, "email inválido")

	var prospectos []models.Prospecto
	require.NoError(t, db.Find(&prospectos).Error)
	require.Len(t, prospectos, 1)
	assert.Equal(t, "buena@mail.com", prospectos[0].CorreoElectronico)
}

func TestImportarProspectosMedioIngresoSobreLaMarcha(t *testing.T) {
	db := abrirDB(t)
	repo := destino.NewRepository()
	require.NoError(t, db.Create(&models.MedioIngreso{Nombre: "REFERIDO"}).Error)

	buf := libroEnMemoria(t, [][]any{
		{"telefono", "medio_ingreso"},
		{"3001111111", "referido"},
		{"3002222222", "Instagram"},
	})

	resultado, err := ImportarProspectos(db, repo, buf)
	require.NoError(t, err)
	require.Empty(t, resultado.Errores)
	require.Equal(t, 2, resultado.Creados)

	// El nombre conocido reutiliza la entrada; el desconocido crea una nueva.
	var total int64
	require.NoError(t, db.Model(&models.MedioIngreso{}).Count(&total).Error)
	assert.Equal(t, int64(2), total)

	var nuevo models.MedioIngreso
	require.NoError(t, db.Where("nombre = ?", "INSTAGRAM").First(&nuevo).Error)

	var prospectos []models.Prospecto
	require.NoError(t, db.Order("id ASC").Find(&prospectos).Error)
	require.Len(t, prospectos, 2)
	require.NotNil(t, prospectos[0].MedioIngresoID)
	require.NotNil(t, prospectos[1].MedioIngresoID)
	assert.Equal(t, nuevo.ID, *prospectos[1].MedioIngresoID)
}

func TestImportarProspectosTelefonoRepetido(t *testing.T) {
	db := abrirDB(t)
	repo := destino.NewRepository()

	buf := libroEnMemoria(t, [][]any{
		{"telefono", "nombre"},
		{"3009998877", "primera"},
		{"3009998877", "segunda"},
	})

	resultado, err := ImportarProspectos(db, repo, buf)
	require.NoError(t, err)
	require.Equal(t, 2, resultado.Creados)
	require.Empty(t, resultado.Errores)

	var prospectos []models.Prospecto
	require.NoError(t, db.Order("id ASC").Find(&prospectos).Error)
	require.Len(t, prospectos, 2)

	primera, segunda := prospectos[0], prospectos[1]
	assert.False(t, primera.ClienteRecurrente)
	assert.True(t, segunda.ClienteRecurrente)
	require.NotNil(t, segunda.ProspectoOriginalID)
	assert.Equal(t, primera.ID, *segunda.ProspectoOriginalID)
	assert.Equal(t, primera.IDCliente, segunda.IDCliente,
		"las solicitudes de la misma persona comparten ID de cliente")
	require.NotNil(t, primera.IDSolicitud)
	require.NotNil(t, segunda.IDSolicitud)
	assert.NotEqual(t, *primera.IDSolicitud, *segunda.IDSolicitud)
}

func TestImportarProspectosCotizadoRegistraEstadistica(t *testing.T) {
	db := abrirDB(t)
	repo := destino.NewRepository()

	buf := libroEnMemoria(t, [][]any{
		{"telefono", "estado"},
		{"3001112233", "cotizado"},
	})

	resultado, err := ImportarProspectos(db, repo, buf)
	require.NoError(t, err)
	require.Equal(t, 1, resultado.Creados)

	var e models.EstadisticaCotizacion
	require.NoError(t, db.First(&e).Error)
	assert.NotEmpty(t, e.IDCotizacion)

	var p models.Prospecto
	require.NoError(t, db.First(&p).Error)
	require.NotNil(t, e.IDCotizacion)
	assert.Equal(t, *e.IDCotizacion, p.IDCotizacion)
}

func TestImportarUsuariosInactivoSinCredenciales(t *testing.T) {
	db := abrirDB(t)

	buf := libroEnMemoria(t, [][]any{
		{"username", "email", "password", "tipo_usuario", "activo"},
		{"retirado1", "", "", "agente", 0},
		{"activo1", "activo1@travelhouse.com", "secreta123", "agente", 1},
		{"", "sin.username@travelhouse.com", "x", "agente", 1},
	})

	resultado, err := ImportarUsuarios(db, buf)
	require.NoError(t, err)

	assert.Equal(t, 2, resultado.Creados)
	require.Len(t, resultado.Errores, 1)
	assert.Equal(t, 4, resultado.Errores[0].Fila)

	var retirado models.Usuario
	require.NoError(t, db.Where("username = ?", "retirado1").First(&retirado).Error)
	assert.Equal(t, models.EmailServicioCliente, retirado.Email)
	assert.Equal(t, 0, retirado.Activo)
	assert.NotEmpty(t, retirado.HashedPassword)
}

func TestImportarUsuariosUsernameDuplicado(t *testing.T) {
	db := abrirDB(t)
	require.NoError(t, db.Create(&models.Usuario{
		Username: "existente", Email: "e@travelhouse.com", HashedPassword: "x",
		TipoUsuario: models.TipoAgente, Activo: 1,
	}).Error)

	buf := libroEnMemoria(t, [][]any{
		{"username", "email", "password", "tipo_usuario"},
		{"existente", "otro@travelhouse.com", "clave", "agente"},
	})

	resultado, err := ImportarUsuarios(db, buf)
	require.NoError(t, err)
	assert.Equal(t, 0, resultado.Creados)
	require.Len(t, resultado.Errores, 1)
	assert.Contains(t, resultado.Errores[0].Error, "existente")
}

func TestImportarClientesCreaYActualiza(t *testing.T) {
	db := abrirDB(t)

	buf := libroEnMemoria(t, [][]any{
		{"telefono", "nombre", "correo_electronico"},
		{"3012345678", "carlos", "carlos@mail.com"},
	})
	resultado, err := ImportarClientes(db, buf)
	require.NoError(t, err)
	require.Equal(t, 1, resultado.Creados)

	var c models.Cliente
	require.NoError(t, db.First(&c).Error)
	assert.Equal(t, "CARLOS", c.Nombre)
	require.NotNil(t, c.IDCliente)
	idOriginal := *c.IDCliente

	// Mismo teléfono: actualiza la ficha en lugar de duplicarla.
	buf = libroEnMemoria(t, [][]any{
		{"telefono", "nombre", "apellido"},
		{"3012345678", "", "ramirez"},
	})
	resultado, err = ImportarClientes(db, buf)
	require.NoError(t, err)
	require.Equal(t, 1, resultado.Creados)

	var total int64
	require.NoError(t, db.Model(&models.Cliente{}).Count(&total).Error)
	assert.Equal(t, int64(1), total)

	require.NoError(t, db.First(&c).Error)
	assert.Equal(t, "CARLOS", c.Nombre)
	assert.Equal(t, "RAMIREZ", c.Apellido)
	require.NotNil(t, c.IDCliente)
	assert.Equal(t, idOriginal, *c.IDCliente)
}

func TestExportarProspectosGeneraLibro(t *testing.T) {
	db := abrirDB(t)

	prospectos := []models.Prospecto{
		{Telefono: "3000000001", Nombre: "ANA", Estado: models.EstadoNuevo},
		{Telefono: "3000000002", Nombre: "LUIS", Estado: models.EstadoGanado},
	}
	for i := range prospectos {
		require.NoError(t, db.Create(&prospectos[i]).Error)
	}

	libro, err := ExportarProspectos(db, prospectos)
	require.NoError(t, err)
	defer libro.Close()

	filas, err := libro.GetRows("Prospectos")
	require.NoError(t, err)
	require.Len(t, filas, 3, "encabezado más dos filas de datos")
	assert.Equal(t, "ID Solicitud", filas[0][0])
	assert.Equal(t, "ANA", filas[1][2])
}
