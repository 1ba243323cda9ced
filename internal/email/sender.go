package email

import (
	"os"
	"strconv"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

// Sender envía correos de notificación. Los envíos son best-effort: un fallo
// nunca aborta la operación que lo disparó, solo queda registrado.
type Sender interface {
	Enviar(destinatario, asunto, cuerpo string) error
}

// SMTPSender envía por SMTP con go-mail.
type SMTPSender struct {
	host     string
	port     int
	usuario  string
	password string
	from     string
}

// NewSMTPSenderDesdeEnv arma el sender con SMTP_HOST, SMTP_PORT, SMTP_USER,
// SMTP_PASSWORD y SMTP_FROM.
func NewSMTPSenderDesdeEnv() *SMTPSender {
	port, err := strconv.Atoi(os.Getenv("SMTP_PORT"))
	if err != nil {
		port = 587
	}
	return &SMTPSender{
		host:     os.Getenv("SMTP_HOST"),
		port:     port,
		usuario:  os.Getenv("SMTP_USER"),
		password: os.Getenv("SMTP_PASSWORD"),
		from:     os.Getenv("SMTP_FROM"),
	}
}

func (s *SMTPSender) Enviar(destinatario, asunto, cuerpo string) error {
	msg := mail.NewMsg()
	if err := msg.From(s.from); err != nil {
		return err
	}
	if err := msg.To(destinatario); err != nil {
		return err
	}
	msg.Subject(asunto)
	msg.SetBodyString(mail.TypeTextPlain, cuerpo)

	client, err := mail.NewClient(s.host,
		mail.WithPort(s.port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(s.usuario),
		mail.WithPassword(s.password),
	)
	if err != nil {
		return err
	}
	return client.DialAndSend(msg)
}

// LogSender solo registra el envío; se usa en desarrollo y pruebas.
type LogSender struct {
	Logger *zap.Logger
}

func (s *LogSender) Enviar(destinatario, asunto, cuerpo string) error {
	s.Logger.Info("email simulado",
		zap.String("destinatario", destinatario),
		zap.String("asunto", asunto),
	)
	return nil
}
