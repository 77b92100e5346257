package notify

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"strings"

	"Gin_postgres_redis_tickets/config"

	"github.com/google/uuid"
)

type Message struct {
	To      string
	Subject string
	HTML    string
	Plain   string
	Link    string
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPMailer 未配置 SMTP_HOST 时只打日志，不报错
type SMTPMailer struct {
	conf config.SMTPConfig
	log  *slog.Logger
}

func NewSMTPMailer(conf config.SMTPConfig, logger *slog.Logger) *SMTPMailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &SMTPMailer{conf: conf, log: logger}
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	conf := m.conf
	if conf.Host == "" || (conf.Username == "" && conf.From == "") {
		m.log.InfoContext(ctx, "[DEV] invitation mail not sent", "to", msg.To, "link", msg.Link)
		return nil
	}

	fromAddr := conf.From
	if fromAddr == "" {
		fromAddr = conf.Username
	}
	body := buildMIMEWithFromName(conf.AppName, fromAddr, msg.To, msg.Subject, msg.Plain, msg.HTML)

	var auth smtp.Auth
	if conf.Username != "" {
		auth = smtp.PlainAuth("", conf.Username, conf.Password, conf.Host)
	}
	err := sendMail(ctx, conf.Host, conf.Port, auth, fromAddr, msg.To, []byte(body))
	if err != nil && ctx.Err() != nil {
		return fmt.Errorf("send mail: %w", ctx.Err())
	}
	return err
}

// sendMail 与 smtp.SendMail 流程相同，但连接受 ctx 的截止时间约束
func sendMail(ctx context.Context, host, port string, auth smtp.Auth, from, to string, body []byte) error {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", net.JoinHostPort(host, port))
	if err != nil {
		return err
	}
	defer conn.Close()
	// ctx 结束时关闭连接，阻塞中的读写随之返回
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	c, err := smtp.NewClient(conn, host)
	if err != nil {
		return err
	}
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: host}); err != nil {
			return err
		}
	}
	if auth != nil {
		if ok, _ := c.Extension("AUTH"); !ok {
			return errors.New("smtp: server doesn't support AUTH")
		}
		if err := c.Auth(auth); err != nil {
			return err
		}
	}
	if err := c.Mail(from); err != nil {
		return err
	}
	if err := c.Rcpt(to); err != nil {
		return err
	}
	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(body); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return c.Quit()
}

func buildMIMEWithFromName(fromName, fromAddr, to, subject, plain, html string) string {
	boundary := "b-" + strings.ReplaceAll(uuid.NewString(), "-", "")
	headers := []string{
		fmt.Sprintf("From: %s <%s>", fromName, fromAddr),
		fmt.Sprintf("To: %s", to),
		fmt.Sprintf("Subject: %s", subject),
		"MIME-Version: 1.0",
		fmt.Sprintf("Content-Type: multipart/alternative; boundary=%q", boundary),
	}
	var b strings.Builder
	b.WriteString(strings.Join(headers, "\r\n") + "\r\n\r\n")
	if plain != "" {
		b.WriteString("--" + boundary + "\r\n")
		b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
		b.WriteString(plain + "\r\n")
	}
	b.WriteString("--" + boundary + "\r\n")
	b.WriteString("Content-Type: text/html; charset=UTF-8\r\n\r\n")
	b.WriteString(html + "\r\n")
	b.WriteString("--" + boundary + "--\r\n")
	return b.String()
}
