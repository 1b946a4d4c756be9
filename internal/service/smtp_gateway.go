package service

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"time"

	"github.com/iliyamo/learn-connect/internal/config"
)

type sendFunc func(ctx context.Context, host, addr string, auth smtp.Auth, from string, to []string, msg []byte) error

// SMTPGateway delivers verification email synchronously through an SMTP
// relay. Port 465 uses implicit TLS; other ports upgrade with STARTTLS when
// the server offers it.
type SMTPGateway struct {
	host string
	port string
	user string
	pass string
	from string
	send sendFunc
	now  func() time.Time
}

func NewSMTPGateway(cfg config.MailConfig) *SMTPGateway {
	return &SMTPGateway{
		host: cfg.SMTPHost,
		port: cfg.SMTPPort,
		user: cfg.SMTPUser,
		pass: cfg.SMTPPass,
		from: cfg.From,
		send: sendMail,
		now:  time.Now,
	}
}

// Deliver renders msg and hands it to the relay.
func (g *SMTPGateway) Deliver(ctx context.Context, msg VerificationEmail) error {
	if g.host == "" || g.from == "" {
		return ErrMailNotConfigured
	}
	now := g.now()
	text, html, err := RenderVerification(msg, now)
	if err != nil {
		return err
	}
	raw, err := buildMessage(g.from, msg, text, html, now)
	if err != nil {
		return fmt.Errorf("build message: %w", err)
	}
	var auth smtp.Auth
	if g.user != "" {
		auth = smtp.PlainAuth("", g.user, g.pass, g.host)
	}
	return g.send(ctx, g.host, net.JoinHostPort(g.host, g.port), auth, g.from, []string{msg.To}, raw)
}

func sendMail(ctx context.Context, host, addr string, auth smtp.Auth, from string, to []string, msg []byte) error {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("smtp dial: %w", err)
	}
	if dl, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(dl)
	}
	tlsConf := &tls.Config{ServerName: host, MinVersion: tls.VersionTLS12}
	if _, port, _ := net.SplitHostPort(addr); port == "465" {
		conn = tls.Client(conn, tlsConf)
	}
	c, err := smtp.NewClient(conn, host)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(tlsConf); err != nil {
			return fmt.Errorf("smtp starttls: %w", err)
		}
	}
	if auth != nil {
		if ok, _ := c.Extension("AUTH"); ok {
			if err := c.Auth(auth); err != nil {
				return fmt.Errorf("smtp auth: %w", err)
			}
		}
	}
	if err := c.Mail(from); err != nil {
		return fmt.Errorf("smtp mail from: %w", err)
	}
	for _, rcpt := range to {
		if err := c.Rcpt(rcpt); err != nil {
			return fmt.Errorf("smtp rcpt: %w", err)
		}
	}
	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("smtp write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp close data: %w", err)
	}
	return c.Quit()
}
