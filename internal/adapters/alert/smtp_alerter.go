package alert

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"github.com/mikey/mailbox-warmup/internal/core"
	"github.com/mikey/mailbox-warmup/internal/metrics"
	"go.uber.org/zap"
)

// DefaultSendTimeout bounds one alert delivery, dial included
const DefaultSendTimeout = 30 * time.Second

// SendFunc delivers a raw message. It must give up once ctx is done.
type SendFunc func(ctx context.Context, addr string, a sasl.Client, from string, to []string, r io.Reader) error

// SMTPAlerter e-mails reputation drops to the operators
type SMTPAlerter struct {
	addr     string
	username string
	password string
	from     string
	to       []string
	send     SendFunc
	timeout  time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

// NewSMTPAlerter creates an e-mail alert sink
func NewSMTPAlerter(addr, username, password, from string, to []string, logger *zap.Logger) (*SMTPAlerter, error) {
	if addr == "" {
		return nil, errors.New("smtp address is required for e-mail alerts")
	}
	if from == "" || len(to) == 0 {
		return nil, errors.New("smtp alerts need a sender and at least one recipient")
	}
	return &SMTPAlerter{
		addr:     addr,
		username: username,
		password: password,
		from:     from,
		to:       to,
		send:     sendMail,
		timeout:  DefaultSendTimeout,
		logger:   logger,
		now:      time.Now,
	}, nil
}

// WithSender replaces the delivery function
func (a *SMTPAlerter) WithSender(send SendFunc) *SMTPAlerter {
	a.send = send
	return a
}

// NotifyReputationDrop sends a plain-text alert message
func (a *SMTPAlerter) NotifyReputationDrop(ctx context.Context, account core.Account, current, previous float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var auth sasl.Client
	if a.username != "" {
		auth = sasl.NewPlainClient("", a.username, a.password)
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	msg := a.buildMessage(account, current, previous)
	if err := a.send(ctx, a.addr, auth, a.from, a.to, bytes.NewReader(msg)); err != nil {
		metrics.AlertDeliveriesTotal.WithLabelValues("smtp", "error").Inc()
		return fmt.Errorf("failed to send reputation alert: %w", err)
	}

	metrics.AlertDeliveriesTotal.WithLabelValues("smtp", "success").Inc()
	a.logger.Info("Sent reputation alert",
		zap.String("account", account.Email),
		zap.Strings("to", a.to))
	return nil
}

// sendMail works like smtp.SendMail but dials with ctx and holds the
// connection to the ctx deadline.
func sendMail(ctx context.Context, addr string, a sasl.Client, from string, to []string, r io.Reader) error {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("invalid smtp address %q: %w", addr, err)
	}

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to connect to smtp relay: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			conn.Close()
			return fmt.Errorf("failed to set connection deadline: %w", err)
		}
	}
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	c, err := smtp.NewClientStartTLS(conn, &tls.Config{ServerName: host})
	if err != nil {
		conn.Close()
		return err
	}
	defer c.Close()

	if a != nil {
		if ok, _ := c.Extension("AUTH"); !ok {
			return errors.New("smtp: server doesn't support AUTH")
		}
		if err := c.Auth(a); err != nil {
			return err
		}
	}
	if err := c.SendMail(from, to, r); err != nil {
		return err
	}
	return c.Quit()
}

func (a *SMTPAlerter) buildMessage(account core.Account, current, previous float64) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", a.from)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(a.to, ", "))
	fmt.Fprintf(&b, "Subject: Reputation drop for %s\r\n", account.Email)
	fmt.Fprintf(&b, "Date: %s\r\n", a.now().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	fmt.Fprintf(&b, "Reputation drop detected for %s: %.2f -> %.2f\r\n", account.Email, previous, current)
	fmt.Fprintf(&b, "Account id: %d\r\n", account.ID)
	return []byte(b.String())
}
