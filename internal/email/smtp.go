package email

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/textproto"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/gomail.v2"
)

// SMTPConfig holds everything needed to open an authenticated session.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string // account to authenticate as
	Password string // app password
	// FromAddress defaults to Username when empty.
	FromAddress string
	FromName    string
	ReplyTo     string
}

// dialer is the part of gomail.Dialer the sender uses.
type dialer interface {
	Dial() (gomail.SendCloser, error)
}

// SMTPSender opens SMTP sessions with a validated configuration.
type SMTPSender struct {
	cfg    SMTPConfig
	dialer dialer
}

// NewSMTPSender validates cfg and creates a new SMTPSender. It does not touch
// the network.
func NewSMTPSender(cfg SMTPConfig) (*SMTPSender, error) {
	var missing []string
	if cfg.Username == "" {
		missing = append(missing, "username")
	}
	if cfg.Password == "" {
		missing = append(missing, "app password")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing %s", ErrAuthConfiguration, strings.Join(missing, " and "))
	}
	if cfg.Host == "" {
		return nil, fmt.Errorf("smtp: host is required")
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.FromAddress == "" {
		cfg.FromAddress = cfg.Username
	}

	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	d.SSL = cfg.Port == 465
	d.TLSConfig = &tls.Config{ServerName: cfg.Host, MinVersion: tls.VersionTLS12}

	return &SMTPSender{cfg: cfg, dialer: d}, nil
}

// From returns the address messages are sent from.
func (s *SMTPSender) From() string {
	return s.cfg.FromAddress
}

// Dial connects and authenticates once. The returned session is used for the
// whole batch and must be closed.
func (s *SMTPSender) Dial(ctx context.Context) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sc, err := s.connect()
	if err != nil {
		return nil, err
	}

	return &SMTPSession{cfg: s.cfg, sc: sc, redial: s.connect, now: time.Now}, nil
}

func (s *SMTPSender) connect() (gomail.SendCloser, error) {
	sc, err := s.dialer.Dial()
	if err != nil {
		if isAuthError(err) {
			return nil, fmt.Errorf("%w: %v", ErrAuthentication, err)
		}
		return nil, fmt.Errorf("%w: connecting to %s:%d: %v", ErrSession, s.cfg.Host, s.cfg.Port, err)
	}
	return sc, nil
}

// SMTPSession is one authenticated SMTP connection. gomail never issues RSET,
// so a refused message leaves its MAIL transaction open; the session drops
// that connection and dials a fresh one before the next message.
type SMTPSession struct {
	cfg    SMTPConfig
	sc     gomail.SendCloser
	redial func() (gomail.SendCloser, error)
	now    func() time.Time
}

// SendError describes a message the server refused.
type SendError struct {
	To  string
	Err error
}

func (e *SendError) Error() string {
	return fmt.Sprintf("smtp: sending to %s: %v", e.To, e.Err)
}

func (e *SendError) Unwrap() error { return e.Err }

// Send delivers msg over the open session. Errors that leave the session
// unusable wrap ErrSession; anything else only affects this message.
func (s *SMTPSession) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if s.sc == nil {
		if s.redial == nil {
			return fmt.Errorf("%w: connection closed", ErrSession)
		}
		sc, err := s.redial()
		if err != nil {
			return fmt.Errorf("%w: reconnecting: %w", ErrSession, err)
		}
		s.sc = sc
	}

	m := s.build(msg)
	if err := s.sc.Send(s.cfg.FromAddress, []string{msg.To}, m); err != nil {
		sendErr := &SendError{To: msg.To, Err: err}
		if isSessionError(err) {
			return fmt.Errorf("%w: %w", ErrSession, sendErr)
		}
		s.discard()
		return sendErr
	}

	return nil
}

// Close ends the session with QUIT.
func (s *SMTPSession) Close() error {
	if s.sc == nil {
		return nil
	}
	err := s.sc.Close()
	s.sc = nil
	return err
}

// discard drops a connection whose transaction state is unknown.
func (s *SMTPSession) discard() {
	_ = s.sc.Close()
	s.sc = nil
}

func (s *SMTPSession) build(msg Message) *gomail.Message {
	m := gomail.NewMessage(gomail.SetCharset("UTF-8"))

	m.SetAddressHeader("From", s.cfg.FromAddress, s.cfg.FromName)
	if msg.ToName != "" {
		m.SetAddressHeader("To", msg.To, msg.ToName)
	} else {
		m.SetHeader("To", msg.To)
	}
	if s.cfg.ReplyTo != "" {
		m.SetHeader("Reply-To", s.cfg.ReplyTo)
	}
	m.SetHeader("Subject", msg.Subject)
	m.SetDateHeader("Date", s.now())
	m.SetHeader("Message-ID", fmt.Sprintf("<%s@%s>", uuid.NewString(), domainOf(s.cfg.FromAddress)))

	switch {
	case msg.TextBody != "" && msg.HTMLBody != "":
		m.SetBody("text/plain", msg.TextBody)
		m.AddAlternative("text/html", msg.HTMLBody)
	case msg.HTMLBody != "":
		m.SetBody("text/html", msg.HTMLBody)
	default:
		m.SetBody("text/plain", msg.TextBody)
	}

	return m
}

func domainOf(address string) string {
	if i := strings.LastIndex(address, "@"); i >= 0 && i < len(address)-1 {
		return address[i+1:]
	}
	return "localhost"
}

func isAuthError(err error) bool {
	var tpErr *textproto.Error
	if errors.As(err, &tpErr) {
		switch tpErr.Code {
		case 530, 534, 535:
			return true
		}
	}
	return false
}

// isSessionError reports whether err means no further message can go out on
// this connection.
func isSessionError(err error) bool {
	if isAuthError(err) {
		return true
	}

	var tpErr *textproto.Error
	if errors.As(err, &tpErr) {
		return tpErr.Code == 421
	}

	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, net.ErrClosed) {
		return true
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}
