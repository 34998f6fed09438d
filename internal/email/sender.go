package email

import (
	"context"
	"errors"
)

// Sender is the interface for anything that can deliver a composed message.
// The SMTP session and the dry-run preview both implement it.
type Sender interface {
	// Send delivers a single message.
	Send(ctx context.Context, msg Message) error
}

// Session is an open connection that is used for a whole batch and must be
// closed afterwards.
type Session interface {
	Sender
	Close() error
}

// Message represents an email message to be sent.
type Message struct {
	To       string // recipient email address
	ToName   string // recipient display name
	Subject  string // email subject
	HTMLBody string // HTML email body
	TextBody string // plain-text body
}

// Mailer errors
var (
	ErrAuthConfiguration = errors.New("smtp credentials are not configured")
	ErrAuthentication    = errors.New("smtp authentication rejected")
	ErrSession           = errors.New("smtp session failed")
)
