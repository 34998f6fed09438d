package email

import (
	"context"
	"fmt"
	"io"
	"strings"
)

// PreviewSender writes messages to an io.Writer instead of sending them.
// Used for dry runs; it needs no credentials and opens no connection.
type PreviewSender struct {
	out io.Writer
}

// NewPreviewSender creates a new preview sender writing to out.
func NewPreviewSender(out io.Writer) *PreviewSender {
	return &PreviewSender{out: out}
}

var previewRule = strings.Repeat("=", 60)

// Send prints the recipient, subject and plain-text body.
func (s *PreviewSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	to := msg.To
	if msg.ToName != "" {
		to = fmt.Sprintf("%s <%s>", msg.ToName, msg.To)
	}

	_, err := fmt.Fprintf(s.out, "\n%s\nTO: %s\nSUBJECT: %s\n%s\n%s\n", previewRule, to, msg.Subject, previewRule, msg.TextBody)
	return err
}

// Close is a no-op so a PreviewSender can stand in for a Session.
func (s *PreviewSender) Close() error {
	return nil
}
