package service

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jubileepta/rafflemail/internal/config"
	"github.com/jubileepta/rafflemail/internal/email"
	"github.com/jubileepta/rafflemail/internal/logger"
	"github.com/jubileepta/rafflemail/internal/tracker"
	"github.com/jubileepta/rafflemail/internal/winners"
)

// ErrNoWinners is returned when nothing is left to send after filtering.
var ErrNoWinners = errors.New("no winners to notify")

var summaryRule = strings.Repeat("=", 60)

// Failure is a winner whose message could not be delivered.
type Failure struct {
	Record winners.Record
	Err    error
}

// Summary is the outcome of one batch.
type Summary struct {
	DryRun  bool
	Total   int
	Sent    int
	Failed  []Failure
	Skipped []winners.Skipped
}

// Print writes the SUMMARY block.
func (s *Summary) Print(w io.Writer) {
	fmt.Fprintf(w, "\n%s\nSUMMARY\n%s\n", summaryRule, summaryRule)
	fmt.Fprintf(w, "Total winners: %d\n", s.Total)
	if s.DryRun {
		fmt.Fprintf(w, "Emails previewed: %d\n", s.Sent)
	} else {
		fmt.Fprintf(w, "Emails sent: %d\n", s.Sent)
		fmt.Fprintf(w, "Emails failed: %d\n", len(s.Failed))
		for _, f := range s.Failed {
			fmt.Fprintf(w, "  ❌ %s <%s>: %v\n", f.Record.Name, f.Record.Email, f.Err)
		}
	}
	if len(s.Skipped) > 0 {
		fmt.Fprintf(w, "Skipped: %d\n", len(s.Skipped))
	}
}

// NotificationService composes and dispatches winner emails in CSV order.
type NotificationService struct {
	branding email.Branding
	delay    time.Duration
	out      io.Writer
	log      *logger.Logger
	sleep    func(ctx context.Context, d time.Duration) error
}

// NewNotificationService creates a new NotificationService. Console output
// (previews, progress, prompts) goes to out.
func NewNotificationService(cfg *config.Config, out io.Writer, log *logger.Logger) *NotificationService {
	return &NotificationService{
		branding: cfg.Branding.Email(),
		delay:    cfg.Mail.SendDelay,
		out:      out,
		log:      log.WithComponent("notification"),
		sleep:    sleepContext,
	}
}

// Eligible drops records with unusable addresses and reports them. It fails
// with ErrNoWinners when nothing remains.
func (s *NotificationService) Eligible(records []winners.Record, skipped []winners.Skipped) ([]winners.Record, []winners.Skipped, error) {
	fmt.Fprintf(s.out, "\n📧 Validating email addresses...\n")

	valid, invalid := winners.Partition(records)
	skipped = append(skipped, invalid...)

	if len(skipped) > 0 {
		fmt.Fprintf(s.out, "\n⚠️  Found %d problematic row(s):\n\n", len(skipped))
		for _, sk := range skipped {
			fmt.Fprintf(s.out, "  ❌ %s\n", displayName(sk.Record))
			fmt.Fprintf(s.out, "     Email: %s\n", sk.Record.Email)
			fmt.Fprintf(s.out, "     Issue: %s\n", sk.Reason)
			fmt.Fprintf(s.out, "     Prize: %s\n\n", sk.Record.Prize)
			s.log.Warn().Int("row", sk.Record.Row).Str("reason", sk.Reason).Msg("skipping winner")
		}
		fmt.Fprintf(s.out, "These %d winner(s) will be SKIPPED.\n", len(skipped))
		fmt.Fprintf(s.out, "Fix them in the CSV and re-run, or contact them manually.\n\n")
	}

	if len(valid) == 0 {
		return nil, skipped, ErrNoWinners
	}

	fmt.Fprintf(s.out, "✅ %d valid email(s) ready to send\n", len(valid))
	return valid, skipped, nil
}

// Overview prints the raffle total and the combined value of the prizes.
func (s *NotificationService) Overview(records []winners.Record, total tracker.Amount) {
	var prizes float64
	for _, r := range records {
		prizes += r.PrizeDetail().Amount
	}

	fmt.Fprintf(s.out, "💰 Total raised (from tracker): %s\n", total)
	fmt.Fprintf(s.out, "📋 Found %d winners\n", len(records))
	fmt.Fprintf(s.out, "🎁 Total prize value: %s\n", tracker.Amount(prizes))
}

// Confirm asks the operator to type "yes" before n emails go out. It returns
// ctx.Err() if the context is cancelled while waiting for an answer.
func (s *NotificationService) Confirm(ctx context.Context, in io.Reader, from string, n int) (bool, error) {
	fmt.Fprintf(s.out, "\n📧 Sending emails from: %s\n", from)
	fmt.Fprintf(s.out, "\nSend %d emails? (yes/no): ", n)

	type answer struct {
		line string
		err  error
	}
	answers := make(chan answer, 1)
	go func() {
		line, err := bufio.NewReader(in).ReadString('\n')
		answers <- answer{line: line, err: err}
	}()

	var a answer
	select {
	case <-ctx.Done():
		fmt.Fprintln(s.out)
		return false, ctx.Err()
	case a = <-answers:
	}

	if a.err != nil && !errors.Is(a.err, io.EOF) {
		return false, fmt.Errorf("failed to read confirmation: %w", a.err)
	}

	if !strings.EqualFold(strings.TrimSpace(a.line), "yes") {
		fmt.Fprintln(s.out, "Cancelled.")
		return false, nil
	}
	return true, nil
}

// Preview renders every message to the console without sending anything.
func (s *NotificationService) Preview(ctx context.Context, records []winners.Record, total tracker.Amount) (*Summary, error) {
	fmt.Fprintf(s.out, "\n🔍 DRY RUN MODE - No emails will be sent\n")

	summary := &Summary{DryRun: true}
	err := s.dispatch(ctx, email.NewPreviewSender(s.out), records, total, 0, summary)
	return summary, err
}

// Send delivers every message over sender, pausing between sends. A failed
// message is recorded and the batch continues; a session failure stops the
// batch and is returned together with the partial summary.
func (s *NotificationService) Send(ctx context.Context, sender email.Sender, records []winners.Record, total tracker.Amount) (*Summary, error) {
	summary := &Summary{}
	err := s.dispatch(ctx, sender, records, total, s.delay, summary)
	return summary, err
}

func (s *NotificationService) dispatch(ctx context.Context, sender email.Sender, records []winners.Record, total tracker.Amount, delay time.Duration, summary *Summary) error {
	summary.Total = len(records)
	live := !summary.DryRun

	for i, rec := range records {
		if i > 0 && delay > 0 {
			if err := s.sleep(ctx, delay); err != nil {
				return err
			}
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		msg := email.Compose(rec, total, s.branding)

		if live {
			fmt.Fprintf(s.out, "[%d/%d] Sending to %s (%s)... ", i+1, len(records), rec.Name, rec.Email)
		}

		start := time.Now()
		err := sender.Send(ctx, msg)
		if live {
			s.log.Delivery(i+1, len(records), rec.Email, time.Since(start), err)
		}

		if err != nil {
			if live {
				fmt.Fprintln(s.out, "❌")
			}
			summary.Failed = append(summary.Failed, Failure{Record: rec, Err: err})
			if errors.Is(err, email.ErrSession) || ctx.Err() != nil {
				return err
			}
			continue
		}

		summary.Sent++
		if live {
			fmt.Fprintln(s.out, "✅")
		}
	}

	return nil
}

func displayName(r winners.Record) string {
	if r.Name != "" {
		return r.Name
	}
	return fmt.Sprintf("row %d", r.Row)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
