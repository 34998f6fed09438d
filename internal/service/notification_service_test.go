package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jubileepta/rafflemail/internal/config"
	"github.com/jubileepta/rafflemail/internal/email"
	"github.com/jubileepta/rafflemail/internal/logger"
	"github.com/jubileepta/rafflemail/internal/tracker"
	"github.com/jubileepta/rafflemail/internal/winners"
)

type fakeSender struct {
	sent []email.Message
	errs map[int]error // 0-based call index -> error
	n    int
}

func (f *fakeSender) Send(ctx context.Context, msg email.Message) error {
	defer func() { f.n++ }()
	if err, ok := f.errs[f.n]; ok {
		return err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Mail.SendDelay = 2 * time.Second
	cfg.Branding = config.BrandingConfig{
		FairName:       "Jubilee Winter Fair",
		Cause:          "the KS2 playground",
		ContactAddress: "raffle@jubileepta.org.uk",
		Signature:      "Jubilee Raffle Team",
	}
	return cfg
}

func newTestService(out *bytes.Buffer) (*NotificationService, *[]time.Duration) {
	var slept []time.Duration
	svc := NewNotificationService(testConfig(), out, logger.Nop())
	svc.sleep = func(ctx context.Context, d time.Duration) error {
		slept = append(slept, d)
		return ctx.Err()
	}
	return svc, &slept
}

func twoWinners() []winners.Record {
	return []winners.Record{
		{Prize: "Basement 144 – 5-hour venue hire – £750", Ticket: "0412", Name: "Ada Lovelace", Email: "ada@example.com", Row: 1},
		{Prize: "Garden Centre – £40", Ticket: "0099", Name: "Alan Turing", Email: "alan@example.org", Row: 2},
	}
}

func TestSend_AllDelivered(t *testing.T) {
	var out bytes.Buffer
	svc, slept := newTestService(&out)
	sender := &fakeSender{}

	summary, err := svc.Send(context.Background(), sender, twoWinners(), tracker.Amount(1234))
	require.NoError(t, err)

	require.Len(t, sender.sent, 2)
	assert.Equal(t, "ada@example.com", sender.sent[0].To)
	assert.Equal(t, "alan@example.org", sender.sent[1].To)
	assert.Equal(t, []time.Duration{2 * time.Second}, *slept, "one pause between two sends")

	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 2, summary.Sent)
	assert.Empty(t, summary.Failed)
	assert.Contains(t, out.String(), "[1/2] Sending to Ada Lovelace (ada@example.com)... ✅")
}

func TestSend_PerMessageFailureContinues(t *testing.T) {
	var out bytes.Buffer
	svc, slept := newTestService(&out)
	sender := &fakeSender{errs: map[int]error{1: errors.New("550 mailbox unavailable")}}

	summary, err := svc.Send(context.Background(), sender, twoWinners(), tracker.Amount(1234))
	require.NoError(t, err)

	assert.Len(t, *slept, 1)
	assert.Equal(t, 1, summary.Sent)
	require.Len(t, summary.Failed, 1)
	assert.Equal(t, "Alan Turing", summary.Failed[0].Record.Name)

	out.Reset()
	summary.Print(&out)
	assert.Contains(t, out.String(), "Emails sent: 1\n")
	assert.Contains(t, out.String(), "Emails failed: 1\n")
	assert.Contains(t, out.String(), "Alan Turing <alan@example.org>: 550 mailbox unavailable")
}

func TestSend_FailureInMiddleKeepsOrder(t *testing.T) {
	var out bytes.Buffer
	svc, _ := newTestService(&out)
	recs := append(twoWinners(), winners.Record{Prize: "Hamper", Name: "Grace Hopper", Email: "grace@example.net", Row: 3})
	sender := &fakeSender{errs: map[int]error{0: errors.New("temporary")}}

	summary, err := svc.Send(context.Background(), sender, recs, 1)
	require.NoError(t, err)

	require.Len(t, sender.sent, 2)
	assert.Equal(t, "alan@example.org", sender.sent[0].To)
	assert.Equal(t, "grace@example.net", sender.sent[1].To)
	assert.Equal(t, 2, summary.Sent)
	assert.Len(t, summary.Failed, 1)
}

func TestSend_SessionFailureAborts(t *testing.T) {
	var out bytes.Buffer
	svc, _ := newTestService(&out)
	recs := append(twoWinners(), winners.Record{Prize: "Hamper", Name: "Grace Hopper", Email: "grace@example.net", Row: 3})
	sender := &fakeSender{errs: map[int]error{1: email.ErrSession}}

	summary, err := svc.Send(context.Background(), sender, recs, 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, email.ErrSession))

	assert.Len(t, sender.sent, 1)
	assert.Equal(t, 1, summary.Sent)
	assert.Len(t, summary.Failed, 1)
	assert.Equal(t, 3, summary.Total)
}

func TestSend_CancelledDuringDelay(t *testing.T) {
	var out bytes.Buffer
	svc, _ := newTestService(&out)
	ctx, cancel := context.WithCancel(context.Background())
	svc.sleep = func(context.Context, time.Duration) error {
		cancel()
		return context.Canceled
	}
	sender := &fakeSender{}

	summary, err := svc.Send(ctx, sender, twoWinners(), 1)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, summary.Sent)
	assert.Len(t, sender.sent, 1)
}

func TestSend_ZeroDelaySkipsPause(t *testing.T) {
	var out bytes.Buffer
	svc, slept := newTestService(&out)
	svc.delay = 0

	_, err := svc.Send(context.Background(), &fakeSender{}, twoWinners(), 1)
	require.NoError(t, err)
	assert.Empty(t, *slept)
}

func TestPreview_WritesEveryMessageWithoutPausing(t *testing.T) {
	var out bytes.Buffer
	svc, slept := newTestService(&out)

	summary, err := svc.Preview(context.Background(), twoWinners(), tracker.Amount(1234))
	require.NoError(t, err)

	assert.Empty(t, *slept)
	assert.True(t, summary.DryRun)
	assert.Equal(t, 2, summary.Sent)

	text := out.String()
	assert.Contains(t, text, "DRY RUN MODE")
	assert.Equal(t, 2, strings.Count(text, "SUBJECT: 🎉 You've won a prize in the Jubilee Winter Fair Raffle!"))
	assert.Less(t, strings.Index(text, "TO: Ada Lovelace"), strings.Index(text, "TO: Alan Turing"))
	assert.NotContains(t, text, "Sending to")

	out.Reset()
	summary.Print(&out)
	assert.Contains(t, out.String(), "Emails previewed: 2")
	assert.NotContains(t, out.String(), "Emails failed")
}

func TestEligible(t *testing.T) {
	var out bytes.Buffer
	svc, _ := newTestService(&out)

	recs := append(twoWinners(), winners.Record{Prize: "Hamper", Name: "Typo Person", Email: "typo@example.con", Row: 3})
	loadSkipped := []winners.Skipped{{Record: winners.Record{Name: "No Email", Row: 4}, Reason: "missing email"}}

	valid, skipped, err := svc.Eligible(recs, loadSkipped)
	require.NoError(t, err)
	assert.Len(t, valid, 2)
	require.Len(t, skipped, 2)
	assert.Equal(t, "No Email", skipped[0].Record.Name)
	assert.Equal(t, "Typo Person", skipped[1].Record.Name)
	assert.Contains(t, out.String(), "These 2 winner(s) will be SKIPPED.")
	assert.Contains(t, out.String(), "✅ 2 valid email(s) ready to send")
}

func TestEligible_NoneLeft(t *testing.T) {
	var out bytes.Buffer
	svc, _ := newTestService(&out)

	_, _, err := svc.Eligible([]winners.Record{{Name: "Bad", Email: "bad", Row: 1}}, nil)
	assert.ErrorIs(t, err, ErrNoWinners)

	_, _, err = svc.Eligible(nil, nil)
	assert.ErrorIs(t, err, ErrNoWinners)
}

func TestOverview(t *testing.T) {
	var out bytes.Buffer
	svc, _ := newTestService(&out)

	svc.Overview(twoWinners(), tracker.Amount(1234))

	assert.Contains(t, out.String(), "Total raised (from tracker): £1,234")
	assert.Contains(t, out.String(), "Found 2 winners")
	assert.Contains(t, out.String(), "Total prize value: £790")
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{name: "yes", input: "yes\n", want: true},
		{name: "uppercase", input: "YES\n", want: true},
		{name: "padded", input: "  yes  \n", want: true},
		{name: "no trailing newline", input: "yes", want: true},
		{name: "y is not enough", input: "y\n", want: false},
		{name: "no", input: "no\n", want: false},
		{name: "empty input", input: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			svc, _ := newTestService(&out)

			ok, err := svc.Confirm(context.Background(), strings.NewReader(tt.input), "raffle@example.com", 2)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
			assert.Contains(t, out.String(), "Send 2 emails? (yes/no): ")
			assert.Contains(t, out.String(), "Sending emails from: raffle@example.com")
			if !tt.want {
				assert.Contains(t, out.String(), "Cancelled.")
			}
		})
	}
}

func TestConfirm_CancelledWhileWaiting(t *testing.T) {
	var out bytes.Buffer
	svc, _ := newTestService(&out)

	pr, pw := io.Pipe()
	defer pw.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := svc.Confirm(ctx, pr, "raffle@example.com", 1)
		done <- err
	}()
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("confirmation prompt ignored cancellation")
	}
	assert.NotContains(t, out.String(), "Cancelled.")
}

func TestSleepContext(t *testing.T) {
	require.NoError(t, sleepContext(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sleepContext(ctx, time.Hour), context.Canceled)
}
