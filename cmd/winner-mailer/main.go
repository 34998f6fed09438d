package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jubileepta/rafflemail/internal/config"
	"github.com/jubileepta/rafflemail/internal/email"
	"github.com/jubileepta/rafflemail/internal/logger"
	"github.com/jubileepta/rafflemail/internal/service"
	"github.com/jubileepta/rafflemail/internal/tracker"
	"github.com/jubileepta/rafflemail/internal/winners"
)

var errUsage = errors.New("invalid arguments")

// mailDialer opens the SMTP session for a live run.
type mailDialer interface {
	From() string
	Dial(ctx context.Context) (email.Session, error)
}

type app struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer

	loadConfig func() (*config.Config, error)
	newDialer  func(cfg email.SMTPConfig) (mailDialer, error)
}

func newSMTPDialer(cfg email.SMTPConfig) (mailDialer, error) {
	s, err := email.NewSMTPSender(cfg)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func newRootCmd(a *app) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "winner-mailer <winners.csv>",
		Short: "Email raffle winners their prize details",
		Long: `Reads the winners CSV and the running total from raffle-tracker.html,
then emails every winner their prize details via Gmail SMTP.

Live sends need GMAIL_USER and GMAIL_APP_PASSWORD in the environment (or a .env
file). Use --dry-run to preview every email without sending anything.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.ExactArgs(1)(cmd, args); err != nil {
				return fmt.Errorf("%w: %v", errUsage, err)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd.Context(), args[0], dryRun)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "preview emails without sending")
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fmt.Errorf("%w: %v", errUsage, err)
	})

	return cmd
}

func (a *app) run(ctx context.Context, csvPath string, dryRun bool) error {
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}

	log := logger.NewWithWriter(a.errOut, cfg.Log.Level, cfg.Log.Format).WithRunID(uuid.NewString())
	log.Debug().Str("csv", csvPath).Bool("dry_run", dryRun).Msg("starting winner notification run")

	// Credentials are checked before any file is read so a live run fails fast
	var mailer mailDialer
	if !dryRun {
		mailer, err = a.newDialer(cfg.SMTP.Mailer())
		if err != nil {
			return err
		}
	}

	svc := service.NewNotificationService(cfg, a.out, log)

	fmt.Fprintf(a.out, "📂 Loading winners from: %s\n", csvPath)
	records, skipped, err := winners.Load(csvPath, winners.LoadOptions{SkipEmptyEmail: cfg.Winners.SkipEmptyEmail})
	if err != nil {
		return err
	}

	trackerPath := cfg.Tracker.Path
	if trackerPath == "" {
		trackerPath = tracker.DefaultPath(csvPath)
	}
	total, err := tracker.ExtractAmount(trackerPath)
	if err != nil {
		return err
	}

	svc.Overview(records, total)

	valid, skipped, err := svc.Eligible(records, skipped)
	if err != nil {
		return err
	}

	if dryRun {
		summary, err := svc.Preview(ctx, valid, total)
		summary.Skipped = skipped
		summary.Print(a.out)
		return err
	}

	ok, err := svc.Confirm(ctx, a.in, mailer.From(), len(valid))
	if err != nil || !ok {
		return err
	}

	session, err := mailer.Dial(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := session.Close(); cerr != nil {
			log.Warn().Err(cerr).Msg("failed to close smtp session")
		}
	}()
	log.Info().Str("from", mailer.From()).Int("recipients", len(valid)).Msg("smtp session open")

	summary, err := svc.Send(ctx, session, valid, total)
	summary.Skipped = skipped
	summary.Print(a.out)
	if err != nil {
		return err
	}

	if len(summary.Failed) > 0 {
		log.Warn().Int("failed", len(summary.Failed)).Msg("some winners were not emailed")
	}
	return nil
}

// execute runs the command and returns the process exit code.
func execute(ctx context.Context, a *app, args []string) int {
	if args == nil {
		// cobra falls back to os.Args for a nil slice
		args = []string{}
	}

	cmd := newRootCmd(a)
	cmd.SetArgs(args)
	cmd.SetIn(a.in)
	cmd.SetOut(a.out)
	cmd.SetErr(a.errOut)

	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(a.errOut, "❌ Error: %v\n", err)
		if hint := hintFor(err); hint != "" {
			fmt.Fprintf(a.errOut, "\n%s\n", hint)
		}
		return 1
	}
	return 0
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	go func() {
		// a second Ctrl-C terminates immediately
		<-ctx.Done()
		stop()
	}()

	code := execute(ctx, &app{
		in:         os.Stdin,
		out:        os.Stdout,
		errOut:     os.Stderr,
		loadConfig: config.Load,
		newDialer:  newSMTPDialer,
	}, os.Args[1:])

	stop()
	os.Exit(code)
}
