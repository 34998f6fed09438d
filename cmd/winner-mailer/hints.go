package main

import (
	"context"
	"errors"

	"github.com/jubileepta/rafflemail/internal/email"
	"github.com/jubileepta/rafflemail/internal/service"
	"github.com/jubileepta/rafflemail/internal/tracker"
	"github.com/jubileepta/rafflemail/internal/winners"
)

// hintFor returns what the operator should do about a fatal error.
func hintFor(err error) string {
	switch {
	case errors.Is(err, errUsage):
		return "Usage: winner-mailer <winners.csv> [--dry-run]"
	case errors.Is(err, email.ErrAuthConfiguration):
		return `Set these environment variables:
  export GMAIL_USER='your-email@gmail.com'
  export GMAIL_APP_PASSWORD='your-app-password'

Or run with --dry-run to preview emails.`
	case errors.Is(err, email.ErrAuthentication):
		return "Gmail rejected the login. Check GMAIL_USER, and that GMAIL_APP_PASSWORD is an app password rather than the account password."
	case errors.Is(err, email.ErrSession):
		return "The SMTP session failed and no further emails could be sent. Re-run with a CSV of the winners not yet emailed."
	case errors.Is(err, winners.ErrConfiguration):
		return "Check the CSV path and that its header has: Prizes, Winning Ticket, Winner Name, Winner Email, Winner Phone."
	case errors.Is(err, tracker.ErrNotFound):
		return "Check that raffle-tracker.html exists (or set tracker.path) and contains a line like: const CURRENT_AMOUNT = 1234;"
	case errors.Is(err, service.ErrNoWinners):
		return "Check the CSV has at least one winner with a valid email address."
	case errors.Is(err, context.Canceled):
		return "Interrupted. The summary above lists who was emailed."
	default:
		return ""
	}
}
