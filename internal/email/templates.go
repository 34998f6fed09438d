package email

import (
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/jubileepta/rafflemail/internal/tracker"
	"github.com/jubileepta/rafflemail/internal/winners"
)

// Branding holds the fixed wording substituted into every winner email.
type Branding struct {
	FairName       string // e.g. "Jubilee Winter Fair"
	Cause          string // what the money is for
	ContactAddress string // where winners write to arrange collection
	CollectionNote string // how to pick the prize up in person
	ClaimBy        string // claim deadline, free text
	Signature      string
}

// DefaultBranding is the wording used when configuration does not override it.
func DefaultBranding() Branding {
	return Branding{
		FairName:       "Jubilee Winter Fair",
		Cause:          "the KS2 playground",
		ContactAddress: "raffle@jubileepta.org.uk",
		CollectionNote: "Pick it up at the Winter Fair (Friday 5th December)",
		ClaimBy:        "Friday 12th December",
		Signature:      "Jubilee Raffle Team",
	}
}

var extraBlankLines = regexp.MustCompile(`\n[ \t]*\n(?:[ \t]*\n)+`)

// Compose builds the congratulation email for one winner.
func Compose(rec winners.Record, total tracker.Amount, b Branding) Message {
	prize := rec.PrizeDetail()

	return Message{
		To:       rec.Email,
		ToName:   rec.Name,
		Subject:  WinnerSubject(b),
		TextBody: WinnerEmailText(rec, prize, total, b),
		HTMLBody: WinnerEmailHTML(rec, prize, total, b),
	}
}

// WinnerSubject returns the subject line shared by every winner email.
func WinnerSubject(b Branding) string {
	return fmt.Sprintf("🎉 You've won a prize in the %s Raffle!", b.FairName)
}

func greetingName(rec winners.Record) string {
	if first := rec.FirstName(); first != "" {
		return first
	}
	return "there"
}

// prizeLines are the indented detail lines under "Your prize".
func prizeLines(rec winners.Record, prize winners.Prize) [][2]string {
	var lines [][2]string
	if prize.Donor != "" && prize.Description != "" {
		lines = append(lines, [2]string{"From", prize.Donor})
	}
	if prize.Value != "" {
		lines = append(lines, [2]string{"Worth", prize.Value})
	}
	if rec.Ticket != "" {
		lines = append(lines, [2]string{"Winning ticket", rec.Ticket})
	}
	return lines
}

// WinnerEmailText returns the plain-text body for a winner email.
func WinnerEmailText(rec winners.Record, prize winners.Prize, total tracker.Amount, b Branding) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Hi %s,\n\n", greetingName(rec))
	sb.WriteString("Great news – you're a winner! 🎉\n\n")

	sb.WriteString("🎁 Your prize:\n")
	fmt.Fprintf(&sb, "    %s\n", prize.Headline())
	for _, l := range prizeLines(rec, prize) {
		fmt.Fprintf(&sb, "    %s: %s\n", l[0], l[1])
	}
	sb.WriteString("\n")

	sb.WriteString("This email is your proof of winning. To collect:\n")
	if b.CollectionNote != "" {
		fmt.Fprintf(&sb, "  • %s\n", b.CollectionNote)
	}
	fmt.Fprintf(&sb, "  • Or email %s to arrange collection\n\n", b.ContactAddress)

	if b.ClaimBy != "" {
		fmt.Fprintf(&sb, "Please claim by %s.\n\n", b.ClaimBy)
	}

	fmt.Fprintf(&sb, "Thanks for taking part – together we raised %s for %s!\n\n", total, b.Cause)
	fmt.Fprintf(&sb, "Best wishes,\n%s\n", b.Signature)

	return extraBlankLines.ReplaceAllString(sb.String(), "\n\n")
}

// WinnerEmailHTML returns the HTML alternative for a winner email.
func WinnerEmailHTML(rec winners.Record, prize winners.Prize, total tracker.Amount, b Branding) string {
	esc := html.EscapeString

	var details strings.Builder
	for _, l := range prizeLines(rec, prize) {
		fmt.Fprintf(&details, `
    <p style="margin:4px 0 0;font-size:14px;color:#4a4a68;">%s: <strong>%s</strong></p>`, esc(l[0]), esc(l[1]))
	}

	var collect strings.Builder
	if b.CollectionNote != "" {
		fmt.Fprintf(&collect, `
      <li>%s</li>`, esc(b.CollectionNote))
	}
	fmt.Fprintf(&collect, `
      <li>Or email <a href="mailto:%s">%s</a> to arrange collection</li>`, esc(b.ContactAddress), esc(b.ContactAddress))

	claim := ""
	if b.ClaimBy != "" {
		claim = fmt.Sprintf(`
    <p style="margin:0 0 16px;font-size:15px;color:#4a4a68;">Please claim by <strong>%s</strong>.</p>`, esc(b.ClaimBy))
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>%s</title>
</head>
<body style="margin:0;padding:0;font-family:-apple-system,BlinkMacSystemFont,'Segoe UI',Roboto,Helvetica,Arial,sans-serif;background-color:#f4f5f7;">
<table width="100%%" cellpadding="0" cellspacing="0" style="background-color:#f4f5f7;padding:40px 0;">
<tr><td align="center">
<table width="520" cellpadding="0" cellspacing="0" style="background-color:#ffffff;border-radius:8px;overflow:hidden;box-shadow:0 2px 8px rgba(0,0,0,0.08);">
  <tr><td style="padding:32px 40px 8px;">
    <p style="margin:0 0 16px;font-size:15px;color:#4a4a68;">Hi %s,</p>
    <h1 style="margin:0 0 24px;font-size:22px;color:#1a1a2e;">Great news &ndash; you're a winner! &#127881;</h1>
  </td></tr>
  <tr><td style="padding:0 40px;">
    <div style="background-color:#f0f0ff;border:2px dashed #6c63ff;border-radius:8px;padding:16px 24px;margin:0 0 24px;">
    <p style="margin:0;font-size:13px;color:#8888a0;">Your prize</p>
    <p style="margin:4px 0 0;font-size:18px;font-weight:bold;color:#1a1a2e;">%s</p>%s
    </div>
  </td></tr>
  <tr><td style="padding:0 40px;">
    <p style="margin:0 0 8px;font-size:15px;color:#4a4a68;">This email is your proof of winning. To collect:</p>
    <ul style="margin:0 0 16px;padding-left:20px;font-size:15px;color:#4a4a68;">%s
    </ul>%s
    <p style="margin:0 0 24px;font-size:15px;color:#4a4a68;">Thanks for taking part &ndash; together we raised <strong>%s</strong> for %s!</p>
  </td></tr>
  <tr><td style="padding:16px 40px;background-color:#f9f9fc;border-top:1px solid #eeeef2;">
    <p style="margin:0;font-size:13px;color:#4a4a68;">Best wishes,<br>%s</p>
  </td></tr>
</table>
</td></tr>
</table>
</body>
</html>`,
		esc(WinnerSubject(b)),
		esc(greetingName(rec)),
		esc(prize.Headline()), details.String(),
		collect.String(), claim,
		esc(total.String()), esc(b.Cause),
		esc(b.Signature),
	)
}
