package winners

import (
	"regexp"
	"strconv"
	"strings"
)

// Prize is the best-effort breakdown of a "Prizes" cell such as
// "Basement 144 – 5-hour venue hire – £750".
type Prize struct {
	Donor       string
	Description string
	Value       string
	Amount      float64 // numeric part of Value, 0 when Value holds no £ figure
	Full        string
}

// Only an en-dash with whitespace on both sides separates parts, so
// hyphenated words like "5-hour" stay intact.
var (
	prizeSeparator = regexp.MustCompile(`\s+–\s+`)
	poundValue     = regexp.MustCompile(`£([\d,]+(?:\.\d{1,2})?)`)
)

// ParsePrize splits a prize string into donor, description and value.
// Missing parts are left empty; a string without separators becomes the
// description on its own.
func ParsePrize(s string) Prize {
	full := strings.TrimSpace(s)
	p := Prize{Full: full}

	parts := prizeSeparator.Split(full, -1)
	switch {
	case len(parts) >= 3:
		p.Donor = strings.TrimSpace(parts[0])
		p.Description = strings.TrimSpace(strings.Join(parts[1:len(parts)-1], " – "))
		p.Value = strings.TrimSpace(parts[len(parts)-1])
	case len(parts) == 2:
		p.Donor = strings.TrimSpace(parts[0])
		p.Value = strings.TrimSpace(parts[1])
	default:
		p.Description = full
	}

	if m := poundValue.FindStringSubmatch(p.Value); m != nil {
		if v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64); err == nil {
			p.Amount = v
		}
	}

	return p
}

// Headline is the short name of the prize shown to the winner.
func (p Prize) Headline() string {
	switch {
	case p.Description != "":
		return p.Description
	case p.Donor != "":
		return p.Donor
	default:
		return p.Full
	}
}
