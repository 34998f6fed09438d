package winners

import (
	"fmt"
	"regexp"
	"strings"
)

var addressPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Endings that are almost always a mistyped domain, with the likely fix.
var typoEndings = []struct {
	typo, fix string
}{
	{".con", ".com"},
	{".cmo", ".com"},
	{".ocm", ".com"},
	{".co,", ".com"},
	{".cm", ".com"},
	{".cok", ".co.uk"},
	{".couk", ".co.uk"},
	{".co.ik", ".co.uk"},
	{"gmai.com", "gmail.com"},
	{"gmial.com", "gmail.com"},
	{"gmal.com", "gmail.com"},
	{"hotmal.com", "hotmail.com"},
	{"hotmai.com", "hotmail.com"},
}

// ValidateAddress checks that an email address looks deliverable and is not
// one of the common typos seen in hand-entered raffle sheets.
func ValidateAddress(address string) error {
	if address == "" {
		return fmt.Errorf("missing email")
	}

	if strings.Count(address, "@") > 1 {
		return fmt.Errorf("contains multiple @ symbols")
	}

	if !addressPattern.MatchString(address) {
		return fmt.Errorf("invalid email format")
	}

	lower := strings.ToLower(address)
	for _, t := range typoEndings {
		if strings.HasSuffix(lower, t.typo) {
			return fmt.Errorf("likely typo: %q should probably be %q", t.typo, t.fix)
		}
	}

	if strings.Contains(address, "..") {
		return fmt.Errorf("contains double dots")
	}

	return nil
}

// Partition splits records into those with a usable address and those that
// must be skipped, preserving order in both.
func Partition(records []Record) ([]Record, []Skipped) {
	valid := make([]Record, 0, len(records))
	var skipped []Skipped

	for _, r := range records {
		if err := ValidateAddress(r.Email); err != nil {
			skipped = append(skipped, Skipped{Record: r, Reason: err.Error()})
			continue
		}
		valid = append(valid, r)
	}

	return valid, skipped
}
