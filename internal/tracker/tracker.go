// Package tracker reads the running raffle total from the fundraising
// tracker page.
package tracker

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// FileName is the tracker page expected next to the raffle folder.
const FileName = "raffle-tracker.html"

// ErrNotFound is returned when the tracker page or its amount is missing.
var ErrNotFound = errors.New("raffle total not found")

var amountPattern = regexp.MustCompile(`(?:\b(?:const|let|var)\s+)?\bCURRENT_AMOUNT\s*=\s*(\d+(?:\.\d+)?)\s*;`)

var printer = message.NewPrinter(language.BritishEnglish)

// Amount is a sum of money in pounds.
type Amount float64

// String formats the amount as "£1,234", or "£1,234.50" when it has pence
// after rounding to the nearest penny.
func (a Amount) String() string {
	v := math.Round(float64(a)*100) / 100
	if v == math.Trunc(v) {
		return printer.Sprintf("£%d", int64(v))
	}
	return printer.Sprintf("£%.2f", v)
}

// DefaultPath is the tracker page in the parent of the winners CSV's directory.
func DefaultPath(csvPath string) string {
	dir := filepath.Dir(csvPath)
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	return filepath.Join(filepath.Dir(dir), FileName)
}

// ExtractAmount reads path and returns the first CURRENT_AMOUNT assignment.
func ExtractAmount(path string) (Amount, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrNotFound, err)
	}

	amount, err := ParseAmount(content)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", path, err)
	}
	return amount, nil
}

// ParseAmount finds `CURRENT_AMOUNT = <number>;` in content.
func ParseAmount(content []byte) (Amount, error) {
	m := amountPattern.FindSubmatch(content)
	if m == nil {
		return 0, fmt.Errorf("%w: no CURRENT_AMOUNT assignment", ErrNotFound)
	}

	v, err := strconv.ParseFloat(string(m[1]), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: bad CURRENT_AMOUNT %q: %v", ErrNotFound, m[1], err)
	}
	return Amount(v), nil
}
