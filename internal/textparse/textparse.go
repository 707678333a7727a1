// Package textparse extracts order fields from free-form chat text. It is a
// collaborator of the HTTP text intake, not of the pricing core: the core
// only ever sees already-extracted values.
package textparse

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var amountPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?m)(\d+(?:\.\d+)?)\s*บาท`),
	regexp.MustCompile(`(?m)^\s*(\d+(?:\.\d+)?)\s*$`),
	regexp.MustCompile(`ยอด\s*(\d+(?:\.\d+)?)`),
	regexp.MustCompile(`ราคา\s*(\d+(?:\.\d+)?)`),
}

var timePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(\d{1,2}):(\d{2})`),
	regexp.MustCompile(`(\d{1,2})\.(\d{2})`),
}

// Amount finds the first monetary amount in the text. Thousand separators
// are stripped before matching. The second return is false when no amount
// is present.
func Amount(text string) (decimal.Decimal, bool) {
	text = strings.ReplaceAll(text, ",", "")

	for _, p := range amountPatterns {
		if m := p.FindStringSubmatch(text); m != nil {
			amount, err := decimal.NewFromString(m[1])
			if err != nil {
				continue
			}
			return amount, true
		}
	}
	return decimal.Zero, false
}

// TimeOfDay finds the first HH:MM (or HH.MM) time in the text and returns
// it normalized to "HH:MM". The second return is false when no valid time
// is present.
func TimeOfDay(text string) (string, bool) {
	for _, p := range timePatterns {
		if m := p.FindStringSubmatch(text); m != nil {
			hour := atoi(m[1])
			minute := atoi(m[2])
			if hour > 23 || minute > 59 {
				continue
			}
			return fmt.Sprintf("%02d:%02d", hour, minute), true
		}
	}
	return "", false
}

// Description returns the first non-empty line of the text, the shop's
// convention for the product name.
func Description(text string) string {
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}

func atoi(s string) int {
	n := 0
	for _, r := range s {
		n = n*10 + int(r-'0')
	}
	return n
}
