// Package classifier decides product category flags for an order from its
// free-form description. It owns no state; keyword sets mirror the shop's
// product catalog (Thai and English spellings).
package classifier

import (
	"strings"

	"github.com/shopspring/decimal"
)

var (
	premiumKeywords    = []string{"ฟาแลน", "faland", "ฟาแลนด์"}
	carveOutKeywords   = []string{"ikebana curve", "curve"}
	flowerOnlyKeywords = []string{"ดอกไม้อย่างเดียว", "ชุดดอกไม้", "ikebana", "จัดเอง"}
	fragranceKeywords  = []string{"น้ำหอม", "perfume"}
	vaseKeywords       = []string{"แจกัน", "vase", "เวส"}
	miniVaseKeywords   = []string{"mini vase", "minivase", "มินิเวส"}
)

// SpecialRate is the flat rate applied to special products instead of the
// tiered base rate.
var SpecialRate = decimal.RequireFromString("0.05")

// MinFlowerOnlyPrice is the price floor for flowers-only sets to qualify as
// special.
var MinFlowerOnlyPrice = decimal.NewFromInt(8000)

var (
	minVasePrice      = decimal.NewFromInt(4500)
	vaseAddOnCutover  = decimal.NewFromInt(9500)
	vaseAddOnStandard = decimal.NewFromInt(500)
	vaseAddOnReduced  = decimal.NewFromInt(300)
)

// Result carries the category flags for one order.
type Result struct {
	IsSpecialProduct       bool
	CountsTowardOrderTotal bool
	VaseCount              int
}

// Classify evaluates the ordered special-product rules (first match wins)
// and the order-count exclusion against the description, and counts vase
// lines in the raw order text.
func Classify(description string, amount decimal.Decimal, rawOrderText string) Result {
	desc := strings.ToLower(description)

	premium := matchAny(desc, premiumKeywords)
	carveOut := matchAny(desc, carveOutKeywords)
	flowerOnly := matchAny(desc, flowerOnlyKeywords)

	special := false
	switch {
	case premium && !carveOut:
		special = true
	case carveOut:
		special = true
	case flowerOnly && amount.GreaterThanOrEqual(MinFlowerOnlyPrice):
		special = true
	}

	return Result{
		IsSpecialProduct:       special,
		CountsTowardOrderTotal: !matchAny(desc, fragranceKeywords),
		VaseCount:              CountVaseLines(rawOrderText),
	}
}

// CountVaseLines counts lines in the order text that mention a vase and are
// not a mini vase. It is a line count, not a numeral parse: a single line
// saying "3 vases" still counts as one.
func CountVaseLines(text string) int {
	if text == "" {
		return 0
	}

	count := 0
	for _, line := range strings.Split(text, "\n") {
		line = strings.ToLower(line)
		if matchAny(line, vaseKeywords) && !matchAny(line, miniVaseKeywords) {
			count++
		}
	}
	return count
}

// VaseAddOn returns the flat bonus for an order with the given vase line
// count: two or more vases above the price floor pay 500, or 300 once the
// order exceeds the cutover price. Exactly at the cutover still pays 500.
func VaseAddOn(vaseCount int, amount decimal.Decimal) decimal.Decimal {
	if vaseCount < 2 || amount.LessThan(minVasePrice) {
		return decimal.Zero
	}
	if amount.GreaterThan(vaseAddOnCutover) {
		return vaseAddOnReduced
	}
	return vaseAddOnStandard
}

func matchAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
