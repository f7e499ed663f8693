// Package bahttext spells baht/satang amounts in Thai, as required on
// receipts and invoices (e.g. 2970.00 -> สองพันเก้าร้อยเจ็ดสิบบาทถ้วน).
package bahttext

import (
	"strings"

	"github.com/shopspring/decimal"
)

var digits = []string{"ศูนย์", "หนึ่ง", "สอง", "สาม", "สี่", "ห้า", "หก", "เจ็ด", "แปด", "เก้า"}
var units = []string{"", "สิบ", "ร้อย", "พัน", "หมื่น", "แสน"}

// Text spells an amount in baht and satang. Amounts are rounded to two
// decimals; whole-baht amounts end in ถ้วน.
func Text(amount decimal.Decimal) string {
	var b strings.Builder
	if amount.IsNegative() {
		b.WriteString("ลบ")
		amount = amount.Neg()
	}
	amount = amount.Round(2)
	baht := amount.IntPart()
	satang := amount.Sub(decimal.NewFromInt(baht)).Mul(decimal.NewFromInt(100)).IntPart()

	b.WriteString(spell(baht))
	b.WriteString("บาท")
	if satang == 0 {
		b.WriteString("ถ้วน")
	} else {
		b.WriteString(spell(satang))
		b.WriteString("สตางค์")
	}
	return b.String()
}

// FromFloat is a convenience wrapper for callers holding float64 totals.
func FromFloat(amount float64) string {
	return Text(decimal.NewFromFloat(amount))
}

// spell converts a non-negative integer to Thai positional spelling,
// recursing per million group.
func spell(n int64) string {
	if n == 0 {
		return digits[0]
	}
	return spellPart(n, false)
}

func spellPart(n int64, hasHigher bool) string {
	if n == 0 {
		return ""
	}
	if n >= 1_000_000 {
		head := spellPart(n/1_000_000, hasHigher)
		return head + "ล้าน" + spellPart(n%1_000_000, true)
	}

	var b strings.Builder
	multiDigit := hasHigher || n > 9
	for pos := 5; pos >= 0; pos-- {
		p := int64(1)
		for i := 0; i < pos; i++ {
			p *= 10
		}
		d := (n / p) % 10
		if d == 0 {
			continue
		}
		switch {
		case pos == 1 && d == 2:
			b.WriteString("ยี่สิบ")
		case pos == 1 && d == 1:
			b.WriteString("สิบ") // หนึ่ง elided at the tens position
		case pos == 0 && d == 1 && multiDigit:
			b.WriteString("เอ็ด")
		default:
			b.WriteString(digits[d])
			b.WriteString(units[pos])
		}
	}
	return b.String()
}
