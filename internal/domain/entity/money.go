package entity

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseMinorUnits converts a decimal amount string to integer minor
// units (cents). Both '.' and ',' are accepted as the decimal
// separator. Fractions beyond two digits round half away from zero.
func ParseMinorUnits(amount string) (int64, error) {
	normalized := strings.ReplaceAll(strings.TrimSpace(amount), ",", ".")
	if !strings.ContainsAny(normalized, "0123456789") {
		return 0, fmt.Errorf("invalid amount %q: no digits", amount)
	}

	negative := strings.HasPrefix(normalized, "-")
	if negative {
		normalized = normalized[1:]
	}

	intPart, fracPart, _ := strings.Cut(normalized, ".")
	if strings.Contains(fracPart, ".") {
		return 0, fmt.Errorf("invalid amount %q: multiple decimal separators", amount)
	}
	if intPart == "" {
		intPart = "0"
	}

	units, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", amount, err)
	}

	var cents int64
	for i, ch := range fracPart {
		if ch < '0' || ch > '9' {
			return 0, fmt.Errorf("invalid amount %q: non-digit in fraction", amount)
		}
		switch i {
		case 0:
			cents += int64(ch-'0') * 10
		case 1:
			cents += int64(ch - '0')
		case 2:
			if ch >= '5' {
				cents++
			}
		}
	}

	minor := units*100 + cents
	if negative {
		minor = -minor
	}
	return minor, nil
}

// FormatMinorUnits renders integer minor units as a decimal string with
// exactly two fraction digits.
func FormatMinorUnits(amount int64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	return fmt.Sprintf("%s%d.%02d", sign, amount/100, amount%100)
}
