// Package price converts between user-entered price strings and integer
// cent amounts.
package price

import (
	"fmt"
	"strconv"
	"strings"

	"auctions/internal/auctionerrors"
)

// Parse keeps only the digits of raw, drops leading zeros and returns the
// resulting integer. "$ 89.45" parses to 8945 and "0000" to 0. A string with
// no digits at all is an error, never zero.
func Parse(raw string) (int64, error) {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return 0, fmt.Errorf("%w: %q has no digits", auctionerrors.ErrInvalidPrice, raw)
	}

	digits := strings.TrimLeft(b.String(), "0")
	if digits == "" {
		return 0, nil
	}

	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q out of range", auctionerrors.ErrInvalidPrice, raw)
	}
	return n, nil
}

// ParsePositive is Parse restricted to amounts greater than zero.
func ParsePositive(raw string) (int64, error) {
	n, err := Parse(raw)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, fmt.Errorf("%w: must be greater than zero", auctionerrors.ErrInvalidPrice)
	}
	return n, nil
}

// Format renders an amount in cents for display, e.g. 758954 -> "$ 7,589.54".
func Format(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}

	whole := strconv.FormatInt(cents/100, 10)
	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}

	return fmt.Sprintf("%s$ %s.%02d", sign, b.String(), cents%100)
}
