package payment

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"hosting-payments/internal/domain"
)

// ParseMinorUnits converts a provider decimal string such as "9.99" into
// minor units (999) without going through floating point.
func ParseMinorUnits(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty amount", domain.ErrInvalidArgument)
	}
	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" {
		whole = "0"
	}
	frac = strings.TrimRight(frac, "0")
	if len(frac) > 2 {
		return 0, fmt.Errorf("%w: amount %q has sub-minor precision", domain.ErrInvalidArgument, s)
	}
	frac += strings.Repeat("0", 2-len(frac))
	if !digitsOnly(whole) || !digitsOnly(frac) {
		return 0, fmt.Errorf("%w: amount %q", domain.ErrInvalidArgument, s)
	}

	w, err := strconv.ParseInt(whole, 10, 64)
	if err != nil || w < 0 {
		return 0, fmt.Errorf("%w: amount %q", domain.ErrInvalidArgument, s)
	}
	f, err := strconv.ParseInt(frac, 10, 64)
	if err != nil || f < 0 {
		return 0, fmt.Errorf("%w: amount %q", domain.ErrInvalidArgument, s)
	}
	if w > (math.MaxInt64-f)/100 {
		return 0, fmt.Errorf("%w: amount %q out of range", domain.ErrInvalidArgument, s)
	}
	return w*100 + f, nil
}

func digitsOnly(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// FormatMinorUnits renders minor units as a two-decimal major amount ("9.99").
func FormatMinorUnits(v int64) string {
	sign := ""
	if v < 0 {
		sign, v = "-", -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}
