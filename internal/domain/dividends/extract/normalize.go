package extract

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var datePattern = regexp.MustCompile(`^(\d{2})\.(\d{2})\.(\d{4})$`)

// NormalizeAmount converts a locale-formatted amount string (comma decimal
// separator, period grouping) into a decimal value.
//
// When both separators appear the periods are grouping and the comma is the
// decimal point. A lone comma is a decimal point. A lone period is
// ambiguous in the observed statements; periodIsDecimal selects the
// reading, and the default engine options read it as a decimal point.
func NormalizeAmount(raw string, periodIsDecimal bool) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero, errors.New("empty amount")
	}

	hasComma := strings.Contains(s, ",")
	hasPeriod := strings.Contains(s, ".")

	switch {
	case hasComma && hasPeriod:
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	case hasComma:
		s = strings.ReplaceAll(s, ",", ".")
	case hasPeriod && !periodIsDecimal:
		s = strings.ReplaceAll(s, ".", "")
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("not a number: %w", err)
	}
	if d.IsNegative() {
		return decimal.Zero, errors.New("negative amount")
	}
	return d, nil
}

// NormalizeDate converts DD.MM.YYYY to YYYY-MM-DD. Day and month ranges are
// checked; no further calendar validation is done.
func NormalizeDate(raw string) (string, error) {
	m := datePattern.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return "", errors.New("not a DD.MM.YYYY date")
	}

	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])

	if day < 1 || day > 31 {
		return "", fmt.Errorf("day %d out of range", day)
	}
	if month < 1 || month > 12 {
		return "", fmt.Errorf("month %d out of range", month)
	}

	return fmt.Sprintf("%04d-%02d-%02d", year, month, day), nil
}
