// Package core holds the domain records and the ledger arithmetic.
//
// This file contains parsing of decimal amount strings into integer
// smallest-currency units. All stored amounts are integers; fractional
// handling exists only at the input boundary.
package core

import (
	"strconv"
	"strings"
	"unicode"
)

// ParseDecimalToUnits converts a decimal string to smallest currency
// units with half-up rounding on the third decimal place.
//
// It accepts both dot (12.34) and comma (12,34) separators and rejects
// signs, zero, and malformed input. Signing is the caller's job: amounts
// entering the ledger are always unsigned and positive.
//
// Examples:
//
//	ParseDecimalToUnits("12.34") -> 1234, nil
//	ParseDecimalToUnits("12,34") -> 1234, nil
//	ParseDecimalToUnits("12.345") -> 1234, nil (rounds down)
//	ParseDecimalToUnits("12.346") -> 1235, nil (rounds up)
func ParseDecimalToUnits(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		// Only unsigned values allowed
		return 0, ErrInvalidAmount
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	for _, r := range fracPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	// Prevent overflow when multiplying by 100
	const maxSafeInt64 = (1<<63 - 1) / 100
	if iv > maxSafeInt64 {
		return 0, ErrInvalidAmount
	}
	// Take first two fractional digits; then half-up rounding on third
	var fracUnits int64 = 0
	if len(fracPart) > 0 {
		d1 := int64(fracPart[0] - '0')
		fracUnits = d1 * 10
		if len(fracPart) > 1 {
			d2 := int64(fracPart[1] - '0')
			fracUnits += d2
			if len(fracPart) > 2 {
				if fracPart[2] >= '5' {
					fracUnits++
				}
			}
		}
	}
	units := iv*100 + fracUnits
	if units <= 0 {
		return 0, ErrInvalidAmount
	}
	return units, nil
}
