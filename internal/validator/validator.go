// Package validator checks decoded barcode strings against their symbology.
package validator

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupportedSymbology is returned for symbologies the validator does not know.
var ErrUnsupportedSymbology = errors.New("unsupported symbology")

// Result is the outcome of validating one decoded string.
type Result struct {
	ModifiedCode string
	Valid        bool
}

// Validator maps a raw decoded string to its normalized form and validity.
type Validator interface {
	Validate(code, symbology string) (Result, error)
}

// Func adapts a plain function to the Validator interface.
type Func func(code, symbology string) (Result, error)

func (f Func) Validate(code, symbology string) (Result, error) {
	return f(code, symbology)
}

// GTIN validates UPC-A, EAN-13 and EAN-8 codes by their check digit.
type GTIN struct{}

// NewGTIN returns the default check-digit validator.
func NewGTIN() *GTIN {
	return &GTIN{}
}

// Validate normalizes code for the symbology and verifies its check digit.
// "upc" accepts 12-digit UPC-A and EAN-13 with a leading zero, which is
// shortened to UPC-A. "ean13" widens UPC-A to 13 digits.
func (v *GTIN) Validate(code, symbology string) (Result, error) {
	code = strings.TrimSpace(code)

	switch strings.ToLower(symbology) {
	case "upc", "upc-a", "upca":
		if len(code) == 13 && code[0] == '0' {
			code = code[1:]
		}
		return Result{ModifiedCode: code, Valid: len(code) == 12 && checkDigitValid(code)}, nil
	case "ean13", "ean-13", "ean":
		if len(code) == 12 {
			code = "0" + code
		}
		return Result{ModifiedCode: code, Valid: len(code) == 13 && checkDigitValid(code)}, nil
	case "ean8", "ean-8":
		return Result{ModifiedCode: code, Valid: len(code) == 8 && checkDigitValid(code)}, nil
	default:
		return Result{ModifiedCode: code}, fmt.Errorf("%w: %q", ErrUnsupportedSymbology, symbology)
	}
}

// checkDigitValid applies the GS1 mod-10 check: weights 3,1,3,... from the
// digit left of the check digit.
func checkDigitValid(code string) bool {
	if len(code) < 2 {
		return false
	}
	sum := 0
	weight := 3
	for i := len(code) - 2; i >= 0; i-- {
		c := code[i]
		if c < '0' || c > '9' {
			return false
		}
		sum += int(c-'0') * weight
		weight = 4 - weight
	}
	last := code[len(code)-1]
	if last < '0' || last > '9' {
		return false
	}
	return (10-sum%10)%10 == int(last-'0')
}
