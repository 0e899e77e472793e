// Package currency defines the fixed set of currency codes accounts can be
// denominated in. The ledger performs no cross-currency operations, so the
// allow-list is deliberately small.
package currency

import (
	"errors"
	"strings"
)

// Code is a 3-letter ISO 4217 currency code.
type Code string

const (
	// USD is the United States dollar.
	USD Code = "USD"
	// INR is the Indian rupee.
	INR Code = "INR"
)

// ErrUnsupportedCurrency is returned when a currency code is not on the allow-list.
var ErrUnsupportedCurrency = errors.New("unsupported currency code")

var supported = map[Code]struct{}{
	USD: {},
	INR: {},
}

// String returns the code as a plain string.
func (c Code) String() string {
	return string(c)
}

// Supported reports whether the code is on the allow-list.
func (c Code) Supported() bool {
	_, ok := supported[c]
	return ok
}

// Parse normalizes a raw currency string and validates it against the allow-list.
func Parse(raw string) (Code, error) {
	c := Code(strings.ToUpper(strings.TrimSpace(raw)))
	if !c.Supported() {
		return "", ErrUnsupportedCurrency
	}
	return c, nil
}
