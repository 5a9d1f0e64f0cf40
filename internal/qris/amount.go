package qris

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

const (
	// LegacyAmountWidth is the fixed width of a legacy amount field.
	LegacyAmountWidth = 13
	// MaxAmountLength is the EMV budget for the transaction amount value.
	MaxAmountLength = 13

	maxFractionDigits = 2
)

// ParseAmount reads a caller-supplied amount. Blank input is ErrMissingInput;
// anything that is not a positive number with at most two fraction digits
// is ErrInvalidAmount.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, errors.Wrap(ErrMissingInput, "amount is required")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, errors.Wrapf(ErrInvalidAmount, "amount %q is not a number", s)
	}
	if err := checkAmount(d); err != nil {
		return decimal.Zero, err
	}
	return d, nil
}

func checkAmount(d decimal.Decimal) error {
	if !d.IsPositive() {
		return errors.Wrapf(ErrInvalidAmount, "amount %s must be greater than zero", d.String())
	}
	if !d.Equal(d.Truncate(maxFractionDigits)) {
		return errors.Wrapf(ErrInvalidAmount, "amount %s has more than %d fraction digits", d.String(), maxFractionDigits)
	}
	return nil
}

// EncodeAmount renders d the way mode stores it in tag 54.
func EncodeAmount(d decimal.Decimal, mode Mode) (string, error) {
	if err := checkAmount(d); err != nil {
		return "", err
	}
	var out string
	switch mode {
	case ModeLegacy:
		if !d.IsInteger() {
			return "", errors.Wrapf(ErrInvalidAmount, "legacy amount %s must be a whole number", d.String())
		}
		digits := d.StringFixed(0)
		if len(digits) > LegacyAmountWidth {
			return "", errors.Wrapf(ErrValueTooLong, "amount %s exceeds %d digits", digits, LegacyAmountWidth)
		}
		out = strings.Repeat("0", LegacyAmountWidth-len(digits)) + digits
	case ModeStrict, ModeStatic:
		if d.IsInteger() {
			out = d.StringFixed(0)
		} else {
			out = d.StringFixed(maxFractionDigits)
		}
	default:
		return "", errors.Wrapf(ErrInvalidMode, "mode %q", string(mode))
	}
	if len(out) > MaxAmountLength {
		return "", errors.Wrapf(ErrValueTooLong, "amount %s exceeds %d characters", out, MaxAmountLength)
	}
	return out, nil
}
