package qris

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Mode selects how the amount is written into a payload. The payload itself
// carries no marker for this, so callers always declare it.
type Mode string

const (
	// ModeLegacy overwrites an existing 13-character amount field with a
	// zero-padded whole number. Payload length does not change.
	ModeLegacy Mode = "legacy"
	// ModeStrict replaces an existing amount field with a length-prefixed
	// decimal.
	ModeStrict Mode = "strict"
	// ModeStatic turns a static code into a dynamic one: tag 01 becomes 12
	// and an amount field is inserted ahead of the country code.
	ModeStatic Mode = "static"
)

const (
	initiationStatic  = "11"
	initiationDynamic = "12"
	crcValueLength    = 4
)

// ParseMode converts a config or request value into a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeLegacy:
		return ModeLegacy, nil
	case ModeStrict:
		return ModeStrict, nil
	case ModeStatic:
		return ModeStatic, nil
	default:
		return "", errors.Wrapf(ErrInvalidMode, "unknown mode %q (want legacy, strict or static)", s)
	}
}

// Rewrite embeds amount into raw according to mode and reseals the payload
// with a fresh checksum. The checksum already present in raw is discarded
// without being checked.
func Rewrite(raw string, amount decimal.Decimal, mode Mode) (string, error) {
	encoded, err := EncodeAmount(amount, mode)
	if err != nil {
		return "", err
	}
	p, err := Parse(raw)
	if err != nil {
		return "", err
	}

	switch mode {
	case ModeLegacy:
		current, ok := p.Get(TagAmount)
		if !ok {
			return "", errors.Wrap(ErrMalformedPayload, "amount field 54 not found")
		}
		if len(current) != LegacyAmountWidth {
			return "", errors.Wrapf(ErrMalformedPayload, "legacy amount field declares %d characters, want %d", len(current), LegacyAmountWidth)
		}
		p, err = p.With(TagAmount, encoded)
	case ModeStrict:
		if _, ok := p.Get(TagAmount); !ok {
			return "", errors.Wrap(ErrMalformedPayload, "amount field 54 not found")
		}
		p, err = p.With(TagAmount, encoded)
	case ModeStatic:
		p, err = makeDynamic(p, encoded)
	}
	if err != nil {
		return "", err
	}
	return Seal(p)
}

func makeDynamic(p Payload, encoded string) (Payload, error) {
	if _, ok := p.Get(TagAmount); ok {
		return nil, errors.Wrap(ErrMalformedPayload, "static code already carries an amount field")
	}
	initiation, ok := p.Get(TagInitiation)
	if !ok {
		return nil, errors.Wrap(ErrMalformedPayload, "point of initiation field 01 not found")
	}
	if initiation != initiationStatic && initiation != initiationDynamic {
		return nil, errors.Wrapf(ErrMalformedPayload, "point of initiation %q is not 11 or 12", initiation)
	}
	p, err := p.With(TagInitiation, initiationDynamic)
	if err != nil {
		return nil, err
	}
	return p.InsertBefore(TagCountry, Field{Tag: TagAmount, Value: encoded})
}

// Seal serializes p and replaces the value of its trailing tag 63 with the
// checksum of everything before it.
func Seal(p Payload) (string, error) {
	if err := checkCRCField(p); err != nil {
		return "", err
	}
	prefix, err := TruncateAt(p.String(), TagCRC)
	if err != nil {
		return "", err
	}
	return prefix + Checksum(prefix), nil
}

// Verify reports whether the trailing checksum of payload matches its
// content.
func Verify(payload string) error {
	p, err := Parse(payload)
	if err != nil {
		return err
	}
	if err := checkCRCField(p); err != nil {
		return err
	}
	split := len(payload) - crcValueLength
	want := Checksum(payload[:split])
	if got := strings.ToUpper(payload[split:]); got != want {
		return errors.Wrapf(ErrChecksumMismatch, "payload carries %s, computed %s", payload[split:], want)
	}
	return nil
}

func checkCRCField(p Payload) error {
	i := p.Index(TagCRC)
	if i < 0 {
		return errors.Wrap(ErrMalformedPayload, "checksum field 63 not found")
	}
	if i != len(p)-1 {
		return errors.Wrap(ErrMalformedPayload, "checksum field 63 is not the last field")
	}
	if n := len(p[i].Value); n != crcValueLength {
		return errors.Wrapf(ErrMalformedPayload, "checksum field 63 declares %d characters, want %d", n, crcValueLength)
	}
	return nil
}
