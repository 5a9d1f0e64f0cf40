package qris

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Top-level tags of the QRIS merchant presented mode payload used here.
const (
	TagPayloadFormat  = "00"
	TagInitiation     = "01"
	TagMerchantCode   = "52"
	TagCurrency       = "53"
	TagAmount         = "54"
	TagCountry        = "58"
	TagMerchantName   = "59"
	TagMerchantCity   = "60"
	TagAdditionalData = "62"
	TagCRC            = "63"
)

const (
	headerSize     = 4
	maxValueLength = 99
)

// Field is a single tag-length-value entry. The length is derived from
// Value whenever the field is encoded.
type Field struct {
	Tag   string
	Value string
}

// Len returns the encoded value length.
func (f Field) Len() int {
	return len(f.Value)
}

// Encode renders the field as tag + two-digit length + value.
func (f Field) Encode() (string, error) {
	if !isTwoDigits(f.Tag) {
		return "", errors.Wrapf(ErrMalformedPayload, "tag %q is not two digits", f.Tag)
	}
	if len(f.Value) > maxValueLength {
		return "", errors.Wrapf(ErrValueTooLong, "tag %s value has %d characters, max %d", f.Tag, len(f.Value), maxValueLength)
	}
	return f.Tag + lengthHeader(len(f.Value)) + f.Value, nil
}

// Location describes where a field sits inside a serialized payload.
type Location struct {
	Start      int
	Length     int
	ValueStart int
}

// End returns the offset one past the field's value.
func (l Location) End() int {
	return l.ValueStart + l.Length
}

// Payload is an ordered list of fields. Mutating methods return a new
// Payload and never touch the receiver.
type Payload []Field

// Parse walks raw from offset zero and splits it into fields. Any header
// that is not two digits, or a declared length that runs past the end of
// raw, fails with ErrMalformedPayload.
func Parse(raw string) (Payload, error) {
	if raw == "" {
		return nil, errors.Wrap(ErrMalformedPayload, "empty payload")
	}
	var out Payload
	offset := 0
	for offset < len(raw) {
		if len(raw)-offset < headerSize {
			return nil, errors.Wrapf(ErrMalformedPayload, "truncated field header at offset %d", offset)
		}
		tag := raw[offset : offset+2]
		if !isTwoDigits(tag) {
			return nil, errors.Wrapf(ErrMalformedPayload, "invalid tag %q at offset %d", tag, offset)
		}
		header := raw[offset+2 : offset+headerSize]
		if !isTwoDigits(header) {
			return nil, errors.Wrapf(ErrMalformedPayload, "invalid length %q for tag %s at offset %d", header, tag, offset)
		}
		length, _ := strconv.Atoi(header)
		valueStart := offset + headerSize
		if valueStart+length > len(raw) {
			return nil, errors.Wrapf(ErrMalformedPayload, "tag %s declares %d characters, only %d remain", tag, length, len(raw)-valueStart)
		}
		out = append(out, Field{Tag: tag, Value: raw[valueStart : valueStart+length]})
		offset = valueStart + length
	}
	return out, nil
}

// String serializes every field. Values longer than 99 characters cannot
// be produced through With or InsertBefore, so the result is always a
// well-formed payload for fields built by this package.
func (p Payload) String() string {
	var b strings.Builder
	for _, f := range p {
		b.WriteString(f.Tag)
		b.WriteString(lengthHeader(len(f.Value)))
		b.WriteString(f.Value)
	}
	return b.String()
}

// Index returns the position of the first field with tag, or -1.
func (p Payload) Index(tag string) int {
	for i, f := range p {
		if f.Tag == tag {
			return i
		}
	}
	return -1
}

// Get returns the value of the first field with tag.
func (p Payload) Get(tag string) (string, bool) {
	i := p.Index(tag)
	if i < 0 {
		return "", false
	}
	return p[i].Value, true
}

// Locate reports the offsets of tag within the serialized payload.
func (p Payload) Locate(tag string) (Location, error) {
	offset := 0
	for _, f := range p {
		if f.Tag == tag {
			return Location{Start: offset, Length: len(f.Value), ValueStart: offset + headerSize}, nil
		}
		offset += headerSize + len(f.Value)
	}
	return Location{}, errors.Wrapf(ErrMalformedPayload, "tag %s not found", tag)
}

// With returns a copy of p where the first field with tag carries value.
func (p Payload) With(tag, value string) (Payload, error) {
	i := p.Index(tag)
	if i < 0 {
		return nil, errors.Wrapf(ErrMalformedPayload, "tag %s not found", tag)
	}
	f := Field{Tag: tag, Value: value}
	if _, err := f.Encode(); err != nil {
		return nil, err
	}
	out := p.clone()
	out[i] = f
	return out, nil
}

// InsertBefore returns a copy of p with f placed ahead of the first field
// tagged before.
func (p Payload) InsertBefore(before string, f Field) (Payload, error) {
	i := p.Index(before)
	if i < 0 {
		return nil, errors.Wrapf(ErrMalformedPayload, "tag %s not found", before)
	}
	if _, err := f.Encode(); err != nil {
		return nil, err
	}
	out := make(Payload, 0, len(p)+1)
	out = append(out, p[:i]...)
	out = append(out, f)
	out = append(out, p[i:]...)
	return out, nil
}

// Without returns a copy of p with every field tagged tag removed.
func (p Payload) Without(tag string) Payload {
	out := make(Payload, 0, len(p))
	for _, f := range p {
		if f.Tag != tag {
			out = append(out, f)
		}
	}
	return out
}

func (p Payload) clone() Payload {
	out := make(Payload, len(p))
	copy(out, p)
	return out
}

// FindField locates tag inside a serialized payload.
func FindField(payload, tag string) (Location, error) {
	p, err := Parse(payload)
	if err != nil {
		return Location{}, err
	}
	return p.Locate(tag)
}

// ReplaceField sets the value of tag and returns the whole re-serialized
// payload. Every field after tag shifts by the change in value length.
func ReplaceField(payload, tag, value string) (string, error) {
	p, err := Parse(payload)
	if err != nil {
		return "", err
	}
	p, err = p.With(tag, value)
	if err != nil {
		return "", err
	}
	return p.String(), nil
}

// TruncateAt returns payload up to and including the tag and length header
// of tag, dropping its value and everything after it.
func TruncateAt(payload, tag string) (string, error) {
	loc, err := FindField(payload, tag)
	if err != nil {
		return "", err
	}
	return payload[:loc.ValueStart], nil
}

func lengthHeader(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}

func isTwoDigits(s string) bool {
	return len(s) == 2 && s[0] >= '0' && s[0] <= '9' && s[1] >= '0' && s[1] <= '9'
}
