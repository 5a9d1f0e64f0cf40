package render

import (
	"strings"

	"github.com/pkg/errors"
	qrcode "github.com/skip2/go-qrcode"
)

// ErrRender marks a failure to produce an image or document for an
// otherwise valid payload.
var ErrRender = errors.New("render failed")

// DefaultQRSize is the PNG edge length used when none is configured.
const DefaultQRSize = 256

// QRRenderer encodes payloads as PNG QR codes.
type QRRenderer struct {
	size  int
	level qrcode.RecoveryLevel
}

// NewQRRenderer builds a renderer. level is one of low, medium, high or
// highest; blank means medium.
func NewQRRenderer(size int, level string) (*QRRenderer, error) {
	if size <= 0 {
		size = DefaultQRSize
	}
	lvl, err := ParseRecoveryLevel(level)
	if err != nil {
		return nil, err
	}
	return &QRRenderer{size: size, level: lvl}, nil
}

// Render returns the PNG encoding of payload.
func (r *QRRenderer) Render(payload string) ([]byte, error) {
	if payload == "" {
		return nil, errors.Wrap(ErrRender, "payload is empty")
	}
	png, err := qrcode.Encode(payload, r.level, r.size)
	if err != nil {
		return nil, errors.Wrapf(ErrRender, "encode qr: %v", err)
	}
	return png, nil
}

// ParseRecoveryLevel maps a config value to a go-qrcode recovery level.
func ParseRecoveryLevel(level string) (qrcode.RecoveryLevel, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "low", "l":
		return qrcode.Low, nil
	case "", "medium", "m":
		return qrcode.Medium, nil
	case "high", "q":
		return qrcode.High, nil
	case "highest", "h":
		return qrcode.Highest, nil
	default:
		return qrcode.Medium, errors.Errorf("unknown qr recovery level %q", level)
	}
}
