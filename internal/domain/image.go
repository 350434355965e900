package domain

import (
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"
)

// DefaultImageMIME is assumed when a payload carries no media type.
const DefaultImageMIME = "image/png"

var dataURLPrefix = regexp.MustCompile(`^data:([^;,]+)(;[^,]*)?,`)

// EmbeddedImage is an image in embedded-data form: a media type plus a
// base64 payload, rendered as data:<mime>;base64,<payload>.
type EmbeddedImage struct {
	MIMEType string
	Payload  string
}

// ParseDataURL splits a data URL into its media type and base64 payload. A
// bare base64 string is accepted and assumed to be DefaultImageMIME.
func ParseDataURL(raw string) (EmbeddedImage, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return EmbeddedImage{}, fmt.Errorf("%w: empty", ErrInvalidImage)
	}
	img := EmbeddedImage{MIMEType: DefaultImageMIME, Payload: raw}
	if strings.HasPrefix(raw, "data:") {
		m := dataURLPrefix.FindStringSubmatch(raw)
		if m == nil {
			return EmbeddedImage{}, fmt.Errorf("%w: malformed data url", ErrInvalidImage)
		}
		if !strings.Contains(m[2], "base64") {
			return EmbeddedImage{}, fmt.Errorf("%w: payload is not base64", ErrInvalidImage)
		}
		img.MIMEType = strings.ToLower(strings.TrimSpace(m[1]))
		img.Payload = raw[len(m[0]):]
	}
	if img.Payload == "" {
		return EmbeddedImage{}, fmt.Errorf("%w: empty payload", ErrInvalidImage)
	}
	if !strings.HasPrefix(img.MIMEType, "image/") {
		return EmbeddedImage{}, fmt.Errorf("%w: unsupported media type %q", ErrInvalidImage, img.MIMEType)
	}
	return img, nil
}

// Bytes decodes the payload.
func (e EmbeddedImage) Bytes() ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(e.Payload)
	if err != nil {
		return nil, fmt.Errorf("%w: decode payload: %w", ErrInvalidImage, err)
	}
	return data, nil
}

// String renders the data URL.
func (e EmbeddedImage) String() string {
	mime := e.MIMEType
	if mime == "" {
		mime = DefaultImageMIME
	}
	return "data:" + mime + ";base64," + e.Payload
}

// NewEmbeddedImage encodes raw bytes under the given media type.
func NewEmbeddedImage(mime string, data []byte) EmbeddedImage {
	return EmbeddedImage{MIMEType: mime, Payload: base64.StdEncoding.EncodeToString(data)}
}
