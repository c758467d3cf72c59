package media

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

var ErrMalformedDataURL = errors.New("malformed data URL")

// Encode returns the standard base64 form of the payload.
func Encode(b Blob) string {
	return base64.StdEncoding.EncodeToString(b.Data)
}

// Decode reverses Encode. It also accepts a data: URL, in which case the MIME
// type embedded in the URL wins over mimeType.
func Decode(s, mimeType string) (Blob, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "data:") {
		header, payload, ok := strings.Cut(s[len("data:"):], ",")
		if !ok || !strings.HasSuffix(header, ";base64") {
			return Blob{}, ErrMalformedDataURL
		}
		if t := strings.TrimSuffix(header, ";base64"); t != "" {
			mimeType = t
		}
		s = payload
	}

	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		// Browsers occasionally strip padding.
		var rawErr error
		data, rawErr = base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
		if rawErr != nil {
			return Blob{}, fmt.Errorf("failed to decode base64 payload: %w", err)
		}
	}
	return Blob{Data: data, MIMEType: mimeType}, nil
}

// DataURL renders the blob as a data: URL suitable for an image preview.
func DataURL(b Blob) string {
	if len(b.Data) == 0 {
		return ""
	}
	return "data:" + b.MIMEType + ";base64," + Encode(b)
}
