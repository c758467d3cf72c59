// Package media normalizes captured audio and selected images into blobs the
// AI client can send inline.
package media

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/Desarso/babyzen/models"
)

// DefaultAudioMIMEType is assumed for audio captured without a declared type.
const DefaultAudioMIMEType = "audio/pcm;rate=16000"

const (
	// MaxImageBytes bounds a single selected image.
	MaxImageBytes = 10 << 20
	// MaxAudioBytes bounds one recording. Inline request data is capped at
	// 20MB by the Gemini API.
	MaxAudioBytes = 18 << 20
)

var (
	ErrNotImage     = errors.New("file is not an image")
	ErrTooLarge     = errors.New("file exceeds size limit")
	ErrEmptyCapture = errors.New("nothing was captured")
)

// Blob is an opaque binary payload with its MIME type.
type Blob struct {
	Data     []byte
	MIMEType string
}

// Len returns the payload size in bytes.
func (b Blob) Len() int { return len(b.Data) }

// Request wraps the blob into an AnalysisRequest of the given kind.
func (b Blob) Request(kind models.AnalysisKind, params models.AnalysisContext) models.AnalysisRequest {
	return models.AnalysisRequest{
		Kind:     kind,
		Payload:  b.Data,
		MIMEType: b.MIMEType,
		Context:  params,
	}
}

// ReadImage reads a selected image of at most limit bytes. The declared MIME
// type is used when it names an image; otherwise the type is sniffed from the
// content.
func ReadImage(r io.Reader, declared string, limit int64) (Blob, error) {
	if limit <= 0 {
		limit = MaxImageBytes
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return Blob{}, &models.CaptureError{Device: "camera", Err: fmt.Errorf("failed to read image: %w", err)}
	}
	if int64(len(data)) > limit {
		return Blob{}, &models.CaptureError{Device: "camera", Err: ErrTooLarge}
	}
	if len(data) == 0 {
		return Blob{}, &models.CaptureError{Device: "camera", Err: ErrEmptyCapture}
	}

	mimeType := imageType(declared)
	if mimeType == "" {
		mimeType = imageType(mimetype.Detect(data).String())
	}
	if mimeType == "" {
		return Blob{}, &models.CaptureError{Device: "camera", Err: ErrNotImage}
	}
	return Blob{Data: data, MIMEType: mimeType}, nil
}

// ReadAudio reads a complete audio recording of at most limit bytes.
func ReadAudio(r io.Reader, declared string, limit int64) (Blob, error) {
	if limit <= 0 {
		limit = MaxAudioBytes
	}
	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(r, limit+1))
	if err != nil {
		return Blob{}, &models.CaptureError{Device: "microphone", Err: fmt.Errorf("failed to read audio: %w", err)}
	}
	if n > limit {
		return Blob{}, &models.CaptureError{Device: "microphone", Err: ErrTooLarge}
	}
	if n == 0 {
		return Blob{}, &models.CaptureError{Device: "microphone", Err: ErrEmptyCapture}
	}
	return Blob{Data: buf.Bytes(), MIMEType: AudioType(declared)}, nil
}

// AudioType returns declared, or DefaultAudioMIMEType when it is blank or
// generic.
func AudioType(declared string) string {
	declared = strings.TrimSpace(declared)
	if declared == "" || declared == "application/octet-stream" {
		return DefaultAudioMIMEType
	}
	return declared
}

func imageType(v string) string {
	mediaType, _, err := mime.ParseMediaType(v)
	if err != nil || !strings.HasPrefix(mediaType, "image/") {
		return ""
	}
	return mediaType
}
