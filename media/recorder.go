package media

import (
	"bytes"
	"context"
	"errors"
	"sync"

	"github.com/Desarso/babyzen/models"
)

var (
	ErrDeviceBusy       = errors.New("microphone is already in use")
	ErrNotRecording     = errors.New("microphone is not recording")
	ErrPermissionDenied = errors.New("microphone permission denied")
)

// Recorder captures one audio recording at a time.
type Recorder interface {
	Start(ctx context.Context) error
	Stop() (Blob, error)
	Release()
}

// StreamRecorder accumulates audio chunks pushed by a remote microphone
// between Start and Stop. Acquisition is exclusive: a second Start before
// Stop or Release fails with ErrDeviceBusy.
type StreamRecorder struct {
	mu        sync.Mutex
	mimeType  string
	maxBytes  int
	buf       bytes.Buffer
	recording bool
	denied    error
}

// NewStreamRecorder creates an idle recorder that stamps captured audio with
// mimeType, or DefaultAudioMIMEType when blank.
func NewStreamRecorder(mimeType string) *StreamRecorder {
	return &StreamRecorder{
		mimeType: AudioType(mimeType),
		maxBytes: MaxAudioBytes,
	}
}

// SetMIMEType changes the type stamped on the next recording.
func (r *StreamRecorder) SetMIMEType(mimeType string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mimeType = AudioType(mimeType)
}

// Deny makes the next Start fail as if the user refused microphone access.
// Allow clears it.
func (r *StreamRecorder) Deny(reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if reason == "" {
		r.denied = ErrPermissionDenied
		return
	}
	r.denied = errors.Join(ErrPermissionDenied, errors.New(reason))
}

func (r *StreamRecorder) Allow() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.denied = nil
}

func (r *StreamRecorder) Start(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return &models.CaptureError{Device: "microphone", Err: err}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.denied != nil {
		return &models.CaptureError{Device: "microphone", Err: r.denied}
	}
	if r.recording {
		return &models.CaptureError{Device: "microphone", Err: ErrDeviceBusy}
	}
	r.buf.Reset()
	r.recording = true
	return nil
}

// Write appends one chunk of captured audio.
func (r *StreamRecorder) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.recording {
		return 0, ErrNotRecording
	}
	if r.buf.Len()+len(p) > r.maxBytes {
		return 0, ErrTooLarge
	}
	return r.buf.Write(p)
}

// Recording reports whether the device is currently held.
func (r *StreamRecorder) Recording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recording
}

// Stop finalizes the recording and releases the device.
func (r *StreamRecorder) Stop() (Blob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.recording {
		return Blob{}, &models.CaptureError{Device: "microphone", Err: ErrNotRecording}
	}
	r.recording = false
	data := bytes.Clone(r.buf.Bytes())
	r.buf.Reset()
	if len(data) == 0 {
		return Blob{}, &models.CaptureError{Device: "microphone", Err: ErrEmptyCapture}
	}
	return Blob{Data: data, MIMEType: r.mimeType}, nil
}

// Release drops the device and any buffered audio without producing a blob.
func (r *StreamRecorder) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recording = false
	r.buf.Reset()
}
