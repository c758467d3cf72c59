package controllers

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Desarso/babyzen/media"
	"github.com/Desarso/babyzen/models"
)

const hungryJSON = `{"reason":"肚子餓","explanation":"哭聲有節奏且越來越大聲","advice":["先餵奶","餵完記得拍嗝"]}`

func newCry(t *testing.T) (*harness, *media.StreamRecorder, *CryController) {
	h := newHarness(t)
	rec := media.NewStreamRecorder("audio/webm")
	c := NewCryController(h.deps, rec).WithTickInterval(0)
	c.Mount(context.Background())
	return h, rec, c
}

func TestFormatTimer(t *testing.T) {
	assert.Equal(t, "0:00", FormatTimer(0))
	assert.Equal(t, "0:03", FormatTimer(3))
	assert.Equal(t, "1:05", FormatTimer(65))
	assert.Equal(t, "10:00", FormatTimer(600))
	assert.Equal(t, "0:00", FormatTimer(-4))
}

func TestCryRecordAnalyzeReset(t *testing.T) {
	h, rec, c := newCry(t)
	var got models.AnalysisRequest
	h.assistant.audio = func(_ context.Context, req models.AnalysisRequest) (string, error) {
		got = req
		return hungryJSON, nil
	}

	assert.Equal(t, CryIdle, c.CrySnapshot().State)
	require.NoError(t, c.Start(context.Background()))
	assert.Equal(t, CryRecording, c.CrySnapshot().State)

	h.clock.Advance(3 * time.Second)
	snap := c.CrySnapshot()
	assert.Equal(t, 3, snap.TimerSeconds)
	assert.Equal(t, "0:03", snap.Timer)

	_, err := rec.Write([]byte("chunk-1"))
	require.NoError(t, err)
	_, err = rec.Write([]byte("chunk-2"))
	require.NoError(t, err)

	require.NoError(t, c.Stop(context.Background()))
	assert.False(t, rec.Recording(), "microphone released")
	assert.Equal(t, []byte("chunk-1chunk-2"), got.Payload)
	assert.Equal(t, "audio/webm", got.MIMEType)
	assert.Equal(t, models.AnalysisAudio, got.Kind)

	snap = c.CrySnapshot()
	assert.Equal(t, CryResultReady, snap.State)
	require.NotNil(t, snap.Result)
	assert.Equal(t, "肚子餓", snap.Result.PrimaryCause)
	assert.Equal(t, []string{"先餵奶", "餵完記得拍嗝"}, snap.Result.AdviceSteps)
	assert.Equal(t, 0, snap.TimerSeconds)

	saved := h.journal.savedAnalyses()
	require.Len(t, saved, 1)
	assert.True(t, saved[0].Valid)
	assert.Equal(t, "audio", saved[0].Kind)

	require.NoError(t, c.Reset())
	snap = c.CrySnapshot()
	assert.Equal(t, CryIdle, snap.State)
	assert.Equal(t, 0, snap.TimerSeconds)
	assert.Equal(t, "0:00", snap.Timer)
	assert.Nil(t, snap.Result)
}

func TestCryMicrophoneDenied(t *testing.T) {
	_, rec, c := newCry(t)
	rec.Deny("NotAllowedError")

	err := c.Start(context.Background())
	var captureErr *models.CaptureError
	require.ErrorAs(t, err, &captureErr)

	snap := c.CrySnapshot()
	assert.Equal(t, CryIdle, snap.State)
	assert.Equal(t, MicrophoneErrorText, snap.Error)
}

func TestCryRejectsWhileBusy(t *testing.T) {
	h, rec, c := newCry(t)
	g := newGate()
	h.assistant.audio = func(ctx context.Context, _ models.AnalysisRequest) (string, error) {
		g.wait(ctx)
		return hungryJSON, nil
	}

	require.NoError(t, c.Start(context.Background()))
	assert.ErrorIs(t, c.Start(context.Background()), models.ErrBusy)
	assert.ErrorIs(t, c.Reset(), models.ErrBusy)
	_, _ = rec.Write([]byte("pcm"))

	done := make(chan error, 1)
	go func() { done <- c.Stop(context.Background()) }()
	<-g.entered

	snap := c.CrySnapshot()
	assert.Equal(t, CryAnalyzing, snap.State)
	assert.True(t, snap.SubmitDisabled)
	assert.ErrorIs(t, c.Start(context.Background()), models.ErrBusy)
	assert.ErrorIs(t, c.Stop(context.Background()), ErrInvalidState)

	close(g.release)
	require.NoError(t, <-done)

	for _, s := range h.renderer.cryFrames() {
		assert.Equal(t, s.State == CryAnalyzing, s.SubmitDisabled)
	}
	assert.ErrorIs(t, c.Start(context.Background()), ErrInvalidState, "result must be reset first")
}

func TestCryAnalysisFailure(t *testing.T) {
	h, rec, c := newCry(t)
	h.assistant.audio = func(context.Context, models.AnalysisRequest) (string, error) {
		return "", &models.TransportError{Op: "analyze_audio", Err: errors.New("503")}
	}
	require.NoError(t, c.Start(context.Background()))
	_, _ = rec.Write([]byte("pcm"))

	err := c.Stop(context.Background())
	var transportErr *models.TransportError
	require.ErrorAs(t, err, &transportErr)

	snap := c.CrySnapshot()
	assert.Equal(t, CryIdle, snap.State)
	assert.Equal(t, CryAnalysisFailedText, snap.Error)
	assert.Nil(t, snap.Result)
	assert.Empty(t, h.journal.savedAnalyses())

	require.NoError(t, c.Start(context.Background()), "can record again")
	assert.Empty(t, c.CrySnapshot().Error)
}

func TestCryUnparseableResultRendersEmpty(t *testing.T) {
	h, rec, c := newCry(t)
	h.assistant.audio = func(context.Context, models.AnalysisRequest) (string, error) {
		return "寶寶可能是累了", nil
	}
	require.NoError(t, c.Start(context.Background()))
	_, _ = rec.Write([]byte("pcm"))
	require.NoError(t, c.Stop(context.Background()))

	snap := c.CrySnapshot()
	assert.Equal(t, CryResultReady, snap.State)
	require.NotNil(t, snap.Result)
	assert.Equal(t, models.AudioAnalysisResult{}, *snap.Result)

	saved := h.journal.savedAnalyses()
	require.Len(t, saved, 1)
	assert.False(t, saved[0].Valid)
}

func TestCryStopWithoutAudio(t *testing.T) {
	_, _, c := newCry(t)
	require.NoError(t, c.Start(context.Background()))
	err := c.Stop(context.Background())
	assert.ErrorIs(t, err, media.ErrEmptyCapture)
	assert.Equal(t, CryIdle, c.CrySnapshot().State)
}

func TestCryUnmountReleasesMicrophone(t *testing.T) {
	_, rec, c := newCry(t)
	require.NoError(t, c.Start(context.Background()))
	require.True(t, rec.Recording())

	c.Unmount()
	assert.False(t, rec.Recording())
}

func TestCryTickerRepublishesWhileRecording(t *testing.T) {
	h := newHarness(t)
	rec := media.NewStreamRecorder("")
	c := NewCryController(h.deps, rec).WithTickInterval(5 * time.Millisecond)
	require.NoError(t, c.Start(context.Background()))

	assert.Eventually(t, func() bool {
		return len(h.renderer.cryFrames()) >= 4
	}, time.Second, 5*time.Millisecond)

	c.Unmount()
	n := len(h.renderer.cryFrames())
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, n, len(h.renderer.cryFrames()), "ticker stops on unmount")
}

func TestCryBeginStopEntersAnalyzing(t *testing.T) {
	h, rec, c := newCry(t)
	h.assistant.audio = func(context.Context, models.AnalysisRequest) (string, error) {
		return hungryJSON, nil
	}
	require.NoError(t, c.Start(context.Background()))
	_, err := rec.Write([]byte("chunk"))
	require.NoError(t, err)

	pending, err := c.BeginStop()
	require.NoError(t, err)
	assert.False(t, rec.Recording(), "microphone released before the model call")
	snap := c.CrySnapshot()
	assert.Equal(t, CryAnalyzing, snap.State)
	assert.True(t, snap.SubmitDisabled)
	assert.ErrorIs(t, c.Reset(), models.ErrBusy)

	require.NoError(t, c.Finish(context.Background(), pending))
	assert.Equal(t, CryResultReady, c.CrySnapshot().State)
}

func TestCryUnmountWaitsForRender(t *testing.T) {
	h := newHarness(t)
	g := newGate()
	var stalled sync.Once
	h.deps.Renderer = RenderFunc(func(models.Route, any) {
		stalled.Do(func() { g.wait(context.Background()) })
	})
	c := NewCryController(h.deps, media.NewStreamRecorder("")).WithTickInterval(0)

	go func() { _ = c.Start(context.Background()) }()
	<-g.entered

	unmounted := make(chan struct{})
	go func() {
		c.Unmount()
		close(unmounted)
	}()
	select {
	case <-unmounted:
		t.Fatal("Unmount returned while a render was in progress")
	case <-time.After(20 * time.Millisecond):
	}
	close(g.release)
	<-unmounted
	assert.Equal(t, CryIdle, c.CrySnapshot().State)
}
