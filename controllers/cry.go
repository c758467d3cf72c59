package controllers

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Desarso/babyzen/media"
	"github.com/Desarso/babyzen/metrics"
	"github.com/Desarso/babyzen/models"
	"github.com/Desarso/babyzen/sanitizer"
	"github.com/Desarso/babyzen/stores"
)

const (
	MicrophoneErrorText   = "無法存取麥克風，請確認權限設定。"
	CryAnalysisFailedText = "分析失敗。請確認 API 金鑰正確，並嘗試更長的錄音。"
)

type CryState string

const (
	CryIdle        CryState = "idle"
	CryRecording   CryState = "recording"
	CryAnalyzing   CryState = "analyzing"
	CryResultReady CryState = "result_ready"
)

// CrySnapshot is what the cry analyzer screen renders.
type CrySnapshot struct {
	State          CryState                    `json:"state"`
	TimerSeconds   int                         `json:"timer_seconds"`
	Timer          string                      `json:"timer"`
	Result         *models.AudioAnalysisResult `json:"result,omitempty"`
	Error          string                      `json:"error,omitempty"`
	SubmitDisabled bool                        `json:"submit_disabled"`
}

// FormatTimer renders whole seconds as m:ss.
func FormatTimer(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

// CryController records a cry and asks the model what it means.
type CryController struct {
	deps     Deps
	recorder media.Recorder
	tick     time.Duration
	pub      sync.Mutex

	mu         sync.Mutex
	state      CryState
	startedAt  time.Time
	result     *models.AudioAnalysisResult
	errText    string
	stopTicker chan struct{}
	// generation changes on Unmount so late results are dropped.
	generation int
	closed     bool
}

// NewCryController binds the controller to the session's recorder.
func NewCryController(deps Deps, recorder media.Recorder) *CryController {
	deps = deps.withDefaults()
	deps.Logger = deps.Logger.With(zap.String("view", "cry"))
	return &CryController{
		deps:     deps,
		recorder: recorder,
		tick:     time.Second,
		state:    CryIdle,
	}
}

// WithTickInterval changes how often the timer is republished while
// recording. Zero disables the ticker.
func (c *CryController) WithTickInterval(d time.Duration) *CryController {
	c.tick = d
	return c
}

func (c *CryController) Route() models.Route { return models.RouteCryAnalyzer }

func (c *CryController) Mount(ctx context.Context) {
	c.publish()
}

// Unmount releases the microphone and drops any analysis in flight. Nothing
// renders once it returns.
func (c *CryController) Unmount() {
	c.pub.Lock()
	defer c.pub.Unlock()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.generation++
	c.stopTickerLocked()
	if c.state == CryRecording {
		c.recorder.Release()
	}
	c.state = CryIdle
	c.result = nil
}

// Start acquires the microphone and begins recording.
func (c *CryController) Start(ctx context.Context) error {
	c.mu.Lock()
	switch c.state {
	case CryRecording, CryAnalyzing:
		c.mu.Unlock()
		return models.ErrBusy
	case CryResultReady:
		c.mu.Unlock()
		return ErrInvalidState
	}

	if err := c.recorder.Start(ctx); err != nil {
		c.deps.Logger.Warn("microphone unavailable", zap.Error(err))
		c.errText = MicrophoneErrorText
		c.mu.Unlock()
		c.publish()
		return err
	}

	c.state = CryRecording
	c.startedAt = c.deps.Now()
	c.result = nil
	c.errText = ""
	c.startTickerLocked()
	metrics.Transition("cry", string(CryRecording))
	c.mu.Unlock()
	c.publish()
	return nil
}

// Stop finishes the recording and analyzes it. It blocks until the model
// answers.
func (c *CryController) Stop(ctx context.Context) error {
	p, err := c.BeginStop()
	if err != nil {
		return err
	}
	return c.Finish(ctx, p)
}

// BeginStop ends the recording, releases the microphone and enters the
// analyzing state. The model is called by Finish.
func (c *CryController) BeginStop() (PendingAnalysis, error) {
	c.mu.Lock()
	if c.state != CryRecording {
		c.mu.Unlock()
		return PendingAnalysis{}, ErrInvalidState
	}
	c.stopTickerLocked()
	blob, err := c.recorder.Stop()
	if err != nil {
		c.state = CryIdle
		c.errText = CryAnalysisFailedText
		if errors.Is(err, media.ErrEmptyCapture) {
			c.errText = MicrophoneErrorText
		}
		c.mu.Unlock()
		c.publish()
		return PendingAnalysis{}, err
	}
	c.state = CryAnalyzing
	p := PendingAnalysis{
		req:        blob.Request(models.AnalysisAudio, models.AnalysisContext{}),
		generation: c.generation,
	}
	metrics.Transition("cry", string(CryAnalyzing))
	c.mu.Unlock()

	c.publish()
	return p, nil
}

// Finish asks the model about the recording and shows the result, unless
// the view was left in the meantime.
func (c *CryController) Finish(ctx context.Context, p PendingAnalysis) error {
	raw, err := c.deps.Assistant.AnalyzeAudio(ctx, p.req)

	var (
		result   models.AudioAnalysisResult
		parseErr error
	)
	if err == nil {
		result, parseErr = sanitizer.DecodeAudio(raw)
		if parseErr != nil {
			c.deps.Logger.Warn("cry analysis did not match schema", zap.Error(parseErr))
		}
	}

	c.mu.Lock()
	if p.generation != c.generation {
		c.mu.Unlock()
		return nil
	}
	if err != nil {
		c.deps.Logger.Error("cry analysis failed", zap.Error(err))
		c.state = CryIdle
		c.errText = CryAnalysisFailedText
		metrics.Transition("cry", string(CryIdle))
		c.mu.Unlock()
		c.publish()
		return err
	}
	c.state = CryResultReady
	c.result = &result
	metrics.Transition("cry", string(CryResultReady))
	c.mu.Unlock()

	c.publish()
	c.deps.journalAnalysis(stores.NewAnalysis(c.deps.SessionID, p.req, result, parseErr))
	return nil
}

// Reset clears a shown result and zeroes the timer.
func (c *CryController) Reset() error {
	c.mu.Lock()
	switch c.state {
	case CryRecording, CryAnalyzing:
		c.mu.Unlock()
		return models.ErrBusy
	}
	c.state = CryIdle
	c.result = nil
	c.errText = ""
	metrics.Transition("cry", string(CryIdle))
	c.mu.Unlock()
	c.publish()
	return nil
}

func (c *CryController) startTickerLocked() {
	if c.tick <= 0 {
		return
	}
	stop := make(chan struct{})
	c.stopTicker = stop
	go func() {
		ticker := time.NewTicker(c.tick)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				c.mu.Lock()
				recording := c.state == CryRecording
				c.mu.Unlock()
				if recording {
					c.publish()
				}
			}
		}
	}()
}

func (c *CryController) stopTickerLocked() {
	if c.stopTicker != nil {
		close(c.stopTicker)
		c.stopTicker = nil
	}
}

func (c *CryController) Snapshot() any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// CrySnapshot is Snapshot with its concrete type.
func (c *CryController) CrySnapshot() CrySnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *CryController) snapshotLocked() CrySnapshot {
	seconds := 0
	if c.state == CryRecording {
		seconds = int(c.deps.Now().Sub(c.startedAt) / time.Second)
	}
	var result *models.AudioAnalysisResult
	if c.result != nil {
		r := *c.result
		r.AdviceSteps = append([]string(nil), c.result.AdviceSteps...)
		result = &r
	}
	return CrySnapshot{
		State:          c.state,
		TimerSeconds:   seconds,
		Timer:          FormatTimer(seconds),
		Result:         result,
		Error:          c.errText,
		SubmitDisabled: c.state == CryAnalyzing,
	}
}

// publish renders the state as it is now, one render at a time.
func (c *CryController) publish() {
	c.pub.Lock()
	defer c.pub.Unlock()
	c.mu.Lock()
	snap, closed := c.snapshotLocked(), c.closed
	c.mu.Unlock()
	if !closed {
		c.deps.Renderer.Render(models.RouteCryAnalyzer, snap)
	}
}
