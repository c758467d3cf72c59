package controllers

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/Desarso/babyzen/media"
	"github.com/Desarso/babyzen/metrics"
	"github.com/Desarso/babyzen/models"
	"github.com/Desarso/babyzen/sanitizer"
	"github.com/Desarso/babyzen/stores"
)

const (
	FoodAnalysisFailedText = "辨識失敗，請確認 API 金鑰是否有效，或嘗試換一張更清晰的照片。"
	FoodDisclaimer         = "* AI 建議僅供參考，請隨時觀察寶寶實際過敏反應。"
)

type FoodState string

const (
	FoodEmpty       FoodState = "empty"
	FoodPreviewing  FoodState = "previewing"
	FoodAnalyzing   FoodState = "analyzing"
	FoodResultReady FoodState = "result_ready"
)

// FoodSnapshot is what the food lens screen renders.
type FoodSnapshot struct {
	State          FoodState                  `json:"state"`
	AgeMonths      int                        `json:"age_months"`
	AllowedAges    []int                      `json:"allowed_ages"`
	Preview        string                     `json:"preview,omitempty"`
	Result         *models.FoodAnalysisResult `json:"result,omitempty"`
	Verdict        string                     `json:"verdict,omitempty"`
	Treatment      *models.RiskTreatment      `json:"treatment,omitempty"`
	Disclaimer     string                     `json:"disclaimer,omitempty"`
	Error          string                     `json:"error,omitempty"`
	SubmitDisabled bool                       `json:"submit_disabled"`
}

// FoodController checks whether a photographed food suits the baby's age.
type FoodController struct {
	deps Deps
	pub  sync.Mutex

	mu        sync.Mutex
	state     FoodState
	ageMonths int
	preview   string
	result    *models.FoodAnalysisResult
	errText   string
	// generation changes on every Select, Clear and Unmount; a result is
	// only applied if the generation it started under is still current.
	generation int
	closed     bool
}

func NewFoodController(deps Deps) *FoodController {
	deps = deps.withDefaults()
	deps.Logger = deps.Logger.With(zap.String("view", "food"))
	return &FoodController{
		deps:      deps,
		state:     FoodEmpty,
		ageMonths: models.DefaultAgeMonths,
	}
}

func (c *FoodController) Route() models.Route { return models.RouteFoodLens }

func (c *FoodController) Mount(ctx context.Context) {
	c.publish()
}

// Unmount drops the image and any analysis in flight. Nothing renders once
// it returns.
func (c *FoodController) Unmount() {
	c.pub.Lock()
	defer c.pub.Unlock()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.generation++
	c.state = FoodEmpty
	c.preview = ""
	c.result = nil
}

// SetAge picks the subject age used by the next analysis.
func (c *FoodController) SetAge(months int) error {
	c.mu.Lock()
	if c.state == FoodAnalyzing {
		c.mu.Unlock()
		return models.ErrBusy
	}
	if !models.IsAllowedAge(months) {
		c.mu.Unlock()
		return ErrInvalidAge
	}
	c.ageMonths = months
	c.mu.Unlock()
	c.publish()
	return nil
}

// Select shows the image and analyzes it. The preview is published before the
// model is called. Select blocks until the model answers.
func (c *FoodController) Select(ctx context.Context, blob media.Blob) error {
	p, err := c.BeginSelect(blob)
	if err != nil {
		return err
	}
	return c.Finish(ctx, p)
}

// BeginSelect shows the image and enters the analyzing state. A Clear after
// it discards the analysis that Finish runs.
func (c *FoodController) BeginSelect(blob media.Blob) (PendingAnalysis, error) {
	c.mu.Lock()
	if c.state == FoodAnalyzing {
		c.mu.Unlock()
		return PendingAnalysis{}, models.ErrBusy
	}
	c.generation++
	gen := c.generation
	c.preview = media.DataURL(blob)
	c.result = nil
	c.errText = ""
	c.state = FoodPreviewing
	c.mu.Unlock()
	c.publish()

	c.mu.Lock()
	p := PendingAnalysis{
		req:        blob.Request(models.AnalysisImage, models.AnalysisContext{SubjectAgeMonths: c.ageMonths}),
		generation: gen,
	}
	if gen == c.generation {
		c.state = FoodAnalyzing
		metrics.Transition("food", string(FoodAnalyzing))
	}
	c.mu.Unlock()
	c.publish()
	return p, nil
}

// Finish asks the model about the image and shows the verdict, unless the
// image was cleared or replaced in the meantime.
func (c *FoodController) Finish(ctx context.Context, p PendingAnalysis) error {
	raw, err := c.deps.Assistant.AnalyzeImage(ctx, p.req)

	var (
		result   models.FoodAnalysisResult
		parseErr error
	)
	if err == nil {
		result, parseErr = sanitizer.DecodeFood(raw)
		if parseErr != nil {
			c.deps.Logger.Warn("food analysis did not match schema", zap.Error(parseErr))
		}
	}

	c.mu.Lock()
	if p.generation != c.generation {
		c.mu.Unlock()
		c.deps.Logger.Debug("discarding stale food analysis")
		return nil
	}
	if err != nil {
		c.deps.Logger.Error("food analysis failed", zap.Error(err))
		c.state = FoodPreviewing
		c.errText = FoodAnalysisFailedText
		metrics.Transition("food", string(FoodPreviewing))
		c.mu.Unlock()
		c.publish()
		return err
	}
	c.state = FoodResultReady
	c.result = &result
	metrics.Transition("food", string(FoodResultReady))
	c.mu.Unlock()

	c.publish()
	c.deps.journalAnalysis(stores.NewAnalysis(c.deps.SessionID, p.req, result, parseErr))
	return nil
}

// Clear drops the image and any result, including one still in flight.
func (c *FoodController) Clear() {
	c.mu.Lock()
	c.generation++
	c.state = FoodEmpty
	c.preview = ""
	c.result = nil
	c.errText = ""
	metrics.Transition("food", string(FoodEmpty))
	c.mu.Unlock()
	c.publish()
}

func (c *FoodController) Snapshot() any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// FoodSnapshot is Snapshot with its concrete type.
func (c *FoodController) FoodSnapshot() FoodSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *FoodController) snapshotLocked() FoodSnapshot {
	snap := FoodSnapshot{
		State:          c.state,
		AgeMonths:      c.ageMonths,
		AllowedAges:    append([]int(nil), models.AllowedAgeMonths...),
		Preview:        c.preview,
		Error:          c.errText,
		SubmitDisabled: c.state == FoodAnalyzing,
	}
	if c.result != nil {
		r := *c.result
		t := models.TreatmentFor(r.Risk())
		snap.Result = &r
		snap.Verdict = r.Verdict()
		snap.Treatment = &t
		snap.Disclaimer = FoodDisclaimer
	}
	return snap
}

// publish renders the state as it is now, one render at a time.
func (c *FoodController) publish() {
	c.pub.Lock()
	defer c.pub.Unlock()
	c.mu.Lock()
	snap, closed := c.snapshotLocked(), c.closed
	c.mu.Unlock()
	if !closed {
		c.deps.Renderer.Render(models.RouteFoodLens, snap)
	}
}
