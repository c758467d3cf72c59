package models

import "strings"

//go:generate go run ../cmd/gen_schema -type=AudioAnalysisResult -dir=. -out=../schemas/cached_schemas
//go:generate go run ../cmd/gen_schema -type=FoodAnalysisResult -dir=. -out=../schemas/cached_schemas

// AnalysisKind tags which feature produced an analysis.
type AnalysisKind string

const (
	AnalysisAudio AnalysisKind = "audio"
	AnalysisImage AnalysisKind = "image"
)

// AnalysisContext carries the per-request parameters attached to an analysis.
type AnalysisContext struct {
	SubjectAgeMonths int `json:"subject_age_months,omitempty"`
}

// AnalysisRequest is the transient input of one audio or image analysis.
type AnalysisRequest struct {
	Kind     AnalysisKind
	Payload  []byte
	MIMEType string
	Context  AnalysisContext
}

// AudioAnalysisResult is the structured interpretation of a recorded cry.
type AudioAnalysisResult struct {
	PrimaryCause string   `json:"reason" description:"Primary reason for crying (e.g., hunger, fatigue)"`
	Explanation  string   `json:"explanation" description:"Detailed explanation of the analysis"`
	AdviceSteps  []string `json:"advice" description:"Step-by-step soothing advice for parents"`
}

// FoodAnalysisResult is the structured food-safety verdict for a photo.
// RiskLevel stays a free string because the model does not always respect
// the enumeration; use Risk for the normalized value.
type FoodAnalysisResult struct {
	ItemName  string `json:"itemName" description:"Identified food item name"`
	IsSafe    bool   `json:"isSafe" description:"Whether it is safe for the specified age"`
	RiskLevel string `json:"riskLevel" description:"Risk level: Low, Medium, High"`
	Summary   string `json:"summary" description:"One-sentence summary of the advice"`
	Details   string `json:"details" description:"Detailed nutritional or risk analysis"`
}

// RiskLevel is the normalized risk tier of a food item.
type RiskLevel string

const (
	RiskLow     RiskLevel = "Low"
	RiskMedium  RiskLevel = "Medium"
	RiskHigh    RiskLevel = "High"
	RiskUnknown RiskLevel = "Unknown"
)

// ParseRiskLevel maps model output onto a RiskLevel, case-insensitively.
// Anything unrecognized is RiskUnknown.
func ParseRiskLevel(s string) RiskLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return RiskLow
	case "medium":
		return RiskMedium
	case "high":
		return RiskHigh
	default:
		return RiskUnknown
	}
}

// Risk returns the normalized risk tier.
func (r FoodAnalysisResult) Risk() RiskLevel {
	return ParseRiskLevel(r.RiskLevel)
}

// Verdict is the short label shown above a food result.
func (r FoodAnalysisResult) Verdict() string {
	if r.IsSafe {
		return "可以嘗試"
	}
	return "建議避免"
}

// RiskTreatment is how a risk tier is presented to the user.
type RiskTreatment struct {
	Level RiskLevel `json:"level"`
	Tone  string    `json:"tone"`
	Color string    `json:"color"`
	Icon  string    `json:"icon"`
}

var riskTreatments = map[RiskLevel]RiskTreatment{
	RiskLow:     {Level: RiskLow, Tone: "safe", Color: "green", Icon: "check-circle"},
	RiskMedium:  {Level: RiskMedium, Tone: "caution", Color: "yellow", Icon: "help-circle"},
	RiskHigh:    {Level: RiskHigh, Tone: "danger", Color: "red", Icon: "alert-circle"},
	RiskUnknown: {Level: RiskUnknown, Tone: "neutral", Color: "gray", Icon: "help-circle"},
}

// TreatmentFor returns the visual treatment of a risk tier. Unknown tiers get
// the neutral treatment.
func TreatmentFor(level RiskLevel) RiskTreatment {
	if t, ok := riskTreatments[level]; ok {
		return t
	}
	return riskTreatments[RiskUnknown]
}

// DefaultAgeMonths is the subject age preselected by the food lens.
const DefaultAgeMonths = 6

// AllowedAgeMonths lists the subject ages the food lens accepts.
var AllowedAgeMonths = []int{4, 5, 6, 7, 8, 9, 10, 11, 12, 18, 24}

// IsAllowedAge reports whether months is one of AllowedAgeMonths.
func IsAllowedAge(months int) bool {
	for _, m := range AllowedAgeMonths {
		if m == months {
			return true
		}
	}
	return false
}
