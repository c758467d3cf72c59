package stores

import (
	"encoding/json"

	"github.com/Desarso/babyzen/models"
)

// NewAnalysis builds the journal entry of a finished analysis. parseErr is
// the decoding error, if the model output did not match the schema.
func NewAnalysis(sessionID string, req models.AnalysisRequest, result any, parseErr error) *Analysis {
	entry := &Analysis{
		SessionID:    sessionID,
		Kind:         string(req.Kind),
		MIMEType:     req.MIMEType,
		PayloadBytes: len(req.Payload),
		AgeMonths:    req.Context.SubjectAgeMonths,
		Valid:        parseErr == nil,
	}
	if parseErr != nil {
		entry.Error = parseErr.Error()
	}
	if data, err := json.Marshal(result); err == nil {
		entry.ResultJSON = string(data)
	}
	return entry
}

// ToResponse converts a journaled analysis for the history endpoint.
func (a Analysis) ToResponse() models.AnalysisResponse {
	resp := models.AnalysisResponse{
		ID:           a.ID,
		SessionID:    a.SessionID,
		Kind:         models.AnalysisKind(a.Kind),
		MIMEType:     a.MIMEType,
		PayloadBytes: a.PayloadBytes,
		AgeMonths:    a.AgeMonths,
		Valid:        a.Valid,
		Error:        a.Error,
		CreatedAt:    a.CreatedAt,
	}
	if json.Valid([]byte(a.ResultJSON)) {
		resp.Result = json.RawMessage(a.ResultJSON)
	}
	return resp
}
