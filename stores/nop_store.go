package stores

import (
	"context"

	"github.com/Desarso/babyzen/models"
)

// NopStore is the Journal used when journaling is disabled.
type NopStore struct{}

func (NopStore) SaveAnalysis(context.Context, *Analysis) error { return nil }

func (NopStore) ListAnalyses(context.Context, string, int) ([]Analysis, error) { return nil, nil }

func (NopStore) SaveMessage(context.Context, string, string, models.ConversationMessage) error {
	return nil
}

func (NopStore) FetchTranscript(context.Context, string, int) ([]Message, error) { return nil, nil }

func (NopStore) Ping() error  { return nil }
func (NopStore) Close() error { return nil }
