package stores

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/Desarso/babyzen/models"
)

var errNoConnection = errors.New("database connection is nil")

// gormJournal implements Journal on any gorm dialect. The driver specific
// stores only differ in how they open the connection.
type gormJournal struct {
	db *gorm.DB
}

func (s *gormJournal) migrate() error {
	if err := s.db.AutoMigrate(&Conversation{}, &Message{}, &Analysis{}); err != nil {
		return fmt.Errorf("failed to migrate database schema: %w", err)
	}
	return nil
}

// Close closes the database connection
func (s *gormJournal) Close() error {
	if s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping checks if the database connection is alive
func (s *gormJournal) Ping() error {
	if s.db == nil {
		return errNoConnection
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

func (s *gormJournal) SaveAnalysis(ctx context.Context, entry *Analysis) error {
	if s.db == nil {
		return errNoConnection
	}
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to create analysis record: %w", err)
	}
	return nil
}

// ListAnalyses returns the newest analyses first. An empty sessionID lists
// every session; limit 0 means no limit.
func (s *gormJournal) ListAnalyses(ctx context.Context, sessionID string, limit int) ([]Analysis, error) {
	if s.db == nil {
		return nil, errNoConnection
	}
	query := s.db.WithContext(ctx).Order("id DESC")
	if sessionID != "" {
		query = query.Where("session_id = ?", sessionID)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	var out []Analysis
	if err := query.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch analyses: %w", err)
	}
	return out, nil
}

// SaveMessage appends a chat turn, creating the conversation record on the
// first one.
func (s *gormJournal) SaveMessage(ctx context.Context, sessionID, conversationID string, msg models.ConversationMessage) error {
	if s.db == nil {
		return errNoConnection
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&Conversation{}).Where("conversation_id = ?", conversationID).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check conversation %s: %w", conversationID, err)
		}
		if count == 0 {
			conv := Conversation{ConversationID: conversationID, SessionID: sessionID}
			if err := tx.Create(&conv).Error; err != nil {
				return fmt.Errorf("failed to create conversation record: %w", err)
			}
		}

		if err := tx.Model(&Message{}).Where("conversation_id = ?", conversationID).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to count existing messages: %w", err)
		}
		seq := int(count) + 1

		record := Message{
			ConversationID: conversationID,
			MessageID:      msg.ID,
			Sequence:       seq,
			Role:           string(msg.Role),
			Text:           msg.Text,
			SentAt:         msg.CreatedAt,
		}
		if err := tx.Create(&record).Error; err != nil {
			return fmt.Errorf("failed to create message record: %w", err)
		}
		if err := tx.Model(&Conversation{}).Where("conversation_id = ?", conversationID).Update("message_count", seq).Error; err != nil {
			return fmt.Errorf("failed to update conversation message count: %w", err)
		}
		return nil
	})
}

// FetchTranscript returns messages in sequence order. limit > 0 keeps only
// the last limit messages.
func (s *gormJournal) FetchTranscript(ctx context.Context, conversationID string, limit int) ([]Message, error) {
	if s.db == nil {
		return nil, errNoConnection
	}
	db := s.db.WithContext(ctx)
	query := db.Where("conversation_id = ?", conversationID).Order("sequence ASC")
	if limit > 0 {
		var count int64
		if err := db.Model(&Message{}).Where("conversation_id = ?", conversationID).Count(&count).Error; err != nil {
			return nil, fmt.Errorf("failed to count messages: %w", err)
		}
		if count > int64(limit) {
			query = query.Offset(int(count) - limit)
		}
	}
	var msgs []Message
	if err := query.Find(&msgs).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}
	return msgs, nil
}
