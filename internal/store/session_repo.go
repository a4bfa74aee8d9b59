package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

type sessionRepo struct {
	db *gorm.DB
}

func (r *sessionRepo) Create(ctx context.Context, s *Session) error {
	if err := r.db.WithContext(ctx).Create(s).Error; err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

func (r *sessionRepo) Active(ctx context.Context, userID uint, flow FlowType) (*Session, error) {
	var s Session
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND flow_type = ? AND ended_at IS NULL", userID, flow).
		Order("started_at DESC").
		First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query active session: %w", err)
	}
	return &s, nil
}

func (r *sessionRepo) ActiveAny(ctx context.Context, userID uint) (*Session, error) {
	var s Session
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND ended_at IS NULL", userID).
		Order("started_at DESC").
		First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query active session: %w", err)
	}
	return &s, nil
}

func (r *sessionRepo) Update(ctx context.Context, s *Session) error {
	res := r.db.WithContext(ctx).Model(&Session{}).
		Where("id = ? AND version = ?", s.ID, s.Version).
		Updates(map[string]any{
			"state":           s.State,
			"ended_at":        s.EndedAt,
			"panic_level":     s.PanicLevel,
			"reason":          s.Reason,
			"pre_confidence":  s.PreConfidence,
			"post_confidence": s.PostConfidence,
			"exam_date":       s.ExamDate,
			"version":         s.Version + 1,
		})
	if res.Error != nil {
		return fmt.Errorf("update session: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrStaleSession
	}
	s.Version++
	return nil
}
