package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/tebogo/mathmate/internal/difficulty"
)

type questionRepo struct {
	db *gorm.DB
}

// lruOrder sorts never-served questions first, then oldest-served, with
// ties broken toward the least-served. The IS NULL expression works on both
// SQLite and Postgres; a bare ASC would sort nulls last on Postgres.
const lruOrder = "(last_served_at IS NULL) DESC, last_served_at ASC, times_served ASC, id ASC"

func (r *questionRepo) ByID(ctx context.Context, id uint) (*Question, error) {
	var q Question
	err := r.db.WithContext(ctx).Preload("Choices").
		Where("id = ? AND active", id).
		First(&q).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query question: %w", err)
	}
	return &q, nil
}

func (r *questionRepo) NextByTopic(ctx context.Context, topic string, band difficulty.Band, excludeIDs []uint) (*Question, error) {
	tx := r.db.WithContext(ctx).Preload("Choices").
		Where("topic = ? AND difficulty = ? AND active", topic, band)
	return r.first(tx, excludeIDs)
}

func (r *questionRepo) NextBySubject(ctx context.Context, subject string, band difficulty.Band, excludeIDs []uint) (*Question, error) {
	tx := r.db.WithContext(ctx).Preload("Choices").
		Where("subject = ? AND difficulty = ? AND active", subject, band)
	return r.first(tx, excludeIDs)
}

func (r *questionRepo) NextInSubject(ctx context.Context, subject string, excludeIDs []uint) (*Question, error) {
	tx := r.db.WithContext(ctx).Preload("Choices").
		Where("subject = ? AND active", subject)
	return r.first(tx, excludeIDs)
}

func (r *questionRepo) first(tx *gorm.DB, excludeIDs []uint) (*Question, error) {
	if len(excludeIDs) > 0 {
		tx = tx.Where("id NOT IN ?", excludeIDs)
	}
	var q Question
	err := tx.Order(lruOrder).First(&q).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query next question: %w", err)
	}
	return &q, nil
}

func (r *questionRepo) MarkServed(ctx context.Context, id uint, now time.Time) error {
	err := r.db.WithContext(ctx).Model(&Question{}).Where("id = ?", id).
		Updates(map[string]any{
			"times_served":   gorm.Expr("times_served + 1"),
			"last_served_at": now,
		}).Error
	if err != nil {
		return fmt.Errorf("mark served: %w", err)
	}
	return nil
}

func (r *questionRepo) RecordResult(ctx context.Context, id uint, correct bool) error {
	if !correct {
		return nil
	}
	err := r.db.WithContext(ctx).Model(&Question{}).Where("id = ?", id).
		Update("times_correct", gorm.Expr("times_correct + 1")).Error
	if err != nil {
		return fmt.Errorf("record result: %w", err)
	}
	return nil
}
