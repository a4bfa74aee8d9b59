package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type weaknessRepo struct {
	db *gorm.DB
}

func (r *weaknessRepo) Increment(ctx context.Context, userID uint, tag string, now time.Time) error {
	w := Weakness{
		UserID:          userID,
		Tag:             tag,
		OccurrenceCount: 1,
		FirstLoggedAt:   now,
		LastLoggedAt:    now,
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "tag"}},
		DoUpdates: clause.Assignments(map[string]any{
			"occurrence_count": gorm.Expr("occurrence_count + 1"),
			"last_logged_at":   now,
		}),
	}).Create(&w).Error
	if err != nil {
		return fmt.Errorf("increment weakness: %w", err)
	}
	return nil
}

func (r *weaknessRepo) ByUser(ctx context.Context, userID uint) ([]Weakness, error) {
	var out []Weakness
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("occurrence_count DESC, tag ASC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("query weaknesses: %w", err)
	}
	return out, nil
}
