package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

type userRepo struct {
	db *gorm.DB
}

func (r *userRepo) GetOrCreate(ctx context.Context, identity string, now time.Time) (*User, bool, error) {
	var u User
	err := r.db.WithContext(ctx).Where("identity = ?", identity).First(&u).Error
	if err == nil {
		return &u, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, fmt.Errorf("query user: %w", err)
	}

	u = User{
		Identity:     identity,
		SkillRate:    DefaultSkillRate,
		CurrentMenu:  "welcome",
		LastActiveAt: now,
	}
	// FirstOrCreate tolerates a concurrent first-contact race on the
	// identity unique index.
	if err := r.db.WithContext(ctx).Where("identity = ?", identity).FirstOrCreate(&u).Error; err != nil {
		return nil, false, fmt.Errorf("create user: %w", err)
	}
	return &u, true, nil
}

func (r *userRepo) ByIdentity(ctx context.Context, identity string) (*User, error) {
	var u User
	err := r.db.WithContext(ctx).Where("identity = ?", identity).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}
	return &u, nil
}

func (r *userRepo) Update(ctx context.Context, u *User) error {
	if err := r.db.WithContext(ctx).Save(u).Error; err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

func (r *userRepo) ClearFlowState(ctx context.Context, userID uint) error {
	err := r.db.WithContext(ctx).Model(&User{}).Where("id = ?", userID).
		Updates(map[string]any{
			"current_question_id": nil,
			"current_menu":        "welcome",
		}).Error
	if err != nil {
		return fmt.Errorf("clear flow state: %w", err)
	}
	return nil
}
