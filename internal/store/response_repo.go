package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

type responseRepo struct {
	db *gorm.DB
}

func (r *responseRepo) Insert(ctx context.Context, resp *Response) error {
	if err := r.db.WithContext(ctx).Create(resp).Error; err != nil {
		return fmt.Errorf("insert response: %w", err)
	}
	return nil
}

func (r *responseRepo) Stats(ctx context.Context, userID uint) (int, int, error) {
	var total, correct int64
	err := r.db.WithContext(ctx).Model(&Response{}).
		Where("user_id = ?", userID).
		Count(&total).Error
	if err != nil {
		return 0, 0, fmt.Errorf("count responses: %w", err)
	}
	err = r.db.WithContext(ctx).Model(&Response{}).
		Where("user_id = ? AND correct", userID).
		Count(&correct).Error
	if err != nil {
		return 0, 0, fmt.Errorf("count correct responses: %w", err)
	}
	return int(total), int(correct), nil
}
