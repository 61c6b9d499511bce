package repository

import (
	"gorm.io/gorm"

	"stress-guru-go/internal/model"
)

// AssessmentRepository 保存和查询已完成的评估。
type AssessmentRepository interface {
	Create(record *model.AssessmentRecord) error
	// ListByUser 按时间倒序返回用户的评估，scheme 为空时返回全部方案，limit <= 0 表示不限制。
	ListByUser(userID uint, scheme string, limit int) ([]model.AssessmentRecord, error)
}

type assessmentRepository struct {
	db *gorm.DB
}

func NewAssessmentRepository(db *gorm.DB) AssessmentRepository {
	return &assessmentRepository{db: db}
}

func (r *assessmentRepository) Create(record *model.AssessmentRecord) error {
	return r.db.Create(record).Error
}

func (r *assessmentRepository) ListByUser(userID uint, scheme string, limit int) ([]model.AssessmentRecord, error) {
	var records []model.AssessmentRecord
	q := r.db.Where("user_id = ?", userID)
	if scheme != "" {
		q = q.Where("scheme = ?", scheme)
	}
	q = q.Order("created_at DESC").Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}
