package services

import (
	"context"
	"time"

	"github.com/yumi-nakamura/GharProject-sub000/config"
	"github.com/yumi-nakamura/GharProject-sub000/models"
	"gorm.io/gorm"
)

// AnalysisStore 分析记录的持久化层。
// 历史分析记录只增不改，不做数据库级唯一约束；
// "待分析候选"的唯一性在读取时通过排除已分析ID实现。
type AnalysisStore struct {
	db         *gorm.DB
	exclusions ExclusionSet
}

func NewAnalysisStore(db *gorm.DB, exclusions ExclusionSet) *AnalysisStore {
	return &AnalysisStore{
		db:         db,
		exclusions: exclusions,
	}
}

// Insert 保存分析记录并关联日志ID。
// 同时把该日志ID移出重新进入候选的集合，保证保存后
// 同一会话内的候选查询立即观察到这次写入。
func (s *AnalysisStore) Insert(ctx context.Context, record *models.AnalysisRecord, otayoriID string) error {
	record.OtayoriID = &otayoriID
	if record.UpdatedAt.IsZero() {
		now := time.Now().UTC()
		record.CreatedAt = now
		record.UpdatedAt = now
	}

	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		return &PersistenceError{Err: err}
	}

	if err := s.exclusions.Remove(ctx, record.UserID, otayoriID); err != nil {
		// 排除集合清理失败不影响已保存的记录，只记录日志
		config.Logger.Warnw("清理候选排除集合失败",
			"error", err,
			"otayoriID", otayoriID,
		)
	}
	return nil
}

// Delete 删除分析记录并返回其关联的日志ID。
// 日志ID同时被加入重新进入候选的集合，同一会话内
// 该日志会重新出现在候选列表中。
func (s *AnalysisStore) Delete(ctx context.Context, uid, recordID string) (string, error) {
	var record models.AnalysisRecord
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", recordID, uid).
		First(&record).Error
	if err != nil {
		return "", err
	}

	if err := s.db.WithContext(ctx).Delete(&record).Error; err != nil {
		return "", &PersistenceError{Err: err}
	}

	otayoriID := ""
	if record.OtayoriID != nil {
		otayoriID = *record.OtayoriID
		if err := s.exclusions.Add(ctx, uid, otayoriID); err != nil {
			config.Logger.Errorw("更新候选排除集合失败",
				"error", err,
				"otayoriID", otayoriID,
			)
		}
	}
	return otayoriID, nil
}

// ListCandidates 返回可以发起新分析的日志记录：
// 有照片、类型匹配、且不在（已分析ID集合 - 重新进入集合）中。
func (s *AnalysisStore) ListCandidates(ctx context.Context, uid, petID, analysisType string, limit int) ([]models.OtayoriRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	readmitted, err := s.exclusions.Members(ctx, uid)
	if err != nil {
		return nil, err
	}

	analyzed := s.db.Model(&models.AnalysisRecord{}).
		Select("otayori_id").
		Where("otayori_id IS NOT NULL")

	query := s.db.WithContext(ctx).
		Where("pet_id = ? AND type = ? AND status = 0 AND photo_url <> ''", petID, analysisType)
	if len(readmitted) > 0 {
		query = query.Where(
			s.db.Where("id NOT IN (?)", analyzed).Or("id IN ?", readmitted),
		)
	} else {
		query = query.Where("id NOT IN (?)", analyzed)
	}

	var records []models.OtayoriRecord
	err = query.Order("record_date DESC").Limit(limit).Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

// ListHistory 返回分析历史（新→旧），附带关联的日志记录
func (s *AnalysisStore) ListHistory(ctx context.Context, uid, petID string, limit int) ([]models.AnalysisHistoryItem, error) {
	if limit <= 0 {
		limit = 50
	}

	var records []models.AnalysisRecord
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND pet_id = ?", uid, petID).
		Order("created_at DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, err
	}

	// 收集关联的日志ID并批量查询
	ids := make([]string, 0, len(records))
	for _, r := range records {
		if r.OtayoriID != nil {
			ids = append(ids, *r.OtayoriID)
		}
	}
	otayoriByID := make(map[string]models.OtayoriRecord, len(ids))
	if len(ids) > 0 {
		var otayori []models.OtayoriRecord
		if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&otayori).Error; err != nil {
			return nil, err
		}
		for _, o := range otayori {
			otayoriByID[o.ID] = o
		}
	}

	items := make([]models.AnalysisHistoryItem, 0, len(records))
	for _, r := range records {
		item := models.AnalysisHistoryItem{Analysis: r}
		if r.OtayoriID != nil {
			if o, ok := otayoriByID[*r.OtayoriID]; ok {
				item.Otayori = &o
			}
		}
		items = append(items, item)
	}
	return items, nil
}

// GetRecord 按ID查询分析记录，不存在时返回 gorm.ErrRecordNotFound
func (s *AnalysisStore) GetRecord(ctx context.Context, uid, recordID string) (*models.AnalysisRecord, error) {
	var record models.AnalysisRecord
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", recordID, uid).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}
