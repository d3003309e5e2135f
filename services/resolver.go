package services

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/yumi-nakamura/GharProject-sub000/config"
	"github.com/yumi-nakamura/GharProject-sub000/models"
	"github.com/yumi-nakamura/GharProject-sub000/utils"
	"gorm.io/gorm"
)

// PlaceholderContent 占位日志记录的固定内容标记
const PlaceholderContent = "AI分析自动生成的记录"

// 图片路径命名约定：otayori/<记录ID>/<文件名>
var photoPathPattern = regexp.MustCompile(`otayori/([0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12})/`)

// 旧版路径约定：otayori_photos/<记录ID>.<后缀> 或 otayori_photos/<记录ID>/
var legacyPhotoPathPattern = regexp.MustCompile(`otayori_photos/([0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12})[/.]`)

// ResolveStrategy 从分析请求中提取候选日志ID的命名策略。
// 策略按顺序尝试，提取结果在使用前都会经过存在性验证，
// 每个策略可独立测试和重排。
type ResolveStrategy struct {
	Name    string
	Extract func(req *models.AnalyzeRequest) string
}

// DefaultResolveStrategies 默认的策略链（按优先级排序）
func DefaultResolveStrategies() []ResolveStrategy {
	return []ResolveStrategy{
		{
			// 调用方显式指定的记录ID
			Name: "explicit_id",
			Extract: func(req *models.AnalyzeRequest) string {
				return req.OtayoriID
			},
		},
		{
			// 标准存储路径中内嵌的记录ID
			Name: "photo_path",
			Extract: func(req *models.AnalyzeRequest) string {
				m := photoPathPattern.FindStringSubmatch(req.ImageRef)
				if m == nil {
					return ""
				}
				return m[1]
			},
		},
		{
			// 旧版存储路径
			Name: "legacy_photo_path",
			Extract: func(req *models.AnalyzeRequest) string {
				m := legacyPhotoPathPattern.FindStringSubmatch(req.ImageRef)
				if m == nil {
					return ""
				}
				return m[1]
			},
		},
	}
}

// EntryResolver 将分析请求定位到唯一的日志记录，必要时创建占位记录。
type EntryResolver struct {
	db         *gorm.DB
	strategies []ResolveStrategy
}

func NewEntryResolver(db *gorm.DB) *EntryResolver {
	return &EntryResolver{
		db:         db,
		strategies: DefaultResolveStrategies(),
	}
}

// Resolve 返回本次分析对应的日志记录。
// 保证返回的记录在数据库中真实存在；所有策略均失败时创建占位记录，
// 仅当占位记录创建失败才返回 ResolutionError。
func (r *EntryResolver) Resolve(ctx context.Context, uid string, req *models.AnalyzeRequest) (*models.OtayoriRecord, error) {
	// 按策略链提取候选ID并验证存在性
	for _, s := range r.strategies {
		id := s.Extract(req)
		if id == "" {
			continue
		}
		record, err := r.lookup(ctx, id)
		if err == nil {
			config.Logger.Debugw("日志记录定位成功",
				"strategy", s.Name,
				"otayoriID", record.ID,
			)
			return record, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &ResolutionError{Err: err}
		}
		// 提取到的ID不存在，继续尝试下一个策略
	}

	// 按存储的照片路径精确匹配
	if req.ImageRef != "" {
		var record models.OtayoriRecord
		err := r.db.WithContext(ctx).
			Where("photo_url = ? AND user_id = ? AND status = 0", req.ImageRef, uid).
			Order("record_date DESC").
			First(&record).Error
		if err == nil {
			config.Logger.Debugw("日志记录定位成功",
				"strategy", "exact_photo_url",
				"otayoriID", record.ID,
			)
			return &record, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &ResolutionError{Err: err}
		}
	}

	return r.createPlaceholder(ctx, uid, req)
}

func (r *EntryResolver) lookup(ctx context.Context, id string) (*models.OtayoriRecord, error) {
	var record models.OtayoriRecord
	err := r.db.WithContext(ctx).Where("id = ? AND status = 0", id).First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// createPlaceholder 为无法定位的图片创建占位日志记录。
// 宠物归属取该用户最近更新的有效宠物，没有宠物档案时退回用户自身ID。
func (r *EntryResolver) createPlaceholder(ctx context.Context, uid string, req *models.AnalyzeRequest) (*models.OtayoriRecord, error) {
	petID := req.PetID
	if petID == "" {
		var pet models.Pet
		err := r.db.WithContext(ctx).
			Where("user_id = ? AND status = 0", uid).
			Order("last_modified DESC").
			First(&pet).Error
		switch {
		case err == nil:
			petID = pet.ID
		case errors.Is(err, gorm.ErrRecordNotFound):
			petID = uid
		default:
			return nil, &ResolutionError{Err: err}
		}
	}

	now := time.Now().UTC()
	record := models.OtayoriRecord{
		ID:           utils.GenerateID(),
		PetID:        petID,
		UserID:       uid,
		Type:         req.AnalysisType,
		Content:      PlaceholderContent,
		PhotoURL:     req.ImageRef,
		RecordDate:   now,
		LastModified: now,
	}
	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		return nil, &ResolutionError{Err: err}
	}

	config.Logger.Infow("创建占位日志记录",
		"otayoriID", record.ID,
		"petID", petID,
		"type", req.AnalysisType,
	)
	return &record, nil
}
