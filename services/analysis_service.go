package services

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/schema"
	"github.com/yumi-nakamura/GharProject-sub000/config"
	"github.com/yumi-nakamura/GharProject-sub000/models"
	"github.com/yumi-nakamura/GharProject-sub000/utils"
	"gorm.io/gorm"
)

// AnalysisService AI健康分析流水线：
// 定位日志记录 → 构建提示词 → 调用视觉模型 → 解析响应 → 持久化。
// 模型调用只发起一次，失败分类后原样上抛，不在内部重试。
type AnalysisService struct {
	db       *gorm.DB
	client   *VisionClient
	resolver *EntryResolver
	store    *AnalysisStore
	cards    *CardStateManager
	timeout  time.Duration
	wg       sync.WaitGroup
}

func NewAnalysisService(db *gorm.DB, client *VisionClient, store *AnalysisStore, timeout time.Duration) *AnalysisService {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &AnalysisService{
		db:       db,
		client:   client,
		resolver: NewEntryResolver(db),
		store:    store,
		cards:    NewCardStateManager(),
		timeout:  timeout,
	}
}

// Cards 返回卡片状态管理器
func (s *AnalysisService) Cards() *CardStateManager {
	return s.cards
}

// Analyze 执行一次完整的照片健康分析。
// 持久化失败不掩盖分析结果：响应中 Saved 为 false 并附带说明，
// 由调用方通过保存接口单独重试。
func (s *AnalysisService) Analyze(ctx context.Context, uid string, req *models.AnalyzeRequest) (*models.AnalyzeResponse, error) {
	otayori, err := s.resolver.Resolve(ctx, uid, req)
	if err != nil {
		return nil, err
	}

	// 同一条记录同时只允许一次分析
	if err := s.cards.BeginAnalyze(otayori.ID); err != nil {
		return nil, err
	}
	s.wg.Add(1)
	defer s.wg.Done()

	if otayori.Type != req.AnalysisType {
		config.Logger.Warnw("分析类型与日志记录类型不一致",
			"otayoriID", otayori.ID,
			"otayoriType", otayori.Type,
			"analysisType", req.AnalysisType,
		)
	}

	petInfo := req.PetInfo
	if petInfo == nil {
		petInfo = s.loadPetInfo(ctx, otayori.PetID)
	}
	prompt := BuildAnalysisPrompt(req.AnalysisType, petInfo)

	raw, err := s.invokeModel(ctx, prompt, req)
	if err != nil {
		s.cards.FinishAnalyze(otayori.ID, false)
		return nil, err
	}

	record, err := ParseAnalysisResponse(raw, req, uid, otayori.PetID)
	if err != nil {
		// 原始响应只进服务端日志，不返回给调用方
		var unparsable *UnparsableResponseError
		if errors.As(err, &unparsable) {
			config.Logger.Errorw("AI响应解析失败",
				"otayoriID", otayori.ID,
				"rawResponse", unparsable.RawText,
			)
		}
		s.cards.FinishAnalyze(otayori.ID, false)
		return nil, err
	}
	s.cards.FinishAnalyze(otayori.ID, true)

	now := time.Now().UTC()
	if err := s.store.Insert(ctx, record, otayori.ID); err != nil {
		config.Logger.Errorw("分析结果保存失败",
			"error", err,
			"otayoriID", otayori.ID,
			"recordID", record.ID,
		)
		return &models.AnalyzeResponse{
			Success:  true,
			Analysis: record,
			Saved:    false,
			Error:    "分析已完成，但结果保存失败，可稍后重试保存",
			Details:  &models.AnalyzeResponseDetails{Timestamp: now},
		}, nil
	}

	if s.cards.BeginSave(otayori.ID) == nil {
		s.cards.FinishSave(otayori.ID, true)
	}

	return &models.AnalyzeResponse{
		Success:  true,
		Analysis: record,
		Saved:    true,
		Details:  &models.AnalyzeResponseDetails{Timestamp: now},
	}, nil
}

// SaveAnalysis 单独保存分析结果（自动保存失败后的重试路径）。
// 客户端提交的记录按不可信输入处理：数值范围必须和解析层一致，
// 关联的日志记录必须真实存在，不允许写入悬空关联。
func (s *AnalysisService) SaveAnalysis(ctx context.Context, uid string, req *models.SaveAnalysisRequest) (*models.AnalysisRecord, error) {
	if req.Analysis.HealthScore < 1 || req.Analysis.HealthScore > 10 {
		return nil, &ValidationError{Reason: "health_score 超出1-10范围"}
	}
	if req.Analysis.Confidence < 0 || req.Analysis.Confidence > 1 {
		return nil, &ValidationError{Reason: "confidence 超出0-1范围"}
	}
	if _, err := s.resolver.lookup(ctx, req.OtayoriID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &ValidationError{Reason: "关联的日志记录不存在"}
		}
		return nil, &ResolutionError{Err: err}
	}

	if err := s.cards.BeginSave(req.OtayoriID); err != nil {
		return nil, err
	}

	record := req.Analysis
	record.UserID = uid
	if record.ID == "" {
		record.ID = utils.GenerateID()
	}

	err := s.store.Insert(ctx, &record, req.OtayoriID)
	s.cards.FinishSave(req.OtayoriID, err == nil)
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// loadPetInfo 从宠物档案加载提示词用的宠物信息，查不到时返回nil
func (s *AnalysisService) loadPetInfo(ctx context.Context, petID string) *models.PetInfo {
	var pet models.Pet
	err := s.db.WithContext(ctx).Where("id = ? AND status = 0", petID).First(&pet).Error
	if err != nil {
		return nil
	}
	return PetInfoFromProfile(&pet, time.Now().UTC())
}

// invokeModel 发起一次模型调用并把失败归类为明确的错误种类。
// 超时按 ServiceError 上报；调用方取消返回 CancelledError。
func (s *AnalysisService) invokeModel(ctx context.Context, prompt string, req *models.AnalyzeRequest) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var imagePart llms.ContentPart
	if req.ImageData != "" {
		data, err := base64.StdEncoding.DecodeString(req.ImageData)
		if err != nil {
			return "", &ValidationError{Reason: "图片数据解码失败"}
		}
		mimeType := req.ImageMimeType
		if mimeType == "" {
			mimeType = "image/jpeg"
		}
		imagePart = llms.BinaryPart(mimeType, data)
	} else {
		imagePart = llms.ImageURLPart(req.ImageRef)
	}

	messages := []llms.MessageContent{
		{
			Role:  schema.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(prompt)},
		},
		{
			Role:  schema.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{imagePart},
		},
	}

	resp, err := s.client.Model.GenerateContent(callCtx, messages,
		llms.WithTemperature(0.0),
	)
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return "", &CancelledError{}
		}
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return "", &ServiceError{Err: fmt.Errorf("模型调用超时: %w", err)}
		}
		return "", classifyModelError(err, req.AnalysisType)
	}

	if len(resp.Choices) == 0 {
		return "", &EmptyResponseError{}
	}
	choice := resp.Choices[0]
	if choice.StopReason == "content_filter" {
		return "", &RefusalError{AnalysisType: req.AnalysisType}
	}

	content := strings.TrimSpace(choice.Content)
	if content == "" {
		return "", &EmptyResponseError{}
	}
	if isRefusalText(content) {
		return "", &RefusalError{AnalysisType: req.AnalysisType}
	}
	return content, nil
}

// Wait 等待所有进行中的分析完成（优雅关闭用）
func (s *AnalysisService) Wait() {
	s.wg.Wait()
}

// classifyModelError 按错误信息区分限流、策略拒绝和一般服务错误
func classifyModelError(err error, analysisType string) error {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "429") ||
		strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "quota"):
		return &RateLimitError{Message: "请求过于频繁，请稍后再试"}
	case strings.Contains(msg, "content_filter") ||
		strings.Contains(msg, "content policy") ||
		strings.Contains(msg, "content management policy") ||
		strings.Contains(msg, "safety"):
		return &RefusalError{AnalysisType: analysisType}
	default:
		return &ServiceError{Err: err}
	}
}

// isRefusalText 识别模型以自然语言表达的拒绝回复
func isRefusalText(content string) bool {
	if strings.HasPrefix(content, "{") {
		return false
	}
	lower := strings.ToLower(content)
	refusalMarkers := []string{
		"无法分析", "无法提供", "不能协助", "抱歉，我",
		"i can't", "i cannot", "i'm unable", "i am unable",
	}
	for _, marker := range refusalMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
