package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/schema"
	"github.com/yumi-nakamura/GharProject-sub000/models"
)

// stubModel 测试用的模型替身，按预设内容或错误响应
type stubModel struct {
	content    string
	stopReason string
	err        error
	noChoices  bool

	lastMessages []llms.MessageContent
}

func (m *stubModel) GenerateContent(_ context.Context, messages []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	m.lastMessages = messages
	if m.err != nil {
		return nil, m.err
	}
	if m.noChoices {
		return &llms.ContentResponse{}, nil
	}
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{
			{Content: m.content, StopReason: m.stopReason},
		},
	}, nil
}

func (m *stubModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	resp, err := m.GenerateContent(ctx, nil, options...)
	if err != nil {
		return "", err
	}
	return resp.Choices[0].Content, nil
}

const validModelJSON = `{
	"health_score": 7,
	"confidence": 0.85,
	"observations": ["颜色正常", "形态成形"],
	"recommendations": ["保持当前饮食"],
	"warnings": [],
	"encouragement": "状态不错，继续保持！",
	"details": {"color": "棕色", "consistency": "成形"}
}`

func newTestService(t *testing.T, model llms.Model) (*AnalysisService, *AnalysisStore) {
	t.Helper()
	db := setupTestDB(t)
	store := NewAnalysisStore(db, newMemExclusionSet())
	service := NewAnalysisService(db, &VisionClient{Model: model}, store, time.Minute)
	return service, store
}

func TestAnalyze_Success(t *testing.T) {
	model := &stubModel{content: validModelJSON}
	service, store := newTestService(t, model)
	otayori := newTestOtayori(t, service.db, "user-1", "pet-1", models.OtayoriTypePoop, "https://cdn.example.com/p.jpg")

	resp, err := service.Analyze(context.Background(), "user-1", &models.AnalyzeRequest{
		AnalysisType: models.OtayoriTypePoop,
		OtayoriID:    otayori.ID,
		ImageRef:     otayori.PhotoURL,
	})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.True(t, resp.Saved)
	require.NotNil(t, resp.Analysis)
	assert.Equal(t, 7, resp.Analysis.HealthScore)
	assert.Equal(t, "棕色", resp.Analysis.Details.Color)
	require.NotNil(t, resp.Analysis.OtayoriID)
	assert.Equal(t, otayori.ID, *resp.Analysis.OtayoriID)

	// 结果已落库，日志从候选中消失
	got, err := store.GetRecord(context.Background(), "user-1", resp.Analysis.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OtayoriTypePoop, got.AnalysisType)
	assert.Empty(t, candidateIDs(t, store, "user-1", "pet-1", models.OtayoriTypePoop))

	// 卡片停在 Saved 状态
	assert.Equal(t, CardSaved, service.Cards().State(otayori.ID))

	// 模型收到 system + human 两条消息
	require.Len(t, model.lastMessages, 2)
	assert.Equal(t, schema.ChatMessageTypeSystem, model.lastMessages[0].Role)
	assert.Equal(t, schema.ChatMessageTypeHuman, model.lastMessages[1].Role)
}

func TestAnalyze_RejectsConcurrentCard(t *testing.T) {
	service, _ := newTestService(t, &stubModel{content: validModelJSON})
	otayori := newTestOtayori(t, service.db, "user-1", "pet-1", models.OtayoriTypeMeal, "https://cdn.example.com/m.jpg")

	require.NoError(t, service.Cards().BeginAnalyze(otayori.ID))

	_, err := service.Analyze(context.Background(), "user-1", &models.AnalyzeRequest{
		AnalysisType: models.OtayoriTypeMeal,
		OtayoriID:    otayori.ID,
	})
	assert.ErrorIs(t, err, ErrCardBusy)
}

func TestAnalyze_UnparsableResponse(t *testing.T) {
	service, store := newTestService(t, &stubModel{content: "这是一张猫的照片，看起来很健康。"})
	otayori := newTestOtayori(t, service.db, "user-1", "pet-1", models.OtayoriTypeEmotion, "https://cdn.example.com/e.jpg")

	_, err := service.Analyze(context.Background(), "user-1", &models.AnalyzeRequest{
		AnalysisType: models.OtayoriTypeEmotion,
		OtayoriID:    otayori.ID,
	})
	var unparsable *UnparsableResponseError
	require.ErrorAs(t, err, &unparsable)

	// 失败的分析不落库，卡片进入 Error
	items, listErr := store.ListHistory(context.Background(), "user-1", "pet-1", 10)
	require.NoError(t, listErr)
	assert.Empty(t, items)
	assert.Equal(t, CardError, service.Cards().State(otayori.ID))
}

func TestAnalyze_RefusalText(t *testing.T) {
	service, _ := newTestService(t, &stubModel{content: "抱歉，我无法分析这张图片的内容。"})
	otayori := newTestOtayori(t, service.db, "user-1", "pet-1", models.OtayoriTypePoop, "https://cdn.example.com/p.jpg")

	_, err := service.Analyze(context.Background(), "user-1", &models.AnalyzeRequest{
		AnalysisType: models.OtayoriTypePoop,
		OtayoriID:    otayori.ID,
	})
	var refusal *RefusalError
	require.ErrorAs(t, err, &refusal)
	assert.Equal(t, models.OtayoriTypePoop, refusal.AnalysisType)
}

func TestAnalyze_ContentFilterStop(t *testing.T) {
	service, _ := newTestService(t, &stubModel{content: validModelJSON, stopReason: "content_filter"})
	otayori := newTestOtayori(t, service.db, "user-1", "pet-1", models.OtayoriTypePoop, "https://cdn.example.com/p.jpg")

	_, err := service.Analyze(context.Background(), "user-1", &models.AnalyzeRequest{
		AnalysisType: models.OtayoriTypePoop,
		OtayoriID:    otayori.ID,
	})
	var refusal *RefusalError
	assert.ErrorAs(t, err, &refusal)
}

func TestAnalyze_ModelErrors(t *testing.T) {
	tests := []struct {
		name     string
		modelErr error
		check    func(t *testing.T, err error)
	}{
		{
			name:     "限流",
			modelErr: errors.New("API returned 429: rate limit exceeded"),
			check: func(t *testing.T, err error) {
				var rateLimit *RateLimitError
				assert.ErrorAs(t, err, &rateLimit)
			},
		},
		{
			name:     "策略拒绝",
			modelErr: errors.New("request rejected by content policy"),
			check: func(t *testing.T, err error) {
				var refusal *RefusalError
				assert.ErrorAs(t, err, &refusal)
			},
		},
		{
			name:     "一般服务错误",
			modelErr: errors.New("connection reset by peer"),
			check: func(t *testing.T, err error) {
				var serviceErr *ServiceError
				assert.ErrorAs(t, err, &serviceErr)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, _ := newTestService(t, &stubModel{err: tt.modelErr})
			otayori := newTestOtayori(t, service.db, "user-1", "pet-1", models.OtayoriTypeMeal, "https://cdn.example.com/m.jpg")

			_, err := service.Analyze(context.Background(), "user-1", &models.AnalyzeRequest{
				AnalysisType: models.OtayoriTypeMeal,
				OtayoriID:    otayori.ID,
			})
			tt.check(t, err)
		})
	}
}

func TestAnalyze_EmptyResponse(t *testing.T) {
	for _, model := range []*stubModel{
		{noChoices: true},
		{content: "   "},
	} {
		service, _ := newTestService(t, model)
		otayori := newTestOtayori(t, service.db, "user-1", "pet-1", models.OtayoriTypeMeal, "https://cdn.example.com/m.jpg")

		_, err := service.Analyze(context.Background(), "user-1", &models.AnalyzeRequest{
			AnalysisType: models.OtayoriTypeMeal,
			OtayoriID:    otayori.ID,
		})
		var empty *EmptyResponseError
		assert.ErrorAs(t, err, &empty)
	}
}

// cancellingModel 模拟调用方在模型调用进行中取消请求
type cancellingModel struct {
	cancel context.CancelFunc
}

func (m *cancellingModel) GenerateContent(context.Context, []llms.MessageContent, ...llms.CallOption) (*llms.ContentResponse, error) {
	m.cancel()
	return nil, context.Canceled
}

func (m *cancellingModel) Call(context.Context, string, ...llms.CallOption) (string, error) {
	m.cancel()
	return "", context.Canceled
}

func TestAnalyze_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	service, _ := newTestService(t, &cancellingModel{cancel: cancel})
	otayori := newTestOtayori(t, service.db, "user-1", "pet-1", models.OtayoriTypeMeal, "https://cdn.example.com/m.jpg")

	_, err := service.Analyze(ctx, "user-1", &models.AnalyzeRequest{
		AnalysisType: models.OtayoriTypeMeal,
		OtayoriID:    otayori.ID,
	})
	var cancelled *CancelledError
	assert.ErrorAs(t, err, &cancelled)
}

func TestAnalyze_InvalidBase64Data(t *testing.T) {
	service, _ := newTestService(t, &stubModel{content: validModelJSON})
	otayori := newTestOtayori(t, service.db, "user-1", "pet-1", models.OtayoriTypeMeal, "https://cdn.example.com/m.jpg")

	// 校验用的字符集检查之外，解码失败也会被拦下
	_, err := service.Analyze(context.Background(), "user-1", &models.AnalyzeRequest{
		AnalysisType: models.OtayoriTypeMeal,
		OtayoriID:    otayori.ID,
		ImageData:    "A===",
	})
	var validation *ValidationError
	assert.ErrorAs(t, err, &validation)
}

func TestAnalyze_SaveFailureKeepsResult(t *testing.T) {
	service, _ := newTestService(t, &stubModel{content: validModelJSON})
	otayori := newTestOtayori(t, service.db, "user-1", "pet-1", models.OtayoriTypePoop, "https://cdn.example.com/p.jpg")

	// 分析记录表不可写时落库必然失败
	require.NoError(t, service.db.Migrator().DropTable(&models.AnalysisRecord{}))

	resp, err := service.Analyze(context.Background(), "user-1", &models.AnalyzeRequest{
		AnalysisType: models.OtayoriTypePoop,
		OtayoriID:    otayori.ID,
	})
	require.NoError(t, err)

	// 保存失败不掩盖分析结果：结果返回，Saved为false并附带说明
	assert.True(t, resp.Success)
	assert.False(t, resp.Saved)
	require.NotNil(t, resp.Analysis)
	assert.Equal(t, 7, resp.Analysis.HealthScore)
	assert.NotEmpty(t, resp.Error)

	// 卡片停在 Result，等待客户端单独重试保存
	assert.Equal(t, CardResult, service.Cards().State(otayori.ID))
}

func TestSaveAnalysis_RejectsInvalidRecord(t *testing.T) {
	service, store := newTestService(t, &stubModel{})
	otayori := newTestOtayori(t, service.db, "user-1", "pet-1", models.OtayoriTypePoop, "https://cdn.example.com/p.jpg")

	valid := models.AnalysisRecord{
		PetID:        "pet-1",
		AnalysisType: models.OtayoriTypePoop,
		HealthScore:  6,
		Confidence:   0.8,
		Observations: models.StringList{"正常"},
	}

	tests := []struct {
		name   string
		modify func(r *models.AnalysisRecord)
		entry  string
	}{
		{"health_score越界", func(r *models.AnalysisRecord) { r.HealthScore = 99 }, otayori.ID},
		{"health_score为零", func(r *models.AnalysisRecord) { r.HealthScore = 0 }, otayori.ID},
		{"confidence越界", func(r *models.AnalysisRecord) { r.Confidence = 7.5 }, otayori.ID},
		{"日志记录不存在", func(r *models.AnalysisRecord) {}, "no-such-otayori"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := valid
			tt.modify(&record)
			_, err := service.SaveAnalysis(context.Background(), "user-1", &models.SaveAnalysisRequest{
				OtayoriID: tt.entry,
				Analysis:  record,
			})
			var validation *ValidationError
			require.ErrorAs(t, err, &validation)
		})
	}

	// 被拒绝的保存不落库，卡片也不被占用
	items, err := store.ListHistory(context.Background(), "user-1", "pet-1", 10)
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Equal(t, CardIdle, service.Cards().State(otayori.ID))
}

func TestSaveAnalysis(t *testing.T) {
	service, store := newTestService(t, &stubModel{})
	otayori := newTestOtayori(t, service.db, "user-1", "pet-1", models.OtayoriTypePoop, "https://cdn.example.com/p.jpg")

	record, err := service.SaveAnalysis(context.Background(), "user-1", &models.SaveAnalysisRequest{
		OtayoriID: otayori.ID,
		Analysis: models.AnalysisRecord{
			PetID:        "pet-1",
			AnalysisType: models.OtayoriTypePoop,
			HealthScore:  6,
			Confidence:   0.8,
			Observations: models.StringList{"轻微偏软"},
		},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, record.ID)
	assert.Equal(t, "user-1", record.UserID)
	require.NotNil(t, record.OtayoriID)
	assert.Equal(t, otayori.ID, *record.OtayoriID)

	got, err := store.GetRecord(context.Background(), "user-1", record.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, got.HealthScore)
	assert.Equal(t, CardSaved, service.Cards().State(otayori.ID))
}
