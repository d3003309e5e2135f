package services

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/yumi-nakamura/GharProject-sub000/models"
	"github.com/yumi-nakamura/GharProject-sub000/utils"
)

// analysisWire 模型响应的线格式。
// 模型输出按不可信输入处理：必需字段用指针区分缺失和零值，
// 解析通过严格的schema校验，绝不直接当作合法对象使用。
type analysisWire struct {
	HealthScore     *int      `json:"health_score"`
	Confidence      *float64  `json:"confidence"`
	Observations    *[]string `json:"observations"`
	Recommendations []string  `json:"recommendations"`
	Warnings        []string  `json:"warnings"`
	Encouragement   string    `json:"encouragement"`
	Details         struct {
		Color       string `json:"color"`
		Consistency string `json:"consistency"`
		Amount      string `json:"amount"`
		Appetite    string `json:"appetite"`
		Mood        string `json:"mood"`
	} `json:"details"`
}

// ParseAnalysisResponse 将模型的文本响应解析为分析记录。
// 文本必须是单个JSON对象，否则返回 UnparsableResponseError（原文仅留在
// 错误对象里供服务端排查）。必需字段缺失或越界返回 IncompleteResponseError。
// 返回的记录未关联日志ID，由存储层在落库时填充。
func ParseAnalysisResponse(raw string, req *models.AnalyzeRequest, uid, petID string) (*models.AnalysisRecord, error) {
	text := strings.TrimSpace(raw)

	// 先确认是单个JSON对象，再做字段级解码：
	// 不是对象算格式无法解析，字段类型不对算内容不完整
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &fields); err != nil || fields == nil {
		return nil, &UnparsableResponseError{RawText: raw}
	}

	var wire analysisWire
	if err := json.Unmarshal([]byte(text), &wire); err != nil {
		return nil, &IncompleteResponseError{Reason: "字段类型不符合约定"}
	}

	if wire.HealthScore == nil {
		return nil, &IncompleteResponseError{Reason: "缺少 health_score 字段"}
	}
	if *wire.HealthScore < 1 || *wire.HealthScore > 10 {
		return nil, &IncompleteResponseError{Reason: "health_score 超出1-10范围"}
	}
	if wire.Confidence == nil {
		return nil, &IncompleteResponseError{Reason: "缺少 confidence 字段"}
	}
	if *wire.Confidence < 0 || *wire.Confidence > 1 {
		return nil, &IncompleteResponseError{Reason: "confidence 超出0-1范围"}
	}
	if wire.Observations == nil {
		return nil, &IncompleteResponseError{Reason: "缺少 observations 字段"}
	}

	now := time.Now().UTC()
	record := &models.AnalysisRecord{
		ID:              utils.GenerateID(),
		UserID:          uid,
		PetID:           petID,
		ImageURL:        req.ImageRef,
		AnalysisType:    req.AnalysisType,
		HealthScore:     *wire.HealthScore,
		Confidence:      *wire.Confidence,
		Observations:    *wire.Observations,
		Recommendations: wire.Recommendations,
		Warnings:        wire.Warnings,
		Encouragement:   wire.Encouragement,
		Details: models.AnalysisDetails{
			Color:       wire.Details.Color,
			Consistency: wire.Details.Consistency,
			Amount:      wire.Details.Amount,
			Appetite:    wire.Details.Appetite,
			Mood:        wire.Details.Mood,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	return record, nil
}
