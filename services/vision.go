package services

import (
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// VisionClient 视觉模型客户端（OpenAI兼容接口）
type VisionClient struct {
	Model llms.Model
}

func NewVisionClient(apiKey, apiEndpoint, modelName string) (*VisionClient, error) {
	m, err := openai.New(
		openai.WithToken(apiKey),
		openai.WithBaseURL(apiEndpoint),
		openai.WithModel(modelName),
		openai.WithResponseFormat(&openai.ResponseFormat{
			Type: "json_object",
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create vision client: %w", err)
	}

	return &VisionClient{
		Model: m,
	}, nil
}
