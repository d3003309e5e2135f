package services

import (
	"errors"
	"fmt"

	"github.com/yumi-nakamura/GharProject-sub000/models"
)

// 分析流水线的错误分类。
// 校验/认证错误在进入流水线前短路；模型层和解析层错误各自携带
// 用户可见的提示文案；持久化错误不影响已生成的分析结果。

// ValidationError 请求校验失败（400）
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "请求校验失败: " + e.Reason
}

// ResolutionError 日志记录定位或占位记录创建失败（500）
type ResolutionError struct {
	Err error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("日志记录定位失败: %v", e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// ServiceError 模型服务调用失败：网络错误、非成功状态或超时（500）
type ServiceError struct {
	Err error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("AI服务调用失败: %v", e.Err)
}

func (e *ServiceError) Unwrap() error { return e.Err }

// RateLimitError 模型服务限流或配额不足（500）
type RateLimitError struct {
	Message string
}

func (e *RateLimitError) Error() string {
	return "AI服务请求频率受限: " + e.Message
}

// RefusalError 模型明确拒绝分析（500）
// 排泄物照片被安全策略拒绝较为常见，提示文案需要点明。
type RefusalError struct {
	AnalysisType string
}

func (e *RefusalError) Error() string {
	return "AI模型拒绝了本次分析请求: " + e.UserMessage()
}

// UserMessage 返回按分析类型区分的用户提示
func (e *RefusalError) UserMessage() string {
	switch e.AnalysisType {
	case models.OtayoriTypePoop:
		return "排泄物照片被AI安全策略拒绝分析，建议手动记录观察结果"
	case models.OtayoriTypeMeal:
		return "饮食照片被AI拒绝分析，建议更换照片或手动记录"
	default:
		return "该照片被AI拒绝分析，建议更换照片或手动记录"
	}
}

// EmptyResponseError 模型调用成功但未返回可用文本（500）
type EmptyResponseError struct{}

func (e *EmptyResponseError) Error() string {
	return "AI模型返回了空响应"
}

// CancelledError 调用方取消了进行中的模型调用
type CancelledError struct{}

func (e *CancelledError) Error() string {
	return "分析请求已取消"
}

// UnparsableResponseError 模型响应无法解析为JSON（500）
// RawText 仅用于服务端日志排查，绝不返回给调用方。
type UnparsableResponseError struct {
	RawText string
}

func (e *UnparsableResponseError) Error() string {
	return "AI响应格式无法解析"
}

// IncompleteResponseError 模型响应缺少必需字段或取值越界（500）
type IncompleteResponseError struct {
	Reason string
}

func (e *IncompleteResponseError) Error() string {
	return "AI响应内容不完整: " + e.Reason
}

// PersistenceError 分析结果保存失败。
// 对分析结果而言是非致命的：结果仍返回给调用方，由其单独重试保存。
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("分析结果保存失败: %v", e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// ErrCardBusy 同一卡片的分析或保存正在进行中，重复请求被拒绝
var ErrCardBusy = errors.New("该记录的分析正在进行中，请稍候")
