package services

import (
	"fmt"
	"regexp"

	"github.com/yumi-nakamura/GharProject-sub000/models"
)

// 内嵌图片数据的长度限制（字符数）
const (
	minImageDataLen = 100
	maxImageDataLen = 10 * 1024 * 1024
)

// 标准base64字母表，允许末尾的=填充
var base64Pattern = regexp.MustCompile(`^[A-Za-z0-9+/]+={0,2}$`)

// ValidateAnalyzeRequest 在进入分析流水线前校验请求的合法性。
// 不产生任何副作用，校验失败返回指明具体原因的 ValidationError。
func ValidateAnalyzeRequest(req *models.AnalyzeRequest) error {
	if req.AnalysisType == "" {
		return &ValidationError{Reason: "缺少分析类型"}
	}
	if !models.IsValidOtayoriType(req.AnalysisType) {
		return &ValidationError{Reason: fmt.Sprintf("不支持的分析类型: %s", req.AnalysisType)}
	}
	if req.ImageData == "" && req.ImageRef == "" {
		return &ValidationError{Reason: "缺少图片数据"}
	}
	if req.ImageData != "" {
		if len(req.ImageData) < minImageDataLen {
			return &ValidationError{Reason: "图片数据过短"}
		}
		if len(req.ImageData) > maxImageDataLen {
			return &ValidationError{Reason: "图片数据超过大小限制"}
		}
		if !base64Pattern.MatchString(req.ImageData) {
			return &ValidationError{Reason: "图片数据不是合法的base64编码"}
		}
	}
	return nil
}
