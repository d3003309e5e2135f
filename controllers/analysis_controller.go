package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yumi-nakamura/GharProject-sub000/config"
	"github.com/yumi-nakamura/GharProject-sub000/models"
	"github.com/yumi-nakamura/GharProject-sub000/services"
	"gorm.io/gorm"
)

type AnalysisController struct {
	service *services.AnalysisService
	store   *services.AnalysisStore
}

func NewAnalysisController(service *services.AnalysisService, store *services.AnalysisStore) *AnalysisController {
	return &AnalysisController{
		service: service,
		store:   store,
	}
}

// Analyze 处理AI健康分析请求
func (ac *AnalysisController) Analyze(ctx *gin.Context) {
	uid, exists := ctx.Get("uid")
	if !exists {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "未获取到用户ID"})
		return
	}

	var req models.AnalyzeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, models.AnalyzeResponse{
			Success: false,
			Error:   "请求格式错误: " + err.Error(),
		})
		return
	}

	// 前置校验，失败时不发生任何外部调用
	if err := services.ValidateAnalyzeRequest(&req); err != nil {
		status, msg := analysisErrorResponse(err)
		ctx.JSON(status, models.AnalyzeResponse{Success: false, Error: msg})
		return
	}

	// 检查并扣除能量值
	var user models.User
	if err := config.DB.Where("id = ?", uid).First(&user).Error; err != nil {
		config.Logger.Errorw("获取用户信息失败", "error", err, "uid", uid)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "获取用户信息失败"})
		return
	}
	if user.Energy < 1 {
		ctx.JSON(http.StatusForbidden, gin.H{
			"error":           "能量值不足，请充值",
			"remainingEnergy": user.Energy,
		})
		return
	}
	if err := config.DB.Model(&user).Update("energy", user.Energy-1).Error; err != nil {
		config.Logger.Errorw("扣除能量值失败", "error", err, "uid", uid)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "扣除能量值失败"})
		return
	}

	resp, err := ac.service.Analyze(ctx.Request.Context(), uid.(string), &req)
	if err != nil {
		status, msg := analysisErrorResponse(err)
		config.Logger.Errorw("AI分析失败",
			"error", err,
			"uid", uid,
			"analysisType", req.AnalysisType,
		)
		ctx.JSON(status, models.AnalyzeResponse{
			Success: false,
			Error:   msg,
			Details: &models.AnalyzeResponseDetails{Timestamp: time.Now().UTC()},
		})
		return
	}

	ctx.JSON(http.StatusOK, resp)
}

// Save 单独保存分析结果（自动保存失败后的重试接口）
func (ac *AnalysisController) Save(ctx *gin.Context) {
	uid, exists := ctx.Get("uid")
	if !exists {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "未获取到用户ID"})
		return
	}

	var req models.SaveAnalysisRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "请求格式错误: " + err.Error()})
		return
	}

	record, err := ac.service.SaveAnalysis(ctx.Request.Context(), uid.(string), &req)
	if err != nil {
		status, msg := analysisErrorResponse(err)
		if status == http.StatusInternalServerError {
			config.Logger.Errorw("保存分析结果失败", "error", err, "uid", uid)
		}
		ctx.JSON(status, gin.H{"error": msg})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message":  "分析结果保存成功",
		"analysis": record,
	})
}

// Delete 删除分析记录，关联的日志会重新进入候选列表
func (ac *AnalysisController) Delete(ctx *gin.Context) {
	uid, exists := ctx.Get("uid")
	if !exists {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "未获取到用户ID"})
		return
	}

	recordID := ctx.Param("id")
	otayoriID, err := ac.store.Delete(ctx.Request.Context(), uid.(string), recordID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "分析记录不存在"})
			return
		}
		config.Logger.Errorw("删除分析记录失败", "error", err, "recordID", recordID)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "删除分析记录失败"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message":    "分析记录已删除",
		"otayori_id": otayoriID,
	})
}

// ListCandidates 返回待分析的日志记录列表
func (ac *AnalysisController) ListCandidates(ctx *gin.Context) {
	uid, exists := ctx.Get("uid")
	if !exists {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "未获取到用户ID"})
		return
	}

	petID := ctx.Query("pet_id")
	analysisType := ctx.Query("type")
	if petID == "" || !models.IsValidOtayoriType(analysisType) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "缺少pet_id或type参数非法"})
		return
	}
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))

	candidates, err := ac.store.ListCandidates(ctx.Request.Context(), uid.(string), petID, analysisType, limit)
	if err != nil {
		config.Logger.Errorw("查询候选列表失败", "error", err, "petID", petID)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "查询候选列表失败"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"candidates": candidates})
}

// ListHistory 返回分析历史
func (ac *AnalysisController) ListHistory(ctx *gin.Context) {
	uid, exists := ctx.Get("uid")
	if !exists {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "未获取到用户ID"})
		return
	}

	petID := ctx.Query("pet_id")
	if petID == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "缺少pet_id参数"})
		return
	}
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "50"))

	history, err := ac.store.ListHistory(ctx.Request.Context(), uid.(string), petID, limit)
	if err != nil {
		config.Logger.Errorw("查询分析历史失败", "error", err, "petID", petID)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "查询分析历史失败"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"history": history})
}

// analysisErrorResponse 把流水线错误映射为HTTP状态码和用户可见文案。
// 拒绝分析和限流的提示必须区分开；模型原始响应绝不出现在文案中。
func analysisErrorResponse(err error) (int, string) {
	var validation *services.ValidationError
	if errors.As(err, &validation) {
		return http.StatusBadRequest, validation.Error()
	}
	if errors.Is(err, services.ErrCardBusy) {
		return http.StatusConflict, err.Error()
	}

	var refusal *services.RefusalError
	if errors.As(err, &refusal) {
		return http.StatusInternalServerError, refusal.UserMessage()
	}
	var rateLimit *services.RateLimitError
	if errors.As(err, &rateLimit) {
		return http.StatusInternalServerError, "AI服务请求频率受限，请稍后再试"
	}
	var empty *services.EmptyResponseError
	if errors.As(err, &empty) {
		return http.StatusInternalServerError, "AI未返回有效结果，请重试"
	}
	var cancelled *services.CancelledError
	if errors.As(err, &cancelled) {
		return http.StatusInternalServerError, "分析请求已取消"
	}
	var unparsable *services.UnparsableResponseError
	if errors.As(err, &unparsable) {
		return http.StatusInternalServerError, "AI响应格式异常，请重试或手动记录观察结果"
	}
	var incomplete *services.IncompleteResponseError
	if errors.As(err, &incomplete) {
		return http.StatusInternalServerError, "AI响应内容不完整，请重试"
	}
	var resolution *services.ResolutionError
	if errors.As(err, &resolution) {
		return http.StatusInternalServerError, "日志记录定位失败，请稍后重试"
	}
	var persistence *services.PersistenceError
	if errors.As(err, &persistence) {
		return http.StatusInternalServerError, "分析结果保存失败，请稍后重试"
	}
	var service *services.ServiceError
	if errors.As(err, &service) {
		return http.StatusInternalServerError, "AI服务暂时不可用，请稍后重试"
	}
	return http.StatusInternalServerError, "分析失败，请稍后重试"
}
