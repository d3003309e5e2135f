package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yumi-nakamura/GharProject-sub000/config"
	"github.com/yumi-nakamura/GharProject-sub000/services"
)

type ReportController struct {
	aggregator *services.Aggregator
}

func NewReportController(aggregator *services.Aggregator) *ReportController {
	return &ReportController{aggregator: aggregator}
}

// GetHealthReport 返回指定宠物的周期健康报告
func (rc *ReportController) GetHealthReport(c *gin.Context) {
	_, exists := c.Get("uid")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "未获取到用户ID"})
		return
	}

	petID := c.Query("pet_id")
	if petID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "缺少pet_id参数"})
		return
	}
	period := c.DefaultQuery("period", "week")

	report, err := rc.aggregator.Compute(c.Request.Context(), petID, period)
	if err != nil {
		var validation *services.ValidationError
		if errors.As(err, &validation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": validation.Error()})
			return
		}
		config.Logger.Errorw("生成健康报告失败", "error", err, "petID", petID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "生成健康报告失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"report": report})
}
