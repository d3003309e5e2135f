package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yumi-nakamura/GharProject-sub000/config"
	"github.com/yumi-nakamura/GharProject-sub000/models"
)

type OtayoriController struct{}

// SyncOtayori 处理日志记录同步
func (oc *OtayoriController) SyncOtayori(c *gin.Context) {
	var requests []models.SyncOtayoriRequest
	if err := c.ShouldBindJSON(&requests); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	// 获取用户ID
	uid, exists := c.Get("uid")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "未获取到用户ID"})
		return
	}

	// 开启事务
	tx := config.DB.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	// 更新或创建日志记录
	for _, req := range requests {
		if !models.IsValidOtayoriType(req.Type) {
			tx.Rollback()
			c.JSON(http.StatusBadRequest, gin.H{"error": "不支持的记录类型: " + req.Type})
			return
		}
		req.ConvertToUTC()

		record := models.OtayoriRecord{
			ID:           req.ID,
			PetID:        req.PetID,
			UserID:       uid.(string),
			Type:         req.Type,
			Content:      req.Content,
			PhotoURL:     req.PhotoURL,
			Tags:         req.Tags,
			Status:       req.Status,
			RecordDate:   req.RecordDate,
			LastModified: req.LastModified,
		}

		// 检查是否已存在同ID记录
		var existing models.OtayoriRecord
		if err := tx.Where("id = ?", record.ID).First(&existing).Error; err == nil {
			// 如果存在，比较 lastModified 时间戳
			if record.LastModified.After(existing.LastModified) {
				// 如果新数据更晚，更新记录
				record.LastModified = time.Now()
				if err := tx.Save(&record).Error; err != nil {
					tx.Rollback()
					c.JSON(http.StatusInternalServerError, gin.H{"error": "日志记录同步失败"})
					return
				}
			} else {
				// 如果旧数据更晚，忽略新数据
				continue
			}
		} else {
			// 如果不存在，创建新记录
			record.LastModified = time.Now()
			if err := tx.Create(&record).Error; err != nil {
				tx.Rollback()
				c.JSON(http.StatusInternalServerError, gin.H{"error": "日志记录同步失败"})
				return
			}
		}
	}

	// 提交事务
	if err := tx.Commit().Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "日志记录同步失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "日志记录同步成功"})
}

// GetUpdates 拉取指定时间后的增量更新
func (oc *OtayoriController) GetUpdates(c *gin.Context) {
	uid, exists := c.Get("uid")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "未获取到用户ID"})
		return
	}

	since := time.Time{}
	if sinceStr := c.Query("since"); sinceStr != "" {
		parsed, err := time.Parse(time.RFC3339, sinceStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "since参数格式错误，应为RFC3339"})
			return
		}
		since = parsed.UTC()
	}

	var otayori []models.OtayoriRecord
	if err := config.DB.Where("user_id = ? AND last_modified > ?", uid, since).
		Order("last_modified ASC").Find(&otayori).Error; err != nil {
		config.Logger.Errorw("查询日志更新失败", "error", err, "uid", uid)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "查询更新失败"})
		return
	}

	var pets []models.Pet
	if err := config.DB.Where("user_id = ? AND last_modified > ?", uid, since).
		Order("last_modified ASC").Find(&pets).Error; err != nil {
		config.Logger.Errorw("查询宠物更新失败", "error", err, "uid", uid)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "查询更新失败"})
		return
	}

	c.JSON(http.StatusOK, models.SyncUpdatesResponse{
		Otayori: otayori,
		Pets:    pets,
	})
}
