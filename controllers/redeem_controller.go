package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yumi-nakamura/GharProject-sub000/config"
	"github.com/yumi-nakamura/GharProject-sub000/models"
	"github.com/yumi-nakamura/GharProject-sub000/utils"
)

type RedeemController struct{}

// RedeemCode 兑换能量码
func (rc *RedeemController) RedeemCode(c *gin.Context) {
	uid, exists := c.Get("uid")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "未获取到用户ID"})
		return
	}

	var req struct {
		Code string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tx := config.DB.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	var code models.RedeemCode
	if err := tx.Where("code = ? AND used_at IS NULL", req.Code).First(&code).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusBadRequest, gin.H{"error": "兑换码无效或已被使用"})
		return
	}

	var user models.User
	if err := tx.Where("id = ?", uid).First(&user).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "获取用户信息失败"})
		return
	}

	now := time.Now()
	uidStr := uid.(string)
	code.UsedAt = &now
	code.UserID = &uidStr
	if err := tx.Save(&code).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "兑换失败"})
		return
	}

	if err := tx.Model(&user).Update("energy", user.Energy+code.Energy).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "兑换失败"})
		return
	}

	if err := tx.Commit().Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "兑换失败"})
		return
	}

	config.Logger.Infow("兑换码使用成功",
		"userID", uid,
		"code", code.Code,
		"energy", code.Energy,
	)

	c.JSON(http.StatusOK, gin.H{
		"message":   "兑换成功",
		"energy":    code.Energy,
		"newEnergy": user.Energy + code.Energy,
	})
}

// CreateRedeemCode 内部接口：生成兑换码
func (rc *RedeemController) CreateRedeemCode(c *gin.Context) {
	count, err := strconv.Atoi(c.DefaultQuery("count", "1"))
	if err != nil || count <= 0 || count > 100 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的数量"})
		return
	}
	energy, err := strconv.Atoi(c.DefaultQuery("energy", "20"))
	if err != nil || energy <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的能量值"})
		return
	}

	codes := make([]string, 0, count)
	for i := 0; i < count; i++ {
		code := models.RedeemCode{
			ID:        utils.GenerateID(),
			Code:      models.GenerateRedeemCode(),
			Energy:    energy,
			CreatedAt: time.Now(),
		}
		// 生成的短码可能撞重，换一个重试
		for attempts := 0; attempts < 5; attempts++ {
			if err := config.DB.Create(&code).Error; err == nil {
				codes = append(codes, code.Code)
				break
			}
			code.Code = models.GenerateRedeemCode()
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"codes": codes,
	})
}
