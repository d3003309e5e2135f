package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yumi-nakamura/GharProject-sub000/config"
	"github.com/yumi-nakamura/GharProject-sub000/models"
)

type UserController struct{}

// AddEnergy 内部接口：增加能量值
func (uc *UserController) AddEnergy(c *gin.Context) {
	config.Logger.Infow("内部接口调用：增加能量值",
		"sourceIP", c.ClientIP(),
		"userAgent", c.Request.UserAgent(),
	)

	uid := c.Query("uid")
	amountStr := c.Query("amount")

	amount, err := strconv.Atoi(amountStr)
	if err != nil || amount <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的能量值"})
		return
	}

	var user models.User
	if err := config.DB.Where("id = ?", uid).First(&user).Error; err != nil {
		config.Logger.Errorw("获取用户信息失败", "error", err, "uid", uid)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "获取用户信息失败"})
		return
	}

	if err := config.DB.Model(&user).Update("energy", user.Energy+amount).Error; err != nil {
		config.Logger.Errorw("增加能量值失败", "error", err, "uid", uid)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "增加能量值失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "能量值增加成功",
		"newEnergy": user.Energy + amount,
	})
}

// GetEnergy 查询当前用户的能量值
func (uc *UserController) GetEnergy(c *gin.Context) {
	uid := c.GetString("uid")

	var user models.User
	if err := config.DB.Where("id = ?", uid).First(&user).Error; err != nil {
		config.Logger.Errorw("获取用户信息失败", "error", err, "uid", uid)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "获取用户信息失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"energy": user.Energy,
	})
}

// GetUser 查询当前用户信息
func (uc *UserController) GetUser(c *gin.Context) {
	uid, exists := c.Get("uid")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "用户未认证"})
		return
	}

	var user models.User
	if err := config.DB.Where("id = ?", uid).First(&user).Error; err != nil {
		config.Logger.Errorw("数据库查询失败", "error", err, "userID", uid)
		c.JSON(http.StatusNotFound, gin.H{"error": "用户未找到"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user": gin.H{
			"id":       user.ID,
			"username": user.Username,
			"email":    user.Email,
			"energy":   user.Energy,
		},
	})
}
