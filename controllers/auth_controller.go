package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yumi-nakamura/GharProject-sub000/config"
	"github.com/yumi-nakamura/GharProject-sub000/models"
	"github.com/yumi-nakamura/GharProject-sub000/utils"
)

// AuthController 认证控制器
type AuthController struct {
	conf config.Config
}

func NewAuthController(conf config.Config) *AuthController {
	return &AuthController{conf: conf}
}

// WechatLoginRequest 微信小程序登录请求结构体
type WechatLoginRequest struct {
	Code string `json:"code" binding:"required"` // 小程序登录凭证
}

// WechatLogin 微信小程序登录
func (ac *AuthController) WechatLogin(c *gin.Context) {
	var req WechatLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// 用登录凭证换取openid
	session, err := utils.WechatCode2Session(ac.conf.WechatAppID, ac.conf.WechatAppSecret, req.Code)
	if err != nil {
		config.Logger.Errorw("微信登录失败", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "微信登录失败"})
		return
	}

	// 查找或创建用户
	var user models.User
	result := config.DB.Where("provider = ? AND provider_id = ?", "wechat", session.OpenID).First(&user)
	if result.Error != nil {
		user = models.User{
			ID:         utils.GenerateID(),
			Provider:   "wechat",
			ProviderID: session.OpenID,
			CreatedAt:  time.Now(),
			Energy:     20, // 默认20点能量值
		}
		if err := config.DB.Create(&user).Error; err != nil {
			config.Logger.Errorw("用户创建失败",
				"error", err,
				"provider", "wechat",
				"openID", session.OpenID,
			)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "用户创建失败"})
			return
		}
		config.Logger.Infow("用户创建成功",
			"userID", user.ID,
			"provider", "wechat",
		)
	}

	token, err := utils.GenerateToken(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "令牌生成失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user": gin.H{
			"id":       user.ID,
			"username": user.GetDisplayName(),
			"avatar":   user.Avatar,
		},
	})
}

// CreateTestUser 创建测试用户
func (ac *AuthController) CreateTestUser(c *gin.Context) {
	testUser := models.User{
		ID:         utils.GenerateID(),
		Username:   "test_user_1",
		Email:      "test_1@example.com",
		IsTestUser: true,
	}

	if err := config.DB.Create(&testUser).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "创建测试用户失败"})
		return
	}

	// 生成 JWT
	token, err := utils.GenerateToken(testUser.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "令牌生成失败"})
		return
	}

	config.Logger.Infow("创建测试用户",
		"userID", testUser.ID,
		"username", testUser.Username,
	)

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user": gin.H{
			"id":       testUser.ID,
			"username": testUser.Username,
			"email":    testUser.Email,
		},
	})
}
