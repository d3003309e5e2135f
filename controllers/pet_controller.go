package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yumi-nakamura/GharProject-sub000/config"
	"github.com/yumi-nakamura/GharProject-sub000/models"
	"github.com/yumi-nakamura/GharProject-sub000/utils"
)

type PetController struct{}

// ListPets 返回当前用户的宠物列表
func (pc *PetController) ListPets(c *gin.Context) {
	uid, exists := c.Get("uid")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "未获取到用户ID"})
		return
	}

	var pets []models.Pet
	if err := config.DB.Where("user_id = ? AND status = 0", uid).
		Order("created_at ASC").Find(&pets).Error; err != nil {
		config.Logger.Errorw("查询宠物列表失败", "error", err, "uid", uid)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "查询宠物列表失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"pets": pets})
}

// CreatePet 创建宠物档案
func (pc *PetController) CreatePet(c *gin.Context) {
	uid, exists := c.Get("uid")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "未获取到用户ID"})
		return
	}

	var req models.PetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	now := time.Now().UTC()
	pet := models.Pet{
		ID:           utils.GenerateID(),
		UserID:       uid.(string),
		Name:         req.Name,
		Species:      req.Species,
		Breed:        req.Breed,
		BirthDate:    req.BirthDate,
		WeightKg:     req.WeightKg,
		Avatar:       req.Avatar,
		CreatedAt:    now,
		LastModified: now,
	}
	pet.SetMedicalHistory(req.MedicalHistory)

	if err := config.DB.Create(&pet).Error; err != nil {
		config.Logger.Errorw("创建宠物档案失败", "error", err, "uid", uid)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "创建宠物档案失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"pet": pet})
}

// UpdatePet 更新宠物档案
func (pc *PetController) UpdatePet(c *gin.Context) {
	uid, exists := c.Get("uid")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "未获取到用户ID"})
		return
	}

	petID := c.Param("id")
	var pet models.Pet
	if err := config.DB.Where("id = ? AND user_id = ? AND status = 0", petID, uid).
		First(&pet).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "宠物档案不存在"})
		return
	}

	var req models.PetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pet.Name = req.Name
	pet.Species = req.Species
	pet.Breed = req.Breed
	pet.BirthDate = req.BirthDate
	pet.WeightKg = req.WeightKg
	pet.Avatar = req.Avatar
	pet.SetMedicalHistory(req.MedicalHistory)
	pet.LastModified = time.Now().UTC()

	if err := config.DB.Save(&pet).Error; err != nil {
		config.Logger.Errorw("更新宠物档案失败", "error", err, "petID", petID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "更新宠物档案失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"pet": pet})
}
