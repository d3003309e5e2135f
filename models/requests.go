package models

import "time"

// PetInfo 分析请求中附带的宠物信息（可选，用于丰富提示词）
type PetInfo struct {
	Breed          string   `json:"breed"`
	AgeYears       int      `json:"age_years"`
	WeightKg       float64  `json:"weight_kg"`
	MedicalHistory []string `json:"medical_history"`
}

// AnalyzeRequest AI分析请求结构体
type AnalyzeRequest struct {
	ImageData     string   `json:"image_data"`      // base64编码的图片数据
	ImageMimeType string   `json:"image_mime_type"` // 如 image/jpeg
	ImageRef      string   `json:"image_ref"`       // 对象存储中的图片路径
	AnalysisType  string   `json:"analysis_type" binding:"required"` // meal, poop, emotion
	OtayoriID     string   `json:"otayori_id"`      // 指定关联的日志记录（可选）
	PetID         string   `json:"pet_id"`          // 指定宠物（可选）
	PetInfo       *PetInfo `json:"pet_info"`
}

// SaveAnalysisRequest 分析结果保存请求（保存失败后客户端单独重试用）
type SaveAnalysisRequest struct {
	Analysis  AnalysisRecord `json:"analysis" binding:"required"`
	OtayoriID string         `json:"otayori_id" binding:"required"`
}

// SyncOtayoriRequest 日志记录同步请求结构体
type SyncOtayoriRequest struct {
	ID           string    `json:"id"`
	PetID        string    `json:"petId"`
	Type         string    `json:"type"` // meal, poop, emotion
	Content      string    `json:"content"`
	PhotoURL     string    `json:"photoUrl"`
	Tags         string    `json:"tags"`
	Status       int       `json:"status"`
	RecordDate   time.Time `json:"recordDate"`
	LastModified time.Time `json:"lastModified"`
}

// ConvertToUTC 时区转换
func (r *SyncOtayoriRequest) ConvertToUTC() {
	r.RecordDate = r.RecordDate.UTC()
	r.LastModified = r.LastModified.UTC()
}

// PetRequest 宠物档案创建/更新请求结构体
type PetRequest struct {
	Name           string     `json:"name" binding:"required"`
	Species        string     `json:"species"`
	Breed          string     `json:"breed"`
	BirthDate      *time.Time `json:"birthDate"`
	WeightKg       float64    `json:"weightKg"`
	MedicalHistory []string   `json:"medicalHistory"`
	Avatar         string     `json:"avatar"`
}
