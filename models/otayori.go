package models

import "time"

// おたより记录类型
const (
	OtayoriTypeMeal    = "meal"    // 饮食记录
	OtayoriTypePoop    = "poop"    // 排泄记录
	OtayoriTypeEmotion = "emotion" // 情绪记录
)

// IsValidOtayoriType 校验记录类型是否合法
func IsValidOtayoriType(t string) bool {
	switch t {
	case OtayoriTypeMeal, OtayoriTypePoop, OtayoriTypeEmotion:
		return true
	}
	return false
}

// OtayoriRecord 宠物日志记录模型（一条饮食/排泄/情绪记录）
type OtayoriRecord struct {
	ID           string    `gorm:"type:varchar(50);primaryKey" json:"id"`
	PetID        string    `gorm:"type:varchar(50);index" json:"pet_id"`
	UserID       string    `gorm:"type:varchar(50);index" json:"user_id"`
	Type         string    `gorm:"type:varchar(10)" json:"type"` // meal, poop, emotion
	Content      string    `gorm:"type:text" json:"content"`
	PhotoURL     string    `gorm:"type:varchar(500)" json:"photoUrl"`
	Tags         string    `gorm:"type:text" json:"tags"`            // 逗号分隔的标签
	Status       int       `gorm:"type:int;default:0" json:"status"` // 0: 正常 1: 删除
	RecordDate   time.Time `json:"recordDate"`
	LastModified time.Time `json:"lastModified"`
}

func (OtayoriRecord) TableName() string {
	return "otayori_records"
}
