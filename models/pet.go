package models

import (
	"encoding/json"
	"time"
)

// Pet 宠物档案模型
type Pet struct {
	ID             string     `gorm:"type:varchar(50);primaryKey" json:"id"`
	UserID         string     `gorm:"type:varchar(50);index" json:"user_id"`
	Name           string     `gorm:"type:varchar(100)" json:"name"`
	Species        string     `gorm:"type:varchar(50)" json:"species"` // dog, cat...
	Breed          string     `gorm:"type:varchar(100)" json:"breed"`
	BirthDate      *time.Time `json:"birthDate"`
	WeightKg       float64    `json:"weightKg"`
	MedicalHistory string     `gorm:"type:text" json:"-"` // JSON数组字符串
	Avatar         string     `gorm:"type:varchar(255)" json:"avatar"`
	Status         int        `gorm:"type:int;default:0" json:"status"` // 0: 正常 1: 删除
	CreatedAt      time.Time  `json:"createdAt"`
	LastModified   time.Time  `json:"lastModified"`
}

// AgeYears 按出生日期计算整数年龄（向下取整）
func (p *Pet) AgeYears(now time.Time) int {
	if p.BirthDate == nil {
		return 0
	}
	days := int(now.Sub(*p.BirthDate).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days / 365
}

// MedicalHistoryList 解析病史JSON数组，解析失败时返回空列表
func (p *Pet) MedicalHistoryList() []string {
	if p.MedicalHistory == "" {
		return nil
	}
	var list []string
	if err := json.Unmarshal([]byte(p.MedicalHistory), &list); err != nil {
		return nil
	}
	return list
}

// SetMedicalHistory 序列化病史列表
func (p *Pet) SetMedicalHistory(list []string) {
	if len(list) == 0 {
		p.MedicalHistory = ""
		return
	}
	data, _ := json.Marshal(list)
	p.MedicalHistory = string(data)
}
