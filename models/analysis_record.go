package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// StringList 以JSON文本存储的字符串列表
type StringList []string

// Value 实现 driver.Valuer
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	data, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan 实现 sql.Scanner
func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("无法将 %T 扫描为 StringList", value)
	}
	if len(data) == 0 {
		*l = nil
		return nil
	}
	return json.Unmarshal(data, l)
}

// AnalysisDetails 各类型分析的附加观察项，均为可选
type AnalysisDetails struct {
	Color       string `gorm:"type:varchar(50)" json:"color,omitempty"`
	Consistency string `gorm:"type:varchar(50)" json:"consistency,omitempty"`
	Amount      string `gorm:"type:varchar(50)" json:"amount,omitempty"`
	Appetite    string `gorm:"type:varchar(50)" json:"appetite,omitempty"`
	Mood        string `gorm:"type:varchar(50)" json:"mood,omitempty"`
}

// AnalysisRecord AI健康分析记录模型
// OtayoriID 在解析阶段为空，由存储层在落库时填充。
// 同一条日志可能随时间产生多条分析记录（删除后重新分析），
// 数据库不做唯一约束，候选列表在读取时去重。
type AnalysisRecord struct {
	ID              string          `gorm:"type:varchar(50);primaryKey" json:"id"`
	OtayoriID       *string         `gorm:"type:varchar(50);index" json:"otayori_id"`
	UserID          string          `gorm:"type:varchar(50);index" json:"user_id"`
	PetID           string          `gorm:"type:varchar(50);index" json:"pet_id"`
	ImageURL        string          `gorm:"type:varchar(500)" json:"imageUrl"`
	AnalysisType    string          `gorm:"type:varchar(10)" json:"analysisType"` // meal, poop, emotion
	HealthScore     int             `json:"healthScore"`                          // 1-10
	Confidence      float64         `json:"confidence"`                           // 0.0-1.0
	Observations    StringList      `gorm:"type:text" json:"observations"`
	Recommendations StringList      `gorm:"type:text" json:"recommendations"`
	Warnings        StringList      `gorm:"type:text" json:"warnings"`
	Encouragement   string          `gorm:"type:text" json:"encouragement,omitempty"`
	Details         AnalysisDetails `gorm:"embedded;embeddedPrefix:detail_" json:"details"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

func (AnalysisRecord) TableName() string {
	return "analysis_records"
}
