package models

import "time"

// 报告周期
const (
	ReportPeriodWeek    = "week"    // 7天
	ReportPeriodMonth   = "month"   // 30天
	ReportPeriodQuarter = "quarter" // 90天
)

// ReportPeriodDays 返回周期对应的天数，非法周期返回0
func ReportPeriodDays(period string) int {
	switch period {
	case ReportPeriodWeek:
		return 7
	case ReportPeriodMonth:
		return 30
	case ReportPeriodQuarter:
		return 90
	}
	return 0
}

// HealthReport 周期健康报告
type HealthReport struct {
	PetID           string    `json:"pet_id"`
	Period          string    `json:"period"`
	Days            int       `json:"days"`
	StartDate       time.Time `json:"startDate"`
	EndDate         time.Time `json:"endDate"`
	MealCount       int       `json:"mealCount"`
	PoopCount       int       `json:"poopCount"`
	EmotionCount    int       `json:"emotionCount"`
	TotalCount      int       `json:"totalCount"`
	MealPerDay      float64   `json:"mealPerDay"`
	PoopPerDay      float64   `json:"poopPerDay"`
	EmotionPerDay   float64   `json:"emotionPerDay"`
	HealthScore     int       `json:"healthScore"`  // 70-100
	Consistency     int       `json:"consistency"`  // 记录连续度
	MoodTrend       string    `json:"moodTrend"`    // good, stable, needs attention, insufficient data
	Recommendations []string  `json:"recommendations"`
	Alerts          []string  `json:"alerts"`
}
