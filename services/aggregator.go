package services

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/yumi-nakamura/GharProject-sub000/models"
	"gorm.io/gorm"
)

// 情绪趋势判断用的关键词
var (
	positiveMoodKeywords = []string{"开心", "活泼", "精神好", "元气", "放松", "食欲好", "健康", "很乖"}
	negativeMoodKeywords = []string{"呕吐", "腹泻", "没精神", "焦虑", "不吃", "发抖", "异常", "便血"}
)

// Aggregator 根据日志历史计算周期健康报告
type Aggregator struct {
	db *gorm.DB
}

func NewAggregator(db *gorm.DB) *Aggregator {
	return &Aggregator{db: db}
}

// Compute 计算指定宠物在周期窗口内的健康报告
func (a *Aggregator) Compute(ctx context.Context, petID, period string) (*models.HealthReport, error) {
	days := models.ReportPeriodDays(period)
	if days == 0 {
		return nil, &ValidationError{Reason: fmt.Sprintf("不支持的报告周期: %s", period)}
	}

	end := time.Now().UTC()
	start := end.AddDate(0, 0, -days)

	var records []models.OtayoriRecord
	err := a.db.WithContext(ctx).
		Where("pet_id = ? AND status = 0 AND record_date >= ? AND record_date <= ?", petID, start, end).
		Find(&records).Error
	if err != nil {
		return nil, err
	}

	return buildReport(petID, period, days, start, end, records), nil
}

// buildReport 纯计算部分，与存储解耦便于单测
func buildReport(petID, period string, days int, start, end time.Time, records []models.OtayoriRecord) *models.HealthReport {
	report := &models.HealthReport{
		PetID:     petID,
		Period:    period,
		Days:      days,
		StartDate: start,
		EndDate:   end,
	}

	for _, r := range records {
		switch r.Type {
		case models.OtayoriTypeMeal:
			report.MealCount++
		case models.OtayoriTypePoop:
			report.PoopCount++
		case models.OtayoriTypeEmotion:
			report.EmotionCount++
		}
	}
	report.TotalCount = report.MealCount + report.PoopCount + report.EmotionCount

	mealAvg := float64(report.MealCount) / float64(days)
	poopAvg := float64(report.PoopCount) / float64(days)
	emotionAvg := float64(report.EmotionCount) / float64(days)
	report.MealPerDay = round2(mealAvg)
	report.PoopPerDay = round2(poopAvg)
	report.EmotionPerDay = round2(emotionAvg)

	report.HealthScore = healthScore(report.MealCount, report.PoopCount, report.EmotionCount, mealAvg, poopAvg)
	report.Consistency = int(math.Round(float64(report.TotalCount) / float64(days) * 100))
	report.MoodTrend = moodTrend(records)
	report.Recommendations, report.Alerts = adviceFor(report.EmotionCount, mealAvg, poopAvg)

	return report
}

// healthScore 健康评分：基础70分，按记录习惯逐项加分，上限100。
// 加分项全部不满足时正好是70分，加分项单调增加时评分不会下降。
func healthScore(mealCount, poopCount, emotionCount int, mealAvg, poopAvg float64) int {
	score := 70
	if mealCount > 0 {
		score += 5
	}
	if mealAvg >= 1 && mealAvg <= 3 {
		score += 10
	}
	if poopCount > 0 {
		score += 5
	}
	if poopAvg >= 1 && poopAvg <= 4 {
		score += 10
	}
	if emotionCount > 0 {
		score += 10
	}
	if score > 100 {
		score = 100
	}
	return score
}

// moodTrend 根据记录内容中的正负面关键词判断情绪趋势
func moodTrend(records []models.OtayoriRecord) string {
	positive, negative := 0, 0
	for _, r := range records {
		if containsAny(r.Content, positiveMoodKeywords) {
			positive++
		}
		if containsAny(r.Content, negativeMoodKeywords) {
			negative++
		}
	}

	switch {
	case positive == 0 && negative == 0:
		return "insufficient data"
	case positive > negative:
		return "good"
	case negative > positive:
		return "needs attention"
	default:
		return "stable"
	}
}

// adviceFor 按固定阈值规则生成建议和警告
func adviceFor(emotionCount int, mealAvg, poopAvg float64) (recommendations, alerts []string) {
	recommendations = []string{}
	alerts = []string{}

	if mealAvg < 1 {
		recommendations = append(recommendations, "饮食记录偏少，建议每天至少记录一次饮食情况")
	}
	if mealAvg > 5 {
		alerts = append(alerts, "饮食记录频率异常偏高，请确认是否存在过度喂食或重复记录")
	}
	if poopAvg < 1 {
		recommendations = append(recommendations, "排泄记录偏少，建议关注并记录每天的排泄情况")
	}
	if poopAvg > 4 {
		alerts = append(alerts, "排泄记录频率异常偏高，可能存在消化问题，建议咨询兽医")
	}
	if emotionCount == 0 {
		recommendations = append(recommendations, "还没有情绪记录，记录宠物的情绪状态有助于发现健康变化")
	}
	return recommendations, alerts
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func containsAny(content string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(content, k) {
			return true
		}
	}
	return false
}
