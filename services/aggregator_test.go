package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yumi-nakamura/GharProject-sub000/models"
)

func makeRecords(meal, poop, emotion int, content string) []models.OtayoriRecord {
	var records []models.OtayoriRecord
	add := func(count int, otayoriType string) {
		for i := 0; i < count; i++ {
			records = append(records, models.OtayoriRecord{
				Type:    otayoriType,
				Content: content,
			})
		}
	}
	add(meal, models.OtayoriTypeMeal)
	add(poop, models.OtayoriTypePoop)
	add(emotion, models.OtayoriTypeEmotion)
	return records
}

func TestBuildReport_WeekScenario(t *testing.T) {
	// 一周内3条饮食、2条排泄、0条情绪：
	// 日均不在加分区间，只有"有记录"的加分，评分 70+5+5=80
	now := time.Now().UTC()
	report := buildReport("pet-1", models.ReportPeriodWeek, 7, now.AddDate(0, 0, -7), now,
		makeRecords(3, 2, 0, ""))

	assert.Equal(t, 3, report.MealCount)
	assert.Equal(t, 2, report.PoopCount)
	assert.Equal(t, 0, report.EmotionCount)
	assert.InDelta(t, 0.43, report.MealPerDay, 1e-9)
	assert.InDelta(t, 0.29, report.PoopPerDay, 1e-9)
	assert.Equal(t, 80, report.HealthScore)
	assert.Equal(t, 71, report.Consistency) // round(5/7*100)
}

func TestHealthScore_BaseAndCap(t *testing.T) {
	// 没有任何记录时正好是基础分70
	assert.Equal(t, 70, healthScore(0, 0, 0, 0, 0))

	// 所有加分项满足时封顶100
	assert.Equal(t, 100, healthScore(14, 14, 7, 2, 2))
}

func TestHealthScore_Monotonic(t *testing.T) {
	// 加分项逐个满足时评分单调不减
	scores := []int{
		healthScore(0, 0, 0, 0, 0),    // 70
		healthScore(3, 0, 0, 3.0/7, 0), // +5（有饮食记录）
		healthScore(7, 0, 0, 1, 0),     // +5+10（日均进入区间）
		healthScore(7, 3, 0, 1, 3.0/7), // +5
		healthScore(7, 7, 0, 1, 1),     // +10
		healthScore(7, 7, 1, 1, 1),     // +10 → 封顶
	}
	for i := 1; i < len(scores); i++ {
		assert.GreaterOrEqual(t, scores[i], scores[i-1], "评分不应随加分项增加而下降")
	}
	assert.Equal(t, 100, scores[len(scores)-1])
}

func TestMoodTrend(t *testing.T) {
	tests := []struct {
		name    string
		records []models.OtayoriRecord
		want    string
	}{
		{
			name:    "没有情绪相关内容",
			records: makeRecords(2, 2, 0, "今天的记录"),
			want:    "insufficient data",
		},
		{
			name: "正面多于负面",
			records: append(
				makeRecords(0, 0, 2, "今天很开心，非常活泼"),
				makeRecords(0, 0, 1, "有点焦虑")...,
			),
			want: "good",
		},
		{
			name: "负面多于正面",
			records: append(
				makeRecords(0, 0, 1, "今天很开心"),
				makeRecords(0, 0, 2, "出现呕吐，没精神")...,
			),
			want: "needs attention",
		},
		{
			name: "正负面持平",
			records: append(
				makeRecords(0, 0, 1, "今天很开心"),
				makeRecords(0, 0, 1, "有点腹泻")...,
			),
			want: "stable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, moodTrend(tt.records))
		})
	}
}

func TestAdviceFor(t *testing.T) {
	// 饮食记录过少 + 无情绪记录
	recommendations, alerts := adviceFor(0, 0.5, 2)
	assert.Len(t, recommendations, 2)
	assert.Empty(t, alerts)

	// 频率异常偏高触发警告
	recommendations, alerts = adviceFor(1, 6, 5)
	assert.Empty(t, recommendations)
	assert.Len(t, alerts, 2)
}

func TestAggregator_Compute(t *testing.T) {
	db := setupTestDB(t)
	aggregator := NewAggregator(db)

	// 窗口内2条饮食记录，窗口外1条（不应计入）
	now := time.Now().UTC()
	for _, offset := range []int{-1, -2, -10} {
		record := models.OtayoriRecord{
			ID:         "otayori-" + time.Now().Format("150405.000000") + string(rune('a'-offset)),
			PetID:      "pet-1",
			UserID:     "user-1",
			Type:       models.OtayoriTypeMeal,
			RecordDate: now.AddDate(0, 0, offset),
		}
		require.NoError(t, db.Create(&record).Error)
	}

	report, err := aggregator.Compute(context.Background(), "pet-1", models.ReportPeriodWeek)
	require.NoError(t, err)
	assert.Equal(t, 2, report.MealCount)
	assert.Equal(t, 7, report.Days)

	// 非法周期
	_, err = aggregator.Compute(context.Background(), "pet-1", "year")
	var validation *ValidationError
	require.ErrorAs(t, err, &validation)
}
