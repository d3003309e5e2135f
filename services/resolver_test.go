package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yumi-nakamura/GharProject-sub000/models"
)

const testRecordUUID = "3e9f1c2a-88b1-4f0e-9c3d-1a2b3c4d5e6f"

func TestResolveStrategies_Extract(t *testing.T) {
	strategies := DefaultResolveStrategies()
	byName := map[string]ResolveStrategy{}
	for _, s := range strategies {
		byName[s.Name] = s
	}
	require.Len(t, byName, 3)

	tests := []struct {
		strategy string
		req      models.AnalyzeRequest
		want     string
	}{
		{"explicit_id", models.AnalyzeRequest{OtayoriID: "abc"}, "abc"},
		{"explicit_id", models.AnalyzeRequest{}, ""},
		{"photo_path", models.AnalyzeRequest{ImageRef: "https://cdn.example.com/otayori/" + testRecordUUID + "/photo.jpg"}, testRecordUUID},
		{"photo_path", models.AnalyzeRequest{ImageRef: "https://cdn.example.com/misc/photo.jpg"}, ""},
		// 新版路径规则不应误吞旧版路径
		{"photo_path", models.AnalyzeRequest{ImageRef: "otayori_photos/" + testRecordUUID + ".jpg"}, ""},
		{"legacy_photo_path", models.AnalyzeRequest{ImageRef: "otayori_photos/" + testRecordUUID + ".jpg"}, testRecordUUID},
		{"legacy_photo_path", models.AnalyzeRequest{ImageRef: "otayori_photos/" + testRecordUUID + "/1.jpg"}, testRecordUUID},
		// 后面没有分隔符时不算合法的旧版路径
		{"legacy_photo_path", models.AnalyzeRequest{ImageRef: "otayori_photos/" + testRecordUUID}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.strategy+"/"+tt.req.ImageRef+tt.req.OtayoriID, func(t *testing.T) {
			req := tt.req
			assert.Equal(t, tt.want, byName[tt.strategy].Extract(&req))
		})
	}
}

func TestResolve_ExplicitID(t *testing.T) {
	db := setupTestDB(t)
	record := newTestOtayori(t, db, "user-1", "pet-1", models.OtayoriTypeMeal, "")
	resolver := NewEntryResolver(db)

	got, err := resolver.Resolve(context.Background(), "user-1", &models.AnalyzeRequest{
		AnalysisType: models.OtayoriTypeMeal,
		OtayoriID:    record.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, record.ID, got.ID)
}

func TestResolve_UnknownIDFallsThrough(t *testing.T) {
	// 显式ID不存在时继续走路径策略，而不是直接报错
	db := setupTestDB(t)
	resolver := NewEntryResolver(db)

	record := models.OtayoriRecord{
		ID:         testRecordUUID,
		PetID:      "pet-1",
		UserID:     "user-1",
		Type:       models.OtayoriTypePoop,
		RecordDate: time.Now().UTC(),
	}
	require.NoError(t, db.Create(&record).Error)

	got, err := resolver.Resolve(context.Background(), "user-1", &models.AnalyzeRequest{
		AnalysisType: models.OtayoriTypePoop,
		OtayoriID:    "no-such-record",
		ImageRef:     "https://cdn.example.com/otayori/" + testRecordUUID + "/p.jpg",
	})
	require.NoError(t, err)
	assert.Equal(t, testRecordUUID, got.ID)
}

func TestResolve_ExactPhotoURLMatch(t *testing.T) {
	db := setupTestDB(t)
	photoURL := "https://cdn.example.com/uploads/20240801.jpg"
	record := newTestOtayori(t, db, "user-1", "pet-1", models.OtayoriTypeMeal, photoURL)
	resolver := NewEntryResolver(db)

	got, err := resolver.Resolve(context.Background(), "user-1", &models.AnalyzeRequest{
		AnalysisType: models.OtayoriTypeMeal,
		ImageRef:     photoURL,
	})
	require.NoError(t, err)
	assert.Equal(t, record.ID, got.ID)

	// 其他用户的同名照片不可见，应创建占位记录
	got, err = resolver.Resolve(context.Background(), "user-2", &models.AnalyzeRequest{
		AnalysisType: models.OtayoriTypeMeal,
		ImageRef:     photoURL,
	})
	require.NoError(t, err)
	assert.NotEqual(t, record.ID, got.ID)
	assert.Equal(t, PlaceholderContent, got.Content)
}

func TestResolve_SkipsDeletedRecords(t *testing.T) {
	db := setupTestDB(t)
	record := newTestOtayori(t, db, "user-1", "pet-1", models.OtayoriTypeMeal, "")
	require.NoError(t, db.Model(&models.OtayoriRecord{}).Where("id = ?", record.ID).Update("status", 1).Error)
	resolver := NewEntryResolver(db)

	got, err := resolver.Resolve(context.Background(), "user-1", &models.AnalyzeRequest{
		AnalysisType: models.OtayoriTypeMeal,
		OtayoriID:    record.ID,
	})
	require.NoError(t, err)
	assert.NotEqual(t, record.ID, got.ID)
	assert.Equal(t, PlaceholderContent, got.Content)
}

func TestResolve_PlaceholderCreation(t *testing.T) {
	db := setupTestDB(t)
	resolver := NewEntryResolver(db)

	// 用户有宠物档案时占位记录归属最近更新的宠物
	now := time.Now().UTC()
	pets := []models.Pet{
		{ID: "pet-old", UserID: "user-1", Name: "小白", LastModified: now.Add(-time.Hour)},
		{ID: "pet-new", UserID: "user-1", Name: "小黑", LastModified: now},
	}
	for i := range pets {
		require.NoError(t, db.Create(&pets[i]).Error)
	}

	got, err := resolver.Resolve(context.Background(), "user-1", &models.AnalyzeRequest{
		AnalysisType: models.OtayoriTypeEmotion,
		ImageRef:     "https://cdn.example.com/unmatched.jpg",
	})
	require.NoError(t, err)
	assert.Equal(t, "pet-new", got.PetID)
	assert.Equal(t, "user-1", got.UserID)
	assert.Equal(t, models.OtayoriTypeEmotion, got.Type)
	assert.Equal(t, PlaceholderContent, got.Content)
	assert.Equal(t, "https://cdn.example.com/unmatched.jpg", got.PhotoURL)

	// 占位记录必须已落库
	var stored models.OtayoriRecord
	require.NoError(t, db.Where("id = ?", got.ID).First(&stored).Error)

	// 没有宠物档案时退回用户ID
	got, err = resolver.Resolve(context.Background(), "user-no-pet", &models.AnalyzeRequest{
		AnalysisType: models.OtayoriTypeMeal,
	})
	require.NoError(t, err)
	assert.Equal(t, "user-no-pet", got.PetID)

	// 请求显式指定宠物时直接使用
	got, err = resolver.Resolve(context.Background(), "user-1", &models.AnalyzeRequest{
		AnalysisType: models.OtayoriTypeMeal,
		PetID:        "pet-old",
	})
	require.NoError(t, err)
	assert.Equal(t, "pet-old", got.PetID)
}
