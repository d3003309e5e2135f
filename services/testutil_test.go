package services

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/yumi-nakamura/GharProject-sub000/config"
	"github.com/yumi-nakamura/GharProject-sub000/models"
	"github.com/yumi-nakamura/GharProject-sub000/utils"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func init() {
	config.Logger = zap.NewNop().Sugar()
}

// setupTestDB 为每个测试创建独立的sqlite数据库
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("打开测试数据库失败: %v", err)
	}
	err = db.AutoMigrate(
		&models.User{},
		&models.Pet{},
		&models.OtayoriRecord{},
		&models.AnalysisRecord{},
	)
	if err != nil {
		t.Fatalf("迁移测试数据库失败: %v", err)
	}
	return db
}

// memExclusionSet 测试用的内存实现
type memExclusionSet struct {
	mu   sync.Mutex
	sets map[string]map[string]struct{}
}

func newMemExclusionSet() *memExclusionSet {
	return &memExclusionSet{sets: make(map[string]map[string]struct{})}
}

func (s *memExclusionSet) Add(_ context.Context, uid, otayoriID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sets[uid] == nil {
		s.sets[uid] = make(map[string]struct{})
	}
	s.sets[uid][otayoriID] = struct{}{}
	return nil
}

func (s *memExclusionSet) Members(_ context.Context, uid string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	members := make([]string, 0, len(s.sets[uid]))
	for id := range s.sets[uid] {
		members = append(members, id)
	}
	return members, nil
}

func (s *memExclusionSet) Remove(_ context.Context, uid, otayoriID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sets[uid], otayoriID)
	return nil
}

// newTestOtayori 创建一条测试用日志记录
func newTestOtayori(t *testing.T, db *gorm.DB, uid, petID, otayoriType, photoURL string) models.OtayoriRecord {
	t.Helper()
	now := time.Now().UTC()
	record := models.OtayoriRecord{
		ID:           utils.GenerateID(),
		PetID:        petID,
		UserID:       uid,
		Type:         otayoriType,
		Content:      "测试记录",
		PhotoURL:     photoURL,
		RecordDate:   now,
		LastModified: now,
	}
	if err := db.Create(&record).Error; err != nil {
		t.Fatalf("创建测试日志记录失败: %v", err)
	}
	return record
}
