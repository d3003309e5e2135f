package utils

import "github.com/google/uuid"

// GenerateID 生成全局唯一ID
func GenerateID() string {
	return uuid.New().String()
}
