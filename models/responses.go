package models

import "time"

// AnalyzeResponseDetails 分析响应的附加信息
type AnalyzeResponseDetails struct {
	Timestamp time.Time `json:"timestamp"`
}

// AnalyzeResponse AI分析响应结构体
// 保存失败时 Success 仍为 true，Saved 为 false 并附带错误说明，
// 客户端可通过保存接口单独重试。
type AnalyzeResponse struct {
	Success  bool                    `json:"success"`
	Analysis *AnalysisRecord         `json:"analysis,omitempty"`
	Saved    bool                    `json:"saved"`
	Error    string                  `json:"error,omitempty"`
	Details  *AnalyzeResponseDetails `json:"details,omitempty"`
}

// AnalysisHistoryItem 分析历史条目（分析记录+关联的日志记录）
type AnalysisHistoryItem struct {
	Analysis AnalysisRecord `json:"analysis"`
	Otayori  *OtayoriRecord `json:"otayori,omitempty"`
}

// SyncUpdatesResponse 同步更新响应结构体
type SyncUpdatesResponse struct {
	Otayori []OtayoriRecord `json:"otayori"`
	Pets    []Pet           `json:"pets"`
}
