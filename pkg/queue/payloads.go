package queue

import "time"

// EventHeader 定义所有事件的通用头部元数据.
type EventHeader struct {
	// Topic 冗余记录消息主题，便于离线处理或转储后定位来源主题.
	Topic string `json:"topic"`
	// TraceID 发布时所在请求的追踪 ID.
	TraceID string `json:"trace_id,omitempty"`
	// Producer 生产者服务名.
	Producer string `json:"producer,omitempty"`
	// OccurredAt 事件发生时间（UTC，RFC3339）.
	OccurredAt time.Time `json:"occurred_at"`
	// Version 事件负载版本.
	Version string `json:"version,omitempty"`
}

// Message 是统一的消息封装，Header + Payload.
type Message[T any] struct {
	Header  EventHeader `json:"header"`
	Payload T           `json:"payload"`
}

// DocumentEvent 文档生命周期事件负载，按主题填充相关字段.
type DocumentEvent struct {
	ID         string `json:"id"`
	Status     string `json:"status"`
	FromStatus string `json:"from_status,omitempty"`
	FilePath   string `json:"file_path,omitempty"`
	// PrevPath 迁移前的对象键，仅 relocation_failed 与迁移成功的事件携带
	PrevPath string `json:"prev_path,omitempty"`
	Source   string `json:"source,omitempty"`
	Category string `json:"category,omitempty"`
	Provider string `json:"provider,omitempty"`
	Reviewer string `json:"reviewer,omitempty"`
	Error    string `json:"error,omitempty"`
}
