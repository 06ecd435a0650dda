package models

import "time"

// StorageEntry 客户端持久化存储项（按客户端会话隔离的键值对）
type StorageEntry struct {
	ID        uint      `gorm:"primarykey" json:"id"`                                                                               // 主键
	SessionID string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_client_storage_session_key" json:"session_id"`             // 客户端会话ID
	Key       string    `gorm:"column:storage_key;type:varchar(64);not null;uniqueIndex:idx_client_storage_session_key" json:"key"` // 存储键
	Value     string    `gorm:"type:text;not null" json:"value"`                                                                    // JSON 文本
	CreatedAt time.Time `json:"created_at"`                                                                                         // 创建时间
	UpdatedAt time.Time `gorm:"index" json:"updated_at"`                                                                            // 更新时间
}

// TableName 指定表名
func (StorageEntry) TableName() string {
	return "client_storage"
}
