package queue

import (
	"encoding/json"
	"fmt"

	"github.com/relicvault/storefront/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskAdminTableRefresh 管理端列表延迟刷新任务
	TaskAdminTableRefresh = constants.TaskAdminTableRefresh
)

// AdminTableRefreshPayload 列表刷新任务载荷
// 不携带管理员令牌，令牌由会话级存储暂存并在刷新时取出
type AdminTableRefreshPayload struct {
	SessionID string `json:"session_id"`
	Resource  string `json:"resource"`
	Page      int    `json:"page"`
	Limit     int    `json:"limit"`
}

// NewAdminTableRefreshTask 创建列表刷新任务
func NewAdminTableRefreshTask(payload AdminTableRefreshPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAdminTableRefresh, body), nil
}

// ParseAdminTableRefreshPayload 解析列表刷新任务载荷
func ParseAdminTableRefreshPayload(task *asynq.Task) (AdminTableRefreshPayload, error) {
	var payload AdminTableRefreshPayload
	if task == nil {
		return payload, fmt.Errorf("task is nil")
	}
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return payload, err
	}
	if payload.SessionID == "" || payload.Resource == "" {
		return payload, fmt.Errorf("invalid %s payload", TaskAdminTableRefresh)
	}
	return payload, nil
}
