package worker

import (
	"context"
	"errors"

	"github.com/relicvault/storefront/internal/logger"
	"github.com/relicvault/storefront/internal/provider"
	"github.com/relicvault/storefront/internal/queue"
	"github.com/relicvault/storefront/internal/service"

	"github.com/hibiken/asynq"
)

// TableRefresher 管理端列表刷新
type TableRefresher interface {
	Refresh(ctx context.Context, payload queue.AdminTableRefreshPayload) error
}

// Consumer 异步任务消费者
type Consumer struct {
	refresher TableRefresher
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	if c == nil {
		return &Consumer{}
	}
	consumer := &Consumer{}
	if c.AdminTableService != nil {
		consumer.refresher = c.AdminTableService
	}
	return consumer
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskAdminTableRefresh, c.handleAdminTableRefresh)
}

func (c *Consumer) handleAdminTableRefresh(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_admin_table_refresh_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	payload, err := queue.ParseAdminTableRefreshPayload(task)
	if err != nil {
		logger.Warnw("worker_admin_table_refresh_payload_invalid", "error", err)
		return nil
	}
	if c.refresher == nil {
		logger.Warnw("worker_admin_table_refresh_skip_service_nil", "resource", payload.Resource)
		return nil
	}
	if err := c.refresher.Refresh(ctx, payload); err != nil {
		switch {
		case errors.Is(err, service.ErrResourceUnknown):
			logger.Debugw("worker_admin_table_refresh_skip_unknown_resource", "resource", payload.Resource)
			return nil
		case errors.Is(err, service.ErrUnauthorized), errors.Is(err, service.ErrForbidden):
			logger.Debugw("worker_admin_table_refresh_skip_auth", "resource", payload.Resource, "error", err)
			return nil
		default:
			logger.Warnw("worker_admin_table_refresh_failed", "resource", payload.Resource, "page", payload.Page, "error", err)
			return err
		}
	}
	logger.Debugw("worker_admin_table_refreshed", "resource", payload.Resource, "page", payload.Page)
	return nil
}
