package worker

import (
	"context"
	"sync"
	"time"

	"github.com/relicvault/storefront/internal/logger"
)

const (
	storagePurgeInterval  = time.Hour
	storagePurgeBatchSize = 500
)

// StoragePurger 清理长期未更新的客户端持久化存储
type StoragePurger interface {
	PurgeUpdatedBefore(cutoff time.Time, batchSize int) (int64, error)
}

// StoragePurgeService 按保留期定时清理 client_storage，不依赖队列
type StoragePurgeService struct {
	purger    StoragePurger
	retention time.Duration
	interval  time.Duration
	now       func() time.Time
	stop      chan struct{}
	stopOnce  sync.Once
}

// NewStoragePurgeService 创建清理服务，保留期未配置时返回 nil
func NewStoragePurgeService(purger StoragePurger, retention time.Duration) *StoragePurgeService {
	if purger == nil || retention <= 0 {
		return nil
	}
	return &StoragePurgeService{
		purger:    purger,
		retention: retention,
		interval:  storagePurgeInterval,
		now:       time.Now,
		stop:      make(chan struct{}),
	}
}

// Name 服务名称
func (s *StoragePurgeService) Name() string {
	return "storage_purge"
}

// Start 立即清理一次，之后按间隔执行直到停止
func (s *StoragePurgeService) Start(ctx context.Context) error {
	logger.Infow("storage_purge_starting", "retention", s.retention.String(), "interval", s.interval.String())
	s.purgeOnce()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.stop:
			return nil
		case <-ticker.C:
			s.purgeOnce()
		}
	}
}

// Stop 停止定时清理
func (s *StoragePurgeService) Stop(context.Context) error {
	s.stopOnce.Do(func() { close(s.stop) })
	return nil
}

// purgeOnce 删除早于保留期的客户端存储项
func (s *StoragePurgeService) purgeOnce() {
	removed, err := s.purger.PurgeUpdatedBefore(s.now().Add(-s.retention), storagePurgeBatchSize)
	if err != nil {
		logger.Warnw("storage_purge_failed", "removed", removed, "error", err)
		return
	}
	if removed > 0 {
		logger.Infow("storage_purged", "removed", removed)
	}
}
