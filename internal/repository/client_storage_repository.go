package repository

import (
	"errors"
	"time"

	"github.com/relicvault/storefront/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ClientStorageRepository 客户端持久化存储数据访问接口
type ClientStorageRepository interface {
	Get(sessionID, key string) (*models.StorageEntry, error)
	ListBySession(sessionID string) ([]models.StorageEntry, error)
	Put(sessionID, key, value string) error
	Delete(sessionID string, keys ...string) error
	PurgeUpdatedBefore(cutoff time.Time, batchSize int) (int64, error)
	WithTx(tx *gorm.DB) *GormClientStorageRepository
}

// GormClientStorageRepository GORM 实现
type GormClientStorageRepository struct {
	db *gorm.DB
}

// NewClientStorageRepository 创建客户端存储仓库
func NewClientStorageRepository(db *gorm.DB) *GormClientStorageRepository {
	return &GormClientStorageRepository{db: db}
}

// WithTx 绑定事务
func (r *GormClientStorageRepository) WithTx(tx *gorm.DB) *GormClientStorageRepository {
	if tx == nil {
		return r
	}
	return &GormClientStorageRepository{db: tx}
}

// Get 读取单个存储项，不存在时返回 nil
func (r *GormClientStorageRepository) Get(sessionID, key string) (*models.StorageEntry, error) {
	var entry models.StorageEntry
	err := r.db.Where("session_id = ? AND storage_key = ?", sessionID, key).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// ListBySession 列出会话下的全部存储项
func (r *GormClientStorageRepository) ListBySession(sessionID string) ([]models.StorageEntry, error) {
	var entries []models.StorageEntry
	if err := r.db.Where("session_id = ?", sessionID).Order("storage_key asc").Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// Put 写入存储项（存在则覆盖）
func (r *GormClientStorageRepository) Put(sessionID, key, value string) error {
	now := time.Now()
	entry := models.StorageEntry{
		SessionID: sessionID,
		Key:       key,
		Value:     value,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_id"}, {Name: "storage_key"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"value": value, "updated_at": now}),
	}).Create(&entry).Error
}

// Delete 删除会话下的指定存储项
func (r *GormClientStorageRepository) Delete(sessionID string, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return r.db.Where("session_id = ? AND storage_key IN ?", sessionID, keys).Delete(&models.StorageEntry{}).Error
}

// PurgeUpdatedBefore 分批删除长期未更新的存储项，返回删除总数
func (r *GormClientStorageRepository) PurgeUpdatedBefore(cutoff time.Time, batchSize int) (int64, error) {
	if batchSize <= 0 {
		batchSize = 500
	}
	var total int64
	for {
		var ids []uint
		if err := r.db.Model(&models.StorageEntry{}).
			Where("updated_at < ?", cutoff).
			Order("id asc").
			Limit(batchSize).
			Pluck("id", &ids).Error; err != nil {
			return total, err
		}
		if len(ids) == 0 {
			return total, nil
		}
		result := r.db.Where("id IN ?", ids).Delete(&models.StorageEntry{})
		if result.Error != nil {
			return total, result.Error
		}
		total += result.RowsAffected
		if len(ids) < batchSize {
			return total, nil
		}
	}
}
