package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/relicvault/storefront/internal/config"
	"github.com/relicvault/storefront/internal/constants"
	"github.com/relicvault/storefront/internal/logger"
	"github.com/relicvault/storefront/internal/models"
	"github.com/relicvault/storefront/internal/queue"
	"github.com/relicvault/storefront/internal/shopapi"
)

// AdminResourceAPI 管理端资源接口
type AdminResourceAPI interface {
	ListResource(ctx context.Context, token, resource string, q shopapi.ListQuery) ([]models.JSON, shopapi.Pagination, error)
	CreateResource(ctx context.Context, token, resource string, fields models.JSON, files []shopapi.FileUpload) (models.JSON, error)
	UpdateResource(ctx context.Context, token, resource, id string, fields models.JSON, files []shopapi.FileUpload) (models.JSON, error)
	DeleteResource(ctx context.Context, token, resource, id string) error
}

// TableRefreshScheduler 延迟刷新调度
type TableRefreshScheduler interface {
	Enabled() bool
	EnqueueAdminTableRefresh(payload queue.AdminTableRefreshPayload, delay time.Duration) error
}

// AdminActor 发起管理端操作的会话
type AdminActor struct {
	SessionID string
	Token     string
}

// MutationResult 写操作结果
type MutationResult struct {
	Record models.JSON `json:"record,omitempty"`
	Page   *TablePage  `json:"page"`
}

// BulkDeleteFailure 批量删除中失败的行
type BulkDeleteFailure struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

// BulkDeleteResult 批量删除结果
type BulkDeleteResult struct {
	Deleted []string            `json:"deleted"`
	Failed  []BulkDeleteFailure `json:"failed"`
	Page    *TablePage          `json:"page"`
}

// AdminTableService 通用管理端列表：分页、当前页搜索、增删改、行状态与导出
type AdminTableService struct {
	registry  *DescriptorRegistry
	api       AdminResourceAPI
	views     KeyValueStore
	scheduler TableRefreshScheduler
	validator *FormValidator
	cfg       config.AdminConfig
	exportCfg config.ExportConfig
	locks     *sessionLocks
	now       func() time.Time
}

// NewAdminTableService 创建管理端列表服务
func NewAdminTableService(registry *DescriptorRegistry, api AdminResourceAPI, views KeyValueStore, scheduler TableRefreshScheduler, cfg config.AdminConfig, exportCfg config.ExportConfig) *AdminTableService {
	return &AdminTableService{
		registry:  registry,
		api:       api,
		views:     views,
		scheduler: scheduler,
		validator: NewFormValidator(),
		cfg:       cfg,
		exportCfg: exportCfg,
		locks:     newSessionLocks(),
		now:       time.Now,
	}
}

// Descriptors 返回全部实体描述
func (s *AdminTableService) Descriptors() []EntityDescriptor {
	return s.registry.All()
}

func viewKey(resource string) string {
	return constants.SessionKeyAdminTablePrefix + resource
}

func (s *AdminTableService) lockView(sessionID, resource string) func() {
	return s.locks.lock(sessionID + "|" + resource)
}

func (s *AdminTableService) normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	defaultSize := s.cfg.DefaultPageSize
	if defaultSize <= 0 {
		defaultSize = 10
	}
	if limit <= 0 {
		limit = defaultSize
	}
	if s.cfg.MaxPageSize > 0 && limit > s.cfg.MaxPageSize {
		limit = s.cfg.MaxPageSize
	}
	return page, limit
}

func (s *AdminTableService) loadView(ctx context.Context, sessionID, resource string) (*TableView, error) {
	var view TableView
	found, err := s.views.GetItem(ctx, sessionID, viewKey(resource), &view)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	view.ensureState()
	return &view, nil
}

func (s *AdminTableService) saveView(ctx context.Context, sessionID string, view *TableView) error {
	return s.views.SetItem(ctx, sessionID, viewKey(view.Resource), view)
}

// fetch 从 API 拉取一页并展开记录，失败时不修改已有视图
func (s *AdminTableService) fetch(ctx context.Context, actor AdminActor, descriptor EntityDescriptor, page, limit int) (*TableView, error) {
	records, pagination, err := s.api.ListResource(ctx, actor.Token, descriptor.Resource, shopapi.ListQuery{Page: page, Limit: limit})
	if err != nil {
		logger.Warnw("admin_table_fetch_failed", "resource", descriptor.Resource, "page", page, "error", err)
		return nil, mapRemoteAuthError(err, ErrAdminAPIFailed)
	}
	rows := make([]models.JSON, 0, len(records))
	for _, record := range records {
		rows = append(rows, FlattenRecord(record))
	}
	view := &TableView{
		Resource: descriptor.Resource,
		Page:     page,
		Limit:    limit,
		Total:    pagination.Total,
		Pages:    pagination.Pages,
		Rows:     rows,
		LoadedAt: s.now(),
	}
	view.resetRowState()
	return view, nil
}

// List 拉取指定页，重置行状态与搜索词
func (s *AdminTableService) List(ctx context.Context, actor AdminActor, resource string, page, limit int) (*TablePage, error) {
	if actor.SessionID == "" {
		return nil, ErrSessionRequired
	}
	descriptor, err := s.registry.Get(resource)
	if err != nil {
		return nil, err
	}
	page, limit = s.normalizePage(page, limit)

	unlock := s.lockView(actor.SessionID, descriptor.Resource)
	defer unlock()

	view, err := s.fetch(ctx, actor, descriptor, page, limit)
	if err != nil {
		return nil, err
	}
	if err := s.saveView(ctx, actor.SessionID, view); err != nil {
		return nil, err
	}
	return view.toPage(descriptor, s.now()), nil
}

// View 返回当前视图；尚未加载或已到刷新时间时重新拉取
func (s *AdminTableService) View(ctx context.Context, actor AdminActor, resource string) (*TablePage, error) {
	descriptor, view, unlock, err := s.currentView(ctx, actor, resource)
	if err != nil {
		return nil, err
	}
	defer unlock()
	return view.toPage(descriptor, s.now()), nil
}

// currentView 在会话锁内取得可用视图，调用方负责释放锁
func (s *AdminTableService) currentView(ctx context.Context, actor AdminActor, resource string) (EntityDescriptor, *TableView, func(), error) {
	if actor.SessionID == "" {
		return EntityDescriptor{}, nil, nil, ErrSessionRequired
	}
	descriptor, err := s.registry.Get(resource)
	if err != nil {
		return EntityDescriptor{}, nil, nil, err
	}
	unlock := s.lockView(actor.SessionID, descriptor.Resource)

	view, err := s.loadView(ctx, actor.SessionID, descriptor.Resource)
	if err != nil {
		unlock()
		return EntityDescriptor{}, nil, nil, err
	}
	if view == nil || view.refreshDue(s.now()) {
		page, limit := s.normalizePage(0, 0)
		search := ""
		if view != nil {
			page, limit = s.normalizePage(view.Page, view.Limit)
			search = view.Search
		}
		fresh, err := s.fetch(ctx, actor, descriptor, page, limit)
		if err != nil {
			unlock()
			return EntityDescriptor{}, nil, nil, err
		}
		fresh.Search = search
		if err := s.saveView(ctx, actor.SessionID, fresh); err != nil {
			unlock()
			return EntityDescriptor{}, nil, nil, err
		}
		view = fresh
	}
	return descriptor, view, unlock, nil
}

// Search 仅在已加载的当前页内按可搜索列做不区分大小写的子串过滤
func (s *AdminTableService) Search(ctx context.Context, actor AdminActor, resource, term string) (*TablePage, error) {
	descriptor, view, unlock, err := s.currentView(ctx, actor, resource)
	if err != nil {
		return nil, err
	}
	defer unlock()

	view.Search = strings.TrimSpace(term)
	if err := s.saveView(ctx, actor.SessionID, view); err != nil {
		return nil, err
	}
	return view.toPage(descriptor, s.now()), nil
}

// Create 校验后提交新记录，追加到当前页并安排稍后的整页刷新
func (s *AdminTableService) Create(ctx context.Context, actor AdminActor, resource string, values models.JSON, images []shopapi.FileUpload) (*MutationResult, error) {
	descriptor, err := s.registry.Get(resource)
	if err != nil {
		return nil, err
	}
	if !descriptor.Create {
		return nil, fmt.Errorf("%w: create %s", ErrOperationNotAllowed, resource)
	}
	fields, err := s.validator.Validate(descriptor.Form, values, countUploads(images), false)
	if err != nil {
		return nil, err
	}

	descriptor, view, unlock, err := s.currentView(ctx, actor, resource)
	if err != nil {
		return nil, err
	}
	defer unlock()

	created, err := s.api.CreateResource(ctx, actor.Token, descriptor.Resource, fields, images)
	if err != nil {
		logger.Warnw("admin_table_create_failed", "resource", descriptor.Resource, "error", err)
		return nil, mapRemoteAuthError(err, ErrAdminAPIFailed)
	}
	if len(created) > 0 {
		view.Rows = append(view.Rows, FlattenRecord(created))
		view.Total++
	}
	s.scheduleRefresh(ctx, actor, view)
	if err := s.saveView(ctx, actor.SessionID, view); err != nil {
		return nil, err
	}
	logger.Infow("admin_table_created", "resource", descriptor.Resource, "id", rowID(descriptor, FlattenRecord(created)))
	return &MutationResult{Record: created, Page: view.toPage(descriptor, s.now())}, nil
}

func refreshCredentialKey(resource string) string {
	return constants.SessionKeyAdminRefreshPrefix + resource
}

// scheduleRefresh 队列可用时投递延迟任务，否则标记视图在截止时间后重新拉取
// 令牌暂存在会话级存储，任务载荷只含会话与分页信息
func (s *AdminTableService) scheduleRefresh(ctx context.Context, actor AdminActor, view *TableView) {
	delay := s.cfg.RefreshDelay()
	if s.scheduler != nil && s.scheduler.Enabled() {
		err := s.views.SetItem(ctx, actor.SessionID, refreshCredentialKey(view.Resource), actor.Token)
		if err == nil {
			err = s.scheduler.EnqueueAdminTableRefresh(queue.AdminTableRefreshPayload{
				SessionID: actor.SessionID,
				Resource:  view.Resource,
				Page:      view.Page,
				Limit:     view.Limit,
			}, delay)
		}
		if err == nil {
			return
		}
		logger.Warnw("admin_table_refresh_enqueue_failed", "resource", view.Resource, "error", err)
		_ = s.views.RemoveItem(ctx, actor.SessionID, refreshCredentialKey(view.Resource))
	}
	at := s.now().Add(delay)
	view.RefreshAt = &at
}

// takeRefreshCredential 取出并删除暂存的刷新令牌
func (s *AdminTableService) takeRefreshCredential(ctx context.Context, sessionID, resource string) (string, error) {
	var token string
	found, err := s.views.GetItem(ctx, sessionID, refreshCredentialKey(resource), &token)
	if err != nil {
		return "", err
	}
	if !found || strings.TrimSpace(token) == "" {
		return "", ErrUnauthorized
	}
	if err := s.views.RemoveItem(ctx, sessionID, refreshCredentialKey(resource)); err != nil {
		logger.Warnw("admin_table_refresh_credential_cleanup_failed", "resource", resource, "error", err)
	}
	return token, nil
}

// Update 校验后提交修改，替换当前页中的对应行
func (s *AdminTableService) Update(ctx context.Context, actor AdminActor, resource, id string, values models.JSON, images []shopapi.FileUpload) (*MutationResult, error) {
	descriptor, err := s.registry.Get(resource)
	if err != nil {
		return nil, err
	}
	if !descriptor.Update {
		return nil, fmt.Errorf("%w: update %s", ErrOperationNotAllowed, resource)
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrRowNotFound
	}
	fields, err := s.validator.Validate(descriptor.Form, values, countUploads(images), true)
	if err != nil {
		return nil, err
	}

	descriptor, view, unlock, err := s.currentView(ctx, actor, resource)
	if err != nil {
		return nil, err
	}
	defer unlock()

	updated, err := s.api.UpdateResource(ctx, actor.Token, descriptor.Resource, id, fields, images)
	if err != nil {
		logger.Warnw("admin_table_update_failed", "resource", descriptor.Resource, "id", id, "error", err)
		return nil, mapRemoteAuthError(err, ErrAdminAPIFailed)
	}
	if idx := view.indexOf(descriptor, id); idx >= 0 {
		if len(updated) > 0 {
			view.Rows[idx] = FlattenRecord(updated)
		} else {
			for key, value := range fields {
				view.Rows[idx][key] = value
			}
		}
	}
	if err := s.saveView(ctx, actor.SessionID, view); err != nil {
		return nil, err
	}
	logger.Infow("admin_table_updated", "resource", descriptor.Resource, "id", id)
	return &MutationResult{Record: updated, Page: view.toPage(descriptor, s.now())}, nil
}

// Delete 确认后删除单行
func (s *AdminTableService) Delete(ctx context.Context, actor AdminActor, resource, id string, confirmed bool) (*TablePage, error) {
	descriptor, err := s.registry.Get(resource)
	if err != nil {
		return nil, err
	}
	if !descriptor.Delete {
		return nil, fmt.Errorf("%w: delete %s", ErrOperationNotAllowed, resource)
	}
	if !confirmed {
		return nil, ErrConfirmationRequired
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrRowNotFound
	}

	descriptor, view, unlock, err := s.currentView(ctx, actor, resource)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if err := s.api.DeleteResource(ctx, actor.Token, descriptor.Resource, id); err != nil {
		logger.Warnw("admin_table_delete_failed", "resource", descriptor.Resource, "id", id, "error", err)
		return nil, mapRemoteAuthError(err, ErrAdminAPIFailed)
	}
	view.removeRow(descriptor, id)
	if err := s.saveView(ctx, actor.SessionID, view); err != nil {
		return nil, err
	}
	logger.Infow("admin_table_deleted", "resource", descriptor.Resource, "id", id)
	return view.toPage(descriptor, s.now()), nil
}

// BulkDelete 逐个删除选中行；ids 为空时使用已勾选的行
func (s *AdminTableService) BulkDelete(ctx context.Context, actor AdminActor, resource string, ids []string, confirmed bool) (*BulkDeleteResult, error) {
	descriptor, err := s.registry.Get(resource)
	if err != nil {
		return nil, err
	}
	if !descriptor.Delete {
		return nil, fmt.Errorf("%w: delete %s", ErrOperationNotAllowed, resource)
	}
	if !confirmed {
		return nil, ErrConfirmationRequired
	}

	descriptor, view, unlock, err := s.currentView(ctx, actor, resource)
	if err != nil {
		return nil, err
	}
	defer unlock()

	targets := uniqueIDs(ids)
	if len(targets) == 0 {
		targets = view.checkedIDs()
	}
	if len(targets) == 0 {
		return nil, ErrBulkSelectionRequired
	}

	result := &BulkDeleteResult{Deleted: []string{}, Failed: []BulkDeleteFailure{}}
	for _, id := range targets {
		if err := s.api.DeleteResource(ctx, actor.Token, descriptor.Resource, id); err != nil {
			logger.Warnw("admin_table_bulk_delete_item_failed", "resource", descriptor.Resource, "id", id, "error", err)
			result.Failed = append(result.Failed, BulkDeleteFailure{ID: id, Error: deleteFailureText(err)})
			continue
		}
		view.removeRow(descriptor, id)
		result.Deleted = append(result.Deleted, id)
	}
	if err := s.saveView(ctx, actor.SessionID, view); err != nil {
		return nil, err
	}
	result.Page = view.toPage(descriptor, s.now())
	logger.Infow("admin_table_bulk_deleted", "resource", descriptor.Resource, "deleted", len(result.Deleted), "failed", len(result.Failed))
	if len(result.Failed) > 0 {
		return result, fmt.Errorf("%w: %d of %d", ErrPartialDelete, len(result.Failed), len(targets))
	}
	return result, nil
}

// ToggleExpand 切换行详情展开状态
func (s *AdminTableService) ToggleExpand(ctx context.Context, actor AdminActor, resource, id string) (*TablePage, error) {
	return s.toggle(ctx, actor, resource, id, func(view *TableView) {
		view.Expanded[id] = !view.Expanded[id]
	})
}

// ToggleCheck 切换行勾选状态
func (s *AdminTableService) ToggleCheck(ctx context.Context, actor AdminActor, resource, id string) (*TablePage, error) {
	return s.toggle(ctx, actor, resource, id, func(view *TableView) {
		view.Checked[id] = !view.Checked[id]
	})
}

func (s *AdminTableService) toggle(ctx context.Context, actor AdminActor, resource, id string, apply func(view *TableView)) (*TablePage, error) {
	descriptor, view, unlock, err := s.currentView(ctx, actor, resource)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if view.indexOf(descriptor, id) < 0 {
		return nil, fmt.Errorf("%w: %s", ErrRowNotFound, id)
	}
	apply(view)
	if err := s.saveView(ctx, actor.SessionID, view); err != nil {
		return nil, err
	}
	return view.toPage(descriptor, s.now()), nil
}

// SelectAll 将当前可见行的勾选状态统一设置为 checked
func (s *AdminTableService) SelectAll(ctx context.Context, actor AdminActor, resource string, checked bool) (*TablePage, error) {
	descriptor, view, unlock, err := s.currentView(ctx, actor, resource)
	if err != nil {
		return nil, err
	}
	defer unlock()

	for _, row := range view.visibleRows(descriptor) {
		view.Checked[rowID(descriptor, row)] = checked
	}
	if err := s.saveView(ctx, actor.SessionID, view); err != nil {
		return nil, err
	}
	return view.toPage(descriptor, s.now()), nil
}

// Refresh 由队列任务调用，按原页码重新拉取并保留搜索词
func (s *AdminTableService) Refresh(ctx context.Context, payload queue.AdminTableRefreshPayload) error {
	descriptor, err := s.registry.Get(payload.Resource)
	if err != nil {
		return err
	}
	page, limit := s.normalizePage(payload.Page, payload.Limit)

	unlock := s.lockView(payload.SessionID, descriptor.Resource)
	defer unlock()

	token, err := s.takeRefreshCredential(ctx, payload.SessionID, descriptor.Resource)
	if err != nil {
		return err
	}
	actor := AdminActor{SessionID: payload.SessionID, Token: token}

	current, err := s.loadView(ctx, actor.SessionID, descriptor.Resource)
	if err != nil {
		return err
	}
	fresh, err := s.fetch(ctx, actor, descriptor, page, limit)
	if err != nil {
		return err
	}
	if current != nil {
		fresh.Search = current.Search
	}
	return s.saveView(ctx, actor.SessionID, fresh)
}

func countUploads(images []shopapi.FileUpload) map[string]int {
	counts := make(map[string]int, len(images))
	for _, image := range images {
		counts[image.Field]++
	}
	return counts
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func deleteFailureText(err error) string {
	if msg := shopapi.MessageOf(err); msg != "" {
		return msg
	}
	if errors.Is(err, shopapi.ErrRequestFailed) {
		return ErrAdminAPIFailed.Error()
	}
	return err.Error()
}
