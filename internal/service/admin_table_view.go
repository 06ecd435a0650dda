package service

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/relicvault/storefront/internal/models"
)

// TableView 某会话下某资源列表的当前页状态
type TableView struct {
	Resource  string          `json:"resource"`
	Page      int             `json:"page"`
	Limit     int             `json:"limit"`
	Total     int             `json:"total"`
	Pages     int             `json:"pages"`
	Rows      []models.JSON   `json:"rows"`
	Search    string          `json:"search"`
	Expanded  map[string]bool `json:"expanded"`
	Checked   map[string]bool `json:"checked"`
	LoadedAt  time.Time       `json:"loaded_at"`
	RefreshAt *time.Time      `json:"refresh_at,omitempty"`
}

// TableRow 渲染用的行
type TableRow struct {
	ID       string      `json:"id"`
	Values   models.JSON `json:"values"`
	Expanded bool        `json:"expanded"`
	Checked  bool        `json:"checked"`
}

// TablePage 返回给前端的列表页
type TablePage struct {
	Resource    string            `json:"resource"`
	Title       string            `json:"title"`
	Columns     []FieldDescriptor `json:"columns"`
	Form        []FieldDescriptor `json:"form,omitempty"`
	Rows        []TableRow        `json:"rows"`
	Search      string            `json:"search"`
	Page        int               `json:"page"`
	Limit       int               `json:"limit"`
	Total       int               `json:"total"`
	Pages       int               `json:"pages"`
	AllChecked  bool              `json:"all_checked"`
	Capability  Capabilities      `json:"capabilities"`
	RefreshDue  bool              `json:"refresh_pending"`
	LoadedAt    time.Time         `json:"loaded_at"`
	CheckedRows []string          `json:"checked_rows"`
}

// Capabilities 资源允许的操作
type Capabilities struct {
	Create bool `json:"create"`
	Update bool `json:"update"`
	Delete bool `json:"delete"`
	Export bool `json:"export"`
}

// FlattenRecord 将嵌套对象展开为点分键，数组保持原样
func FlattenRecord(record map[string]interface{}) models.JSON {
	out := models.JSON{}
	flattenInto(out, "", record)
	return out
}

func flattenInto(out models.JSON, prefix string, value map[string]interface{}) {
	for key, item := range value {
		full := key
		if prefix != "" {
			full = prefix + "." + key
		}
		if nested, ok := item.(map[string]interface{}); ok && len(nested) > 0 {
			flattenInto(out, full, nested)
			continue
		}
		if nested, ok := item.(models.JSON); ok && len(nested) > 0 {
			flattenInto(out, full, nested)
			continue
		}
		out[full] = item
	}
}

// CellText 单元格文本，用于搜索与导出
func CellText(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		if v {
			return "Yes"
		}
		return "No"
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case []interface{}:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, CellText(item))
		}
		return strings.Join(parts, ", ")
	case map[string]interface{}:
		if url, ok := v["url"].(string); ok {
			return url
		}
		raw, _ := json.Marshal(v)
		return string(raw)
	}
	return fmt.Sprint(value)
}

func rowID(descriptor EntityDescriptor, row models.JSON) string {
	for _, key := range []string{descriptor.IDField, "_id", "id"} {
		if key == "" {
			continue
		}
		if value, ok := row[key]; ok && value != nil {
			if text := CellText(value); text != "" {
				return text
			}
		}
	}
	return ""
}

func (v *TableView) resetRowState() {
	v.Expanded = map[string]bool{}
	v.Checked = map[string]bool{}
}

func (v *TableView) ensureState() {
	if v.Expanded == nil {
		v.Expanded = map[string]bool{}
	}
	if v.Checked == nil {
		v.Checked = map[string]bool{}
	}
}

// refreshDue 是否已到刷新时间
func (v *TableView) refreshDue(now time.Time) bool {
	return v.RefreshAt != nil && !now.Before(*v.RefreshAt)
}

// visibleRows 按搜索词过滤当前已加载的页
func (v *TableView) visibleRows(descriptor EntityDescriptor) []models.JSON {
	term := strings.ToLower(strings.TrimSpace(v.Search))
	if term == "" {
		return v.Rows
	}
	columns := descriptor.SearchableColumns()
	out := make([]models.JSON, 0, len(v.Rows))
	for _, row := range v.Rows {
		for _, column := range columns {
			if strings.Contains(strings.ToLower(CellText(row[column.Key])), term) {
				out = append(out, row)
				break
			}
		}
	}
	return out
}

func (v *TableView) indexOf(descriptor EntityDescriptor, id string) int {
	for i, row := range v.Rows {
		if rowID(descriptor, row) == id {
			return i
		}
	}
	return -1
}

func (v *TableView) removeRow(descriptor EntityDescriptor, id string) bool {
	idx := v.indexOf(descriptor, id)
	if idx < 0 {
		return false
	}
	v.Rows = append(v.Rows[:idx], v.Rows[idx+1:]...)
	delete(v.Expanded, id)
	delete(v.Checked, id)
	if v.Total > 0 {
		v.Total--
	}
	return true
}

func (v *TableView) checkedIDs() []string {
	ids := make([]string, 0, len(v.Checked))
	for id, checked := range v.Checked {
		if checked {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

func (v *TableView) toPage(descriptor EntityDescriptor, now time.Time) *TablePage {
	visible := v.visibleRows(descriptor)
	rows := make([]TableRow, 0, len(visible))
	allChecked := len(visible) > 0
	for _, row := range visible {
		id := rowID(descriptor, row)
		checked := v.Checked[id]
		if !checked {
			allChecked = false
		}
		rows = append(rows, TableRow{ID: id, Values: row, Expanded: v.Expanded[id], Checked: checked})
	}
	return &TablePage{
		Resource: descriptor.Resource,
		Title:    descriptor.Title,
		Columns:  descriptor.Columns,
		Form:     descriptor.Form,
		Rows:     rows,
		Search:   v.Search,
		Page:     v.Page,
		Limit:    v.Limit,
		Total:    v.Total,
		Pages:    v.Pages,

		AllChecked: allChecked,
		Capability: Capabilities{
			Create: descriptor.Create,
			Update: descriptor.Update,
			Delete: descriptor.Delete,
			Export: descriptor.Export,
		},
		RefreshDue:  v.RefreshAt != nil && now.Before(*v.RefreshAt),
		LoadedAt:    v.LoadedAt,
		CheckedRows: v.checkedIDs(),
	}
}
