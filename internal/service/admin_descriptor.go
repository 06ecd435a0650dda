package service

import (
	"fmt"
	"sort"
	"strings"

	"github.com/relicvault/storefront/internal/constants"
)

// FieldType 字段输入类型
type FieldType string

const (
	FieldText     FieldType = "text"
	FieldNumber   FieldType = "number"
	FieldEmail    FieldType = "email"
	FieldTextarea FieldType = "textarea"
	FieldSelect   FieldType = "select"
	FieldImage    FieldType = "image"
	FieldBool     FieldType = "bool"
)

// FieldDescriptor 声明式字段描述，列表列与弹窗表单共用
type FieldDescriptor struct {
	Key        string    `json:"key"`
	Label      string    `json:"label"`
	Type       FieldType `json:"type"`
	Rules      string    `json:"rules,omitempty"`
	Searchable bool      `json:"searchable"`
	Exportable bool      `json:"exportable"`
	Options    []string  `json:"options,omitempty"`
}

// Required 规则中是否包含 required
func (f FieldDescriptor) Required() bool {
	for _, rule := range strings.Split(f.Rules, ",") {
		if strings.TrimSpace(rule) == "required" {
			return true
		}
	}
	return false
}

// EntityDescriptor 管理端实体描述
type EntityDescriptor struct {
	Resource string            `json:"resource"`
	Title    string            `json:"title"`
	IDField  string            `json:"id_field"`
	Columns  []FieldDescriptor `json:"columns"`
	Form     []FieldDescriptor `json:"form,omitempty"`
	Create   bool              `json:"create"`
	Update   bool              `json:"update"`
	Delete   bool              `json:"delete"`
	Export   bool              `json:"export"`
}

// Validate 校验描述本身是否完整
func (d EntityDescriptor) Validate() error {
	if strings.TrimSpace(d.Resource) == "" {
		return fmt.Errorf("%w: resource is empty", ErrDescriptorInvalid)
	}
	if len(d.Columns) == 0 {
		return fmt.Errorf("%w: %s has no columns", ErrDescriptorInvalid, d.Resource)
	}
	if (d.Create || d.Update) && len(d.Form) == 0 {
		return fmt.Errorf("%w: %s is writable but has no form", ErrDescriptorInvalid, d.Resource)
	}
	seen := make(map[string]struct{}, len(d.Form))
	for _, field := range d.Form {
		if strings.TrimSpace(field.Key) == "" {
			return fmt.Errorf("%w: %s form field without key", ErrDescriptorInvalid, d.Resource)
		}
		if _, ok := seen[field.Key]; ok {
			return fmt.Errorf("%w: %s duplicate form field %s", ErrDescriptorInvalid, d.Resource, field.Key)
		}
		seen[field.Key] = struct{}{}
		if field.Type == FieldSelect && len(field.Options) == 0 {
			return fmt.Errorf("%w: %s select field %s has no options", ErrDescriptorInvalid, d.Resource, field.Key)
		}
	}
	return nil
}

// SearchableColumns 参与当前页搜索的列
func (d EntityDescriptor) SearchableColumns() []FieldDescriptor {
	out := make([]FieldDescriptor, 0, len(d.Columns))
	for _, column := range d.Columns {
		if column.Searchable {
			out = append(out, column)
		}
	}
	return out
}

// ExportableColumns 参与导出的列
func (d EntityDescriptor) ExportableColumns() []FieldDescriptor {
	out := make([]FieldDescriptor, 0, len(d.Columns))
	for _, column := range d.Columns {
		if column.Exportable {
			out = append(out, column)
		}
	}
	return out
}

// DescriptorRegistry 按资源名索引的实体描述
type DescriptorRegistry struct {
	byResource map[string]EntityDescriptor
}

// NewDescriptorRegistry 注册实体描述，描述不完整时返回错误
func NewDescriptorRegistry(descriptors ...EntityDescriptor) (*DescriptorRegistry, error) {
	registry := &DescriptorRegistry{byResource: make(map[string]EntityDescriptor, len(descriptors))}
	for _, descriptor := range descriptors {
		if err := descriptor.Validate(); err != nil {
			return nil, err
		}
		if descriptor.IDField == "" {
			descriptor.IDField = "_id"
		}
		registry.byResource[descriptor.Resource] = descriptor
	}
	return registry, nil
}

// Get 获取资源描述
func (r *DescriptorRegistry) Get(resource string) (EntityDescriptor, error) {
	descriptor, ok := r.byResource[strings.TrimSpace(resource)]
	if !ok {
		return EntityDescriptor{}, fmt.Errorf("%w: %s", ErrResourceUnknown, resource)
	}
	return descriptor, nil
}

// All 按资源名排序返回全部描述
func (r *DescriptorRegistry) All() []EntityDescriptor {
	out := make([]EntityDescriptor, 0, len(r.byResource))
	for _, descriptor := range r.byResource {
		out = append(out, descriptor)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Resource < out[j].Resource })
	return out
}

// DefaultDescriptors 内置的管理端实体
func DefaultDescriptors() []EntityDescriptor {
	return []EntityDescriptor{
		{
			Resource: constants.ResourceCategories,
			Title:    "Categories",
			Columns: []FieldDescriptor{
				{Key: "name", Label: "Name", Type: FieldText, Searchable: true, Exportable: true},
				{Key: "description", Label: "Description", Type: FieldTextarea, Searchable: true, Exportable: true},
				{Key: "createdAt", Label: "Created", Type: FieldText, Exportable: true},
			},
			Form: []FieldDescriptor{
				{Key: "name", Label: "Name", Type: FieldText, Rules: "required,min=2,max=60"},
				{Key: "description", Label: "Description", Type: FieldTextarea, Rules: "max=500"},
				{Key: "image", Label: "Image", Type: FieldImage},
			},
			Create: true, Update: true, Delete: true, Export: true,
		},
		{
			Resource: constants.ResourceTeams,
			Title:    "Teams",
			Columns: []FieldDescriptor{
				{Key: "name", Label: "Name", Type: FieldText, Searchable: true, Exportable: true},
				{Key: "league", Label: "League", Type: FieldText, Searchable: true, Exportable: true},
				{Key: "country", Label: "Country", Type: FieldText, Searchable: true, Exportable: true},
			},
			Form: []FieldDescriptor{
				{Key: "name", Label: "Name", Type: FieldText, Rules: "required,min=2,max=80"},
				{Key: "league", Label: "League", Type: FieldText, Rules: "max=80"},
				{Key: "country", Label: "Country", Type: FieldText, Rules: "max=60"},
				{Key: "logo", Label: "Logo", Type: FieldImage},
			},
			Create: true, Update: true, Delete: true, Export: true,
		},
		{
			Resource: constants.ResourceProducts,
			Title:    "Products",
			Columns: []FieldDescriptor{
				{Key: "name", Label: "Name", Type: FieldText, Searchable: true, Exportable: true},
				{Key: "price", Label: "Price", Type: FieldNumber, Exportable: true},
				{Key: "countInStock", Label: "Stock", Type: FieldNumber, Exportable: true},
				{Key: "category.name", Label: "Category", Type: FieldText, Searchable: true, Exportable: true},
				{Key: "team.name", Label: "Team", Type: FieldText, Searchable: true, Exportable: true},
				{Key: "rating", Label: "Rating", Type: FieldNumber, Exportable: true},
			},
			Form: []FieldDescriptor{
				{Key: "name", Label: "Name", Type: FieldText, Rules: "required,max=120"},
				{Key: "description", Label: "Description", Type: FieldTextarea, Rules: "required,max=2000"},
				{Key: "price", Label: "Price", Type: FieldNumber, Rules: "required,gt=0"},
				{Key: "countInStock", Label: "Stock", Type: FieldNumber, Rules: "required,gte=0"},
				{Key: "category", Label: "Category", Type: FieldText, Rules: "required"},
				{Key: "team", Label: "Team", Type: FieldText},
				{Key: "images", Label: "Images", Type: FieldImage, Rules: "required"},
			},
			Create: true, Update: true, Delete: true, Export: true,
		},
		{
			Resource: constants.ResourceUsers,
			Title:    "Users",
			Columns: []FieldDescriptor{
				{Key: "name", Label: "Name", Type: FieldText, Searchable: true, Exportable: true},
				{Key: "email", Label: "Email", Type: FieldEmail, Searchable: true, Exportable: true},
				{Key: "role", Label: "Role", Type: FieldText, Searchable: true, Exportable: true},
				{Key: "createdAt", Label: "Joined", Type: FieldText, Exportable: true},
			},
			Form: []FieldDescriptor{
				{Key: "name", Label: "Name", Type: FieldText, Rules: "required,max=80"},
				{Key: "email", Label: "Email", Type: FieldEmail, Rules: "required,email"},
				{
					Key: "role", Label: "Role", Type: FieldSelect, Rules: "required",
					Options: []string{constants.RoleCustomer, constants.RoleAdmin, constants.RoleCatalogManager, constants.RoleModerator, constants.RoleSupport},
				},
			},
			Create: true, Update: true, Delete: true, Export: true,
		},
		{
			Resource: constants.ResourceReviews,
			Title:    "Reviews",
			Columns: []FieldDescriptor{
				{Key: "product.name", Label: "Product", Type: FieldText, Searchable: true, Exportable: true},
				{Key: "user.name", Label: "Author", Type: FieldText, Searchable: true, Exportable: true},
				{Key: "rating", Label: "Rating", Type: FieldNumber, Exportable: true},
				{Key: "comment", Label: "Comment", Type: FieldTextarea, Searchable: true, Exportable: true},
			},
			Delete: true, Export: true,
		},
		{
			Resource: constants.ResourceOrders,
			Title:    "Orders",
			Columns: []FieldDescriptor{
				{Key: "_id", Label: "Order", Type: FieldText, Searchable: true, Exportable: true},
				{Key: "user.email", Label: "Customer", Type: FieldEmail, Searchable: true, Exportable: true},
				{Key: "totalPrice", Label: "Total", Type: FieldNumber, Exportable: true},
				{Key: "isPaid", Label: "Paid", Type: FieldBool, Exportable: true},
				{Key: "isDelivered", Label: "Delivered", Type: FieldBool, Exportable: true},
				{Key: "createdAt", Label: "Placed", Type: FieldText, Exportable: true},
			},
			Delete: true, Export: true,
		},
	}
}
