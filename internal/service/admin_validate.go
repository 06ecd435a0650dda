package service

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/relicvault/storefront/internal/models"

	"github.com/go-playground/validator/v10"
)

// FieldError 单个字段的校验错误
type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// ValidationError 表单校验失败，携带逐字段错误
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, field := range e.Fields {
		parts = append(parts, field.Field+": "+field.Message)
	}
	return ErrValidationFailed.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrValidationFailed
}

// FieldErrorsOf 提取逐字段错误，非校验错误返回 nil
func FieldErrorsOf(err error) []FieldError {
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return validationErr.Fields
	}
	return nil
}

// FormValidator 按描述规则校验并规整弹窗表单
type FormValidator struct {
	validate *validator.Validate
}

// NewFormValidator 创建表单校验器
func NewFormValidator() *FormValidator {
	return &FormValidator{validate: validator.New(validator.WithRequiredStructEnabled())}
}

// Validate 校验提交值，返回仅包含表单字段的规整结果。
// partial 为 true 时（编辑）缺省字段保持原值，不做 required 校验。
func (v *FormValidator) Validate(form []FieldDescriptor, values models.JSON, images map[string]int, partial bool) (models.JSON, error) {
	cleaned := models.JSON{}
	var fieldErrors []FieldError

	for _, field := range form {
		if field.Type == FieldImage {
			if !partial && field.Required() && images[field.Key] == 0 {
				fieldErrors = append(fieldErrors, requiredError(field))
			}
			continue
		}

		raw, present := values[field.Key]
		if present {
			if s, ok := raw.(string); ok {
				raw = strings.TrimSpace(s)
				present = raw != ""
			} else {
				present = raw != nil
			}
		}
		if !present {
			if !partial && field.Required() {
				fieldErrors = append(fieldErrors, requiredError(field))
			}
			continue
		}

		value, err := normalizeFieldValue(field, raw)
		if err != nil {
			fieldErrors = append(fieldErrors, FieldError{Field: field.Key, Rule: string(field.Type), Message: err.Error()})
			continue
		}
		if field.Rules != "" {
			if err := v.validate.Var(value, field.Rules); err != nil {
				fieldErrors = append(fieldErrors, ruleError(field, err))
				continue
			}
		}
		cleaned[field.Key] = value
	}

	if len(fieldErrors) > 0 {
		return nil, &ValidationError{Fields: fieldErrors}
	}
	return cleaned, nil
}

func normalizeFieldValue(field FieldDescriptor, raw interface{}) (interface{}, error) {
	switch field.Type {
	case FieldNumber:
		switch n := raw.(type) {
		case float64:
			return n, nil
		case int:
			return float64(n), nil
		case int64:
			return float64(n), nil
		case string:
			parsed, err := strconv.ParseFloat(n, 64)
			if err != nil {
				return nil, fmt.Errorf("%s must be a number", field.Label)
			}
			return parsed, nil
		}
		return nil, fmt.Errorf("%s must be a number", field.Label)
	case FieldBool:
		switch b := raw.(type) {
		case bool:
			return b, nil
		case string:
			parsed, err := strconv.ParseBool(b)
			if err != nil {
				return nil, fmt.Errorf("%s must be true or false", field.Label)
			}
			return parsed, nil
		}
		return nil, fmt.Errorf("%s must be true or false", field.Label)
	case FieldSelect:
		value := fmt.Sprint(raw)
		for _, option := range field.Options {
			if option == value {
				return value, nil
			}
		}
		return nil, fmt.Errorf("%s must be one of %s", field.Label, strings.Join(field.Options, ", "))
	default:
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("%s must be text", field.Label)
		}
		return s, nil
	}
}

func requiredError(field FieldDescriptor) FieldError {
	return FieldError{Field: field.Key, Rule: "required", Message: field.Label + " is required"}
}

func ruleError(field FieldDescriptor, err error) FieldError {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) || len(errs) == 0 {
		return FieldError{Field: field.Key, Rule: "invalid", Message: field.Label + " is invalid"}
	}
	fe := errs[0]
	return FieldError{Field: field.Key, Rule: fe.Tag(), Message: ruleMessage(field, fe.Tag(), fe.Param())}
}

func ruleMessage(field FieldDescriptor, tag, param string) string {
	label := field.Label
	numeric := field.Type == FieldNumber
	switch tag {
	case "required":
		return label + " is required"
	case "email":
		return label + " must be a valid email address"
	case "min":
		if numeric {
			return fmt.Sprintf("%s must be at least %s", label, param)
		}
		return fmt.Sprintf("%s must be at least %s characters", label, param)
	case "max":
		if numeric {
			return fmt.Sprintf("%s must be at most %s", label, param)
		}
		return fmt.Sprintf("%s must be at most %s characters", label, param)
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", label, param)
	case "gte":
		return fmt.Sprintf("%s must be %s or more", label, param)
	case "lt":
		return fmt.Sprintf("%s must be less than %s", label, param)
	case "lte":
		return fmt.Sprintf("%s must be %s or less", label, param)
	case "oneof":
		return fmt.Sprintf("%s must be one of %s", label, param)
	}
	return fmt.Sprintf("%s failed %s", label, tag)
}
