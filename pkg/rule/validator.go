// Package rule 封装 go-playground/validator，结构体标签名为 rule.
//
// gin 的绑定校验与 ValidateStruct 共用同一个实例，所以请求体与配置使用同一套规则，
// 包括这里注册的自定义规则：
//   - objectkey：桶内对象键，非空、不以 / 开头、不含 .. 与空段
//   - docid：文档 ID，1 到 64 位字母数字、- 或 _
package rule

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

const tagName = "rule"

var (
	inst *validator.Validate
	once sync.Once

	docIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)
)

// initValidator 复用 gin 的 validator 引擎，gin 未使用 go-playground 时新建实例.
func initValidator() {
	if engine, ok := binding.Validator.Engine().(*validator.Validate); ok && engine != nil {
		inst = engine
	} else {
		inst = validator.New()
	}

	inst.SetTagName(tagName)
	inst.RegisterTagNameFunc(fieldName)

	_ = inst.RegisterValidation("objectkey", func(fl validator.FieldLevel) bool {
		return ValidObjectKey(fl.Field().String())
	})
	_ = inst.RegisterValidation("docid", func(fl validator.FieldLevel) bool {
		return docIDPattern.MatchString(fl.Field().String())
	})
}

// fieldName 错误信息中的字段名取 json 或 form 标签，与请求中的字段一致.
func fieldName(f reflect.StructField) string {
	for _, tag := range []string{"json", "form", "mapstructure"} {
		name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
		if name == "-" {
			return ""
		}

		if name != "" {
			return name
		}
	}

	return f.Name
}

func lazyInit() {
	once.Do(initValidator)
}

// Engine 返回全局 *validator.Validate.
func Engine() *validator.Validate {
	lazyInit()

	return inst
}

// RegisterValidation 注册自定义规则.
func RegisterValidation(tag string, fn validator.Func, opts ...bool) error {
	lazyInit()

	return inst.RegisterValidation(tag, fn, opts...)
}

// RegisterAlias 注册别名规则.
func RegisterAlias(alias, rules string) {
	lazyInit()

	inst.RegisterAlias(alias, rules)
}

// ValidateStruct 校验结构体，返回原始错误，可用 Errors 展开.
func ValidateStruct(s any) error {
	lazyInit()

	return inst.Struct(s)
}

// ValidateVar 按规则校验单个值，例如 ValidateVar(key, "required,objectkey").
func ValidateVar(field any, tag string) error {
	lazyInit()

	return inst.Var(field, tag)
}

// ValidationErrors 字段名到可读错误的映射.
type ValidationErrors map[string]string

// Errors 把校验错误展开为字段映射，err 不是校验错误时返回 nil.
func Errors(err error) ValidationErrors {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return nil
	}

	out := make(ValidationErrors, len(ve))

	for _, fe := range ve {
		ns := fe.Namespace()
		if _, rest, ok := strings.Cut(ns, "."); ok {
			ns = rest
		}

		out[ns] = describe(fe)
	}

	return out
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "min", "gte":
		return "must be at least " + fe.Param()
	case "max", "lte":
		return "must be at most " + fe.Param()
	case "objectkey":
		return "must be a relative object key without empty or '..' segments"
	case "docid":
		return "must be a document id"
	default:
		return fmt.Sprintf("failed rule %q", fe.Tag())
	}
}

// ValidObjectKey 判断对象键是否可以安全地拼到桶内路径.
func ValidObjectKey(key string) bool {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return false
	}

	for seg := range strings.SplitSeq(key, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return false
		}
	}

	return true
}
