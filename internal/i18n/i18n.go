// Package i18n 提供国际化消息和校验器翻译
package i18n

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/locales/en"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"
	"github.com/weiwangfds/notebox/internal/logger"
)

// 支持的语言
const (
	LangEnUS = "en-US"
	LangZhCN = "zh-CN"
)

var (
	instance *I18n
	once     sync.Once

	translations = map[string]map[string]string{
		LangEnUS: {
			"success":               "success",
			"internal_server_error": "Internal server error.",
			"invalid_params":        "Malformed request.",
			"unauthorized":          "Authentication credentials were not provided or are invalid.",
			"forbidden":             "You do not have permission to perform this action.",
			"not_found":             "Not found.",
			"validation_failed":     "Validation failed.",
			"invalid_credentials":   "No active account found with the given credentials.",
			"token_invalid":         "Token is invalid or expired.",
			"database_query":        "Internal server error.",
			"database_insert":       "Internal server error.",
			"database_update":       "Internal server error.",
			"database_delete":       "Internal server error.",
			"database_transaction":  "Internal server error.",
			"unknown_error":         "Unknown error.",

			"field_required":   "This field is required.",
			"field_blank":      "This field may not be blank.",
			"field_too_long":   "Ensure this field has no more than %d characters.",
			"invalid_pk":       "Invalid pk \"%d\" - object does not exist.",
			"duplicate_pk":     "Duplicate pk \"%d\".",
			"list_empty":       "This list may not be empty.",
			"tag_name_taken":   "tag with this name already exists.",
			"username_taken":   "A user with that username already exists.",
			"username_invalid": "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters.",
			"reordered":        "Notes reordered successfully.",

			"password_too_long": "Ensure this field has no more than %d bytes.",
			"invalid_type":      "Incorrect type.",
			"invalid_integer":   "A valid integer is required.",
			"invalid_boolean":   "Must be a valid boolean.",
			"max_value":         "Ensure this value is less than or equal to %d.",
		},
		LangZhCN: {
			"success":               "成功",
			"internal_server_error": "服务器内部错误",
			"invalid_params":        "请求格式错误",
			"unauthorized":          "未提供身份认证信息或认证信息无效",
			"forbidden":             "没有执行该操作的权限",
			"not_found":             "未找到",
			"validation_failed":     "参数校验失败",
			"invalid_credentials":   "用户名或密码错误",
			"token_invalid":         "令牌无效或已过期",
			"database_query":        "服务器内部错误",
			"database_insert":       "服务器内部错误",
			"database_update":       "服务器内部错误",
			"database_delete":       "服务器内部错误",
			"database_transaction":  "服务器内部错误",
			"unknown_error":         "未知错误",

			"field_required":   "该字段是必填项。",
			"field_blank":      "该字段不能为空。",
			"field_too_long":   "请确保该字段不超过 %d 个字符。",
			"invalid_pk":       "无效的主键 \"%d\" - 对象不存在。",
			"duplicate_pk":     "重复的主键 \"%d\"。",
			"list_empty":       "列表不能为空。",
			"tag_name_taken":   "具有该名称的标签已存在。",
			"username_taken":   "该用户名已被注册。",
			"username_invalid": "请输入有效的用户名，只能包含字母、数字和 @/./+/-/_ 字符。",
			"reordered":        "笔记排序已更新。",

			"password_too_long": "请确保该字段不超过 %d 个字节。",
			"invalid_type":      "类型错误。",
			"invalid_integer":   "请填写合法的整数值。",
			"invalid_boolean":   "必须是有效的布尔值。",
			"max_value":         "请确保该值小于或者等于 %d。",
		},
	}
)

// I18n 国际化管理器
type I18n struct {
	translators map[string]ut.Translator
	defaultLang string

	mu         sync.Mutex
	registered *validator.Validate
}

// GetInstance 获取单例
func GetInstance() *I18n {
	once.Do(func() {
		instance = &I18n{
			translators: make(map[string]ut.Translator),
			defaultLang: LangEnUS,
		}
		instance.initTranslators()
	})
	return instance
}

func (i *I18n) initTranslators() {
	enLocale := en.New()
	zhLocale := zh.New()
	uni := ut.New(enLocale, enLocale, zhLocale)

	langMappings := map[string]string{
		LangEnUS: "en",
		LangZhCN: "zh",
	}

	for ourLang, localeLang := range langMappings {
		trans, found := uni.GetTranslator(localeLang)
		if !found {
			logger.Errorf("translator not found for %s (locale %s)", ourLang, localeLang)
			continue
		}
		i.translators[ourLang] = trans
	}
}

// RegisterValidator 注册校验器翻译
// 让 v 使用 json 字段名，并为每种支持的语言安装默认翻译。
// 翻译器只能绑定一个校验器：重复注册同一个 v 不做任何事，注册其他校验器返回错误
func (i *I18n) RegisterValidator(v *validator.Validate) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.registered == v {
		return nil
	}
	if i.registered != nil {
		return fmt.Errorf("i18n: translators already bound to another validator")
	}

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})

	if trans, ok := i.translators[LangEnUS]; ok {
		if err := en_translations.RegisterDefaultTranslations(v, trans); err != nil {
			return fmt.Errorf("register en validator translations: %w", err)
		}
	}
	if trans, ok := i.translators[LangZhCN]; ok {
		if err := zh_translations.RegisterDefaultTranslations(v, trans); err != nil {
			return fmt.Errorf("register zh validator translations: %w", err)
		}
	}
	i.registered = v
	return nil
}

// Translate 翻译消息，找不到时回退到默认语言，再回退到 key 本身
func (i *I18n) Translate(key, lang string) string {
	if translation, found := translations[lang][key]; found {
		return translation
	}
	if translation, found := translations[i.defaultLang][key]; found {
		return translation
	}
	logger.Warnf("missing translation: %s (%s)", key, lang)
	return key
}

// Translatef 带参数的翻译
func (i *I18n) Translatef(key, lang string, args ...interface{}) string {
	return fmt.Sprintf(i.Translate(key, lang), args...)
}

// TranslateValidation 按字段名汇总校验错误
func (i *I18n) TranslateValidation(errs validator.ValidationErrors, lang string) map[string][]string {
	trans, ok := i.translators[lang]
	if !ok {
		trans = i.translators[i.defaultLang]
	}

	fields := make(map[string][]string, len(errs))
	for _, fe := range errs {
		msg := fe.Error()
		if trans != nil {
			msg = fe.Translate(trans)
		}
		fields[fe.Field()] = append(fields[fe.Field()], msg)
	}
	return fields
}

// SetDefaultLanguage 设置默认语言
func (i *I18n) SetDefaultLanguage(lang string) {
	if _, ok := translations[lang]; ok {
		i.defaultLang = lang
	}
}

// GetDefaultLanguage 获取默认语言
func (i *I18n) GetDefaultLanguage() string {
	return i.defaultLang
}

// IsSupportedLanguage 是否为支持的语言
func (i *I18n) IsSupportedLanguage(lang string) bool {
	_, exists := translations[lang]
	return exists
}

// ParseAcceptLanguage 解析 Accept-Language 请求头
func ParseAcceptLanguage(header string) string {
	for _, part := range strings.Split(header, ",") {
		tag := strings.ToLower(strings.TrimSpace(strings.SplitN(part, ";", 2)[0]))
		switch {
		case strings.HasPrefix(tag, "zh"):
			return LangZhCN
		case strings.HasPrefix(tag, "en"):
			return LangEnUS
		}
	}
	return GetInstance().GetDefaultLanguage()
}
