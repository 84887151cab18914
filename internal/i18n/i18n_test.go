package i18n

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslateFallsBack(t *testing.T) {
	i := GetInstance()

	assert.Equal(t, "Not found.", i.Translate("not_found", LangEnUS))
	assert.Equal(t, "未找到", i.Translate("not_found", LangZhCN))
	// 不支持的语言回退到默认语言
	assert.Equal(t, "Not found.", i.Translate("not_found", "fr-FR"))
	// 未知 key 原样返回
	assert.Equal(t, "no_such_key", i.Translate("no_such_key", LangEnUS))
}

func TestTranslatef(t *testing.T) {
	assert.Equal(t, `Invalid pk "7" - object does not exist.`,
		GetInstance().Translatef("invalid_pk", LangEnUS, 7))
}

func TestParseAcceptLanguage(t *testing.T) {
	assert.Equal(t, LangZhCN, ParseAcceptLanguage("zh-CN,zh;q=0.9,en;q=0.8"))
	assert.Equal(t, LangEnUS, ParseAcceptLanguage("en-GB"))
	assert.Equal(t, LangEnUS, ParseAcceptLanguage(""))
	assert.Equal(t, LangZhCN, ParseAcceptLanguage("fr;q=0.9, zh-TW;q=0.5"))
}

type sample struct {
	Title string `json:"title" validate:"required,max=5"`
}

func TestTranslateValidationUsesJSONNames(t *testing.T) {
	v := validator.New()
	require.NoError(t, GetInstance().RegisterValidator(v))
	// 同一校验器重复注册无副作用，其他校验器被拒绝
	require.NoError(t, GetInstance().RegisterValidator(v))
	assert.Error(t, GetInstance().RegisterValidator(validator.New()))

	err := v.Struct(sample{Title: "far too long"})
	require.Error(t, err)

	fields := GetInstance().TranslateValidation(err.(validator.ValidationErrors), LangEnUS)
	require.Contains(t, fields, "title")
	assert.Len(t, fields["title"], 1)
	assert.Contains(t, fields["title"][0], "title")

	err = v.Struct(sample{})
	fields = GetInstance().TranslateValidation(err.(validator.ValidationErrors), LangEnUS)
	assert.Equal(t, []string{"title is a required field"}, fields["title"])
}
