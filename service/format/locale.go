package format

import (
	"strings"

	"golang.org/x/text/language"
)

// localeProfile 语言环境相关的展示约定
type localeProfile struct {
	tag            language.Tag
	dateLayout     string
	datetimeLayout string
	yes            string
	no             string
}

var locales = map[string]localeProfile{
	"en":    {language.English, "01/02/2006", "01/02/2006 15:04", "Yes", "No"},
	"en-gb": {language.BritishEnglish, "02/01/2006", "02/01/2006 15:04", "Yes", "No"},
	"id":    {language.Indonesian, "02/01/2006", "02/01/2006 15:04", "Ya", "Tidak"},
	"fr":    {language.French, "02/01/2006", "02/01/2006 15:04", "Oui", "Non"},
	"de":    {language.German, "02.01.2006", "02.01.2006 15:04", "Ja", "Nein"},
	"zh":    {language.Chinese, "2006-01-02", "2006-01-02 15:04", "是", "否"},
}

// profileFor 按语言环境取展示约定，未知语言按基础语言回退，最终回退到英文
func profileFor(locale string) localeProfile {
	key := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(locale), "_", "-"))
	if p, ok := locales[key]; ok {
		return p
	}
	if i := strings.Index(key, "-"); i > 0 {
		if p, ok := locales[key[:i]]; ok {
			return p
		}
	}
	return locales["en"]
}

// phpTokens PHP date() 格式字符到 Go 布局的映射，定义中的 format 选项沿用这种写法
var phpTokens = map[byte]string{
	'd': "02",
	'j': "2",
	'D': "Mon",
	'l': "Monday",
	'm': "01",
	'n': "1",
	'M': "Jan",
	'F': "January",
	'Y': "2006",
	'y': "06",
	'H': "15",
	'G': "15",
	'h': "03",
	'g': "3",
	'i': "04",
	's': "05",
	'A': "PM",
	'a': "pm",
	'T': "MST",
	'P': "-07:00",
}

// goLayout 把 format 选项转换为 Go 时间布局；已经是 Go 布局的原样返回
func goLayout(format string) string {
	if strings.Contains(format, "2006") || strings.Contains(format, "15:04") {
		return format
	}
	var b strings.Builder
	for i := 0; i < len(format); i++ {
		c := format[i]
		if c == '\\' && i+1 < len(format) {
			i++
			b.WriteByte(format[i])
			continue
		}
		if token, ok := phpTokens[c]; ok {
			b.WriteString(token)
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}
