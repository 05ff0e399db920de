// internal/detect/classifier.go
package detect

import (
	"regexp"
	"strings"

	"github.com/hddevteam/smart-form-filler/api/schemas"
)

// Classification is deterministic and side effect free: it feeds UI hints and
// relevance scoring, never element location.

// Keyword patterns are bilingual (English and Chinese); matched against the
// concatenation of name, id, label and placeholder.
var categoryPatterns = []struct {
	category schemas.Category
	pattern  *regexp.Regexp
}{
	{schemas.CategoryEmail, regexp.MustCompile(`(?i)e-?mail|邮箱|邮件|电子邮`)},
	{schemas.CategoryPhone, regexp.MustCompile(`(?i)phone|mobile|\btel\b|cellphone|fax|电话|手机|传真|联系方式`)},
	{schemas.CategoryDate, regexp.MustCompile(`(?i)date|birth|\bdob\b|deadline|日期|生日|出生|时间`)},
	{schemas.CategoryIDNumber, regexp.MustCompile(`(?i)id.?card|passport|national.?id|身份证|证件|护照`)},
	{schemas.CategoryCompany, regexp.MustCompile(`(?i)company|organi[sz]ation|employer|corp|公司|单位|企业|机构`)},
	{schemas.CategoryAddress, regexp.MustCompile(`(?i)address|street|city|province|zip|postal|地址|街道|城市|省份|邮编`)},
	{schemas.CategoryURL, regexp.MustCompile(`(?i)website|url|homepage|网址|网站|主页`)},
	{schemas.CategoryName, regexp.MustCompile(`(?i)name|user|login|昵称|姓名|名字|称呼`)},
}

// typeCategories maps explicit input types that decide the category outright.
var typeCategories = map[string]schemas.Category{
	"email":          schemas.CategoryEmail,
	"tel":            schemas.CategoryPhone,
	"date":           schemas.CategoryDate,
	"datetime-local": schemas.CategoryDate,
	"month":          schemas.CategoryDate,
	"week":           schemas.CategoryDate,
	"time":           schemas.CategoryDate,
	"url":            schemas.CategoryURL,
	"number":         schemas.CategoryNumber,
	"range":          schemas.CategoryNumber,
	"password":       schemas.CategoryPassword,
	"checkbox":       schemas.CategoryCheckbox,
	"radio":          schemas.CategoryRadio,
}

// Classify assigns a semantic category to a field. Priority: explicit input
// type, then keyword match, then tag fallback, then plain text.
func Classify(field schemas.FieldRecord) schemas.Category {
	if cat, ok := typeCategories[strings.ToLower(field.Type)]; ok {
		return cat
	}

	haystack := strings.ToLower(field.Name + " " + field.OriginalID + " " + field.Label + " " + field.Placeholder)
	if strings.TrimSpace(haystack) != "" {
		for _, entry := range categoryPatterns {
			if entry.pattern.MatchString(haystack) {
				return entry.category
			}
		}
	}

	switch strings.ToLower(field.Tag) {
	case "select":
		return schemas.CategorySelect
	case "textarea":
		return schemas.CategoryDescription
	}
	return schemas.CategoryText
}
