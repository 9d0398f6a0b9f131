package gen

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// commonLabels are the labels of the generated client shell, per base
// language. Locales without a table use the English one.
var commonLabels = map[string]map[string]string{
	"en": {
		"actions":        "Actions",
		"add":            "Add",
		"cancel":         "Cancel",
		"confirm_delete": "Delete this record?",
		"delete":         "Delete",
		"edit":           "Edit",
		"login":          "Log in",
		"logout":         "Log out",
		"next":           "Next",
		"no_data":        "No data",
		"password":       "Password",
		"previous":       "Previous",
		"save":           "Save",
		"search":         "Search",
		"total":          "Total",
		"upload":         "Upload",
		"username":       "Username",
	},
	"zh": {
		"actions":        "操作",
		"add":            "新增",
		"cancel":         "取消",
		"confirm_delete": "确定删除该记录？",
		"delete":         "删除",
		"edit":           "编辑",
		"login":          "登录",
		"logout":         "退出登录",
		"next":           "下一页",
		"no_data":        "暂无数据",
		"password":       "密码",
		"previous":       "上一页",
		"save":           "保存",
		"search":         "搜索",
		"total":          "共",
		"upload":         "上传",
		"username":       "用户名",
	},
}

// graphTemplates returns the aggregate artifacts of the graph: the fixed
// GraphTemplates, one locale table per configured locale, and the outputs
// of the enabled features.
func graphTemplates(g *Graph) []GraphTemplate {
	ts := make([]GraphTemplate, 0, len(GraphTemplates)+len(g.Locales))
	ts = append(ts, GraphTemplates...)
	for _, locale := range g.Locales {
		ts = append(ts, GraphTemplate{
			Name:   "locale/" + locale,
			Format: "frontend/src/locales/" + locale + g.LocaleFormat.Ext(),
			Build:  func(g *Graph) ([]byte, error) { return buildLocale(g, locale) },
		})
	}
	for _, f := range g.Features {
		ts = append(ts, f.GraphTemplates...)
	}
	return ts
}

// LocaleTable returns the translation table of a locale: the common labels
// under "common" and the entity and field labels under "models".
func LocaleTable(g *Graph, locale string) map[string]any {
	models := make(map[string]any)
	for _, t := range g.Entities() {
		fields := make(map[string]any)
		for _, f := range t.Fields {
			fields[f.Name] = f.Label(locale)
		}
		for _, r := range t.Relations {
			fields[r.Name] = r.Target.Display(locale)
		}
		models[t.LowerName()] = map[string]any{
			"name":   t.Display(locale),
			"fields": fields,
		}
	}
	table := map[string]any{
		"common": commonTable(locale),
		"models": models,
	}
	// Custom label keys are placed at their own path.
	for _, t := range g.Entities() {
		for _, f := range t.Fields {
			if f.LabelKey != "models."+t.LowerName()+".fields."+f.Name {
				setPath(table, f.LabelKey, f.Label(locale))
			}
		}
	}
	return table
}

func buildLocale(g *Graph, locale string) ([]byte, error) {
	table := LocaleTable(g, locale)
	if g.LocaleFormat == LocaleYAML {
		var b bytes.Buffer
		fmt.Fprintf(&b, "# %s\n", g.Header)
		enc := yaml.NewEncoder(&b)
		enc.SetIndent(2)
		if err := enc.Encode(table); err != nil {
			return nil, fmt.Errorf("encode %s locale: %w", locale, err)
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return b.Bytes(), nil
	}
	buf, err := json.MarshalIndent(table, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode %s locale: %w", locale, err)
	}
	return append(buf, '\n'), nil
}

// commonTable returns a copy of the common labels of the locale language.
func commonTable(locale string) map[string]any {
	labels, ok := commonLabels[locale]
	if !ok {
		if tag, err := language.Parse(locale); err == nil {
			base, _ := tag.Base()
			labels, ok = commonLabels[base.String()]
		}
	}
	if !ok {
		labels = commonLabels["en"]
	}
	m := make(map[string]any, len(labels))
	for k, v := range labels {
		m[k] = v
	}
	return m
}

// setPath sets the dotted key of a nested table. Keys crossing an existing
// leaf are ignored.
func setPath(m map[string]any, key, value string) {
	parts := strings.Split(key, ".")
	for _, p := range parts[:len(parts)-1] {
		next, ok := m[p]
		if !ok {
			child := make(map[string]any)
			m[p] = child
			m = child
			continue
		}
		child, ok := next.(map[string]any)
		if !ok {
			return
		}
		m = child
	}
	last := parts[len(parts)-1]
	if _, ok := m[last]; !ok {
		m[last] = value
	}
}
