package binding

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var exprPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// Interpolate 将文本中的 ${path.to.value} 替换为 data 中的值。
// 若 data 为空或路径不存在，则保留原占位符。
func Interpolate(text string, data any) string {
	if data == nil {
		return text
	}
	return exprPattern.ReplaceAllStringFunc(text, func(match string) string {
		if val, ok := lookup(match, data); ok {
			return fmt.Sprint(val)
		}
		return match
	})
}

// Missing 返回 text 中无法从 data 解析的占位符路径，按出现顺序去重。
func Missing(text string, data any) []string {
	var out []string
	seen := map[string]bool{}
	for _, m := range exprPattern.FindAllString(text, -1) {
		if _, ok := lookup(m, data); ok {
			continue
		}
		path := strings.TrimSpace(m[2 : len(m)-1])
		if !seen[path] {
			seen[path] = true
			out = append(out, path)
		}
	}
	return out
}

func lookup(match string, data any) (any, bool) {
	if data == nil {
		return nil, false
	}
	groups := exprPattern.FindStringSubmatch(match)
	if len(groups) < 2 {
		return nil, false
	}
	path := strings.TrimSpace(groups[1])
	if path == "" {
		return nil, false
	}
	return resolvePath(data, path)
}

func resolvePath(data any, path string) (any, bool) {
	current := data
	for _, segment := range strings.Split(path, ".") {
		name, indexes := parseSegment(segment)
		if name != "" {
			var ok bool
			current, ok = descendMap(current, name)
			if !ok {
				return nil, false
			}
		}
		for _, idxStr := range indexes {
			idx, err := strconv.Atoi(idxStr)
			if err != nil {
				return nil, false
			}
			var ok bool
			current, ok = descendArray(current, idx)
			if !ok {
				return nil, false
			}
		}
	}
	return current, true
}

func parseSegment(segment string) (string, []string) {
	name := segment
	var indexes []string
	if i := strings.Index(segment, "["); i != -1 {
		name = segment[:i]
		rest := segment[i:]
		for len(rest) > 0 && rest[0] == '[' {
			end := strings.IndexByte(rest, ']')
			if end == -1 {
				break
			}
			indexes = append(indexes, rest[1:end])
			rest = rest[end+1:]
		}
	}
	return name, indexes
}

func descendMap(current any, key string) (any, bool) {
	switch c := current.(type) {
	case map[string]any:
		val, ok := c[key]
		return val, ok
	case map[string]string:
		val, ok := c[key]
		return val, ok
	default:
		return nil, false
	}
}

func descendArray(current any, idx int) (any, bool) {
	switch c := current.(type) {
	case []any:
		if idx < 0 || idx >= len(c) {
			return nil, false
		}
		return c[idx], true
	case []string:
		if idx < 0 || idx >= len(c) {
			return nil, false
		}
		return c[idx], true
	default:
		return nil, false
	}
}
