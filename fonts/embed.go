package fonts

import (
	"fmt"
	"sort"
	"strings"

	"github.com/go-fonts/latin-modern/lmsans10bold"
	"github.com/go-fonts/latin-modern/lmsans10oblique"
	"github.com/go-fonts/latin-modern/lmsans10regular"
)

// 内置字体名称，可写为 "embed:<name>"。
const (
	SansRegular = "lmsans10-regular"
	SansBold    = "lmsans10-bold"
	SansOblique = "lmsans10-oblique"
)

var builtin = map[string][]byte{
	SansRegular: lmsans10regular.TTF,
	SansBold:    lmsans10bold.TTF,
	SansOblique: lmsans10oblique.TTF,
}

// Load 返回内置字体的字节数据，name 可写为 "embed:lmsans10-regular" 或直接 "lmsans10-regular"。
func Load(name string) ([]byte, error) {
	key := strings.TrimPrefix(strings.TrimSpace(name), "embed:")
	data, ok := builtin[key]
	if !ok || len(data) == 0 {
		return nil, fmt.Errorf("读取内置字体 %s 失败: 可用字体为 %s", key, strings.Join(Names(), ", "))
	}
	return data, nil
}

// Names 列出所有内置字体名称。
func Names() []string {
	out := make([]string, 0, len(builtin))
	for name := range builtin {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
