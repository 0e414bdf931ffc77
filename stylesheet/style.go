package stylesheet

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ByLCY/facture/layout"
)

// Style is the typed view of a rule. Nil or empty fields were not declared.
type Style struct {
	Align      layout.Align
	Weight     string // regular/bold
	Italic     *bool
	Size       *layout.Length
	LineHeight *layout.LineHeightSpec
	Color      *layout.Color
	Font       string // FontResource src, e.g. embed:lmsans10-bold
}

// Resolve converts the rule's declarations into a Style.
func (r *Rule) Resolve() (Style, error) {
	var st Style
	for _, d := range r.Declarations {
		raw := d.Value.Raw()
		switch d.Property {
		case "align", "text-align":
			switch a := layout.Align(strings.ToLower(raw)); a {
			case layout.AlignLeft, layout.AlignCenter, layout.AlignRight:
				st.Align = a
			default:
				return Style{}, declError(d, "未知的对齐方式 %q", raw)
			}
		case "weight", "font-weight":
			switch w := strings.ToLower(raw); w {
			case "regular", "normal":
				st.Weight = "regular"
			case "bold":
				st.Weight = w
			default:
				return Style{}, declError(d, "未知的字重 %q", raw)
			}
		case "style", "font-style":
			switch strings.ToLower(raw) {
			case "italic", "oblique":
				v := true
				st.Italic = &v
			case "normal":
				v := false
				st.Italic = &v
			default:
				return Style{}, declError(d, "未知的字形 %q", raw)
			}
		case "size", "font-size":
			l, ok := layout.ParseLength(raw)
			if !ok || l.IsZero() {
				return Style{}, declError(d, "无效的字号 %q", raw)
			}
			st.Size = &l
		case "line-height", "leading":
			lh, ok := layout.ParseLineHeight(raw)
			if !ok {
				return Style{}, declError(d, "无效的行高 %q", raw)
			}
			st.LineHeight = &lh
		case "color":
			c, err := ParseColor(raw)
			if err != nil {
				return Style{}, declError(d, "%v", err)
			}
			st.Color = &c
		case "font":
			if d.Value.String == nil {
				return Style{}, declError(d, "font 需要字符串值")
			}
			st.Font = raw
		default:
			return Style{}, declError(d, "未知属性 %q", d.Property)
		}
	}
	return st, nil
}

func declError(d *Declaration, format string, args ...any) error {
	return fmt.Errorf("%s: %s", d.Pos, fmt.Sprintf(format, args...))
}

// ParseColor parses #rgb, #rrggbb or #rrggbbaa.
func ParseColor(s string) (layout.Color, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 && len(hex) != 8 {
		return layout.Color{}, fmt.Errorf("无效的颜色 %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return layout.Color{}, fmt.Errorf("无效的颜色 %q", s)
	}
	if len(hex) == 6 {
		return layout.Color{R: int(v >> 16 & 0xff), G: int(v >> 8 & 0xff), B: int(v & 0xff)}, nil
	}
	return layout.Color{
		R:     int(v >> 24 & 0xff),
		G:     int(v >> 16 & 0xff),
		B:     int(v >> 8 & 0xff),
		Alpha: float64(v&0xff) / 255,
	}, nil
}
