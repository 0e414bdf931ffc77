package invoice

import (
	"errors"
	"fmt"

	"github.com/ByLCY/facture/fonts"
	"github.com/ByLCY/facture/layout"
	"github.com/ByLCY/facture/stylesheet"
)

// 文档内置的字体键。
const (
	FontRegular = "sans"
	FontBold    = "sans-bold"
	FontOblique = "sans-oblique"
)

// StyleRole 枚举文本样式角色。
type StyleRole int

const (
	CenterBody StyleRole = iota
	LeftBody
	RightBody
	CenterHeader
	LeftHeader
	RightHeader
)

var roleNames = [...]string{
	CenterBody:   "center-body",
	LeftBody:     "left-body",
	RightBody:    "right-body",
	CenterHeader: "center-header",
	LeftHeader:   "left-header",
	RightHeader:  "right-header",
}

func (r StyleRole) String() string {
	if r < 0 || int(r) >= len(roleNames) {
		return fmt.Sprintf("StyleRole(%d)", int(r))
	}
	return roleNames[r]
}

// ParseStyleRole 将样式表选择器（如 "center-header"）转换为角色。
func ParseStyleRole(name string) (StyleRole, bool) {
	for i, n := range roleNames {
		if n == name {
			return StyleRole(i), true
		}
	}
	return 0, false
}

// Styles 为每个角色保存一份文本样式。
type Styles struct {
	CenterBody   layout.TextStyle
	LeftBody     layout.TextStyle
	RightBody    layout.TextStyle
	CenterHeader layout.TextStyle
	LeftHeader   layout.TextStyle
	RightHeader  layout.TextStyle

	// Fonts 是样式引用的额外字体（样式表中的 font 声明）。
	Fonts map[string]layout.FontResource
}

// DefaultStyles 返回默认样式：正文 10pt 常规字重、12pt 行高；标题 10pt 粗体。
func DefaultStyles() Styles {
	body := func(role StyleRole, align layout.Align) layout.TextStyle {
		return layout.TextStyle{
			Name:       role.String(),
			Font:       FontRegular,
			Size:       layout.Pt(10),
			LineHeight: layout.Pt(12),
			Align:      align,
		}
	}
	header := func(role StyleRole, align layout.Align) layout.TextStyle {
		st := body(role, align)
		st.Font = FontBold
		return st
	}
	return Styles{
		CenterBody:   body(CenterBody, layout.AlignCenter),
		LeftBody:     body(LeftBody, layout.AlignLeft),
		RightBody:    body(RightBody, layout.AlignRight),
		CenterHeader: header(CenterHeader, layout.AlignCenter),
		LeftHeader:   header(LeftHeader, layout.AlignLeft),
		RightHeader:  header(RightHeader, layout.AlignRight),
	}
}

// Get 返回角色对应的样式。
func (s *Styles) Get(role StyleRole) layout.TextStyle {
	if p := s.ref(role); p != nil {
		return *p
	}
	return layout.TextStyle{}
}

func (s *Styles) ref(role StyleRole) *layout.TextStyle {
	switch role {
	case CenterBody:
		return &s.CenterBody
	case LeftBody:
		return &s.LeftBody
	case RightBody:
		return &s.RightBody
	case CenterHeader:
		return &s.CenterHeader
	case LeftHeader:
		return &s.LeftHeader
	case RightHeader:
		return &s.RightHeader
	default:
		return nil
	}
}

// Apply 用样式表中的规则覆盖对应角色的样式，未声明的属性保持不变。
func (s *Styles) Apply(sheet *stylesheet.Sheet) error {
	if sheet == nil {
		return nil
	}
	var errs []error
	for _, rule := range sheet.Rules {
		role, ok := ParseStyleRole(rule.Selector)
		if !ok {
			errs = append(errs, fmt.Errorf("%s: 未知样式角色 %q", rule.Pos, rule.Selector))
			continue
		}
		st, err := rule.Resolve()
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", role, err))
			continue
		}
		s.apply(role, st)
	}
	return errors.Join(errs...)
}

func (s *Styles) apply(role StyleRole, st stylesheet.Style) {
	target := s.ref(role)
	if st.Align != "" {
		target.Align = st.Align
	}
	if st.Weight != "" || st.Italic != nil {
		bold := target.Font == FontBold
		if st.Weight != "" {
			bold = st.Weight == "bold"
		}
		italic := target.Font == FontOblique
		if st.Italic != nil {
			italic = *st.Italic
		}
		target.Font = builtinFont(bold, italic)
	}
	if st.Font != "" {
		key := "custom-" + role.String()
		if s.Fonts == nil {
			s.Fonts = map[string]layout.FontResource{}
		}
		s.Fonts[key] = layout.FontResource{Name: key, Src: st.Font, Style: fontStyle(target.Font)}
		target.Font = key
	}
	if st.Size != nil {
		ratio := 0.0
		if target.Size > 0 {
			ratio = target.LineHeight / target.Size
		}
		target.Size = st.Size.ToMM()
		if ratio > 0 {
			target.LineHeight = target.Size * ratio
		}
	}
	if st.LineHeight != nil {
		target.LineHeight = st.LineHeight.Resolve(target.Size)
	}
	if st.Color != nil {
		target.Color = *st.Color
	}
}

// builtinFont 内置字体没有粗斜体，粗体优先。
func builtinFont(bold, italic bool) string {
	switch {
	case bold:
		return FontBold
	case italic:
		return FontOblique
	default:
		return FontRegular
	}
}

func fontStyle(key string) string {
	switch key {
	case FontBold:
		return "bold"
	case FontOblique:
		return "italic"
	default:
		return "regular"
	}
}

// documentFonts 合并内置字体与样式引用的额外字体。
func (s *Styles) documentFonts() map[string]layout.FontResource {
	out := map[string]layout.FontResource{
		FontRegular: {Name: FontRegular, Src: "embed:" + fonts.SansRegular, Style: "regular"},
		FontBold:    {Name: FontBold, Src: "embed:" + fonts.SansBold, Style: "bold"},
		FontOblique: {Name: FontOblique, Src: "embed:" + fonts.SansOblique, Style: "italic"},
	}
	for k, v := range s.Fonts {
		out[k] = v
	}
	return out
}
