package layout

// BuildOptions 配置分页阶段所需的依赖，例如排版后端。
type BuildOptions struct {
	Typesetter Typesetter
}

// Typesetter 负责根据字体与宽度约束将文本拆成可绘制的行。
// width、fontSize 与 lineHeight 均为毫米。
type Typesetter interface {
	LayoutLines(content string, width float64, font FontResource, fontSize float64, lineHeight float64) ([]TextLine, error)
}
