package invoice

import (
	"github.com/ByLCY/facture/layout"
	"github.com/ByLCY/facture/renderer"
)

// watermarkInset 是水印与页面四边的距离（pt）。
const watermarkInset = 100

// watermarkHook 在每页正文之前把水印绘制在内缩 100pt 的区域中央；未配置水印时不做任何事。
func watermarkHook(src layout.ImageSource) renderer.PageHook {
	if src.Empty() {
		return func(renderer.Surface, renderer.PageInfo) error { return nil }
	}
	inset := layout.Pt(watermarkInset)
	return func(s renderer.Surface, page renderer.PageInfo) error {
		return renderer.WithState(s, func() error {
			return s.DrawImage(src, inset, inset, page.Width-2*inset, page.Height-2*inset)
		})
	}
}
