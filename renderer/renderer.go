package renderer

import (
	"errors"
	"fmt"
	"io"

	"github.com/ByLCY/facture/layout"
)

// ErrNoPages 表示分页结果中没有可渲染的页面。
var ErrNoPages = errors.New("缺少可渲染的页面")

// Renderer 将分页结果输出为最终文件（例如 PDF），写入 w。
// hooks 中的页面装饰函数在每页正文之前调用。
type Renderer interface {
	Render(w io.Writer, result *layout.Result, hooks Hooks) error
}

// PageInfo 描述当前正在绘制的页面（单位：mm）。
type PageInfo struct {
	Number int
	Width  float64
	Height float64
}

// Surface 是装饰函数可用的绘图面。
type Surface interface {
	// Push 保存当前绘图状态，Pop 恢复最近一次保存的状态。
	Push()
	Pop()
	// DrawImage 将图片等比缩放后居中绘制在给定矩形内。
	DrawImage(src layout.ImageSource, x, y, width, height float64) error
}

// PageHook 在每页正文之前被调用一次。
type PageHook func(s Surface, page PageInfo) error

// Hooks 分别为首页与后续页面指定装饰函数，nil 表示不装饰。
type Hooks struct {
	FirstPage  PageHook
	LaterPages PageHook
}

// For 返回第 n 页（从 1 开始）应使用的装饰函数。
func (h Hooks) For(n int) PageHook {
	if n <= 1 {
		return h.FirstPage
	}
	return h.LaterPages
}

// WithState 在保存的绘图状态中执行 fn，无论 fn 返回错误还是 panic 都会恢复状态。
func WithState(s Surface, fn func() error) (err error) {
	s.Push()
	defer s.Pop()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("页面装饰失败: %v", r)
		}
	}()
	return fn()
}
