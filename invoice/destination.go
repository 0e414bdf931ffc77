package invoice

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Destination 接收渲染输出。write 只会被调用一次。
type Destination interface {
	Write(write func(w io.Writer) error) error
	String() string
}

// ToFile 原子地写入 path：先写同目录下的临时文件，成功后再重命名。
// 失败时删除临时文件，已存在的目标文件保持不变。
func ToFile(path string) Destination { return fileDestination{path: path} }

// ToWriter 直接写入 w（例如 HTTP 响应或内存缓冲）。
func ToWriter(w io.Writer) Destination { return writerDestination{w: w} }

type fileDestination struct{ path string }

func (d fileDestination) String() string { return d.path }

func (d fileDestination) Write(write func(w io.Writer) error) (err error) {
	dir := filepath.Dir(d.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(d.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("创建临时文件失败: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	buf := bufio.NewWriter(tmp)
	if err = write(buf); err != nil {
		return err
	}
	if err = buf.Flush(); err != nil {
		return fmt.Errorf("写入 %s 失败: %w", d.path, err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("同步 %s 失败: %w", d.path, err)
	}
	if err = tmp.Chmod(0o644); err != nil {
		return fmt.Errorf("设置 %s 权限失败: %w", d.path, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("关闭临时文件失败: %w", err)
	}
	if err = os.Rename(tmp.Name(), d.path); err != nil {
		return fmt.Errorf("重命名到 %s 失败: %w", d.path, err)
	}
	return nil
}

type writerDestination struct{ w io.Writer }

func (d writerDestination) String() string { return fmt.Sprintf("writer(%T)", d.w) }

func (d writerDestination) Write(write func(w io.Writer) error) error {
	if d.w == nil {
		return fmt.Errorf("输出目标为空")
	}
	return write(d.w)
}
