package invoice

import (
	"bytes"
	"fmt"
	"image/png"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
)

// encodeQR 将内容编码为 size×size 像素的 PNG 二维码。
func encodeQR(payload string, size int) ([]byte, error) {
	code, err := qr.Encode(payload, qr.M, qr.Auto)
	if err != nil {
		return nil, fmt.Errorf("%w: 生成二维码失败: %v", ErrInvalidImage, err)
	}
	scaled, err := barcode.Scale(code, size, size)
	if err != nil {
		return nil, fmt.Errorf("%w: 缩放二维码失败: %v", ErrInvalidImage, err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, scaled); err != nil {
		return nil, fmt.Errorf("编码二维码 PNG 失败: %w", err)
	}
	return buf.Bytes(), nil
}
