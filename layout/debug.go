package layout

import (
	"encoding/json"
	"io"
)

// EncodeDebugJSON 将分页结果以缩进 JSON 写入 w，便于检查坐标与分页。
func EncodeDebugJSON(res *Result, w io.Writer) error {
	if res == nil {
		return nil
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
