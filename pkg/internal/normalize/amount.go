package normalize

import (
	"math"
	"strconv"
	"strings"
)

// ParseAmount 解析金额. 数字直接返回；字符串去掉货币符号、千分位等非数字字符后解析.
// 无法解析时返回 false，调用方应省略该字段而不是写 0.
func ParseAmount(v any) (float64, bool) {
	var f float64

	switch t := v.(type) {
	case nil:
		return 0, false
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case string:
		cleaned := strings.Map(func(r rune) rune {
			if (r >= '0' && r <= '9') || r == '.' || r == '-' {
				return r
			}

			return -1
		}, t)
		if cleaned == "" {
			return 0, false
		}

		parsed, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			return 0, false
		}

		f = parsed
	default:
		return 0, false
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}

	return f, true
}
