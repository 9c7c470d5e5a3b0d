package utils

import (
	"strconv"
)

// StringToInt converts string to int, returns 0 if error
func StringToInt(s string) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return i
}

// QueryInt 解析分页类查询参数，非法或小于 1 时返回默认值
func QueryInt(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil || i < 1 {
		return def
	}
	return i
}
