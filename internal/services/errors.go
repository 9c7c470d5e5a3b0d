package services

import (
	"errors"
)

var (
	// ErrNotFound 内容不存在（或对调用者不可见）
	ErrNotFound = errors.New("not found")
	// ErrInvalidDirection 该内容变体不支持请求的投票方向
	ErrInvalidDirection = errors.New("invalid vote direction")
)
