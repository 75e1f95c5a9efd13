package errors

import "errors"

// ErrNoRowsAffected 预期影响一行的写入实际影响零行，视为内部错误
var ErrNoRowsAffected = errors.New("数据写入未生效")
