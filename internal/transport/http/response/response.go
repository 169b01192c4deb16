package response

import "time"

// FieldError 参数校验明细
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Resp 统一响应包：{success, message, data, timestamp, error?, errors?}
// 错误类别由 HTTP 状态码承载
type Resp struct {
	Success   bool         `json:"success"`
	Message   string       `json:"message"`
	Data      any          `json:"data,omitempty"`
	Timestamp string       `json:"timestamp"`
	Error     string       `json:"error,omitempty"`
	Errors    []FieldError `json:"errors,omitempty"`
}

func now() string { return time.Now().UTC().Format(time.RFC3339) }

// OK 成功响应
func OK(msg string, data any) Resp {
	if msg == "" {
		msg = "OK"
	}
	return Resp{Success: true, Message: msg, Data: data, Timestamp: now()}
}

// Fail 失败响应
func Fail(msg, errDetail string) Resp {
	return Resp{Success: false, Message: msg, Error: errDetail, Timestamp: now()}
}

// FailFields 校验失败，带逐字段明细
func FailFields(msg string, fields []FieldError) Resp {
	return Resp{Success: false, Message: msg, Error: "validation failed", Errors: fields, Timestamp: now()}
}
