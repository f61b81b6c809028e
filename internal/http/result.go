package httpapi

// Result 医生名册 API 的 JSON 响应包装（导出成功时直接返回文件，不使用它）
// 成功为 Ok(数据)，code=2000；参数错误、来源失败等为 Fail(提示信息)，code=-1
type Result[T any] struct {
	Code    int    `json:"code"`
	Type    string `json:"type"`
	Message string `json:"message"`
	Result  T      `json:"result"`
}

const (
	ResultSuccess = 2000
	ResultError   = -1
)

func Ok[T any](result T) Result[T] {
	return Result[T]{Code: ResultSuccess, Type: "success", Message: "ok", Result: result}
}

func Fail(message string) Result[any] {
	return Result[any]{Code: ResultError, Type: "error", Message: message, Result: nil}
}
