package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Success 把对象写成 200 JSON 响应
func Success(data any, c *gin.Context) {
	c.JSON(http.StatusOK, data)
}

// Failed 统一错误响应: ApiException 按自身 HttpCode 返回，其他错误转为内部错误
func Failed(err error, c *gin.Context) {
	httpCode := http.StatusInternalServerError

	var apiErr *ApiException
	if errors.As(err, &apiErr) {
		if apiErr.HttpCode != 0 {
			httpCode = apiErr.HttpCode
		}
	} else {
		apiErr = ErrServerInternal("%s", err.Error())
	}

	c.JSON(httpCode, apiErr)
	c.Abort()
}

func NewApiException(code int, message string) *ApiException {
	return &ApiException{
		Code:    code,
		Message: message,
	}
}

// ApiException 业务异常
type ApiException struct {
	// 业务异常编码
	Code int `json:"code"`
	// 异常描述信息
	Message string `json:"message"`
	// 只用于设置 HTTP 状态码，不出现在响应体
	HttpCode int `json:"-"`
}

func (e *ApiException) Error() string {
	return e.Message
}

func (e *ApiException) String() string {
	dj, _ := json.MarshalIndent(e, "", "  ")
	return string(dj)
}

func (e *ApiException) WithMessage(msg string) *ApiException {
	e.Message = msg
	return e
}

func (e *ApiException) WithHttpCode(httpCode int) *ApiException {
	e.HttpCode = httpCode
	return e
}

func ErrServerInternal(format string, a ...any) *ApiException {
	return &ApiException{
		Code:     50000,
		Message:  fmt.Sprintf(format, a...),
		HttpCode: http.StatusInternalServerError,
	}
}

func ErrValidateFailed(format string, a ...any) *ApiException {
	return &ApiException{
		Code:     40000,
		Message:  fmt.Sprintf(format, a...),
		HttpCode: http.StatusBadRequest,
	}
}

func ErrUnauthorized(format string, a ...any) *ApiException {
	return &ApiException{
		Code:     40100,
		Message:  fmt.Sprintf(format, a...),
		HttpCode: http.StatusUnauthorized,
	}
}

func ErrNotImplemented(format string, a ...any) *ApiException {
	return &ApiException{
		Code:     50100,
		Message:  fmt.Sprintf(format, a...),
		HttpCode: http.StatusNotImplemented,
	}
}

func ErrBadGateway(format string, a ...any) *ApiException {
	return &ApiException{
		Code:     50200,
		Message:  fmt.Sprintf(format, a...),
		HttpCode: http.StatusBadGateway,
	}
}
