package adapter

import "errors"

// 调用方用 errors.Is 区分失败类型
var (
	// ErrArgument 请求、密钥信息或逻辑回调缺失
	ErrArgument = errors.New("invalid argument")
	// ErrAuthentication 签名校验失败，未做解密也未调用逻辑
	ErrAuthentication = errors.New("signature verification failed")
	// ErrMalformedEnvelope XML 解析失败或解密完整性校验失败
	ErrMalformedEnvelope = errors.New("malformed envelope")
	// ErrUnsupportedOperation 平台不支持修改或撤回已发送消息
	ErrUnsupportedOperation = errors.New("operation not supported by wechat")
	// ErrDelivery 客服接口发送失败，本轮剩余消息不再发送
	ErrDelivery = errors.New("delivery failed")
)
