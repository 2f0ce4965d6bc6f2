package adapter

import (
	"fmt"

	"wxadapter/wechat/pkg/envelope"
)

// SecretInfo 请求签名参数，Token、EncodingAESKey、AppID 由适配器补齐
type SecretInfo = envelope.SecretInfo

// Settings 适配器配置，构造时校验
type Settings struct {
	AppID                string `json:"app_id" yaml:"app_id"`
	AppSecret            string `json:"-" yaml:"app_secret"`
	Token                string `json:"-" yaml:"token"`
	EncodingAESKey       string `json:"-" yaml:"encoding_aes_key"`
	UploadTemporaryMedia bool   `json:"upload_temporary_media" yaml:"upload_temporary_media"`
	PassiveResponse      bool   `json:"passive_response" yaml:"passive_response"`
}

// Validate 检查必填项。主动发送和上传素材都需要 AppSecret 换取 access token
func (s *Settings) Validate() error {
	if s.AppID == "" {
		return fmt.Errorf("%w: AppID is required", ErrArgument)
	}
	if s.Token == "" {
		return fmt.Errorf("%w: Token is required", ErrArgument)
	}
	if s.EncodingAESKey != "" {
		if _, err := envelope.AESKey(s.EncodingAESKey); err != nil {
			return fmt.Errorf("%w: %v", ErrArgument, err)
		}
	}
	if s.AppSecret == "" && (!s.PassiveResponse || s.UploadTemporaryMedia) {
		return fmt.Errorf("%w: AppSecret is required unless replies are passive and media upload is disabled", ErrArgument)
	}
	return nil
}

// secret 用配置补齐请求里的签名参数，返回新对象
func (s *Settings) secret(req *SecretInfo) *SecretInfo {
	full := *req
	full.Token = s.Token
	full.EncodingAESKey = s.EncodingAESKey
	full.AppID = s.AppID
	return &full
}
