// Package signature 实现公众号回调的 SHA-1 签名校验。
package signature

import (
	"crypto/sha1"
	"crypto/subtle"
	"encoding/hex"
	"sort"
	"strings"
)

// Compute 将参数按字典序排序、拼接后做 SHA-1，返回十六进制摘要
func Compute(parts ...string) string {
	strs := make([]string, len(parts))
	copy(strs, parts)
	sort.Strings(strs)

	h := sha1.New()
	h.Write([]byte(strings.Join(strs, "")))
	return hex.EncodeToString(h.Sum(nil))
}

// Verify 校验请求签名 signature == sha1(sort(token, timestamp, nonce))
func Verify(signature, timestamp, nonce, token string) bool {
	return equal(signature, Compute(token, timestamp, nonce))
}

// VerifyMsg 校验安全模式下的消息签名，参与签名的还有密文 Encrypt
func VerifyMsg(msgSignature, timestamp, nonce, token, encrypt string) bool {
	return equal(msgSignature, Compute(token, timestamp, nonce, encrypt))
}

func equal(given, expected string) bool {
	if given == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(strings.ToLower(given)), []byte(expected)) == 1
}
