// Package envelope 负责安全模式下消息体的加解密，与消息语义无关。
package envelope

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"encoding/binary"
	"encoding/xml"
	"errors"
	"fmt"
	"strconv"
	"time"

	"wxadapter/tools/randutil"
	"wxadapter/wechat/pkg/message"
	"wxadapter/wechat/pkg/signature"
)

var (
	ErrInvalidKey      = errors.New("invalid EncodingAESKey")
	ErrInvalidCipher   = errors.New("invalid ciphertext")
	ErrInvalidPadding  = errors.New("invalid padding")
	ErrInvalidLength   = errors.New("invalid payload length")
	ErrAppIDMismatch   = errors.New("appid mismatch")
	ErrMissingEncrypt  = errors.New("envelope has no Encrypt field")
	errMissingSecret   = errors.New("secret info is required")
	errMissingKeyOrApp = errors.New("EncodingAESKey and AppID are required")
)

const (
	keyLength    = 43
	randomLength = 16
	blockSize    = aes.BlockSize
	maxPad       = 32
)

// SecretInfo 单次请求的签名参数加上适配器配置，组装后不再修改
type SecretInfo struct {
	Signature    string
	Timestamp    string
	Nonce        string
	MsgSignature string

	Token          string
	EncodingAESKey string
	AppID          string
}

// Decrypted 解密结果
type Decrypted struct {
	Envelope *message.Envelope
	XML      []byte
	AppID    string
}

// Encrypted 加密后的被动回复
type Encrypted struct {
	XMLName      xml.Name `xml:"xml"`
	Encrypt      cdata    `xml:"Encrypt"`
	MsgSignature cdata    `xml:"MsgSignature"`
	TimeStamp    string   `xml:"TimeStamp"`
	Nonce        cdata    `xml:"Nonce"`
}

type cdata struct {
	Text string `xml:",cdata"`
}

// XML 序列化为回复体
func (e *Encrypted) XML() ([]byte, error) {
	out, err := xml.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal encrypted reply: %w", err)
	}
	return out, nil
}

// AESKey 由 43 位 EncodingAESKey 补 "=" 后 base64 解码得到 32 字节密钥
func AESKey(encodingAESKey string) ([]byte, error) {
	if len(encodingAESKey) != keyLength {
		return nil, fmt.Errorf("%w: expected %d characters, got %d", ErrInvalidKey, keyLength, len(encodingAESKey))
	}
	key, err := base64.StdEncoding.DecodeString(encodingAESKey + "=")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("%w: decoded to %d bytes", ErrInvalidKey, len(key))
	}
	return key, nil
}

// Decrypt 解密信封中的 Encrypt 字段并解析出明文信封
func Decrypt(env *message.Envelope, secret *SecretInfo) (*Decrypted, error) {
	if secret == nil {
		return nil, errMissingSecret
	}
	if env == nil || env.Encrypt == "" {
		return nil, ErrMissingEncrypt
	}
	if secret.EncodingAESKey == "" || secret.AppID == "" {
		return nil, errMissingKeyOrApp
	}
	key, err := AESKey(secret.EncodingAESKey)
	if err != nil {
		return nil, err
	}

	ciphertext, err := base64.StdEncoding.DecodeString(env.Encrypt)
	if err != nil {
		return nil, fmt.Errorf("%w: base64: %v", ErrInvalidCipher, err)
	}

	plain, err := decryptCBC(key, ciphertext)
	if err != nil {
		return nil, err
	}
	payload, appID, err := unpack(plain)
	if err != nil {
		return nil, err
	}
	if appID != secret.AppID {
		return nil, fmt.Errorf("%w: got %q", ErrAppIDMismatch, appID)
	}

	inner, err := message.ParseEnvelope(payload)
	if err != nil {
		return nil, err
	}
	return &Decrypted{Envelope: inner, XML: payload, AppID: appID}, nil
}

// Encrypt 加密明文 XML 并计算 MsgSignature。时间戳和随机串优先沿用请求里的
func Encrypt(plainXML []byte, secret *SecretInfo) (*Encrypted, error) {
	if secret == nil {
		return nil, errMissingSecret
	}
	if secret.EncodingAESKey == "" || secret.AppID == "" {
		return nil, errMissingKeyOrApp
	}
	key, err := AESKey(secret.EncodingAESKey)
	if err != nil {
		return nil, err
	}

	random, err := randutil.Bytes(randomLength)
	if err != nil {
		return nil, err
	}
	ciphertext, err := encryptCBC(key, pack(random, plainXML, secret.AppID))
	if err != nil {
		return nil, err
	}
	encoded := base64.StdEncoding.EncodeToString(ciphertext)

	timestamp := secret.Timestamp
	if timestamp == "" {
		timestamp = strconv.FormatInt(time.Now().Unix(), 10)
	}
	nonce := secret.Nonce
	if nonce == "" {
		nonce = randutil.GenerateRandomString(10)
	}

	return &Encrypted{
		Encrypt:      cdata{encoded},
		MsgSignature: cdata{signature.Compute(secret.Token, timestamp, nonce, encoded)},
		TimeStamp:    timestamp,
		Nonce:        cdata{nonce},
	}, nil
}

// EncryptReply 加密并直接序列化为被动回复 XML
func EncryptReply(plainXML []byte, secret *SecretInfo) ([]byte, error) {
	enc, err := Encrypt(plainXML, secret)
	if err != nil {
		return nil, err
	}
	return enc.XML()
}

// pack 明文布局: 16 字节随机数 | 4 字节大端长度 | XML | AppID
func pack(random, payload []byte, appID string) []byte {
	buf := bytes.NewBuffer(make([]byte, 0, len(random)+4+len(payload)+len(appID)))
	buf.Write(random)
	var length [4]byte
	binary.BigEndian.PutUint32(length[:], uint32(len(payload)))
	buf.Write(length[:])
	buf.Write(payload)
	buf.WriteString(appID)
	return buf.Bytes()
}

func unpack(plain []byte) ([]byte, string, error) {
	if len(plain) < randomLength+4 {
		return nil, "", fmt.Errorf("%w: plaintext too short", ErrInvalidLength)
	}
	n := binary.BigEndian.Uint32(plain[randomLength : randomLength+4])
	start := randomLength + 4
	if uint64(n) > uint64(len(plain)-start) {
		return nil, "", fmt.Errorf("%w: declared %d, available %d", ErrInvalidLength, n, len(plain)-start)
	}
	end := start + int(n)
	return plain[start:end], string(plain[end:]), nil
}

func decryptCBC(key, ciphertext []byte) ([]byte, error) {
	if len(ciphertext) == 0 || len(ciphertext)%blockSize != 0 {
		return nil, fmt.Errorf("%w: length %d is not a multiple of the block size", ErrInvalidCipher, len(ciphertext))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	plain := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, key[:blockSize]).CryptBlocks(plain, ciphertext)
	return pkcs7Unpad(plain)
}

func encryptCBC(key, plain []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	padded := pkcs7Pad(plain, blockSize)
	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, key[:blockSize]).CryptBlocks(out, padded)
	return out, nil
}

func pkcs7Pad(data []byte, size int) []byte {
	pad := size - len(data)%size
	return append(data, bytes.Repeat([]byte{byte(pad)}, pad)...)
}

func pkcs7Unpad(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, ErrInvalidPadding
	}
	pad := int(data[len(data)-1])
	if pad < 1 || pad > maxPad || pad > len(data) {
		return nil, fmt.Errorf("%w: pad length %d", ErrInvalidPadding, pad)
	}
	for _, b := range data[len(data)-pad:] {
		if int(b) != pad {
			return nil, fmt.Errorf("%w: inconsistent pad bytes", ErrInvalidPadding)
		}
	}
	return data[:len(data)-pad], nil
}
