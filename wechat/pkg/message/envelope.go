package message

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
)

// ErrEmptyEnvelope 请求体为空或没有 <xml> 根元素
var ErrEmptyEnvelope = errors.New("empty envelope")

// Envelope 回调请求的顶层 XML 文档。明文模式下直接带消息字段，
// 安全模式下只有 Encrypt（以及兼容模式下同时带的明文字段）
type Envelope struct {
	XMLName      xml.Name `xml:"xml"`
	ToUserName   string   `xml:"ToUserName"`
	FromUserName string   `xml:"FromUserName"`
	CreateTime   int64    `xml:"CreateTime"`
	MsgType      string   `xml:"MsgType"`
	MsgID        int64    `xml:"MsgId"`

	Content      string  `xml:"Content"`
	PicURL       string  `xml:"PicUrl"`
	MediaID      string  `xml:"MediaId"`
	Format       string  `xml:"Format"`
	Recognition  string  `xml:"Recognition"`
	ThumbMediaID string  `xml:"ThumbMediaId"`
	LocationX    float64 `xml:"Location_X"`
	LocationY    float64 `xml:"Location_Y"`
	Scale        int     `xml:"Scale"`
	Label        string  `xml:"Label"`
	Title        string  `xml:"Title"`
	Description  string  `xml:"Description"`
	URL          string  `xml:"Url"`

	Event     string  `xml:"Event"`
	EventKey  string  `xml:"EventKey"`
	Ticket    string  `xml:"Ticket"`
	Latitude  float64 `xml:"Latitude"`
	Longitude float64 `xml:"Longitude"`
	Precision float64 `xml:"Precision"`

	Encrypt      string `xml:"Encrypt"`
	MsgSignature string `xml:"MsgSignature"`
	TimeStamp    string `xml:"TimeStamp"`
	Nonce        string `xml:"Nonce"`
}

// ParseEnvelope 解析回调 XML；明文和解密后的内容使用同一套语法
func ParseEnvelope(data []byte) (*Envelope, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyEnvelope
	}
	var env Envelope
	if err := xml.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("parse envelope xml: %w", err)
	}
	return &env, nil
}

// Encrypted 是否为加密消息
func (e *Envelope) Encrypted() bool {
	return e.Encrypt != ""
}

// Header 取出公共字段
func (e *Envelope) Header() Header {
	return Header{
		ToUserName:   e.ToUserName,
		FromUserName: e.FromUserName,
		CreateTime:   e.CreateTime,
		MsgType:      e.MsgType,
		MsgID:        e.MsgID,
	}
}

// DedupKey 用于识别平台重试推送：普通消息用 MsgId，事件用 FromUserName+CreateTime
func (e *Envelope) DedupKey() string {
	if e.MsgID != 0 {
		return fmt.Sprintf("msg:%d", e.MsgID)
	}
	if e.FromUserName == "" || e.CreateTime == 0 {
		return ""
	}
	return fmt.Sprintf("evt:%s:%d:%s", e.FromUserName, e.CreateTime, e.Event)
}

// Inbound 按 MsgType 构造对应的入站消息变体，无法识别的类型原样放进 UnknownMessage
func (e *Envelope) Inbound() Inbound {
	h := e.Header()
	switch e.MsgType {
	case TypeText:
		return &TextMessage{Header: h, Content: e.Content}
	case TypeImage:
		return &ImageMessage{Header: h, PicURL: e.PicURL, MediaID: e.MediaID}
	case TypeVoice:
		return &VoiceMessage{Header: h, MediaID: e.MediaID, Format: e.Format, Recognition: e.Recognition}
	case TypeVideo, TypeShortVideo:
		return &VideoMessage{Header: h, MediaID: e.MediaID, ThumbMediaID: e.ThumbMediaID}
	case TypeLocation:
		return &LocationMessage{Header: h, Latitude: e.LocationX, Longitude: e.LocationY, Scale: e.Scale, Label: e.Label}
	case TypeLink:
		return &LinkMessage{Header: h, Title: e.Title, Description: e.Description, URL: e.URL}
	case TypeEvent:
		return &EventMessage{
			Header:    h,
			Event:     e.Event,
			EventKey:  e.EventKey,
			Ticket:    e.Ticket,
			Latitude:  e.Latitude,
			Longitude: e.Longitude,
			Precision: e.Precision,
		}
	default:
		return &UnknownMessage{Header: h, Envelope: *e}
	}
}
