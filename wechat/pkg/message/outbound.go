package message

import "time"

// Outbound 出站消息。新增类型时需要同时在 mapper 和 adapter 的投递 switch 中加分支
type Outbound interface {
	Head() Header
	outbound()
}

// NewHeader 构造出站消息头，CreateTime 取当前时间
func NewHeader(to, from, msgType string) Header {
	return Header{
		ToUserName:   to,
		FromUserName: from,
		CreateTime:   time.Now().Unix(),
		MsgType:      msgType,
	}
}

type Video struct {
	MediaID      string
	ThumbMediaID string
	Title        string
	Description  string
}

type Music struct {
	Title        string
	Description  string
	MusicURL     string
	HQMusicURL   string
	ThumbMediaID string
}

type Article struct {
	Title       string
	Description string
	PicURL      string
	URL         string
}

type MenuItem struct {
	ID      string
	Content string
}

// Menu 菜单消息，用户点击后以文本消息回传 Content
type Menu struct {
	HeadContent string
	Items       []MenuItem
	TailContent string
}

type TextReply struct {
	Header
	Content string
}

type ImageReply struct {
	Header
	MediaID string
}

type VoiceReply struct {
	Header
	MediaID string
}

type VideoReply struct {
	Header
	Video Video
}

type MusicReply struct {
	Header
	Music Music
}

// NewsReply 图文消息，单条最多 MaxArticles 篇
type NewsReply struct {
	Header
	Articles []Article
}

// MPNewsReply 已发布图文（仅客服接口）
type MPNewsReply struct {
	Header
	MediaID string
}

// MenuReply 菜单消息（仅客服接口）
type MenuReply struct {
	Header
	Menu Menu
}

// LocationReply 位置回显，平台没有对应的发送接口
type LocationReply struct {
	Header
	Latitude  float64
	Longitude float64
	Label     string
}

// SuccessReply 告知平台已收到、不再回复
type SuccessReply struct {
	Header
}

// NoReply 显式不回复
type NoReply struct {
	Header
}

// MaxArticles 单条图文消息允许的文章数上限
const MaxArticles = 8

func (*TextReply) outbound()     {}
func (*ImageReply) outbound()    {}
func (*VoiceReply) outbound()    {}
func (*VideoReply) outbound()    {}
func (*MusicReply) outbound()    {}
func (*NewsReply) outbound()     {}
func (*MPNewsReply) outbound()   {}
func (*MenuReply) outbound()     {}
func (*LocationReply) outbound() {}
func (*SuccessReply) outbound()  {}
func (*NoReply) outbound()       {}
