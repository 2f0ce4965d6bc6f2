package message

// 消息类型
const (
	TypeText       = "text"
	TypeImage      = "image"
	TypeVoice      = "voice"
	TypeVideo      = "video"
	TypeShortVideo = "shortvideo"
	TypeLocation   = "location"
	TypeLink       = "link"
	TypeEvent      = "event"
	TypeMusic      = "music"
	TypeNews       = "news"
	TypeMPNews     = "mpnews"
	TypeMenu       = "msgmenu"
	TypeSuccess    = "success"
	TypeNoReply    = "noreply"
)

// 常见事件
const (
	EventSubscribe   = "subscribe"
	EventUnsubscribe = "unsubscribe"
	EventScan        = "SCAN"
	EventLocation    = "LOCATION"
	EventClick       = "CLICK"
	EventView        = "VIEW"
)

// Header 所有消息共有的字段
type Header struct {
	ToUserName   string
	FromUserName string
	CreateTime   int64
	MsgType      string
	MsgID        int64
}

// Head 返回消息头
func (h Header) Head() Header { return h }

// Inbound 入站消息，变体集合是封闭的
type Inbound interface {
	Head() Header
	inbound()
}

type TextMessage struct {
	Header
	Content string
}

type ImageMessage struct {
	Header
	PicURL  string
	MediaID string
}

// VoiceMessage Recognition 为开启语音识别后的文本
type VoiceMessage struct {
	Header
	MediaID     string
	Format      string
	Recognition string
}

// VideoMessage 同时承载 video 和 shortvideo
type VideoMessage struct {
	Header
	MediaID      string
	ThumbMediaID string
}

type LocationMessage struct {
	Header
	Latitude  float64
	Longitude float64
	Scale     int
	Label     string
}

type LinkMessage struct {
	Header
	Title       string
	Description string
	URL         string
}

type EventMessage struct {
	Header
	Event     string
	EventKey  string
	Ticket    string
	Latitude  float64
	Longitude float64
	Precision float64
}

// UnknownMessage 无法识别的消息类型，保留完整信封
type UnknownMessage struct {
	Header
	Envelope Envelope
}

func (*TextMessage) inbound()     {}
func (*ImageMessage) inbound()    {}
func (*VoiceMessage) inbound()    {}
func (*VideoMessage) inbound()    {}
func (*LocationMessage) inbound() {}
func (*LinkMessage) inbound()     {}
func (*EventMessage) inbound()    {}
func (*UnknownMessage) inbound()  {}
