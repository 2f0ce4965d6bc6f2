package activity

import "strings"

// 卡片类附件的 ContentType
const (
	ContentTypeHeroCard      = "application/vnd.card.hero"
	ContentTypeThumbnailCard = "application/vnd.card.thumbnail"
	ContentTypeAudioCard     = "application/vnd.card.audio"
	ContentTypeVideoCard     = "application/vnd.card.video"
	ContentTypeMPNews        = "application/vnd.wechat.mpnews"
	ContentTypeLocation      = "application/vnd.location"
	ContentTypeLink          = "application/vnd.link"
)

// Attachment 附件。媒体类附件用 ContentURL 或 MediaID 引用，卡片类附件内容放在 Content
type Attachment struct {
	ContentType  string `json:"contentType"`
	ContentURL   string `json:"contentUrl,omitempty"`
	MediaID      string `json:"mediaId,omitempty"`
	Name         string `json:"name,omitempty"`
	ThumbnailURL string `json:"thumbnailUrl,omitempty"`
	Content      any    `json:"content,omitempty"`
}

// IsImage 等根据 MIME 主类型判断媒体种类
func (a Attachment) IsImage() bool { return strings.HasPrefix(a.ContentType, "image/") }
func (a Attachment) IsAudio() bool { return strings.HasPrefix(a.ContentType, "audio/") }
func (a Attachment) IsVideo() bool { return strings.HasPrefix(a.ContentType, "video/") }

// CardImage 卡片图片
type CardImage struct {
	URL string `json:"url"`
	Alt string `json:"alt,omitempty"`
}

// MediaURL 音视频卡片的媒体地址
type MediaURL struct {
	URL     string `json:"url"`
	MediaID string `json:"mediaId,omitempty"`
}

// HeroCard 图文卡片，映射为图文消息中的一篇文章
type HeroCard struct {
	Title    string       `json:"title,omitempty"`
	Subtitle string       `json:"subtitle,omitempty"`
	Text     string       `json:"text,omitempty"`
	Images   []CardImage  `json:"images,omitempty"`
	Buttons  []CardAction `json:"buttons,omitempty"`
	Tap      *CardAction  `json:"tap,omitempty"`
}

// ThumbnailCard 与 HeroCard 映射方式相同
type ThumbnailCard HeroCard

// AudioCard 映射为音乐消息
type AudioCard struct {
	Title    string     `json:"title,omitempty"`
	Subtitle string     `json:"subtitle,omitempty"`
	Text     string     `json:"text,omitempty"`
	Image    *CardImage `json:"image,omitempty"`
	Media    []MediaURL `json:"media,omitempty"`
}

// VideoCard 映射为视频消息
type VideoCard struct {
	Title    string     `json:"title,omitempty"`
	Subtitle string     `json:"subtitle,omitempty"`
	Text     string     `json:"text,omitempty"`
	Image    *CardImage `json:"image,omitempty"`
	Media    []MediaURL `json:"media,omitempty"`
}

// MPNews 已发布图文的 media id
type MPNews struct {
	MediaID string `json:"mediaId"`
}
