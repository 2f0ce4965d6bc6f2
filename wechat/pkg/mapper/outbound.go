package mapper

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"wxadapter/tools/logger"
	"wxadapter/wechat/pkg/activity"
	"wxadapter/wechat/pkg/message"
)

// 临时素材类型
const (
	MediaImage = "image"
	MediaVoice = "voice"
	MediaVideo = "video"
	MediaThumb = "thumb"
)

// MediaUploader 把远程媒体上传为临时素材，返回 media id
type MediaUploader interface {
	UploadTemporaryMedia(ctx context.Context, mediaType, url string) (string, error)
}

// Mapper 出站转换，上传媒体时需要客户端
type Mapper struct {
	uploader MediaUploader
	upload   bool
	logger   *logger.Logger
}

// New 创建出站转换器。uploadTemporaryMedia 为 false 时只使用附件里已有的 media id
func New(uploader MediaUploader, uploadTemporaryMedia bool, log *logger.Logger) *Mapper {
	if log == nil {
		log = logger.Nop()
	}
	return &Mapper{uploader: uploader, upload: uploadTemporaryMedia && uploader != nil, logger: log}
}

// ToNative 把通用活动转换为 0 到多条原生出站消息，顺序与活动内容一致。
// ChannelData 是原生出站消息时原样转发
func (m *Mapper) ToNative(ctx context.Context, act *activity.Activity) ([]message.Outbound, error) {
	switch cd := act.ChannelData.(type) {
	case message.Outbound:
		return []message.Outbound{cd}, nil
	case []message.Outbound:
		return cd, nil
	}

	if act.Type != activity.TypeMessage && act.Type != activity.TypeEndOfConversation {
		return nil, nil
	}

	b := &builder{to: act.Recipient.ID, from: act.From.ID}

	if act.SuggestedActions != nil && len(act.SuggestedActions.Actions) > 0 {
		b.add(&message.MenuReply{
			Header: message.NewHeader(b.to, b.from, message.TypeMenu),
			Menu:   menu(act.Text, act.SuggestedActions.Actions),
		})
	} else if act.Text != "" {
		b.text(act.Text)
	}

	for i := range act.Attachments {
		if err := m.attachment(ctx, b, &act.Attachments[i]); err != nil {
			return nil, fmt.Errorf("attachment %d (%s): %w", i, act.Attachments[i].ContentType, err)
		}
	}
	b.flush()
	return b.out, nil
}

func (m *Mapper) attachment(ctx context.Context, b *builder, att *activity.Attachment) error {
	switch {
	case att.IsImage():
		id, ok, err := m.mediaID(ctx, MediaImage, att.MediaID, att.ContentURL)
		if err != nil {
			return err
		}
		if !ok {
			m.link(b, att)
			return nil
		}
		b.add(&message.ImageReply{Header: message.NewHeader(b.to, b.from, message.TypeImage), MediaID: id})
	case att.IsAudio():
		id, ok, err := m.mediaID(ctx, MediaVoice, att.MediaID, att.ContentURL)
		if err != nil {
			return err
		}
		if !ok {
			m.link(b, att)
			return nil
		}
		b.add(&message.VoiceReply{Header: message.NewHeader(b.to, b.from, message.TypeVoice), MediaID: id})
	case att.IsVideo():
		id, ok, err := m.mediaID(ctx, MediaVideo, att.MediaID, att.ContentURL)
		if err != nil {
			return err
		}
		if !ok {
			m.link(b, att)
			return nil
		}
		b.add(&message.VideoReply{
			Header: message.NewHeader(b.to, b.from, message.TypeVideo),
			Video:  message.Video{MediaID: id, Title: att.Name},
		})
	case att.ContentType == activity.ContentTypeHeroCard || att.ContentType == activity.ContentTypeThumbnailCard:
		var card activity.HeroCard
		if err := decode(att.Content, &card); err != nil {
			return err
		}
		b.article(article(&card))
	case att.ContentType == activity.ContentTypeAudioCard:
		var card activity.AudioCard
		if err := decode(att.Content, &card); err != nil {
			return err
		}
		return m.music(ctx, b, &card)
	case att.ContentType == activity.ContentTypeVideoCard:
		var card activity.VideoCard
		if err := decode(att.Content, &card); err != nil {
			return err
		}
		return m.videoCard(ctx, b, &card)
	case att.ContentType == activity.ContentTypeMPNews:
		var news activity.MPNews
		if err := decode(att.Content, &news); err != nil {
			return err
		}
		if news.MediaID == "" {
			news.MediaID = att.MediaID
		}
		b.add(&message.MPNewsReply{Header: message.NewHeader(b.to, b.from, message.TypeMPNews), MediaID: news.MediaID})
	case att.ContentType == activity.ContentTypeLocation:
		var loc activity.Location
		if err := decode(att.Content, &loc); err != nil {
			return err
		}
		b.add(&message.LocationReply{
			Header:    message.NewHeader(b.to, b.from, message.TypeLocation),
			Latitude:  loc.Latitude,
			Longitude: loc.Longitude,
			Label:     loc.Label,
		})
	default:
		m.logger.Warn("Unsupported attachment content type %q, sending as link", att.ContentType)
		m.link(b, att)
	}
	return nil
}

func (m *Mapper) music(ctx context.Context, b *builder, card *activity.AudioCard) error {
	music := message.Music{
		Title:       card.Title,
		Description: firstNonEmpty(card.Subtitle, card.Text),
	}
	if len(card.Media) > 0 {
		music.MusicURL = card.Media[0].URL
		music.HQMusicURL = card.Media[0].URL
	}
	if card.Image != nil {
		thumb, _, err := m.mediaID(ctx, MediaThumb, "", card.Image.URL)
		if err != nil {
			return err
		}
		music.ThumbMediaID = thumb
	}
	b.add(&message.MusicReply{Header: message.NewHeader(b.to, b.from, message.TypeMusic), Music: music})
	return nil
}

func (m *Mapper) videoCard(ctx context.Context, b *builder, card *activity.VideoCard) error {
	if len(card.Media) == 0 {
		return fmt.Errorf("video card without media")
	}
	id, ok, err := m.mediaID(ctx, MediaVideo, card.Media[0].MediaID, card.Media[0].URL)
	if err != nil {
		return err
	}
	if !ok {
		b.text(strings.TrimSpace(card.Title + "\n" + card.Media[0].URL))
		return nil
	}
	video := message.Video{
		MediaID:     id,
		Title:       card.Title,
		Description: firstNonEmpty(card.Subtitle, card.Text),
	}
	if card.Image != nil {
		thumb, _, err := m.mediaID(ctx, MediaThumb, "", card.Image.URL)
		if err != nil {
			return err
		}
		video.ThumbMediaID = thumb
	}
	b.add(&message.VideoReply{Header: message.NewHeader(b.to, b.from, message.TypeVideo), Video: video})
	return nil
}

// mediaID 优先使用已有 media id，开启上传时再上传 URL；ok 为 false 表示无法得到 media id
func (m *Mapper) mediaID(ctx context.Context, mediaType, mediaID, url string) (string, bool, error) {
	if mediaID != "" {
		return mediaID, true, nil
	}
	if !m.upload || url == "" {
		return "", false, nil
	}
	id, err := m.uploader.UploadTemporaryMedia(ctx, mediaType, url)
	if err != nil {
		return "", false, fmt.Errorf("upload %s %s: %w", mediaType, url, err)
	}
	return id, true, nil
}

// builder 收集出站消息，连续的图文卡片合并为一条图文消息
type builder struct {
	to, from string
	out      []message.Outbound
	articles []message.Article
}

func (b *builder) add(o message.Outbound) {
	b.flush()
	b.out = append(b.out, o)
}

func (b *builder) text(s string) {
	b.add(&message.TextReply{Header: message.NewHeader(b.to, b.from, message.TypeText), Content: s})
}

// link 无法转成原生消息的附件退化为名称加链接的文本；连链接都没有时丢弃并告警
func (m *Mapper) link(b *builder, att *activity.Attachment) {
	if att.ContentURL == "" {
		m.logger.Warn("Attachment %q (%s) has neither media id nor content url, dropped", att.Name, att.ContentType)
		return
	}
	b.text(strings.TrimSpace(att.Name + "\n" + att.ContentURL))
}

func (b *builder) article(a message.Article) {
	b.articles = append(b.articles, a)
	if len(b.articles) == message.MaxArticles {
		b.flush()
	}
}

func (b *builder) flush() {
	if len(b.articles) == 0 {
		return
	}
	b.out = append(b.out, &message.NewsReply{
		Header:   message.NewHeader(b.to, b.from, message.TypeNews),
		Articles: b.articles,
	})
	b.articles = nil
}

func article(card *activity.HeroCard) message.Article {
	a := message.Article{
		Title:       card.Title,
		Description: firstNonEmpty(card.Subtitle, card.Text),
	}
	if len(card.Images) > 0 {
		a.PicURL = card.Images[0].URL
	}
	if card.Tap != nil {
		a.URL = card.Tap.Value
	} else {
		for _, btn := range card.Buttons {
			if btn.Type == "openUrl" {
				a.URL = btn.Value
				break
			}
		}
	}
	return a
}

func menu(head string, actions []activity.CardAction) message.Menu {
	mn := message.Menu{HeadContent: head}
	for i, a := range actions {
		content := a.Title
		if content == "" {
			content = a.Value
		}
		mn.Items = append(mn.Items, message.MenuItem{ID: fmt.Sprintf("%d", i+1), Content: content})
	}
	return mn
}

// decode 支持直接传结构体、结构体指针或 JSON 反序列化得到的 map
func decode(content any, out any) error {
	if content == nil {
		return fmt.Errorf("attachment has no content")
	}
	switch v := content.(type) {
	case activity.HeroCard:
		if p, ok := out.(*activity.HeroCard); ok {
			*p = v
			return nil
		}
	case *activity.HeroCard:
		if p, ok := out.(*activity.HeroCard); ok && v != nil {
			*p = *v
			return nil
		}
	case activity.ThumbnailCard:
		if p, ok := out.(*activity.HeroCard); ok {
			*p = activity.HeroCard(v)
			return nil
		}
	}
	data, err := json.Marshal(content)
	if err != nil {
		return fmt.Errorf("encode attachment content: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode attachment content: %w", err)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
