package wechat

import (
	"context"
	"fmt"

	"wxadapter/wechat/pkg/message"
)

const customSendPath = "/cgi-bin/message/custom/send"

type customMessage struct {
	ToUser  string   `json:"touser"`
	MsgType string   `json:"msgtype"`
	Text    *content `json:"text,omitempty"`
	Image   *media   `json:"image,omitempty"`
	Voice   *media   `json:"voice,omitempty"`
	MPNews  *media   `json:"mpnews,omitempty"`
	Video   *video   `json:"video,omitempty"`
	Music   *music   `json:"music,omitempty"`
	News    *news    `json:"news,omitempty"`
	Menu    *msgMenu `json:"msgmenu,omitempty"`
}

type content struct {
	Content string `json:"content"`
}

type media struct {
	MediaID string `json:"media_id"`
}

type video struct {
	MediaID      string `json:"media_id"`
	ThumbMediaID string `json:"thumb_media_id,omitempty"`
	Title        string `json:"title,omitempty"`
	Description  string `json:"description,omitempty"`
}

type music struct {
	Title        string `json:"title,omitempty"`
	Description  string `json:"description,omitempty"`
	MusicURL     string `json:"musicurl"`
	HQMusicURL   string `json:"hqmusicurl"`
	ThumbMediaID string `json:"thumb_media_id"`
}

type article struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	PicURL      string `json:"picurl"`
}

type news struct {
	Articles []article `json:"articles"`
}

type menuItem struct {
	ID      string `json:"id"`
	Content string `json:"content"`
}

type msgMenu struct {
	HeadContent string     `json:"head_content"`
	List        []menuItem `json:"list"`
	TailContent string     `json:"tail_content"`
}

func (c *Client) send(ctx context.Context, msg customMessage) error {
	c.logger.Debug("Sending %s message to %s", msg.MsgType, msg.ToUser)
	if err := c.postJSON(ctx, customSendPath, msg, nil); err != nil {
		return fmt.Errorf("send %s to %s: %w", msg.MsgType, msg.ToUser, err)
	}
	c.logger.Info("Message sent successfully, type: %s, to: %s", msg.MsgType, msg.ToUser)
	return nil
}

func (c *Client) SendText(ctx context.Context, openID, text string) error {
	return c.send(ctx, customMessage{ToUser: openID, MsgType: message.TypeText, Text: &content{Content: text}})
}

func (c *Client) SendImage(ctx context.Context, openID, mediaID string) error {
	return c.send(ctx, customMessage{ToUser: openID, MsgType: message.TypeImage, Image: &media{MediaID: mediaID}})
}

func (c *Client) SendVoice(ctx context.Context, openID, mediaID string) error {
	return c.send(ctx, customMessage{ToUser: openID, MsgType: message.TypeVoice, Voice: &media{MediaID: mediaID}})
}

func (c *Client) SendVideo(ctx context.Context, openID string, v message.Video) error {
	return c.send(ctx, customMessage{ToUser: openID, MsgType: message.TypeVideo, Video: &video{
		MediaID:      v.MediaID,
		ThumbMediaID: v.ThumbMediaID,
		Title:        v.Title,
		Description:  v.Description,
	}})
}

func (c *Client) SendMusic(ctx context.Context, openID string, m message.Music) error {
	return c.send(ctx, customMessage{ToUser: openID, MsgType: message.TypeMusic, Music: &music{
		Title:        m.Title,
		Description:  m.Description,
		MusicURL:     m.MusicURL,
		HQMusicURL:   m.HQMusicURL,
		ThumbMediaID: m.ThumbMediaID,
	}})
}

// SendNews 客服接口的图文消息只允许 1 篇文章，多篇时逐篇发送
func (c *Client) SendNews(ctx context.Context, openID string, articles []message.Article) error {
	if len(articles) == 0 {
		return fmt.Errorf("news without articles")
	}
	for _, a := range articles {
		err := c.send(ctx, customMessage{ToUser: openID, MsgType: message.TypeNews, News: &news{Articles: []article{{
			Title:       a.Title,
			Description: a.Description,
			URL:         a.URL,
			PicURL:      a.PicURL,
		}}}})
		if err != nil {
			return err
		}
	}
	return nil
}

func (c *Client) SendMPNews(ctx context.Context, openID, mediaID string) error {
	return c.send(ctx, customMessage{ToUser: openID, MsgType: message.TypeMPNews, MPNews: &media{MediaID: mediaID}})
}

func (c *Client) SendMenu(ctx context.Context, openID string, m message.Menu) error {
	mm := &msgMenu{HeadContent: m.HeadContent, TailContent: m.TailContent}
	for _, item := range m.Items {
		mm.List = append(mm.List, menuItem{ID: item.ID, Content: item.Content})
	}
	return c.send(ctx, customMessage{ToUser: openID, MsgType: message.TypeMenu, Menu: mm})
}
