package message

import (
	"encoding/xml"
	"errors"
	"fmt"
)

// ErrNotPassive 该类型不能作为被动回复返回，只能走客服接口
var ErrNotPassive = errors.New("message kind cannot be sent as a passive reply")

// SuccessBody 平台约定的“已收到，不回复”应答
var SuccessBody = []byte("success")

type cdata struct {
	Text string `xml:",cdata"`
}

func cd(s string) *cdata { return &cdata{Text: s} }

type mediaXML struct {
	MediaID *cdata `xml:"MediaId"`
}

type videoXML struct {
	MediaID     *cdata `xml:"MediaId"`
	Title       *cdata `xml:"Title,omitempty"`
	Description *cdata `xml:"Description,omitempty"`
}

type musicXML struct {
	Title        *cdata `xml:"Title,omitempty"`
	Description  *cdata `xml:"Description,omitempty"`
	MusicURL     *cdata `xml:"MusicUrl"`
	HQMusicURL   *cdata `xml:"HQMusicUrl"`
	ThumbMediaID *cdata `xml:"ThumbMediaId,omitempty"`
}

type articleXML struct {
	Title       *cdata `xml:"Title"`
	Description *cdata `xml:"Description"`
	PicURL      *cdata `xml:"PicUrl"`
	URL         *cdata `xml:"Url"`
}

type replyXML struct {
	XMLName      xml.Name     `xml:"xml"`
	ToUserName   *cdata       `xml:"ToUserName"`
	FromUserName *cdata       `xml:"FromUserName"`
	CreateTime   int64        `xml:"CreateTime"`
	MsgType      *cdata       `xml:"MsgType"`
	Content      *cdata       `xml:"Content,omitempty"`
	Image        *mediaXML    `xml:"Image,omitempty"`
	Voice        *mediaXML    `xml:"Voice,omitempty"`
	Video        *videoXML    `xml:"Video,omitempty"`
	Music        *musicXML    `xml:"Music,omitempty"`
	ArticleCount int          `xml:"ArticleCount,omitempty"`
	Articles     []articleXML `xml:"Articles>item,omitempty"`
}

// Passive 判断出站消息能否作为被动回复
func Passive(o Outbound) bool {
	switch o.(type) {
	case *TextReply, *ImageReply, *VoiceReply, *VideoReply, *MusicReply, *NewsReply:
		return true
	default:
		return false
	}
}

// RenderXML 把出站消息渲染为被动回复 XML
func RenderXML(o Outbound) ([]byte, error) {
	h := o.Head()
	r := replyXML{
		ToUserName:   cd(h.ToUserName),
		FromUserName: cd(h.FromUserName),
		CreateTime:   h.CreateTime,
	}

	switch m := o.(type) {
	case *TextReply:
		r.MsgType = cd(TypeText)
		r.Content = cd(m.Content)
	case *ImageReply:
		r.MsgType = cd(TypeImage)
		r.Image = &mediaXML{MediaID: cd(m.MediaID)}
	case *VoiceReply:
		r.MsgType = cd(TypeVoice)
		r.Voice = &mediaXML{MediaID: cd(m.MediaID)}
	case *VideoReply:
		r.MsgType = cd(TypeVideo)
		r.Video = &videoXML{MediaID: cd(m.Video.MediaID), Title: optional(m.Video.Title), Description: optional(m.Video.Description)}
	case *MusicReply:
		r.MsgType = cd(TypeMusic)
		r.Music = &musicXML{
			Title:        optional(m.Music.Title),
			Description:  optional(m.Music.Description),
			MusicURL:     cd(m.Music.MusicURL),
			HQMusicURL:   cd(m.Music.HQMusicURL),
			ThumbMediaID: optional(m.Music.ThumbMediaID),
		}
	case *NewsReply:
		if len(m.Articles) == 0 {
			return nil, fmt.Errorf("news reply without articles")
		}
		r.MsgType = cd(TypeNews)
		r.ArticleCount = len(m.Articles)
		for _, a := range m.Articles {
			r.Articles = append(r.Articles, articleXML{
				Title:       cd(a.Title),
				Description: cd(a.Description),
				PicURL:      cd(a.PicURL),
				URL:         cd(a.URL),
			})
		}
	default:
		return nil, fmt.Errorf("%w: %T", ErrNotPassive, o)
	}

	out, err := xml.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("marshal reply xml: %w", err)
	}
	return out, nil
}

func optional(s string) *cdata {
	if s == "" {
		return nil
	}
	return cd(s)
}
