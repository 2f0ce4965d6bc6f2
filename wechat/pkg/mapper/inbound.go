// Package mapper 在公众号原生消息和通用活动之间转换。
package mapper

import (
	"strconv"
	"time"

	"github.com/google/uuid"

	"wxadapter/wechat/pkg/activity"
	"wxadapter/wechat/pkg/message"
)

// ToGeneric 把入站消息转换为通用活动。对所有变体都有定义，原生消息始终放在 ChannelData
func ToGeneric(in message.Inbound) activity.Activity {
	h := in.Head()
	act := activity.Activity{
		ID:           activityID(h),
		Type:         activity.TypeMessage,
		Timestamp:    time.Unix(h.CreateTime, 0),
		ChannelID:    activity.ChannelID,
		From:         activity.Account{ID: h.FromUserName},
		Recipient:    activity.Account{ID: h.ToUserName},
		Conversation: activity.Conversation{ID: h.FromUserName},
		ChannelData:  in,
	}

	switch m := in.(type) {
	case *message.TextMessage:
		act.Text = m.Content
	case *message.ImageMessage:
		act.Attachments = []activity.Attachment{{
			ContentType: "image/*",
			ContentURL:  m.PicURL,
			MediaID:     m.MediaID,
		}}
	case *message.VoiceMessage:
		act.Text = m.Recognition
		act.Attachments = []activity.Attachment{{
			ContentType: audioType(m.Format),
			MediaID:     m.MediaID,
		}}
	case *message.VideoMessage:
		act.Attachments = []activity.Attachment{{
			ContentType: "video/*",
			MediaID:     m.MediaID,
			Name:        m.MsgType,
		}}
	case *message.LocationMessage:
		loc := activity.Location{Latitude: m.Latitude, Longitude: m.Longitude, Scale: m.Scale, Label: m.Label}
		act.Text = m.Label
		act.Value = loc
		act.Attachments = []activity.Attachment{{ContentType: activity.ContentTypeLocation, Content: loc}}
	case *message.LinkMessage:
		act.Text = m.URL
		act.Attachments = []activity.Attachment{{
			ContentType: activity.ContentTypeLink,
			ContentURL:  m.URL,
			Name:        m.Title,
			Content:     m.Description,
		}}
	case *message.EventMessage:
		act.Type = activity.TypeEvent
		act.Name = m.Event
		if m.Event == message.EventLocation {
			act.Value = activity.Location{Latitude: m.Latitude, Longitude: m.Longitude}
		} else {
			act.Value = m.EventKey
		}
	case *message.UnknownMessage:
		if m.Envelope.Content != "" {
			act.Text = m.Envelope.Content
		} else {
			act.Type = activity.TypeEvent
			act.Name = m.MsgType
		}
	}
	return act
}

func activityID(h message.Header) string {
	if h.MsgID != 0 {
		return strconv.FormatInt(h.MsgID, 10)
	}
	return uuid.New().String()
}

func audioType(format string) string {
	if format == "" {
		return "audio/*"
	}
	return "audio/" + format
}
