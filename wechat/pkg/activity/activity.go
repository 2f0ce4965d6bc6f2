// Package activity 定义与渠道无关的通用消息结构，由机器人逻辑产生和消费。
package activity

import "time"

// Type 活动类型
type Type string

const (
	TypeMessage           Type = "message"
	TypeEvent             Type = "event"
	TypeDelay             Type = "delay"
	TypeEndOfConversation Type = "endOfConversation"
)

// ChannelID 本渠道标识
const ChannelID = "wechat"

// DefaultDelay delay 活动未指定时长时的等待时间
const DefaultDelay = time.Second

// Account 会话参与方
type Account struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// Conversation 会话，公众号单聊以用户 open id 作为会话 ID
type Conversation struct {
	ID      string `json:"id"`
	IsGroup bool   `json:"isGroup"`
}

// Location 位置消息的通用表示
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Scale     int     `json:"scale,omitempty"`
	Label     string  `json:"label,omitempty"`
}

// CardAction 卡片按钮或建议操作
type CardAction struct {
	Type  string `json:"type,omitempty"`
	Title string `json:"title"`
	Value string `json:"value,omitempty"`
}

// SuggestedActions 渲染为菜单消息
type SuggestedActions struct {
	Actions []CardAction `json:"actions"`
}

// Activity 通用活动。ChannelData 用于承载无法无损映射的原生消息
type Activity struct {
	ID           string       `json:"id,omitempty"`
	Type         Type         `json:"type"`
	Timestamp    time.Time    `json:"timestamp"`
	ChannelID    string       `json:"channelId,omitempty"`
	From         Account      `json:"from"`
	Recipient    Account      `json:"recipient"`
	Conversation Conversation `json:"conversation"`
	ReplyToID    string       `json:"replyToId,omitempty"`

	Text             string            `json:"text,omitempty"`
	Speak            string            `json:"speak,omitempty"`
	Attachments      []Attachment      `json:"attachments,omitempty"`
	SuggestedActions *SuggestedActions `json:"suggestedActions,omitempty"`

	// Name 事件名，Value 事件参数或 delay 时长
	Name  string `json:"name,omitempty"`
	Value any    `json:"value,omitempty"`

	ChannelData any `json:"channelData,omitempty"`
}

// Reply 基于入站活动创建回复，收发双方互换
func (a *Activity) Reply(text string) Activity {
	return Activity{
		Type:         TypeMessage,
		Timestamp:    time.Now(),
		ChannelID:    a.ChannelID,
		From:         a.Recipient,
		Recipient:    a.From,
		Conversation: a.Conversation,
		ReplyToID:    a.ID,
		Text:         text,
	}
}

// DelayDuration 解析 delay 活动的等待时长：time.Duration 或毫秒数
func (a *Activity) DelayDuration() time.Duration {
	switch v := a.Value.(type) {
	case time.Duration:
		if v > 0 {
			return v
		}
	case int:
		if v > 0 {
			return time.Duration(v) * time.Millisecond
		}
	case int64:
		if v > 0 {
			return time.Duration(v) * time.Millisecond
		}
	case float64:
		if v > 0 {
			return time.Duration(v * float64(time.Millisecond))
		}
	}
	return DefaultDelay
}
