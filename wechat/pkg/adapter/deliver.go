package adapter

import (
	"context"
	"fmt"
	"time"

	"wxadapter/wechat/pkg/activity"
	"wxadapter/wechat/pkg/envelope"
	"wxadapter/wechat/pkg/message"
)

// deliver 逐条调用客服接口，前一条返回后才发送下一条，任一失败立即返回
func (a *Adapter) deliver(ctx context.Context, acts []activity.Activity) error {
	for i := range acts {
		act := &acts[i]
		switch act.Type {
		case activity.TypeDelay:
			if err := wait(ctx, act.DelayDuration()); err != nil {
				return fmt.Errorf("%w: delay interrupted: %w", ErrDelivery, err)
			}
			continue
		case activity.TypeMessage, activity.TypeEndOfConversation:
		default:
			if act.ChannelData == nil {
				a.logger.Debug("Skipping outgoing activity of type %s", act.Type)
				continue
			}
		}

		natives, err := a.mapper.ToNative(ctx, act)
		if err != nil {
			return fmt.Errorf("%w: activity %d: %w", ErrDelivery, i, err)
		}
		for _, o := range natives {
			if err := a.send(ctx, o); err != nil {
				return fmt.Errorf("%w: %w", ErrDelivery, err)
			}
		}
	}
	return nil
}

// send 按原生消息类型选择发送接口。位置回显、success 和不回复标记没有对应接口，直接忽略
func (a *Adapter) send(ctx context.Context, o message.Outbound) error {
	to := o.Head().ToUserName
	var err error
	switch m := o.(type) {
	case *message.TextReply:
		err = a.client.SendText(ctx, to, m.Content)
	case *message.ImageReply:
		err = a.client.SendImage(ctx, to, m.MediaID)
	case *message.VoiceReply:
		err = a.client.SendVoice(ctx, to, m.MediaID)
	case *message.VideoReply:
		err = a.client.SendVideo(ctx, to, m.Video)
	case *message.MusicReply:
		err = a.client.SendMusic(ctx, to, m.Music)
	case *message.NewsReply:
		err = a.client.SendNews(ctx, to, m.Articles)
	case *message.MPNewsReply:
		err = a.client.SendMPNews(ctx, to, m.MediaID)
	case *message.MenuReply:
		err = a.client.SendMenu(ctx, to, m.Menu)
	case *message.LocationReply, *message.SuccessReply, *message.NoReply:
		a.logger.Debug("Outbound %s has no delivery call", o.Head().MsgType)
		return nil
	default:
		a.logger.Warn("Unknown outbound message %T ignored", o)
		return nil
	}
	if err != nil {
		return err
	}
	deliveredMessages.WithLabelValues(o.Head().MsgType).Inc()
	return nil
}

// passive 把第一条可被动回复的消息渲染进响应体，其余可被动回复的丢弃并计数。
// 菜单、图文素材等被动回复无法承载的类型，配置了客户端时走客服接口，否则丢弃。delay 在此模式下跳过
func (a *Adapter) passive(ctx context.Context, t *turn, acts []activity.Activity) (*Reply, error) {
	var inline message.Outbound
	for i := range acts {
		act := &acts[i]
		if act.Type == activity.TypeDelay {
			continue
		}
		natives, err := a.mapper.ToNative(ctx, act)
		if err != nil {
			return nil, fmt.Errorf("%w: activity %d: %w", ErrDelivery, i, err)
		}
		for _, o := range natives {
			switch o.(type) {
			case *message.LocationReply, *message.SuccessReply, *message.NoReply:
				continue
			}
			if !message.Passive(o) {
				if a.client == nil {
					droppedPassive.Inc()
					a.logger.Warn("Passive reply cannot carry %s message and no API client is configured, dropping", o.Head().MsgType)
					continue
				}
				if err := a.send(ctx, o); err != nil {
					return nil, fmt.Errorf("%w: %w", ErrDelivery, err)
				}
				continue
			}
			if inline == nil {
				inline = o
				continue
			}
			droppedPassive.Inc()
			a.logger.Warn("Passive reply already holds a %s message, dropping %s message", inline.Head().MsgType, o.Head().MsgType)
		}
	}

	if inline == nil {
		return successReply(StateDelivered), nil
	}

	body, err := message.RenderXML(inline)
	if err != nil {
		return nil, fmt.Errorf("%w: render passive reply: %w", ErrDelivery, err)
	}
	if t.encrypted && a.settings.EncodingAESKey != "" {
		body, err = envelope.EncryptReply(body, t.secret)
		if err != nil {
			return nil, fmt.Errorf("%w: encrypt passive reply: %w", ErrDelivery, err)
		}
	}
	deliveredMessages.WithLabelValues(inline.Head().MsgType).Inc()
	return &Reply{State: StateDelivered, ContentType: ContentTypeXML, Body: body}, nil
}

// wait 暂停投递，ctx 取消时提前返回
func wait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
