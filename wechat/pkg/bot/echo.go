// Package bot 提供 serve 命令默认挂载的回声机器人。
package bot

import (
	"context"
	"fmt"

	"wxadapter/tools/ioc"
	"wxadapter/tools/logger"
	"wxadapter/wechat/config"
	"wxadapter/wechat/pkg/activity"
	"wxadapter/wechat/pkg/message"
)

const (
	AppName = "bot"
)

// Service 机器人逻辑，签名与 adapter.Logic 一致
type Service interface {
	OnTurn(ctx context.Context, act *activity.Activity, turn *activity.TurnBuffer) error
}

func init() {
	ioc.ConController.RegisterContainer(AppName, &Echo{})
}

// Echo 文本原样回复，媒体消息回发同一 media id，关注时发送欢迎语
type Echo struct {
	logger *logger.Logger
}

func NewEcho(log *logger.Logger) *Echo {
	if log == nil {
		log = logger.Nop()
	}
	return &Echo{logger: log}
}

func (e *Echo) Init() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	e.logger = logger.NewLogger(cfg.LogLevel)
	e.logger.Info("Echo bot initialized")
	return nil
}

func (e *Echo) OnTurn(_ context.Context, act *activity.Activity, turn *activity.TurnBuffer) error {
	if e.logger == nil {
		e.logger = logger.Nop()
	}

	switch act.Type {
	case activity.TypeEvent:
		if act.Name == message.EventSubscribe {
			turn.Append(act.Reply("Thanks for following! Send me anything and I will echo it back."))
		}
		return nil
	case activity.TypeMessage:
	default:
		return nil
	}

	reply := act.Reply(act.Text)
	for _, att := range act.Attachments {
		// 入站图片、语音、视频都带 media id，可直接回发
		if (att.IsImage() || att.IsAudio() || att.IsVideo()) && att.MediaID != "" {
			reply.Attachments = append(reply.Attachments, activity.Attachment{
				ContentType: att.ContentType,
				MediaID:     att.MediaID,
			})
		}
	}
	if reply.Text == "" && len(reply.Attachments) == 0 {
		reply.Text = fmt.Sprintf("Received a %s message.", msgType(act))
	}
	e.logger.Debug("Echoing to %s: text=%q attachments=%d", act.From.ID, reply.Text, len(reply.Attachments))
	turn.Append(reply)
	return nil
}

func msgType(act *activity.Activity) string {
	if in, ok := act.ChannelData.(message.Inbound); ok {
		return in.Head().MsgType
	}
	return string(act.Type)
}
