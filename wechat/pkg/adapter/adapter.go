// Package adapter 把公众号回调接入通用机器人逻辑：验签、解密、转换、调用逻辑、投递回复。
package adapter

import (
	"context"
	"fmt"
	"time"

	"wxadapter/tools/logger"
	"wxadapter/wechat/pkg/activity"
	"wxadapter/wechat/pkg/mapper"
	"wxadapter/wechat/pkg/message"
)

// DefaultDedupTTL 去重标记的保留时间，覆盖平台 3 次重试的窗口
const DefaultDedupTTL = 5 * time.Minute

// Logic 机器人逻辑。每个请求调用一次，回复通过 turn.Append 追加
type Logic func(ctx context.Context, act *activity.Activity, turn *activity.TurnBuffer) error

// APIClient 客服消息接口，每种原生消息一个发送方法
type APIClient interface {
	SendText(ctx context.Context, openID, text string) error
	SendImage(ctx context.Context, openID, mediaID string) error
	SendVoice(ctx context.Context, openID, mediaID string) error
	SendVideo(ctx context.Context, openID string, v message.Video) error
	SendMusic(ctx context.Context, openID string, m message.Music) error
	SendNews(ctx context.Context, openID string, articles []message.Article) error
	SendMPNews(ctx context.Context, openID, mediaID string) error
	SendMenu(ctx context.Context, openID string, m message.Menu) error
	GetAccessToken(ctx context.Context, forceRefresh bool) (string, error)
}

// Deduper 记录已处理的消息，store.Store 满足该接口。
// MarkIfNew 必须原子地检查并登记；Unmark 撤销登记，让失败的轮次可以被平台重试
type Deduper interface {
	MarkIfNew(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Unmark(ctx context.Context, key string) error
}

// Option 可选配置
type Option func(*Adapter)

func WithLogger(log *logger.Logger) Option {
	return func(a *Adapter) { a.logger = log }
}

// WithDeduper 开启重试去重，ttl 为 0 时使用 DefaultDedupTTL
func WithDeduper(d Deduper, ttl time.Duration) Option {
	return func(a *Adapter) {
		a.dedup = d
		if ttl > 0 {
			a.dedupTTL = ttl
		}
	}
}

// WithUploader 替换素材上传实现，例如带缓存的上传器
func WithUploader(u mapper.MediaUploader) Option {
	return func(a *Adapter) { a.uploader = u }
}

// Adapter 请求之间不共享可变状态，可并发使用
type Adapter struct {
	settings Settings
	client   APIClient
	uploader mapper.MediaUploader
	mapper   *mapper.Mapper
	dedup    Deduper
	dedupTTL time.Duration
	logger   *logger.Logger
}

// New 校验配置并创建适配器。client 未实现上传且未指定上传器时不上传素材
func New(settings Settings, client APIClient, opts ...Option) (*Adapter, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if client == nil && !settings.PassiveResponse {
		return nil, fmt.Errorf("%w: api client is required for asynchronous delivery", ErrArgument)
	}

	a := &Adapter{
		settings: settings,
		client:   client,
		dedupTTL: DefaultDedupTTL,
		logger:   logger.Nop(),
	}
	if u, ok := client.(mapper.MediaUploader); ok {
		a.uploader = u
	}
	for _, opt := range opts {
		opt(a)
	}
	a.mapper = mapper.New(a.uploader, settings.UploadTemporaryMedia, a.logger)
	return a, nil
}

// Settings 返回构造时的配置
func (a *Adapter) Settings() Settings {
	return a.settings
}

// SendActivities 在回调之外主动给用户发送消息，顺序发送，失败即停
func (a *Adapter) SendActivities(ctx context.Context, openID string, acts []activity.Activity) error {
	if openID == "" {
		return fmt.Errorf("%w: open id is required", ErrArgument)
	}
	if a.client == nil {
		return fmt.Errorf("%w: api client is required", ErrArgument)
	}
	acts = append([]activity.Activity(nil), acts...)
	for i := range acts {
		if acts[i].Recipient.ID == "" {
			acts[i].Recipient = activity.Account{ID: openID}
		}
		if acts[i].From.ID == "" {
			acts[i].From = activity.Account{ID: a.settings.AppID}
		}
	}
	return a.deliver(ctx, acts)
}

// UpdateActivity 平台不支持修改已发送消息
func (a *Adapter) UpdateActivity(_ context.Context, _ *activity.Activity) error {
	return ErrUnsupportedOperation
}

// DeleteActivity 平台不支持撤回客服消息
func (a *Adapter) DeleteActivity(_ context.Context, _, _ string) error {
	return ErrUnsupportedOperation
}
