package handler

import (
	"context"
	"fmt"

	"wxadapter/tools/httpclient"
	"wxadapter/tools/ioc"
	"wxadapter/tools/logger"
	"wxadapter/wechat/config"
	"wxadapter/wechat/pkg/adapter"
	"wxadapter/wechat/pkg/bot"
	"wxadapter/wechat/pkg/media"
	"wxadapter/wechat/pkg/store"
	"wxadapter/wechat/pkg/wechat"
)

type ApiHandler struct {
	handler *Handler
}

func init() {
	ioc.Api.RegisterContainer("WechatHandler", &ApiHandler{})
}

// Init 组装存储、客户端和适配器，并注册路由
func (h *ApiHandler) Init() error {
	c, err := config.LoadConfig()
	if err != nil {
		return err
	}
	log := logger.NewLogger(c.LogLevel)

	logic, ok := ioc.ConController.GetMapContainer(bot.AppName).(bot.Service)
	if !ok {
		return fmt.Errorf("bot service %q is not registered", bot.AppName)
	}

	var st store.Store = store.NewMemoryStore()
	if rdb := c.GetRedis(); rdb != nil {
		st = store.NewRedisStoreWithClient(rdb)
		log.Info("Using redis store at %s", c.RedisAddr)
	}

	client := wechat.NewClient(wechat.Options{
		AppID:      c.WechatAppID,
		AppSecret:  c.WechatAppSecret,
		BaseURL:    c.WechatAPIBaseURL,
		HTTPClient: httpclient.NewPooledClient(c.WriteTimeout*3, c.MaxIdleConns, c.MaxIdleConnsPerHost, c.IdleConnTimeout),
		Store:      st,
		Logger:     log,
	})

	cache, err := newMediaCache(c, log)
	if err != nil {
		return err
	}

	a, err := adapter.New(c.Settings(), client,
		adapter.WithLogger(log),
		adapter.WithDeduper(st, c.DedupTTL),
		adapter.WithUploader(media.NewCachingUploader(client, cache, log)),
	)
	if err != nil {
		return err
	}
	h.handler = NewHandler(a, logic.OnTurn, log)

	h.handler.RegisterWebhook(c.Application.GinServer().Group(c.WechatWebhookPath))
	h.handler.RegisterAPI(c.Application.GinRootRouter().Group("wechat"))
	log.Info("Wechat webhook registered at %s", c.WechatWebhookPath)
	return nil
}

func newMediaCache(c *config.Config, log *logger.Logger) (media.Cache, error) {
	if c.MediaCache != "mysql" {
		return media.NewMemoryCache(), nil
	}
	db, err := c.GetDB()
	if err != nil {
		return nil, err
	}
	cache := media.NewGormCache(db)
	if err := cache.Migrate(context.Background()); err != nil {
		return nil, fmt.Errorf("migrate media cache: %w", err)
	}
	log.Info("Using mysql media cache")
	return cache, nil
}
