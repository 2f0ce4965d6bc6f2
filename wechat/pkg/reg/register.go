package register

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"wxadapter/tools/ioc"
	"wxadapter/wechat/config"

	_ "wxadapter/wechat/pkg/handler"
)

type RegisterHandler struct {
	appID   string
	passive bool
}

func init() {
	ioc.Api.RegisterContainer("WechatRegister", &RegisterHandler{})
}

func (h *RegisterHandler) Init() error {
	c, err := config.LoadConfig()
	if err != nil {
		return err
	}
	h.appID = c.WechatAppID
	h.passive = c.WechatPassiveResponse
	h.Register(c.Application.GinRootRouter())
	return nil
}

func (h *RegisterHandler) Register(r gin.IRouter) {
	r.GET("/health", h.Health)
}

// Health 存活探针
func (h *RegisterHandler) Health(ctx *gin.Context) {
	mode := "async"
	if h.passive {
		mode = "passive"
	}
	ctx.JSON(http.StatusOK, gin.H{
		"message": "hello ok！",
		"app_id":  h.appID,
		"mode":    mode,
	})
}
