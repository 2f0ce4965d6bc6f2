package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"wxadapter/tools/logger"
	"wxadapter/tools/middleware"
	"wxadapter/wechat/pkg/activity"
	"wxadapter/wechat/pkg/adapter"
	"wxadapter/wechat/pkg/signature"
)

// maxBodySize 回调消息体上限
const maxBodySize = 1 << 20

// Handler 公众号回调和主动发送接口
type Handler struct {
	adapter *adapter.Adapter
	logic   adapter.Logic
	logger  *logger.Logger
}

// NewHandler 创建新的HTTP处理器
func NewHandler(a *adapter.Adapter, logic adapter.Logic, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	return &Handler{adapter: a, logic: logic, logger: log}
}

// RegisterWebhook 平台回调地址，GET 用于接入验证，POST 推送消息
func (h *Handler) RegisterWebhook(r gin.IRouter) {
	r.GET("", h.Verify)
	r.POST("", h.Receive)
}

// RegisterAPI 业务侧主动发送
func (h *Handler) RegisterAPI(r gin.IRouter) {
	r.POST("/send", h.Send)
}

// Verify 签名正确时原样返回 echostr
func (h *Handler) Verify(c *gin.Context) {
	sig := c.Query("signature")
	timestamp := c.Query("timestamp")
	nonce := c.Query("nonce")
	echostr := c.Query("echostr")

	if !signature.Verify(sig, timestamp, nonce, h.adapter.Settings().Token) {
		h.logger.Warn("Webhook verification failed: timestamp=%s, nonce=%s", timestamp, nonce)
		middleware.Failed(middleware.ErrUnauthorized("signature mismatch"), c)
		return
	}
	h.logger.Info("Webhook verification succeeded")
	c.String(http.StatusOK, echostr)
}

// Receive 处理平台推送的消息
func (h *Handler) Receive(c *gin.Context) {
	log := h.logger.With("request_id", uuid.NewString())

	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBodySize))
	if err != nil {
		log.Warn("Failed to read request body: %v", err)
		middleware.Failed(middleware.ErrValidateFailed("failed to read body: %v", err), c)
		return
	}

	secret := &adapter.SecretInfo{
		Signature:    c.Query("signature"),
		Timestamp:    c.Query("timestamp"),
		Nonce:        c.Query("nonce"),
		MsgSignature: c.Query("msg_signature"),
	}

	reply, err := h.adapter.ProcessActivity(c.Request.Context(), body, secret, h.logic)
	if err != nil {
		log.Error("Failed to process message: %v", err)
		middleware.Failed(toAPIError(err), c)
		return
	}
	log.Debug("Replying with %d bytes, state=%s", len(reply.Body), reply.State)
	c.Data(http.StatusOK, reply.ContentType, reply.Body)
}

// SendRequest 主动发送请求体
type SendRequest struct {
	OpenID     string              `json:"open_id" binding:"required"`
	Activities []activity.Activity `json:"activities" binding:"required"`
}

// Send 通过客服接口主动发送
func (h *Handler) Send(c *gin.Context) {
	var req SendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request body: %v", err)
		middleware.Failed(middleware.ErrValidateFailed("invalid request body: %v", err), c)
		return
	}

	if err := h.adapter.SendActivities(c.Request.Context(), req.OpenID, req.Activities); err != nil {
		h.logger.Error("Failed to send activities to %s: %v", req.OpenID, err)
		middleware.Failed(toAPIError(err), c)
		return
	}
	middleware.Success(gin.H{"code": 0, "message": "success", "data": gin.H{"sent": len(req.Activities)}}, c)
}

// toAPIError 把适配器错误映射为 HTTP 状态
func toAPIError(err error) error {
	msg := err.Error()
	switch {
	case errors.Is(err, adapter.ErrAuthentication):
		return middleware.ErrUnauthorized("%s", msg)
	case errors.Is(err, adapter.ErrArgument), errors.Is(err, adapter.ErrMalformedEnvelope):
		return middleware.ErrValidateFailed("%s", msg)
	case errors.Is(err, adapter.ErrUnsupportedOperation):
		return middleware.ErrNotImplemented("%s", msg)
	case errors.Is(err, adapter.ErrDelivery):
		return middleware.ErrBadGateway("%s", msg)
	default:
		return err
	}
}
