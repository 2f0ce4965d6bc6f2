package adapter

import (
	"context"
	"fmt"
	"time"

	"wxadapter/wechat/pkg/activity"
	"wxadapter/wechat/pkg/envelope"
	"wxadapter/wechat/pkg/mapper"
	"wxadapter/wechat/pkg/message"
	"wxadapter/wechat/pkg/signature"
)

// 回复体的 Content-Type
const (
	ContentTypeXML   = "application/xml; charset=utf-8"
	ContentTypePlain = "text/plain; charset=utf-8"
)

// Reply 回调的 HTTP 响应内容
type Reply struct {
	State       State
	ContentType string
	Body        []byte
}

func successReply(state State) *Reply {
	return &Reply{State: state, ContentType: ContentTypePlain, Body: message.SuccessBody}
}

// turn 单次请求的处理上下文，不跨请求共享
type turn struct {
	state     State
	body      []byte
	secret    *SecretInfo
	envelope  *message.Envelope
	encrypted bool
	inbound   activity.Activity
	dedupKey  string
}

// ProcessActivity 处理一次回调请求。secret 只需带上请求中的 signature、timestamp、nonce、msg_signature。
// 返回错误时 Reply 为 nil；被动回复模式下 Reply.Body 是回复 XML，否则为 "success"
func (a *Adapter) ProcessActivity(ctx context.Context, body []byte, secret *SecretInfo, logic Logic) (reply *Reply, err error) {
	start := time.Now()
	t := &turn{state: StateReceived, body: body}
	defer func() {
		dispatchTotal.WithLabelValues(string(t.state)).Inc()
		dispatchDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			a.logger.Warn("Dispatch finished: state=%s, error=%v", t.state, err)
		} else {
			a.logger.Info("Dispatch finished: state=%s", t.state)
		}
	}()

	if secret == nil || logic == nil || len(body) == 0 {
		t.state = StateRejected
		return nil, fmt.Errorf("%w: body, secret info and logic are required", ErrArgument)
	}
	t.secret = a.settings.secret(secret)

	if err := a.verify(t); err != nil {
		t.state = StateRejected
		return nil, err
	}
	t.state = StateVerified

	if err := a.decode(t); err != nil {
		t.state = StateRejected
		return nil, err
	}
	t.state = StateDecoded

	if dup := a.duplicate(ctx, t); dup {
		t.state = StateDuplicate
		return successReply(StateDuplicate), nil
	}

	t.inbound = mapper.ToGeneric(t.envelope.Inbound())
	t.state = StateMapped
	a.logger.Debug("Inbound activity: type=%s, from=%s, id=%s", t.inbound.Type, t.inbound.From.ID, t.inbound.ID)

	buf := activity.NewTurnBuffer()
	t.state = StateLogicInvoked
	if err := logic(ctx, &t.inbound, buf); err != nil {
		t.state = StateFailed
		a.release(ctx, t)
		return nil, fmt.Errorf("bot logic: %w", err)
	}

	outgoing := a.address(buf.Activities(), &t.inbound)
	t.state = StateCollected

	if a.settings.PassiveResponse {
		reply, err = a.passive(ctx, t, outgoing)
	} else {
		err = a.deliver(ctx, outgoing)
		if err == nil {
			reply = successReply(StateDelivered)
		}
	}
	if err != nil {
		t.state = StateFailed
		a.release(ctx, t)
		return nil, err
	}
	t.state = StateDelivered
	return reply, nil
}

// verify 校验 URL 签名；安全模式请求带 msg_signature 时在 decode 中另行校验
func (a *Adapter) verify(t *turn) error {
	s := t.secret
	if !signature.Verify(s.Signature, s.Timestamp, s.Nonce, s.Token) {
		return fmt.Errorf("%w: signature mismatch", ErrAuthentication)
	}
	return nil
}

// decode 解析 XML，带 Encrypt 时先校验 msg_signature 再解密
func (a *Adapter) decode(t *turn) error {
	env, err := message.ParseEnvelope(t.body)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedEnvelope, err)
	}
	if !env.Encrypted() {
		t.envelope = env
		return nil
	}

	s := t.secret
	if s.MsgSignature != "" && !signature.VerifyMsg(s.MsgSignature, s.Timestamp, s.Nonce, s.Token, env.Encrypt) {
		return fmt.Errorf("%w: msg_signature mismatch", ErrAuthentication)
	}
	dec, err := envelope.Decrypt(env, s)
	if err != nil {
		return fmt.Errorf("%w: decrypt: %w", ErrMalformedEnvelope, err)
	}
	t.envelope = dec.Envelope
	t.encrypted = true
	return nil
}

// duplicate 判断是否为平台重试推送，首次见到时登记。去重存储出错时按新消息处理
func (a *Adapter) duplicate(ctx context.Context, t *turn) bool {
	if a.dedup == nil {
		return false
	}
	key := t.envelope.DedupKey()
	if key == "" {
		return false
	}
	fresh, err := a.dedup.MarkIfNew(ctx, key, a.dedupTTL)
	if err != nil {
		a.logger.Warn("Failed to mark dedup key %s: %v", key, err)
		return false
	}
	if !fresh {
		a.logger.Info("Duplicate delivery %s acknowledged", key)
		return true
	}
	t.dedupKey = key
	return false
}

// release 轮次失败时撤销去重登记，平台重试时重新处理。请求 ctx 可能已取消，不随之取消
func (a *Adapter) release(ctx context.Context, t *turn) {
	if t.dedupKey == "" {
		return
	}
	if err := a.dedup.Unmark(context.WithoutCancel(ctx), t.dedupKey); err != nil {
		a.logger.Warn("Failed to release dedup key %s: %v", t.dedupKey, err)
	}
}

// address 补齐逻辑未填写的收发方：默认回复给入站消息的发送者
func (a *Adapter) address(acts []activity.Activity, inbound *activity.Activity) []activity.Activity {
	for i := range acts {
		if acts[i].Recipient.ID == "" {
			acts[i].Recipient = inbound.From
		}
		if acts[i].From.ID == "" {
			acts[i].From = inbound.Recipient
		}
		if acts[i].Conversation.ID == "" {
			acts[i].Conversation = inbound.Conversation
		}
	}
	return acts
}
