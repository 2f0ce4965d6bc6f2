package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"wxadapter/wechat/pkg/activity"
	"wxadapter/wechat/pkg/adapter"
	"wxadapter/wechat/pkg/message"
	"wxadapter/wechat/pkg/signature"
)

const (
	testToken = "token123"
	timestamp = "1700000000"
	nonce     = "nonce42"
)

const helloXML = `<xml><ToUserName><![CDATA[gh_bot]]></ToUserName><FromUserName><![CDATA[user1]]></FromUserName><CreateTime>1700000000</CreateTime><MsgType><![CDATA[text]]></MsgType><Content><![CDATA[hello]]></Content><MsgId>1</MsgId></xml>`

type recordingClient struct {
	texts []string
}

func (r *recordingClient) SendText(_ context.Context, openID, text string) error {
	r.texts = append(r.texts, openID+":"+text)
	return nil
}
func (r *recordingClient) SendImage(context.Context, string, string) error { return nil }
func (r *recordingClient) SendVoice(context.Context, string, string) error { return nil }
func (r *recordingClient) SendVideo(context.Context, string, message.Video) error {
	return nil
}
func (r *recordingClient) SendMusic(context.Context, string, message.Music) error {
	return nil
}
func (r *recordingClient) SendNews(context.Context, string, []message.Article) error {
	return nil
}
func (r *recordingClient) SendMPNews(context.Context, string, string) error { return nil }
func (r *recordingClient) SendMenu(context.Context, string, message.Menu) error {
	return nil
}
func (r *recordingClient) GetAccessToken(context.Context, bool) (string, error) {
	return "tok", nil
}

func echo(_ context.Context, act *activity.Activity, turn *activity.TurnBuffer) error {
	if act.Text != "" {
		turn.Append(act.Reply(act.Text))
	}
	return nil
}

func newRouter(t *testing.T, passive bool) (*gin.Engine, *recordingClient) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	client := &recordingClient{}
	a, err := adapter.New(adapter.Settings{
		AppID:           "wxapp",
		AppSecret:       "secret",
		Token:           testToken,
		PassiveResponse: passive,
	}, client)
	if err != nil {
		t.Fatal(err)
	}
	h := NewHandler(a, echo, nil)
	r := gin.New()
	h.RegisterWebhook(r.Group("/wechat"))
	h.RegisterAPI(r.Group("/app/api/v1/wechat"))
	return r, client
}

func query(sig string) string {
	q := url.Values{}
	q.Set("signature", sig)
	q.Set("timestamp", timestamp)
	q.Set("nonce", nonce)
	return q.Encode()
}

func TestVerify(t *testing.T) {
	r, _ := newRouter(t, false)

	tests := []struct {
		name     string
		sig      string
		wantCode int
		wantBody string
	}{
		{"valid", signature.Compute(testToken, timestamp, nonce), http.StatusOK, "echo-me"},
		{"invalid", "bad", http.StatusUnauthorized, `"code":40100`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/wechat?"+query(tt.sig)+"&echostr=echo-me", nil)
			r.ServeHTTP(w, req)
			if w.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d", tt.wantCode, w.Code)
			}
			if !strings.Contains(w.Body.String(), tt.wantBody) {
				t.Fatalf("expected body to contain %s, got %s", tt.wantBody, w.Body.String())
			}
		})
	}
}

func TestReceiveAsync(t *testing.T) {
	r, client := newRouter(t, false)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/wechat?"+query(signature.Compute(testToken, timestamp, nonce)), strings.NewReader(helloXML))
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK || w.Body.String() != "success" {
		t.Fatalf("unexpected response %d %s", w.Code, w.Body.String())
	}
	if len(client.texts) != 1 || client.texts[0] != "user1:hello" {
		t.Fatalf("unexpected sends %v", client.texts)
	}
}

func TestReceivePassive(t *testing.T) {
	r, client := newRouter(t, true)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/wechat?"+query(signature.Compute(testToken, timestamp, nonce)), strings.NewReader(helloXML))
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", w.Code)
	}
	if !strings.Contains(w.Header().Get("Content-Type"), "xml") {
		t.Fatalf("expected xml content type, got %s", w.Header().Get("Content-Type"))
	}
	if !strings.Contains(w.Body.String(), "<Content><![CDATA[hello]]></Content>") {
		t.Fatalf("expected inline reply, got %s", w.Body.String())
	}
	if len(client.texts) != 0 {
		t.Fatalf("passive mode must not call the api, got %v", client.texts)
	}
}

func TestReceiveErrors(t *testing.T) {
	r, client := newRouter(t, false)
	valid := signature.Compute(testToken, timestamp, nonce)

	tests := []struct {
		name     string
		sig      string
		body     string
		wantCode int
	}{
		{"bad signature", "bad", helloXML, http.StatusUnauthorized},
		{"malformed xml", valid, "<xml><MsgType>", http.StatusBadRequest},
		{"empty body", valid, "", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/wechat?"+query(tt.sig), strings.NewReader(tt.body))
			r.ServeHTTP(w, req)
			if w.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d: %s", tt.wantCode, w.Code, w.Body.String())
			}
		})
	}
	if len(client.texts) != 0 {
		t.Fatalf("rejected requests must not send, got %v", client.texts)
	}
}

func TestSend(t *testing.T) {
	r, client := newRouter(t, false)

	body := `{"open_id":"user7","activities":[{"type":"message","text":"ping"}]}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/app/api/v1/wechat/send", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", w.Code, w.Body.String())
	}
	if len(client.texts) != 1 || client.texts[0] != "user7:ping" {
		t.Fatalf("unexpected sends %v", client.texts)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/app/api/v1/wechat/send", bytes.NewBufferString(`{"activities":[]}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing open_id: expected 400, got %d", w.Code)
	}
}
