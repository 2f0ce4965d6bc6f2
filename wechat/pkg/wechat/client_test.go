package wechat

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"wxadapter/wechat/pkg/message"
	"wxadapter/wechat/pkg/store"
)

type fakeAPI struct {
	tokenCalls atomic.Int32
	mu         sync.Mutex
	sent       []map[string]any
	sendErr    int
}

func (f *fakeAPI) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/cgi-bin/token", func(w http.ResponseWriter, r *http.Request) {
		n := f.tokenCalls.Add(1)
		if r.URL.Query().Get("secret") != "secret" {
			_, _ = io.WriteString(w, `{"errcode":40125,"errmsg":"invalid appsecret"}`)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "tok" + strconv.Itoa(int(n)), "expires_in": 7200})
	})
	mux.HandleFunc("/cgi-bin/message/custom/send", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		body["_token"] = r.URL.Query().Get("access_token")
		f.mu.Lock()
		f.sent = append(f.sent, body)
		f.mu.Unlock()
		if f.sendErr != 0 {
			_ = json.NewEncoder(w).Encode(map[string]any{"errcode": f.sendErr, "errmsg": "failed"})
			return
		}
		_, _ = io.WriteString(w, `{"errcode":0,"errmsg":"ok"}`)
	})
	mux.HandleFunc("/cgi-bin/media/upload", func(w http.ResponseWriter, r *http.Request) {
		file, header, err := r.FormFile("media")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		if string(data) != "PNGDATA" || header.Filename != "logo.png" || r.URL.Query().Get("type") != "image" {
			_, _ = io.WriteString(w, `{"errcode":40004,"errmsg":"invalid media type"}`)
			return
		}
		_, _ = io.WriteString(w, `{"type":"image","media_id":"MEDIA1","created_at":1700000000}`)
	})
	mux.HandleFunc("/files/logo.png", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "PNGDATA")
	})
	return mux
}

func newTestClient(t *testing.T, api *fakeAPI, secret string) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(api.handler())
	t.Cleanup(srv.Close)
	return NewClient(Options{AppID: "wxapp", AppSecret: secret, BaseURL: srv.URL, HTTPClient: srv.Client()}), srv
}

func TestGetAccessTokenCachedConcurrent(t *testing.T) {
	api := &fakeAPI{}
	c, _ := newTestClient(t, api, "secret")

	ctx := context.Background()
	ch := make(chan error, 20)
	for i := 0; i < 20; i++ {
		go func() {
			_, err := c.GetAccessToken(ctx, false)
			ch <- err
		}()
	}
	for i := 0; i < 20; i++ {
		if err := <-ch; err != nil {
			t.Fatalf("expected token without error, got %v", err)
		}
	}
	if n := api.tokenCalls.Load(); n != 1 {
		t.Fatalf("expected a single token fetch, got %d", n)
	}

	if _, err := c.GetAccessToken(ctx, true); err != nil {
		t.Fatal(err)
	}
	if n := api.tokenCalls.Load(); n != 2 {
		t.Fatalf("force refresh should fetch again, got %d fetches", n)
	}
}

func TestGetAccessTokenAPIError(t *testing.T) {
	c, _ := newTestClient(t, &fakeAPI{}, "wrong")
	_, err := c.GetAccessToken(context.Background(), false)
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.ErrCode != 40125 {
		t.Fatalf("expected errcode 40125, got %v", err)
	}
}

func TestSendMessages(t *testing.T) {
	api := &fakeAPI{}
	c, _ := newTestClient(t, api, "secret")
	ctx := context.Background()

	if err := c.SendText(ctx, "user1", "hi back"); err != nil {
		t.Fatal(err)
	}
	if err := c.SendVideo(ctx, "user1", message.Video{MediaID: "v", Title: "t"}); err != nil {
		t.Fatal(err)
	}
	if err := c.SendNews(ctx, "user1", []message.Article{{Title: "a"}, {Title: "b"}}); err != nil {
		t.Fatal(err)
	}
	if err := c.SendMenu(ctx, "user1", message.Menu{HeadContent: "h", Items: []message.MenuItem{{ID: "1", Content: "yes"}}}); err != nil {
		t.Fatal(err)
	}

	want := []string{"text", "video", "news", "news", "msgmenu"}
	if len(api.sent) != len(want) {
		t.Fatalf("expected %d sends, got %d", len(want), len(api.sent))
	}
	for i, body := range api.sent {
		if body["msgtype"] != want[i] || body["touser"] != "user1" {
			t.Fatalf("send %d: unexpected body %v", i, body)
		}
		if body["_token"] != "tok1" {
			t.Fatalf("send %d: expected cached token, got %v", i, body["_token"])
		}
	}
	text := api.sent[0]["text"].(map[string]any)
	if text["content"] != "hi back" {
		t.Fatalf("unexpected text body %v", text)
	}
}

func TestInvalidTokenClearsCache(t *testing.T) {
	api := &fakeAPI{sendErr: 40001}
	st := store.NewMemoryStore()
	srv := httptest.NewServer(api.handler())
	defer srv.Close()
	c := NewClient(Options{AppID: "wxapp", AppSecret: "secret", BaseURL: srv.URL, Store: st})
	ctx := context.Background()

	err := c.SendText(ctx, "user1", "x")
	if !IsInvalidToken(err) {
		t.Fatalf("expected invalid token error, got %v", err)
	}
	if len(api.sent) != 1 {
		t.Fatalf("send must not be retried, got %d calls", len(api.sent))
	}
	if tok, _ := st.GetToken(ctx, "wxapp"); tok != "" {
		t.Fatalf("token should be invalidated, got %q", tok)
	}
}

func TestUploadTemporaryMedia(t *testing.T) {
	api := &fakeAPI{}
	c, srv := newTestClient(t, api, "secret")

	id, err := c.UploadTemporaryMedia(context.Background(), "image", srv.URL+"/files/logo.png")
	if err != nil {
		t.Fatal(err)
	}
	if id != "MEDIA1" {
		t.Fatalf("expected MEDIA1, got %s", id)
	}
}

func TestFileName(t *testing.T) {
	tests := []struct {
		url, mediaType, want string
	}{
		{"http://x/a/b.png", "image", "b.png"},
		{"http://x/a/voice", "voice", "voice.mp3"},
		{"http://x/", "video", "media.mp4"},
	}
	for _, tt := range tests {
		if got := fileName(tt.url, tt.mediaType); got != tt.want {
			t.Errorf("fileName(%q): expected %s, got %s", tt.url, tt.want, got)
		}
	}
}

func TestContextCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()
	c := NewClient(Options{AppID: "wxapp", AppSecret: "secret", BaseURL: srv.URL})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := c.GetAccessToken(ctx, false)
	if err == nil || !strings.Contains(err.Error(), "token request") {
		t.Fatalf("expected token request error, got %v", err)
	}
}
