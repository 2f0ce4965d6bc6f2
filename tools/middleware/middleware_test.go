package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestFailed(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name     string
		err      error
		wantCode int
		wantBody string
	}{
		{"api exception", ErrUnauthorized("bad signature"), http.StatusUnauthorized, `"code":40100`},
		{"wrapped api exception", fmt.Errorf("outer: %w", ErrValidateFailed("bad xml")), http.StatusBadRequest, `"message":"bad xml"`},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, `"code":50000`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			Failed(tt.err, c)
			if w.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d", tt.wantCode, w.Code)
			}
			if !strings.Contains(w.Body.String(), tt.wantBody) {
				t.Fatalf("expected body to contain %s, got %s", tt.wantBody, w.Body.String())
			}
			if !c.IsAborted() {
				t.Fatal("context should be aborted")
			}
		})
	}
}
