package signature

import "testing"

const (
	token     = "wechat_token"
	timestamp = "1700000000"
	nonce     = "483921"
)

func TestComputeIsOrderIndependent(t *testing.T) {
	a := Compute(token, timestamp, nonce)
	b := Compute(nonce, timestamp, token)
	if a != b {
		t.Fatalf("digest depends on argument order: %s != %s", a, b)
	}
	if len(a) != 40 {
		t.Fatalf("expected 40 hex chars, got %d", len(a))
	}
}

func TestVerify(t *testing.T) {
	sig := Compute(token, timestamp, nonce)

	if !Verify(sig, timestamp, nonce, token) {
		t.Fatal("valid signature rejected")
	}
	// 排序后哈希，参数位置互换结果不变
	if Verify(sig, timestamp, nonce, token) != Verify(sig, token, nonce, timestamp) {
		t.Fatal("verify should be symmetric under reordering")
	}

	tampered := []struct {
		name                         string
		sig, timestamp, nonce, token string
	}{
		{"signature", "bad", timestamp, nonce, token},
		{"timestamp", sig, "1700000001", nonce, token},
		{"nonce", sig, timestamp, "483922", token},
		{"token", sig, timestamp, nonce, "other"},
		{"empty signature", "", timestamp, nonce, token},
	}
	for _, tt := range tampered {
		t.Run(tt.name, func(t *testing.T) {
			if Verify(tt.sig, tt.timestamp, tt.nonce, tt.token) {
				t.Fatal("tampered input accepted")
			}
		})
	}
}

func TestVerifyUppercaseHex(t *testing.T) {
	sig := Compute(token, timestamp, nonce)
	upper := []byte(sig)
	for i, c := range upper {
		if c >= 'a' && c <= 'f' {
			upper[i] = c - 32
		}
	}
	if !Verify(string(upper), timestamp, nonce, token) {
		t.Fatal("uppercase hex digest should verify")
	}
}

func TestVerifyMsg(t *testing.T) {
	encrypt := "c2VjcmV0"
	sig := Compute(token, timestamp, nonce, encrypt)
	if !VerifyMsg(sig, timestamp, nonce, token, encrypt) {
		t.Fatal("valid msg signature rejected")
	}
	if VerifyMsg(sig, timestamp, nonce, token, encrypt+"x") {
		t.Fatal("msg signature over different ciphertext accepted")
	}
}
