package activity

import (
	"testing"
	"time"
)

func TestReplySwapsParties(t *testing.T) {
	in := &Activity{
		ID:           "42",
		Type:         TypeMessage,
		ChannelID:    ChannelID,
		From:         Account{ID: "user1"},
		Recipient:    Account{ID: "gh_bot"},
		Conversation: Conversation{ID: "user1"},
	}
	out := in.Reply("hi back")
	if out.From.ID != "gh_bot" || out.Recipient.ID != "user1" {
		t.Fatalf("parties not swapped: %+v", out)
	}
	if out.ReplyToID != "42" || out.Text != "hi back" || out.Type != TypeMessage {
		t.Fatalf("unexpected reply %+v", out)
	}
}

func TestDelayDuration(t *testing.T) {
	tests := []struct {
		value any
		want  time.Duration
	}{
		{nil, DefaultDelay},
		{250 * time.Millisecond, 250 * time.Millisecond},
		{1500, 1500 * time.Millisecond},
		{int64(20), 20 * time.Millisecond},
		{float64(2000), 2 * time.Second},
		{-5, DefaultDelay},
		{"soon", DefaultDelay},
	}
	for _, tt := range tests {
		a := Activity{Type: TypeDelay, Value: tt.value}
		if got := a.DelayDuration(); got != tt.want {
			t.Errorf("value %v: expected %v, got %v", tt.value, tt.want, got)
		}
	}
}

func TestTurnBuffer(t *testing.T) {
	b := NewTurnBuffer()
	b.Append(Activity{Text: "1"})
	b.Append(Activity{Text: "2"}, Activity{Text: "3"})

	got := b.Activities()
	if b.Len() != 3 || len(got) != 3 {
		t.Fatalf("expected 3 activities, got %d", len(got))
	}
	for i, want := range []string{"1", "2", "3"} {
		if got[i].Text != want {
			t.Fatalf("order broken at %d: %+v", i, got)
		}
	}

	got[0].Text = "changed"
	if b.Activities()[0].Text != "1" {
		t.Fatal("Activities must return a copy")
	}
}

func TestAttachmentKinds(t *testing.T) {
	if !(Attachment{ContentType: "image/png"}).IsImage() {
		t.Error("image/png should be an image")
	}
	if !(Attachment{ContentType: "audio/amr"}).IsAudio() {
		t.Error("audio/amr should be audio")
	}
	if !(Attachment{ContentType: "video/mp4"}).IsVideo() {
		t.Error("video/mp4 should be video")
	}
	if (Attachment{ContentType: ContentTypeHeroCard}).IsImage() {
		t.Error("hero card is not an image")
	}
}
