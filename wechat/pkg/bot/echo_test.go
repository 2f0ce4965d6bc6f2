package bot

import (
	"context"
	"testing"

	"wxadapter/wechat/pkg/activity"
	"wxadapter/wechat/pkg/mapper"
	"wxadapter/wechat/pkg/message"
)

func header(msgType string) message.Header {
	return message.Header{ToUserName: "gh_bot", FromUserName: "user1", CreateTime: 1700000000, MsgType: msgType}
}

func TestEchoText(t *testing.T) {
	act := mapper.ToGeneric(&message.TextMessage{Header: header(message.TypeText), Content: "hello"})
	turn := activity.NewTurnBuffer()
	if err := NewEcho(nil).OnTurn(context.Background(), &act, turn); err != nil {
		t.Fatal(err)
	}
	out := turn.Activities()
	if len(out) != 1 || out[0].Text != "hello" || out[0].Recipient.ID != "user1" || out[0].From.ID != "gh_bot" {
		t.Fatalf("unexpected echo %+v", out)
	}
}

func TestEchoImage(t *testing.T) {
	act := mapper.ToGeneric(&message.ImageMessage{Header: header(message.TypeImage), PicURL: "http://x/p.jpg", MediaID: "m1"})
	turn := activity.NewTurnBuffer()
	_ = NewEcho(nil).OnTurn(context.Background(), &act, turn)
	out := turn.Activities()
	if len(out) != 1 || len(out[0].Attachments) != 1 || out[0].Attachments[0].MediaID != "m1" {
		t.Fatalf("expected media echo, got %+v", out)
	}
}

func TestEchoLocationFallsBackToText(t *testing.T) {
	act := mapper.ToGeneric(&message.LocationMessage{Header: header(message.TypeLocation)})
	turn := activity.NewTurnBuffer()
	_ = NewEcho(nil).OnTurn(context.Background(), &act, turn)
	out := turn.Activities()
	if len(out) != 1 || out[0].Text != "Received a location message." {
		t.Fatalf("unexpected reply %+v", out)
	}
}

func TestEchoEvents(t *testing.T) {
	tests := []struct {
		event string
		want  int
	}{
		{message.EventSubscribe, 1},
		{message.EventUnsubscribe, 0},
		{message.EventClick, 0},
	}
	for _, tt := range tests {
		t.Run(tt.event, func(t *testing.T) {
			act := mapper.ToGeneric(&message.EventMessage{Header: header(message.TypeEvent), Event: tt.event})
			turn := activity.NewTurnBuffer()
			_ = NewEcho(nil).OnTurn(context.Background(), &act, turn)
			if turn.Len() != tt.want {
				t.Fatalf("expected %d replies, got %d", tt.want, turn.Len())
			}
		})
	}
}
