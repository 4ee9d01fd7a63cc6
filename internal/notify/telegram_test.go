package notify

import (
	"context"
	"errors"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type fakeSender struct {
	sent   []tgbotapi.MessageConfig
	failAt int
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if f.failAt > 0 && len(f.sent)+1 == f.failAt {
		return tgbotapi.Message{}, errors.New("telegram down")
	}
	f.sent = append(f.sent, c.(tgbotapi.MessageConfig))
	return tgbotapi.Message{}, nil
}

func TestSplitMessage(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		limit int
		want  []string
	}{
		{"empty", "", 10, nil},
		{"fits", "hello", 10, []string{"hello"}},
		{"hard cut", "abcdefghij", 4, []string{"abcd", "efgh", "ij"}},
		{"prefers newline", "abc\ndefgh", 6, []string{"abc\n", "defgh"}},
		{"multibyte", "ääää", 2, []string{"ää", "ää"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitMessage(tt.text, tt.limit)
			if len(got) != len(tt.want) {
				t.Fatalf("SplitMessage() = %q, want %q", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("chunk %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestNotify(t *testing.T) {
	sender := &fakeSender{}
	n := NewTelegramWithSender(sender, 42)

	text := strings.Repeat("x", MaxMessageLength+10)
	if err := n.Notify(context.Background(), text); err != nil {
		t.Fatalf("Notify() error = %v", err)
	}

	if len(sender.sent) != 2 {
		t.Fatalf("sent %d messages, want 2", len(sender.sent))
	}
	for _, msg := range sender.sent {
		if msg.ChatID != 42 {
			t.Errorf("ChatID = %d, want 42", msg.ChatID)
		}
		if msg.ParseMode != "" {
			t.Errorf("ParseMode = %q, want plain text", msg.ParseMode)
		}
	}
	if len(sender.sent[1].Text) != 10 {
		t.Errorf("second part length = %d, want 10", len(sender.sent[1].Text))
	}
}

func TestNotifyErrors(t *testing.T) {
	t.Run("send failure", func(t *testing.T) {
		n := NewTelegramWithSender(&fakeSender{failAt: 1}, 1)
		if err := n.Notify(context.Background(), "report"); err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		sender := &fakeSender{}
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := NewTelegramWithSender(sender, 1).Notify(ctx, "report")
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("error = %v, want context.Canceled", err)
		}
		if len(sender.sent) != 0 {
			t.Errorf("sent %d messages after cancel", len(sender.sent))
		}
	})
}
