package mocks

import (
	"context"
	"sync"

	"erp-telegram-bot/internal/presentation"
)

// SentMessage is one recorded outbound message.
type SentMessage struct {
	ChatID int64
	Reply  presentation.Reply
}

// Messenger records outbound messages. SendFunc may inject failures; a failed
// send is not recorded.
type Messenger struct {
	SendFunc           func(ctx context.Context, chatID int64, reply presentation.Reply) error
	AnswerCallbackFunc func(ctx context.Context, callbackID, text string) error

	mu       sync.Mutex
	sent     []SentMessage
	answered []string
}

func NewMessenger() *Messenger {
	return &Messenger{}
}

func (m *Messenger) Send(ctx context.Context, chatID int64, reply presentation.Reply) error {
	if m.SendFunc != nil {
		if err := m.SendFunc(ctx, chatID, reply); err != nil {
			return err
		}
	}
	m.mu.Lock()
	m.sent = append(m.sent, SentMessage{ChatID: chatID, Reply: reply})
	m.mu.Unlock()
	return nil
}

func (m *Messenger) AnswerCallback(ctx context.Context, callbackID, text string) error {
	m.mu.Lock()
	m.answered = append(m.answered, callbackID)
	m.mu.Unlock()
	if m.AnswerCallbackFunc != nil {
		return m.AnswerCallbackFunc(ctx, callbackID, text)
	}
	return nil
}

func (m *Messenger) Sent() []SentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SentMessage, len(m.sent))
	copy(out, m.sent)
	return out
}

// Last returns the most recent message, or a zero value when nothing was sent.
func (m *Messenger) Last() SentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return SentMessage{}
	}
	return m.sent[len(m.sent)-1]
}

func (m *Messenger) Answered() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.answered))
	copy(out, m.answered)
	return out
}
