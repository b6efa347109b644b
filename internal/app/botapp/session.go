package botapp

import "sync"

// pendingInput enumerates the multi-step flows where the bot waits for
// the user's next plain-text message.
type pendingInput int

const (
	inputNone pendingInput = iota
	inputSetName
	inputAddAdmin
	inputRemoveAdmin
	inputAddWord
	inputRemoveWord
)

// sessionStore keeps per-chat pending-input state. It is transport-side
// only; the moderation services never see it.
type sessionStore struct {
	mu      sync.Mutex
	pending map[int64]pendingInput
}

func newSessionStore() *sessionStore {
	return &sessionStore{pending: make(map[int64]pendingInput)}
}

func (s *sessionStore) set(chatID int64, input pendingInput) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if input == inputNone {
		delete(s.pending, chatID)
		return
	}
	s.pending[chatID] = input
}

// take returns the pending input for the chat and clears it.
func (s *sessionStore) take(chatID int64) pendingInput {
	s.mu.Lock()
	defer s.mu.Unlock()
	input, ok := s.pending[chatID]
	if !ok {
		return inputNone
	}
	delete(s.pending, chatID)
	return input
}
