package digest

import (
	"ecodigest/app/client/llm"
	"slices"
	"sync"
)

// State is the conversation memory of one chat session.
// Empty strings stand for absent questions, keyword and summaries.
type State struct {
	mu sync.Mutex

	model           string
	messages        []llm.Message
	questions       string
	previousKeyword string
	summaries       string
}

// Snapshot is a point-in-time copy of a State.
type Snapshot struct {
	ModelIdentifier string        `json:"model"`
	Messages        []llm.Message `json:"messages"`
	Questions       string        `json:"questions,omitempty"`
	PreviousKeyword string        `json:"previous_keyword,omitempty"`
	Summaries       string        `json:"summaries,omitempty"`
}

func NewState(model string) *State {
	return &State{
		model:    model,
		messages: initialMessages(),
	}
}

func initialMessages() []llm.Message {
	return []llm.Message{llm.System(InitialPrompt)}
}

func (s *State) ModelIdentifier() string {
	return s.model
}

// Transcript returns the user and assistant messages in order.
func (s *State) Transcript() []llm.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.transcriptLocked()
}

func (s *State) transcriptLocked() []llm.Message {
	result := make([]llm.Message, 0, len(s.messages))
	for _, msg := range s.messages {
		if msg.Role == llm.RoleSystem {
			continue
		}
		result = append(result, msg)
	}

	return result
}

func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Snapshot{
		ModelIdentifier: s.model,
		Messages:        slices.Clone(s.messages),
		Questions:       s.questions,
		PreviousKeyword: s.previousKeyword,
		Summaries:       s.summaries,
	}
}

// Busy reports whether a turn or reset currently holds the state.
func (s *State) Busy() bool {
	if !s.mu.TryLock() {
		return true
	}
	s.mu.Unlock()

	return false
}

// Reset drops the whole conversation. The model identifier is kept.
func (s *State) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages = initialMessages()
	s.questions = ""
	s.previousKeyword = ""
	s.summaries = ""
}

func (s *State) appendTurn(input, reply string) {
	s.messages = append(s.messages, llm.User(input), llm.Assistant(reply))
}
