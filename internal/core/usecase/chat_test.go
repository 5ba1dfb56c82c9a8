package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/avoronov/netsuite-assistant/internal/core/domain"
)

type chatModelFake struct {
	responses []string
	errs      []error
	calls     [][]domain.ChatMessage
	models    []string
}

func (f *chatModelFake) Chat(_ context.Context, model string, messages []domain.ChatMessage) (string, error) {
	call := len(f.calls)
	f.calls = append(f.calls, messages)
	f.models = append(f.models, model)
	if call < len(f.errs) && f.errs[call] != nil {
		return "", f.errs[call]
	}
	if call < len(f.responses) {
		return f.responses[call], nil
	}
	return "", errors.New("unexpected model call")
}

type historyStoreFake struct {
	messages    []domain.ChatMessage
	loadErr     error
	appendErr   error
	appended    []domain.ChatTurn
	sessions    map[string]domain.SessionLog
	deleted     bool
	deleteMatch bool
}

func (f *historyStoreFake) AppendTurn(_ context.Context, turn domain.ChatTurn) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.appended = append(f.appended, turn)
	return nil
}

func (f *historyStoreFake) SessionMessages(context.Context, int64, string) ([]domain.ChatMessage, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return f.messages, nil
}

func (f *historyStoreFake) UserSessions(context.Context, int64) (map[string]domain.SessionLog, error) {
	return f.sessions, nil
}

func (f *historyStoreFake) DeleteSession(context.Context, int64, string) (bool, error) {
	f.deleted = true
	return f.deleteMatch, nil
}

type retrieverFake struct {
	chunks  []domain.Chunk
	err     error
	queries []string
}

func (f *retrieverFake) Retrieve(_ context.Context, query string) ([]domain.Chunk, error) {
	f.queries = append(f.queries, query)
	if f.err != nil {
		return nil, f.err
	}
	return f.chunks, nil
}

func TestChatEmptyQuestionRejected(t *testing.T) {
	uc := NewChatUseCase(&historyStoreFake{}, &chatModelFake{}, &retrieverFake{}, "llama3", nil)

	_, err := uc.Chat(context.Background(), domain.ChatRequest{Question: "   ", UserID: 7})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestChatWithoutHistorySkipsReformulation(t *testing.T) {
	model := &chatModelFake{responses: []string{"A saved search is a reusable query."}}
	retriever := &retrieverFake{chunks: []domain.Chunk{{Text: "saved search docs"}}}
	history := &historyStoreFake{}
	uc := NewChatUseCase(history, model, retriever, "llama3", nil)

	answer, err := uc.Chat(context.Background(), domain.ChatRequest{
		Question: "What is a saved search?", UserID: 7, SessionID: "s1",
	})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}

	// One model call only: generation. Retrieval saw the question verbatim.
	if len(model.calls) != 1 {
		t.Fatalf("expected 1 model call, got %d", len(model.calls))
	}
	if len(retriever.queries) != 1 || retriever.queries[0] != "What is a saved search?" {
		t.Errorf("retrieval query = %v", retriever.queries)
	}
	if answer.Answer != "A saved search is a reusable query." {
		t.Errorf("answer = %q", answer.Answer)
	}
	if len(history.appended) != 1 || history.appended[0].Question != "What is a saved search?" {
		t.Errorf("turn not persisted: %+v", history.appended)
	}
}

func TestChatWithHistoryReformulatesForRetrieval(t *testing.T) {
	model := &chatModelFake{responses: []string{
		"How do I schedule a saved search?",
		"Schedule it from the search definition page.",
	}}
	retriever := &retrieverFake{}
	history := &historyStoreFake{messages: []domain.ChatMessage{
		{Role: domain.RoleHuman, Content: "What is a saved search?"},
		{Role: domain.RoleAI, Content: "A reusable query."},
	}}
	uc := NewChatUseCase(history, model, retriever, "llama3", nil)

	_, err := uc.Chat(context.Background(), domain.ChatRequest{
		Question: "How do I schedule one?", UserID: 7, SessionID: "s1",
	})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}

	if len(model.calls) != 2 {
		t.Fatalf("expected 2 model calls, got %d", len(model.calls))
	}
	// The reformulated question drives retrieval; generation still sees the
	// user's original words.
	if retriever.queries[0] != "How do I schedule a saved search?" {
		t.Errorf("retrieval query = %q", retriever.queries[0])
	}
	generation := model.calls[1]
	if generation[len(generation)-1].Content != "How do I schedule one?" {
		t.Errorf("generation question = %q", generation[len(generation)-1].Content)
	}
	if !strings.Contains(model.calls[0][0].Content, "standalone question") {
		t.Errorf("first call is not reformulation: %q", model.calls[0][0].Content)
	}
}

func TestChatReformulationFailurePassesQuestionThrough(t *testing.T) {
	model := &chatModelFake{
		responses: []string{"", "Answer text."},
		errs:      []error{errors.New("model busy"), nil},
	}
	retriever := &retrieverFake{}
	history := &historyStoreFake{messages: []domain.ChatMessage{
		{Role: domain.RoleHuman, Content: "earlier"},
		{Role: domain.RoleAI, Content: "reply"},
	}}
	uc := NewChatUseCase(history, model, retriever, "llama3", nil)

	_, err := uc.Chat(context.Background(), domain.ChatRequest{
		Question: "And then?", UserID: 7, SessionID: "s1",
	})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if retriever.queries[0] != "And then?" {
		t.Errorf("expected passthrough on reformulation failure, got %q", retriever.queries[0])
	}
}

func TestChatRetrievalFailureProceedsWithoutContext(t *testing.T) {
	model := &chatModelFake{responses: []string{"Best effort answer."}}
	retriever := &retrieverFake{err: errors.New("index down")}
	history := &historyStoreFake{}
	uc := NewChatUseCase(history, model, retriever, "llama3", nil)

	answer, err := uc.Chat(context.Background(), domain.ChatRequest{
		Question: "What is SuiteScript?", UserID: 7, SessionID: "s1",
	})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if answer.Answer != "Best effort answer." {
		t.Errorf("answer = %q", answer.Answer)
	}
	contextMsg := model.calls[0][1]
	if !strings.Contains(contextMsg.Content, "no documentation context") {
		t.Errorf("expected empty-context marker, got %q", contextMsg.Content)
	}
}

func TestChatGenerationFailureLeavesNoTurn(t *testing.T) {
	model := &chatModelFake{errs: []error{errors.New("model down")}}
	history := &historyStoreFake{}
	uc := NewChatUseCase(history, model, &retrieverFake{}, "llama3", nil)

	_, err := uc.Chat(context.Background(), domain.ChatRequest{
		Question: "What is SuiteScript?", UserID: 7, SessionID: "s1",
	})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrGeneration) {
		t.Fatalf("expected ErrGeneration, got %v", err)
	}
	if len(history.appended) != 0 {
		t.Errorf("failed generation must not persist a turn, got %d", len(history.appended))
	}
}

func TestChatGeneratesSessionIDWhenAbsent(t *testing.T) {
	model := &chatModelFake{responses: []string{"ok"}}
	history := &historyStoreFake{}
	uc := NewChatUseCase(history, model, &retrieverFake{}, "llama3", nil)

	answer, err := uc.Chat(context.Background(), domain.ChatRequest{Question: "hi", UserID: 7})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if answer.SessionID == "" {
		t.Fatal("expected a generated session id")
	}
	if history.appended[0].SessionID != answer.SessionID {
		t.Errorf("turn session %q != answer session %q", history.appended[0].SessionID, answer.SessionID)
	}
}

func TestChatUsesDefaultModelWhenUnspecified(t *testing.T) {
	model := &chatModelFake{responses: []string{"ok"}}
	uc := NewChatUseCase(&historyStoreFake{}, model, &retrieverFake{}, "llama3", nil)

	answer, err := uc.Chat(context.Background(), domain.ChatRequest{Question: "hi", UserID: 7})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if model.models[0] != "llama3" || answer.Model != "llama3" {
		t.Errorf("model = %q / %q, want llama3", model.models[0], answer.Model)
	}
}
