package response

import (
	"context"
	"io"
	"log"
	"strings"
	"testing"
	"time"

	"campus-chatbot-be/pkg/chat/dialog"
	"campus-chatbot-be/pkg/chat/extract"
	"campus-chatbot-be/pkg/chat/search"
	"campus-chatbot-be/pkg/llm"
	"campus-chatbot-be/pkg/store"
)

// fakeLLM records the message list and replies with a fixed string or
// error.
type fakeLLM struct {
	reply    string
	err      error
	received []llm.Message
}

func (f *fakeLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	f.received = history
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return f.Chat(ctx, []llm.Message{{Role: store.RoleUser, Content: prompt}}, options...)
}

func newTestAssembler(f *fakeLLM) *Assembler {
	return NewAssembler(f, 6, log.New(io.Discard, "", 0))
}

func TestGenerateMessageLayout(t *testing.T) {
	f := &fakeLLM{reply: "here are the steps"}
	a := newTestAssembler(f)
	s := store.NewSession("s1", time.Now())
	s.AppendTurn(store.RoleUser, "older question")
	s.AppendTurn(store.RoleAssistant, "older answer")

	retrieved := &search.Result{
		Context: "Step 1: open Blackboard.",
		Source:  "INSTR_CENGAGE_SOURCE_0",
	}
	reply := a.Generate(context.Background(), s, "how do I open mindtap",
		dialog.Decision{Intent: extract.IntentIAAccessIssue}, extract.Signals{}, retrieved)

	if reply != "here are the steps" {
		t.Errorf("reply = %q", reply)
	}

	if len(f.received) != 4 {
		t.Fatalf("message count = %d, want system + 2 history + current", len(f.received))
	}
	if f.received[0].Role != store.RoleSystem {
		t.Errorf("first role = %q, want system", f.received[0].Role)
	}
	last := f.received[len(f.received)-1]
	if last.Role != store.RoleUser || last.Content != "how do I open mindtap" {
		t.Errorf("last message = %+v, want current user message", last)
	}

	system := f.received[0].Content
	if !strings.Contains(system, "=== OFFICIAL INSTRUCTIONS (FOLLOW EXACTLY) ===") {
		t.Error("system block missing context delimiters")
	}
	if !strings.Contains(system, "Step 1: open Blackboard.") {
		t.Error("system block missing retrieved context")
	}
	if !strings.Contains(system, "Immediate Access digital course materials") {
		t.Error("system block missing access-issue steering hint")
	}
}

func TestGenerateHistoryIsBounded(t *testing.T) {
	f := &fakeLLM{reply: "ok"}
	a := newTestAssembler(f)
	s := store.NewSession("s1", time.Now())
	for i := 0; i < 10; i++ {
		s.AppendTurn(store.RoleUser, "q")
		s.AppendTurn(store.RoleAssistant, "a")
	}

	a.Generate(context.Background(), s, "latest question",
		dialog.Decision{Intent: extract.IntentGeneralFAQ}, extract.Signals{}, nil)

	// system + 6 history turns + current message
	if len(f.received) != 8 {
		t.Errorf("message count = %d, want 8", len(f.received))
	}
}

func TestGenerateNoContextOmitsDelimiters(t *testing.T) {
	f := &fakeLLM{reply: "ok"}
	a := newTestAssembler(f)
	s := store.NewSession("s1", time.Now())

	a.Generate(context.Background(), s, "when are you open",
		dialog.Decision{Intent: extract.IntentGeneralFAQ}, extract.Signals{},
		&search.Result{Source: search.SourceLLMOnly})

	system := f.received[0].Content
	if strings.Contains(system, "OFFICIAL INSTRUCTIONS") {
		t.Error("delimiters present without retrieved context")
	}
	if strings.Contains(system, "Immediate Access digital course materials") {
		t.Error("access-issue hint present for a general faq turn")
	}
}

func TestGenerateUnsupportedPlatformHint(t *testing.T) {
	f := &fakeLLM{reply: "ok"}
	a := newTestAssembler(f)
	s := store.NewSession("s1", time.Now())

	a.Generate(context.Background(), s, "I can't log in to Sapling",
		dialog.Decision{Intent: extract.IntentUnsupportedPlatform},
		extract.Signals{UnsupportedName: "Sapling"}, nil)

	system := f.received[0].Content
	if !strings.Contains(system, "Sapling") {
		t.Error("hint missing the platform name")
	}
	if !strings.Contains(system, "DO NOT ask for course codes") {
		t.Error("hint missing redirect guardrails")
	}
}

func TestGenerateApologyOnTimeout(t *testing.T) {
	f := &fakeLLM{err: llm.ErrTimeout}
	a := newTestAssembler(f)
	s := store.NewSession("s1", time.Now())

	reply := a.Generate(context.Background(), s, "anything",
		dialog.Decision{Intent: extract.IntentGeneralFAQ}, extract.Signals{}, nil)

	if reply != ApologyReply {
		t.Errorf("reply = %q, want apology", reply)
	}
}

func TestGenerateApologyOnTransportFailure(t *testing.T) {
	f := &fakeLLM{err: llm.ErrUnavailable}
	a := newTestAssembler(f)
	s := store.NewSession("s1", time.Now())

	reply := a.Generate(context.Background(), s, "anything",
		dialog.Decision{Intent: extract.IntentGeneralFAQ}, extract.Signals{}, nil)

	if reply != ApologyReply {
		t.Errorf("reply = %q, want apology", reply)
	}
}
