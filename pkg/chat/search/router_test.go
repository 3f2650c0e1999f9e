package search

import (
	"context"
	"fmt"
	"io"
	"log"
	"testing"
	"time"

	"campus-chatbot-be/pkg/chat/dialog"
	"campus-chatbot-be/pkg/chat/extract"
	"campus-chatbot-be/pkg/store"
)

// fakeRetriever serves canned passages per partition and records the
// queries it receives.
type fakeRetriever struct {
	partitions map[string][]ScoredPassage
	lastQuery  string
	calls      []string
}

func (f *fakeRetriever) Search(ctx context.Context, query, partition string, k int) ([]ScoredPassage, error) {
	f.lastQuery = query
	f.calls = append(f.calls, partition)
	passages, ok := f.partitions[partition]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPartitionNotFound, partition)
	}
	if len(passages) > k {
		passages = passages[:k]
	}
	return passages, nil
}

func newTestRouter(f *fakeRetriever) *Router {
	return NewRouter(f, 3, 0.1, log.New(io.Discard, "", 0))
}

func passage(content string, score float64, position int) ScoredPassage {
	return ScoredPassage{Content: content, Score: score, Position: position}
}

func TestRouteSkipsGreeting(t *testing.T) {
	f := &fakeRetriever{}
	r := newTestRouter(f)
	s := store.NewSession("s1", time.Now())

	res, err := r.Route(context.Background(), s, "hello", dialog.Decision{Intent: extract.IntentGeneralFAQ})
	if err != nil {
		t.Fatalf("Route error: %v", err)
	}
	if !res.Skipped || res.Source != SourceLLMOnly {
		t.Errorf("got Skipped=%v Source=%q, want skipped LLM_ONLY", res.Skipped, res.Source)
	}
	if len(f.calls) != 0 {
		t.Errorf("retriever called %d times, want 0", len(f.calls))
	}
}

func TestRouteSkipsUnsupportedPlatform(t *testing.T) {
	f := &fakeRetriever{}
	r := newTestRouter(f)
	s := store.NewSession("s1", time.Now())

	res, err := r.Route(context.Background(), s, "I can't log in to Sapling",
		dialog.Decision{Intent: extract.IntentUnsupportedPlatform})
	if err != nil {
		t.Fatalf("Route error: %v", err)
	}
	if !res.Skipped || res.Source != SourceLLMOnly {
		t.Errorf("got Skipped=%v Source=%q, want skipped LLM_ONLY", res.Skipped, res.Source)
	}
}

func TestRoutePartitionChoice(t *testing.T) {
	tests := []struct {
		name          string
		decision      dialog.Decision
		wantPartition string
	}{
		{
			name:          "general faq",
			decision:      dialog.Decision{Intent: extract.IntentGeneralFAQ},
			wantPartition: PartitionFAQs,
		},
		{
			name:          "access issue without platform",
			decision:      dialog.Decision{Intent: extract.IntentIAAccessIssue},
			wantPartition: PartitionInstructionsGeneral,
		},
		{
			name:          "access issue with platform",
			decision:      dialog.Decision{Intent: extract.IntentIAAccessIssue, Platform: extract.PlatformCengage},
			wantPartition: "instructions:cengage",
		},
		{
			name:          "mcgraw uses short partition name",
			decision:      dialog.Decision{Intent: extract.IntentIAAccessIssue, Platform: extract.PlatformMcGrawHill},
			wantPartition: "instructions:mcgraw",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeRetriever{partitions: map[string][]ScoredPassage{
				tt.wantPartition: {passage("some steps", 0.9, 0)},
			}}
			r := newTestRouter(f)
			s := store.NewSession("s1", time.Now())

			res, err := r.Route(context.Background(), s, "how do I fix my course materials issue", tt.decision)
			if err != nil {
				t.Fatalf("Route error: %v", err)
			}
			if res.Partition != tt.wantPartition {
				t.Errorf("Partition = %q, want %q", res.Partition, tt.wantPartition)
			}
		})
	}
}

func TestRouteFallsBackOnceToGeneral(t *testing.T) {
	f := &fakeRetriever{partitions: map[string][]ScoredPassage{
		PartitionInstructionsGeneral: {passage("general steps", 0.8, 2)},
	}}
	r := newTestRouter(f)
	s := store.NewSession("s1", time.Now())

	res, err := r.Route(context.Background(), s, "zybooks will not load",
		dialog.Decision{Intent: extract.IntentIAAccessIssue, Platform: extract.PlatformZyBooks})
	if err != nil {
		t.Fatalf("Route error: %v", err)
	}

	wantCalls := []string{"instructions:zybooks", PartitionInstructionsGeneral}
	if len(f.calls) != 2 || f.calls[0] != wantCalls[0] || f.calls[1] != wantCalls[1] {
		t.Errorf("calls = %v, want %v", f.calls, wantCalls)
	}
	if res.Source != "INSTR_GENERAL_SOURCE_2" {
		t.Errorf("Source = %q, want INSTR_GENERAL_SOURCE_2", res.Source)
	}
}

func TestRouteUngroundedWhenAllPartitionsMissing(t *testing.T) {
	f := &fakeRetriever{partitions: map[string][]ScoredPassage{}}
	r := newTestRouter(f)
	s := store.NewSession("s1", time.Now())

	res, err := r.Route(context.Background(), s, "wiley course will not open",
		dialog.Decision{Intent: extract.IntentIAAccessIssue, Platform: extract.PlatformWiley})
	if err != nil {
		t.Fatalf("Route error: %v", err)
	}
	if res.Source != SourceLLMOnly || res.Context != "" {
		t.Errorf("got Source=%q Context=%q, want ungrounded LLM_ONLY", res.Source, res.Context)
	}
}

func TestRouteLowConfidenceKeepsContextWithholdsLink(t *testing.T) {
	content := "Refund policy overview.\nArticle link: \"https://support.example.edu/kb/77\""
	f := &fakeRetriever{partitions: map[string][]ScoredPassage{
		PartitionFAQs: {passage(content, 0.05, 0)},
	}}
	r := newTestRouter(f)
	s := store.NewSession("s1", time.Now())

	res, err := r.Route(context.Background(), s, "do you price match textbooks",
		dialog.Decision{Intent: extract.IntentGeneralFAQ})
	if err != nil {
		t.Fatalf("Route error: %v", err)
	}
	if res.Source != "FAQ_SOURCE_0" {
		t.Errorf("Source = %q, want real provenance tag below threshold", res.Source)
	}
	if res.Confidence != 0.05 {
		t.Errorf("Confidence = %v, want 0.05 reported", res.Confidence)
	}
	if res.Context != content {
		t.Errorf("Context = %q, want retrieved passage kept", res.Context)
	}
	if res.ArticleLink != "" {
		t.Errorf("ArticleLink = %q, want withheld below threshold", res.ArticleLink)
	}
}

func TestRouteCourseCodeSteersToInstructions(t *testing.T) {
	tests := []struct {
		name          string
		decision      dialog.Decision
		wantPartition string
	}{
		{
			name:          "general faq with course code",
			decision:      dialog.Decision{Intent: extract.IntentGeneralFAQ, CourseCode: "BIO101"},
			wantPartition: PartitionInstructionsGeneral,
		},
		{
			name:          "course code with resolved platform",
			decision:      dialog.Decision{Intent: extract.IntentGeneralFAQ, Platform: extract.PlatformCengage, CourseCode: "CHEM210"},
			wantPartition: "instructions:cengage",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeRetriever{partitions: map[string][]ScoredPassage{
				tt.wantPartition: {passage("steps", 0.9, 0)},
			}}
			r := newTestRouter(f)
			s := store.NewSession("s1", time.Now())

			res, err := r.Route(context.Background(), s, "my course is listed as that code", tt.decision)
			if err != nil {
				t.Fatalf("Route error: %v", err)
			}
			if len(f.calls) == 0 || f.calls[0] != tt.wantPartition {
				t.Errorf("first partition queried = %v, want %q", f.calls, tt.wantPartition)
			}
			if res.Partition != tt.wantPartition {
				t.Errorf("Partition = %q, want %q", res.Partition, tt.wantPartition)
			}
		})
	}
}

func TestRouteExtractsArticleLink(t *testing.T) {
	content := "Step 1: open Blackboard.\nArticle link: \"https://support.example.edu/kb/123\"\nStep 2: done."
	f := &fakeRetriever{partitions: map[string][]ScoredPassage{
		PartitionFAQs: {passage(content, 0.9, 4)},
	}}
	r := newTestRouter(f)
	s := store.NewSession("s1", time.Now())

	res, err := r.Route(context.Background(), s, "how do refunds work for digital materials",
		dialog.Decision{Intent: extract.IntentGeneralFAQ})
	if err != nil {
		t.Fatalf("Route error: %v", err)
	}
	if res.ArticleLink != "https://support.example.edu/kb/123" {
		t.Errorf("ArticleLink = %q", res.ArticleLink)
	}
	if res.Source != "FAQ_SOURCE_4" {
		t.Errorf("Source = %q, want FAQ_SOURCE_4", res.Source)
	}
}

func TestRouteEnhancesShortSubtypeReply(t *testing.T) {
	f := &fakeRetriever{partitions: map[string][]ScoredPassage{
		"instructions:mcgraw": {passage("connect steps", 0.9, 0)},
	}}
	r := newTestRouter(f)
	s := store.NewSession("s1", time.Now())
	s.AppendTurn(store.RoleUser, "help with mcgraw")
	s.AppendTurn(store.RoleAssistant, "Are you trying to access a **McGraw Hill textbook** or **McGraw Hill Connect**?")

	_, err := r.Route(context.Background(), s, "connect",
		dialog.Decision{Intent: extract.IntentIAAccessIssue, Platform: extract.PlatformMcGrawHill})
	if err != nil {
		t.Fatalf("Route error: %v", err)
	}
	if f.lastQuery != "McGraw Hill Connect immediate access platform instructions" {
		t.Errorf("query = %q, want canonical expansion", f.lastQuery)
	}
}

func TestRouteDoesNotEnhanceLongReply(t *testing.T) {
	f := &fakeRetriever{partitions: map[string][]ScoredPassage{
		"instructions:cengage": {passage("mindtap steps", 0.9, 0)},
	}}
	r := newTestRouter(f)
	s := store.NewSession("s1", time.Now())
	s.AppendTurn(store.RoleUser, "help with cengage")
	s.AppendTurn(store.RoleAssistant, "Are you trying to access a **Cengage textbook** or **Cengage MindTap** (also called cnowv2)?")

	longReply := "the mindtap one that my professor set up for us"
	_, err := r.Route(context.Background(), s, longReply,
		dialog.Decision{Intent: extract.IntentIAAccessIssue, Platform: extract.PlatformCengage})
	if err != nil {
		t.Fatalf("Route error: %v", err)
	}
	if f.lastQuery != longReply {
		t.Errorf("query = %q, want original message", f.lastQuery)
	}
}

func TestSourceID(t *testing.T) {
	tests := []struct {
		partition string
		position  int
		want      string
	}{
		{PartitionFAQs, 0, "FAQ_SOURCE_0"},
		{PartitionInstructionsGeneral, 3, "INSTR_GENERAL_SOURCE_3"},
		{"instructions:cengage", 1, "INSTR_CENGAGE_SOURCE_1"},
		{"instructions:mcgraw", 2, "INSTR_MCGRAW_SOURCE_2"},
	}
	for _, tt := range tests {
		if got := SourceID(tt.partition, tt.position); got != tt.want {
			t.Errorf("SourceID(%q, %d) = %q, want %q", tt.partition, tt.position, got, tt.want)
		}
	}
}
