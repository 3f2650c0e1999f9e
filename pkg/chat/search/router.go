package search

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"

	"campus-chatbot-be/pkg/chat/dialog"
	"campus-chatbot-be/pkg/chat/extract"
	"campus-chatbot-be/pkg/store"
)

// Knowledge partitions. Platform-specific instruction partitions are
// named "instructions:<short name>" and seeded by the ingestion CLI.
const (
	PartitionFAQs                = "faqs"
	PartitionInstructionsGeneral = "instructions:general"
)

// SourceLLMOnly marks replies generated without grounded context.
const SourceLLMOnly = "LLM_ONLY"

// ErrPartitionNotFound is returned by a Retriever when the requested
// partition holds no passages at all.
var ErrPartitionNotFound = errors.New("search: partition not found")

// ScoredPassage is one retrieved chunk with its similarity score.
type ScoredPassage struct {
	Content   string
	Score     float64
	Partition string
	Position  int
}

// Retriever finds the top-k passages of one partition for a query.
type Retriever interface {
	Search(ctx context.Context, query, partition string, k int) ([]ScoredPassage, error)
}

// Result is what the router hands the response assembler.
type Result struct {
	Context       string  // concatenated passage text, empty when ungrounded
	Source        string  // e.g. FAQ_SOURCE_2, INSTR_CENGAGE_SOURCE_0, LLM_ONLY
	Confidence    float64 // top similarity score, 0 when retrieval was skipped
	ArticleLink   string
	Partition     string
	EnhancedQuery string // the query actually searched, may differ from the message
	Skipped       bool   // greeting or unsupported platform, no search ran
}

// Router decides whether to retrieve, from which partition, and with
// what query.
type Router struct {
	retriever Retriever
	topK      int
	threshold float64
	logger    *log.Logger
}

func NewRouter(retriever Retriever, topK int, threshold float64, logger *log.Logger) *Router {
	if topK <= 0 {
		topK = 3
	}
	return &Router{
		retriever: retriever,
		topK:      topK,
		threshold: threshold,
		logger:    logger,
	}
}

// Canonical expansions for terse replies to a subtype clarification.
// A bare "connect" or "the textbook" embeds poorly, so the reply is
// rewritten into a full query before searching.
var subtypeQueryExpansions = map[string]string{
	extract.PlatformMcGrawHill: "McGraw Hill Connect immediate access platform instructions",
	extract.PlatformCengage:    "Cengage MindTap immediate access platform instructions",
	extract.PlatformPearson:    "Pearson MyLab Mastering immediate access platform instructions",
}

const etextQueryExpansion = "eTextbook immediate access general instructions VitalSource Blackboard step-by-step"

var articleLinkPattern = regexp.MustCompile(`Article link:\s*"?([^"\n]+)"?`)

// Route runs retrieval for one turn. Greetings and unsupported-platform
// turns skip retrieval entirely; everything else searches exactly one
// partition, falling back to the general instructions partition at most
// once when a platform-specific partition does not exist.
func (r *Router) Route(ctx context.Context, session *store.Session, message string, decision dialog.Decision) (*Result, error) {
	if extract.IsGreeting(message) {
		r.logger.Printf("[SEARCH] Greeting, skipping retrieval")
		return &Result{Source: SourceLLMOnly, Skipped: true}, nil
	}
	if decision.Intent == extract.IntentUnsupportedPlatform {
		r.logger.Printf("[SEARCH] Unsupported platform, skipping retrieval")
		return &Result{Source: SourceLLMOnly, Skipped: true}, nil
	}

	query := r.enhanceQuery(session, message, decision)
	partition := choosePartition(decision)

	passages, err := r.retriever.Search(ctx, query, partition, r.topK)
	if errors.Is(err, ErrPartitionNotFound) && partition != PartitionInstructionsGeneral && partition != PartitionFAQs {
		r.logger.Printf("[SEARCH] Partition %q missing, falling back to %q", partition, PartitionInstructionsGeneral)
		partition = PartitionInstructionsGeneral
		passages, err = r.retriever.Search(ctx, query, partition, r.topK)
	}
	if errors.Is(err, ErrPartitionNotFound) {
		r.logger.Printf("[SEARCH] Partition %q missing, answering ungrounded", partition)
		return &Result{Source: SourceLLMOnly, EnhancedQuery: query}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("search partition %q: %w", partition, err)
	}

	if len(passages) == 0 {
		r.logger.Printf("[SEARCH] No passages in %q, answering ungrounded", partition)
		return &Result{
			Source:        SourceLLMOnly,
			Partition:     partition,
			EnhancedQuery: query,
		}, nil
	}

	top := passages[0]
	var parts []string
	for _, p := range passages {
		parts = append(parts, p.Content)
	}

	result := &Result{
		Context:       strings.Join(parts, "\n\n"),
		Source:        SourceID(partition, top.Position),
		Confidence:    top.Score,
		Partition:     partition,
		EnhancedQuery: query,
	}
	// Retrieved context is always handed to the model with its real
	// provenance tag; only the article link is withheld when the match
	// is weak.
	if top.Score >= r.threshold {
		result.ArticleLink = extractArticleLink(top.Content)
	} else {
		r.logger.Printf("[SEARCH] Low confidence %.3f in %q, withholding article link", top.Score, partition)
	}
	r.logger.Printf("[SEARCH] Hit %s (confidence=%.3f, partition=%s)", result.Source, result.Confidence, partition)
	return result, nil
}

// enhanceQuery rewrites a terse subtype-clarification reply into a
// canonical full query. Applies only to replies of three words or fewer
// directly after a clarification question.
func (r *Router) enhanceQuery(session *store.Session, message string, decision dialog.Decision) string {
	if len(strings.Fields(message)) > 3 {
		return message
	}
	if !dialog.IsSubtypeClarification(session.LastAssistantTurn()) {
		return message
	}
	if expanded, ok := subtypeQueryExpansions[decision.Platform]; ok {
		r.logger.Printf("[SEARCH] Enhanced query: %q -> %q", message, expanded)
		return expanded
	}
	r.logger.Printf("[SEARCH] Enhanced query: %q -> %q", message, etextQueryExpansion)
	return etextQueryExpansion
}

// PlatformPartition maps a canonical platform tag to its instruction
// partition, e.g. MCGRAW_HILL -> instructions:mcgraw.
func PlatformPartition(platform string) string {
	short := strings.ToLower(platform)
	if i := strings.IndexByte(short, '_'); i > 0 {
		short = short[:i]
	}
	return "instructions:" + short
}

// A course code steers the turn to the instructions family even when
// the message itself classified as a general question.
func choosePartition(decision dialog.Decision) string {
	if decision.Intent != extract.IntentIAAccessIssue && decision.CourseCode == "" {
		return PartitionFAQs
	}
	if decision.Platform == "" {
		return PartitionInstructionsGeneral
	}
	return PlatformPartition(decision.Platform)
}

// SourceID formats the stable passage identifier, e.g. FAQ_SOURCE_2 or
// INSTR_MCGRAW_SOURCE_0.
func SourceID(partition string, position int) string {
	prefix := "FAQ"
	if suffix, ok := strings.CutPrefix(partition, "instructions:"); ok {
		prefix = "INSTR_" + strings.ToUpper(suffix)
	}
	return fmt.Sprintf("%s_SOURCE_%d", prefix, position)
}

func extractArticleLink(content string) string {
	m := articleLinkPattern.FindStringSubmatch(content)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}
