package response

import (
	"context"
	"errors"
	"log"
	"strings"

	"campus-chatbot-be/pkg/chat/dialog"
	"campus-chatbot-be/pkg/chat/extract"
	"campus-chatbot-be/pkg/chat/search"
	"campus-chatbot-be/pkg/llm"
	"campus-chatbot-be/pkg/store"
)

// ApologyReply is returned when the generation backend times out or is
// unreachable. The turn still completes and is recorded in history.
const ApologyReply = "I'm sorry, I'm having trouble responding right now. Please try again in a moment."

const persona = "You are a Campus Store assistant for the university.\n\n"

const contextGuardrails = "CRITICAL: You MUST follow the step-by-step instructions above EXACTLY as written. " +
	"Do NOT add steps, change steps, or provide alternative instructions. " +
	"If the instructions mention Blackboard, you MUST tell the user to use Blackboard. " +
	"Do NOT suggest accessing materials directly from publisher websites unless the instructions explicitly say so. " +
	"Do NOT mention platforms or publishers that are not explicitly listed in the instructions above.\n\n"

const generalGuardrails = "If relevant information is provided in the context above, use it to answer accurately.\n" +
	"If required information is missing (such as a course code), ask the user for it.\n" +
	"If no context is provided, respond helpfully and ask clarifying questions.\n" +
	"Do NOT invent policies, dates, or procedures.\n" +
	"Do NOT assume course platforms, policies, or outcomes unless explicitly stated.\n\n" +
	"Use recent conversation history for continuity, but prioritize the current user message and official instructions.\n\n" +
	"Only reply with 'The information is not available in the FAQ.' if:\n" +
	"- The context contains no relevant information AND\n" +
	"- No reasonable clarifying question can move the conversation forward.\n"

const accessIssueHint = "The user is asking about Immediate Access digital course materials. " +
	"Do NOT suggest purchasing or renting physical textbooks unless the user explicitly asks. " +
	"If required information such as course code or platform is missing, ask for it. " +
	"Do NOT assume availability of print textbooks. " +
	"Only provide instructions for the specific platform mentioned in the official instructions."

// Assembler turns a routed turn into one generation request and runs it.
type Assembler struct {
	provider     llm.LLMProvider
	historyBound int
	logger       *log.Logger
}

func NewAssembler(provider llm.LLMProvider, historyBound int, logger *log.Logger) *Assembler {
	if historyBound <= 0 {
		historyBound = 6
	}
	return &Assembler{
		provider:     provider,
		historyBound: historyBound,
		logger:       logger,
	}
}

// Generate builds the message list for one turn and invokes the
// provider once. The session history must not yet contain the current
// user message. Timeout and transport failures come back as the fixed
// apology reply, never as an error.
func (a *Assembler) Generate(ctx context.Context, session *store.Session, message string, decision dialog.Decision, sig extract.Signals, retrieved *search.Result) string {
	messages := []llm.Message{{
		Role:    store.RoleSystem,
		Content: a.systemContent(decision, sig, retrieved),
	}}

	history := session.History
	if len(history) > a.historyBound {
		history = history[len(history)-a.historyBound:]
	}
	for _, turn := range history {
		messages = append(messages, llm.Message{Role: turn.Role, Content: turn.Content})
	}

	messages = append(messages, llm.Message{Role: store.RoleUser, Content: message})

	reply, err := a.provider.Chat(ctx, messages)
	if err != nil {
		switch {
		case errors.Is(err, llm.ErrTimeout):
			a.logger.Printf("[RESPONSE] Generation timed out: %v", err)
		case errors.Is(err, llm.ErrUnavailable):
			a.logger.Printf("[RESPONSE] Generation backend unavailable: %v", err)
		default:
			a.logger.Printf("[RESPONSE] Generation failed: %v", err)
		}
		return ApologyReply
	}
	return reply
}

func (a *Assembler) systemContent(decision dialog.Decision, sig extract.Signals, retrieved *search.Result) string {
	var b strings.Builder
	b.WriteString(persona)

	switch decision.Intent {
	case extract.IntentUnsupportedPlatform:
		b.WriteString(unsupportedPlatformHint(sig.UnsupportedName))
		b.WriteString("\n\n")
	case extract.IntentIAAccessIssue:
		b.WriteString(accessIssueHint)
		b.WriteString("\n\n")
	}

	if retrieved != nil && retrieved.Context != "" {
		b.WriteString("=== OFFICIAL INSTRUCTIONS (FOLLOW EXACTLY) ===\n")
		b.WriteString(retrieved.Context)
		b.WriteString("\n=== END OFFICIAL INSTRUCTIONS ===\n\n")
		b.WriteString(contextGuardrails)
	}

	b.WriteString(generalGuardrails)
	return b.String()
}

// unsupportedPlatformHint steers the model toward a fixed
// apology-and-redirect reply for platforms absent from the knowledge
// base.
func unsupportedPlatformHint(platformName string) string {
	platformText := "this platform "
	if platformName != "" {
		platformText = platformName + " "
	}
	return "The user is asking about " + platformText + "which we don't have specific instructions for. " +
		"Respond with EXACTLY this message (you can adjust wording slightly but keep the same meaning):\n\n" +
		"'I understand you're having trouble accessing " + platformText + "materials. " +
		"Unfortunately, I don't have specific troubleshooting instructions for this platform in my knowledge base. " +
		"I recommend contacting the Campus Store directly for assistance with this specific platform. " +
		"They'll be able to provide you with the specific help you need. " +
		"Is there anything else I can help you with regarding textbook policies or other campus store services?'\n\n" +
		"DO NOT mention other platforms like McGraw Hill or Cengage. " +
		"DO NOT ask for course codes. " +
		"DO NOT provide generic troubleshooting steps."
}
