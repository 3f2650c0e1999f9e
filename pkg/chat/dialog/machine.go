package dialog

import (
	"log"
	"strings"

	"campus-chatbot-be/pkg/chat/extract"
	"campus-chatbot-be/pkg/store"
)

// Reply sources for turns answered by the machine itself
const (
	SourceClarification       = "CLARIFICATION"
	SourceClarificationNeeded = "CLARIFICATION_NEEDED"
)

// Decision is the outcome of running one turn through the machine.
// A non-empty Clarification short-circuits the turn: no retrieval, no
// generation, the clarification text is the reply.
type Decision struct {
	Clarification string
	Source        string

	Intent     string
	Platform   string
	CourseCode string
}

// Machine applies the dialogue transition rules to a session.
// Transitions are evaluated in a fixed priority order so a one-shot
// ambiguity always wins over stale pending state.
type Machine struct {
	logger *log.Logger
}

func NewMachine(logger *log.Logger) *Machine {
	return &Machine{logger: logger}
}

const multiPlatformClarification = "I notice you mentioned multiple platforms. To give you the most " +
	"accurate troubleshooting steps, could you please clarify which " +
	"platform you're having trouble with? (e.g., McGraw Hill Connect, " +
	"Cengage MindTap, etc.)"

var subtypeClarifications = map[string]string{
	extract.PlatformMcGrawHill: "I can help you with McGraw Hill! To give you the most accurate instructions, " +
		"could you please specify: Are you trying to access a **McGraw Hill textbook** " +
		"or **McGraw Hill Connect**?",
	extract.PlatformCengage: "I can help you with Cengage! To give you the most accurate instructions, " +
		"could you please specify: Are you trying to access a **Cengage textbook** " +
		"or **Cengage MindTap** (also called cnowv2)?",
	extract.PlatformPearson: "I can help you with Pearson! To give you the most accurate instructions, " +
		"could you please specify: Are you trying to access a **Pearson textbook** " +
		"or **Pearson MyLab/Mastering**?",
}

const genericSubtypeClarification = "I can help you with that! Could you please specify what type of access " +
	"you need (textbook or platform/courseware)?"

// Fixed phrasing of the subtype clarification questions, matched against
// the previous assistant turn to keep intent continuity.
var subtypeClarificationMarkers = []string{
	"textbook or mcgraw hill connect",
	"textbook or cengage mindtap",
	"textbook or pearson mylab",
}

// Discourse markers signalling an explicit topic switch while a course
// code is pending.
var topicSwitchMarkers = []string{
	"actually", "instead", "what about", "by the way", "nevermind", "never mind",
}

// Words in a subtype reply that select the courseware product rather
// than the plain e-text.
var coursewareReplyWords = []string{
	"connect", "mindtap", "cnow", "mylab", "mastering", "platform",
}

// Step runs one incoming turn through the transition table, mutating the
// session's pending-slot state. All mutations happen here, before any
// external call, so a later generation failure leaves a valid session.
func (m *Machine) Step(session *store.Session, message string, sig extract.Signals) Decision {
	// 1. Multiple platforms in one message: one-shot clarification,
	// no state is remembered.
	if sig.PlatformAmbiguous {
		m.logger.Printf("[DIALOG] Multi-platform ambiguity: %v", sig.Platforms)
		return Decision{
			Clarification: multiPlatformClarification,
			Source:        SourceClarification,
		}
	}

	// 2. Publisher named without its subtype: remember the publisher
	// and ask which product they mean.
	if sig.PublisherAmbiguous {
		m.logger.Printf("[DIALOG] Publisher subtype ambiguity: %s", sig.Publisher)
		session.PendingSlot = store.SlotPlatformSubtype
		session.StoredPublisher = sig.Publisher

		clarification, ok := subtypeClarifications[sig.Publisher]
		if !ok {
			clarification = genericSubtypeClarification
		}
		return Decision{
			Clarification: clarification,
			Source:        SourceClarificationNeeded,
		}
	}

	// 3. Awaiting the subtype answer: interpret the reply.
	if session.PendingSlot == store.SlotPlatformSubtype {
		decision := m.resolveSubtypeReply(session, message)
		return m.applySlotGate(session, message, decision)
	}

	// 4. Awaiting a course code: either a topic switch or the answer.
	if session.PendingSlot == store.SlotCourseCode {
		if m.isTopicSwitch(message, sig, session.StoredIntent) {
			m.logger.Printf("[DIALOG] Topic switch detected, discarding pending slot")
			m.clearPending(session)
			return m.applySlotGate(session, message, m.freshTurn(session, sig))
		}

		decision := Decision{
			Intent:     session.StoredIntent,
			Platform:   session.StoredPlatform,
			CourseCode: sig.CourseCode,
		}
		m.clearPending(session)
		m.logger.Printf("[DIALOG] Course code answer: %q (intent=%s platform=%s)",
			decision.CourseCode, decision.Intent, decision.Platform)
		// A reply that still lacks a code re-arms the slot.
		return m.applySlotGate(session, message, decision)
	}

	// 5. Fresh turn.
	return m.applySlotGate(session, message, m.freshTurn(session, sig))
}

func (m *Machine) resolveSubtypeReply(session *store.Session, message string) Decision {
	normalized := strings.ToLower(message)
	publisher := session.StoredPublisher

	decision := Decision{
		Intent:     extract.IntentIAAccessIssue,
		CourseCode: extract.ExtractCourseCode(message),
	}
	for _, w := range coursewareReplyWords {
		if strings.Contains(normalized, w) {
			decision.Platform = publisher
			break
		}
	}
	// No courseware word: platform stays empty, the general e-text
	// instructions apply.

	session.PendingSlot = store.SlotNone
	session.StoredPublisher = ""
	m.logger.Printf("[DIALOG] Subtype resolved: publisher=%s platform=%q", publisher, decision.Platform)
	return decision
}

func (m *Machine) freshTurn(session *store.Session, sig extract.Signals) Decision {
	decision := Decision{
		Intent:     sig.Intent,
		Platform:   sig.Platform,
		CourseCode: sig.CourseCode,
	}

	// If the previous assistant turn was a subtype clarification the
	// user is still in the access-issue flow, whatever this reply
	// classified as.
	if len(session.History) >= 2 && IsSubtypeClarification(session.LastAssistantTurn()) {
		decision.Intent = extract.IntentIAAccessIssue
		m.logger.Printf("[DIALOG] Subtype clarification continuity, forcing intent=%s", decision.Intent)
	}

	return decision
}

// applySlotGate records that a course code is still wanted when an
// access issue arrives without one. The turn continues to retrieval:
// the code is advisory context, not a precondition for answering.
func (m *Machine) applySlotGate(session *store.Session, message string, decision Decision) Decision {
	if decision.Intent == extract.IntentIAAccessIssue && decision.CourseCode == "" {
		session.PendingSlot = store.SlotCourseCode
		session.StoredIntent = extract.IntentIAAccessIssue
		session.StoredPlatform = bestGuessPlatform(message, decision.Platform)
		m.logger.Printf("[DIALOG] Awaiting course code (platform guess=%q)", session.StoredPlatform)
	}
	return decision
}

func (m *Machine) isTopicSwitch(message string, sig extract.Signals, storedIntent string) bool {
	normalized := strings.ToLower(message)
	for _, marker := range topicSwitchMarkers {
		if strings.Contains(normalized, marker) {
			return true
		}
	}
	// A bare course code classifies as GENERAL_FAQ, but it is the
	// answer we asked for, not a change of topic.
	if sig.CourseCode != "" {
		return false
	}
	return storedIntent == extract.IntentIAAccessIssue && sig.Intent != extract.IntentIAAccessIssue
}

func (m *Machine) clearPending(session *store.Session) {
	session.ClearSlot()
}

func bestGuessPlatform(message, resolved string) string {
	if resolved != "" {
		return resolved
	}
	normalized := strings.ToLower(message)
	switch {
	case strings.Contains(normalized, "cengage") || strings.Contains(normalized, "mindtap"):
		return extract.PlatformCengage
	case strings.Contains(normalized, "mcgraw") || strings.Contains(normalized, "connect"):
		return extract.PlatformMcGrawHill
	}
	return ""
}

// IsSubtypeClarification reports whether an assistant turn is one of the
// fixed subtype clarification questions. Markdown emphasis is stripped
// before matching so the markers line up with the rendered texts.
func IsSubtypeClarification(assistantTurn string) bool {
	normalized := strings.ReplaceAll(strings.ToLower(assistantTurn), "*", "")
	for _, marker := range subtypeClarificationMarkers {
		if strings.Contains(normalized, marker) {
			return true
		}
	}
	return false
}
