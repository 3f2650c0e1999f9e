package dialog

import (
	"io"
	"log"
	"strings"
	"testing"
	"time"

	"campus-chatbot-be/pkg/chat/extract"
	"campus-chatbot-be/pkg/store"
)

func newTestMachine() *Machine {
	return NewMachine(log.New(io.Discard, "", 0))
}

func step(m *Machine, s *store.Session, message string) Decision {
	return m.Step(s, message, extract.Extract(message))
}

func TestMultiPlatformBeatsEverything(t *testing.T) {
	m := newTestMachine()
	s := store.NewSession("s1", time.Now())
	s.PendingSlot = store.SlotCourseCode
	s.StoredIntent = extract.IntentIAAccessIssue

	d := step(m, s, "I can't access mcgraw connect and also cengage mindtap")

	if d.Source != SourceClarification {
		t.Errorf("Source = %q, want %q", d.Source, SourceClarification)
	}
	if !strings.Contains(d.Clarification, "multiple platforms") {
		t.Errorf("Clarification = %q, want multi-platform question", d.Clarification)
	}
	// One-shot: the pre-existing pending slot is untouched.
	if s.PendingSlot != store.SlotCourseCode {
		t.Errorf("PendingSlot = %q, want %q preserved", s.PendingSlot, store.SlotCourseCode)
	}
}

func TestPublisherAmbiguityArmsSubtypeSlot(t *testing.T) {
	m := newTestMachine()
	s := store.NewSession("s1", time.Now())

	d := step(m, s, "I need help with my cengage course")

	if d.Source != SourceClarificationNeeded {
		t.Errorf("Source = %q, want %q", d.Source, SourceClarificationNeeded)
	}
	if !strings.Contains(d.Clarification, "Cengage MindTap") {
		t.Errorf("Clarification = %q, want Cengage subtype question", d.Clarification)
	}
	if s.PendingSlot != store.SlotPlatformSubtype {
		t.Errorf("PendingSlot = %q, want %q", s.PendingSlot, store.SlotPlatformSubtype)
	}
	if s.StoredPublisher != extract.PlatformCengage {
		t.Errorf("StoredPublisher = %q, want %q", s.StoredPublisher, extract.PlatformCengage)
	}
}

func TestSubtypeReplySelectsCourseware(t *testing.T) {
	m := newTestMachine()
	s := store.NewSession("s1", time.Now())
	s.PendingSlot = store.SlotPlatformSubtype
	s.StoredPublisher = extract.PlatformMcGrawHill

	d := step(m, s, "the connect one")

	if d.Intent != extract.IntentIAAccessIssue {
		t.Errorf("Intent = %q, want %q", d.Intent, extract.IntentIAAccessIssue)
	}
	if d.Platform != extract.PlatformMcGrawHill {
		t.Errorf("Platform = %q, want %q", d.Platform, extract.PlatformMcGrawHill)
	}
	if s.StoredPublisher != "" {
		t.Errorf("StoredPublisher = %q, want cleared", s.StoredPublisher)
	}
	// No course code in the reply, so the code slot re-arms.
	if s.PendingSlot != store.SlotCourseCode {
		t.Errorf("PendingSlot = %q, want %q", s.PendingSlot, store.SlotCourseCode)
	}
}

func TestSubtypeReplySelectsEtext(t *testing.T) {
	m := newTestMachine()
	s := store.NewSession("s1", time.Now())
	s.PendingSlot = store.SlotPlatformSubtype
	s.StoredPublisher = extract.PlatformCengage

	d := step(m, s, "just the textbook for BIO101")

	if d.Intent != extract.IntentIAAccessIssue {
		t.Errorf("Intent = %q, want %q", d.Intent, extract.IntentIAAccessIssue)
	}
	if d.Platform != "" {
		t.Errorf("Platform = %q, want empty for e-text choice", d.Platform)
	}
	if d.CourseCode != "BIO101" {
		t.Errorf("CourseCode = %q, want BIO101", d.CourseCode)
	}
	if s.PendingSlot != store.SlotNone {
		t.Errorf("PendingSlot = %q, want none", s.PendingSlot)
	}
}

func TestCourseCodeAnswerRestoresStoredState(t *testing.T) {
	m := newTestMachine()
	s := store.NewSession("s1", time.Now())
	s.PendingSlot = store.SlotCourseCode
	s.StoredIntent = extract.IntentIAAccessIssue
	s.StoredPlatform = extract.PlatformCengage

	d := step(m, s, "it's BIO101")

	if d.Intent != extract.IntentIAAccessIssue {
		t.Errorf("Intent = %q, want stored intent", d.Intent)
	}
	if d.Platform != extract.PlatformCengage {
		t.Errorf("Platform = %q, want stored platform", d.Platform)
	}
	if d.CourseCode != "BIO101" {
		t.Errorf("CourseCode = %q, want BIO101", d.CourseCode)
	}
	if s.PendingSlot != store.SlotNone {
		t.Errorf("PendingSlot = %q, want cleared", s.PendingSlot)
	}
}

func TestTopicSwitchDiscardsPendingCode(t *testing.T) {
	m := newTestMachine()
	s := store.NewSession("s1", time.Now())
	s.PendingSlot = store.SlotCourseCode
	s.StoredIntent = extract.IntentIAAccessIssue
	s.StoredPlatform = extract.PlatformCengage

	d := step(m, s, "actually, what are your store hours?")

	if d.Intent != extract.IntentGeneralFAQ {
		t.Errorf("Intent = %q, want %q after topic switch", d.Intent, extract.IntentGeneralFAQ)
	}
	if d.Platform != "" {
		t.Errorf("Platform = %q, want empty after topic switch", d.Platform)
	}
	if s.PendingSlot != store.SlotNone {
		t.Errorf("PendingSlot = %q, want cleared", s.PendingSlot)
	}
}

func TestIntentChangeAloneIsTopicSwitch(t *testing.T) {
	m := newTestMachine()
	s := store.NewSession("s1", time.Now())
	s.PendingSlot = store.SlotCourseCode
	s.StoredIntent = extract.IntentIAAccessIssue

	d := step(m, s, "what is the refund policy?")

	if d.Intent != extract.IntentGeneralFAQ {
		t.Errorf("Intent = %q, want %q", d.Intent, extract.IntentGeneralFAQ)
	}
	if s.PendingSlot != store.SlotNone {
		t.Errorf("PendingSlot = %q, want cleared", s.PendingSlot)
	}
}

func TestAccessIssueWithoutCodeArmsSlot(t *testing.T) {
	m := newTestMachine()
	s := store.NewSession("s1", time.Now())

	d := step(m, s, "I can't access my mindtap assignment")

	if d.Intent != extract.IntentIAAccessIssue {
		t.Errorf("Intent = %q, want %q", d.Intent, extract.IntentIAAccessIssue)
	}
	if s.PendingSlot != store.SlotCourseCode {
		t.Errorf("PendingSlot = %q, want %q", s.PendingSlot, store.SlotCourseCode)
	}
	if s.StoredPlatform != extract.PlatformCengage {
		t.Errorf("StoredPlatform = %q, want %q", s.StoredPlatform, extract.PlatformCengage)
	}
}

func TestAccessIssueWithCodeDoesNotArmSlot(t *testing.T) {
	m := newTestMachine()
	s := store.NewSession("s1", time.Now())

	d := step(m, s, "I can't access mindtap for BIO101")

	if d.CourseCode != "BIO101" {
		t.Errorf("CourseCode = %q, want BIO101", d.CourseCode)
	}
	if s.PendingSlot != store.SlotNone {
		t.Errorf("PendingSlot = %q, want none", s.PendingSlot)
	}
}

func TestClarificationContinuityForcesIntent(t *testing.T) {
	m := newTestMachine()
	s := store.NewSession("s1", time.Now())
	s.AppendTurn(store.RoleUser, "help with cengage")
	s.AppendTurn(store.RoleAssistant, subtypeClarifications[extract.PlatformCengage])
	// Slot state was lost (e.g. session restored), only history remains.

	d := step(m, s, "the mindtap platform")

	if d.Intent != extract.IntentIAAccessIssue {
		t.Errorf("Intent = %q, want %q via clarification continuity", d.Intent, extract.IntentIAAccessIssue)
	}
}

func TestIsSubtypeClarification(t *testing.T) {
	if !IsSubtypeClarification(subtypeClarifications[extract.PlatformPearson]) {
		t.Error("Pearson subtype question not recognized")
	}
	if IsSubtypeClarification("Here is how to reach the store.") {
		t.Error("plain reply misclassified as subtype question")
	}
}
