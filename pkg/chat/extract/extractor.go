package extract

import (
	"regexp"
	"strings"
)

// Intent classification results
const (
	IntentGeneralFAQ          = "GENERAL_FAQ"
	IntentIAAccessIssue       = "IA_ACCESS_ISSUE"
	IntentUnsupportedPlatform = "UNSUPPORTED_PLATFORM"
)

// Canonical platform tags
const (
	PlatformCengage    = "CENGAGE"
	PlatformMcGrawHill = "MCGRAW_HILL"
	PlatformBedford    = "BEDFORD"
	PlatformSimucase   = "SIMUCASE"
	PlatformPearson    = "PEARSON"
	PlatformWiley      = "WILEY"
	PlatformSage       = "SAGE"
	PlatformMacmillan  = "MACMILLAN"
	PlatformZyBooks    = "ZYBOOKS"
	PlatformClifton    = "CLIFTON"
)

// Signals is the extractor output for a single message. Derived per
// message, never stored.
type Signals struct {
	Intent             string
	Platforms          []string // distinct canonical tags, table order
	Platform           string   // set only on a single unambiguous match
	PlatformAmbiguous  bool     // more than one platform named
	Publisher          string   // dual-product publisher named without subtype
	PublisherAmbiguous bool
	CourseCode         string
	UnsupportedName    string // surface name of an unsupported platform, title-cased
}

type platformRule struct {
	tag      string
	patterns []string
}

// Ordered surface-form table: brand names, product names, common
// shorthand. Order determines the Platforms slice order.
var platformRules = []platformRule{
	{PlatformCengage, []string{"cengage", "mindtap", "cnow"}},
	{PlatformMcGrawHill, []string{"mcgraw", "connect"}},
	{PlatformBedford, []string{"bedford"}},
	{PlatformSimucase, []string{"simucase"}},
	{PlatformPearson, []string{"pearson"}},
	{PlatformWiley, []string{"wiley"}},
	{PlatformSage, []string{"sage"}},
	{PlatformMacmillan, []string{"macmillan", "achieve"}},
	{PlatformZyBooks, []string{"zybooks", "zylabs"}},
	{PlatformClifton, []string{"clifton"}},
}

type publisherRule struct {
	tag        string
	surface    string
	courseware []string // named courseware product indicators
}

// Publishers selling both a plain e-text and a named courseware product.
// Naming the publisher without either indicator is ambiguous.
var publisherRules = []publisherRule{
	{PlatformMcGrawHill, "mcgraw", []string{"connect"}},
	{PlatformCengage, "cengage", []string{"mindtap", "cnow"}},
	{PlatformPearson, "pearson", []string{"mylab", "mastering"}},
}

var etextWords = []string{"textbook", "etextbook", "ebook", "e-book"}

var accessTroublePhrases = []string{
	"immediate access",
	"opted in",
	"can't access",
	"cant access",
	"cannot access",
	"unable to access",
	"trouble accessing",
	"access issue",
	"access problem",
	"not working",
	"doesn't work",
	"doesnt work",
	"won't open",
	"wont open",
	"need access",
	"need to access",
	"how do i access",
	"how to access",
	"access",
	"log in",
	"log into",
	"sign in",
	"getting into",
}

// Any platform surface form counts as a platform mention for the intent
// check, including the generic e-text words.
var platformMentionWords = []string{
	"cengage", "mindtap", "mcgraw", "connect", "pearson",
	"vitalsource", "bedford", "ebook", "e-book", "etext", "e-text",
	"simucase", "sage", "vantage", "wiley", "zybooks", "zylabs",
	"clifton", "macmillan",
}

// Publisher names checked for the "<name> access" collocation.
var collocationNames = []string{
	"cengage", "mcgraw", "pearson", "sage", "simucase", "wiley",
	"bedford", "zybooks", "clifton", "macmillan",
}

// Platforms with no instructional content in the knowledge base.
var unsupportedPlatforms = []string{"sapling", "lumen"}

var greetingWords = []string{
	"hi", "hello", "hey", "good morning", "good afternoon",
	"good evening", "greetings",
}

var courseCodePattern = regexp.MustCompile(`[A-Z]{2,4}\d{3}[A-Z\-]*`)

// Extract classifies a single message. Deterministic and
// side-effect-free: identical input always yields identical output.
func Extract(message string) Signals {
	normalized := strings.ToLower(message)

	sig := Signals{
		Platforms:  detectPlatforms(normalized),
		CourseCode: ExtractCourseCode(message),
	}

	switch len(sig.Platforms) {
	case 0:
	case 1:
		sig.Platform = sig.Platforms[0]
	default:
		sig.PlatformAmbiguous = true
	}

	sig.Publisher, sig.PublisherAmbiguous = detectPublisherAmbiguity(normalized)
	sig.Intent, sig.UnsupportedName = classifyIntent(normalized)

	return sig
}

func detectPlatforms(normalized string) []string {
	var found []string
	for _, rule := range platformRules {
		for _, p := range rule.patterns {
			if strings.Contains(normalized, p) {
				found = append(found, rule.tag)
				break
			}
		}
	}
	return found
}

func detectPublisherAmbiguity(normalized string) (string, bool) {
	for _, rule := range publisherRules {
		if !strings.Contains(normalized, rule.surface) {
			continue
		}
		for _, cw := range rule.courseware {
			if strings.Contains(normalized, cw) {
				return rule.tag, false
			}
		}
		for _, w := range etextWords {
			if strings.Contains(normalized, w) {
				return rule.tag, false
			}
		}
		return rule.tag, true
	}
	return "", false
}

func classifyIntent(normalized string) (intent, unsupportedName string) {
	hasAccessPhrase := containsAny(normalized, accessTroublePhrases)

	for _, name := range unsupportedPlatforms {
		if strings.Contains(normalized, name) && hasAccessPhrase {
			return IntentUnsupportedPlatform, strings.ToUpper(name[:1]) + name[1:]
		}
	}

	for _, name := range collocationNames {
		if strings.Contains(normalized, name+" access") || strings.Contains(normalized, name+"access") {
			return IntentIAAccessIssue, ""
		}
	}

	if hasAccessPhrase && containsAny(normalized, platformMentionWords) {
		return IntentIAAccessIssue, ""
	}

	if strings.Contains(normalized, "immediate access") || strings.Contains(normalized, "opted in") {
		return IntentIAAccessIssue, ""
	}

	return IntentGeneralFAQ, ""
}

// ExtractCourseCode returns the first course-code token (e.g. BIO101,
// PSY200A) or "".
func ExtractCourseCode(message string) string {
	return courseCodePattern.FindString(message)
}

// IsGreeting reports whether the message is a short pure greeting
// (at most three tokens containing a greeting word).
func IsGreeting(message string) bool {
	if len(strings.Fields(message)) > 3 {
		return false
	}
	return containsAny(strings.ToLower(message), greetingWords)
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
