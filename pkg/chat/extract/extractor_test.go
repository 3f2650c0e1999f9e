package extract

import (
	"reflect"
	"testing"
)

func TestExtractIntent(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantIntent string
	}{
		{
			name:       "plain faq question",
			input:      "What are the store hours during finals week?",
			wantIntent: IntentGeneralFAQ,
		},
		{
			name:       "access phrase with platform mention",
			input:      "I can't access my Cengage MindTap course",
			wantIntent: IntentIAAccessIssue,
		},
		{
			name:       "publisher access collocation",
			input:      "help with mcgraw access please",
			wantIntent: IntentIAAccessIssue,
		},
		{
			name:       "immediate access alone",
			input:      "I opted in for immediate access last week",
			wantIntent: IntentIAAccessIssue,
		},
		{
			name:       "access phrase without any platform",
			input:      "I can't log in to the store website",
			wantIntent: IntentGeneralFAQ,
		},
		{
			name:       "unsupported platform with access trouble",
			input:      "I can't log in to Sapling for my homework",
			wantIntent: IntentUnsupportedPlatform,
		},
		{
			name:       "unsupported platform named without trouble",
			input:      "Does the store sell Sapling gift cards?",
			wantIntent: IntentGeneralFAQ,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig := Extract(tt.input)
			if sig.Intent != tt.wantIntent {
				t.Errorf("Intent = %q, want %q", sig.Intent, tt.wantIntent)
			}
		})
	}
}

func TestExtractPlatforms(t *testing.T) {
	tests := []struct {
		name          string
		input         string
		wantPlatforms []string
		wantAmbiguous bool
	}{
		{
			name:          "single platform by product name",
			input:         "my mindtap account is locked",
			wantPlatforms: []string{PlatformCengage},
		},
		{
			name:          "two platforms in one turn",
			input:         "is it mcgraw connect or cengage mindtap?",
			wantPlatforms: []string{PlatformCengage, PlatformMcGrawHill},
			wantAmbiguous: true,
		},
		{
			name:          "shared brand words collapse to one tag",
			input:         "cengage cnow is not loading",
			wantPlatforms: []string{PlatformCengage},
		},
		{
			name:  "no platform",
			input: "when do refunds post?",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig := Extract(tt.input)
			if !reflect.DeepEqual(sig.Platforms, tt.wantPlatforms) {
				t.Errorf("Platforms = %v, want %v", sig.Platforms, tt.wantPlatforms)
			}
			if sig.PlatformAmbiguous != tt.wantAmbiguous {
				t.Errorf("PlatformAmbiguous = %v, want %v", sig.PlatformAmbiguous, tt.wantAmbiguous)
			}
		})
	}
}

func TestDetectPublisherAmbiguity(t *testing.T) {
	tests := []struct {
		name          string
		input         string
		wantPublisher string
		wantAmbiguous bool
	}{
		{
			name:          "publisher without subtype",
			input:         "i need help with my cengage course",
			wantPublisher: PlatformCengage,
			wantAmbiguous: true,
		},
		{
			name:          "publisher with courseware word",
			input:         "i need help with cengage mindtap",
			wantPublisher: PlatformCengage,
			wantAmbiguous: false,
		},
		{
			name:          "publisher with etext word",
			input:         "where is my pearson etextbook",
			wantPublisher: PlatformPearson,
			wantAmbiguous: false,
		},
		{
			name:  "no dual-product publisher",
			input: "my wiley assignment is due",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			publisher, ambiguous := detectPublisherAmbiguity(tt.input)
			if publisher != tt.wantPublisher {
				t.Errorf("publisher = %q, want %q", publisher, tt.wantPublisher)
			}
			if ambiguous != tt.wantAmbiguous {
				t.Errorf("ambiguous = %v, want %v", ambiguous, tt.wantAmbiguous)
			}
		})
	}
}

func TestExtractCourseCode(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"simple code", "my course is BIO101", "BIO101"},
		{"code with suffix", "PSY200A section two", "PSY200A"},
		{"four letter prefix", "enrolled in CHEM334-01", "CHEM334-"},
		{"lowercase is not a code", "my course is bio101", ""},
		{"no code", "I forgot my course number", ""},
		{"first of several", "either ENG102 or HIS210", "ENG102"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractCourseCode(tt.input); got != tt.want {
				t.Errorf("ExtractCourseCode(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestIsGreeting(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"bare hello", "hello", true},
		{"greeting with name", "hey there bot", true},
		{"greeting inside long question", "hello, I cannot find my order from last month anywhere", false},
		{"question only", "where is my refund", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsGreeting(tt.input); got != tt.want {
				t.Errorf("IsGreeting(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestExtractIsDeterministic(t *testing.T) {
	input := "I can't access my Cengage MindTap for BIO101"
	first := Extract(input)
	for i := 0; i < 5; i++ {
		if got := Extract(input); !reflect.DeepEqual(got, first) {
			t.Fatalf("Extract run %d = %+v, want %+v", i, got, first)
		}
	}
}
