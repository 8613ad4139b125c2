package intent

import (
	"context"
	"testing"
)

func TestRecognizeRuleStageKeywords(t *testing.T) {
	tests := []struct {
		name string
		turn string
		want Kind
	}{
		{"create story", "let's start a new story about dragons", CreateStory},
		{"modify setting", "change the character's name to Aria", ModifySetting},
		{"modify content", "rewrite chapter 3, it's too slow", ModifyContent},
		{"generate", "write a chapter about the heist", GenerateContent},
		{"continue", "continue from where we left off", ContinueContent},
		{"query", "what happens to the villain?", Query},
		{"chat fallback", "thanks, that sounds great", Chat},
		{"empty turn", "", Chat},
	}

	r := New(nil, "")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := r.Recognize(context.Background(), tt.turn)
			if err != nil {
				t.Fatalf("Recognize(%q): %v", tt.turn, err)
			}
			if result.Intent != tt.want {
				t.Errorf("Recognize(%q) = %s, want %s", tt.turn, result.Intent, tt.want)
			}
		})
	}
}

func TestRecognizeWithoutProviderNeverCallsLLM(t *testing.T) {
	r := New(nil, "")
	result, err := r.Recognize(context.Background(), "hmm, not sure I follow")
	if err != nil {
		t.Fatalf("Recognize: %v", err)
	}
	if result.Intent != Chat {
		t.Errorf("low-confidence turn with nil provider = %s, want CHAT fallback", result.Intent)
	}
}

func TestHasGenerationCue(t *testing.T) {
	tests := []struct {
		turn string
		want bool
	}{
		{"write the next part", true},
		{"keep going", true},
		{"继续", true},
		{"what is the weather like", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := HasGenerationCue(tt.turn); got != tt.want {
			t.Errorf("HasGenerationCue(%q) = %v, want %v", tt.turn, got, tt.want)
		}
	}
}

func TestCreateStoryOutranksQueryWhenBothCuesPresent(t *testing.T) {
	// "what" matches the query pattern, but "start a new story" should win
	// since CreateStory is checked first in the priority-ordered label set.
	result := recognizeRules("what do you think about starting a new story here")
	if result.Intent != CreateStory {
		t.Errorf("got %s, want CREATE_STORY to outrank QUERY", result.Intent)
	}
}
