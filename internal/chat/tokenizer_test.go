package chat

import "testing"

func TestTokenizer_Heuristic(t *testing.T) {
	// 即使 tiktoken 不可用，启发式也应该可用
	// Heuristic should always work even without tiktoken
	tok := &Tokenizer{fallback: true, encodingName: "cl100k_base"}

	count := tok.CountText("Hello world")
	if count <= 0 {
		t.Fatalf("heuristic CountText should return > 0, got %d", count)
	}

	// 天城文文本 / Devanagari text
	hiCount := tok.CountText("नमस्ते दुनिया")
	if hiCount <= 0 {
		t.Fatalf("heuristic CountText for Devanagari should return > 0, got %d", hiCount)
	}
}

func TestTokenizer_CountTurns(t *testing.T) {
	tok := &Tokenizer{fallback: true, encodingName: "cl100k_base"}

	turns := []Turn{
		{Role: RoleUser, Content: "hello"},
		{Role: RoleAssistant, Content: "hi there"},
	}
	count := tok.CountTurns(turns)
	if count <= 0 {
		t.Fatalf("CountTurns should return > 0, got %d", count)
	}
}

func TestTokenizer_EmptyText(t *testing.T) {
	tok := &Tokenizer{fallback: true}
	if tok.CountText("") != 0 {
		t.Fatal("empty text should return 0")
	}
}

func TestTokenizer_IsPrecise(t *testing.T) {
	fallbackTok := &Tokenizer{fallback: true}
	if fallbackTok.IsPrecise() {
		t.Fatal("fallback tokenizer should not be precise")
	}
}

func TestHeuristicTokenCount(t *testing.T) {
	tests := []struct {
		input string
		minOK bool
	}{
		{"The Directive Principles guide state policy.", true},
		{"राज्य के नीति निर्देशक तत्त्व", true},
		{"Mixed हिंदी text अंग्रेज़ी", true},
		{"", false},
	}
	for _, tt := range tests {
		got := heuristicTokenCount(tt.input)
		if tt.minOK && got <= 0 {
			t.Errorf("heuristicTokenCount(%q) = %d, want > 0", tt.input, got)
		}
		if !tt.minOK && got != 0 {
			t.Errorf("heuristicTokenCount(%q) = %d, want 0", tt.input, got)
		}
	}
}
