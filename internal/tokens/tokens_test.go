package tokens

import "testing"

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int
	}{
		{"empty string", "", 0},
		{"single char", "a", 1},
		{"four chars (1 token)", "abcd", 1},
		{"five chars (2 tokens)", "abcde", 2},
		{"typical short answer", "by next March", 4},
		{"longer answer", "We need a dashboard that shows live shipment status for the warehouse team", 19},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EstimateTokens(tt.input)
			if got != tt.want {
				t.Errorf("EstimateTokens(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}
