package tipping

import (
	"slices"
	"testing"
)

func TestScanMentions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		tokens []string
		ignore []string
		want   []string
	}{
		{
			name:   "mentions until trailing text",
			tokens: []string{"@alice", "@bob", "thanks", "@dave"},
			want:   []string{"@alice", "@bob"},
		},
		{
			name:   "leading text is skipped while seeking",
			tokens: []string{"for", "the", "help", "@alice", "@bob"},
			want:   []string{"@alice", "@bob"},
		},
		{
			name:   "empty tokens never end the list",
			tokens: []string{"@alice", "", "@bob", "", "cheers"},
			want:   []string{"@alice", "@bob"},
		},
		{
			name:   "own handle is skipped and does not end the list",
			tokens: []string{"@alice", "@Carol", "@bob"},
			ignore: []string{"carol"},
			want:   []string{"@alice", "@bob"},
		},
		{
			name:   "own handle alone does not start collecting",
			tokens: []string{"@carol", "hello", "@bob"},
			ignore: []string{"carol"},
			want:   []string{"@bob"},
		},
		{
			name:   "bot handle is skipped",
			tokens: []string{"@nanotipbot", "@alice"},
			ignore: []string{"carol", "nanotipbot"},
			want:   []string{"@alice"},
		},
		{
			name:   "no mentions",
			tokens: []string{"just", "words"},
			want:   nil,
		},
		{
			name:   "no tokens",
			tokens: nil,
			want:   nil,
		},
		{
			name:   "bare sigil is a candidate",
			tokens: []string{"@"},
			want:   []string{"@"},
		},
		{
			name:   "duplicates are yielded, dedup happens on resolution",
			tokens: []string{"@alice", "@alice"},
			want:   []string{"@alice", "@alice"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := slices.Collect(ScanMentions(slices.Values(tt.tokens), tt.ignore...))
			if !slices.Equal(got, tt.want) {
				t.Errorf("ScanMentions(%q) = %q, want %q", tt.tokens, got, tt.want)
			}
		})
	}
}

func TestScanMentionsStopsWhenConsumerStops(t *testing.T) {
	t.Parallel()

	var got []string
	for m := range ScanMentions(slices.Values([]string{"@a", "@b", "@c"})) {
		got = append(got, m)
		if len(got) == 2 {
			break
		}
	}
	if !slices.Equal(got, []string{"@a", "@b"}) {
		t.Errorf("got %q, want first two mentions", got)
	}
}

func TestTokensAfterAmount(t *testing.T) {
	t.Parallel()

	msg := &Message{Tokens: []string{"!tip", "5"}}
	if got := slices.Collect(tokensAfterAmount(msg, Command{Index: 0, StartingPoint: 1})); len(got) != 0 {
		t.Errorf("expected no tokens after the amount, got %q", got)
	}

	msg = &Message{Tokens: []string{"hey", "!tip", "5", "@alice"}}
	got := slices.Collect(tokensAfterAmount(msg, Command{Index: 1, StartingPoint: 2}))
	if !slices.Equal(got, []string{"@alice"}) {
		t.Errorf("got %q, want [@alice]", got)
	}
}

func TestTokenize(t *testing.T) {
	t.Parallel()

	got := Tokenize("!TIP 5\n@Alice\t@bob  Thanks\r\n")
	want := []string{"!tip", "5", "@alice", "@bob", "thanks"}
	if !slices.Equal(got, want) {
		t.Errorf("Tokenize() = %q, want %q", got, want)
	}
	if got := Tokenize("   "); len(got) != 0 {
		t.Errorf("Tokenize(blank) = %q, want no tokens", got)
	}
}
