package tipping

import (
	"iter"
	"slices"
	"strings"
)

const mentionSigil = "@"

type scanState int

const (
	seeking scanState = iota
	collecting
)

// ScanMentions yields the candidate mentions of a token stream in order.
//
// The scanner starts in the seeking state and skips ordinary words. The first candidate
// mention switches it to collecting, and from then on the first ordinary word ends the
// scan: trailing text closes the recipient list even if mentions follow it. Empty tokens
// and mentions of any handle in ignore (compared case-insensitively, without the sigil)
// are skipped in both states.
func ScanMentions(tokens iter.Seq[string], ignore ...string) iter.Seq[string] {
	ignored := make([]string, 0, len(ignore))
	for _, h := range ignore {
		if h != "" {
			ignored = append(ignored, mentionSigil+strings.ToLower(h))
		}
	}

	return func(yield func(string) bool) {
		state := seeking
		for tok := range tokens {
			switch {
			case tok == "":
				continue
			case !strings.HasPrefix(tok, mentionSigil):
				if state == collecting {
					return
				}
				continue
			case slices.Contains(ignored, strings.ToLower(tok)):
				continue
			}

			state = collecting
			if !yield(tok) {
				return
			}
		}
	}
}

// tokensAfterAmount returns the tokens that may hold recipients.
func tokensAfterAmount(msg *Message, cmd Command) iter.Seq[string] {
	start := cmd.StartingPoint + 1
	if start >= len(msg.Tokens) {
		return slices.Values([]string(nil))
	}
	return slices.Values(msg.Tokens[start:])
}
