package tipping

import (
	"slices"
	"strings"
)

// Command locates the tip command inside a message's tokens.
type Command struct {
	Index int
	// StartingPoint is the position of the amount token.
	StartingPoint int
}

// DetectCommand finds the first occurrence of the command literal. It reports false
// when the literal is absent, when the amount position is out of range, or when the
// platform requires a bot mention and none is present.
func DetectCommand(tokens []string, literal string, rules PlatformRules) (Command, bool) {
	literal = strings.ToLower(literal)

	if rules.RequireBotMention {
		mention := "@" + strings.ToLower(rules.BotHandle)
		if !slices.ContainsFunc(tokens, func(t string) bool { return strings.ToLower(t) == mention }) {
			return Command{}, false
		}
	}

	idx := slices.IndexFunc(tokens, func(t string) bool { return strings.ToLower(t) == literal })
	if idx < 0 {
		return Command{}, false
	}

	cmd := Command{Index: idx, StartingPoint: idx + 1}
	if cmd.StartingPoint >= len(tokens) {
		return Command{}, false
	}
	return cmd, true
}
