package config

import (
	"fmt"
	"strings"
	"unicode"
)

// ParseCommand splits a mode or controller command string into argv using
// shell-like quoting. Each word then has ${VAR} and a leading ~ expanded.
// An empty string or one starting with # yields an unset command.
func ParseCommand(raw string) (CommandConfig, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return CommandConfig{Raw: raw}, nil
	}

	words, err := splitWords(trimmed)
	if err != nil {
		return CommandConfig{}, err
	}
	for i, w := range words {
		words[i] = expandUserPath(w)
	}
	return CommandConfig{Raw: raw, Argv: words}, nil
}

// mustParseCommand is for built-in defaults only.
func mustParseCommand(raw string) CommandConfig {
	cmd, err := ParseCommand(raw)
	if err != nil {
		panic(err)
	}
	return cmd
}

type wordSplitter struct {
	words   []string
	word    strings.Builder
	inWord  bool
	quote   rune
	escaped bool
}

func splitWords(input string) ([]string, error) {
	var s wordSplitter
	for _, r := range input {
		s.feed(r)
	}

	switch {
	case s.escaped:
		return nil, fmt.Errorf("unterminated escape sequence in command: %q", input)
	case s.quote != 0:
		return nil, fmt.Errorf("unterminated quote in command: %q", input)
	}
	s.endWord()
	return s.words, nil
}

func (s *wordSplitter) feed(r rune) {
	if s.escaped {
		s.add(r)
		s.escaped = false
		return
	}
	if s.quote != 0 {
		if r == s.quote {
			s.quote = 0
		} else {
			s.add(r)
		}
		return
	}

	switch {
	case r == '\\':
		s.escaped = true
		s.inWord = true
	case r == '\'' || r == '"':
		s.quote = r
		s.inWord = true
	case unicode.IsSpace(r):
		s.endWord()
	default:
		s.add(r)
	}
}

func (s *wordSplitter) add(r rune) {
	s.word.WriteRune(r)
	s.inWord = true
}

// endWord keeps explicitly quoted empty words ("").
func (s *wordSplitter) endWord() {
	if !s.inWord {
		return
	}
	s.words = append(s.words, s.word.String())
	s.word.Reset()
	s.inWord = false
}
