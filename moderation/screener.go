package moderation

import (
	"regexp"
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"
)

// Screener redacts contact details and blocked phrases from outbound
// message content. The marketplace takes its fee on placements, so both
// sides are prevented from moving the negotiation off-platform by swapping
// emails, phone numbers, or handles inside chat messages.
type Screener struct {
	matcher    *goahocorasick.Machine
	redactChar rune
}

type textMapping struct {
	normalized []rune
	origIdx    []int
}

var (
	emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	// Seven or more digits, allowing the separators people type inside
	// phone numbers. Shorter runs (prices, dates, zip codes) pass through.
	phonePattern = regexp.MustCompile(`\+?\d(?:[\s\-.()]*\d){6,}`)
)

// NewScreener builds the Aho-Corasick automaton over a normalized version of
// the blocked phrase list. An empty list is valid: only contact-detail
// redaction applies then.
func NewScreener(blockedPhrases []string, redactChar rune) (Screener, error) {
	s := Screener{redactChar: redactChar}
	if len(blockedPhrases) == 0 {
		return s, nil
	}

	patterns := make([][]rune, len(blockedPhrases))
	for i, phrase := range blockedPhrases {
		patterns[i] = normalizeRunes([]rune(phrase))
	}

	m := new(goahocorasick.Machine)
	if err := m.Build(patterns); err != nil {
		return Screener{}, err
	}
	s.matcher = m
	return s, nil
}

// Redact returns content with contact details and blocked phrases replaced
// by the redaction character, preserving length and spacing so the bubble
// still reads naturally.
func (s *Screener) Redact(content string) string {
	out := s.redactContacts(content)
	return s.redactPhrases(out)
}

func (s *Screener) redactContacts(content string) string {
	mask := func(match string) string {
		runes := []rune(match)
		for i, r := range runes {
			if !unicode.IsSpace(r) {
				runes[i] = s.redactChar
			}
		}
		return string(runes)
	}
	content = emailPattern.ReplaceAllStringFunc(content, mask)
	return phonePattern.ReplaceAllStringFunc(content, mask)
}

// redactPhrases matches blocked phrases against a normalized text (leet
// speak folded, punctuation and spacing stripped) and maps the hits back to
// the original rune positions.
func (s *Screener) redactPhrases(content string) string {
	if s.matcher == nil {
		return content
	}

	mapping := normalize(content)
	if len(mapping.normalized) == 0 {
		return content
	}

	origRunes := []rune(content)
	spans := s.matcher.MultiPatternSearch(mapping.normalized, false)
	if len(spans) == 0 {
		return content
	}

	for _, span := range spans {
		normStart := span.Pos
		normEnd := normStart + len(span.Word)
		if normStart < 0 || normEnd > len(mapping.origIdx) {
			continue
		}

		origStart := mapping.origIdx[normStart]
		origEnd := mapping.origIdx[normEnd-1] + 1
		for i := origStart; i < origEnd; i++ {
			origRunes[i] = s.redactChar
		}
	}
	return string(origRunes)
}

// normalize transforms the input into a searchable form and tracks the
// original rune positions.
func normalize(input string) textMapping {
	origRunes := []rune(input)
	norm := make([]rune, 0, len(origRunes))
	origIdx := make([]int, 0, len(origRunes))

	for i, r := range origRunes {
		clean := simplifyRune(r)
		if isNoise(clean) {
			continue
		}
		norm = append(norm, unicode.ToLower(clean))
		origIdx = append(origIdx, i)
	}
	return textMapping{normalized: norm, origIdx: origIdx}
}

// normalizeRunes applies simplification and noise removal to a slice of runes.
func normalizeRunes(input []rune) []rune {
	out := make([]rune, 0, len(input))
	for _, r := range input {
		clean := simplifyRune(r)
		if isNoise(clean) {
			continue
		}
		out = append(out, unicode.ToLower(clean))
	}
	return out
}

// simplifyRune maps common leet speak characters back to their standard
// alphabet counterparts so "wh4ts4pp" still matches "whatsapp".
func simplifyRune(r rune) rune {
	switch r {
	case '4', '@':
		return 'a'
	case '3':
		return 'e'
	case '1', '!', '|':
		return 'i'
	case '0':
		return 'o'
	case '5', '$':
		return 's'
	default:
		return r
	}
}

// isNoise identifies characters ignored during the pattern matching phase.
func isNoise(r rune) bool {
	return unicode.IsPunct(r) || unicode.IsSpace(r) || unicode.IsSymbol(r)
}
