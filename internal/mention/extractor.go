// Package mention parses raw chat text for persona references and issue
// numbers. It recognises Slack-native mention tokens, human-readable persona
// name references, and #-prefixed or "issue"-prefixed issue numbers, and
// normalises all of them into persona IDs and ints.
package mention

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/p-blackswan/devteam-agent/internal/persona"
)

var (
	// Slack mention token, optionally with a "|display" suffix.
	nativeMentionRe = regexp.MustCompile(`<@([A-Za-z0-9]+)(?:\|[^>]*)?>`)

	// Issue references: "#42", "issue 42", "issues #42". Bare numbers do not match.
	issueRe = regexp.MustCompile(`(?i)(?:\bissues?\s*#?|\B#)(\d+)\b`)
)

// mentionPlaceholder replaces native mention tokens in cleaned text.
const mentionPlaceholder = "@agent"

// Result is the normalised output of Extract.
type Result struct {
	// PersonaIDs lists every referenced persona: native mentions first in
	// order of appearance, then name references, deduplicated.
	PersonaIDs []string

	// IssueNumbers lists referenced issue numbers, deduplicated, in order.
	IssueNumbers []int

	// CleanText is the message with native mention tokens replaced by a
	// placeholder and name references normalised to @Name form.
	CleanText string
}

// Extractor resolves persona references against the registry's alias table.
type Extractor struct {
	registry *persona.Registry
}

// NewExtractor creates an extractor bound to a persona registry.
func NewExtractor(registry *persona.Registry) *Extractor {
	return &Extractor{registry: registry}
}

// Extract parses the text for persona references and issue numbers.
func (e *Extractor) Extract(text string) Result {
	res := Result{}

	// Native mentions, in order, deduplicated. Every detected mention is a
	// candidate target; narrowing to one happens at routing time, not here.
	seen := make(map[string]bool)
	for _, m := range nativeMentionRe.FindAllStringSubmatch(text, -1) {
		id := m[1]
		if !seen[id] {
			seen[id] = true
			res.PersonaIDs = append(res.PersonaIDs, id)
		}
	}

	clean := nativeMentionRe.ReplaceAllString(text, mentionPlaceholder)

	// Name references against the alias table. Unresolvable names were never
	// in the table to begin with, so they drop out silently.
	nameRefs, clean := e.findNameReferences(clean)
	for _, ref := range nameRefs {
		if !seen[ref] {
			seen[ref] = true
			res.PersonaIDs = append(res.PersonaIDs, ref)
		}
	}
	res.CleanText = clean

	// Issue numbers, deduplicated, order preserved.
	seenIssue := make(map[int]bool)
	for _, m := range issueRe.FindAllStringSubmatch(text, -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil || seenIssue[n] {
			continue
		}
		seenIssue[n] = true
		res.IssueNumbers = append(res.IssueNumbers, n)
	}

	return res
}

// nameMatch is one alias hit in the text.
type nameMatch struct {
	start, end int
	id         string
}

// findNameReferences scans for alias-table persona names (case-insensitive,
// tolerating internal whitespace variants) and rewrites each hit to the
// canonical @Name form. Returns matched persona IDs in order of appearance.
func (e *Extractor) findNameReferences(text string) ([]string, string) {
	aliases := e.registry.AliasTable()
	if len(aliases) == 0 {
		return nil, text
	}

	// Longest aliases first so "project manager" beats "manager".
	keys := make([]string, 0, len(aliases))
	for k := range aliases {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return len(keys[i]) > len(keys[j]) })

	var matches []nameMatch
	for _, alias := range keys {
		re, err := aliasPattern(alias)
		if err != nil {
			continue
		}
		for _, loc := range re.FindAllStringIndex(text, -1) {
			if overlaps(matches, loc[0], loc[1]) {
				continue
			}
			matches = append(matches, nameMatch{start: loc[0], end: loc[1], id: aliases[alias]})
		}
	}

	if len(matches) == 0 {
		return nil, text
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].start < matches[j].start })

	// Rewrite matched spans back-to-front so offsets stay valid.
	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		ids = append(ids, m.id)
	}
	rewritten := text
	for i := len(matches) - 1; i >= 0; i-- {
		m := matches[i]
		canonical := m.id
		if p, ok := e.registry.Get(m.id); ok {
			canonical = p.DisplayName
		}
		at := "@"
		if m.start > 0 && rewritten[m.start-1] == '@' {
			at = ""
		}
		rewritten = rewritten[:m.start] + at + canonical + rewritten[m.end:]
	}
	return ids, rewritten
}

// aliasPattern compiles a word-bounded, case-insensitive pattern for the
// alias, allowing optional whitespace where the alias has spaces or
// underscores ("Project Manager" also matches "ProjectManager").
func aliasPattern(alias string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString(`(?i)\b`)
	for _, r := range alias {
		switch r {
		case ' ', '_':
			b.WriteString(`[\s_]*`)
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString(`\b`)
	return regexp.Compile(b.String())
}

func overlaps(matches []nameMatch, start, end int) bool {
	for _, m := range matches {
		if start < m.end && end > m.start {
			return true
		}
	}
	return false
}
