package repl

import (
	"reflect"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/expr-lang/expr/builtin"
	"github.com/sahilm/fuzzy"

	"github.com/plain-mark/markdown2app/lang"
)

// isWordBoundary returns true if the rune is a word delimiter for completion
// purposes. This includes whitespace, the member-access dot, quotes, and the
// dialect's operator and punctuation characters.
func isWordBoundary(r rune) bool {
	switch r {
	case '.', ' ', '\t',
		'(', ')', '[', ']', '{', '}',
		'+', '-', '*', '/', '%',
		'<', '>', '=', '!',
		'&', '|', ',', '?', ':', ';',
		'"', '\'', '`', '$':
		return true
	}

	return false
}

// wordBounds returns the current word at the cursor position and its byte
// boundaries within input. Returns an empty word when the cursor sits on a
// boundary (after a space, after a dot, start of line, etc.).
func wordBounds(input string, cursor int) (word string, start, end int) {
	if cursor > len(input) {
		cursor = len(input)
	}

	start = cursor

	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(input[:start])
		if isWordBoundary(r) {
			break
		}

		start -= size
	}

	end = cursor

	for end < len(input) {
		r, size := utf8.DecodeRuneInString(input[end:])
		if isWordBoundary(r) {
			break
		}

		end += size
	}

	return input[start:end], start, end
}

// parentPath returns the dot-separated prefix path leading up to the current
// word, considering only the contiguous member-access chain. For input
// "x + os.platform.le" with the word "le", the parent path is "os.platform".
// Returns "" for top-level words.
func parentPath(input string, wordStart int) string {
	prefix := input[:wordStart]
	if !strings.HasSuffix(prefix, ".") {
		return ""
	}

	prefix = strings.TrimRight(prefix, ".")

	end := len(prefix)
	pos := end

	for pos > 0 {
		r, size := utf8.DecodeLastRuneInString(prefix[:pos])
		if r != '.' && isWordBoundary(r) {
			break
		}

		pos -= size
	}

	return strings.TrimSpace(prefix[pos:end])
}

// builtinNames returns the names of expr-lang's builtin functions that are
// callable as plain identifiers.
func builtinNames() []string {
	names := make([]string, 0, len(builtin.Builtins))

	for _, fn := range builtin.Builtins {
		r, _ := utf8.DecodeRuneInString(fn.Name)
		if unicode.IsLetter(r) {
			names = append(names, fn.Name)
		}
	}

	return names
}

// childCandidates returns the names that are valid completions for the given
// parent path. At the top level these are the session commands (only when
// the word starts the line), the namespace bindings, the capabilities, the
// keywords, and the expr-lang builtins. Below a parent they are the member
// names of the resolved value.
func childCandidates(in *lang.Interpreter, parent string, lineStart bool) []string {
	if parent != "" {
		v, ok := in.Lookup(parent)
		if !ok {
			return nil
		}

		m, ok := v.(map[string]any)
		if !ok {
			return nil
		}

		names := make([]string, 0, len(m))
		for k := range m {
			names = append(names, k)
		}

		slices.Sort(names)

		return names
	}

	var names []string

	if lineStart {
		names = append(names, commands...)
	}

	names = append(names, in.Namespace().Names()...)
	names = append(names, lang.Capabilities()...)
	names = append(names, lang.Keywords()...)
	names = append(names, builtinNames()...)

	slices.Sort(names)

	return slices.Compact(names)
}

// callable reports whether the candidate name below parent resolves to a
// function.
func callable(in *lang.Interpreter, parent, name string) bool {
	if parent == "" {
		if _, ok := builtin.Index[name]; ok {
			return true
		}
	} else {
		name = parent + "." + name
	}

	v, ok := in.Lookup(name)
	if !ok || v == nil {
		return false
	}

	if _, ok := v.(*lang.Function); ok {
		return true
	}

	return reflect.TypeOf(v).Kind() == reflect.Func
}

// computeMatches calculates the fuzzy match results for the word at the cursor.
// It returns the matches (ranked best-first), the candidate list, and the word
// boundaries. When the current word is empty at the top level, it returns nil
// matches. When the word is empty after a dot (member access), it returns all
// children as matches.
func (m model) computeMatches() (
	matches fuzzy.Matches,
	candidates []string,
	parent string,
	wordStart, wordEnd int,
) {
	input := m.input.Value()
	cursor := m.input.Position()

	word, wordStart, wordEnd := wordBounds(input, cursor)
	parent = parentPath(input, wordStart)
	lineStart := strings.TrimSpace(input[:wordStart]) == ""

	candidates = childCandidates(m.session.in, parent, lineStart)
	if len(candidates) == 0 {
		return nil, nil, parent, wordStart, wordEnd
	}

	if word == "" {
		if parent == "" {
			return nil, nil, parent, wordStart, wordEnd
		}

		matches = make(fuzzy.Matches, len(candidates))
		for i, c := range candidates {
			matches[i] = fuzzy.Match{Str: c, Index: i}
		}

		return matches, candidates, parent, wordStart, wordEnd
	}

	return fuzzy.Find(word, candidates), candidates, parent, wordStart, wordEnd
}

// renderCandidateBar builds the single-line completion bar, ellipsized to fit
// within the given terminal width. The selected candidate (when tabbing) uses
// the selected style. Candidates for which isFunc reports true are suffixed
// with "()".
func renderCandidateBar(
	matches fuzzy.Matches,
	suggIdx int,
	tabActive bool,
	width int,
	isFunc func(string) bool,
) string {
	if len(matches) == 0 || width <= 0 {
		return ""
	}

	const sep = "  "

	sepWidth := lipgloss.Width(sep)
	ellipsis := hintStyle.Render("...")
	ellipsisWidth := lipgloss.Width(ellipsis)

	var b strings.Builder

	used := 0

	for i, match := range matches {
		selected := tabActive && i == suggIdx
		rendered := renderCandidate(match, selected, isFunc != nil && isFunc(match.Str))
		entryWidth := lipgloss.Width(rendered)

		if i > 0 {
			entryWidth += sepWidth
		}

		if used+entryWidth+ellipsisWidth > width && i > 0 {
			b.WriteString(sep)
			b.WriteString(ellipsis)

			break
		}

		if i > 0 {
			b.WriteString(sep)
		}

		b.WriteString(rendered)

		used += entryWidth
	}

	return b.String()
}

// renderCandidate styles a candidate, emboldening the runes the fuzzy match
// hit. Callable candidates get a "()" suffix.
func renderCandidate(match fuzzy.Match, selected, function bool) string {
	style := candidateStyle
	if selected {
		style = selectedStyle
	}

	hit := style.Bold(true)

	matchSet := make(map[int]bool, len(match.MatchedIndexes))
	for _, idx := range match.MatchedIndexes {
		matchSet[idx] = true
	}

	var b strings.Builder

	for i, r := range match.Str {
		ch := string(r)
		if matchSet[i] {
			b.WriteString(hit.Render(ch))
		} else {
			b.WriteString(style.Render(ch))
		}
	}

	if function {
		b.WriteString(style.Render("()"))
	}

	return b.String()
}
