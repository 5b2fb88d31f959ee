package lang

import (
	"regexp"
	"strings"
	"sync"
)

// DefaultLabel is the fence info string that marks a block as belonging to
// the dialect.
const DefaultLabel = "plainmark"

// Block is one fenced region of dialect source extracted from a document.
type Block struct {
	Index int    // 0-based position among the document's blocks
	Line  int    // 1-based document line of the opening fence
	Lang  string // optional tag preceding the label, e.g. "js"
	Code  string
}

// fencePatterns caches the compiled fence expression for each label.
var fencePatterns sync.Map // map[string]*regexp.Regexp

func fencePattern(label string) *regexp.Regexp {
	if re, ok := fencePatterns.Load(label); ok {
		return re.(*regexp.Regexp)
	}

	// ```[lang ]label<ws> body ```, matched non-greedily so that the first
	// close fence terminates the block.
	re := regexp.MustCompile("```" +
		`(?:([\w.+#-]+)[ \t]+)?` +
		regexp.QuoteMeta(label) +
		`(?:[ \t]*\r?\n|[ \t]+)` +
		`\s*([\s\S]*?)\s*` +
		"```")

	actual, _ := fencePatterns.LoadOrStore(label, re)

	return actual.(*regexp.Regexp)
}

// Extract returns the bodies of all fenced code blocks in document tagged
// with label, in source order. An empty label selects [DefaultLabel].
//
// Extraction is purely syntactic: the content of a block is not inspected,
// and a body cannot itself contain a close fence.
func Extract(document, label string) []Block {
	if label == "" {
		label = DefaultLabel
	}

	matches := fencePattern(label).FindAllStringSubmatchIndex(document, -1)
	if len(matches) == 0 {
		return nil
	}

	blocks := make([]Block, 0, len(matches))

	line, last := 1, 0

	for i, m := range matches {
		line += strings.Count(document[last:m[0]], "\n")
		last = m[0]

		var tag string
		if m[2] >= 0 {
			tag = document[m[2]:m[3]]
		}

		blocks = append(blocks, Block{
			Index: i,
			Line:  line,
			Lang:  tag,
			Code:  document[m[4]:m[5]],
		})
	}

	return blocks
}
