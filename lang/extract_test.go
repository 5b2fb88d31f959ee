package lang

import "testing"

func TestExtract(t *testing.T) {
	doc := "# Title\n" +
		"\n" +
		"```plainmark\n" +
		"print(1)\n" +
		"```\n" +
		"\n" +
		"text\n" +
		"\n" +
		"```js plainmark\n" +
		"  let x = 2  \n" +
		"```\n" +
		"```python\n" +
		"ignored()\n" +
		"```\n"

	blocks := Extract(doc, "")
	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d: %+v", len(blocks), blocks)
	}

	want := []Block{
		{Index: 0, Line: 3, Lang: "", Code: "print(1)"},
		{Index: 1, Line: 9, Lang: "js", Code: "let x = 2"},
	}

	for i, w := range want {
		if blocks[i] != w {
			t.Errorf("block %d:\nwant: %+v\ngot:  %+v", i, w, blocks[i])
		}
	}
}

func TestExtract_None(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "empty", doc: ""},
		{name: "prose", doc: "# Heading\n\nJust text.\n"},
		{name: "other label", doc: "```python\nprint(1)\n```\n"},
		{name: "label prefix", doc: "```plainmarkdown\nprint(1)\n```\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if blocks := Extract(tt.doc, DefaultLabel); blocks != nil {
				t.Errorf("expected no blocks, got %+v", blocks)
			}
		})
	}
}

func TestExtract_CustomLabel(t *testing.T) {
	doc := "```pm\na()\n```\n```plainmark\nb()\n```\n```pm\nc()\n```"

	blocks := Extract(doc, "pm")
	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(blocks))
	}

	if blocks[0].Code != "a()" || blocks[1].Code != "c()" {
		t.Errorf("unexpected bodies: %q, %q", blocks[0].Code, blocks[1].Code)
	}

	if blocks[1].Line != 7 {
		t.Errorf("expected line 7, got %d", blocks[1].Line)
	}
}

func TestExtract_NonGreedy(t *testing.T) {
	doc := "```plainmark\nfirst()\n```\nbetween\n```plainmark\nsecond()\n```"

	blocks := Extract(doc, DefaultLabel)
	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(blocks))
	}

	if blocks[0].Code != "first()" {
		t.Errorf("first block should stop at the first close fence, got %q",
			blocks[0].Code)
	}
}
