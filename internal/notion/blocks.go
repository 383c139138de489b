package notion

import (
	"strings"
	"unicode/utf8"

	"github.com/jomei/notionapi"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// maxRichTextLength is the Notion limit on characters per rich text object
const maxRichTextLength = 2000

var markdown = goldmark.New()

// MarkdownToBlocks converts a lesson page into Notion blocks
func MarkdownToBlocks(content string) []notionapi.Block {
	source := []byte(content)
	doc := markdown.Parser().Parse(text.NewReader(source))

	var blocks []notionapi.Block
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		blocks = append(blocks, convertNode(n, source)...)
	}
	return blocks
}

func convertNode(n ast.Node, source []byte) []notionapi.Block {
	switch n := n.(type) {
	case *ast.Heading:
		return []notionapi.Block{createHeadingBlock(inlineText(n, source, style{}), n.Level)}
	case *ast.Paragraph, *ast.TextBlock:
		rt := inlineText(n, source, style{})
		if len(rt) == 0 {
			return nil
		}
		return []notionapi.Block{createParagraphBlock(rt)}
	case *ast.FencedCodeBlock:
		return []notionapi.Block{createCodeBlock(lines(n, source), codeLanguage(string(n.Language(source))))}
	case *ast.CodeBlock:
		return []notionapi.Block{createCodeBlock(lines(n, source), "plain text")}
	case *ast.List:
		return convertList(n, source)
	case *ast.Blockquote:
		var rt []notionapi.RichText
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			if len(rt) > 0 {
				rt = append(rt, richText("\n")...)
			}
			rt = append(rt, inlineText(c, source, style{})...)
		}
		return []notionapi.Block{&notionapi.QuoteBlock{
			BasicBlock: notionapi.BasicBlock{
				Object: "block",
				Type:   notionapi.BlockTypeQuote,
			},
			Quote: notionapi.Quote{RichText: rt},
		}}
	case *ast.ThematicBreak:
		return []notionapi.Block{&notionapi.DividerBlock{
			BasicBlock: notionapi.BasicBlock{
				Object: "block",
				Type:   notionapi.BlockTypeDivider,
			},
			Divider: notionapi.Divider{},
		}}
	case *ast.HTMLBlock:
		raw := strings.TrimSpace(lines(n, source))
		if raw == "" {
			return nil
		}
		return []notionapi.Block{createParagraphBlock(richText(raw))}
	}
	return nil
}

// convertList emits one list item block per item. Nested lists become children
// of their item; other nested blocks are appended to the item text.
func convertList(list *ast.List, source []byte) []notionapi.Block {
	var blocks []notionapi.Block
	for item := list.FirstChild(); item != nil; item = item.NextSibling() {
		var rt []notionapi.RichText
		var children []notionapi.Block
		for c := item.FirstChild(); c != nil; c = c.NextSibling() {
			if nested, ok := c.(*ast.List); ok {
				children = append(children, convertList(nested, source)...)
				continue
			}
			if len(rt) > 0 {
				rt = append(rt, richText("\n")...)
			}
			rt = append(rt, inlineText(c, source, style{})...)
		}

		li := notionapi.ListItem{RichText: rt, Children: children}
		if list.IsOrdered() {
			blocks = append(blocks, &notionapi.NumberedListItemBlock{
				BasicBlock: notionapi.BasicBlock{
					Object: "block",
					Type:   notionapi.BlockTypeNumberedListItem,
				},
				NumberedListItem: li,
			})
			continue
		}
		blocks = append(blocks, &notionapi.BulletedListItemBlock{
			BasicBlock: notionapi.BasicBlock{
				Object: "block",
				Type:   notionapi.BlockTypeBulletedListItem,
			},
			BulletedListItem: li,
		})
	}
	return blocks
}

// style carries the inline formatting in effect while walking a node
type style struct {
	bold   bool
	italic bool
	code   bool
	href   string
}

// inlineText flattens the inline children of n into rich text runs
func inlineText(n ast.Node, source []byte, st style) []notionapi.RichText {
	var out []notionapi.RichText
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch c := c.(type) {
		case *ast.Text:
			s := string(c.Segment.Value(source))
			switch {
			case c.HardLineBreak():
				s += "\n"
			case c.SoftLineBreak():
				s += " "
			}
			out = append(out, styled(s, st)...)
		case *ast.String:
			out = append(out, styled(string(c.Value), st)...)
		case *ast.CodeSpan:
			inner := st
			inner.code = true
			out = append(out, inlineText(c, source, inner)...)
		case *ast.Emphasis:
			inner := st
			if c.Level >= 2 {
				inner.bold = true
			} else {
				inner.italic = true
			}
			out = append(out, inlineText(c, source, inner)...)
		case *ast.Link:
			inner := st
			inner.href = linkTarget(string(c.Destination))
			out = append(out, inlineText(c, source, inner)...)
		case *ast.AutoLink:
			u := string(c.URL(source))
			inner := st
			inner.href = linkTarget(u)
			out = append(out, styled(u, inner)...)
		case *ast.Image:
			inner := st
			inner.href = linkTarget(string(c.Destination))
			out = append(out, inlineText(c, source, inner)...)
		case *ast.RawHTML:
			continue
		default:
			out = append(out, inlineText(c, source, st)...)
		}
	}
	return out
}

// linkTarget keeps only absolute web links, which are the only ones Notion accepts
func linkTarget(dest string) string {
	if strings.HasPrefix(dest, "https://") || strings.HasPrefix(dest, "http://") {
		return dest
	}
	return ""
}

func styled(s string, st style) []notionapi.RichText {
	runs := richText(s)
	for i := range runs {
		if st.bold || st.italic || st.code {
			runs[i].Annotations = &notionapi.Annotations{
				Bold:   st.bold,
				Italic: st.italic,
				Code:   st.code,
			}
		}
		if st.href != "" {
			runs[i].Text.Link = &notionapi.Link{Url: st.href}
		}
	}
	return runs
}

// richText splits s into text objects within the Notion length limit
func richText(s string) []notionapi.RichText {
	out := []notionapi.RichText{}
	for len(s) > 0 {
		chunk := s
		if utf8.RuneCountInString(s) > maxRichTextLength {
			cut := 0
			for i := 0; i < maxRichTextLength; i++ {
				_, size := utf8.DecodeRuneInString(s[cut:])
				cut += size
			}
			chunk = s[:cut]
		}
		out = append(out, notionapi.RichText{
			Text: &notionapi.Text{Content: chunk},
		})
		s = s[len(chunk):]
	}
	return out
}

func lines(n ast.Node, source []byte) string {
	var b strings.Builder
	segs := n.Lines()
	for i := 0; i < segs.Len(); i++ {
		seg := segs.At(i)
		b.Write(seg.Value(source))
	}
	return strings.TrimRight(b.String(), "\n")
}

// codeLanguage maps a fence info string to a Notion code language
func codeLanguage(lang string) string {
	switch strings.ToLower(strings.TrimSpace(lang)) {
	case "python", "py", "python3":
		return "python"
	case "bash", "sh", "shell", "console":
		return "shell"
	case "json":
		return "json"
	case "yaml", "yml":
		return "yaml"
	case "sql":
		return "sql"
	case "markdown", "md":
		return "markdown"
	}
	return "plain text"
}

// createHeadingBlock creates a heading block with the specified level
func createHeadingBlock(rt []notionapi.RichText, level int) notionapi.Block {
	switch level {
	case 1:
		return &notionapi.Heading1Block{
			BasicBlock: notionapi.BasicBlock{
				Object: "block",
				Type:   notionapi.BlockTypeHeading1,
			},
			Heading1: notionapi.Heading{RichText: rt},
		}
	case 2:
		return &notionapi.Heading2Block{
			BasicBlock: notionapi.BasicBlock{
				Object: "block",
				Type:   notionapi.BlockTypeHeading2,
			},
			Heading2: notionapi.Heading{RichText: rt},
		}
	default:
		return &notionapi.Heading3Block{
			BasicBlock: notionapi.BasicBlock{
				Object: "block",
				Type:   notionapi.BlockTypeHeading3,
			},
			Heading3: notionapi.Heading{RichText: rt},
		}
	}
}

// createCodeBlock creates a code block
func createCodeBlock(content, language string) notionapi.Block {
	return &notionapi.CodeBlock{
		BasicBlock: notionapi.BasicBlock{
			Object: "block",
			Type:   notionapi.BlockTypeCode,
		},
		Code: notionapi.Code{
			RichText: richText(content),
			Language: language,
		},
	}
}

// createParagraphBlock creates a paragraph block
func createParagraphBlock(rt []notionapi.RichText) notionapi.Block {
	return &notionapi.ParagraphBlock{
		BasicBlock: notionapi.BasicBlock{
			Object: "block",
			Type:   notionapi.BlockTypeParagraph,
		},
		Paragraph: notionapi.Paragraph{RichText: rt},
	}
}
