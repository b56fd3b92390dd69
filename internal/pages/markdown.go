package pages

import (
	"fmt"
	"path"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/vidyasagar/pagenav/internal/routing"
)

func (s *Source) renderMarkdown(base routing.PageInfo, body []byte, width int) (*RenderedPage, error) {
	title, links := s.scanMarkdown(base, body)
	if title == "" {
		title = strings.TrimSuffix(path.Base(base.Name), path.Ext(base.Name))
	}

	md := string(body) + linkFooter(links)
	rendered, err := renderMarkdownText(md, contentWidth(width))
	if err != nil {
		// Fall back to the raw markdown.
		rendered = md
	}

	return &RenderedPage{
		Page:    base,
		Title:   title,
		Content: rendered,
		Links:   links,
	}, nil
}

// scanMarkdown returns the first level-1 heading and every link in order.
func (s *Source) scanMarkdown(base routing.PageInfo, src []byte) (string, []Link) {
	doc := goldmark.DefaultParser().Parse(text.NewReader(src))

	var title string
	var links []Link
	add := func(label, target string) {
		l := Link{Index: len(links) + 1, Text: label, Target: target}
		if label == "" {
			l.Text = target
		}
		if page, ok := s.classify(base, target); ok {
			l.Page = page
		} else {
			l.External = true
		}
		links = append(links, l)
	}

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n := n.(type) {
		case *ast.Heading:
			if n.Level == 1 && title == "" {
				title = nodeText(n, src)
			}
		case *ast.Link:
			add(nodeText(n, src), string(n.Destination))
			return ast.WalkSkipChildren, nil
		case *ast.AutoLink:
			u := string(n.URL(src))
			add(u, u)
		}
		return ast.WalkContinue, nil
	})

	return title, links
}

func nodeText(n ast.Node, src []byte) string {
	var sb strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if t, ok := c.(*ast.Text); ok {
			sb.Write(t.Segment.Value(src))
			if t.SoftLineBreak() {
				sb.WriteByte(' ')
			}
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(sb.String())
}

// linkFooter lists the numbered links so they can be followed by index.
func linkFooter(links []Link) string {
	if len(links) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("\n\n---\n\n**Links**\n\n")
	for _, l := range links {
		target := l.Page.String()
		if l.External {
			target = l.Target
		}
		fmt.Fprintf(&sb, "- **[%d]** %s `%s`\n", l.Index, escapeInline(l.Text), target)
	}
	return sb.String()
}

func escapeInline(s string) string {
	r := strings.NewReplacer("*", `\*`, "_", `\_`, "`", "'", "[", `\[`, "]", `\]`)
	return r.Replace(s)
}
