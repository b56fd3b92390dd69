package pages

import (
	"bytes"
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"go.uber.org/zap"

	"github.com/vidyasagar/pagenav/internal/routing"
)

// renderHTML extracts the readable article from an HTML page, converts it to
// markdown and renders that.
func (s *Source) renderHTML(base routing.PageInfo, file string, body []byte, width int) (*RenderedPage, error) {
	title, content := "", string(body)

	pageURL := &url.URL{Scheme: "file", Path: filepath.ToSlash(file)}
	article, err := readability.FromReader(bytes.NewReader(body), pageURL)
	if err == nil && strings.TrimSpace(article.Content) != "" {
		title, content = article.Title, article.Content
	} else if err != nil {
		s.log.Debug("readability failed, using raw document",
			zap.Stringer("page", base), zap.Error(err))
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}
	if title == "" {
		title = strings.TrimSpace(doc.Find("title").First().Text())
	}
	if title == "" {
		title = strings.TrimSpace(doc.Find("h1").First().Text())
	}
	if title == "" {
		title = strings.TrimSuffix(path.Base(base.Name), path.Ext(base.Name))
	}

	conv := &mdConverter{src: s, base: base}
	var md strings.Builder
	md.WriteString("# " + title + "\n\n")
	if article.Byline != "" {
		md.WriteString("*" + article.Byline + "*\n\n")
	}
	doc.Find("body").Children().Each(func(_ int, sel *goquery.Selection) {
		md.WriteString(conv.convertNode(sel, 0))
	})
	md.WriteString(linkFooter(conv.links))

	rendered, err := renderMarkdownText(md.String(), contentWidth(width))
	if err != nil {
		rendered = md.String()
	}

	return &RenderedPage{
		Page:    base,
		Title:   title,
		Content: rendered,
		Links:   conv.links,
	}, nil
}

// mdConverter converts goquery HTML nodes to markdown, collecting links.
type mdConverter struct {
	src   *Source
	base  routing.PageInfo
	links []Link
}

func (c *mdConverter) convertNode(s *goquery.Selection, depth int) string {
	switch tag := goquery.NodeName(s); tag {
	case "h1", "h2", "h3", "h4", "h5", "h6":
		text := strings.TrimSpace(s.Text())
		if text == "" {
			return ""
		}
		return strings.Repeat("#", int(tag[1]-'0')) + " " + text + "\n\n"
	case "p":
		return c.convertParagraph(s)
	case "ul", "ol":
		return c.convertList(s, tag == "ol", depth)
	case "pre":
		return "```\n" + strings.TrimRight(s.Text(), "\n") + "\n```\n\n"
	case "blockquote":
		var sb strings.Builder
		s.Children().Each(func(_ int, child *goquery.Selection) {
			for _, line := range strings.Split(strings.TrimRight(c.convertNode(child, 0), "\n"), "\n") {
				sb.WriteString("> " + line + "\n")
			}
		})
		return sb.String() + "\n"
	case "hr":
		return "---\n\n"
	case "img":
		alt, _ := s.Attr("alt")
		if alt == "" {
			alt = "image"
		}
		return "*[" + alt + "]*\n\n"
	case "script", "style", "nav", "noscript":
		return ""
	case "a":
		return c.convertParagraph(s)
	default:
		var sb strings.Builder
		if s.Children().Length() == 0 {
			return c.convertParagraph(s)
		}
		s.Children().Each(func(_ int, child *goquery.Selection) {
			sb.WriteString(c.convertNode(child, depth))
		})
		return sb.String()
	}
}

func (c *mdConverter) convertParagraph(s *goquery.Selection) string {
	var sb strings.Builder
	if goquery.NodeName(s) == "a" {
		c.convertInlineNode(s, &sb)
	} else {
		c.convertInline(s, &sb)
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return ""
	}
	return text + "\n\n"
}

func (c *mdConverter) convertInline(s *goquery.Selection, sb *strings.Builder) {
	s.Contents().Each(func(_ int, child *goquery.Selection) {
		c.convertInlineNode(child, sb)
	})
}

func (c *mdConverter) convertInlineNode(s *goquery.Selection, sb *strings.Builder) {
	switch goquery.NodeName(s) {
	case "#text":
		sb.WriteString(s.Text())
	case "a":
		sb.WriteString(c.convertLink(s))
	case "strong", "b":
		sb.WriteString("**")
		c.convertInline(s, sb)
		sb.WriteString("**")
	case "em", "i":
		sb.WriteString("*")
		c.convertInline(s, sb)
		sb.WriteString("*")
	case "code":
		sb.WriteString("`" + s.Text() + "`")
	case "br":
		sb.WriteString("  \n")
	default:
		c.convertInline(s, sb)
	}
}

func (c *mdConverter) convertLink(s *goquery.Selection) string {
	href, ok := s.Attr("href")
	text := strings.TrimSpace(s.Text())
	if text == "" {
		text = href
	}
	if !ok || href == "" {
		return text
	}

	l := Link{Index: len(c.links) + 1, Text: text, Target: href}
	if page, ok := c.src.classify(c.base, href); ok {
		l.Page = page
	} else {
		l.External = true
	}
	c.links = append(c.links, l)

	return fmt.Sprintf("%s **[%d]**", text, l.Index)
}

func (c *mdConverter) convertList(s *goquery.Selection, ordered bool, depth int) string {
	var sb strings.Builder
	indent := strings.Repeat("  ", depth)

	s.ChildrenFiltered("li").Each(func(i int, li *goquery.Selection) {
		prefix := indent + "- "
		if ordered {
			prefix = fmt.Sprintf("%s%d. ", indent, i+1)
		}

		var item strings.Builder
		li.Contents().Each(func(_ int, child *goquery.Selection) {
			if tag := goquery.NodeName(child); tag == "ul" || tag == "ol" {
				return
			}
			c.convertInlineNode(child, &item)
		})
		sb.WriteString(prefix + strings.TrimSpace(item.String()) + "\n")

		li.ChildrenFiltered("ul, ol").Each(func(_ int, child *goquery.Selection) {
			sb.WriteString(c.convertList(child, goquery.NodeName(child) == "ol", depth+1))
		})
	})

	return sb.String() + "\n"
}
