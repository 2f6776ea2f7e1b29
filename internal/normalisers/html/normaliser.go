package html

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	xhtml "golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Document is a parsed HTML document.
type Document struct {
	root *xhtml.Node
}

// Parse parses an HTML document. Malformed markup is repaired the way
// browsers do, so only read errors are returned.
func Parse(body []byte) (*Document, error) {
	root, err := xhtml.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return &Document{root: root}, nil
}

// ToText parses body and renders it as plain text.
func ToText(body []byte) (string, error) {
	doc, err := Parse(body)
	if err != nil {
		return "", err
	}
	return doc.Text(), nil
}

// ToMarkdown parses body and renders it as Markdown.
func ToMarkdown(body []byte) (string, error) {
	doc, err := Parse(body)
	if err != nil {
		return "", err
	}
	return doc.Markdown(), nil
}

// Title returns the <title> text, falling back to the first <h1>.
func (d *Document) Title() string {
	if n := find(d.root, atom.Title); n != nil {
		if t := collapseSpace(textContent(n)); strings.TrimSpace(t) != "" {
			return strings.TrimSpace(t)
		}
	}
	if n := find(d.root, atom.H1); n != nil {
		return strings.TrimSpace(collapseSpace(textContent(n)))
	}
	return ""
}

// Base returns the href of the <base> element, if any.
func (d *Document) Base() string {
	if n := find(d.root, atom.Base); n != nil {
		return attr(n, "href")
	}
	return ""
}

// Links returns the href of every <a> element in document order.
func (d *Document) Links() []string {
	var links []string
	var walk func(n *xhtml.Node)
	walk = func(n *xhtml.Node) {
		if n.Type == xhtml.ElementNode && n.DataAtom == atom.A {
			if href := strings.TrimSpace(attr(n, "href")); href != "" {
				links = append(links, href)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(d.root)
	return links
}

// Text renders the document body as plain text.
func (d *Document) Text() string {
	r := &renderer{}
	r.children(d.root)
	return tidy(r.buf.String())
}

// Markdown renders the document body as Markdown.
func (d *Document) Markdown() string {
	r := &renderer{markdown: true}
	r.children(d.root)
	return tidy(r.buf.String())
}

// skipped elements carry no readable content.
var skipped = map[atom.Atom]bool{
	atom.Head:     true,
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
	atom.Template: true,
	atom.Svg:      true,
	atom.Iframe:   true,
	atom.Object:   true,
	atom.Button:   true,
	atom.Select:   true,
}

var blocks = map[atom.Atom]bool{
	atom.P:          true,
	atom.Div:        true,
	atom.Section:    true,
	atom.Article:    true,
	atom.Main:       true,
	atom.Header:     true,
	atom.Footer:     true,
	atom.Nav:        true,
	atom.Aside:      true,
	atom.Figure:     true,
	atom.Figcaption: true,
	atom.Details:    true,
	atom.Summary:    true,
	atom.Address:    true,
	atom.Dl:         true,
	atom.Dt:         true,
	atom.Dd:         true,
	atom.Form:       true,
	atom.Center:     true,
}

var headings = map[atom.Atom]int{
	atom.H1: 1, atom.H2: 2, atom.H3: 3, atom.H4: 4, atom.H5: 5, atom.H6: 6,
}

type renderer struct {
	markdown bool
	pre      bool
	buf      strings.Builder
}

func (r *renderer) sub(n *xhtml.Node) string {
	s := &renderer{markdown: r.markdown, pre: r.pre}
	s.children(n)
	if s.pre {
		return s.buf.String()
	}
	return tidy(s.buf.String())
}

func (r *renderer) inline(n *xhtml.Node) string {
	return strings.Join(strings.Fields(r.sub(n)), " ")
}

func (r *renderer) children(n *xhtml.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		r.render(c)
	}
}

//nolint:gocyclo // One case per element family.
func (r *renderer) render(n *xhtml.Node) {
	switch n.Type {
	case xhtml.TextNode:
		if r.pre {
			r.buf.WriteString(n.Data)
		} else {
			r.writeInline(collapseSpace(n.Data))
		}
		return
	case xhtml.DocumentNode:
		r.children(n)
		return
	case xhtml.ElementNode:
	default:
		return
	}

	if skipped[n.DataAtom] {
		return
	}
	if level, ok := headings[n.DataAtom]; ok {
		text := r.inline(n)
		if r.markdown && text != "" {
			text = strings.Repeat("#", level) + " " + text
		}
		r.block(text)
		return
	}
	if blocks[n.DataAtom] {
		r.block(r.sub(n))
		return
	}

	switch n.DataAtom {
	case atom.Br:
		r.buf.WriteString("\n")
	case atom.Hr:
		if r.markdown {
			r.block("---")
		} else {
			r.buf.WriteString("\n\n")
		}
	case atom.A:
		text := r.inline(n)
		href := strings.TrimSpace(attr(n, "href"))
		if r.markdown && text != "" && href != "" && !strings.HasPrefix(strings.ToLower(href), "javascript:") {
			text = "[" + text + "](" + href + ")"
		}
		r.writeInline(text)
	case atom.Strong, atom.B:
		r.wrapInline(n, "**")
	case atom.Em, atom.I:
		r.wrapInline(n, "_")
	case atom.Code, atom.Kbd, atom.Samp:
		if r.pre {
			r.children(n)
		} else {
			r.wrapInline(n, "`")
		}
	case atom.Img:
		alt := strings.TrimSpace(attr(n, "alt"))
		if r.markdown && attr(n, "src") != "" {
			r.writeInline("![" + alt + "](" + attr(n, "src") + ")")
		} else {
			r.writeInline(alt)
		}
	case atom.Pre:
		p := &renderer{markdown: r.markdown, pre: true}
		p.children(n)
		code := strings.Trim(p.buf.String(), "\n")
		if r.markdown {
			code = "```\n" + code + "\n```"
		}
		r.block(code)
	case atom.Ul, atom.Ol:
		r.block(r.list(n))
	case atom.Blockquote:
		body := r.sub(n)
		if r.markdown && body != "" {
			lines := strings.Split(body, "\n")
			for i, l := range lines {
				lines[i] = strings.TrimRight("> "+l, " ")
			}
			body = strings.Join(lines, "\n")
		}
		r.block(body)
	case atom.Table:
		r.block(r.table(n))
	default:
		r.children(n)
	}
}

func (r *renderer) wrapInline(n *xhtml.Node, mark string) {
	text := r.inline(n)
	if text == "" {
		return
	}
	if r.markdown {
		text = mark + text + mark
	}
	r.writeInline(text)
}

func (r *renderer) list(n *xhtml.Node) string {
	var items []string
	i := 0
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != xhtml.ElementNode || c.DataAtom != atom.Li {
			continue
		}
		i++
		marker := "- "
		if n.DataAtom == atom.Ol {
			marker = fmt.Sprintf("%d. ", i)
		}
		lines := strings.Split(r.sub(c), "\n")
		indent := strings.Repeat(" ", len(marker))
		for j := range lines {
			switch {
			case j == 0:
				lines[j] = marker + lines[j]
			case lines[j] != "":
				lines[j] = indent + lines[j]
			}
		}
		items = append(items, strings.Join(lines, "\n"))
	}
	return strings.Join(items, "\n")
}

func (r *renderer) table(n *xhtml.Node) string {
	var rows [][]string
	var collect func(n *xhtml.Node)
	collect = func(n *xhtml.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != xhtml.ElementNode {
				continue
			}
			switch c.DataAtom {
			case atom.Tr:
				var cells []string
				for cell := c.FirstChild; cell != nil; cell = cell.NextSibling {
					if cell.Type == xhtml.ElementNode && (cell.DataAtom == atom.Td || cell.DataAtom == atom.Th) {
						cells = append(cells, r.inline(cell))
					}
				}
				if len(cells) > 0 {
					rows = append(rows, cells)
				}
			case atom.Thead, atom.Tbody, atom.Tfoot:
				collect(c)
			}
		}
	}
	collect(n)

	var out []string
	for i, cells := range rows {
		if !r.markdown {
			out = append(out, strings.Join(cells, "\t"))
			continue
		}
		out = append(out, "| "+strings.Join(cells, " | ")+" |")
		if i == 0 {
			out = append(out, "|"+strings.Repeat(" --- |", len(cells)))
		}
	}
	return strings.Join(out, "\n")
}

func (r *renderer) writeInline(s string) {
	if s == "" {
		return
	}
	cur := r.buf.String()
	if cur == "" || strings.HasSuffix(cur, "\n") || strings.HasSuffix(cur, " ") {
		s = strings.TrimLeft(s, " ")
	}
	r.buf.WriteString(s)
}

func (r *renderer) block(s string) {
	s = strings.Trim(s, "\n ")
	if s == "" {
		return
	}
	if r.buf.Len() > 0 {
		r.buf.WriteString("\n\n")
	}
	r.buf.WriteString(s)
	r.buf.WriteString("\n\n")
}

var spaceRun = regexp.MustCompile(`[\s\p{Zs}]+`)

func collapseSpace(s string) string {
	return spaceRun.ReplaceAllString(s, " ")
}

// tidy trims trailing space on each line, collapses blank-line runs and trims
// leading and trailing blank lines.
func tidy(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blank := true
	for _, l := range lines {
		l = strings.TrimRight(l, " \t")
		if l == "" {
			if !blank {
				out = append(out, "")
			}
			blank = true
			continue
		}
		out = append(out, l)
		blank = false
	}
	return strings.TrimRight(strings.Join(out, "\n"), "\n")
}

func find(n *xhtml.Node, a atom.Atom) *xhtml.Node {
	if n.Type == xhtml.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := find(c, a); found != nil {
			return found
		}
	}
	return nil
}

func textContent(n *xhtml.Node) string {
	if n.Type == xhtml.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(textContent(c))
	}
	return b.String()
}

func attr(n *xhtml.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
