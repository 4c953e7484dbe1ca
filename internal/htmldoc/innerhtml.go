package htmldoc

import (
	"fmt"
	"sort"
	"strings"
)

// UnlimitedDepth disables INNER_HTML/RAW_INNER_HTML's depth truncation:
// spec §4.8's MAX_DEPTH keyword always resolves to a depth at least as
// deep as the node's own subtree, which is observably the same as never
// truncating at all.
const UnlimitedDepth = -1

// DefaultInnerHTMLDepth is the depth INNER_HTML()/RAW_INNER_HTML() use
// when the optional "[, depth|MAX_DEPTH]" operand (spec §4.8) is
// omitted: only the node's direct children keep their tags, everything
// below loses tag structure but not text (spec §9).
const DefaultInnerHTMLDepth = 1

// InnerHTML serializes id's children (id's own tag is never included)
// truncated to maxDepth, preserving tag boundaries: a child at depth 1
// is id's direct child, and a tag is only emitted while its depth is
// <= maxDepth. Text is always appended in full regardless of depth, so
// truncation strips nesting without losing descendant text. Attribute
// order is sorted for determinism (the parser doesn't preserve source
// attribute order once it lands in a map).
func InnerHTML(d *HtmlDocument, id NodeID, maxDepth int) (string, error) {
	if _, err := d.Node(id); err != nil {
		return "", err
	}
	var b strings.Builder
	for _, c := range d.Children(id) {
		writeNodeDepth(d, &b, c, 1, maxDepth)
	}
	return b.String(), nil
}

// MinifiedInnerHTML is InnerHTML followed by whitespace collapsing
// (spec §4.8, §8 scenario 3): INNER_HTML() minifies, RAW_INNER_HTML()
// does not.
func MinifiedInnerHTML(d *HtmlDocument, id NodeID, maxDepth int) (string, error) {
	s, err := InnerHTML(d, id, maxDepth)
	if err != nil {
		return "", err
	}
	return minifyHTML(s), nil
}

func writeNodeDepth(d *HtmlDocument, b *strings.Builder, id NodeID, depth, maxDepth int) {
	n, err := d.Node(id)
	if err != nil {
		return
	}
	if n.IsText {
		b.WriteString(escapeText(n.Text))
		return
	}
	include := maxDepth < 0 || depth <= maxDepth
	if include {
		writeOpenTag(b, n)
	}
	if voidElements[n.Tag] {
		return
	}
	for _, c := range d.Children(id) {
		writeNodeDepth(d, b, c, depth+1, maxDepth)
	}
	if include {
		b.WriteString("</")
		b.WriteString(n.Tag)
		b.WriteByte('>')
	}
}

func writeOpenTag(b *strings.Builder, n *Node) {
	b.WriteByte('<')
	b.WriteString(n.Tag)
	keys := make([]string, 0, len(n.Attributes))
	for k := range n.Attributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(b, ` %s="%s"`, k, escapeAttr(n.Attributes[k]))
	}
	b.WriteByte('>')
}

func escapeText(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	return r.Replace(s)
}

func escapeAttr(s string) string {
	r := strings.NewReplacer("&", "&amp;", "\"", "&quot;")
	return r.Replace(s)
}

// minifyHTML collapses whitespace runs in a serialized HTML fragment,
// leaving tags, attribute values, and the contents of raw-text elements
// (script/style/textarea/pre/code) untouched. It scans the already
// serialized string rather than the node tree so that depth truncation
// and minification compose without re-deriving tag adjacency from
// scratch for every possible truncation shape.
func minifyHTML(html string) string {
	var b strings.Builder
	b.Grow(len(html))
	prevWasTag := false
	i, n := 0, len(html)
	for i < n {
		if html[i] == '<' {
			end := findTagEnd(html, i)
			tag := html[i : end+1]
			b.WriteString(tag)
			prevWasTag = true
			name, closing := parseTagName(tag)
			if !closing && rawTextElements[name] {
				closeStart := findMatchingClose(html, end+1, name)
				if closeStart == -1 {
					b.WriteString(html[end+1:])
					return b.String()
				}
				b.WriteString(html[end+1 : closeStart])
				i = closeStart
				continue
			}
			i = end + 1
			continue
		}
		j := i
		for j < n && html[j] != '<' {
			j++
		}
		if appendCompactedText(&b, html[i:j], prevWasTag, j < n) {
			prevWasTag = false
		}
		i = j
	}
	return b.String()
}

// appendCompactedText writes text with internal whitespace runs
// collapsed to a single space, reports whether it wrote anything.
// adjacentLeftTag/adjacentRightTag say whether a tag was just emitted
// before this run, and whether a tag immediately follows it: an
// all-whitespace run tag-adjacent on either side disappears entirely,
// and a leading/trailing collapsed space survives only when the source
// text itself started/ended with whitespace.
func appendCompactedText(b *strings.Builder, text string, adjacentLeftTag, adjacentRightTag bool) bool {
	if strings.TrimSpace(text) == "" {
		if text == "" || adjacentLeftTag || adjacentRightTag {
			return false
		}
		b.WriteByte(' ')
		return true
	}

	leadWS := isHTMLSpace(text[0])
	trailWS := isHTMLSpace(text[len(text)-1])

	var out strings.Builder
	lastWasSpace := false
	for i := 0; i < len(text); i++ {
		c := text[i]
		if isHTMLSpace(c) {
			if !lastWasSpace {
				out.WriteByte(' ')
			}
			lastWasSpace = true
			continue
		}
		lastWasSpace = false
		out.WriteByte(c)
	}
	compact := out.String()
	if !leadWS {
		compact = strings.TrimPrefix(compact, " ")
	}
	if !trailWS {
		compact = strings.TrimSuffix(compact, " ")
	}
	if compact == " " && adjacentLeftTag && adjacentRightTag {
		return false
	}
	b.WriteString(compact)
	return compact != ""
}

func isHTMLSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isNameChar(c byte) bool {
	return c == '-' || c == '_' || (c >= '0' && c <= '9') ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// findTagEnd returns the index of the '>' that closes the tag starting
// at start, skipping over '>' inside quoted attribute values.
func findTagEnd(s string, start int) int {
	var quote byte
	for i := start; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '"', '\'':
			quote = c
		case '>':
			return i
		}
	}
	return len(s) - 1
}

// parseTagName reads the element name out of a "<tag ...>" or
// "</tag>" slice (including its angle brackets).
func parseTagName(tag string) (name string, closing bool) {
	inner := strings.TrimSuffix(strings.TrimPrefix(tag, "<"), ">")
	inner = strings.TrimSuffix(inner, "/")
	if strings.HasPrefix(inner, "/") {
		closing = true
		inner = inner[1:]
	}
	i := 0
	for i < len(inner) && isNameChar(inner[i]) {
		i++
	}
	return strings.ToLower(inner[:i]), closing
}

// findMatchingClose returns the start index of the first "</name>"
// tag at or after from, or -1 if none exists.
func findMatchingClose(html string, from int, name string) int {
	i := from
	for i < len(html) {
		idx := strings.Index(html[i:], "</")
		if idx == -1 {
			return -1
		}
		pos := i + idx
		end := findTagEnd(html, pos)
		tagName, closing := parseTagName(html[pos : end+1])
		if closing && tagName == name {
			return pos
		}
		i = end + 1
	}
	return -1
}
