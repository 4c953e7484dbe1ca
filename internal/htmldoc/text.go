package htmldoc

import "strings"

// DirectText concatenates id's immediate text-node children only,
// excluding any text nested inside child elements (spec §4.8's
// DIRECT_TEXT / HAS_DIRECT_TEXT).
func DirectText(d *HtmlDocument, id NodeID) (string, error) {
	n, err := d.Node(id)
	if err != nil {
		return "", err
	}
	var parts []string
	for _, c := range d.Children(n.ID) {
		cn, err := d.Node(c)
		if err != nil {
			continue
		}
		if cn.IsText {
			parts = append(parts, cn.Text)
		}
	}
	return strings.Join(parts, ""), nil
}

// HasDirectText reports whether id has any non-blank immediate text
// child. The HAS_DIRECT_TEXT compare op in internal/evalcore does not
// call it.
func HasDirectText(d *HtmlDocument, id NodeID) (bool, error) {
	t, err := DirectText(d, id)
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(t) != "", nil
}

// FlattenText concatenates all text in id's subtree in document
// order, down to maxDepth element levels (id's child elements are
// level 1; a text node is kept when its parent element is within
// maxDepth; maxDepth < 0 means unlimited), joined with sep (spec §4.8
// FLATTEN_TEXT).
func FlattenText(d *HtmlDocument, id NodeID, maxDepth int, sep string) (string, error) {
	n, err := d.Node(id)
	if err != nil {
		return "", err
	}
	var parts []string
	var walk func(nid NodeID, depth int)
	walk = func(nid NodeID, depth int) {
		cn, err := d.Node(nid)
		if err != nil {
			return
		}
		if cn.IsText {
			if t := strings.TrimSpace(cn.Text); t != "" {
				parts = append(parts, t)
			}
			return
		}
		if maxDepth >= 0 && depth > maxDepth {
			return
		}
		for _, c := range d.Children(nid) {
			walk(c, depth+1)
		}
	}
	for _, c := range d.Children(n.ID) {
		walk(c, 1)
	}
	return strings.Join(parts, sep), nil
}
