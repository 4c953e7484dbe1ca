package htmldoc

// Limits enforced against FRAGMENTS()/PARSE() sources (spec §4.6,
// §4.7): a single caller-supplied or subquery-derived collection of
// HTML snippets must not blow up memory before it ever reaches the
// node table.
const (
	MaxFragmentBytes  = 2_000_000
	MaxFragmentCount  = 5_000
	MaxTotalFragBytes = 20_000_000
)

// ParseFragments parses each of frags as an independent document,
// then splices every resulting node table into one HtmlDocument with
// NodeIDs renumbered globally and parented under a synthetic root per
// fragment (spec §4.7's "FRAGMENTS()/derived source flattening").
func ParseFragments(frags []string, sourceURI string) (*HtmlDocument, error) {
	if len(frags) > MaxFragmentCount {
		return nil, TooManyFragments(len(frags), MaxFragmentCount)
	}
	total := 0
	for _, f := range frags {
		if len(f) > MaxFragmentBytes {
			return nil, FragmentTooLarge(len(f), MaxFragmentBytes)
		}
		total += len(f)
	}
	if total > MaxTotalFragBytes {
		return nil, FragmentBytesExceeded(total, MaxTotalFragBytes)
	}

	out := &HtmlDocument{SourceURI: sourceURI}
	root := Node{ID: 0, Tag: "#document", Attributes: map[string]string{}}
	out.Nodes = append(out.Nodes, root)

	for _, f := range frags {
		sub := ParseHTML(f, sourceURI)
		offset := NodeID(len(out.Nodes))
		for _, n := range sub.Nodes {
			remapped := n
			remapped.ID = n.ID + offset
			if n.ID == 0 {
				remapped.ParentID = 0
				remapped.HasParent = true
			} else {
				remapped.ParentID = n.ParentID + offset
				remapped.HasParent = true
			}
			remapped.DocOrder = int(remapped.ID)
			out.Nodes = append(out.Nodes, remapped)
		}
	}
	out.BuildChildren()
	computeMaxDepth(out)
	return out, nil
}
