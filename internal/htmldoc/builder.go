package htmldoc

// Builder accumulates nodes into an HtmlDocument in document order. It
// plays the role the teacher's ProbabilisticAdjacencyListGraph played
// for graph construction, adapted from "add nodes and probabilistic
// edges in any order, then query the adjacency maps" to "append nodes
// in preorder, then derive everything else from ParentID" — HTML parse
// order already gives us the node table for free, so there is no
// out/in adjacency map to maintain.
type Builder struct {
	doc *HtmlDocument
}

func NewBuilder(sourceURI string) *Builder {
	return &Builder{doc: &HtmlDocument{SourceURI: sourceURI}}
}

// AddRoot appends the synthetic document root (NodeID 0), parented to
// itself so HasParent/ParentID stay meaningful without an Option type.
func (b *Builder) AddRoot(tag string) NodeID {
	id := NodeID(len(b.doc.Nodes))
	b.doc.Nodes = append(b.doc.Nodes, Node{
		ID:         id,
		Tag:        tag,
		Attributes: map[string]string{},
		ParentID:   id,
		HasParent:  false,
		DocOrder:   int(id),
	})
	return id
}

// AddElement appends an element node as a child of parent and returns
// its NodeID. SiblingPos is assigned from the running count of the
// parent's already-added children.
func (b *Builder) AddElement(parent NodeID, tag string, attrs map[string]string) (NodeID, error) {
	if !b.ContainsNode(parent) {
		return 0, NodeDoesNotExist(parent)
	}
	id := NodeID(len(b.doc.Nodes))
	b.doc.Nodes = append(b.doc.Nodes, Node{
		ID:         id,
		Tag:        tag,
		Attributes: attrs,
		ParentID:   parent,
		HasParent:  true,
		DocOrder:   int(id),
		SiblingPos: b.nextSiblingPos(parent),
	})
	return id, nil
}

// AddText appends a text node as a child of parent.
func (b *Builder) AddText(parent NodeID, text string) (NodeID, error) {
	if !b.ContainsNode(parent) {
		return 0, NodeDoesNotExist(parent)
	}
	id := NodeID(len(b.doc.Nodes))
	b.doc.Nodes = append(b.doc.Nodes, Node{
		ID:         id,
		Tag:        "#text",
		Text:       text,
		IsText:     true,
		Attributes: map[string]string{},
		ParentID:   parent,
		HasParent:  true,
		DocOrder:   int(id),
		SiblingPos: b.nextSiblingPos(parent),
	})
	return id, nil
}

func (b *Builder) nextSiblingPos(parent NodeID) int {
	n := 0
	for i := range b.doc.Nodes {
		if b.doc.Nodes[i].HasParent && b.doc.Nodes[i].ParentID == parent {
			n++
		}
	}
	return n
}

func (b *Builder) ContainsNode(id NodeID) bool {
	return int(id) >= 0 && int(id) < len(b.doc.Nodes)
}

func (b *Builder) GetNodes() []*Node {
	out := make([]*Node, len(b.doc.Nodes))
	for i := range b.doc.Nodes {
		out[i] = &b.doc.Nodes[i]
	}
	return out
}

// Finish computes the children index and per-node MaxDepth, then
// returns the completed document. The builder must not be reused
// afterward.
func (b *Builder) Finish() *HtmlDocument {
	b.doc.BuildChildren()
	computeMaxDepth(b.doc)
	return b.doc
}

func computeMaxDepth(d *HtmlDocument) {
	var depth func(id NodeID) int
	depth = func(id NodeID) int {
		kids := d.Children(id)
		best := 0
		for _, k := range kids {
			if dk := depth(k) + 1; dk > best {
				best = dk
			}
		}
		n := &d.Nodes[id]
		n.MaxDepth = best
		return best
	}
	if len(d.Nodes) > 0 {
		depth(0)
	}
}
