package htmldoc

import "testing"

func TestBuildChildrenAndMaxDepth(t *testing.T) {
	b := NewBuilder("test://doc")
	root := b.AddRoot("#document")
	div, _ := b.AddElement(root, "div", map[string]string{})
	p, _ := b.AddElement(div, "p", map[string]string{})
	b.AddText(p, "leaf")
	doc := b.Finish()

	if len(doc.Children(root)) != 1 {
		t.Fatalf("expected root to have 1 child, got %d", len(doc.Children(root)))
	}
	rootNode, _ := doc.Node(root)
	if rootNode.MaxDepth != 3 {
		t.Errorf("expected root max depth 3 (div/p/text), got %d", rootNode.MaxDepth)
	}
}

func TestAncestorChainAndDescendantSubtree(t *testing.T) {
	doc := ParseHTML(`<div><section><p>x</p></section></div>`, "")
	var p, section, div NodeID
	for i := range doc.Nodes {
		switch doc.Nodes[i].Tag {
		case "p":
			p = doc.Nodes[i].ID
		case "section":
			section = doc.Nodes[i].ID
		case "div":
			div = doc.Nodes[i].ID
		}
	}

	chain, err := AncestorChain(doc, p)
	if err != nil {
		t.Fatalf("AncestorChain: %v", err)
	}
	if len(chain) < 2 || chain[0] != section || chain[1] != div {
		t.Errorf("unexpected ancestor chain: %v (section=%v div=%v)", chain, section, div)
	}

	desc, err := DescendantSubtree(doc, div)
	if err != nil {
		t.Fatalf("DescendantSubtree: %v", err)
	}
	found := false
	for _, id := range desc {
		if id == p {
			found = true
		}
	}
	if !found {
		t.Errorf("expected p node in div's descendant subtree")
	}

	isDesc, err := IsDescendant(doc, div, p)
	if err != nil {
		t.Fatalf("IsDescendant: %v", err)
	}
	if !isDesc {
		t.Errorf("expected p to be a descendant of div")
	}
	selfDesc, _ := IsDescendant(doc, div, div)
	if selfDesc {
		t.Errorf("a node is not its own descendant")
	}
}

func TestInnerHTMLRoundTrip(t *testing.T) {
	doc := ParseHTML(`<div><p class="x">hi &amp; bye</p></div>`, "")
	var div NodeID
	for i := range doc.Nodes {
		if doc.Nodes[i].Tag == "div" {
			div = doc.Nodes[i].ID
		}
	}
	html, err := InnerHTML(doc, div, UnlimitedDepth)
	if err != nil {
		t.Fatalf("InnerHTML: %v", err)
	}
	want := `<p class="x">hi &amp; bye</p>`
	if html != want {
		t.Errorf("InnerHTML = %q, want %q", html, want)
	}
}

func TestInnerHTMLDepthStripsNestedTagsKeepsText(t *testing.T) {
	doc := ParseHTML(`<div><section><p>a</p><p>b</p></section></div>`, "")
	var div NodeID
	for i := range doc.Nodes {
		if doc.Nodes[i].Tag == "div" {
			div = doc.Nodes[i].ID
		}
	}
	got, err := InnerHTML(doc, div, 1)
	if err != nil {
		t.Fatalf("InnerHTML: %v", err)
	}
	want := `<section>ab</section>`
	if got != want {
		t.Errorf("InnerHTML depth=1 = %q, want %q", got, want)
	}
}

func TestInnerHTMLDepthZeroStripsAllTags(t *testing.T) {
	doc := ParseHTML(`<div><section><p>a</p></section></div>`, "")
	var div NodeID
	for i := range doc.Nodes {
		if doc.Nodes[i].Tag == "div" {
			div = doc.Nodes[i].ID
		}
	}
	got, err := InnerHTML(doc, div, 0)
	if err != nil {
		t.Fatalf("InnerHTML: %v", err)
	}
	if got != "a" {
		t.Errorf("InnerHTML depth=0 = %q, want %q", got, "a")
	}
}

func TestMinifiedInnerHTMLCollapsesWhitespace(t *testing.T) {
	doc := ParseHTML(`<div id="r"><span>   hi   there  </span></div>`, "")
	var div NodeID
	for i := range doc.Nodes {
		if doc.Nodes[i].Tag == "div" {
			div = doc.Nodes[i].ID
		}
	}
	minified, err := MinifiedInnerHTML(doc, div, UnlimitedDepth)
	if err != nil {
		t.Fatalf("MinifiedInnerHTML: %v", err)
	}
	if want := "<span> hi there </span>"; minified != want {
		t.Errorf("MinifiedInnerHTML = %q, want %q", minified, want)
	}

	raw, err := InnerHTML(doc, div, UnlimitedDepth)
	if err != nil {
		t.Fatalf("InnerHTML: %v", err)
	}
	if want := "<span>   hi   there  </span>"; raw != want {
		t.Errorf("InnerHTML = %q, want %q", raw, want)
	}
}

func TestMinifiedInnerHTMLPreservesRawTextElements(t *testing.T) {
	doc := ParseHTML(`<div><pre>  keep   as  is  </pre></div>`, "")
	var div NodeID
	for i := range doc.Nodes {
		if doc.Nodes[i].Tag == "div" {
			div = doc.Nodes[i].ID
		}
	}
	got, err := MinifiedInnerHTML(doc, div, UnlimitedDepth)
	if err != nil {
		t.Fatalf("MinifiedInnerHTML: %v", err)
	}
	if want := "<pre>  keep   as  is  </pre>"; got != want {
		t.Errorf("MinifiedInnerHTML = %q, want %q", got, want)
	}
}

func TestFlattenTextRespectsDepth(t *testing.T) {
	doc := ParseHTML(`<div><p>a</p><section><span>b</span></section></div>`, "")
	var div NodeID
	for i := range doc.Nodes {
		if doc.Nodes[i].Tag == "div" {
			div = doc.Nodes[i].ID
		}
	}
	shallow, err := FlattenText(doc, div, 1, " ")
	if err != nil {
		t.Fatalf("FlattenText: %v", err)
	}
	if shallow != "a" {
		t.Errorf("expected only depth-1 text, got %q", shallow)
	}
	deep, err := FlattenText(doc, div, -1, " ")
	if err != nil {
		t.Fatalf("FlattenText: %v", err)
	}
	if deep != "a b" {
		t.Errorf("expected full subtree text, got %q", deep)
	}
}

func TestParseFragmentsEnforcesLimits(t *testing.T) {
	_, err := ParseFragments(make([]string, MaxFragmentCount+1), "")
	if err == nil {
		t.Fatal("expected TooManyFragments error")
	}
}

func TestParseFragmentsSplicesDocOrder(t *testing.T) {
	doc, err := ParseFragments([]string{"<p>one</p>", "<p>two</p>"}, "test://frags")
	if err != nil {
		t.Fatalf("ParseFragments: %v", err)
	}
	for i, n := range doc.Nodes {
		if int(n.ID) != i || n.DocOrder != i {
			t.Errorf("node %d: ID/DocOrder not renumbered (ID=%d DocOrder=%d)", i, n.ID, n.DocOrder)
		}
	}
}
