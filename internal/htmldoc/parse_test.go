package htmldoc

import "testing"

func TestParseHTML_BasicTree(t *testing.T) {
	doc := ParseHTML(`<div id="a"><p>hello</p><p>world</p></div>`, "test://doc")

	var div *Node
	for i := range doc.Nodes {
		if doc.Nodes[i].Tag == "div" {
			div = &doc.Nodes[i]
		}
	}
	if div == nil {
		t.Fatal("expected a div node")
	}
	if div.Attributes["id"] != "a" {
		t.Errorf("expected id=a, got %q", div.Attributes["id"])
	}

	kids := doc.Children(div.ID)
	if len(kids) != 2 {
		t.Fatalf("expected 2 children of div, got %d", len(kids))
	}
	for i, k := range kids {
		n, err := doc.Node(k)
		if err != nil {
			t.Fatalf("Node(%v): %v", k, err)
		}
		if n.Tag != "p" {
			t.Errorf("expected p, got %s", n.Tag)
		}
		if n.SiblingPos != i {
			t.Errorf("expected sibling pos %d, got %d", i, n.SiblingPos)
		}
	}
}

func TestParseHTML_VoidElementHasNoChildren(t *testing.T) {
	doc := ParseHTML(`<div><img src="x.png"><span>after</span></div>`, "")
	var img *Node
	for i := range doc.Nodes {
		if doc.Nodes[i].Tag == "img" {
			img = &doc.Nodes[i]
		}
	}
	if img == nil {
		t.Fatal("expected an img node")
	}
	if len(doc.Children(img.ID)) != 0 {
		t.Errorf("void element must have no children")
	}
}

func TestParseHTML_RawTextNotTokenized(t *testing.T) {
	doc := ParseHTML(`<script>if (a < b) { x(); }</script>`, "")
	var script *Node
	for i := range doc.Nodes {
		if doc.Nodes[i].Tag == "script" {
			script = &doc.Nodes[i]
		}
	}
	if script == nil {
		t.Fatal("expected a script node")
	}
	kids := doc.Children(script.ID)
	if len(kids) != 1 {
		t.Fatalf("expected exactly one raw text child, got %d", len(kids))
	}
	txt, _ := doc.Node(kids[0])
	if txt.Text != "if (a < b) { x(); }" {
		t.Errorf("unexpected raw text: %q", txt.Text)
	}
}

func TestParseHTML_UnclosedTagRecovers(t *testing.T) {
	doc := ParseHTML(`<ul><li>one<li>two</ul>`, "")
	var lis []NodeID
	for i := range doc.Nodes {
		if doc.Nodes[i].Tag == "li" {
			lis = append(lis, doc.Nodes[i].ID)
		}
	}
	if len(lis) != 2 {
		t.Fatalf("expected 2 li nodes from unclosed markup, got %d", len(lis))
	}
}

func TestNodeIDEqualsDocOrder(t *testing.T) {
	doc := ParseHTML(`<div><p>a</p><span>b</span></div>`, "")
	for i, n := range doc.Nodes {
		if int(n.ID) != i || n.DocOrder != i {
			t.Errorf("node %d: expected ID==DocOrder==index, got ID=%d DocOrder=%d", i, n.ID, n.DocOrder)
		}
	}
}

func TestDecodeEntities(t *testing.T) {
	cases := map[string]string{
		"a &amp; b":     "a & b",
		"&lt;tag&gt;":   "<tag>",
		"caf&#233;":     "café",
		"&#x2014;dash":  "—dash",
		"plain text":    "plain text",
	}
	for in, want := range cases {
		if got := decodeEntities(in); got != want {
			t.Errorf("decodeEntities(%q) = %q, want %q", in, got, want)
		}
	}
}
