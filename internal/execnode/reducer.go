package execnode

import (
	"sort"
	"strings"

	"github.com/darhnoel/markql-sub000/internal/ast"
	"github.com/darhnoel/markql-sub000/internal/evalcore"
	"github.com/darhnoel/markql-sub000/internal/htmldoc"
	"github.com/darhnoel/markql-sub000/internal/result"
)

// AggregateOp reduces a candidate node set to its result rows. This is
// the same one-method-interface shape as the teacher's Reducer
// (Reduce([]Result) (Result, error)), generalized from "combine
// probability results" to "fold a node set into aggregate rows" —
// COUNT/SUMMARIZE/TFIDF each get their own implementation instead of
// the teacher's mean/max/min/best-path/threshold variants, none of
// which have a node-query analog.
type AggregateOp interface {
	Reduce(doc *htmldoc.HtmlDocument, nodes []htmldoc.NodeID) (*result.QueryResult, error)
}

// CountOp implements COUNT(tag|*) (spec §4.8): a single row with the
// candidate count.
type CountOp struct{}

func (CountOp) Reduce(doc *htmldoc.HtmlDocument, nodes []htmldoc.NodeID) (*result.QueryResult, error) {
	return &result.QueryResult{
		Columns: []string{"count"},
		Rows:    []result.Row{{"count": evalcore.NumberVal(float64(len(nodes)))}},
	}, nil
}

// SummarizeOp implements SUMMARIZE(tag|*) (spec §4.8): one row per
// distinct tag among the candidates, with its count, ordered by count
// descending then tag ascending.
type SummarizeOp struct{}

func (SummarizeOp) Reduce(doc *htmldoc.HtmlDocument, nodes []htmldoc.NodeID) (*result.QueryResult, error) {
	counts := map[string]int{}
	for _, id := range nodes {
		n, err := doc.Node(id)
		if err != nil {
			continue
		}
		counts[n.Tag]++
	}
	tags := make([]string, 0, len(counts))
	for t := range counts {
		tags = append(tags, t)
	}
	sort.Slice(tags, func(i, j int) bool {
		if counts[tags[i]] != counts[tags[j]] {
			return counts[tags[i]] > counts[tags[j]]
		}
		return tags[i] < tags[j]
	})
	rows := make([]result.Row, len(tags))
	for i, t := range tags {
		rows[i] = result.Row{"tag": evalcore.StringVal(t), "count": evalcore.NumberVal(float64(counts[t]))}
	}
	return &result.QueryResult{Columns: []string{"tag", "count"}, Rows: rows}, nil
}

// TfidfOp implements TFIDF(...) (spec §4.8): term frequency-inverse
// document frequency over each candidate node's flattened text,
// treating every candidate node as one "document" in the corpus.
type TfidfOp struct {
	Params *ast.TfidfParams
}

func (o TfidfOp) Reduce(doc *htmldoc.HtmlDocument, nodes []htmldoc.NodeID) (*result.QueryResult, error) {
	docTerms := make([]map[string]int, len(nodes))
	df := map[string]int{}
	for i, id := range nodes {
		text, err := htmldoc.FlattenText(doc, id, -1, " ")
		if err != nil {
			return nil, err
		}
		terms := tokenize(text, o.Params)
		counts := map[string]int{}
		seen := map[string]bool{}
		for _, t := range terms {
			counts[t]++
			if !seen[t] {
				df[t]++
				seen[t] = true
			}
		}
		docTerms[i] = counts
	}

	type scored struct {
		term  string
		score float64
	}
	n := float64(len(nodes))
	var allScores []scored
	totals := map[string]float64{}
	for _, counts := range docTerms {
		total := 0
		for _, c := range counts {
			total += c
		}
		if total == 0 {
			continue
		}
		for term, c := range counts {
			if o.Params.MinDF > 0 && df[term] < o.Params.MinDF {
				continue
			}
			if o.Params.MaxDF > 0 && df[term] > o.Params.MaxDF {
				continue
			}
			tf := float64(c) / float64(total)
			idf := 1.0
			if df[term] > 0 {
				idf = 1.0 + (n / float64(df[term]))
			}
			totals[term] += tf * idf
		}
	}
	for term, score := range totals {
		allScores = append(allScores, scored{term, score})
	}
	sort.Slice(allScores, func(i, j int) bool {
		if allScores[i].score != allScores[j].score {
			return allScores[i].score > allScores[j].score
		}
		return allScores[i].term < allScores[j].term
	})
	if o.Params.TopTerms > 0 && len(allScores) > o.Params.TopTerms {
		allScores = allScores[:o.Params.TopTerms]
	}

	rows := make([]result.Row, len(allScores))
	for i, s := range allScores {
		rows[i] = result.Row{"term": evalcore.StringVal(s.term), "score": evalcore.NumberVal(s.score)}
	}
	return &result.QueryResult{Columns: []string{"term", "score"}, Rows: rows}, nil
}

func tokenize(text string, params *ast.TfidfParams) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !('a' <= r && r <= 'z' || '0' <= r && r <= '9')
	})
	if params == nil || len(params.Stopwords) == 0 {
		return fields
	}
	out := fields[:0]
	for _, f := range fields {
		if _, stop := params.Stopwords[f]; !stop {
			out = append(out, f)
		}
	}
	return out
}
