package search

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
	"golang.org/x/text/unicode/norm"

	"github.com/cineza/cineza-server/internal/domain"
)

// Query describes a catalog search.
type Query struct {
	Text   string
	Kind   domain.MediaKind // empty means both kinds
	Genre  string           // genre slug filter
	Limit  int
	Offset int
}

// Result holds matching entry ids in rank order.
type Result struct {
	IDs    []string
	Total  uint64
	TookMs int64
}

// NormalizeText composes s to NFC and collapses whitespace, so "Amélie"
// and "Amélie" produce the same terms.
func NormalizeText(s string) string {
	return strings.Join(strings.Fields(norm.NFC.String(s)), " ")
}

// Search runs q. An empty text lists everything ordered like the store:
// rated entries by mean rating, then newest.
func (c *CatalogIndex) Search(ctx context.Context, q Query) (*Result, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}

	req := bleve.NewSearchRequestOptions(buildQuery(q), limit, max(q.Offset, 0), false)
	if NormalizeText(q.Text) == "" {
		req.SortBy([]string{"-rated", "-mean_rating", "-created_at"})
	} else {
		req.SortBy([]string{"-_score", "-created_at"})
	}

	res, err := c.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	out := &Result{
		IDs:    make([]string, 0, len(res.Hits)),
		Total:  res.Total,
		TookMs: res.Took.Milliseconds(),
	}
	for _, hit := range res.Hits {
		out.IDs = append(out.IDs, hit.ID)
	}
	return out, nil
}

func buildQuery(q Query) query.Query {
	var clauses []query.Query

	if text := NormalizeText(q.Text); text != "" {
		title := bleve.NewMatchQuery(text)
		title.SetField("title")
		title.SetBoost(3.0)

		director := bleve.NewMatchQuery(text)
		director.SetField("director")
		director.SetBoost(1.5)

		genreMatch := bleve.NewMatchQuery(text)
		genreMatch.SetField("genre")

		fuzzy := bleve.NewFuzzyQuery(strings.ToLower(text))
		fuzzy.SetField("title_raw")
		fuzzy.SetFuzziness(1)
		fuzzy.SetBoost(0.8)

		textual := []query.Query{title, director, genreMatch, fuzzy}
		if utf8.RuneCountInString(text) >= 2 {
			prefix := bleve.NewPrefixQuery(strings.ToLower(text))
			prefix.SetField("title_raw")
			prefix.SetBoost(0.5)
			textual = append(textual, prefix)
		}
		clauses = append(clauses, bleve.NewDisjunctionQuery(textual...))
	}

	if q.Kind != "" {
		kind := bleve.NewTermQuery(string(q.Kind))
		kind.SetField("kind")
		clauses = append(clauses, kind)
	}

	if q.Genre != "" {
		g := bleve.NewTermQuery(q.Genre)
		g.SetField("genre_slugs")
		clauses = append(clauses, g)
	}

	switch len(clauses) {
	case 0:
		return bleve.NewMatchAllQuery()
	case 1:
		return clauses[0]
	default:
		return bleve.NewConjunctionQuery(clauses...)
	}
}
