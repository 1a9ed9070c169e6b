package search

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/simple"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"
)

// buildIndexMapping returns the catalog mapping: stemmed text for title,
// description and genre, a simple analyzer for director names, keywords for
// filters and numerics for sorting.
func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = en.AnalyzerName

	doc := bleve.NewDocumentMapping()

	title := bleve.NewTextFieldMapping()
	title.Analyzer = en.AnalyzerName
	title.Store = true
	title.IncludeTermVectors = true
	doc.AddFieldMappingsAt("title", title)

	// Unstemmed copy for prefix and fuzzy matching.
	titleRaw := bleve.NewTextFieldMapping()
	titleRaw.Analyzer = simple.Name
	titleRaw.Name = "title_raw"
	doc.AddFieldMappingsAt("title", titleRaw)

	description := bleve.NewTextFieldMapping()
	description.Analyzer = en.AnalyzerName
	description.Store = false
	doc.AddFieldMappingsAt("description", description)

	director := bleve.NewTextFieldMapping()
	director.Analyzer = simple.Name
	director.Store = true
	doc.AddFieldMappingsAt("director", director)

	genreText := bleve.NewTextFieldMapping()
	genreText.Analyzer = en.AnalyzerName
	genreText.Store = true
	doc.AddFieldMappingsAt("genre", genreText)

	for _, field := range []string{"id", "kind", "genre_slugs"} {
		kw := bleve.NewTextFieldMapping()
		kw.Analyzer = keyword.Name
		kw.Store = field != "genre_slugs"
		doc.AddFieldMappingsAt(field, kw)
	}

	for _, field := range []string{"year", "mean_rating", "created_at"} {
		num := bleve.NewNumericFieldMapping()
		num.Store = true
		doc.AddFieldMappingsAt(field, num)
	}

	rated := bleve.NewBooleanFieldMapping()
	rated.Store = true
	doc.AddFieldMappingsAt("rated", rated)

	indexMapping.AddDocumentMapping("_default", doc)
	return indexMapping
}
