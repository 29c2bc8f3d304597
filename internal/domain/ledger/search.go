package ledger

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/FACorreiaa/echo-ledger/pkg/money"
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/simple"
	"github.com/blevesearch/bleve/v2/mapping"
)

// SearchDocument is the indexed form of a canonical row
type SearchDocument struct {
	ID          string `json:"id"`
	RowKey      string `json:"row_key"`
	Account     string `json:"account"`
	Date        string `json:"date"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Amount      string `json:"amount"`
}

// SearchHit is a search result with its relevance score
type SearchHit struct {
	Document SearchDocument `json:"document"`
	Score    float64        `json:"score"`
}

// SearchIndex provides full-text search over ledger descriptions using Bleve.
type SearchIndex struct {
	index   bleve.Index
	indexMu sync.RWMutex
}

// NewSearchIndex creates a new search index.
// If path is empty, creates an in-memory index.
// If path is provided, creates/opens a persistent index.
func NewSearchIndex(path string) (*SearchIndex, error) {
	var (
		index bleve.Index
		err   error
	)

	if path == "" {
		index, err = bleve.NewMemOnly(buildIndexMapping())
	} else if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
		if mkdirErr := os.MkdirAll(filepath.Dir(path), 0o755); mkdirErr != nil {
			return nil, fmt.Errorf("failed to create index directory: %w", mkdirErr)
		}
		index, err = bleve.New(path, buildIndexMapping())
	} else {
		index, err = bleve.Open(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create/open index: %w", err)
	}

	return &SearchIndex{index: index}, nil
}

func buildIndexMapping() mapping.IndexMapping {
	textFieldMapping := bleve.NewTextFieldMapping()
	textFieldMapping.Analyzer = simple.Name

	keywordFieldMapping := bleve.NewTextFieldMapping()
	keywordFieldMapping.Analyzer = keyword.Name

	docMapping := bleve.NewDocumentMapping()
	docMapping.AddFieldMappingsAt("description", textFieldMapping)
	docMapping.AddFieldMappingsAt("row_key", keywordFieldMapping)
	docMapping.AddFieldMappingsAt("account", keywordFieldMapping)
	docMapping.AddFieldMappingsAt("date", keywordFieldMapping)
	docMapping.AddFieldMappingsAt("category", keywordFieldMapping)
	docMapping.AddFieldMappingsAt("amount", keywordFieldMapping)

	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultMapping = docMapping
	indexMapping.DefaultAnalyzer = simple.Name

	return indexMapping
}

// IndexRows adds or replaces the documents of rows in one batch.
func (si *SearchIndex) IndexRows(rows []CanonicalRow) error {
	si.indexMu.Lock()
	defer si.indexMu.Unlock()

	batch := si.index.NewBatch()
	for _, r := range rows {
		doc := SearchDocument{
			ID:          r.AccountLabel + "/" + r.RowKey,
			RowKey:      r.RowKey,
			Account:     r.AccountLabel,
			Date:        r.TransactionDate.Format(dateLayout),
			Description: r.Description,
			Category:    r.Category,
			Amount:      money.Format(r.Amount()),
		}
		if err := batch.Index(doc.ID, doc); err != nil {
			return fmt.Errorf("failed to index row %s: %w", doc.ID, err)
		}
	}

	if err := si.index.Batch(batch); err != nil {
		return fmt.Errorf("failed to execute batch index: %w", err)
	}
	return nil
}

// Search matches query against descriptions with one edit of typo tolerance.
func (si *SearchIndex) Search(query string, limit int) ([]SearchHit, error) {
	si.indexMu.RLock()
	defer si.indexMu.RUnlock()

	if limit <= 0 {
		limit = 10
	}

	matchQuery := bleve.NewMatchQuery(query)
	matchQuery.SetField("description")
	matchQuery.SetFuzziness(1)

	searchRequest := bleve.NewSearchRequest(matchQuery)
	searchRequest.Size = limit
	searchRequest.Fields = []string{"*"}

	searchResults, err := si.index.Search(searchRequest)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	hits := make([]SearchHit, 0, len(searchResults.Hits))
	for _, hit := range searchResults.Hits {
		doc := SearchDocument{ID: hit.ID}
		doc.RowKey, _ = hit.Fields["row_key"].(string)
		doc.Account, _ = hit.Fields["account"].(string)
		doc.Date, _ = hit.Fields["date"].(string)
		doc.Description, _ = hit.Fields["description"].(string)
		doc.Category, _ = hit.Fields["category"].(string)
		doc.Amount, _ = hit.Fields["amount"].(string)
		hits = append(hits, SearchHit{Document: doc, Score: hit.Score})
	}
	return hits, nil
}

// DocumentCount returns the number of documents in the index
func (si *SearchIndex) DocumentCount() (uint64, error) {
	si.indexMu.RLock()
	defer si.indexMu.RUnlock()

	return si.index.DocCount()
}

// Close closes the index
func (si *SearchIndex) Close() error {
	si.indexMu.Lock()
	defer si.indexMu.Unlock()

	if si.index != nil {
		return si.index.Close()
	}
	return nil
}
