// Package corpus holds the training corpus model: literature articles and
// the EMG-to-composite clinical pairs distilled from them.  Both the
// extraction pipeline and the trainer operate on these types.
package corpus

import "time"

// ArticleSource identifies where an article entered the corpus from.
type ArticleSource string

const (
	SourceCurated  ArticleSource = "curated"
	SourcePubMed   ArticleSource = "pubmed"
	SourceManual   ArticleSource = "manual"
	SourceExternal ArticleSource = "external"
)

// Article is one literature item in the training corpus.
type Article struct {
	ID        string        `json:"id"`
	Title     string        `json:"title"`
	Authors   string        `json:"authors,omitempty"`
	Journal   string        `json:"journal,omitempty"`
	Year      int           `json:"year,omitempty"`
	Text      string        `json:"text"`
	URL       string        `json:"url,omitempty"`
	DOI       string        `json:"doi,omitempty"`
	Keywords  []string      `json:"keywords,omitempty"`
	Source    ArticleSource `json:"source"`
	FetchedAt time.Time     `json:"fetched_at,omitempty"`
}
