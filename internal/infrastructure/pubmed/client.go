// Package pubmed harvests literature through the NCBI E-utilities API.  The
// harvester searches for EMG and composite keywords, fetches abstracts, and
// turns them into corpus articles for the extraction pipeline.
package pubmed

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/turtacn/DentEMG-Intelligence/internal/config"
	"github.com/turtacn/DentEMG-Intelligence/internal/domain/corpus"
	"github.com/turtacn/DentEMG-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/DentEMG-Intelligence/pkg/errors"
)

const (
	defaultBaseURL    = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"
	defaultQuery      = "(electromyography OR EMG) AND dental composite AND (masseter OR temporalis)"
	defaultMaxResults = 20
	// NCBI allows 3 requests per second without an API key.
	defaultRateLimit = 350 * time.Millisecond
)

// httpDoer matches http.Client for mocking in tests.
type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to the E-utilities esearch and efetch endpoints.
type Client struct {
	baseURL    string
	query      string
	maxResults int
	rateLimit  time.Duration
	httpClient httpDoer
	logger     logging.Logger
	lastCall   time.Time
}

// NewClient builds a harvester from configuration, filling defaults for any
// zero field.
func NewClient(cfg config.PubMedConfig, log logging.Logger) *Client {
	if log == nil {
		log = logging.NewNopLogger()
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	query := cfg.Query
	if query == "" {
		query = defaultQuery
	}
	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	rateLimit := time.Duration(cfg.RateLimitMS) * time.Millisecond
	if rateLimit <= 0 {
		rateLimit = defaultRateLimit
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		query:      query,
		maxResults: maxResults,
		rateLimit:  rateLimit,
		httpClient: &http.Client{Timeout: timeout},
		logger:     log.Named("pubmed"),
	}
}

// Harvest searches with the configured query and fetches the matching
// abstracts.  Not safe for concurrent use; the worker owns one client.
func (c *Client) Harvest(ctx context.Context) ([]corpus.Article, error) {
	ids, err := c.Search(ctx, c.query, c.maxResults)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		c.logger.Info("PubMed search returned no results", logging.String("query", c.query))
		return nil, nil
	}
	return c.Fetch(ctx, ids)
}

type esearchResponse struct {
	ESearchResult struct {
		IDList []string `json:"idlist"`
	} `json:"esearchresult"`
}

// Search runs esearch and returns the matching PubMed IDs.
func (c *Client) Search(ctx context.Context, query string, maxResults int) ([]string, error) {
	params := url.Values{}
	params.Set("db", "pubmed")
	params.Set("term", query)
	params.Set("retmax", fmt.Sprintf("%d", maxResults))
	params.Set("retmode", "json")

	var result esearchResponse
	if err := c.getJSON(ctx, "/esearch.fcgi", params, &result); err != nil {
		return nil, err
	}
	c.logger.Debug("PubMed search completed",
		logging.String("query", query),
		logging.Int("results", len(result.ESearchResult.IDList)))
	return result.ESearchResult.IDList, nil
}

// efetch XML shapes, reduced to the fields the corpus needs.
type pubmedArticleSet struct {
	Articles []pubmedArticle `xml:"PubmedArticle"`
}

type pubmedArticle struct {
	Citation struct {
		PMID    string `xml:"PMID"`
		Article struct {
			Title    string `xml:"ArticleTitle"`
			Abstract struct {
				Texts []string `xml:"AbstractText"`
			} `xml:"Abstract"`
			Journal struct {
				Title string `xml:"Title"`
				Issue struct {
					PubDate struct {
						Year int `xml:"Year"`
					} `xml:"PubDate"`
				} `xml:"JournalIssue"`
			} `xml:"Journal"`
			Authors struct {
				Author []struct {
					LastName string `xml:"LastName"`
					Initials string `xml:"Initials"`
				} `xml:"Author"`
			} `xml:"AuthorList"`
		} `xml:"Article"`
		Keywords struct {
			Keyword []string `xml:"Keyword"`
		} `xml:"KeywordList"`
	} `xml:"MedlineCitation"`
}

// Fetch runs efetch for the given IDs and maps the XML into articles.
func (c *Client) Fetch(ctx context.Context, ids []string) ([]corpus.Article, error) {
	params := url.Values{}
	params.Set("db", "pubmed")
	params.Set("id", strings.Join(ids, ","))
	params.Set("retmode", "xml")

	body, err := c.get(ctx, "/efetch.fcgi", params)
	if err != nil {
		return nil, err
	}

	var set pubmedArticleSet
	if err := xml.Unmarshal(body, &set); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode efetch response")
	}

	articles := make([]corpus.Article, 0, len(set.Articles))
	fetchedAt := time.Now().UTC()
	for _, pa := range set.Articles {
		cit := pa.Citation
		text := strings.TrimSpace(strings.Join(cit.Article.Abstract.Texts, "\n"))
		if text == "" {
			// An article without an abstract gives the extractor nothing.
			continue
		}

		var authors []string
		for _, a := range cit.Article.Authors.Author {
			name := strings.TrimSpace(a.LastName + " " + a.Initials)
			if name != "" {
				authors = append(authors, name)
			}
		}

		articles = append(articles, corpus.Article{
			ID:        "pmid-" + cit.PMID,
			Title:     cit.Article.Title,
			Authors:   strings.Join(authors, ", "),
			Journal:   cit.Article.Journal.Title,
			Year:      cit.Article.Journal.Issue.PubDate.Year,
			Text:      text,
			URL:       "https://pubmed.ncbi.nlm.nih.gov/" + cit.PMID + "/",
			Keywords:  cit.Keywords.Keyword,
			Source:    corpus.SourcePubMed,
			FetchedAt: fetchedAt,
		})
	}

	c.logger.Info("Fetched PubMed articles",
		logging.Int("requested", len(ids)),
		logging.Int("with_abstract", len(articles)))
	return articles, nil
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values, dest interface{}) error {
	body, err := c.get(ctx, path, params)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode esearch response")
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	c.throttle(ctx)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to build request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeExternalService, "pubmed request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Newf(errors.ErrCodeExternalService,
			"pubmed returned status %d for %s", resp.StatusCode, path)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeExternalService, "failed to read pubmed response")
	}
	return body, nil
}

// throttle spaces calls out to respect the NCBI rate limit.
func (c *Client) throttle(ctx context.Context) {
	if c.lastCall.IsZero() {
		c.lastCall = time.Now()
		return
	}
	wait := c.rateLimit - time.Since(c.lastCall)
	if wait > 0 {
		select {
		case <-ctx.Done():
		case <-time.After(wait):
		}
	}
	c.lastCall = time.Now()
}
