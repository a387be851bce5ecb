// Package knowledge distills qualitative guidance from the article corpus:
// which composites the literature recommends, reference EMG amplitudes,
// clinical selection criteria, and per-material technical measurements.
// Like the pair extractor it is a best-effort regex pipeline; empty yields
// are normal.
package knowledge

import (
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/turtacn/DentEMG-Intelligence/internal/domain/corpus"
	"github.com/turtacn/DentEMG-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/DentEMG-Intelligence/pkg/errors"
)

// ---------------------------------------------------------------------------
// Knowledge records
// ---------------------------------------------------------------------------

// CompositeRecommendation is a literature endorsement of a material.
type CompositeRecommendation struct {
	Composite string `json:"composite"`
	Context   string `json:"context"`
	Source    string `json:"source"`
}

// EMGGuideline is a reference amplitude mentioned in the literature.
type EMGGuideline struct {
	Value   float64 `json:"value"`
	Std     float64 `json:"std"`
	Context string  `json:"context"`
	Source  string  `json:"source"`
}

// ClinicalCriterion is a selection rule stated in prose.
type ClinicalCriterion struct {
	Criterion string `json:"criterion"`
	Value     string `json:"value,omitempty"`
	Source    string `json:"source"`
}

// TechnicalSpec is a measured material property.
type TechnicalSpec struct {
	Composite string  `json:"composite"`
	Property  string  `json:"property"`
	Value     float64 `json:"value"`
	Source    string  `json:"source"`
}

// Knowledge is everything distilled from one article.
type Knowledge struct {
	ArticleTitle             string                    `json:"article_title"`
	CompositeRecommendations []CompositeRecommendation `json:"composite_recommendations"`
	EMGGuidelines            []EMGGuideline            `json:"emg_guidelines"`
	ClinicalCriteria         []ClinicalCriterion       `json:"clinical_criteria"`
	TechnicalSpecs           []TechnicalSpec           `json:"technical_specs"`
}

// Base is the aggregated knowledge base across the whole corpus.
type Base struct {
	ArticlesCount            int                       `json:"articles_count"`
	KnowledgeCount           int                       `json:"knowledge_count"`
	CompositeRecommendations []CompositeRecommendation `json:"composite_recommendations"`
	EMGGuidelines            []EMGGuideline            `json:"emg_guidelines"`
	ClinicalCriteria         []ClinicalCriterion       `json:"clinical_criteria"`
	TechnicalSpecs           []TechnicalSpec           `json:"technical_specs"`
}

// ---------------------------------------------------------------------------
// Patterns
// ---------------------------------------------------------------------------

var recommendationPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:рекомендуется|рекомендуют|предпочтительно|подходит|оптимален).*?(?:композит|материал|composite|material)[\s\w,]*?([A-Z0-9]+(?:\s+[A-Z0-9]+)*)`),
	regexp.MustCompile(`(?i)([A-Z0-9]+(?:\s+[A-Z0-9]+)*).*?(?:для|при).*?(?:жевательных|окклюзионных|occlusal|molar)`),
	regexp.MustCompile(`(?i)(?:high viscosity|высоковязкий).*?([A-Z0-9]+)`),
	regexp.MustCompile(`(?i)([A-Z0-9]+).*?(?:микротвердость|microhardness).*?(\d+\.?\d*)\s*(?:KHN|кнн)`),
}

var guidelinePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:жевательная|masseter).*?(?:мкв|μv|microvolt).*?(\d+\.?\d*)\s*±\s*(\d+\.?\d*)`),
	regexp.MustCompile(`(?i)(?:височная|temporalis).*?(?:мкв|μv|microvolt).*?(\d+\.?\d*)\s*±\s*(\d+\.?\d*)`),
	regexp.MustCompile(`(?i)эмг.*?(?:норма|контроль|control).*?(\d+\.?\d*)\s*±\s*(\d+\.?\d*)`),
	regexp.MustCompile(`(?i)(?:при акте жевания|chewing).*?(\d+\.?\d*)\s*±\s*(\d+\.?\d*)\s*(?:мкв|μv)`),
}

var criteriaPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:для|при).*?(?:жевательных|окклюзионных).*?(?:микротвердость|microhardness).*?(\d+\.?\d*)\s*(?:KHN|кнн|минимум|minimum)`),
	regexp.MustCompile(`(?i)(?:усадка|shrinkage).*?(\d+\.?\d*)\s*%`),
	regexp.MustCompile(`(?i)(?:наполнитель|filler).*?(\d+\.?\d*)\s*%`),
	regexp.MustCompile(`(?i)(?:износостойкость|wear resistance).*?(?:высокая|high|средняя|medium|низкая|low)`),
}

var specPatterns = []struct {
	re       *regexp.Regexp
	property string
}{
	{regexp.MustCompile(`(?i)([A-Z0-9]+).*?(?:микротвердость|microhardness).*?(\d+\.?\d*)\s*(?:KHN|кнн)`), "microhardness"},
	{regexp.MustCompile(`(?i)([A-Z0-9]+).*?(?:усадка|shrinkage).*?(\d+\.?\d*)\s*%`), "shrinkage"},
	{regexp.MustCompile(`(?i)([A-Z0-9]+).*?(?:наполнитель|filler).*?(\d+\.?\d*)\s*%`), "filler"},
}

const (
	contextLimit      = 200
	criterionLimit    = 100
	maxCompositeRunes = 10
)

// ---------------------------------------------------------------------------
// Extractor
// ---------------------------------------------------------------------------

// Extractor accumulates an append-only article corpus and the knowledge
// distilled from it.  Safe for concurrent use.
type Extractor struct {
	mu        sync.RWMutex
	articles  []corpus.Article
	knowledge []Knowledge
	logger    logging.Logger
}

// NewExtractor constructs an empty extractor.
func NewExtractor(logger logging.Logger) *Extractor {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Extractor{logger: logger.Named("knowledge")}
}

// AddArticle appends an article to the corpus without processing it.
func (e *Extractor) AddArticle(article corpus.Article) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.articles = append(e.articles, article)
}

// ProcessArticle appends the article and distills its knowledge.
func (e *Extractor) ProcessArticle(article corpus.Article) Knowledge {
	k := ExtractFromText(article.Text, article.Title)

	e.mu.Lock()
	e.articles = append(e.articles, article)
	e.knowledge = append(e.knowledge, k)
	e.mu.Unlock()

	e.logger.Debug("article processed",
		logging.String("title", article.Title),
		logging.Int("recommendations", len(k.CompositeRecommendations)),
		logging.Int("guidelines", len(k.EMGGuidelines)),
	)
	return k
}

// ArticleCount returns the corpus size.
func (e *Extractor) ArticleCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.articles)
}

// Base aggregates everything distilled so far.
func (e *Extractor) Base() Base {
	e.mu.RLock()
	defer e.mu.RUnlock()

	base := Base{
		ArticlesCount:            len(e.articles),
		KnowledgeCount:           len(e.knowledge),
		CompositeRecommendations: []CompositeRecommendation{},
		EMGGuidelines:            []EMGGuideline{},
		ClinicalCriteria:         []ClinicalCriterion{},
		TechnicalSpecs:           []TechnicalSpec{},
	}
	for _, k := range e.knowledge {
		base.CompositeRecommendations = append(base.CompositeRecommendations, k.CompositeRecommendations...)
		base.EMGGuidelines = append(base.EMGGuidelines, k.EMGGuidelines...)
		base.ClinicalCriteria = append(base.ClinicalCriteria, k.ClinicalCriteria...)
		base.TechnicalSpecs = append(base.TechnicalSpecs, k.TechnicalSpecs...)
	}
	return base
}

// SaveBase writes the aggregated knowledge base as JSON.
func (e *Extractor) SaveBase(path string) error {
	base := e.Base()
	if base.ArticlesCount == 0 {
		return errors.Newf(errors.ErrCodeKnowledgeEmptyCorpus, "knowledge base has no articles to save")
	}
	data, err := json.MarshalIndent(base, "", "  ")
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "marshal knowledge base")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "create knowledge base directory")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "write knowledge base")
	}
	return nil
}

// LoadBase reads a previously saved knowledge base.
func LoadBase(path string) (Base, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Base{}, errors.Wrap(err, errors.ErrCodeNotFound, "read knowledge base")
	}
	var base Base
	if err := json.Unmarshal(data, &base); err != nil {
		return Base{}, errors.Wrap(err, errors.ErrCodeSerialization, "decode knowledge base")
	}
	return base, nil
}

// ---------------------------------------------------------------------------
// Text distillation
// ---------------------------------------------------------------------------

// ExtractFromText distills knowledge from one article text.  Pure function;
// safe to call without an Extractor.
func ExtractFromText(text, articleTitle string) Knowledge {
	k := Knowledge{
		ArticleTitle:             articleTitle,
		CompositeRecommendations: []CompositeRecommendation{},
		EMGGuidelines:            []EMGGuideline{},
		ClinicalCriteria:         []ClinicalCriterion{},
		TechnicalSpecs:           []TechnicalSpec{},
	}

	for _, re := range recommendationPatterns {
		for _, groups := range re.FindAllStringSubmatch(text, -1) {
			name := strings.TrimSpace(groups[1])
			if name == "" || utf8.RuneCountInString(name) > maxCompositeRunes {
				continue
			}
			k.CompositeRecommendations = append(k.CompositeRecommendations, CompositeRecommendation{
				Composite: name,
				Context:   clip(groups[0], contextLimit),
				Source:    articleTitle,
			})
		}
	}

	for _, re := range guidelinePatterns {
		for _, groups := range re.FindAllStringSubmatch(text, -1) {
			value, err := strconv.ParseFloat(groups[1], 64)
			if err != nil {
				continue
			}
			std := 0.0
			if len(groups) > 2 {
				std, _ = strconv.ParseFloat(groups[2], 64)
			}
			k.EMGGuidelines = append(k.EMGGuidelines, EMGGuideline{
				Value:   value,
				Std:     std,
				Context: clip(groups[0], contextLimit),
				Source:  articleTitle,
			})
		}
	}

	for _, re := range criteriaPatterns {
		for _, groups := range re.FindAllStringSubmatch(text, -1) {
			value := ""
			if len(groups) > 1 {
				value = groups[1]
			}
			k.ClinicalCriteria = append(k.ClinicalCriteria, ClinicalCriterion{
				Criterion: clip(groups[0], criterionLimit),
				Value:     value,
				Source:    articleTitle,
			})
		}
	}

	for _, sp := range specPatterns {
		for _, groups := range sp.re.FindAllStringSubmatch(text, -1) {
			value, err := strconv.ParseFloat(groups[2], 64)
			if err != nil {
				continue
			}
			k.TechnicalSpecs = append(k.TechnicalSpecs, TechnicalSpec{
				Composite: strings.TrimSpace(groups[1]),
				Property:  sp.property,
				Value:     value,
				Source:    articleTitle,
			})
		}
	}

	return k
}

func clip(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
