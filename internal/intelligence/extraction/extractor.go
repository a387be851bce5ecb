// Package extraction mines clinical articles for EMG amplitudes and
// composite material mentions, and pairs them into training observations.
// It is a regex-and-dictionary pipeline: there is no model inference here,
// so a text that yields nothing is a normal outcome, not an error.
package extraction

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/turtacn/DentEMG-Intelligence/internal/domain/corpus"
	"github.com/turtacn/DentEMG-Intelligence/internal/domain/emg"
	"github.com/turtacn/DentEMG-Intelligence/internal/infrastructure/monitoring/logging"
)

// ---------------------------------------------------------------------------
// Core data structures
// ---------------------------------------------------------------------------

// Observation is a single EMG amplitude found in article text, together with
// the muscle / side / condition context the surrounding words establish.
// Any of the classification fields may be empty when the context is
// ambiguous; such observations are kept for inspection but never paired.
type Observation struct {
	Value     float64       `json:"value"`
	Std       float64       `json:"std"`
	Muscle    emg.Muscle    `json:"muscle,omitempty"`
	Side      emg.Side      `json:"side,omitempty"`
	Condition emg.Condition `json:"condition,omitempty"`
	Context   string        `json:"context"`
}

// Mention is a composite material name found in article text.
type Mention struct {
	Name     string `json:"name"`
	Context  string `json:"context"`
	Position int    `json:"position"`
}

// ---------------------------------------------------------------------------
// Configuration
// ---------------------------------------------------------------------------

// Config holds tuneable parameters for the extraction pipeline.
type Config struct {
	// ContextWindowSize caps the stored surrounding-text snippet, in runes.
	ContextWindowSize int `json:"context_window_size" yaml:"context_window_size"`
	// MaxTextLength truncates pathological inputs before matching.
	MaxTextLength int `json:"max_text_length" yaml:"max_text_length"`
	// KnownComposites whitelists brand names that pass the mention filter
	// regardless of word count.
	KnownComposites []string `json:"known_composites" yaml:"known_composites"`
}

// DefaultConfig returns production-ready defaults.  The composite list
// covers the brands the curated literature discusses.
func DefaultConfig() Config {
	return Config{
		ContextWindowSize: 200,
		MaxTextLength:     500000,
		KnownComposites: []string{
			"XF", "TBF", "FBP", "ADM", "Z3XT", "Z3F", "Filtek", "Tetric",
			"Charisma", "GrandioSO", "Venus", "Clearfil", "Estelite",
			"Herculite", "Spectrum", "Point", "Gradia", "Ceram-X",
		},
	}
}

// ---------------------------------------------------------------------------
// Metrics
// ---------------------------------------------------------------------------

// Metrics records operational telemetry for the pipeline.
type Metrics interface {
	RecordExtraction(ctx context.Context, pairCount int, durationMs float64)
}

type noopMetrics struct{}

func (noopMetrics) RecordExtraction(context.Context, int, float64) {}

// NoopMetrics returns a Metrics that discards everything.
func NoopMetrics() Metrics { return noopMetrics{} }

// ---------------------------------------------------------------------------
// Extractor
// ---------------------------------------------------------------------------

// Extractor runs the clinical pair extraction pipeline.  Safe for concurrent
// use; the compiled patterns are immutable after construction.
type Extractor struct {
	cfg     Config
	logger  logging.Logger
	metrics Metrics

	amplitudePatterns []*regexp.Regexp
	mentionPatterns   []*regexp.Regexp
	knownUpper        []string
}

// Amplitude patterns cover both the Russian and the English phrasing the
// corpus uses for surface EMG tables: muscle, side, condition, then
// "value ± std" with a microvolt unit.  The trailing two patterns catch
// unit-less table rows; their observations carry no side and are therefore
// never paired, but they still surface in EMGValues output.
var amplitudePatternSources = []string{
	`(?i)(?:жевательная|masseter).*?(?:правая|right).*?(?:жевание|chewing|акт жевания).*?(\d+\.?\d*)\s*±\s*(\d+\.?\d*)\s*(?:мкв|μv|microvolt)`,
	`(?i)(?:жевательная|masseter).*?(?:левая|left).*?(?:жевание|chewing|акт жевания).*?(\d+\.?\d*)\s*±\s*(\d+\.?\d*)\s*(?:мкв|μv|microvolt)`,
	`(?i)(?:височная|temporalis).*?(?:правая|right).*?(?:жевание|chewing|акт жевания).*?(\d+\.?\d*)\s*±\s*(\d+\.?\d*)\s*(?:мкв|μv|microvolt)`,
	`(?i)(?:височная|temporalis).*?(?:левая|left).*?(?:жевание|chewing|акт жевания).*?(\d+\.?\d*)\s*±\s*(\d+\.?\d*)\s*(?:мкв|μv|microvolt)`,
	`(?i)(?:жевательная|masseter).*?(?:правая|right).*?(?:максимальное|maximum|max|mvc).*?(\d+\.?\d*)\s*±\s*(\d+\.?\d*)\s*(?:мкв|μv|microvolt)`,
	`(?i)(?:жевательная|masseter).*?(?:левая|left).*?(?:максимальное|maximum|max|mvc).*?(\d+\.?\d*)\s*±\s*(\d+\.?\d*)\s*(?:мкв|μv|microvolt)`,
	`(?i)(?:височная|temporalis).*?(?:правая|right).*?(?:максимальное|maximum|max|mvc).*?(\d+\.?\d*)\s*±\s*(\d+\.?\d*)\s*(?:мкв|μv|microvolt)`,
	`(?i)(?:височная|temporalis).*?(?:левая|left).*?(?:максимальное|maximum|max|mvc).*?(\d+\.?\d*)\s*±\s*(\d+\.?\d*)\s*(?:мкв|μv|microvolt)`,
	`(?i)(?:при акте жевания|chewing).*?(?:жевательная|masseter).*?(\d+\.?\d*)\s*±\s*(\d+\.?\d*)`,
	`(?i)(?:при акте жевания|chewing).*?(?:височная|temporalis).*?(\d+\.?\d*)\s*±\s*(\d+\.?\d*)`,
}

var mentionPatternSources = []string{
	`(?i)([A-Z0-9]+(?:\s+[A-Z0-9]+)*).*?(?:композит|composite|материал|material)`,
	`(?i)(?:использован|применен|рекомендован|used|applied|recommended).*?([A-Z0-9]+(?:\s+[A-Z0-9]+)*)`,
	`(?i)([A-Z0-9]+).*?(?:для|при|for|with).*?(?:реставрация|restoration|жевательных|occlusal)`,
}

// NewExtractor constructs an extractor.  A nil logger or metrics falls back
// to inert implementations.
func NewExtractor(cfg Config, metrics Metrics, logger logging.Logger) *Extractor {
	if cfg.ContextWindowSize <= 0 {
		cfg.ContextWindowSize = DefaultConfig().ContextWindowSize
	}
	if cfg.MaxTextLength <= 0 {
		cfg.MaxTextLength = DefaultConfig().MaxTextLength
	}
	if len(cfg.KnownComposites) == 0 {
		cfg.KnownComposites = DefaultConfig().KnownComposites
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if metrics == nil {
		metrics = noopMetrics{}
	}

	e := &Extractor{
		cfg:     cfg,
		logger:  logger.Named("extraction"),
		metrics: metrics,
	}
	for _, src := range amplitudePatternSources {
		e.amplitudePatterns = append(e.amplitudePatterns, regexp.MustCompile(src))
	}
	for _, src := range mentionPatternSources {
		e.mentionPatterns = append(e.mentionPatterns, regexp.MustCompile(src))
	}
	for _, name := range cfg.KnownComposites {
		e.knownUpper = append(e.knownUpper, strings.ToUpper(name))
	}
	return e
}

// ---------------------------------------------------------------------------
// EMGValues
// ---------------------------------------------------------------------------

// EMGValues extracts every EMG amplitude mention from text.
func (e *Extractor) EMGValues(text string) []Observation {
	text = truncateRunes(text, e.cfg.MaxTextLength)
	var out []Observation

	for _, re := range e.amplitudePatterns {
		for _, groups := range re.FindAllStringSubmatch(text, -1) {
			value, err := strconv.ParseFloat(groups[1], 64)
			if err != nil {
				continue
			}
			std := 0.0
			if len(groups) > 2 {
				std, _ = strconv.ParseFloat(groups[2], 64)
			}

			matched := groups[0]
			muscle, side, condition := classifyContext(strings.ToLower(matched))

			out = append(out, Observation{
				Value:     value,
				Std:       std,
				Muscle:    muscle,
				Side:      side,
				Condition: condition,
				Context:   truncateRunes(matched, e.cfg.ContextWindowSize),
			})
		}
	}
	return out
}

// classifyContext determines muscle, side, and condition from the matched
// snippet.  Chewing wins over MVC when both markers appear: the chewing
// patterns embed "акт жевания" which also contains no MVC marker, whereas
// a genuine MVC row never mentions chewing.
func classifyContext(lower string) (emg.Muscle, emg.Side, emg.Condition) {
	var muscle emg.Muscle
	var side emg.Side
	var condition emg.Condition

	if strings.Contains(lower, "masseter") || strings.Contains(lower, "жевательная") {
		muscle = emg.MuscleMasseter
	} else if strings.Contains(lower, "temporalis") || strings.Contains(lower, "височная") {
		muscle = emg.MuscleTemporalis
	}

	if strings.Contains(lower, "right") || strings.Contains(lower, "правая") {
		side = emg.SideRight
	} else if strings.Contains(lower, "left") || strings.Contains(lower, "левая") {
		side = emg.SideLeft
	}

	if strings.Contains(lower, "chewing") || strings.Contains(lower, "жевание") || strings.Contains(lower, "акт жевания") {
		condition = emg.ConditionChewing
	} else if strings.Contains(lower, "max") || strings.Contains(lower, "максимальное") || strings.Contains(lower, "mvc") {
		condition = emg.ConditionMVC
	}

	return muscle, side, condition
}

// ---------------------------------------------------------------------------
// CompositeMentions
// ---------------------------------------------------------------------------

// CompositeMentions extracts composite material names from text.  A mention
// passes the filter when it contains a known brand token (and is short), or
// when it is at most three words long.
func (e *Extractor) CompositeMentions(text string) []Mention {
	text = truncateRunes(text, e.cfg.MaxTextLength)
	var out []Mention

	for _, re := range e.mentionPatterns {
		for _, idx := range re.FindAllStringSubmatchIndex(text, -1) {
			// idx[2]:idx[3] is the first capture group.
			if idx[2] < 0 {
				continue
			}
			name := strings.TrimSpace(text[idx[2]:idx[3]])
			if name == "" {
				continue
			}
			if !e.plausibleMention(name) {
				continue
			}
			out = append(out, Mention{
				Name:     name,
				Context:  truncateRunes(text[idx[0]:idx[1]], e.cfg.ContextWindowSize),
				Position: idx[0],
			})
		}
	}
	return out
}

func (e *Extractor) plausibleMention(name string) bool {
	if utf8.RuneCountInString(name) <= 30 {
		upper := strings.ToUpper(name)
		for _, known := range e.knownUpper {
			if strings.Contains(upper, known) {
				return true
			}
		}
	}
	return len(strings.Fields(name)) <= 3
}

// ---------------------------------------------------------------------------
// ExtractPairs
// ---------------------------------------------------------------------------

// ExtractPairs mines one article for EMG-to-composite pairs.  When the text
// names both amplitudes and composites, every composite mention becomes a
// pair carrying the classified channels.  When it names amplitudes only, one
// unlabeled control pair preserves the reference values.  An article that
// yields nothing produces an empty slice; misses are logged at debug and are
// never an error.
func (e *Extractor) ExtractPairs(ctx context.Context, article corpus.Article) []corpus.ClinicalPair {
	start := time.Now()

	observations := e.EMGValues(article.Text)
	mentions := e.CompositeMentions(article.Text)

	var base corpus.ClinicalPair
	channelsSet := 0
	for _, obs := range observations {
		if obs.Muscle == "" || obs.Side == "" || obs.Condition == "" {
			continue
		}
		base.SetChannel(obs.Muscle, obs.Side, obs.Condition, obs.Value)
		channelsSet++
	}

	base.SourceArticle = article.Title
	base.SourceURL = article.URL
	if article.Year != 0 {
		base.SourceYear = corpus.Int(article.Year)
	}

	var pairs []corpus.ClinicalPair
	switch {
	case len(observations) > 0 && len(mentions) > 0:
		for _, mention := range mentions {
			pair := base
			pair.CompositeName = mention.Name
			pairs = append(pairs, pair)
		}
	case len(observations) > 0 && channelsSet > 0:
		pairs = append(pairs, base)
	}

	elapsed := float64(time.Since(start).Milliseconds())
	e.metrics.RecordExtraction(ctx, len(pairs), elapsed)

	if len(pairs) == 0 {
		e.logger.Debug("no clinical pairs extracted",
			logging.String("article", article.Title),
			logging.Int("observations", len(observations)),
			logging.Int("mentions", len(mentions)),
		)
	} else {
		e.logger.Debug("clinical pairs extracted",
			logging.String("article", article.Title),
			logging.Int("pairs", len(pairs)),
			logging.Int("channels", channelsSet),
		)
	}
	return pairs
}

// ExtractAll runs ExtractPairs across a corpus of articles.
func (e *Extractor) ExtractAll(ctx context.Context, articles []corpus.Article) []corpus.ClinicalPair {
	var all []corpus.ClinicalPair
	for _, article := range articles {
		all = append(all, e.ExtractPairs(ctx, article)...)
	}
	return all
}

// truncateRunes caps s at n runes without splitting a multi-byte sequence.
func truncateRunes(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
