package matching

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/dougty/levdist"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/desertthunder/sp2yt/internal/models"
	"github.com/desertthunder/sp2yt/internal/shared"
)

// containedScore is the similarity given when one normalized string contains the other.
const containedScore = 0.9

// unknownDurationScore is the duration score when either side has no duration.
const unknownDurationScore = 0.5

var (
	// Bracketed decorations such as "(Official Video)" or "[Remastered]".
	decorationRe = regexp.MustCompile(`\s*[\(\[][^\)\]]*[\)\]]`)
	// Trailing " - Remastered 2011" style suffixes.
	suffixRe = regexp.MustCompile(`\s+-\s+.*$`)
)

// Config tunes scoring and selection.
type Config struct {
	DurationTolerance int // seconds
	MinScore          float64
	TitleWeight       float64
	ArtistWeight      float64
	DurationWeight    float64
}

// DefaultConfig returns the built-in matching parameters.
func DefaultConfig() Config {
	return Config{
		DurationTolerance: 10,
		MinScore:          0.6,
		TitleWeight:       0.5,
		ArtistWeight:      0.3,
		DurationWeight:    0.2,
	}
}

// ConfigFrom converts the [shared.MatchingConfig] section of the application config.
func ConfigFrom(c shared.MatchingConfig) Config {
	return Config{
		DurationTolerance: c.DurationTolerance,
		MinScore:          c.MinScore,
		TitleWeight:       c.TitleWeight,
		ArtistWeight:      c.ArtistWeight,
		DurationWeight:    c.DurationWeight,
	}
}

// Result is the outcome of selecting among the candidates for one track.
type Result struct {
	Match    models.CandidateMatch
	Matched  bool
	Reason   string // set when Matched is false
	Rejected int    // candidates outside the duration tolerance
}

// Matcher scores candidates with a fixed [Config].
type Matcher struct {
	cfg Config
}

// New creates a Matcher. A zero weight sum falls back to [DefaultConfig] weights.
func New(cfg Config) *Matcher {
	if cfg.TitleWeight+cfg.ArtistWeight+cfg.DurationWeight <= 0 {
		d := DefaultConfig()
		cfg.TitleWeight, cfg.ArtistWeight, cfg.DurationWeight = d.TitleWeight, d.ArtistWeight, d.DurationWeight
	}
	if cfg.DurationTolerance < 0 {
		cfg.DurationTolerance = 0
	}
	return &Matcher{cfg: cfg}
}

// Config returns the parameters the Matcher was built with.
func (m *Matcher) Config() Config {
	return m.cfg
}

// Score returns the combined score of c for src, and false when c is rejected
// because its duration is outside the tolerance.
func (m *Matcher) Score(src models.TrackDescriptor, c models.CandidateMatch) (float64, bool) {
	durScore, ok := m.durationScore(src.DurationSeconds, c.DurationSeconds)
	if !ok {
		return 0, false
	}

	title := TitleScore(src.Title, c.Title)
	artist := ArtistScore(src, c)

	sum := m.cfg.TitleWeight + m.cfg.ArtistWeight + m.cfg.DurationWeight
	score := (m.cfg.TitleWeight*title + m.cfg.ArtistWeight*artist + m.cfg.DurationWeight*durScore) / sum
	return clamp(score), true
}

// Best selects the highest scoring candidate that clears the threshold.
//
// Candidates are visited in the order given. The returned match carries its score.
func (m *Matcher) Best(src models.TrackDescriptor, candidates []models.CandidateMatch) Result {
	if len(candidates) == 0 {
		return Result{Reason: "no search results"}
	}

	var (
		res       Result
		bestScore = -1.0
		found     bool
	)
	for _, c := range candidates {
		score, ok := m.Score(src, c)
		if !ok {
			res.Rejected++
			continue
		}
		if score > bestScore {
			bestScore = score
			c.Score = score
			res.Match = c
			found = true
		}
	}

	switch {
	case !found:
		res.Reason = fmt.Sprintf("all %d candidates outside duration tolerance of %ds", len(candidates), m.cfg.DurationTolerance)
		res.Match = models.CandidateMatch{}
	case bestScore < m.cfg.MinScore:
		res.Reason = fmt.Sprintf("best candidate %q scored %.2f, below threshold %.2f", res.Match.Title, bestScore, m.cfg.MinScore)
		res.Match = models.CandidateMatch{}
	default:
		res.Matched = true
	}
	return res
}

func (m *Matcher) durationScore(src, cand int) (float64, bool) {
	if src <= 0 || cand <= 0 {
		return unknownDurationScore, true
	}
	diff := src - cand
	if diff < 0 {
		diff = -diff
	}
	if diff > m.cfg.DurationTolerance {
		return 0, false
	}
	return 1 - float64(diff)/float64(m.cfg.DurationTolerance+1), true
}

// TitleScore compares two titles, also trying them with bracketed and dashed
// decorations removed. Only identical titles score 1; a match that needs the
// decorations removed scores at most containedScore.
func TitleScore(a, b string) float64 {
	score := Similarity(a, b)
	if score == 1 {
		return score
	}
	ca, cb := coreTitle(a), coreTitle(b)
	if ca == "" || cb == "" {
		return score
	}
	return max(score, min(Similarity(ca, cb), containedScore))
}

// ArtistScore is the best similarity between the source artists and the
// candidate's individual or joined artists.
func ArtistScore(src models.TrackDescriptor, c models.CandidateMatch) float64 {
	sources := []string{src.Artist}
	if len(src.Artists) > 1 {
		sources = append(sources, strings.Join(src.Artists, " "))
	}
	targets := append([]string{c.Artist}, c.Artists...)

	var best float64
	for _, s := range sources {
		for _, t := range targets {
			if v := Similarity(s, t); v > best {
				best = v
			}
		}
	}
	return best
}

// Similarity compares a and b after normalization.
//
// It is 1 only for equal strings, 0.9 when one contains the other, and
// otherwise one minus the edit distance relative to the longer string.
// An empty side scores 0.
func Similarity(a, b string) float64 {
	a, b = Normalize(a), Normalize(b)
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}

	maxLen := max(len([]rune(a)), len([]rune(b)))
	score := clamp(1 - float64(levdist.Measure(a, b))/float64(maxLen))
	if strings.Contains(a, b) || strings.Contains(b, a) {
		score = max(score, containedScore)
	}
	return score
}

// Normalize folds s for comparison: accents removed, lower case, punctuation
// dropped, whitespace collapsed.
func Normalize(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}

	folded = strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			return unicode.ToLower(r)
		case unicode.IsSpace(r):
			return ' '
		}
		return -1
	}, folded)
	return strings.Join(strings.Fields(folded), " ")
}

func coreTitle(s string) string {
	s = decorationRe.ReplaceAllString(s, "")
	s = suffixRe.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

func clamp(v float64) float64 {
	return min(max(v, 0), 1)
}
