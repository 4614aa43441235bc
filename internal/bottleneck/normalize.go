package bottleneck

import (
	"log/slog"
	"slices"
	"sort"
	"strings"
	"unicode"

	"rigcheck/internal/models"

	"github.com/sahilm/fuzzy"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// DefaultMatchThreshold is the minimum bigram similarity for a fuzzy match
const DefaultMatchThreshold = 0.72

const maxSuggestions = 3

// noiseTokens never distinguish two catalog entries of the same kind
var noiseTokens = map[string]bool{
	"intel": true, "amd": true, "nvidia": true, "geforce": true, "radeon": true,
	"core": true, "ryzen": true, "processor": true, "cpu": true, "gpu": true,
	"graphics": true, "card": true, "video": true, "desktop": true,
	"r": true, "tm": true, "memory": true, "ram": true, "kit": true, "mhz": true,
}

var symbolReplacer = strings.NewReplacer("™", " ", "®", " ", "©", " ")

// Normalizer maps free text onto canonical catalog entries
type Normalizer struct {
	catalog   *Catalog
	threshold float64
	logger    *slog.Logger
}

// NormalizerOption configures a Normalizer
type NormalizerOption func(*Normalizer)

// WithMatchThreshold sets the minimum similarity in (0,1]
func WithMatchThreshold(t float64) NormalizerOption {
	return func(n *Normalizer) {
		if t > 0 && t <= 1 {
			n.threshold = t
		}
	}
}

// WithLogger sets the logger used for tie warnings
func WithLogger(l *slog.Logger) NormalizerOption {
	return func(n *Normalizer) {
		if l != nil {
			n.logger = l
		}
	}
}

// NewNormalizer creates a normalizer over catalog
func NewNormalizer(catalog *Catalog, opts ...NormalizerOption) *Normalizer {
	n := &Normalizer{
		catalog:   catalog,
		threshold: DefaultMatchThreshold,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize resolves rawName against the entries of kind.
//
// Matching is case-insensitive and whitespace tolerant. An exact key or alias
// hit wins outright; otherwise the entry with the best bigram similarity is
// taken if it clears the threshold. Fuzzy matching only forgives the words:
// the model numbers must be identical, so "GTX 1080 Ti" never becomes a
// 1050 Ti. Equal best scores go to the entry listed first in the table, and
// the tie is logged.
func (n *Normalizer) Normalize(rawName string, kind models.ComponentKind) (models.CanonicalComponent, error) {
	key := componentKey(rawName)
	rows := n.catalog.byKind[kind]
	if key == "" || len(rows) == 0 {
		return models.CanonicalComponent{}, n.notFound(rawName, kind, key)
	}

	for _, r := range rows {
		if r.key == key {
			return n.catalog.Canonical(r.entry.ID), nil
		}
	}
	for _, r := range rows {
		for _, ak := range r.aliasKeys {
			if ak == key {
				return n.catalog.Canonical(r.entry.ID), nil
			}
		}
	}

	best := -1.0
	var tied []string
	for _, r := range rows {
		s := r.similarity(key)
		switch {
		case s > best:
			best = s
			tied = []string{r.entry.ID}
		case s == best:
			tied = append(tied, r.entry.ID)
		}
	}

	if best < n.threshold {
		return models.CanonicalComponent{}, n.notFound(rawName, kind, key)
	}
	if len(tied) > 1 {
		n.logger.Warn("ambiguous component match",
			"kind", kind,
			"input", rawName,
			"similarity", best,
			"candidates", tied,
			"chosen", tied[0])
	}
	return n.catalog.Canonical(tied[0]), nil
}

func (n *Normalizer) notFound(rawName string, kind models.ComponentKind, key string) *NotFoundError {
	return &NotFoundError{
		Kind:        kind,
		Input:       rawName,
		Suggestions: n.suggest(rawName, kind, key),
	}
}

// suggest ranks catalog names by fuzzy subsequence match, topping up with
// the closest names by bigram similarity.
func (n *Normalizer) suggest(rawName string, kind models.ComponentKind, key string) []string {
	rows := n.catalog.byKind[kind]
	names := make([]string, len(rows))
	for i, r := range rows {
		names[i] = r.entry.Name
	}

	out := make([]string, 0, maxSuggestions)
	seen := make(map[string]bool)
	if pattern := strings.TrimSpace(rawName); pattern != "" {
		for _, m := range fuzzy.Find(pattern, names) {
			if len(out) == maxSuggestions {
				return out
			}
			out = append(out, m.Str)
			seen[m.Str] = true
		}
	}
	if key == "" {
		return out
	}

	type scored struct {
		name  string
		score float64
	}
	ranked := make([]scored, 0, len(rows))
	for _, r := range rows {
		ranked = append(ranked, scored{name: r.entry.Name, score: r.closeness(key)})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })
	for _, r := range ranked {
		if len(out) == maxSuggestions || r.score < n.threshold/2 {
			break
		}
		if !seen[r.name] {
			out = append(out, r.name)
		}
	}
	return out
}

// similarity is the best bigram similarity of key against the entry's name
// and aliases, counting only those whose model numbers equal key's.
func (r indexedEntry) similarity(key string) float64 {
	nums := numberTokens(key)
	best := 0.0
	for _, k := range r.keys() {
		if !slices.Equal(numberTokens(k), nums) {
			continue
		}
		if s := dice(k, key); s > best {
			best = s
		}
	}
	return best
}

// closeness ignores model numbers; it only ranks suggestions.
func (r indexedEntry) closeness(key string) float64 {
	best := 0.0
	for _, k := range r.keys() {
		if s := dice(k, key); s > best {
			best = s
		}
	}
	return best
}

func (r indexedEntry) keys() []string {
	return append([]string{r.key}, r.aliasKeys...)
}

// numberTokens returns the digit runs of a component key in order.
// "rtx 4070 ti" gives [4070]; "16 gb ddr 4 3200" gives [16 4 3200].
func numberTokens(key string) []string {
	var nums []string
	for _, f := range strings.Fields(key) {
		if classify([]rune(f)[0]) == classDigit {
			nums = append(nums, f)
		}
	}
	return nums
}

type runeClass int

const (
	classOther runeClass = iota
	classLetter
	classDigit
)

func classify(r rune) runeClass {
	switch {
	case unicode.IsLetter(r):
		return classLetter
	case unicode.IsDigit(r):
		return classDigit
	}
	return classOther
}

// componentKey reduces a component name to a comparable form:
// NFKC, case folded, split on punctuation and on letter/digit boundaries,
// with vendor and unit noise removed. A clock suffix ("@ 3.60GHz") is cut.
// "Intel(R) Core(TM) i9-14900K" and "i9 14900k" both become "i 9 14900 k".
func componentKey(s string) string {
	if i := strings.IndexByte(s, '@'); i >= 0 {
		s = s[:i]
	}
	s = symbolReplacer.Replace(s)
	s = norm.NFKC.String(s)
	s = cases.Fold().String(s)
	s = strings.ReplaceAll(s, "mt/s", " ")

	var b strings.Builder
	prev := classOther
	for _, r := range s {
		cls := classify(r)
		if cls == classOther {
			b.WriteByte(' ')
		} else {
			if prev != classOther && prev != cls {
				b.WriteByte(' ')
			}
			b.WriteRune(r)
		}
		prev = cls
	}

	fields := strings.Fields(b.String())
	kept := fields[:0]
	for _, f := range fields {
		if !noiseTokens[f] {
			kept = append(kept, f)
		}
	}
	return strings.Join(kept, " ")
}

// dice is the Sørensen–Dice coefficient over character bigrams
func dice(a, b string) float64 {
	if a == b {
		return 1
	}
	ra, rb := []rune(a), []rune(b)
	if len(ra) < 2 || len(rb) < 2 {
		return 0
	}
	counts := make(map[[2]rune]int, len(ra))
	for i := 0; i < len(ra)-1; i++ {
		counts[[2]rune{ra[i], ra[i+1]}]++
	}
	matches := 0
	for i := 0; i < len(rb)-1; i++ {
		bg := [2]rune{rb[i], rb[i+1]}
		if counts[bg] > 0 {
			counts[bg]--
			matches++
		}
	}
	return 2 * float64(matches) / float64(len(ra)+len(rb)-2)
}
