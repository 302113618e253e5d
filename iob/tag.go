package iob

import (
	"slices"
	"strings"

	"github.com/pkg/errors"
)

// Tag prefixes and the outside tag.
const (
	Outside      = "O"
	BeginPrefix  = "B-"
	InsidePrefix = "I-"
)

// Scheme selects the boundary policy of the tagger.
type Scheme int

const (
	// SchemeLegacy promotes to B- only the first token of runs of two or more tokens: single-token
	// entities stay I-. It's the default, for compatibility with existing exported datasets.
	SchemeLegacy Scheme = iota

	// SchemeIOB2 is conventional IOB2: the first token of every run is B-, singletons included.
	SchemeIOB2
)

// String implements fmt.Stringer.
func (s Scheme) String() string {
	switch s {
	case SchemeLegacy:
		return "legacy"
	case SchemeIOB2:
		return "iob2"
	default:
		return "unknown"
	}
}

// ParseScheme parses "legacy" (or "") and "iob2".
func ParseScheme(s string) (Scheme, error) {
	switch strings.ToLower(s) {
	case "", "legacy":
		return SchemeLegacy, nil
	case "iob2":
		return SchemeIOB2, nil
	default:
		return SchemeLegacy, errors.Errorf("unknown tagging scheme %q, valid values are \"legacy\" and \"iob2\"", s)
	}
}

// Apply tags raw labels with the scheme.
func (s Scheme) Apply(raw []string) []string {
	if s == SchemeIOB2 {
		return TagIOB2(raw)
	}
	return Tag(raw)
}

// insideTags maps "" to O, and any other label to I-<LABEL>, uppercased.
func insideTags(raw []string) []string {
	tags := make([]string, len(raw))
	for i, label := range raw {
		if label == "" {
			tags[i] = Outside
		} else {
			tags[i] = InsidePrefix + strings.ToUpper(label)
		}
	}
	return tags
}

// runState of the left-to-right tagging pass.
type runState int

const (
	atRunStart runState = iota
	inRun
)

// Tag converts per-token raw labels into IOB tags: "" becomes O, and a label becomes I-<LABEL>.
// A run is a maximal sequence of consecutive tokens with the same tag: the first token of a run
// is promoted to B-<LABEL> only if the run continues into the next token.
//
// So single-token entities, and in particular an entity on the last token, keep their I- tag.
// Adjacent entities with the same label are indistinguishable from one longer entity, and tagged
// as a single run. See TagIOB2 for the conventional scheme.
func Tag(raw []string) []string {
	inside := insideTags(raw)
	tags := slices.Clone(inside)
	state := atRunStart
	for i := 0; i < len(inside)-1; i++ {
		continues := inside[i+1] == inside[i]
		if state == atRunStart && continues && inside[i] != Outside {
			tags[i] = BeginPrefix + inside[i][len(InsidePrefix):]
		}
		if continues {
			state = inRun
		} else {
			state = atRunStart
		}
	}
	return tags
}

// TagIOB2 is like Tag, but the first token of every run is tagged B-, including single-token runs.
func TagIOB2(raw []string) []string {
	inside := insideTags(raw)
	tags := slices.Clone(inside)
	for i, tag := range inside {
		if tag != Outside && (i == 0 || inside[i-1] != tag) {
			tags[i] = BeginPrefix + tag[len(InsidePrefix):]
		}
	}
	return tags
}
