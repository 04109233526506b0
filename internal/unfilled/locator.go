package unfilled

import (
	"regexp"
	"sort"
	"strings"

	"github.com/radworks/reportassist/internal/domain/entities"
)

var (
	measurementRe = regexp.MustCompile(`_{2,}|\[ \]`)
	variableRe    = regexp.MustCompile(`\{\{\s*([A-Za-z0-9][A-Za-z0-9_. -]*?)\s*\}\}`)
	instructionRe = regexp.MustCompile(`(?i)\[(?:REVIEW|TODO|CHECK|VERIFY|CLARIFY):[^\[\]]*\]`)
	bracketRe     = regexp.MustCompile(`\[[^\[\]]+\]`)
	headingRe     = regexp.MustCompile(`(?mi)^[ \t]*(CLINICAL (?:HISTORY|INDICATION)|INDICATION|TECHNIQUE|COMPARISON|FINDINGS|IMPRESSION|RECOMMENDATIONS?|CONCLUSION):?[ \t]*\r?$`)
)

// ScanResult partitions every located item into the type buckets, each
// internally ordered by ascending index.
type ScanResult struct {
	Measurements  []entities.UnfilledItem `json:"measurements"`
	Variables     []entities.UnfilledItem `json:"variables"`
	Alternatives  []entities.UnfilledItem `json:"alternatives"`
	Instructions  []entities.UnfilledItem `json:"instructions"`
	BlankSections []entities.UnfilledItem `json:"blank_sections"`
}

// All returns every located item merged into one index-sorted list
func (r *ScanResult) All() []entities.UnfilledItem {
	merged := make([]entities.UnfilledItem, 0,
		len(r.Measurements)+len(r.Variables)+len(r.Alternatives)+len(r.Instructions)+len(r.BlankSections))
	merged = append(merged, r.Measurements...)
	merged = append(merged, r.Variables...)
	merged = append(merged, r.Alternatives...)
	merged = append(merged, r.Instructions...)
	merged = append(merged, r.BlankSections...)
	sort.SliceStable(merged, func(i, j int) bool { return merged[i].Index < merged[j].Index })
	return merged
}

// Count returns the total number of located items
func (r *ScanResult) Count() int {
	return len(r.Measurements) + len(r.Variables) + len(r.Alternatives) +
		len(r.Instructions) + len(r.BlankSections)
}

// Scan locates every placeholder and structural gap in the given report
// text. It is a pure function of its input: scanning the same text twice
// yields identical ordered item lists. Offsets are valid only against the
// exact snapshot that was scanned.
func Scan(reportText string) *ScanResult {
	result := &ScanResult{}
	if reportText == "" {
		return result
	}

	instructionSpans := scanInstructions(reportText, result)
	scanMeasurements(reportText, result)
	scanVariables(reportText, result)
	scanAlternatives(reportText, instructionSpans, result)
	scanBlankSections(reportText, result)

	return result
}

type span struct{ start, end int }

func (s span) overlaps(start, end int) bool {
	return start < s.end && end > s.start
}

func scanInstructions(text string, result *ScanResult) []span {
	matches := instructionRe.FindAllStringIndex(text, -1)
	spans := make([]span, 0, len(matches))
	for ordinal, m := range matches {
		raw := text[m[0]:m[1]]
		result.Instructions = append(result.Instructions, entities.UnfilledItem{
			ID:                 entities.ItemID(entities.UnfilledTypeInstruction, raw, ordinal),
			Type:               entities.UnfilledTypeInstruction,
			Text:               raw,
			Index:              m[0],
			SurroundingContext: surroundingContext(text, m[0], len(raw)),
		})
		spans = append(spans, span{m[0], m[1]})
	}
	return spans
}

func scanMeasurements(text string, result *ScanResult) {
	matches := measurementRe.FindAllStringIndex(text, -1)
	for ordinal, m := range matches {
		raw := text[m[0]:m[1]]
		result.Measurements = append(result.Measurements, entities.UnfilledItem{
			ID:                 entities.ItemID(entities.UnfilledTypeMeasurement, raw, ordinal),
			Type:               entities.UnfilledTypeMeasurement,
			Text:               raw,
			Index:              m[0],
			SurroundingContext: surroundingContext(text, m[0], len(raw)),
			Unit:               extractUnit(text, m[1]),
		})
	}
}

func scanVariables(text string, result *ScanResult) {
	matches := variableRe.FindAllStringSubmatchIndex(text, -1)
	for ordinal, m := range matches {
		raw := text[m[0]:m[1]]
		result.Variables = append(result.Variables, entities.UnfilledItem{
			ID:                 entities.ItemID(entities.UnfilledTypeVariable, raw, ordinal),
			Type:               entities.UnfilledTypeVariable,
			Text:               raw,
			Index:              m[0],
			SurroundingContext: surroundingContext(text, m[0], len(raw)),
			Name:               text[m[2]:m[3]],
		})
	}
}

func scanAlternatives(text string, instructionSpans []span, result *ScanResult) {
	matches := bracketRe.FindAllStringIndex(text, -1)
	ordinal := 0
	for _, m := range matches {
		if overlapsAny(instructionSpans, m[0], m[1]) {
			continue
		}
		raw := text[m[0]:m[1]]
		inner := raw[1 : len(raw)-1]
		if !strings.Contains(inner, "/") {
			continue
		}
		options := parseAlternatives(inner)
		if options == nil {
			continue
		}
		result.Alternatives = append(result.Alternatives, entities.UnfilledItem{
			ID:                 entities.ItemID(entities.UnfilledTypeAlternative, raw, ordinal),
			Type:               entities.UnfilledTypeAlternative,
			Text:               raw,
			Index:              m[0],
			SurroundingContext: surroundingContext(text, m[0], len(raw)),
			Options:            options,
		})
		ordinal++
	}
}

// scanBlankSections flags a known section heading followed, after only
// whitespace, by the next heading or end of document. That shape means the
// upstream generator never addressed the section.
func scanBlankSections(text string, result *ScanResult) {
	matches := headingRe.FindAllStringIndex(text, -1)
	for i, m := range matches {
		bodyStart := m[1]
		bodyEnd := len(text)
		if i+1 < len(matches) {
			bodyEnd = matches[i+1][0]
		}
		if strings.TrimSpace(text[bodyStart:bodyEnd]) != "" {
			continue
		}
		raw := strings.TrimRight(text[m[0]:m[1]], "\r")
		result.BlankSections = append(result.BlankSections, entities.UnfilledItem{
			ID:                 entities.ItemID(entities.UnfilledTypeBlankSection, raw, len(result.BlankSections)),
			Type:               entities.UnfilledTypeBlankSection,
			Text:               raw,
			Index:              m[0],
			SurroundingContext: surroundingContext(text, m[0], len(raw)),
		})
	}
}

func overlapsAny(spans []span, start, end int) bool {
	for _, s := range spans {
		if s.overlaps(start, end) {
			return true
		}
	}
	return false
}
