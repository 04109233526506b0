package unfilled

import (
	"sort"

	"github.com/radworks/reportassist/internal/domain/entities"
)

// ApplyEdits produces a new report string with every edit's original text
// replaced by its new value. Edits are applied in descending position
// order so earlier replacements never invalidate the offsets of edits
// still pending. An edit whose recorded span no longer matches the text is
// skipped and reported as a conflict; the remaining edits are unaffected.
//
// Instruction edits carry a remove/keep resolution instead of free text:
// remove deletes the marker and any immediately trailing blank line, keep
// leaves the text untouched but still counts as applied.
func ApplyEdits(original string, edits []entities.UnfilledEdit) entities.PatchResult {
	result := entities.PatchResult{NewText: original, Skipped: []entities.UnfilledEdit{}}
	if len(edits) == 0 {
		return result
	}

	ordered := dedupeByItem(edits)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Position > ordered[j].Position
	})

	text := original
	for _, edit := range ordered {
		start := edit.Position
		end := start + len(edit.OriginalText)
		if start < 0 || end > len(text) || text[start:end] != edit.OriginalText {
			result.Skipped = append(result.Skipped, edit)
			continue
		}

		switch {
		case edit.Type == entities.UnfilledTypeInstruction && edit.Resolution == entities.InstructionKeep:
			// Marker stays in place.
		case edit.Type == entities.UnfilledTypeInstruction:
			text = removeSpan(text, start, end)
		default:
			text = text[:start] + edit.NewValue + text[end:]
		}
		result.AppliedCount++
	}

	result.NewText = text
	return result
}

// dedupeByItem keeps the last edit recorded per item id, preserving the
// relative order of the survivors. One edit per item, last write wins.
func dedupeByItem(edits []entities.UnfilledEdit) []entities.UnfilledEdit {
	last := make(map[string]int, len(edits))
	for i, e := range edits {
		if e.ItemID == "" {
			continue
		}
		last[e.ItemID] = i
	}
	out := make([]entities.UnfilledEdit, 0, len(edits))
	for i, e := range edits {
		if e.ItemID != "" && last[e.ItemID] != i {
			continue
		}
		out = append(out, e)
	}
	return out
}

// removeSpan deletes text[start:end] along with an immediately trailing
// blank line left behind by the removal.
func removeSpan(text string, start, end int) string {
	trail := end
	for trail < len(text) && (text[trail] == ' ' || text[trail] == '\t') {
		trail++
	}
	// The marker sat on its own line: consume the newline so no empty
	// line remains.
	atLineStart := start == 0 || text[start-1] == '\n'
	if atLineStart && trail < len(text) && text[trail] == '\n' {
		trail++
	} else {
		trail = end
	}
	return text[:start] + text[trail:]
}
