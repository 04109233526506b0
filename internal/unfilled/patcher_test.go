package unfilled

import (
	"strings"
	"testing"

	"github.com/radworks/reportassist/internal/domain/entities"
)

func editFor(item entities.UnfilledItem, value string) entities.UnfilledEdit {
	return entities.UnfilledEdit{
		ItemID:       item.ID,
		Type:         item.Type,
		OriginalText: item.Text,
		NewValue:     value,
		Position:     item.Index,
	}
}

func TestApplyEdits_SingleEdit(t *testing.T) {
	text := "Nodule measures ___ mm in the right upper lobe."
	items := Scan(text)
	result := ApplyEdits(text, []entities.UnfilledEdit{editFor(items.Measurements[0], "8")})

	want := "Nodule measures 8 mm in the right upper lobe."
	if result.NewText != want {
		t.Errorf("got %q, want %q", result.NewText, want)
	}
	if result.AppliedCount != 1 || len(result.Skipped) != 0 {
		t.Errorf("applied=%d skipped=%d", result.AppliedCount, len(result.Skipped))
	}
}

func TestApplyEdits_OrderIndependent(t *testing.T) {
	text := "A [solid/cystic] lesion of ___ cm in the {{lobe}}."
	items := Scan(text).All()
	if len(items) != 3 {
		t.Fatalf("setup: expected 3 items, got %d", len(items))
	}

	edits := []entities.UnfilledEdit{
		editFor(items[0], "solid"),
		editFor(items[1], "2.5"),
		editFor(items[2], "left lower lobe"),
	}
	reversed := []entities.UnfilledEdit{edits[2], edits[1], edits[0]}

	forward := ApplyEdits(text, edits)
	backward := ApplyEdits(text, reversed)

	want := "A solid lesion of 2.5 cm in the left lower lobe."
	if forward.NewText != want {
		t.Errorf("forward: got %q, want %q", forward.NewText, want)
	}
	if forward.NewText != backward.NewText {
		t.Errorf("input order changed result: %q vs %q", forward.NewText, backward.NewText)
	}
	if forward.AppliedCount != 3 || backward.AppliedCount != 3 {
		t.Errorf("applied counts: %d, %d", forward.AppliedCount, backward.AppliedCount)
	}
}

func TestApplyEdits_ConflictSkippedOthersApplied(t *testing.T) {
	text := "Size ___ mm, margin [smooth/spiculated]."
	items := Scan(text)

	stale := editFor(items.Measurements[0], "4")
	stale.OriginalText = "____" // text shifted since the scan
	good := editFor(items.Alternatives[0], "smooth")

	result := ApplyEdits(text, []entities.UnfilledEdit{stale, good})

	if result.AppliedCount != 1 {
		t.Errorf("applied = %d, want 1", result.AppliedCount)
	}
	if len(result.Skipped) != 1 || result.Skipped[0].ItemID != stale.ItemID {
		t.Fatalf("skipped = %+v, want the stale edit", result.Skipped)
	}
	if !strings.Contains(result.NewText, "Size ___ mm") {
		t.Errorf("conflicting span was modified: %q", result.NewText)
	}
	if !strings.Contains(result.NewText, "margin smooth.") {
		t.Errorf("clean edit not applied: %q", result.NewText)
	}
}

func TestApplyEdits_UntouchedRegionsByteIdentical(t *testing.T) {
	text := "Prefix text. Value ___ mm. Suffix text."
	items := Scan(text)
	result := ApplyEdits(text, []entities.UnfilledEdit{editFor(items.Measurements[0], "12")})

	if !strings.HasPrefix(result.NewText, "Prefix text. Value ") {
		t.Errorf("prefix altered: %q", result.NewText)
	}
	if !strings.HasSuffix(result.NewText, " mm. Suffix text.") {
		t.Errorf("suffix altered: %q", result.NewText)
	}
}

func TestApplyEdits_LastWriteWinsPerItem(t *testing.T) {
	text := "Density is ___ HU."
	items := Scan(text)

	first := editFor(items.Measurements[0], "30")
	second := editFor(items.Measurements[0], "45")
	result := ApplyEdits(text, []entities.UnfilledEdit{first, second})

	if result.NewText != "Density is 45 HU." {
		t.Errorf("got %q, want last write to win", result.NewText)
	}
	if result.AppliedCount != 1 {
		t.Errorf("applied = %d, want 1", result.AppliedCount)
	}
}

func TestApplyEdits_InstructionRemove(t *testing.T) {
	text := "FINDINGS:\n[REVIEW: verify laterality]\nNo acute findings.\n"
	items := Scan(text)

	edit := editFor(items.Instructions[0], "")
	edit.Resolution = entities.InstructionRemove
	result := ApplyEdits(text, []entities.UnfilledEdit{edit})

	want := "FINDINGS:\nNo acute findings.\n"
	if result.NewText != want {
		t.Errorf("got %q, want marker and its line removed", result.NewText)
	}
}

func TestApplyEdits_InstructionKeep(t *testing.T) {
	text := "Impression pending. [TODO: correlate clinically]"
	items := Scan(text)

	edit := editFor(items.Instructions[0], "")
	edit.Resolution = entities.InstructionKeep
	result := ApplyEdits(text, []entities.UnfilledEdit{edit})

	if result.NewText != text {
		t.Errorf("keep must leave the text untouched, got %q", result.NewText)
	}
	if result.AppliedCount != 1 {
		t.Errorf("keep still counts as applied, got %d", result.AppliedCount)
	}
}

func TestApplyEdits_Empty(t *testing.T) {
	result := ApplyEdits("unchanged", nil)
	if result.NewText != "unchanged" || result.AppliedCount != 0 || len(result.Skipped) != 0 {
		t.Errorf("unexpected result for empty batch: %+v", result)
	}
}
