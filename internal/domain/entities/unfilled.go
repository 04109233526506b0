package entities

import "fmt"

// UnfilledItemType classifies a located placeholder or structural gap
type UnfilledItemType string

const (
	UnfilledTypeMeasurement  UnfilledItemType = "measurement"
	UnfilledTypeVariable     UnfilledItemType = "variable"
	UnfilledTypeAlternative  UnfilledItemType = "alternative"
	UnfilledTypeInstruction  UnfilledItemType = "instruction"
	UnfilledTypeBlankSection UnfilledItemType = "blank_section"
)

// InstructionResolution is the directive carried by instruction-type edits
// in place of free text.
type InstructionResolution string

const (
	InstructionRemove InstructionResolution = "remove"
	InstructionKeep   InstructionResolution = "keep"
)

// UnfilledItem is a placeholder or structural gap located in report text.
// Items are recreated on every scan and are only valid against the exact
// text snapshot they were scanned from.
type UnfilledItem struct {
	ID                 string           `json:"id"`
	Type               UnfilledItemType `json:"type"`
	Text               string           `json:"text"`
	Index              int              `json:"index"`
	SurroundingContext string           `json:"surrounding_context"`

	// Options holds the parsed choices for alternative items.
	Options []string `json:"options,omitempty"`

	// Name holds the bare variable name for variable items.
	Name string `json:"name,omitempty"`

	// Unit holds the recovered measurement unit, empty when none was found.
	Unit string `json:"unit,omitempty"`
}

// ItemID derives the deterministic identity of an item from its type, text
// and ordinal position among same-type items. Re-scans of unchanged text
// reproduce the same ids.
func ItemID(itemType UnfilledItemType, text string, ordinal int) string {
	return fmt.Sprintf("%s-%d-%s", itemType, ordinal, shortHash(text))
}

// UnfilledEdit is a pending user-supplied resolution for one UnfilledItem.
// Position and OriginalText must match the item it was derived from;
// applying a stale edit against changed text reports a conflict.
type UnfilledEdit struct {
	ItemID       string                `json:"item_id"`
	Type         UnfilledItemType      `json:"type"`
	OriginalText string                `json:"original_text"`
	NewValue     string                `json:"new_value"`
	Context      string                `json:"context,omitempty"`
	Position     int                   `json:"position"`
	Resolution   InstructionResolution `json:"resolution,omitempty"`
}

// PatchResult reports the outcome of applying a batch of unfilled edits
type PatchResult struct {
	NewText      string         `json:"new_text"`
	AppliedCount int            `json:"applied_count"`
	Skipped      []UnfilledEdit `json:"skipped"`
}
