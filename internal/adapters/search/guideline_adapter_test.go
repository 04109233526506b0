package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDocString(t *testing.T) {
	doc := map[string]interface{}{
		"condition": " Pulmonary nodule ",
		"count":     3,
	}

	assert.Equal(t, "Pulmonary nodule", docString(doc, "condition"))
	assert.Equal(t, "", docString(doc, "count"))
	assert.Equal(t, "", docString(doc, "missing"))
}

func TestDocStrings(t *testing.T) {
	doc := map[string]interface{}{
		"sources": []interface{}{"Fleischner 2017", "ACR"},
		"mixed":   []interface{}{"kept", 42},
		"empty":   []interface{}{},
		"scalar":  "not a list",
	}

	assert.Equal(t, []string{"Fleischner 2017", "ACR"}, docStrings(doc, "sources"))
	assert.Equal(t, []string{"kept"}, docStrings(doc, "mixed"))
	assert.Nil(t, docStrings(doc, "empty"))
	assert.Nil(t, docStrings(doc, "scalar"))
	assert.Nil(t, docStrings(doc, "missing"))
}
