package pathutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeSegment(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"lowercase passthrough", "garage", "garage"},
		{"uppercase folds", "Garage", "garage"},
		{"spaces collapse to underscore", "Garage Shelf", "garage_shelf"},
		{"polish diacritics", "Półka", "polka"},
		{"mixed diacritics and digits", "Półka #1", "polka_1"},
		{"uppercase diacritics", "ŁÓDŹ", "lodz"},
		{"special chars collapse", "a--b__c!!d", "a_b_c_d"},
		{"leading specials dropped", "!!shelf", "shelf"},
		{"trailing specials dropped", "shelf!!", "shelf"},
		{"only specials", "###", ""},
		{"empty", "", ""},
		{"digits survive", "2024 Box", "2024_box"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeSegment(tt.input))
		})
	}
}

func TestSanitizeSegmentCharset(t *testing.T) {
	inputs := []string{"Półka #1", "ŁÓDŹ!!", "  mixed UP 42  ", "ąćęłńóśźż"}

	for _, input := range inputs {
		segment := SanitizeSegment(input)
		for _, r := range segment {
			valid := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_'
			assert.True(t, valid, "segment %q contains invalid rune %q", segment, r)
		}
	}
}

func TestSanitizeSegmentIdempotent(t *testing.T) {
	inputs := []string{"Garage Shelf", "Półka #1", "a--b", "2024 Box"}

	for _, input := range inputs {
		once := SanitizeSegment(input)
		assert.Equal(t, once, SanitizeSegment(once))
	}
}

func TestSanitizeSegmentCollision(t *testing.T) {
	// Distinct names may collapse to the same segment; sibling
	// uniqueness checks rely on detecting exactly this
	assert.Equal(t, SanitizeSegment("Półka #1"), SanitizeSegment("polka!1"))
}

func TestBuildPath(t *testing.T) {
	assert.Equal(t, "root.garage", BuildPath("", "Garage"))
	assert.Equal(t, "root.garage.shelf_2", BuildPath("root.garage", "Shelf 2"))
	assert.Equal(t, "root.unnamed", BuildPath("", "###"))
}

func TestReplacePrefix(t *testing.T) {
	assert.Equal(t, "root.storage", ReplacePrefix("root.garage", "root.garage", "root.storage"))
	assert.Equal(t, "root.storage.shelf_1", ReplacePrefix("root.garage.shelf_1", "root.garage", "root.storage"))
	// A sibling sharing the string prefix but not the segment boundary
	// is untouched
	assert.Equal(t, "root.garage2.shelf_1", ReplacePrefix("root.garage2.shelf_1", "root.garage", "root.storage"))
}

func TestSubtreePattern(t *testing.T) {
	// Underscores are LIKE wildcards and must come out escaped so
	// "root.my_box" cannot match descendants of "root.my1box"
	assert.Equal(t, `root.my\_box.%`, SubtreePattern("root.my_box"))
	assert.Equal(t, "root.garage.%", SubtreePattern("root.garage"))
	assert.Equal(t, `root.shelf\_1.bin\_a.%`, SubtreePattern("root.shelf_1.bin_a"))
}

func TestDepth(t *testing.T) {
	assert.Equal(t, 0, Depth(""))
	assert.Equal(t, 0, Depth("root"))
	assert.Equal(t, 1, Depth("root.garage"))
	assert.Equal(t, 3, Depth("root.garage.shelf_1.bin_a"))
}

func TestBreadcrumb(t *testing.T) {
	assert.Equal(t, "Unassigned", Breadcrumb(""))
	assert.Equal(t, "Root", Breadcrumb("root"))
	assert.Equal(t, "garage", Breadcrumb("root.garage"))
	assert.Equal(t, "garage > shelf_2", Breadcrumb("root.garage.shelf_2"))
}
