package services

import "testing"

func TestParseClassification(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		category Category
		language string
		ok       bool
	}{
		{"clean line", "medical|fr", CategoryMedical, "fr", true},
		{"whitespace and case", "  Wellness | EN \n", CategoryWellness, "en", true},
		{"fenced reply", "```\nother|de\n```", CategoryOther, "de", true},
		{"quoted reply", `"medical|fr"`, CategoryMedical, "fr", true},
		{"extra lines kept to first", "medical|fr\nexplanation follows", CategoryMedical, "fr", true},
		{"regional language code", "medical|fr-CA", CategoryMedical, "fr", true},
		{"unknown language kept empty", "medical|xx-invalid-!!", CategoryMedical, "", true},
		{"unknown category", "politics|fr", "", "", false},
		{"missing separator", "medical fr", "", "", false},
		{"empty reply", "", "", "", false},
		{"prose reply", "The message is about health.", "", "", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cls, ok := parseClassification(tc.raw)
			if ok != tc.ok {
				t.Fatalf("Expected ok=%v, got %v", tc.ok, ok)
			}
			if !ok {
				return
			}
			if cls.Category != tc.category {
				t.Errorf("Expected category %q, got %q", tc.category, cls.Category)
			}
			if cls.Language != tc.language {
				t.Errorf("Expected language %q, got %q", tc.language, cls.Language)
			}
		})
	}
}
