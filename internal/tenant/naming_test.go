package tenant

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSchemaName(t *testing.T) {
	tests := []struct {
		name      string
		project   string
		projectID int
		want      string
	}{
		{"simple", "Acme Water", 12, "acme_water_12"},
		{"punctuation collapses", "River-Side / Phase 2", 7, "river_side_phase_2_7"},
		{"leading and trailing junk", "  ***Metro***  ", 3, "metro_3"},
		{"unicode stripped", "Ciudad Juárez", 9, "ciudad_ju_rez_9"},
		{"empty name falls back", "", 4, "project_4"},
		{"only punctuation falls back", "???", 5, "project_5"},
		{"same name different ids stay distinct", "Acme Water", 13, "acme_water_13"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SchemaName(tt.project, tt.projectID))
		})
	}
}

func TestSchemaNameLongNamesStayWithinIdentifierLimit(t *testing.T) {
	long := strings.Repeat("very long project name ", 10)
	got := SchemaName(long, 123456)

	assert.LessOrEqual(t, len(got), 63)
	assert.True(t, strings.HasSuffix(got, "_123456"))
	assert.False(t, strings.Contains(got, "__"), "truncation must not leave a dangling underscore")
}

func TestSchemaNameDeterministic(t *testing.T) {
	a := SchemaName("Acme Water", 12)
	b := SchemaName("Acme Water", 12)
	assert.Equal(t, a, b)
}
