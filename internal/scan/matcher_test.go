package scan

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchPlayerID(t *testing.T) {
	tests := []struct {
		name string
		text string
		id   string
		want bool
	}{
		{"plain occurrence", "Spieler ID: 12345.", "12345", true},
		{"parenthesized", "gegen (12345) gemeldet", "12345", true},
		{"trailing space", "12345 hat gecheatet", "12345", true},
		{"start of text", "12345", "12345", true},
		{"longer id containing it", "Spieler 112345", "12345", false},
		{"id is prefix of longer", "Spieler 123456", "12345", false},
		{"absent", "kein Treffer hier", "12345", false},
		{"empty id", "12345", "", false},
		{"empty text", "", "12345", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MatchPlayerID(tt.text, tt.id))
		})
	}
}

func TestMatchAdminName(t *testing.T) {
	assert.True(t, MatchAdminName("DarkLord", "darklord"))
	assert.True(t, MatchAdminName("  DarkLord  ", "DarkLord"))
	assert.False(t, MatchAdminName("DarkLord99", "DarkLord"))
	assert.False(t, MatchAdminName("Dark Lord", "DarkLord"))
	assert.False(t, MatchAdminName("DarkLord", ""))
}
