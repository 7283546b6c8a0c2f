package tracker

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSynopsisMarkdown(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "   ", ""},
		{"plain text keeps entities readable", "Tom &amp; Jerry", "Tom & Jerry"},
		{"html becomes markdown", "<p>A <b>former</b> mercenary.</p>", "A **former** mercenary."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, synopsisMarkdown(tt.in))
		})
	}
}

func TestPlainTitle(t *testing.T) {
	assert.Equal(t, "Kaguya-sama: Love Is War", plainTitle(" Kaguya-sama: Love Is War "))
	assert.Equal(t, "Spice & Wolf", plainTitle("Spice &amp; Wolf"))
}
