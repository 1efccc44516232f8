package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCommand(t *testing.T) {
	p := NewCommandParser([]string{".", "!", "/"})

	tests := []struct {
		in      string
		cmd     string
		args    []string
		text    string
		ok      bool
	}{
		{".bet add 3 HOME_WIN", "bet", []string{"add", "3", "HOME_WIN"}, "add 3 HOME_WIN", true},
		{"!WORK", "work", nil, "", true},
		{"/club create Динамо", "club", []string{"create", "Динамо"}, "create Динамо", true},
		{"  .daily  ", "daily", nil, "", true},
		{"привет как дела", "", nil, "", false},
		{".", "", nil, "", false},
		{"", "", nil, "", false},
	}

	for _, tt := range tests {
		cmd, args, text, ok := p.ParseCommand(tt.in)
		assert.Equal(t, tt.ok, ok, "in=%q", tt.in)
		if !tt.ok {
			continue
		}
		assert.Equal(t, tt.cmd, cmd, "in=%q", tt.in)
		assert.Equal(t, tt.args, args, "in=%q", tt.in)
		assert.Equal(t, tt.text, text, "in=%q", tt.in)
	}
}

func TestParseCommandCaseInsensitive(t *testing.T) {
	p := NewCommandParser([]string{"."})
	cmd, _, _, ok := p.ParseCommand(".BeT slip")
	assert.True(t, ok)
	assert.Equal(t, "bet", cmd)
}
