package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct{ in, want string }{
		{"alice", "alice"},
		{"  bob  ", "bob"},
		{"<b>carol</b>", "carol"},
		{"<script>alert(1)</script>", ""},
		{"&lt;i&gt;dave&lt;/i&gt;", "dave"},
		{"", ""},
		{strings.Repeat("x", 30), strings.Repeat("x", 24)},
		{strings.Repeat("늑", 30), strings.Repeat("늑", 24)},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SanitizeName(tt.in), tt.in)
	}
}
