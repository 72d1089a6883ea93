package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidEmail(t *testing.T) {
	tests := []struct {
		name  string
		email string
		want  bool
	}{
		{"simple address", "ana@x.com", true},
		{"with plus tag", "ana+tag@example.org", true},
		{"with dots", "first.last@sub.example.com", true},
		{"empty", "", false},
		{"no at sign", "ana.x.com", false},
		{"no local part", "@x.com", false},
		{"no domain", "ana@", false},
		{"no tld", "ana@x", false},
		{"single char tld", "ana@x.c", false},
		{"space in local part", "a na@x.com", false},
		{"over max length", strings.Repeat("a", 250) + "@x.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidEmail(tt.email))
		})
	}
}

func TestIsStrongPassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		want     bool
	}{
		{"all classes present", "Abc12345!", true},
		{"exactly eight chars", "Aa1!aaaa", true},
		{"empty", "", false},
		{"seven chars", "Aa1!aaa", false},
		{"no uppercase", "abc12345!", false},
		{"no lowercase", "ABC12345!", false},
		{"no digit", "Abcdefgh!", false},
		{"no symbol", "Abc123456", false},
		{"letters outside ascii count by class", "Ábc12345!", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsStrongPassword(tt.password))
		})
	}
}
