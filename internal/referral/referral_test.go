package referral

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_KnownCodes(t *testing.T) {
	// Codes produced by the landing page for the same inputs.
	tests := []struct {
		email string
		want  string
	}{
		{"", "00000000"},
		{"a", "0000002P"},
		{"@", "0000001S"},
		{"a@b.c", "001IIYK8"},
		{"test@example.com", "00N90SZ5"},
		{"user@localplate.com", "01F91C4Z"},
		{"john.doe+test@gmail.com", "02RYZVT5"},
		{"very.long.email.address.with.many.parts@subdomain.example.com", "01558OUE"},
		{"unicode.테스트@example.com", "00J1PTO4"},
		{"CAPS@UPPERCASE.COM", "00NP5AT6"},
		{"12345@numbers.com", "00HEP580"},
		{"😀@x.io", "00KYP0IV"},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%q", tt.email), func(t *testing.T) {
			assert.Equal(t, tt.want, Generate(tt.email))
		})
	}
}

func TestGenerate_Shape(t *testing.T) {
	inputs := []string{
		"", "a", "!!!@###.com", "special!chars@test.co.uk",
		"x@y.z", "simple@test.io", "密码@example.cn",
		"a-very-long-local-part-that-keeps-going-and-going@example.com",
	}

	for _, in := range inputs {
		code := Generate(in)
		assert.Len(t, code, CodeLength, "input %q", in)
		assert.True(t, Valid(code), "input %q produced %q", in, code)
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	first := Generate("test@example.com")
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Generate("test@example.com"))
	}
}

func TestGenerate_NoCollisionsInSample(t *testing.T) {
	emails := []string{
		"a@b.c", "test@example.com", "user@localplate.com", "john.doe+test@gmail.com",
		"special!chars@test.co.uk", "simple@test.io", "12345@numbers.com", "caps@uppercase.com",
		"maria@example.com", "li.wei@example.org", "sam@startup.io", "ana+news@gmail.com",
		"oliver@yahoo.com", "noah@outlook.com", "emma@proton.me", "ava@icloud.com",
		"liam@fastmail.com", "mia@hey.com", "lucas@example.net", "zoe@localplate.com",
		"chef@bistro.fr", "runner@track.club",
	}

	seen := make(map[string]string, len(emails))
	for _, e := range emails {
		code := Generate(e)
		prev, dup := seen[code]
		require.False(t, dup, "%q and %q both produced %s", prev, e, code)
		seen[code] = e
	}
}

func TestValid(t *testing.T) {
	tests := []struct {
		code string
		want bool
	}{
		{"00N90SZ5", true},
		{"00n90sz5", false},
		{"00N90SZ", false},
		{"00N90SZ55", false},
		{"00N9-SZ5", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := Valid(tt.code); got != tt.want {
			t.Errorf("Valid(%q) = %v, want %v", tt.code, got, tt.want)
		}
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "00N90SZ5", Normalize("  00n90sz5 \n"))
	assert.Equal(t, "", Normalize("   "))
}
