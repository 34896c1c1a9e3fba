package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncateCountsRunes(t *testing.T) {
	assert.Equal(t, "héllo", truncate("héllo wörld", 5))
	assert.Equal(t, "abc", truncate("abc", 10))
	assert.Equal(t, "abc", truncate("abc", 0))
}

func TestAlnumOnly(t *testing.T) {
	assert.Equal(t, "ORD123abc", alnumOnly("ORD-123_abc!"))
	assert.Equal(t, "", alnumOnly("--- ***"))
	assert.Equal(t, "x1", alnumOnly("x1é"))
}

func TestApplyFields(t *testing.T) {
	a, b, c := "  keep ", "   ", "optional"
	missing := applyFields([]field{
		{name: "a", value: &a, max: 3, required: true},
		{name: "b", value: &b, max: 10, required: true},
		{name: "c", value: &c, max: 10},
	})
	assert.Equal(t, []string{"b"}, missing)
	assert.Equal(t, "kee", a)
	assert.Equal(t, "", b)
}

func TestValidatePassword(t *testing.T) {
	assert.Empty(t, validatePassword("Abcdef1!"))
	assert.Equal(t, []string{"password must include a special character"}, validatePassword("Abcdefg1"))
	assert.Equal(t, []string{"password must include an uppercase letter"}, validatePassword("abcdef1!"))
	assert.Contains(t, validatePassword("Aa1!"+string(make([]byte, 80))), "password must be at most 72 bytes")
}

func TestValidateEmail(t *testing.T) {
	assert.Empty(t, validateEmail("a@b.com"))
	assert.Equal(t, []string{"email is required"}, validateEmail(""))
	assert.Equal(t, []string{"a valid email address is required"}, validateEmail("a@"))
}
