package nameparse

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePartnerName(t *testing.T) {
	tests := []struct {
		in, name, email string
	}{
		{"Jane Doe <jane@x.com>", "Jane Doe", "jane@x.com"},
		{`"Doe, Jane" <jane.doe@mail.example.org>`, "Doe, Jane", "jane.doe@mail.example.org"},
		{"jane@x.com", "", "jane@x.com"},
		{"  Jane Doe  ", "Jane Doe", ""},
		{"a@b.io, c@d.io", "", "a@b.io"},
		{"", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			name, email := ParsePartnerName(tt.in)
			assert.Equal(t, tt.name, name)
			assert.Equal(t, tt.email, email)
		})
	}
}

func TestNameEmailMirrors(t *testing.T) {
	name, email := NameEmail("jane@x.com")
	assert.Equal(t, "jane@x.com", name)
	assert.Equal(t, "jane@x.com", email)

	name, email = NameEmail("Jane")
	assert.Equal(t, "Jane", name)
	assert.Equal(t, "Jane", email)

	name, email = NameEmail("Jane Doe <jane@x.com>")
	assert.Equal(t, "Jane Doe", name)
	assert.Equal(t, "jane@x.com", email)

	name, email = NameEmail("")
	assert.Empty(t, name)
	assert.Empty(t, email)
}

func TestNameEmailBlank(t *testing.T) {
	for _, in := range []string{"", "   ", "\t\n"} {
		name, email := NameEmail(in)
		assert.Empty(t, name, "%q", in)
		assert.Empty(t, email, "%q", in)
	}
}
