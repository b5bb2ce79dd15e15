package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAddressValid(t *testing.T) {
	tests := []struct {
		name    string
		address Address
		valid   bool
	}{
		{
			name:    "valid system program address",
			address: "11111111111111111111111111111111",
			valid:   true,
		},
		{
			name:    "valid token program address",
			address: "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA",
			valid:   true,
		},
		{
			name:    "empty",
			address: "",
			valid:   false,
		},
		{
			name:    "not base58",
			address: "0xdeadbeef",
			valid:   false,
		},
		{
			name:    "too short",
			address: "abc",
			valid:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.address.Valid())
		})
	}
}

func TestValidateSlug(t *testing.T) {
	tests := []struct {
		name string
		slug string
		err  error
	}{
		{name: "simple", slug: "gallery", err: nil},
		{name: "hyphenated", slug: "night-owls-2", err: nil},
		{name: "empty", slug: "", err: ErrSlugRequired},
		{name: "too long", slug: strings.Repeat("a", 51), err: ErrSlugTooLong},
		{name: "max length ok", slug: strings.Repeat("a", 50), err: nil},
		{name: "uppercase", slug: "Gallery", err: ErrInvalidSlug},
		{name: "leading hyphen", slug: "-gallery", err: ErrInvalidSlug},
		{name: "trailing hyphen", slug: "gallery-", err: ErrInvalidSlug},
		{name: "double hyphen", slug: "ga--llery", err: ErrInvalidSlug},
		{name: "spaces", slug: "my gallery", err: ErrInvalidSlug},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, ValidateSlug(tt.slug), tt.err)
		})
	}
}

func TestValidateName(t *testing.T) {
	assert.NoError(t, ValidateName("My Gallery"))
	assert.ErrorIs(t, ValidateName(""), ErrNameRequired)
	assert.ErrorIs(t, ValidateName(strings.Repeat("n", 51)), ErrNameTooLong)
}

func TestValidateLabel(t *testing.T) {
	assert.NoError(t, ValidateLabel("airdrop-june"))
	assert.NoError(t, ValidateLabel(""))
	assert.ErrorIs(t, ValidateLabel(strings.Repeat("l", 21)), ErrLabelTooLong)
}
