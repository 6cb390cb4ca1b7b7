package common

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateHandle(t *testing.T) {
	tests := []struct {
		handle string
		ok     bool
	}{
		{"gopher", true},
		{"go_pher_99", true},
		{"abc", true},
		{"ab", false},
		{"has space", false},
		{"has-dash", false},
		{"", false},
	}
	for _, tt := range tests {
		err := ValidateHandle(tt.handle)
		if tt.ok {
			require.NoError(t, err, "handle %q", tt.handle)
		} else {
			require.Error(t, err, "handle %q", tt.handle)
		}
	}
}

func TestValidatePassword(t *testing.T) {
	require.NoError(t, ValidatePassword("secret1"))
	require.Error(t, ValidatePassword("short"))

	long := make([]byte, 101)
	for i := range long {
		long[i] = 'a'
	}
	require.Error(t, ValidatePassword(string(long)))
}

func TestValidateEmail(t *testing.T) {
	require.NoError(t, ValidateEmail("user@example.com"))
	require.NoError(t, ValidateEmail("USER@Example.COM"))
	require.NoError(t, ValidateEmail(""), "email is optional")
	require.Error(t, ValidateEmail("not-an-email"))
	require.Error(t, ValidateEmail("missing@tld"))
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("hunter22")
	require.NoError(t, err)
	require.NotEqual(t, "hunter22", hash)

	require.NoError(t, CheckPassword("hunter22", hash))
	require.Error(t, CheckPassword("hunter23", hash))
}
