package guest

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidHostname(t *testing.T) {
	valid := []string{"localhost", "foo-2e10", "MYPC", "a", "x230"}
	for _, name := range valid {
		require.True(t, ValidHostname(name), "hostname %q", name)
	}

	invalid := []string{"", "-leading", "invalid_host", "has space", "dot.ted", "emoji☃"}
	for _, name := range invalid {
		require.False(t, ValidHostname(name), "hostname %q", name)
	}
}

func TestAcceptableUsername(t *testing.T) {
	valid := []string{"alice", "bob2", "web-admin", "x"}
	for _, name := range valid {
		require.True(t, AcceptableUsername(name), "username %q", name)
	}

	invalid := []string{"", "root", "Alice", "0day", "-dash", "has space",
		"pass:wd", "home/dir", "tab\tname"}
	for _, name := range invalid {
		require.False(t, AcceptableUsername(name), "username %q", name)
	}
}
