package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseEnqueueFlagsRequiresRepositoryID(t *testing.T) {
	_, err := parseEnqueueFlags(nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "--repository-id is required")

	_, err = parseEnqueueFlags([]string{"--repository-id", "   "})
	require.Error(t, err)
}

func TestParseEnqueueFlags(t *testing.T) {
	opts, err := parseEnqueueFlags([]string{"--repository-id", "repo-42", "--reason", "readme updated"})
	require.NoError(t, err)
	require.Equal(t, "repo-42", opts.RepositoryID)
	require.Equal(t, "readme updated", opts.Reason)
}

func TestParseRecentJobsFlags(t *testing.T) {
	opts, err := parseRecentJobsFlags(nil)
	require.NoError(t, err)
	require.Equal(t, 20, opts.Limit)

	opts, err = parseRecentJobsFlags([]string{"--limit", "5"})
	require.NoError(t, err)
	require.Equal(t, 5, opts.Limit)

	_, err = parseRecentJobsFlags([]string{"--limit", "0"})
	require.Error(t, err)
}

func TestParseReapFlags(t *testing.T) {
	opts, err := parseReapFlags(nil)
	require.NoError(t, err)
	require.Equal(t, time.Minute, opts.MinAge)

	_, err = parseReapFlags([]string{"--min-age", "-1s"})
	require.Error(t, err)
}

func TestCommandNamesAllRegistered(t *testing.T) {
	registered := commands()
	for _, name := range commandNames() {
		_, ok := registered[name]
		require.True(t, ok, "command %s missing", name)
	}
	require.Len(t, registered, len(commandNames()))
}
