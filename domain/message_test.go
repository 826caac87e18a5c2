package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMessage_AddReaction_IsASet(t *testing.T) {
	m := Message{}

	require.True(t, m.AddReaction("👍", "u2"))
	require.False(t, m.AddReaction("👍", "u2"))

	require.Equal(t, []string{"u2"}, m.Reactions["👍"])
}

func TestMessage_AddReaction_SeparatesEmojis(t *testing.T) {
	m := Message{}

	require.True(t, m.AddReaction("👍", "u1"))
	require.True(t, m.AddReaction("🔥", "u1"))
	require.True(t, m.AddReaction("👍", "u2"))

	require.Equal(t, []string{"u1", "u2"}, m.Reactions["👍"])
	require.Equal(t, []string{"u1"}, m.Reactions["🔥"])
}
