package history

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogFromRowsRebuildsByPosition(t *testing.T) {
	rows := []historyRow{
		{Role: RoleAssistant, Content: "second", Position: 1},
		{Role: RoleUser, Content: "first", Position: 0},
	}

	msgs := logFromRows("user-1", rows)
	require.Len(t, msgs, 2)
	assert.Equal(t, "first", msgs[0].Content)
	assert.Equal(t, "second", msgs[1].Content)
}

func TestLogFromRowsCompactsCorruptPositions(t *testing.T) {
	rows := []historyRow{
		{Role: RoleUser, Content: "a", Position: 0},
		{Role: RoleUser, Content: "b", Position: 0}, // duplicate wins last
		{Role: RoleUser, Content: "c", Position: 9}, // out of range, dropped
	}

	msgs := logFromRows("user-1", rows)
	require.Len(t, msgs, 1)
	assert.Equal(t, "b", msgs[0].Content)
}
