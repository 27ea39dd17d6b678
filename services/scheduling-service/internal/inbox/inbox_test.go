package inbox

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryDedupes(t *testing.T) {
	m := NewMemory()
	ok, err := m.Record(context.Background(), "e1", "t")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = m.Record(context.Background(), "e1", "t")
	require.NoError(t, err)
	assert.False(t, ok)
}
