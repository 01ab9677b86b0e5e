package docstore

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexModels(t *testing.T) {
	idx := IndexModels()
	require.Len(t, idx, 2)
	assert.True(t, *idx[0].Options.Unique)
	assert.Equal(t, "uniq_filename", *idx[0].Options.Name)
}

func TestInit_Integration(t *testing.T) {
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set")
	}
	ctx := context.Background()
	require.NoError(t, Init(ctx, uri, "inkwell_test"))
	require.NotNil(t, Database())
	t.Cleanup(func() {
		_ = Database().Drop(ctx)
		_ = Close(ctx)
	})

	assert.NoError(t, Init(ctx, "mongodb://ignored", "other"), "later calls return the first result")
	assert.Equal(t, "inkwell_test", Database().Name())
}
