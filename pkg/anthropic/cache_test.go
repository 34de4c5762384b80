package anthropic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildCachedSystemBlocks(t *testing.T) {
	blocks := BuildCachedSystemBlocks("system prompt text", "1h")
	require.Len(t, blocks, 1)
	assert.Equal(t, "system prompt text", blocks[0].Text)
	require.NotNil(t, blocks[0].CacheControl)
	assert.Equal(t, "1h", blocks[0].CacheControl.TTL)
}

func TestBuildCachedSystemBlocks_DefaultTTL(t *testing.T) {
	blocks := BuildCachedSystemBlocks("prompt", "")
	require.Len(t, blocks, 1)
	require.NotNil(t, blocks[0].CacheControl)
	assert.Empty(t, blocks[0].CacheControl.TTL)

	sdkBlocks := toSDKSystemBlocks(blocks)
	require.Len(t, sdkBlocks, 1)
	assert.Empty(t, string(sdkBlocks[0].CacheControl.TTL))
}

func TestBuildSystemBlocks(t *testing.T) {
	assert.Nil(t, BuildSystemBlocks(""))

	blocks := BuildSystemBlocks("rubric")
	require.Len(t, blocks, 1)
	assert.Equal(t, "rubric", blocks[0].Text)
	assert.Nil(t, blocks[0].CacheControl)
}
