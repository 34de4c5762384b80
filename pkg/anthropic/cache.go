package anthropic

// BuildCachedSystemBlocks wraps a long, fixed system prompt in a single block
// with a cache breakpoint. Every request in a stage run sends the same prompt,
// so all calls after the first read it from the prompt cache.
func BuildCachedSystemBlocks(text string, ttl string) []SystemBlock {
	return []SystemBlock{
		{
			Text: text,
			CacheControl: &CacheControl{
				TTL: ttl,
			},
		},
	}
}

// BuildSystemBlocks wraps a system prompt without cache control.
func BuildSystemBlocks(text string) []SystemBlock {
	if text == "" {
		return nil
	}
	return []SystemBlock{{Text: text}}
}
