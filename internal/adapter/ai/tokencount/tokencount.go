// Package tokencount estimates token counts for LLM API calls.
//
// It uses tiktoken-go, a Go port of OpenAI's tiktoken library, so prompt
// sizes can be tracked before the provider reports actual usage.
package tokencount

import (
	"strings"
	"sync"

	"log/slog"

	tiktoken "github.com/pkoukk/tiktoken-go"
)

// Counter provides thread-safe token counting for LLM models.
type Counter struct {
	encodingCache map[string]*tiktoken.Tiktoken
	mu            sync.RWMutex
}

// NewCounter creates a new token counter instance.
func NewCounter() *Counter {
	return &Counter{encodingCache: make(map[string]*tiktoken.Tiktoken)}
}

// Count returns the token count of text under the model's encoding. Unknown
// models fall back to cl100k_base; a failed encoding load falls back to a
// rough 4-characters-per-token estimate rather than failing the call.
func (c *Counter) Count(text, model string) int {
	enc := c.encoding(model)
	if enc == nil {
		return len(text) / 4
	}
	return len(enc.Encode(text, nil, nil))
}

func (c *Counter) encoding(model string) *tiktoken.Tiktoken {
	key := strings.ToLower(model)
	c.mu.RLock()
	enc, ok := c.encodingCache[key]
	c.mu.RUnlock()
	if ok {
		return enc
	}

	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			slog.Warn("token encoding unavailable", slog.String("model", model), slog.Any("error", err))
			return nil
		}
	}
	c.mu.Lock()
	c.encodingCache[key] = enc
	c.mu.Unlock()
	return enc
}
