package ai

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// TokenEncoding is the tiktoken encoding used for prompt budgeting.
const TokenEncoding = "o200k_base"

// TokenCounter returns the number of tokens in text.
type TokenCounter func(text string) int

var (
	encOnce sync.Once
	enc     *tiktoken.Tiktoken
)

// CountTokens counts tokens with the o200k_base encoding. tiktoken fetches
// the encoding on first use; when that fails the count is estimated at
// four bytes per token.
func CountTokens(text string) int {
	encOnce.Do(func() {
		e, err := tiktoken.GetEncoding(TokenEncoding)
		if err == nil {
			enc = e
		}
	})
	if enc == nil {
		return EstimateTokens(text)
	}
	return len(enc.Encode(text, nil, nil))
}

// EstimateTokens is a cheap upper-bound style estimate used when no encoder
// is available.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	return (len(text) + 3) / 4
}
