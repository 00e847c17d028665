package extract

import (
	"github.com/pkoukk/tiktoken-go"
)

// DefaultPromptTokenBudget bounds how much paper text is handed to a single
// extraction prompt.
const DefaultPromptTokenBudget = 24000

// TruncateTokens cuts text down to at most budget tokens measured with the
// o200k_base encoding. Text within budget is returned unchanged.
func TruncateTokens(text string, budget int) (string, error) {
	if budget <= 0 {
		return text, nil
	}

	enc, err := tiktoken.GetEncoding("o200k_base")
	if err != nil {
		return "", err
	}

	tokens := enc.Encode(text, nil, nil)
	if len(tokens) <= budget {
		return text, nil
	}

	return enc.Decode(tokens[:budget]), nil
}
