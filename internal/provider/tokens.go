package provider

// EstimateTokens approximates the token count of text for backends that do
// not report usage. One token is roughly four characters of English text.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	n := len(text) / 4
	if n == 0 {
		n = 1
	}
	return n
}
