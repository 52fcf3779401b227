package gateway

import "errors"

// Internal failure taxonomy (spec.md §4.1/§7). A failed provider call is
// classified as errProviderTimeout, errProviderTransport or errProviderEmpty,
// logged with provider name, latency, and a 200-char content preview, and
// once both providers have failed the caller receives
// errs.ErrProviderExhausted instead. errParseError is returned, wrapped, when
// the text of the provider that answered cannot be parsed, and GenerateHint
// returns errProviderEmpty, wrapped, for a hint that is empty after trimming;
// neither of these two cases fails over to the fallback provider.
var (
	errProviderTimeout   = errors.New("provider timeout")
	errProviderTransport = errors.New("provider transport error")
	errProviderEmpty     = errors.New("provider returned empty body")
	errParseError        = errors.New("could not parse provider response as JSON")
)

const previewLen = 200

func preview(s string) string {
	if len(s) <= previewLen {
		return s
	}
	return s[:previewLen]
}
