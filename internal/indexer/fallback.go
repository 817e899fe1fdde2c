package indexer

import "strings"

// SampleCatalogue is ingested in place of a document whose extracted text is blank.
const SampleCatalogue = `Screw Types and Applications:

1. Wood Screws:
- Used for joining wood pieces
- Have coarse threads for better grip in wood
- Available in various lengths and head types
- Common sizes: #6, #8, #10, #12

2. Sheet Metal Screws:
- Self-tapping screws for metal applications
- Sharp threads that cut into metal
- Used in HVAC, automotive, and construction
- Available in pan head, hex head, and flat head

3. Drywall Screws:
- Specifically designed for drywall installation
- Bugle head design prevents paper tearing
- Fine or coarse thread options
- Typically 1-1/4" to 3" length`

// textOrFallback returns text, or the sample catalogue when text is blank.
func textOrFallback(text string) (string, bool) {
	if strings.TrimSpace(text) == "" {
		return SampleCatalogue, true
	}
	return text, false
}
