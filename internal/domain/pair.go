package domain

import "fmt"

// Pair is a base/quote pair quoted by a price feed.
type Pair struct {
	// From is the base currency symbol.
	From string
	// To is the quote currency symbol.
	To string
}

// String returns the string representation.
func (p *Pair) String() string {
	return fmt.Sprintf("%s_%s", p.From, p.To)
}

// Symbol returns the concatenated exchange symbol.
func (p *Pair) Symbol() string {
	return fmt.Sprintf("%s%s", p.From, p.To)
}
