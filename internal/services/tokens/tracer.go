package tokens

import (
	"context"

	"github.com/unlimitedExchange/injective-dex/internal/domain"
)

// StaticTracer is a DenomTracer backed by a fixed hash -> trace table.
type StaticTracer map[string]domain.DenomTrace

// DenomTrace returns the trace registered for hash or domain.ErrNotFound.
func (s StaticTracer) DenomTrace(_ context.Context, hash string) (domain.DenomTrace, error) {
	trace, ok := s[hash]
	if !ok {
		return domain.DenomTrace{}, domain.ErrNotFound
	}

	return trace, nil
}
