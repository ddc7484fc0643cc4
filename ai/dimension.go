package ai

import (
	"context"
	"fmt"

	"github.com/scribelab/docvec/core"
)

// dimensionProbe is embedded once at startup to learn the vector width
// of the configured model.
const dimensionProbe = "dimension probe"

// Dimension reports the vector width the embedder produces. The
// OpenAI-compatible API does not expose model dimensionality, so a
// probe text is embedded and measured.
func Dimension(ctx context.Context, e Embedder) (int, error) {
	vec, err := e.EmbedText(ctx, dimensionProbe)
	if err != nil {
		return 0, fmt.Errorf("%w: dimension probe: %v", core.ErrEmbedding, err)
	}
	if len(vec) == 0 {
		return 0, fmt.Errorf("%w: model returned an empty vector", core.ErrEmbedding)
	}
	return len(vec), nil
}
