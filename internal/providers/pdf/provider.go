package pdf

import (
	"context"
	"io"

	"github.com/smallbiznis/hourstay/internal/invoice/render"
	"go.uber.org/fx"
)

var Module = fx.Module("providers.pdf",
	fx.Provide(New),
)

type Provider interface {
	GenerateInvoice(ctx context.Context, input render.RenderInput) (io.Reader, error)
}

type NoOpProvider struct{}

func (p *NoOpProvider) GenerateInvoice(ctx context.Context, input render.RenderInput) (io.Reader, error) {
	return nil, nil
}
