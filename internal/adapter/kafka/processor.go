package kafka

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"

	"github.com/lovoo/goka"
	"github.com/niksmo/storefront/internal/core/port"
	"github.com/niksmo/storefront/internal/metrics"
	"github.com/niksmo/storefront/pkg/schema"
)

var _ port.ActivityProcessor = (*ActivityProcessor)(nil)

// A processor is used for composition.
//
// Running and closing the underlying [goka.Processor]
type processor struct {
	opPrefix string
	gp       *goka.Processor
}

func (p *processor) run(
	ctx context.Context, stopFn context.CancelFunc, wg *sync.WaitGroup,
) {
	const op = "run"
	log := slog.With("op", makeOp(p.opPrefix, op))

	defer wg.Done()

	go p.runProc(ctx, stopFn)

	log.Info("preparing...")
	p.waitForReady(ctx)
	log.Info("running")
}

func (p *processor) runProc(ctx context.Context, stopFn context.CancelFunc) {
	const op = "run"
	log := slog.With("op", makeOp(p.opPrefix, op))

	defer stopFn()

	err := p.gp.Run(ctx)
	if err != nil {
		log.Error("stopped", "err", err)
		return
	}
	log.Info("stopped")
}

func (p *processor) waitForReady(ctx context.Context) {
	const op = "waitForReady"
	log := slog.With("op", makeOp(p.opPrefix, op))

	err := p.gp.WaitForReadyContext(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		log.Error("fall down while preparing", "err", err)
		return
	}
}

func (p *processor) close() {
	const op = "close"
	log := slog.With("op", makeOp(p.opPrefix, op))

	log.Info("closing processor...")
	p.gp.Stop()
	log.Info("processor is closed")
}

// A productViewCodec used for serde [schema.ProductViewV1]
type productViewCodec struct {
	serde Serde
}

func (c productViewCodec) Encode(v any) ([]byte, error) {
	const op = "productViewCodec.Encode"
	if _, ok := v.(schema.ProductViewV1); !ok {
		return nil, opErr(ErrInvalidValueType, op)
	}
	return c.serde.Encode(v)
}

func (c productViewCodec) Decode(data []byte) (any, error) {
	const op = "productViewCodec.Decode"
	var s schema.ProductViewV1
	if err := c.serde.Decode(data, &s); err != nil {
		return nil, opErr(err, op)
	}
	return s, nil
}

// A viewedProductsCodec used for serde [schema.ViewedProductsV1]
type viewedProductsCodec struct {
	serde Serde
}

func (c viewedProductsCodec) Encode(v any) ([]byte, error) {
	const op = "viewedProductsCodec.Encode"
	if _, ok := v.(schema.ViewedProductsV1); !ok {
		return nil, opErr(ErrInvalidValueType, op)
	}
	return c.serde.Encode(v)
}

func (c viewedProductsCodec) Decode(data []byte) (any, error) {
	const op = "viewedProductsCodec.Decode"
	var s schema.ViewedProductsV1
	if err := c.serde.Decode(data, &s); err != nil {
		return nil, opErr(err, op)
	}
	return s, nil
}

// An ActivityProcessorConfig used for setup [ActivityProcessor].
//
// TLS is applied globally, see [ApplyTLS].
type ActivityProcessorConfig struct {
	SeedBrokers []string
	InputStream string
	Group       string
	ViewSerde   Serde
	TableSerde  Serde
	MaxViewed   int
}

// An ActivityProcessor folds the product views stream into
// the per-user viewed products group table.
type ActivityProcessor struct {
	opPrefix  string
	proc      processor
	maxViewed int
}

func NewActivityProc(
	config ActivityProcessorConfig, opts ...goka.ProcessorOption,
) (*ActivityProcessor, error) {
	const op = "NewActivityProc"

	p := ActivityProcessor{
		opPrefix:  "ActivityProcessor",
		maxViewed: config.MaxViewed,
	}

	gg := goka.DefineGroup(goka.Group(config.Group),
		goka.Input(
			goka.Stream(config.InputStream),
			productViewCodec{config.ViewSerde},
			p.processFn,
		),
		goka.Persist(viewedProductsCodec{config.TableSerde}),
	)

	opts = append([]goka.ProcessorOption{withNonlogProcOpt()}, opts...)
	gp, err := goka.NewProcessor(config.SeedBrokers, gg, opts...)
	if err != nil {
		return nil, opErr(err, op)
	}

	p.proc = processor{
		opPrefix: p.opPrefix,
		gp:       gp,
	}
	return &p, nil
}

func (p *ActivityProcessor) Run(
	ctx context.Context, stopFn context.CancelFunc, wg *sync.WaitGroup,
) {
	p.proc.run(ctx, stopFn, wg)
}

func (p *ActivityProcessor) Close() {
	p.proc.close()
}

func (p *ActivityProcessor) processFn(ctx goka.Context, msg any) {
	const op = "processFn"
	log := slog.With("op", makeOp(p.opPrefix, op), "username", ctx.Key())

	event, ok := msg.(schema.ProductViewV1)
	if !ok || event.ProductID == "" {
		log.Warn("skip malformed view")
		return
	}

	var viewed schema.ViewedProductsV1
	if v, ok := ctx.Value().(schema.ViewedProductsV1); ok {
		viewed = v
	}

	viewed.ProductIDs = appendViewed(viewed.ProductIDs, event.ProductID, p.maxViewed)
	ctx.SetValue(viewed)
	metrics.IncViewsProcessed()
	log.Debug("view recorded", "productID", event.ProductID)
}

// appendViewed adds id to ids unless present, keeping first-appearance
// order and at most limit of the most recent ids. limit <= 0 keeps all.
func appendViewed(ids []string, id string, limit int) []string {
	if slices.Contains(ids, id) {
		return ids
	}
	ids = append(slices.Clip(ids), id)
	if limit > 0 && len(ids) > limit {
		ids = ids[len(ids)-limit:]
	}
	return ids
}
