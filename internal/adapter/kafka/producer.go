package kafka

import (
	"context"
	"log/slog"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
	"github.com/niksmo/storefront/internal/metrics"
	"github.com/twmb/franz-go/pkg/kgo"
)

var _ port.ProductViewsProducer = (*ProductViewsProducer)(nil)
var _ port.SearchQueriesProducer = (*SearchQueriesProducer)(nil)

// A producer is used for composition.
//
// Producing records to kafka broker and closing underlying [kgo.Client].
type producer struct {
	opPrefix string
	topic    string
	cl       ProducerClient
	encoder  Encoder
}

func newProducer(opPrefix string, opts ...ProducerOpt) (producer, error) {
	const op = "newProducer"

	if len(opts) != 2 {
		panic(opErr(ErrTooFewOpts, opPrefix, op)) // develop mistake
	}

	var options producerOpts
	for _, opt := range opts {
		if err := opt(&options); err != nil {
			return producer{}, err
		}
	}

	return producer{
		opPrefix: opPrefix,
		topic:    options.topic,
		cl:       options.cl,
		encoder:  options.encoder,
	}, nil
}

func (p producer) close() {
	const op = "close"
	log := slog.With("op", makeOp(p.opPrefix, op))
	log.Info("closing producer...")
	p.cl.Close()
	log.Info("producer is closed")
}

// produce encodes v and sends it keyed by key.
func (p producer) produce(ctx context.Context, key string, v any) error {
	const op = "produce"

	b, err := p.encoder.Encode(v)
	if err != nil {
		return opErr(err, p.opPrefix, op)
	}

	r := &kgo.Record{Key: []byte(key), Value: b}
	err = p.cl.ProduceSync(ctx, r).FirstErr()
	metrics.IncEventProduced(p.topic, err)
	if err != nil {
		return opErr(err, p.opPrefix, op)
	}
	return nil
}

// A ProductViewsProducer used for produce [domain.ProductView]
// keyed by username.
type ProductViewsProducer struct {
	producer producer
	opPrefix string
}

func NewProductViewsProducer(
	opts ...ProducerOpt,
) (ProductViewsProducer, error) {
	const op = "NewProductViewsProducer"
	opPrefix := "ProductViewsProducer"

	p, err := newProducer(opPrefix, opts...)
	if err != nil {
		return ProductViewsProducer{}, opErr(err, op)
	}
	return ProductViewsProducer{producer: p, opPrefix: opPrefix}, nil
}

func (p ProductViewsProducer) Close() {
	p.producer.close()
}

func (p ProductViewsProducer) ProduceView(
	ctx context.Context, v domain.ProductView,
) error {
	const op = "ProduceView"

	if err := ctx.Err(); err != nil {
		return opErr(err, p.opPrefix, op)
	}

	s := productViewToSchemaV1(v)
	if err := p.producer.produce(ctx, s.Username, s); err != nil {
		return opErr(err, p.opPrefix, op)
	}
	return nil
}

// A SearchQueriesProducer used for produce [domain.SearchQuery].
//
// Anonymous queries are keyed by event ID.
type SearchQueriesProducer struct {
	producer producer
	opPrefix string
}

func NewSearchQueriesProducer(
	opts ...ProducerOpt,
) (SearchQueriesProducer, error) {
	const op = "NewSearchQueriesProducer"
	opPrefix := "SearchQueriesProducer"

	p, err := newProducer(opPrefix, opts...)
	if err != nil {
		return SearchQueriesProducer{}, opErr(err, op)
	}
	return SearchQueriesProducer{producer: p, opPrefix: opPrefix}, nil
}

func (p SearchQueriesProducer) Close() {
	p.producer.close()
}

func (p SearchQueriesProducer) ProduceSearchQuery(
	ctx context.Context, v domain.SearchQuery,
) error {
	const op = "ProduceSearchQuery"

	if err := ctx.Err(); err != nil {
		return opErr(err, p.opPrefix, op)
	}

	s := searchQueryToSchemaV1(v)
	key := s.Username
	if key == "" {
		key = s.EventID
	}
	if err := p.producer.produce(ctx, key, s); err != nil {
		return opErr(err, p.opPrefix, op)
	}
	return nil
}
