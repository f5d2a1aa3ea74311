package kafka

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/lovoo/goka"
	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/pkg/retry"
	"github.com/niksmo/storefront/pkg/schema"
	"github.com/twmb/franz-go/pkg/kgo"
)

var (
	ErrTooFewOpts       = errors.New("too few options")
	ErrInvalidValueType = errors.New("invalid value type")
)

type ProducerOpt func(*producerOpts) error

type producerOpts struct {
	cl      ProducerClient
	encoder Encoder
	topic   string
}

// ProducerClientOpt connects a producing client to the seed brokers.
// The TLS config is optional.
func ProducerClientOpt(
	ctx context.Context, seedBrokers []string, topic string, tlsConfig *tls.Config,
) ProducerOpt {
	return func(opts *producerOpts) error {
		kopts := []kgo.Opt{
			kgo.SeedBrokers(seedBrokers...),
			kgo.DefaultProduceTopicAlways(),
			kgo.DefaultProduceTopic(topic),
			kgo.RequiredAcks(kgo.AllISRAcks()),
		}
		if tlsConfig != nil {
			kopts = append(kopts, kgo.DialTLSConfig(tlsConfig))
		}

		cl, err := kgo.NewClient(kopts...)
		if err != nil {
			return err
		}

		if err := pingBrokers(ctx, cl); err != nil {
			cl.Close()
			return err
		}
		opts.cl = cl
		opts.topic = topic
		return nil
	}
}

// ProducerExistingClientOpt uses an already connected client.
func ProducerExistingClientOpt(cl ProducerClient, topic string) ProducerOpt {
	return func(opts *producerOpts) error {
		if cl == nil {
			return errors.New("client is nil")
		}
		opts.cl = cl
		opts.topic = topic
		return nil
	}
}

func ProducerEncoderOpt(encoder Encoder) ProducerOpt {
	return func(opts *producerOpts) error {
		if encoder == nil {
			return errors.New("encoder is nil")
		}
		opts.encoder = encoder
		return nil
	}
}

type pinger interface {
	Ping(ctx context.Context) error
}

var pingRetryConfig = retry.RetryConfig{
	MaxAttempts: 5,
	Backoff:     retry.ExponentialBackoff(100 * time.Millisecond),
}

// pingBrokers waits for any seed broker to answer.
func pingBrokers(ctx context.Context, p pinger) error {
	const op = "pingBrokers"

	err := retry.Do(ctx, pingRetryConfig, func() error {
		return p.Ping(ctx)
	})
	if err != nil {
		return opErr(fmt.Errorf("brokers are unavailable: %w", err), op)
	}
	return nil
}

type ProducerClient interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
	Close()
}

type Encoder interface {
	Encode(v any) ([]byte, error)
}

type Decoder interface {
	Decode(b []byte, v any) error
}

type Serde interface {
	Encoder
	Decoder
}

// ApplyTLS makes goka processors and views dial the brokers with TLS.
// A nil config leaves the global goka config untouched.
func ApplyTLS(tlsConfig *tls.Config) {
	if tlsConfig == nil {
		return
	}
	cfg := goka.DefaultConfig()
	cfg.Net.TLS.Enable = true
	cfg.Net.TLS.Config = tlsConfig
	goka.ReplaceGlobalConfig(cfg)
}

func withNonlogProcOpt() goka.ProcessorOption {
	return goka.WithLogger(log.New(io.Discard, "", 0))
}

func withNonlogViewOpt() goka.ViewOption {
	return goka.WithViewLogger(log.New(io.Discard, "", 0))
}

func makeOp(s ...string) string {
	return strings.Join(s, ".")
}

func opErr(err error, op ...string) error {
	return fmt.Errorf("%s: %w", makeOp(op...), err)
}

func productViewToSchemaV1(v domain.ProductView) (s schema.ProductViewV1) {
	s.EventID = v.EventID
	s.Username = v.Username
	s.ProductID = v.ProductID
	s.ViewedAt = v.ViewedAt.UTC()
	return
}

func searchQueryToSchemaV1(v domain.SearchQuery) (s schema.SearchQueryV1) {
	s.EventID = v.EventID
	s.Username = v.Username
	s.Query = v.Query
	s.Results = v.Results
	s.SearchedAt = v.SearchedAt.UTC()
	return
}
