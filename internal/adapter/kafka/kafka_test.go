package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/lovoo/goka"
	"github.com/lovoo/goka/tester"
	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"
)

// jsonSerde stands in for the schema registry serde.
type jsonSerde struct{}

func (jsonSerde) Encode(v any) ([]byte, error) { return json.Marshal(v) }
func (jsonSerde) Decode(b []byte, v any) error { return json.Unmarshal(b, v) }

type MockProducerClient struct {
	mock.Mock
}

func (m *MockProducerClient) ProduceSync(
	ctx context.Context, rs ...*kgo.Record,
) kgo.ProduceResults {
	args := m.Called(ctx, rs)
	return args.Get(0).(kgo.ProduceResults)
}

func (m *MockProducerClient) Close() {
	m.Called()
}

func recordsMatch(key string, check func(b []byte) bool) any {
	return mock.MatchedBy(func(rs []*kgo.Record) bool {
		return len(rs) == 1 && string(rs[0].Key) == key && check(rs[0].Value)
	})
}

func TestProductViewsProducer(t *testing.T) {
	viewedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	view := domain.ProductView{
		EventID: "evt-1", Username: "alice", ProductID: "p-dress", ViewedAt: viewedAt,
	}

	t.Run("TooFewOpts", func(t *testing.T) {
		assert.Panics(t, func() {
			_, _ = NewProductViewsProducer(ProducerEncoderOpt(jsonSerde{}))
		})
	})

	t.Run("NilEncoder", func(t *testing.T) {
		_, err := NewProductViewsProducer(
			ProducerExistingClientOpt(new(MockProducerClient), "product-views"),
			ProducerEncoderOpt(nil),
		)
		require.Error(t, err)
	})

	t.Run("KeyedByUsername", func(t *testing.T) {
		cl := new(MockProducerClient)
		cl.On("ProduceSync", mock.Anything, recordsMatch("alice", func(b []byte) bool {
			var s schema.ProductViewV1
			return json.Unmarshal(b, &s) == nil &&
				s.ProductID == "p-dress" && s.EventID == "evt-1" && s.ViewedAt.Equal(viewedAt)
		})).Return(kgo.ProduceResults{{}})
		cl.On("Close").Return()

		p, err := NewProductViewsProducer(
			ProducerExistingClientOpt(cl, "product-views"),
			ProducerEncoderOpt(jsonSerde{}),
		)
		require.NoError(t, err)

		require.NoError(t, p.ProduceView(t.Context(), view))
		p.Close()
		cl.AssertExpectations(t)
	})

	t.Run("BrokerFailure", func(t *testing.T) {
		errBroker := errors.New("not enough replicas")
		cl := new(MockProducerClient)
		cl.On("ProduceSync", mock.Anything, mock.Anything).
			Return(kgo.ProduceResults{{Err: errBroker}})

		p, err := NewProductViewsProducer(
			ProducerExistingClientOpt(cl, "product-views"),
			ProducerEncoderOpt(jsonSerde{}),
		)
		require.NoError(t, err)

		err = p.ProduceView(t.Context(), view)
		require.ErrorIs(t, err, errBroker)
	})

	t.Run("CanceledContext", func(t *testing.T) {
		p, err := NewProductViewsProducer(
			ProducerExistingClientOpt(new(MockProducerClient), "product-views"),
			ProducerEncoderOpt(jsonSerde{}),
		)
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(t.Context())
		cancel()
		require.ErrorIs(t, p.ProduceView(ctx, view), context.Canceled)
	})
}

func TestSearchQueriesProducer(t *testing.T) {
	newProducer := func(t *testing.T, key string) *MockProducerClient {
		cl := new(MockProducerClient)
		cl.On("ProduceSync", mock.Anything, recordsMatch(key, func(b []byte) bool {
			var s schema.SearchQueryV1
			return json.Unmarshal(b, &s) == nil && s.Query == "silk" && s.Results == 1
		})).Return(kgo.ProduceResults{{}})
		t.Cleanup(func() { cl.AssertExpectations(t) })
		return cl
	}

	tests := []struct {
		name     string
		username string
		wantKey  string
	}{
		{"KnownUser", "alice", "alice"},
		{"Anonymous", "", "evt-9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cl := newProducer(t, tt.wantKey)
			p, err := NewSearchQueriesProducer(
				ProducerExistingClientOpt(cl, "search-queries"),
				ProducerEncoderOpt(jsonSerde{}),
			)
			require.NoError(t, err)

			err = p.ProduceSearchQuery(t.Context(), domain.SearchQuery{
				EventID: "evt-9", Username: tt.username, Query: "silk", Results: 1,
			})
			require.NoError(t, err)
		})
	}
}

func TestAppendViewed(t *testing.T) {
	tests := []struct {
		name  string
		ids   []string
		id    string
		limit int
		want  []string
	}{
		{"First", nil, "a", 3, []string{"a"}},
		{"Appends", []string{"a", "b"}, "c", 3, []string{"a", "b", "c"}},
		{"KeepsFirstAppearance", []string{"a", "b"}, "a", 3, []string{"a", "b"}},
		{"DropsOldest", []string{"a", "b", "c"}, "d", 3, []string{"b", "c", "d"}},
		{"Unbounded", []string{"a", "b", "c"}, "d", 0, []string{"a", "b", "c", "d"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, appendViewed(tt.ids, tt.id, tt.limit))
		})
	}

	t.Run("NoAliasing", func(t *testing.T) {
		backing := make([]string, 2, 8)
		backing[0], backing[1] = "a", "b"
		_ = appendViewed(backing, "c", 0)
		assert.Equal(t, []string{"a", "b"}, backing[:2])
		assert.Empty(t, backing[2:3][0])
	})
}

func TestCodecs(t *testing.T) {
	t.Run("ProductViewWrongType", func(t *testing.T) {
		_, err := productViewCodec{jsonSerde{}}.Encode("view")
		require.ErrorIs(t, err, ErrInvalidValueType)
	})

	t.Run("ViewedProductsRoundTrip", func(t *testing.T) {
		c := viewedProductsCodec{jsonSerde{}}
		b, err := c.Encode(schema.ViewedProductsV1{ProductIDs: []string{"a", "b"}})
		require.NoError(t, err)

		v, err := c.Decode(b)
		require.NoError(t, err)
		assert.Equal(t, schema.ViewedProductsV1{ProductIDs: []string{"a", "b"}}, v)
	})

	t.Run("ViewedProductsBadData", func(t *testing.T) {
		_, err := viewedProductsCodec{jsonSerde{}}.Decode([]byte("{"))
		require.Error(t, err)
	})
}

func TestActivityProcessor(t *testing.T) {
	const (
		stream = "product-views"
		group  = "activity"
	)

	gkt := tester.New(t)
	proc, err := NewActivityProc(ActivityProcessorConfig{
		SeedBrokers: []string{},
		InputStream: stream,
		Group:       group,
		ViewSerde:   jsonSerde{},
		TableSerde:  jsonSerde{},
		MaxViewed:   2,
	}, goka.WithTester(gkt))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(t.Context())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = proc.proc.gp.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		wg.Wait()
	})

	view := func(productID string) schema.ProductViewV1 {
		return schema.ProductViewV1{EventID: "e", Username: "alice", ProductID: productID}
	}

	gkt.Consume(stream, "alice", view("p-1"))
	gkt.Consume(stream, "alice", view("p-2"))
	gkt.Consume(stream, "alice", view("p-1"))
	gkt.Consume(stream, "bob", view("p-9"))
	gkt.Consume(stream, "alice", view("p-3"))

	table := goka.GroupTable(goka.Group(group))
	assert.Equal(t,
		schema.ViewedProductsV1{ProductIDs: []string{"p-2", "p-3"}},
		gkt.TableValue(table, "alice"),
	)
	assert.Equal(t,
		schema.ViewedProductsV1{ProductIDs: []string{"p-9"}},
		gkt.TableValue(table, "bob"),
	)
}

func TestActivityView(t *testing.T) {
	const group = "activity"

	gkt := tester.New(t)
	view, err := NewActivityView(ActivityViewConfig{
		SeedBrokers: []string{},
		Group:       group,
		TableSerde:  jsonSerde{},
	}, goka.WithViewTester(gkt))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(t.Context())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		view.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		wg.Wait()
	})
	require.Eventually(t, view.gv.Recovered, 5*time.Second, 10*time.Millisecond)

	table := goka.GroupTable(goka.Group(group))
	gkt.SetTableValue(table, "alice",
		schema.ViewedProductsV1{ProductIDs: []string{"p-2", "p-1", "p-3"}},
	)

	t.Run("StoredOrder", func(t *testing.T) {
		got, err := view.ViewedProducts(t.Context(), "alice")
		require.NoError(t, err)
		assert.Equal(t, []string{"p-2", "p-1", "p-3"}, got)
	})

	t.Run("UnknownUser", func(t *testing.T) {
		got, err := view.ViewedProducts(t.Context(), "nobody")
		require.NoError(t, err)
		assert.Equal(t, []string{}, got)
	})

	t.Run("CanceledContext", func(t *testing.T) {
		ctx, cancel := context.WithCancel(t.Context())
		cancel()
		_, err := view.ViewedProducts(ctx, "alice")
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestViewedIDs(t *testing.T) {
	tests := []struct {
		name    string
		value   any
		want    []string
		wantErr error
	}{
		{"Nil", nil, []string{}, nil},
		{"NoIDs", schema.ViewedProductsV1{}, []string{}, nil},
		{"IDs", schema.ViewedProductsV1{ProductIDs: []string{"a", "b"}}, []string{"a", "b"}, nil},
		{"WrongType", []string{"a"}, nil, ErrInvalidValueType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := viewedIDs(tt.value)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("Copies", func(t *testing.T) {
		ids := []string{"a", "b"}
		got, err := viewedIDs(schema.ViewedProductsV1{ProductIDs: ids})
		require.NoError(t, err)
		got[0] = "z"
		assert.Equal(t, "a", ids[0])
	})
}

type fakePinger struct {
	failures int
	calls    int
}

func (p *fakePinger) Ping(context.Context) error {
	p.calls++
	if p.calls <= p.failures {
		return errors.New("connection refused")
	}
	return nil
}

func TestPingBrokers(t *testing.T) {
	t.Run("RecoversAfterFailures", func(t *testing.T) {
		p := &fakePinger{failures: 2}
		require.NoError(t, pingBrokers(t.Context(), p))
		assert.Equal(t, 3, p.calls)
	})

	t.Run("CanceledContext", func(t *testing.T) {
		ctx, cancel := context.WithCancel(t.Context())
		cancel()
		p := &fakePinger{}
		require.ErrorIs(t, pingBrokers(ctx, p), context.Canceled)
		assert.Zero(t, p.calls)
	})
}
