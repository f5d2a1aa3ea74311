package schema

import (
	"testing"
	"time"

	"github.com/hamba/avro/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemasParse(t *testing.T) {
	for name, fn := range map[string]func() avro.Schema{
		"ProductViewV1":    ProductViewV1Avro,
		"SearchQueryV1":    SearchQueryV1Avro,
		"ViewedProductsV1": ViewedProductsV1Avro,
	} {
		t.Run(name, func(t *testing.T) {
			assert.NotPanics(t, func() { fn() })
		})
	}
}

func TestSearchQueryV1(t *testing.T) {
	s := SearchQueryV1Avro()

	vMarshal := SearchQueryV1{
		EventID:    "e-1",
		Query:      "cashmere",
		Results:    2,
		SearchedAt: time.UnixMilli(1748736000000).UTC(),
	}

	data, err := avro.Marshal(s, vMarshal)
	require.NoError(t, err)

	var vUnmarshal SearchQueryV1
	require.NoError(t, avro.Unmarshal(s, data, &vUnmarshal))

	assert.Equal(t, vMarshal.EventID, vUnmarshal.EventID)
	assert.Empty(t, vUnmarshal.Username)
	assert.Equal(t, vMarshal.Query, vUnmarshal.Query)
	assert.Equal(t, vMarshal.Results, vUnmarshal.Results)
	assert.True(t, vMarshal.SearchedAt.Equal(vUnmarshal.SearchedAt))
}
