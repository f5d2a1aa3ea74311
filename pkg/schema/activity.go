package schema

import (
	"time"

	"github.com/hamba/avro/v2"
)

const ProductViewSchemaTextV1 = `{
	"type": "record",
	"namespace": "storefront.activity",
	"name": "product_view",
	"fields": [
		{"name": "event_id", "type": "string"},
		{"name": "username", "type": "string"},
		{"name": "product_id", "type": "string"},
		{"name": "viewed_at", "type": {"type": "long", "logicalType": "timestamp-millis"}}
	]
}`

const SearchQuerySchemaTextV1 = `{
	"type": "record",
	"namespace": "storefront.activity",
	"name": "search_query",
	"fields": [
		{"name": "event_id", "type": "string"},
		{"name": "username", "type": "string"},
		{"name": "query", "type": "string"},
		{"name": "results", "type": "int"},
		{"name": "searched_at", "type": {"type": "long", "logicalType": "timestamp-millis"}}
	]
}`

const ViewedProductsSchemaTextV1 = `{
	"type": "record",
	"namespace": "storefront.activity",
	"name": "viewed_products",
	"fields": [
		{"name": "product_ids", "type": {"type": "array", "items": "string"}}
	]
}`

type (
	ProductViewV1 struct {
		EventID   string    `avro:"event_id"`
		Username  string    `avro:"username"`
		ProductID string    `avro:"product_id"`
		ViewedAt  time.Time `avro:"viewed_at"`
	}

	SearchQueryV1 struct {
		EventID    string    `avro:"event_id"`
		Username   string    `avro:"username"`
		Query      string    `avro:"query"`
		Results    int       `avro:"results"`
		SearchedAt time.Time `avro:"searched_at"`
	}

	// ViewedProductsV1 is the per-user group table value,
	// oldest view first.
	ViewedProductsV1 struct {
		ProductIDs []string `avro:"product_ids"`
	}
)

func ProductViewV1Avro() avro.Schema {
	return avro.MustParse(ProductViewSchemaTextV1)
}

func SearchQueryV1Avro() avro.Schema {
	return avro.MustParse(SearchQuerySchemaTextV1)
}

func ViewedProductsV1Avro() avro.Schema {
	return avro.MustParse(ViewedProductsSchemaTextV1)
}
