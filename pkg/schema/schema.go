package schema

import (
	"context"

	"github.com/hamba/avro/v2"
	"github.com/twmb/franz-go/pkg/sr"
)

func AvroEncodeFn(s avro.Schema) func(v any) ([]byte, error) {
	return func(v any) ([]byte, error) {
		return avro.Marshal(s, v)
	}
}

func AvroDecodeFn(s avro.Schema) func([]byte, any) error {
	return func(data []byte, v any) error {
		return avro.Unmarshal(s, data, v)
	}
}

// A SchemaIdentifier resolves the registry ID of the schema text
// under the subject.
type SchemaIdentifier interface {
	DetermineID(ctx context.Context, subject, schemaText string) (int, error)
}

// A SchemaCreater is satisfied by [*sr.Client].
type SchemaCreater interface {
	CreateSchema(
		ctx context.Context, subject string, s sr.Schema,
	) (sr.SubjectSchema, error)
}

// A RegistryIdentifier registers avro schemas in the schema registry.
// Registering an existing schema returns its ID.
type RegistryIdentifier struct {
	sc SchemaCreater
}

func NewRegistryIdentifier(sc SchemaCreater) RegistryIdentifier {
	return RegistryIdentifier{sc}
}

func (r RegistryIdentifier) DetermineID(
	ctx context.Context, subject, schemaText string,
) (int, error) {
	ss, err := r.sc.CreateSchema(ctx, subject, sr.Schema{
		Type:   sr.TypeAvro,
		Schema: schemaText,
	})
	if err != nil {
		return 0, err
	}
	return ss.ID, nil
}
