package schema_test

import (
	"context"
	"errors"
	"testing"

	"github.com/niksmo/shopwave/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/sr"
)

type MockSchemaIdentifier struct {
	mock.Mock
}

func (c *MockSchemaIdentifier) DetermineID(
	ctx context.Context, subject string, avroSchemaText string,
) (id int, err error) {
	args := c.Called(ctx, subject, avroSchemaText)
	return args.Int(0), args.Error(1)
}

func TestSerdeProductV1(t *testing.T) {

	t.Run("NoOpts", func(t *testing.T) {
		_, err := schema.NewSerdeProductV1(t.Context())
		require.Error(t, err)
		assert.ErrorIs(t, err, schema.ErrTooFewOpts)
	})

	t.Run("OneOpt", func(t *testing.T) {
		_, err := schema.NewSerdeProductV1(
			t.Context(),
			schema.SchemaIdentifierOpt(new(MockSchemaIdentifier)),
		)
		require.Error(t, err)
		assert.ErrorIs(t, err, schema.ErrTooFewOpts)
	})

	t.Run("EmptySubject", func(t *testing.T) {
		_, err := schema.NewSerdeProductV1(
			t.Context(),
			schema.SubjectOpt(""),
			schema.SchemaIdentifierOpt(new(MockSchemaIdentifier)),
		)
		require.Error(t, err)
	})

	t.Run("IdentifierFails", func(t *testing.T) {
		schemaIdentifier := new(MockSchemaIdentifier)
		registryErr := errors.New("registry unavailable")
		subject := schema.TopicSubject("catalog")

		schemaIdentifier.On(
			"DetermineID", t.Context(), subject, schema.ProductSchemaTextV1,
		).Return(0, registryErr)

		_, err := schema.NewSerdeProductV1(
			t.Context(),
			schema.SubjectOpt(subject),
			schema.SchemaIdentifierOpt(schemaIdentifier),
		)
		assert.ErrorIs(t, err, registryErr)
	})

	t.Run("EncodeDecode", func(t *testing.T) {
		schemaIdentifier := new(MockSchemaIdentifier)
		schemaID := 1
		subject := schema.TopicSubject("catalog")

		schemaIdentifier.On(
			"DetermineID", t.Context(), subject, schema.ProductSchemaTextV1,
		).Return(schemaID, nil)

		serde, err := schema.NewSerdeProductV1(
			t.Context(),
			schema.SubjectOpt(subject),
			schema.SchemaIdentifierOpt(schemaIdentifier),
		)
		require.NoError(t, err)

		productValue1 := schema.ProductV1{
			ID:            11,
			Name:          "Atomic Habits — James Clear",
			Brand:         "Penguin Books",
			Price:         399_00,
			OriginalPrice: 799_00,
			Discount:      50,
			Rating:        4.9,
			Reviews:       12456,
			Stock:         456,
			Category:      "Books",
			Image:         "📖",
		}

		encodedData, err := serde.Encode(productValue1)
		require.NoError(t, err)

		var header sr.ConfluentHeader
		id, _, err := header.DecodeID(encodedData)
		require.NoError(t, err)
		assert.Equal(t, schemaID, id)

		var productValue2 schema.ProductV1
		err = serde.Decode(encodedData, &productValue2)
		require.NoError(t, err)

		assert.Equal(t, productValue1, productValue2)
		assert.Equal(t, subject, serde.Subject())
		assert.Equal(t, schemaID, serde.ID())
	})
}

func TestSerdeAvailabilityV1(t *testing.T) {
	schemaIdentifier := new(MockSchemaIdentifier)
	subject := schema.TopicSubject("availability")

	schemaIdentifier.On(
		"DetermineID", t.Context(), subject, schema.AvailabilitySchemaTextV1,
	).Return(2, nil)

	serde, err := schema.NewSerdeAvailabilityV1(
		t.Context(),
		schema.SubjectOpt(subject),
		schema.SchemaIdentifierOpt(schemaIdentifier),
	)
	require.NoError(t, err)

	v1 := schema.AvailabilityV1{ProductID: 3, Active: false}
	data, err := serde.Encode(v1)
	require.NoError(t, err)

	var v2 schema.AvailabilityV1
	require.NoError(t, serde.Decode(data, &v2))
	assert.Equal(t, v1, v2)

	err = serde.Decode([]byte{1, 2}, &v2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), subject)
}
