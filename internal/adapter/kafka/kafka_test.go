package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/hamba/avro/v2"
	"github.com/niksmo/shopwave/internal/core/domain"
	"github.com/niksmo/shopwave/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"
)

type avroSerde struct {
	s avro.Schema
}

func (s avroSerde) Encode(v any) ([]byte, error) {
	return avro.Marshal(s.s, v)
}

func (s avroSerde) Decode(b []byte, v any) error {
	return avro.Unmarshal(s.s, b, v)
}

type fakeConsumerClient struct {
	polls   []kgo.Fetches
	commits int
	closed  bool
}

func (c *fakeConsumerClient) PollFetches(context.Context) kgo.Fetches {
	if len(c.polls) == 0 {
		return kgo.Fetches{}
	}
	f := c.polls[0]
	c.polls = c.polls[1:]
	return f
}

func (c *fakeConsumerClient) CommitUncommittedOffsets(context.Context) error {
	c.commits++
	return nil
}

func (c *fakeConsumerClient) Close() { c.closed = true }

type fakeProducerClient struct {
	records []*kgo.Record
	err     error
	closed  bool
}

func (c *fakeProducerClient) ProduceSync(
	_ context.Context, rs ...*kgo.Record,
) kgo.ProduceResults {
	c.records = append(c.records, rs...)
	res := make(kgo.ProduceResults, 0, len(rs))
	for _, r := range rs {
		res = append(res, kgo.ProduceResult{Record: r, Err: c.err})
	}
	return res
}

func (c *fakeProducerClient) Close() { c.closed = true }

type MockSaver struct {
	mock.Mock
}

func (m *MockSaver) SaveProducts(ctx context.Context, ps []domain.Product) error {
	args := m.Called(ctx, ps)
	return args.Error(0)
}

func fetchesOf(rs ...*kgo.Record) kgo.Fetches {
	return kgo.Fetches{{
		Topics: []kgo.FetchTopic{{
			Topic: "catalog",
			Partitions: []kgo.FetchPartition{{
				Partition: 0,
				Records:   rs,
			}},
		}},
	}}
}

func productRecord(t *testing.T, s Serde, p domain.Product) *kgo.Record {
	t.Helper()
	b, err := s.Encode(productToSchemaV1(p))
	require.NoError(t, err)
	return &kgo.Record{Key: []byte(productKey(p.ID)), Value: b}
}

func newTestConsumer(
	t *testing.T, cl ConsumerClient, saver *MockSaver,
) CatalogConsumer {
	t.Helper()
	clientOpt := func(co *consumerOpts) error {
		co.cl = cl
		return nil
	}
	serde := avroSerde{schema.ProductV1Avro()}
	c, err := NewCatalogConsumer(
		clientOpt,
		ConsumerDecoderOpt(serde),
		ConsumerProductsSaverOpt(saver),
	)
	require.NoError(t, err)
	return c
}

var (
	shoes = domain.Product{
		ID: 1, Name: "Nike Air Max 720", Brand: "Nike", Price: 9_999_00,
		OriginalPrice: 12_995_00, Discount: 23, Rating: 4.5, Reviews: 120,
		Stock: 3, Category: "Sports", Badge: "Hot", Featured: true,
	}
	phone = domain.Product{
		ID: 2, Name: "Galaxy S24", Brand: "Samsung", Price: 79_999_00,
		Category: "Electronics", Stock: 10,
	}
)

func TestCatalogConsumer(t *testing.T) {
	serde := avroSerde{schema.ProductV1Avro()}

	t.Run("Accumulates", func(t *testing.T) {
		renamed := shoes
		renamed.Name = "Nike Air Max 90"

		cl := &fakeConsumerClient{polls: []kgo.Fetches{
			fetchesOf(
				productRecord(t, serde, shoes),
				productRecord(t, serde, phone),
			),
			fetchesOf(
				productRecord(t, serde, renamed),
				&kgo.Record{Key: []byte(productKey(phone.ID))},
			),
		}}
		saver := new(MockSaver)
		saver.On("SaveProducts", mock.Anything, []domain.Product{shoes, phone}).
			Return(nil).Once()
		saver.On("SaveProducts", mock.Anything, []domain.Product{renamed}).
			Return(nil).Once()

		c := newTestConsumer(t, cl, saver)
		require.NoError(t, c.consumer.consume(t.Context()))
		require.NoError(t, c.consumer.consume(t.Context()))

		saver.AssertExpectations(t)
		assert.Equal(t, 2, cl.commits)
	})

	t.Run("EmptyPoll", func(t *testing.T) {
		cl := &fakeConsumerClient{}
		saver := new(MockSaver)

		c := newTestConsumer(t, cl, saver)
		require.NoError(t, c.consumer.consume(t.Context()))

		saver.AssertNotCalled(t, "SaveProducts", mock.Anything, mock.Anything)
		assert.Zero(t, cl.commits)
	})

	t.Run("SkipsUndecodable", func(t *testing.T) {
		cl := &fakeConsumerClient{polls: []kgo.Fetches{
			fetchesOf(
				&kgo.Record{Key: []byte("9"), Value: []byte{0xff}},
				productRecord(t, serde, phone),
			),
		}}
		saver := new(MockSaver)
		saver.On("SaveProducts", mock.Anything, []domain.Product{phone}).
			Return(nil).Once()

		c := newTestConsumer(t, cl, saver)
		require.NoError(t, c.consumer.consume(t.Context()))
		saver.AssertExpectations(t)
	})

	t.Run("SaverFails", func(t *testing.T) {
		cl := &fakeConsumerClient{polls: []kgo.Fetches{
			fetchesOf(productRecord(t, serde, shoes)),
		}}
		saver := new(MockSaver)
		saver.On("SaveProducts", mock.Anything, mock.Anything).
			Return(errors.New("boom")).Once()

		c := newTestConsumer(t, cl, saver)
		require.Error(t, c.consumer.consume(t.Context()))
		assert.Zero(t, cl.commits)
	})

	t.Run("FetchError", func(t *testing.T) {
		f := fetchesOf()
		f[0].Topics[0].Partitions[0].Err = errors.New("broker down")
		cl := &fakeConsumerClient{polls: []kgo.Fetches{f}}
		saver := new(MockSaver)

		c := newTestConsumer(t, cl, saver)
		require.Error(t, c.consumer.consume(t.Context()))
		saver.AssertNotCalled(t, "SaveProducts", mock.Anything, mock.Anything)
	})

	t.Run("Close", func(t *testing.T) {
		cl := &fakeConsumerClient{}
		c := newTestConsumer(t, cl, new(MockSaver))
		c.Close()
		assert.True(t, cl.closed)
	})

	t.Run("TooFewOpts", func(t *testing.T) {
		assert.Panics(t, func() {
			_, _ = NewCatalogConsumer(ConsumerDecoderOpt(serde))
		})
	})
}

func TestCatalogProducer(t *testing.T) {
	serde := avroSerde{schema.ProductV1Avro()}

	newProducer := func(t *testing.T, cl ProducerClient) CatalogProducer {
		t.Helper()
		clientOpt := func(po *producerOpts) error {
			po.cl = cl
			return nil
		}
		p, err := NewCatalogProducer(clientOpt, ProducerEncoderOpt(serde))
		require.NoError(t, err)
		return p
	}

	t.Run("ProduceProducts", func(t *testing.T) {
		cl := &fakeProducerClient{}
		p := newProducer(t, cl)

		err := p.ProduceProducts(t.Context(), []domain.Product{shoes, phone})
		require.NoError(t, err)
		require.Len(t, cl.records, 2)
		assert.Equal(t, "1", string(cl.records[0].Key))
		assert.Equal(t, "2", string(cl.records[1].Key))

		var got schema.ProductV1
		require.NoError(t, serde.Decode(cl.records[0].Value, &got))
		assert.Equal(t, shoes, schemaV1ToProduct(got))
	})

	t.Run("Empty", func(t *testing.T) {
		cl := &fakeProducerClient{}
		p := newProducer(t, cl)
		require.NoError(t, p.ProduceProducts(t.Context(), nil))
		assert.Empty(t, cl.records)
	})

	t.Run("BrokerError", func(t *testing.T) {
		cl := &fakeProducerClient{err: errors.New("not leader")}
		p := newProducer(t, cl)
		err := p.ProduceProducts(t.Context(), []domain.Product{shoes})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "CatalogProducer.ProduceProducts")
	})

	t.Run("CanceledContext", func(t *testing.T) {
		cl := &fakeProducerClient{}
		p := newProducer(t, cl)
		ctx, cancel := context.WithCancel(t.Context())
		cancel()
		err := p.ProduceProducts(ctx, []domain.Product{shoes})
		require.ErrorIs(t, err, context.Canceled)
		assert.Empty(t, cl.records)
	})

	t.Run("DeleteProducts", func(t *testing.T) {
		cl := &fakeProducerClient{}
		p := newProducer(t, cl)
		require.NoError(t, p.DeleteProducts(t.Context(), 7))
		require.Len(t, cl.records, 1)
		assert.Equal(t, "7", string(cl.records[0].Key))
		assert.Nil(t, cl.records[0].Value)
	})

	t.Run("Close", func(t *testing.T) {
		cl := &fakeProducerClient{}
		newProducer(t, cl).Close()
		assert.True(t, cl.closed)
	})
}

func TestCodecs(t *testing.T) {
	t.Run("ActiveValue", func(t *testing.T) {
		var c activeValueCodec
		b, err := c.Encode(activeValue(false))
		require.NoError(t, err)
		v, err := c.Decode(b)
		require.NoError(t, err)
		assert.Equal(t, activeValue(false), v)

		_, err = c.Encode(true)
		require.ErrorIs(t, err, ErrInvalidValueType)

		_, err = c.Decode([]byte("maybe"))
		require.Error(t, err)
	})

	t.Run("AvailabilityEvent", func(t *testing.T) {
		c := newAvailabilityEventCodec(avroSerde{schema.AvailabilityV1Avro()})
		in := toAvailabilitySchema(domain.ProductAvailability{
			ProductID: 42, Active: true,
		})
		b, err := c.Encode(in)
		require.NoError(t, err)
		out, err := c.Decode(b)
		require.NoError(t, err)
		assert.Equal(t, in, out)

		_, err = c.Encode(domain.ProductAvailability{})
		require.ErrorIs(t, err, ErrInvalidValueType)
	})
}

func TestProductKey(t *testing.T) {
	id, err := parseProductKey(productKey(1234567890123))
	require.NoError(t, err)
	assert.Equal(t, int64(1234567890123), id)

	_, err = parseProductKey("sku-1")
	require.Error(t, err)
}
