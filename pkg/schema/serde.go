package schema

import (
	"context"
	"errors"
	"fmt"

	"github.com/twmb/franz-go/pkg/sr"
)

var (
	ErrTooFewOpts = errors.New("too few options")
)

// Serde encodes records with the Confluent wire header of one registered
// schema and decodes any record registered with it.
type Serde interface {
	Encode(v any) ([]byte, error)
	Decode(data []byte, v any) error
	Subject() string
	ID() int
}

type serde struct {
	srSerde *sr.Serde
	subject string
	id      int
}

func (s serde) Encode(v any) ([]byte, error) {
	data, err := s.srSerde.Encode(v)
	if err != nil {
		return nil, fmt.Errorf("%s: encode: %w", s.subject, err)
	}
	return data, nil
}

func (s serde) Decode(data []byte, v any) error {
	if err := s.srSerde.Decode(data, v); err != nil {
		return fmt.Errorf("%s: decode: %w", s.subject, err)
	}
	return nil
}

func (s serde) Subject() string { return s.subject }

func (s serde) ID() int { return s.id }

type Opt func(*serdeOpts) error

type serdeOpts struct {
	subject string
	si      SchemaIdentifier
}

func SubjectOpt(subject string) Opt {
	return func(so *serdeOpts) error {
		if subject == "" {
			return errors.New("subject is empty string")
		}
		so.subject = subject
		return nil
	}
}

func SchemaIdentifierOpt(sc SchemaIdentifier) Opt {
	return func(so *serdeOpts) error {
		if sc == nil {
			return errors.New("schema identifier is nil")
		}
		so.si = sc
		return nil
	}
}

// TopicSubject names the value subject of topic.
func TopicSubject(topic string) string {
	return topic + "-value"
}

// NewSerdeProductV1 registers [ProductV1] under the subject and returns
// its serde. Both options are required.
func NewSerdeProductV1(ctx context.Context, opts ...Opt) (Serde, error) {
	const op = "NewSerdeProductV1"
	return newSerde(ctx, productDefV1, op, opts...)
}

// NewSerdeAvailabilityV1 is [NewSerdeProductV1] for [AvailabilityV1].
func NewSerdeAvailabilityV1(ctx context.Context, opts ...Opt) (Serde, error) {
	const op = "NewSerdeAvailabilityV1"
	return newSerde(ctx, availabilityDefV1, op, opts...)
}

func newSerde(
	ctx context.Context, def definition, op string, opts ...Opt,
) (Serde, error) {
	if len(opts) != 2 {
		return nil, fmt.Errorf("%s: %w", op, ErrTooFewOpts)
	}

	var so serdeOpts
	for _, o := range opts {
		if err := o(&so); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	id, err := so.si.DetermineID(ctx, so.subject, def.text)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	srSerde := new(sr.Serde)
	if err := def.register(srSerde, id); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return serde{srSerde: srSerde, subject: so.subject, id: id}, nil
}
