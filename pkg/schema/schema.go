// Package schema holds the Avro records exchanged over Kafka and the
// schema registry serdes for them.
package schema

import (
	"fmt"

	"github.com/hamba/avro/v2"
	"github.com/twmb/franz-go/pkg/sr"
)

// A definition binds Avro schema text to the Go record it encodes.
type definition struct {
	name   string
	text   string
	record any
}

var (
	productDefV1      = definition{"ProductV1", ProductSchemaTextV1, ProductV1{}}
	availabilityDefV1 = definition{"AvailabilityV1", AvailabilitySchemaTextV1, AvailabilityV1{}}
)

// register adds the record type to srSerde under the registry id.
func (d definition) register(srSerde *sr.Serde, id int) error {
	s, err := avro.Parse(d.text)
	if err != nil {
		return fmt.Errorf("%s: %w", d.name, err)
	}

	srSerde.Register(
		id,
		d.record,
		sr.EncodeFn(func(v any) ([]byte, error) {
			return avro.Marshal(s, v)
		}),
		sr.DecodeFn(func(data []byte, v any) error {
			return avro.Unmarshal(s, data, v)
		}),
	)
	return nil
}
