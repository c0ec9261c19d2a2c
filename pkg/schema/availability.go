package schema

import "github.com/hamba/avro/v2"

const AvailabilitySchemaTextV1 = `{
	"type": "record",
	"namespace": "shopwave.catalog",
	"name": "availability",
	"fields" : [
		{"name": "product_id", "type": "long"},
		{"name": "active", "type": "boolean"}
	]
}`

type AvailabilityV1 struct {
	ProductID int64 `avro:"product_id"`
	Active    bool  `avro:"active"`
}

func AvailabilityV1Avro() avro.Schema {
	return avro.MustParse(AvailabilitySchemaTextV1)
}
