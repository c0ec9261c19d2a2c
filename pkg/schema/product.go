package schema

import "github.com/hamba/avro/v2"

// Prices are in paise.
const ProductSchemaTextV1 = `{
	"type": "record",
	"namespace": "shopwave.catalog",
	"name": "product",
	"fields" : [
		{"name": "id", "type": "long"},
		{"name": "name", "type": "string"},
		{"name": "brand", "type": "string"},
		{"name": "price", "type": "long"},
		{"name": "original_price", "type": "long"},
		{"name": "discount", "type": "int"},
		{"name": "rating", "type": "double"},
		{"name": "reviews", "type": "int"},
		{"name": "stock", "type": "int"},
		{"name": "category", "type": "string"},
		{"name": "badge", "type": "string", "default": ""},
		{"name": "image", "type": "string", "default": ""},
		{"name": "featured", "type": "boolean", "default": false}
	]
}`

type ProductV1 struct {
	ID            int64   `avro:"id"`
	Name          string  `avro:"name"`
	Brand         string  `avro:"brand"`
	Price         int64   `avro:"price"`
	OriginalPrice int64   `avro:"original_price"`
	Discount      int     `avro:"discount"`
	Rating        float64 `avro:"rating"`
	Reviews       int     `avro:"reviews"`
	Stock         int     `avro:"stock"`
	Category      string  `avro:"category"`
	Badge         string  `avro:"badge"`
	Image         string  `avro:"image"`
	Featured      bool    `avro:"featured"`
}

func ProductV1Avro() avro.Schema {
	return avro.MustParse(ProductSchemaTextV1)
}
