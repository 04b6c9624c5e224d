package satu

// ordersSchema is the shape contract for the orders-list response.
// Orders themselves stay loosely typed here; per-order problems are
// handled during mapping, not at the transport layer.
const ordersSchema = `{
	"type": "object",
	"required": ["orders"],
	"properties": {
		"orders": {
			"type": "array",
			"items": {"type": "object"}
		}
	}
}`
