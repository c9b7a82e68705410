package models

// Requests for advisor HTTP endpoints. Defined in domain for consistency and reuse.

type TrainRequest struct {
	Source string `json:"source" default:"clickhouse" validate:"oneof=clickhouse file"`
	Market string `json:"market"`
	From   string `json:"from"`
	To     string `json:"to"`
	Path   string `json:"path"`
	Limit  int    `json:"limit" default:"50000" validate:"gte=30,lte=500000"`
	Async  bool   `json:"async"`
}

// PredictRequest carries either explicit records or a market to pull the
// latest stored history from. Window only applies to the market form.
type PredictRequest struct {
	Records []SaleRecordPayload `json:"records" validate:"omitempty,dive"`
	Market  string              `json:"market"`
	Window  int                 `json:"window" default:"60" validate:"gte=0,lte=5000"`
}

// SaleRecordPayload is the wire form of a sale record.
type SaleRecordPayload struct {
	Date   string  `json:"date" validate:"required"`
	Price  float64 `json:"price" validate:"gte=0"`
	Weight float64 `json:"weight" validate:"gte=0"`
	Age    float64 `json:"age" validate:"gte=0"`
	Breed  string  `json:"breed"`
	Season string  `json:"season"`
	Market string  `json:"market"`
}

type TrendRequest struct {
	Market string `query:"market" json:"market"`
	From   string `query:"from" json:"from"`
	To     string `query:"to" json:"to"`
}

type RecordsRequest struct {
	Market string `query:"market" json:"market" validate:"required"`
	From   string `query:"from" json:"from"`
	To     string `query:"to" json:"to"`
	Limit  int    `query:"limit" json:"limit" default:"10000" validate:"gte=1,lte=50000"`
}
