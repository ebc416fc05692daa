package models

// Requests for the analysis HTTP endpoints. Defined in domain for
// consistency and reuse.

type BarsRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
	N      int    `query:"n" json:"n" default:"300" validate:"gte=1,lte=10000"`
	TF     string `query:"tf" json:"tf" default:"1d" validate:"oneof=1m 5m 15m 1h 1d 1wk"`
	// Optional bounded window (RFC3339 or unix seconds); overrides N.
	From string `query:"from" json:"from,omitempty"`
	To   string `query:"to" json:"to,omitempty"`
}

type IndicatorsRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
	TF     string `query:"tf" json:"tf" default:"1d" validate:"oneof=1m 5m 15m 1h 1d 1wk"`
}

type LevelsRequest struct {
	Symbol string   `query:"symbol" json:"symbol" validate:"required"`
	TFs    []string `query:"tfs" json:"tfs" default:"[\"1d\"]" validate:"min=1,dive,oneof=1m 5m 15m 1h 1d 1wk"`
}

type ScoreRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
	TF     string `query:"tf" json:"tf" default:"1d" validate:"oneof=1m 5m 15m 1h 1d 1wk"`
}

type ReportRequest struct {
	Symbol string   `query:"symbol" json:"symbol" validate:"required"`
	TFs    []string `query:"tfs" json:"tfs" default:"[\"1d\"]" validate:"min=1,dive,oneof=1m 5m 15m 1h 1d 1wk"`
}

type ScanRequest struct {
	Symbols []string `json:"symbols" validate:"required,min=1,max=200,dive,required"`
	TF      string   `json:"tf" default:"1d" validate:"oneof=1m 5m 15m 1h 1d 1wk"`
	Async   bool     `json:"async"`
}
