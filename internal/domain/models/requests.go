package models

// LogRequest filters the detection log query.
type LogRequest struct {
	From  string `query:"from"`
	To    string `query:"to"`
	Limit int    `query:"limit" default:"500" validate:"gte=1,lte=10000"`
}
