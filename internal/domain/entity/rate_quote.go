package entity

// DateLayout is the wire format of quote dates and historical endpoint paths
const DateLayout = "2006-01-02"

// DefaultBase is the base currency label reported when the client does not ask for one
const DefaultBase = "EUR"

// RateQuote represents the exchange rate payload returned for a single request
type RateQuote struct {
	Success   bool               `json:"success"`
	Timestamp int64              `json:"timestamp"`
	Base      string             `json:"base"`
	Date      string             `json:"date"`
	Rates     map[string]float64 `json:"rates"`
}
