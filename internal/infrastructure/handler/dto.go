package handler

// ErrorResponse represents a standardized error response for the diagnostic routes
type ErrorResponse struct {
	Error       string `json:"error"`
	Status      int    `json:"status"`
	Description string `json:"description,omitempty"`
	RequestID   string `json:"request_id,omitempty"`
}

// CurrenciesResponse lists the currency codes the server can quote
type CurrenciesResponse struct {
	Base       string   `json:"base"`
	Currencies []string `json:"currencies"`
}
