package api

// IssueRequest represents the request to issue a verification code
type IssueRequest struct {
	Email string `json:"email"`
}

// IssueResponse acknowledges issuance. The code itself is only ever
// delivered by email, never echoed back to the HTTP caller.
type IssueResponse struct {
	Message string `json:"message"`
}

// RedeemRequest represents the request to redeem a verification code
type RedeemRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// RedeemResponse acknowledges a successful redemption
type RedeemResponse struct {
	Message string `json:"message"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}
