package entity

// Denial is the value returned when the authorization gate rejects an
// operation. Denials are an expected, frequent outcome the caller branches
// on; they are never errors and never abort the transaction. The message is
// surfaced to the requester verbatim.
type Denial struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Unauthorised builds the standard denial value for msg.
func Unauthorised(msg string) *Denial {
	return &Denial{Status: "error", Message: msg}
}
