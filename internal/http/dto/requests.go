package dto

// CheckoutRequest opens a payment session for already-pinned media.
type CheckoutRequest struct {
	OutputType  string            `json:"output_type"`
	BuyerWallet string            `json:"buyer_wallet"`
	Mode        string            `json:"mode,omitempty"`
	Speed       string            `json:"speed,omitempty"`
	FileURI     string            `json:"file_uri"`
	Answers     map[string]string `json:"answers,omitempty"`
}
