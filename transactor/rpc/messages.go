package rpc

// Transaction is one operation of a request. Type is the numeric tag
// 0 deposit, 1 withdrawal, 2 dispute, 3 resolve, 4 chargeback. An empty
// Amount means the operation carries no amount.
type Transaction struct {
	Type   int32  `json:"type"`
	Client uint32 `json:"client"`
	Tx     uint32 `json:"tx"`
	Amount string `json:"amount,omitempty"`
}

// Transactions is the request of processor.Process/Process.
type Transactions struct {
	Transactions []Transaction `json:"transactions"`
}

// Account is the final state of one client.
type Account struct {
	Client    uint32 `json:"client"`
	Available string `json:"available"`
	Held      string `json:"held"`
	Total     string `json:"total"`
	Locked    bool   `json:"locked"`
}

// Rejection is an operation the ledger refused.
type Rejection struct {
	Index   int32  `json:"index"`
	Client  uint32 `json:"client"`
	Tx      uint32 `json:"tx"`
	Type    int32  `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Accounts is the response of processor.Process/Process, sorted by client.
type Accounts struct {
	Accounts   []Account   `json:"accounts"`
	Rejections []Rejection `json:"rejections,omitempty"`
}
