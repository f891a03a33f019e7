package models

// Customer is a ledger account holder, keyed by CPF.
type Customer struct {
	ID        string      `json:"id"`
	CPF       string      `json:"cpf"`
	Name      string      `json:"name"`
	Statement []Operation `json:"statement"`
}

// Clone returns a copy that shares no statement storage with c.
func (c *Customer) Clone() *Customer {
	cp := *c
	cp.Statement = make([]Operation, len(c.Statement))
	copy(cp.Statement, c.Statement)
	return &cp
}

type CreateAccountRequest struct {
	CPF  string `json:"cpf"`
	Name string `json:"name"`
}

type UpdateAccountRequest struct {
	Name string `json:"name"`
}
