package payment

import "context"

type BankAccount struct {
	BankName      string
	AccountNumber string
	AccountName   string
}

// BankTransferGateway makes no external call. The payer is shown the
// account details and the booking id as the transfer reference.
type BankTransferGateway struct {
	account BankAccount
}

func NewBankTransferGateway(account BankAccount) *BankTransferGateway {
	return &BankTransferGateway{account: account}
}

func (g *BankTransferGateway) Name() string {
	return GatewayBankTransfer
}

func (g *BankTransferGateway) CreateCheckout(_ context.Context, request *CheckoutRequest) (*CheckoutResult, error) {
	return &CheckoutResult{
		BankDetails: &BankDetails{
			BankName:      g.account.BankName,
			AccountNumber: g.account.AccountNumber,
			AccountName:   g.account.AccountName,
			Reference:     request.BookingID,
		},
	}, nil
}
