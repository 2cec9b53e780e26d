package config

import (
	"time"
)

const (
	billplzSandboxURL   = "https://www.billplz-sandbox.com/api"
	billplzLiveURL      = "https://www.billplz.com/api"
	bayarcashSandboxURL = "https://console.bayarcash-sandbox.com/api/v2"
	bayarcashLiveURL    = "https://console.bayar.cash/api/v2"
)

type PaymentConfig struct {
	Billplz      *BillplzConfig      `yaml:"billplz"`
	Stripe       *StripeConfig       `yaml:"stripe"`
	Bayarcash    *BayarcashConfig    `yaml:"bayarcash"`
	BankTransfer *BankTransferConfig `yaml:"bank_transfer"`
	MinAmount    string              `yaml:"min_amount"`
}

type BillplzConfig struct {
	APIKey        string        `yaml:"api_key"`
	CollectionID  string        `yaml:"collection_id"`
	XSignatureKey string        `yaml:"x_signature_key"`
	Sandbox       bool          `yaml:"sandbox"`
	BaseURL       string        `yaml:"base_url"`
	Timeout       time.Duration `yaml:"timeout"`
	QueryTimeout  time.Duration `yaml:"query_timeout"`
}

type StripeConfig struct {
	SecretKey     string        `yaml:"secret_key"`
	WebhookSecret string        `yaml:"webhook_secret"`
	Currency      string        `yaml:"currency"`
	Timeout       time.Duration `yaml:"timeout"`
}

type BayarcashConfig struct {
	APIToken  string        `yaml:"api_token"`
	PortalKey string        `yaml:"portal_key"`
	APISecret string        `yaml:"api_secret"`
	Sandbox   bool          `yaml:"sandbox"`
	BaseURL   string        `yaml:"base_url"`
	Timeout   time.Duration `yaml:"timeout"`
}

type BankTransferConfig struct {
	BankName      string `yaml:"bank_name"`
	AccountNumber string `yaml:"account_number"`
	AccountName   string `yaml:"account_name"`
}

func loadPaymentConfig() *PaymentConfig {
	billplzSandbox := getEnvAsBool("BILLPLZ_SANDBOX", true)
	billplzURL := billplzLiveURL
	if billplzSandbox {
		billplzURL = billplzSandboxURL
	}

	bayarcashSandbox := getEnvAsBool("BAYARCASH_SANDBOX", true)
	bayarcashURL := bayarcashLiveURL
	if bayarcashSandbox {
		bayarcashURL = bayarcashSandboxURL
	}

	return &PaymentConfig{
		Billplz: &BillplzConfig{
			APIKey:        getEnv("BILLPLZ_API_KEY", ""),
			CollectionID:  getEnv("BILLPLZ_COLLECTION_ID", ""),
			XSignatureKey: getEnv("BILLPLZ_X_SIGNATURE_KEY", ""),
			Sandbox:       billplzSandbox,
			BaseURL:       getEnv("BILLPLZ_BASE_URL", billplzURL),
			Timeout:       getEnvAsDuration("BILLPLZ_TIMEOUT", 10*time.Second),
			QueryTimeout:  getEnvAsDuration("BILLPLZ_QUERY_TIMEOUT", 5*time.Second),
		},
		Stripe: &StripeConfig{
			SecretKey:     getEnv("STRIPE_API_KEY", ""),
			WebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", ""),
			Currency:      getEnv("STRIPE_CURRENCY", "myr"),
			Timeout:       getEnvAsDuration("STRIPE_TIMEOUT", 15*time.Second),
		},
		Bayarcash: &BayarcashConfig{
			APIToken:  getEnv("BAYARCASH_API_TOKEN", ""),
			PortalKey: getEnv("BAYARCASH_PORTAL_KEY", ""),
			APISecret: getEnv("BAYARCASH_API_SECRET", ""),
			Sandbox:   bayarcashSandbox,
			BaseURL:   getEnv("BAYARCASH_BASE_URL", bayarcashURL),
			Timeout:   getEnvAsDuration("BAYARCASH_TIMEOUT", 15*time.Second),
		},
		BankTransfer: &BankTransferConfig{
			BankName:      getEnv("BANK_NAME", "Maybank"),
			AccountNumber: getEnv("BANK_ACCOUNT_NUMBER", "5123 4567 8901"),
			AccountName:   getEnv("BANK_ACCOUNT_NAME", "Seeker Adventure Sdn Bhd"),
		},
		MinAmount: getEnv("PAYMENT_MIN_AMOUNT", "2.00"),
	}
}
