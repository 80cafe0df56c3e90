package config

import "os"

// Config carries the Daraja credentials and endpoints the initiator and
// poller need. It is loaded once in main and injected, so the core packages
// never read the environment themselves.
type Config struct {
	ShortCode       string
	Passkey         string
	ConsumerKey     string
	ConsumerSecret  string
	BaseURL         string
	CallbackURL     string
	TransactionDesc string
}

// Load reads the M-Pesa settings from the environment.
func Load() Config {
	cfg := Config{
		ShortCode:       os.Getenv("MPESA_SHORT_CODE"),
		Passkey:         os.Getenv("MPESA_PASSKEY"),
		ConsumerKey:     os.Getenv("MPESA_CONSUMER_KEY"),
		ConsumerSecret:  os.Getenv("MPESA_CONSUMER_SECRET"),
		BaseURL:         os.Getenv("MPESA_BASE_URL"),
		CallbackURL:     os.Getenv("MPESA_CALLBACK_URL"),
		TransactionDesc: os.Getenv("MPESA_TRANSACTION_DESC"),
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.safaricom.co.ke"
	}
	if cfg.TransactionDesc == "" {
		cfg.TransactionDesc = "Payment for goods/services"
	}
	return cfg
}
