package config

import (
	"os"
	"strconv"
	"time"
)

type ATMConfig struct {
	BankName        string
	TerminalID      string
	Currency        string
	SessionTimeout  time.Duration
	CleanupInterval time.Duration
	MinPINLength    int
	MaxPINLength    int
	ReceiptQRSize   int
}

func LoadATMConfig() *ATMConfig {
	return &ATMConfig{
		BankName:        getEnv("ATM_BANK_NAME", "RuralPay Bank"),
		TerminalID:      getEnv("ATM_TERMINAL_ID", "ATM-0001"),
		Currency:        getEnv("ATM_CURRENCY", "NGN"),
		SessionTimeout:  getEnvAsDuration("ATM_SESSION_TIMEOUT", 2*time.Minute),
		CleanupInterval: getEnvAsDuration("ATM_CLEANUP_INTERVAL", 30*time.Second),
		MinPINLength:    getEnvAsInt("ATM_MIN_PIN_LENGTH", 4),
		MaxPINLength:    getEnvAsInt("ATM_MAX_PIN_LENGTH", 6),
		ReceiptQRSize:   getEnvAsInt("ATM_RECEIPT_QR_SIZE", 256),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			return duration
		}
	}
	return defaultVal
}
