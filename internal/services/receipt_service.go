package services

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image/png"

	"github.com/ruralpay/atm/internal/atm"
	"github.com/ruralpay/atm/internal/config"
	"github.com/ruralpay/atm/internal/hsm"
	"github.com/ruralpay/atm/internal/models"
	"github.com/skip2/go-qrcode"
)

var ErrNoReceipt = errors.New("no transaction to print")

// ReceiptService renders the last transaction of a session
type ReceiptService struct {
	config *config.ATMConfig
}

func NewReceiptService(cfg *config.ATMConfig) *ReceiptService {
	return &ReceiptService{config: cfg}
}

// Print builds a receipt for tx. PIN changes do not produce a receipt.
func (s *ReceiptService) Print(reference, cardID string, tx atm.Transaction) (*models.Receipt, error) {
	if tx.Kind == atm.KindPINChange {
		return nil, ErrNoReceipt
	}

	receipt := &models.Receipt{
		Reference:  reference,
		BankName:   s.config.BankName,
		TerminalID: s.config.TerminalID,
		CardNumber: hsm.MaskCard(cardID),
		Type:       string(tx.Kind),
		Amount:     tx.Amount,
		Balance:    tx.Balance,
		Currency:   s.config.Currency,
		Timestamp:  tx.At,
	}

	qrImage, err := s.qrCode(reference)
	if err != nil {
		return nil, fmt.Errorf("failed to render receipt QR code: %w", err)
	}
	receipt.QRCode = qrImage

	return receipt, nil
}

func (s *ReceiptService) qrCode(content string) (string, error) {
	qr, err := qrcode.New(content, qrcode.Medium)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, qr.Image(s.config.ReceiptQRSize)); err != nil {
		return "", err
	}

	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
