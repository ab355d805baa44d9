package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// VerifyWebhookSignature checks the `t=<ts>,v1=<hex>` signature header
// sent with webhook deliveries. The HMAC-SHA256 is computed over
// "<ts>.<raw body>" with the shared webhook secret. Fails closed: any
// parse error or mismatch yields false.
func VerifyWebhookSignature(payload []byte, header, secret string) bool {
	if header == "" || secret == "" {
		return false
	}

	var timestamp, signature string
	for _, part := range strings.Split(header, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			return false
		}
		switch key {
		case "t":
			timestamp = value
		case "v1":
			signature = value
		}
	}

	if timestamp == "" || signature == "" {
		return false
	}

	expected, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(payload)

	return hmac.Equal(mac.Sum(nil), expected)
}

// VerifyOrderSignature checks the order/signature processor's callback
// signature: HMAC-SHA256 over "<orderID>|<paymentID>" with the key
// secret, hex encoded.
func VerifyOrderSignature(orderID, paymentID, signature, secret string) bool {
	if orderID == "" || paymentID == "" || signature == "" || secret == "" {
		return false
	}

	expected, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID))
	mac.Write([]byte("|"))
	mac.Write([]byte(paymentID))

	return hmac.Equal(mac.Sum(nil), expected)
}
