package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
)

func signBody(t *testing.T, timestamp string, body []byte, secret string) string {
	t.Helper()
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(body)
	return fmt.Sprintf("t=%s,v1=%s", timestamp, hex.EncodeToString(mac.Sum(nil)))
}

func TestVerifyWebhookSignature_Valid(t *testing.T) {
	body := []byte(`{"type":"checkout.session.completed","data":{"id":"cs_123"}}`)
	header := signBody(t, "1700000000", body, "whsec_test")

	if !VerifyWebhookSignature(body, header, "whsec_test") {
		t.Error("Expected valid signature to verify")
	}
}

func TestVerifyWebhookSignature_TamperedBody(t *testing.T) {
	body := []byte(`{"type":"checkout.session.completed","data":{"id":"cs_123"}}`)
	header := signBody(t, "1700000000", body, "whsec_test")

	tampered := []byte(`{"type":"checkout.session.completed","data":{"id":"cs_999"}}`)
	if VerifyWebhookSignature(tampered, header, "whsec_test") {
		t.Error("Expected tampered body to fail verification")
	}
}

func TestVerifyWebhookSignature_WrongSecret(t *testing.T) {
	body := []byte(`{"type":"checkout.session.completed"}`)
	header := signBody(t, "1700000000", body, "whsec_test")

	if VerifyWebhookSignature(body, header, "whsec_other") {
		t.Error("Expected wrong secret to fail verification")
	}
}

func TestVerifyWebhookSignature_MalformedHeader(t *testing.T) {
	body := []byte(`{}`)

	cases := []string{
		"",
		"garbage",
		"t=123",
		"v1=deadbeef",
		"t=123,v1=nothex",
		"t=,v1=",
	}

	for _, header := range cases {
		if VerifyWebhookSignature(body, header, "whsec_test") {
			t.Errorf("Expected header %q to fail verification", header)
		}
	}
}

func TestVerifyWebhookSignature_EmptySecret(t *testing.T) {
	body := []byte(`{}`)
	header := signBody(t, "1700000000", body, "whsec_test")

	if VerifyWebhookSignature(body, header, "") {
		t.Error("Expected empty secret to fail verification")
	}
}

func TestVerifyOrderSignature(t *testing.T) {
	mac := hmac.New(sha256.New, []byte("secret"))
	mac.Write([]byte("order_1|pay_1"))
	sig := hex.EncodeToString(mac.Sum(nil))

	if !VerifyOrderSignature("order_1", "pay_1", sig, "secret") {
		t.Error("Expected valid order signature to verify")
	}

	if VerifyOrderSignature("order_2", "pay_1", sig, "secret") {
		t.Error("Expected mismatched order ID to fail verification")
	}

	if VerifyOrderSignature("order_1", "pay_1", sig, "wrong") {
		t.Error("Expected wrong secret to fail verification")
	}

	if VerifyOrderSignature("", "", "", "secret") {
		t.Error("Expected empty inputs to fail verification")
	}
}
