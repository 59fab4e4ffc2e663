package lib

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVerifySignature(t *testing.T) {
	secret := "whsec_test"
	body := []byte(`{"event":"charge.completed","data":{"tx_ref":"r1","amount":5000}}`)
	sig := SignPayload(body, secret)

	assert.True(t, VerifySignature(body, sig, secret))
}

func TestVerifySignatureAlteredBody(t *testing.T) {
	secret := "whsec_test"
	body := []byte(`{"event":"charge.completed","data":{"tx_ref":"r1","amount":5000}}`)
	sig := SignPayload(body, secret)

	altered := []byte(`{"event":"charge.completed","data":{"tx_ref":"r1","amount":5001}}`)
	assert.False(t, VerifySignature(altered, sig, secret))

	// Re-signing the altered bytes makes them valid again.
	resigned := SignPayload(altered, secret)
	assert.True(t, VerifySignature(altered, resigned, secret))
}

func TestVerifySignatureRejectsGarbage(t *testing.T) {
	body := []byte(`{}`)
	assert.False(t, VerifySignature(body, "", "secret"))
	assert.False(t, VerifySignature(body, "not-hex!", "secret"))
	assert.False(t, VerifySignature(body, SignPayload(body, "secret"), ""))
	assert.False(t, VerifySignature(body, SignPayload(body, "other"), "secret"))
}
