package crypto

import (
	"crypto/ecdsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// MaxTimestampSkew bounds replay risk: deliveries whose signature timestamp
// deviates from the current time by more than this window are rejected.
const MaxTimestampSkew = 5 * time.Minute

var (
	ErrInvalidSignature = errors.New("signature does not match payload")
	ErrStaleTimestamp   = errors.New("signature timestamp outside allowed skew")
)

// SignatureVerifier validates that an inbound webhook originates from the
// aggregator. A verification failure is advisory: the ingestor records the
// event as unverified instead of dropping it.
type SignatureVerifier interface {
	Verify(body []byte, signatureB64, timestamp string) error
}

// ECDSAVerifier verifies ECDSA P-256 / SHA-256 signatures over body||timestamp
type ECDSAVerifier struct {
	publicKey *ecdsa.PublicKey
	now       func() time.Time
}

// NewECDSAVerifier parses a PEM-encoded P-256 public key. An unparseable key
// is a configuration error surfaced at startup.
func NewECDSAVerifier(publicKeyPEM string) (*ECDSAVerifier, error) {
	block, _ := pem.Decode([]byte(publicKeyPEM))
	if block == nil {
		return nil, errors.New("webhook public key is not valid PEM")
	}

	parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse webhook public key: %w", err)
	}

	ecKey, ok := parsed.(*ecdsa.PublicKey)
	if !ok {
		return nil, errors.New("webhook public key is not an ECDSA key")
	}

	return &ECDSAVerifier{publicKey: ecKey, now: time.Now}, nil
}

// Verify checks the timestamp freshness first, then the signature over the
// concatenation of the raw body and the timestamp header value.
func (v *ECDSAVerifier) Verify(body []byte, signatureB64, timestamp string) error {
	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid signature timestamp %q: %w", timestamp, err)
	}

	skew := v.now().Sub(time.Unix(ts, 0))
	if skew < 0 {
		skew = -skew
	}
	if skew > MaxTimestampSkew {
		return ErrStaleTimestamp
	}

	sig, err := base64.StdEncoding.DecodeString(signatureB64)
	if err != nil {
		return fmt.Errorf("signature is not valid base64: %w", err)
	}

	signed := make([]byte, 0, len(body)+len(timestamp))
	signed = append(signed, body...)
	signed = append(signed, timestamp...)
	digest := sha256.Sum256(signed)

	if !ecdsa.VerifyASN1(v.publicKey, digest[:], sig) {
		return ErrInvalidSignature
	}

	return nil
}
