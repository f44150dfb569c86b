package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"hash"
	"strings"
)

func hmacHex(h func() hash.Hash, key string, data []byte) string {
	m := hmac.New(h, []byte(key))
	m.Write(data)
	return hex.EncodeToString(m.Sum(nil))
}

func hmacSHA256Hex(key string, data []byte) string { return hmacHex(sha256.New, key, data) }

func hmacSHA512Hex(key string, data []byte) string { return hmacHex(sha512.New, key, data) }

func sha512Hex(s string) string {
	sum := sha512.Sum512([]byte(s))
	return hex.EncodeToString(sum[:])
}

// pipeJoin builds PayU's pipe-delimited hash input.
func pipeJoin(fields ...string) string { return strings.Join(fields, "|") }

// equalHex compares two hex digests in constant time. Case-folding is applied
// only when foldCase is set.
func equalHex(expected, got string, foldCase bool) bool {
	if foldCase {
		expected, got = strings.ToLower(expected), strings.ToLower(strings.TrimSpace(got))
	}
	return hmac.Equal([]byte(expected), []byte(got))
}
