// Package token implements stateless signed session tokens.
//
// Token Format:
//
//   - Payload: base64url (no padding) of the JSON object {"exp":<unix seconds>,"v":<version>}
//   - Signature: base64url (no padding) of HMAC-SHA256(secret, encoded payload)
//   - Encoded: payload + "." + signature
//
// A token is valid only while the current time is strictly before exp and
// its signature matches a fresh HMAC under the current secret. The secret is
// never embedded in the token. There is no server-side revocation: a token
// stays valid until it expires.
//
// Security:
//
//   - Signatures and passwords are compared in constant time
//   - Random identifiers come from crypto/rand
//   - Malformed input is reported as an error, never a panic
package token
