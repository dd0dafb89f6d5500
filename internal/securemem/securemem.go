// Package securemem holds secrets in memguard-locked buffers so API
// keys and the secrets password never sit in swappable plain memory.
package securemem

import (
	"crypto/subtle"

	"github.com/awnumar/memguard"
)

// String stores one sensitive value in locked memory.
type String struct {
	buf     *memguard.LockedBuffer
	invalid bool
}

// NewString wraps a plaintext value. The caller still owns the passed
// string; prefer short-lived literals or wiped buffers.
func NewString(plaintext string) *String {
	if plaintext == "" {
		// memguard rejects zero-size buffers; an empty value needs none.
		return &String{}
	}
	return &String{
		buf: memguard.NewBufferFromBytes([]byte(plaintext)),
	}
}

// NewStringFromBytes wraps a byte slice. memguard may wipe the input
// slice as part of taking ownership.
func NewStringFromBytes(data []byte) *String {
	if len(data) == 0 {
		return &String{}
	}
	return &String{
		buf: memguard.NewBufferFromBytes(data),
	}
}

// String returns a plaintext copy living in regular memory. Callers
// should keep its lifetime short.
func (s *String) String() string {
	if s == nil || s.invalid || s.buf == nil {
		return ""
	}
	return string(s.buf.Bytes())
}

// Bytes returns a plaintext copy of the underlying bytes.
func (s *String) Bytes() []byte {
	if s == nil || s.invalid || s.buf == nil {
		return nil
	}
	b := s.buf.Bytes()
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// IsEmpty reports whether the value is empty or already destroyed.
func (s *String) IsEmpty() bool {
	if s == nil || s.invalid || s.buf == nil {
		return true
	}
	return len(s.buf.Bytes()) == 0
}

// Len returns the value length in bytes.
func (s *String) Len() int {
	if s == nil || s.invalid || s.buf == nil {
		return 0
	}
	return len(s.buf.Bytes())
}

// Equal compares against a plaintext string in constant time.
func (s *String) Equal(other string) bool {
	if s == nil || s.invalid || s.buf == nil {
		return other == ""
	}
	return subtle.ConstantTimeCompare(s.buf.Bytes(), []byte(other)) == 1
}

// WithValue runs fn with a plaintext copy scoped to the call. fn must
// not retain references to the value.
func (s *String) WithValue(fn func(string)) {
	if s == nil || s.invalid || s.buf == nil {
		return
	}
	fn(string(s.buf.Bytes()))
}

// Destroy wipes the value. The String must not be used afterwards.
func (s *String) Destroy() {
	if s == nil || s.invalid {
		return
	}
	if s.buf != nil {
		s.buf.Destroy()
		s.buf = nil
	}
	s.invalid = true
}

// Init installs memguard's interrupt handler so locked buffers are
// purged on SIGINT. Call once from main.
func Init() {
	memguard.CatchInterrupt()
}

// Shutdown purges every locked buffer. Call on process exit.
func Shutdown() {
	memguard.Purge()
}

// Wipe zeroes a byte slice that held sensitive data.
func Wipe(data []byte) {
	memguard.WipeBytes(data)
}
