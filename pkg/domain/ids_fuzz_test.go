//go:build go1.18

package domain

import (
	"testing"
	"unicode/utf8"
)

// FuzzParseUserID checks parsing never panics and valid ids round-trip.
func FuzzParseUserID(f *testing.F) {
	f.Add("")
	f.Add("550e8400-e29b-41d4-a716-446655440000")
	f.Add("00000000-0000-0000-0000-000000000000")
	f.Add("not-a-uuid")
	f.Add("'; DROP TABLE applications;--")
	f.Add(string([]byte{0x00, 0x01, 0x02}))
	f.Add("550e8400-e29b-41d4-a716-446655440000\x00suffix")

	f.Fuzz(func(t *testing.T, input string) {
		id, err := ParseUserID(input)
		if err == nil {
			roundTrip, err2 := ParseUserID(id.String())
			if err2 != nil {
				t.Errorf("Valid ID failed round-trip: %v", err2)
			}
			if roundTrip != id {
				t.Error("Round-trip changed ID value")
			}
		}
		if !utf8.ValidString(input) && err == nil {
			t.Error("Non-UTF8 input was accepted")
		}
	})
}

// FuzzParseJobID checks job ids never contain whitespace or control characters.
func FuzzParseJobID(f *testing.F) {
	f.Add("J1")
	f.Add("")
	f.Add("a b")

	f.Fuzz(func(t *testing.T, input string) {
		id, err := ParseJobID(input)
		if err != nil {
			return
		}
		again, err := ParseJobID(id.String())
		if err != nil || again != id {
			t.Errorf("job id %q did not round-trip", id)
		}
	})
}
