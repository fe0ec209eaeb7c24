// Package version provides the protocol version token and gateway version
// parsing and comparison.
package version

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/openstuder/openstuder-go/pkg/wire"
)

// Protocol is the protocol version sent in AUTHORIZE.
const Protocol = wire.ProtocolVersion

// Library is the version of this module, reported by the example programs.
const Library = "0.3.0"

// Gateway is a parsed gateway firmware version such as "0.0.0.348734".
// Missing trailing components compare as zero.
type Gateway struct {
	Parts []uint64
}

// Parse parses a dotted version of one to four numeric components.
func Parse(s string) (Gateway, error) {
	if s == "" {
		return Gateway{}, fmt.Errorf("invalid version %q: empty", s)
	}
	fields := strings.Split(s, ".")
	if len(fields) > 4 {
		return Gateway{}, fmt.Errorf("invalid version %q: more than 4 components", s)
	}
	parts := make([]uint64, len(fields))
	for i, f := range fields {
		n, err := strconv.ParseUint(f, 10, 64)
		if err != nil || f == "" {
			return Gateway{}, fmt.Errorf("invalid version %q: bad component %d", s, i+1)
		}
		parts[i] = n
	}
	return Gateway{Parts: parts}, nil
}

// MustParse is Parse for constants; it panics on error.
func MustParse(s string) Gateway {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// String returns the dotted form.
func (v Gateway) String() string {
	fields := make([]string, len(v.Parts))
	for i, p := range v.Parts {
		fields[i] = strconv.FormatUint(p, 10)
	}
	return strings.Join(fields, ".")
}

// Build returns the last component, which the gateway uses as build number.
func (v Gateway) Build() uint64 {
	if len(v.Parts) == 0 {
		return 0
	}
	return v.Parts[len(v.Parts)-1]
}

// Compare returns -1, 0 or +1 as v is older than, equal to or newer than o.
func (v Gateway) Compare(o Gateway) int {
	n := max(len(v.Parts), len(o.Parts))
	for i := 0; i < n; i++ {
		a, b := component(v.Parts, i), component(o.Parts, i)
		switch {
		case a < b:
			return -1
		case a > b:
			return 1
		}
	}
	return 0
}

// AtLeast reports whether v is min or newer.
func (v Gateway) AtLeast(min Gateway) bool {
	return v.Compare(min) >= 0
}

func component(parts []uint64, i int) uint64 {
	if i < len(parts) {
		return parts[i]
	}
	return 0
}

// SupportsProtocol reports whether a gateway's protocol_version token is the
// one this library speaks.
func SupportsProtocol(token string) bool {
	return strings.TrimSpace(token) == Protocol
}
