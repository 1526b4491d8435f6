package iprange

import (
	"errors"
	"fmt"
	"net/netip"
	"strings"

	"go4.org/netipx"
)

// ErrInvalidRange covers malformed addresses, mixed address families and
// start > end. Callers decide whether to skip the record or abort.
var ErrInvalidRange = errors.New("invalid ip range")

// Expand returns the minimal ordered set of CIDR blocks whose union is
// exactly the inclusive range [startIP, endIP]. Works for both IPv4 and
// IPv6 address spaces.
func Expand(startIP, endIP string) ([]netip.Prefix, error) {
	from, err := netip.ParseAddr(startIP)
	if err != nil {
		return nil, fmt.Errorf("%w: start %q: %v", ErrInvalidRange, startIP, err)
	}
	to, err := netip.ParseAddr(endIP)
	if err != nil {
		return nil, fmt.Errorf("%w: end %q: %v", ErrInvalidRange, endIP, err)
	}

	r := netipx.IPRangeFrom(from, to)
	if !r.IsValid() {
		return nil, fmt.Errorf("%w: %s-%s", ErrInvalidRange, startIP, endIP)
	}

	return r.Prefixes(), nil
}

// Family classifies the address family from the textual form of the start
// address: a literal '.' means 4, anything else means 6. This matches the
// classification the imported data was historically keyed with (including
// IPv4-mapped IPv6 literals counting as 4), so stored rows stay comparable
// across imports.
func Family(startIP string) int {
	if strings.Contains(startIP, ".") {
		return 4
	}
	return 6
}
