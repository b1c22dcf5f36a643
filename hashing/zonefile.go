package hashing

import (
	"fmt"
	"strings"

	"github.com/miekg/dns"
)

// VerifyZonefile recomputes the chain hash over a serialized zonefile and
// compares it with the expected hash. The text must already be in the
// canonical serialization the hash was announced for.
func VerifyZonefile(zonefileText string, expectedHash string) bool {
	return ChainHash([]byte(zonefileText)) == expectedHash
}

// CanonicalZone parses zone file text and re-serializes every record in its
// canonical presentation form, one record per line. Directives other than
// $ORIGIN and $TTL are dropped by the parser.
func CanonicalZone(zonefileText, origin string) (string, error) {
	zp := dns.NewZoneParser(strings.NewReader(zonefileText), origin, "")

	var b strings.Builder
	for rr, ok := zp.Next(); ok; rr, ok = zp.Next() {
		b.WriteString(rr.String())
		b.WriteByte('\n')
	}
	if err := zp.Err(); err != nil {
		return "", fmt.Errorf("zone parse failed: %w", err)
	}

	return b.String(), nil
}
