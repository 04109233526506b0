package entities

import (
	"fmt"
	"hash/fnv"
)

// shortHash produces a compact stable digest used in derived identities
func shortHash(s string) string {
	h := fnv.New32a()
	h.Write([]byte(s))
	return fmt.Sprintf("%08x", h.Sum32())
}
