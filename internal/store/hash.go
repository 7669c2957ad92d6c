package store

import (
	"crypto/sha256"
	"fmt"
	"sort"
	"strings"
)

// ComputeSignatureHash computes a deterministic hash from a declaration's
// API identity: name, kind, visibility, modifiers, type, parameter types and
// the canonical forms of its annotations. Locations and annotation spelling
// do not affect the hash, so two runs agree whenever the canonical text does.
func ComputeSignatureHash(
	qualifiedName, kind, visibility string,
	modifiers []string,
	typeExpr string,
	params []string,
	canonical []string,
) string {
	h := sha256.New()

	fmt.Fprintf(h, "name:%s\n", qualifiedName)
	fmt.Fprintf(h, "kind:%s\n", kind)
	fmt.Fprintf(h, "visibility:%s\n", visibility)

	sorted := make([]string, len(modifiers))
	copy(sorted, modifiers)
	sort.Strings(sorted)
	fmt.Fprintf(h, "modifiers:%s\n", strings.Join(sorted, ","))
	fmt.Fprintf(h, "type:%s\n", typeExpr)

	// Parameter order is significant.
	for i, p := range params {
		fmt.Fprintf(h, "param:%d:%s\n", i, p)
	}
	// Annotations keep declaration order. Suppressed ones (empty) are skipped.
	for _, c := range canonical {
		if c == "" {
			continue
		}
		fmt.Fprintf(h, "annotation:%s\n", c)
	}

	return fmt.Sprintf("%x", h.Sum(nil))
}
