// Package capability enumerates the abilities this client knows how to
// invoke or request proof for. Keeping the set closed lets callers match
// exhaustively instead of passing arbitrary strings to the service.
package capability

import "strings"

// Ability is a namespaced capability name, e.g. "store/add".
type Ability string

const (
	// Top authorizes everything. It is what a space delegates to the agent
	// that created it.
	Top Ability = "*"

	StoreAdd   Ability = "store/add"
	UploadAdd  Ability = "upload/add"
	UploadList Ability = "upload/list"

	VoucherClaim  Ability = "voucher/claim"
	VoucherRedeem Ability = "voucher/redeem"
)

// Valid reports whether a is an ability this client knows about.
func (a Ability) Valid() bool {
	switch a {
	case Top, StoreAdd, UploadAdd, UploadList, VoucherClaim, VoucherRedeem:
		return true
	}
	return false
}

// Namespace returns the capability namespace, e.g. "store" for "store/add".
// The top capability has no namespace.
func (a Ability) Namespace() string {
	ns, _, ok := strings.Cut(string(a), "/")
	if !ok && a == Top {
		return ""
	}
	return ns
}

func (a Ability) String() string {
	return string(a)
}

// Match reports whether a granted capability name covers the requested
// ability per UCAN semantics: an exact match, the top capability "*", or a
// namespace wildcard like "store/*".
func Match(granted string, requested Ability) bool {
	if granted == string(Top) || granted == string(requested) {
		return true
	}
	ns, ok := strings.CutSuffix(granted, "/*")
	if !ok {
		return false
	}
	return ns == requested.Namespace()
}
