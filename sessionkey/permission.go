// Package sessionkey tracks per-permission authorization expiries for a
// delegated signing key. An owner grants a session key a bounded set of
// permissions until an expiry; this package refreshes the cached expiries
// through one batched registry read and extends them through an
// authorizing write.
package sessionkey

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/filozone/synapse-go/eip712"
)

// Permission identifies one of the four authorization operations a
// session key can be granted.
type Permission int

const (
	PermissionCreateDataSet Permission = iota
	PermissionAddPieces
	PermissionSchedulePieceRemovals
	PermissionDeleteDataSet
)

// AllPermissions lists every permission, in registry order.
var AllPermissions = []Permission{
	PermissionCreateDataSet,
	PermissionAddPieces,
	PermissionSchedulePieceRemovals,
	PermissionDeleteDataSet,
}

func (p Permission) String() string {
	switch p {
	case PermissionCreateDataSet:
		return eip712.TypeCreateDataSet
	case PermissionAddPieces:
		return eip712.TypeAddPieces
	case PermissionSchedulePieceRemovals:
		return eip712.TypeSchedulePieceRemovals
	case PermissionDeleteDataSet:
		return eip712.TypeDeleteDataSet
	default:
		return fmt.Sprintf("Permission(%d)", int(p))
	}
}

// TypeHash returns the permission's key in the registry: the type hash
// of the corresponding authorization operation.
func (p Permission) TypeHash() (common.Hash, error) {
	return eip712.AuthTypeHash(p.String())
}
