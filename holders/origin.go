package holders

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// OriginKind classifies the caller of an administrative operation.
type OriginKind uint8

const (
	// OriginNone is an unsigned call, e.g. from an inherent.
	OriginNone OriginKind = iota
	// OriginRoot is the chain's superuser.
	OriginRoot
	// OriginSigned is a call signed by an account.
	OriginSigned
)

// Origin identifies who issued a call.
type Origin struct {
	Kind   OriginKind
	Signer common.Address
}

// RootOrigin returns the superuser origin.
func RootOrigin() Origin { return Origin{Kind: OriginRoot} }

// SignedOrigin returns the origin of a call signed by addr.
func SignedOrigin(addr common.Address) Origin { return Origin{Kind: OriginSigned, Signer: addr} }

// NoneOrigin returns the unsigned origin.
func NoneOrigin() Origin { return Origin{Kind: OriginNone} }

func (o Origin) String() string {
	switch o.Kind {
	case OriginRoot:
		return "root"
	case OriginSigned:
		return "signed(" + o.Signer.Hex() + ")"
	case OriginNone:
		return "none"
	default:
		return fmt.Sprintf("origin(%d)", o.Kind)
	}
}

// RootAuthorizer trusts only the root origin.
type RootAuthorizer struct{}

// IsPrivileged implements Authorizer.
func (RootAuthorizer) IsPrivileged(origin Origin) bool {
	return origin.Kind == OriginRoot
}

// AdminSet trusts the root origin and calls signed by one of its members.
type AdminSet map[common.Address]struct{}

// NewAdminSet builds an AdminSet from a list of admin accounts.
func NewAdminSet(admins ...common.Address) AdminSet {
	s := make(AdminSet, len(admins))
	for _, addr := range admins {
		s[addr] = struct{}{}
	}
	return s
}

// IsPrivileged implements Authorizer.
func (s AdminSet) IsPrivileged(origin Origin) bool {
	switch origin.Kind {
	case OriginRoot:
		return true
	case OriginSigned:
		_, ok := s[origin.Signer]
		return ok
	default:
		return false
	}
}
