package eip712

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// Domain parameters the warm storage service verifies signatures against.
const (
	DomainName    = "FilecoinWarmStorageService"
	DomainVersion = "1"
)

// eip712DomainFields is the fixed schema of the EIP712Domain type.
var eip712DomainFields = []Field{
	{Name: "name", Type: "string"},
	{Name: "version", Type: "string"},
	{Name: "chainId", Type: "uint256"},
	{Name: "verifyingContract", Type: "address"},
}

// Domain binds every signature produced with it to one protocol
// name/version, one chain and one verifying contract. It is fixed for
// the lifetime of a Signer.
type Domain struct {
	Name              string
	Version           string
	ChainID           *big.Int
	VerifyingContract common.Address
}

// NewDomain creates the warm storage service domain for the given chain
// and verifying contract.
func NewDomain(chainID *big.Int, verifyingContract common.Address) Domain {
	return Domain{
		Name:              DomainName,
		Version:           DomainVersion,
		ChainID:           chainID,
		VerifyingContract: verifyingContract,
	}
}

// Separator returns the domain hash combined with every message digest
// signed under this domain.
func (d Domain) Separator() (common.Hash, error) {
	typedData := apitypes.TypedData{
		Types:       apitypes.Types{"EIP712Domain": toAPITypes(eip712DomainFields)},
		PrimaryType: "EIP712Domain",
		Domain:      d.apiDomain(),
	}
	separator, err := typedData.HashStruct("EIP712Domain", typedData.Domain.Map())
	if err != nil {
		return common.Hash{}, err
	}
	return common.BytesToHash(separator), nil
}

func (d Domain) apiDomain() apitypes.TypedDataDomain {
	return apitypes.TypedDataDomain{
		Name:              d.Name,
		Version:           d.Version,
		ChainId:           (*math.HexOrDecimal256)(d.ChainID),
		VerifyingContract: d.VerifyingContract.Hex(),
	}
}

// displayMap renders the domain for a typed-data document.
func (d Domain) displayMap() map[string]interface{} {
	return map[string]interface{}{
		"name":              d.Name,
		"version":           d.Version,
		"chainId":           d.ChainID,
		"verifyingContract": d.VerifyingContract.Hex(),
	}
}

func toAPITypes(fields []Field) []apitypes.Type {
	out := make([]apitypes.Type, len(fields))
	for i, f := range fields {
		out[i] = apitypes.Type{Name: f.Name, Type: f.Type}
	}
	return out
}
