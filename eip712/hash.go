package eip712

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// HashTypedData computes the struct hash of a payload and the final
// digest signed under the given domain:
//
//	digest = keccak256(0x19 0x01 || domainSeparator || structHash)
//
// Verifiers recompute exactly this digest; both signing paths must sign
// it bit for bit.
func HashTypedData(domain Domain, payload *TypedPayload) (structHash, digest common.Hash, err error) {
	typedData := apitypes.TypedData{
		Types:       make(apitypes.Types, len(payload.Types)+1),
		PrimaryType: payload.PrimaryType,
		Domain:      domain.apiDomain(),
		Message:     payload.Message,
	}
	for name, fields := range payload.Types {
		typedData.Types[name] = toAPITypes(fields)
	}
	if _, exists := typedData.Types["EIP712Domain"]; !exists {
		typedData.Types["EIP712Domain"] = toAPITypes(eip712DomainFields)
	}

	dataHash, err := typedData.HashStruct(typedData.PrimaryType, typedData.Message)
	if err != nil {
		return common.Hash{}, common.Hash{}, fmt.Errorf("hashing %s struct: %w", payload.PrimaryType, err)
	}

	domainSeparator, err := typedData.HashStruct("EIP712Domain", typedData.Domain.Map())
	if err != nil {
		return common.Hash{}, common.Hash{}, fmt.Errorf("hashing domain: %w", err)
	}

	rawData := make([]byte, 0, 2+len(domainSeparator)+len(dataHash))
	rawData = append(rawData, 0x19, 0x01)
	rawData = append(rawData, domainSeparator...)
	rawData = append(rawData, dataHash...)

	return common.BytesToHash(dataHash), crypto.Keccak256Hash(rawData), nil
}
