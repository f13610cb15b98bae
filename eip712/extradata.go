package eip712

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// extraDataABI describes the argument tuples the warm storage service
// decodes from the extraData attached to dataset operations. No function
// is ever called; the entries exist only for ABI encoding.
const extraDataABI = `[{
	"name": "encodeCreateDataSet",
	"type": "function",
	"inputs": [
		{"name": "payer", "type": "address"},
		{"name": "keys", "type": "string[]"},
		{"name": "values", "type": "string[]"},
		{"name": "signature", "type": "bytes"}
	]
}, {
	"name": "encodeDeleteDataSet",
	"type": "function",
	"inputs": [
		{"name": "signature", "type": "bytes"}
	]
}]`

var extraDataArgs = mustParseABI(extraDataABI)

func mustParseABI(json string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(json))
	if err != nil {
		panic(fmt.Sprintf("parsing ABI constant: %v", err))
	}
	return parsed
}

// EncodeCreateDataSetExtraData packs the payer, the metadata key/value
// columns and the authorization signature into the extraData format the
// warm storage service expects for dataset creation.
func EncodeCreateDataSetExtraData(payer common.Address, metadata []MetadataEntry, signature []byte) ([]byte, error) {
	keys := make([]string, len(metadata))
	values := make([]string, len(metadata))
	for i, entry := range metadata {
		keys[i] = entry.Key
		values[i] = entry.Value
	}

	packed, err := extraDataArgs.Methods["encodeCreateDataSet"].Inputs.Pack(payer, keys, values, signature)
	if err != nil {
		return nil, fmt.Errorf("packing extraData: %w", err)
	}
	return packed, nil
}

// EncodeDeleteDataSetExtraData packs the authorization signature into the
// extraData format the warm storage service expects for dataset deletion.
func EncodeDeleteDataSetExtraData(signature []byte) ([]byte, error) {
	packed, err := extraDataArgs.Methods["encodeDeleteDataSet"].Inputs.Pack(signature)
	if err != nil {
		return nil, fmt.Errorf("packing extraData: %w", err)
	}
	return packed, nil
}

// CreateDataSetExtraData signs a CreateDataSet authorization and returns
// the complete extraData including the signature, with the payer set to
// the signer's own address.
//
// clientDataSetID must match the counter the warm storage service keeps
// per payer address; it starts at zero and increments with each dataset
// the payer creates.
func (s *Signer) CreateDataSetExtraData(ctx context.Context, clientDataSetID *big.Int, payee common.Address, metadata []MetadataEntry) ([]byte, error) {
	authSig, err := s.SignCreateDataSet(ctx, clientDataSetID, payee, metadata)
	if err != nil {
		return nil, err
	}
	sig, err := authSig.Marshal()
	if err != nil {
		return nil, err
	}
	return EncodeCreateDataSetExtraData(s.Address(), metadata, sig)
}

// DeleteDataSetExtraData signs a DeleteDataSet authorization and returns
// the complete extraData including the signature.
func (s *Signer) DeleteDataSetExtraData(ctx context.Context, clientDataSetID *big.Int) ([]byte, error) {
	authSig, err := s.SignDeleteDataSet(ctx, clientDataSetID)
	if err != nil {
		return nil, err
	}
	sig, err := authSig.Marshal()
	if err != nil {
		return nil, err
	}
	return EncodeDeleteDataSetExtraData(sig)
}
