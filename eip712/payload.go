package eip712

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ipfs/go-cid"

	"github.com/filozone/synapse-go/autherr"
)

// TypedPayload is a built value object together with the dependency
// closed type description the signing dispatcher needs.
type TypedPayload struct {
	Types       Schema
	PrimaryType string
	Message     map[string]interface{}
}

// PieceInput supplies one piece content identifier, either already
// parsed or in canonical string form.
type PieceInput struct {
	parsed cid.Cid
	raw    string
}

// Piece wraps a parsed content identifier.
func Piece(c cid.Cid) PieceInput {
	return PieceInput{parsed: c}
}

// PieceString wraps a canonical string-form content identifier. It is
// parsed when the payload is built.
func PieceString(s string) PieceInput {
	return PieceInput{raw: s}
}

func (p PieceInput) resolve() (cid.Cid, error) {
	if p.raw != "" {
		c, err := cid.Decode(p.raw)
		if err != nil {
			return cid.Undef, autherr.InvalidPieceIdentifier(p.raw, err)
		}
		return c, nil
	}
	if !p.parsed.Defined() {
		return cid.Undef, autherr.InvalidArgument("piece identifier is empty")
	}
	return p.parsed, nil
}

// BuildCreateDataSet assembles the CreateDataSet authorization payload.
func BuildCreateDataSet(clientDataSetID *big.Int, payee common.Address, metadata []MetadataEntry) (*TypedPayload, error) {
	dataSetID, err := toUint256("clientDataSetId", clientDataSetID)
	if err != nil {
		return nil, err
	}

	return newPayload(TypeCreateDataSet, map[string]interface{}{
		"clientDataSetId": dataSetID,
		"payee":           payee.Hex(),
		"metadata":        metadataValues(metadata),
	})
}

// BuildAddPieces assembles the AddPieces authorization payload. When
// metadata is nil every piece gets an empty metadata list; when supplied
// its length must equal the piece list's length. Each piece's index is
// pinned to its position in the list.
func BuildAddPieces(clientDataSetID, firstAdded *big.Int, pieces []PieceInput, metadata [][]MetadataEntry) (*TypedPayload, error) {
	dataSetID, err := toUint256("clientDataSetId", clientDataSetID)
	if err != nil {
		return nil, err
	}
	first, err := toUint256("firstAdded", firstAdded)
	if err != nil {
		return nil, err
	}
	if metadata != nil && len(metadata) != len(pieces) {
		return nil, autherr.InvalidArgument("pieceMetadata length %d does not match pieceData length %d", len(metadata), len(pieces))
	}

	pieceData := make([]interface{}, len(pieces))
	pieceMetadata := make([]interface{}, len(pieces))
	for i, piece := range pieces {
		c, err := piece.resolve()
		if err != nil {
			return nil, err
		}
		pieceData[i] = map[string]interface{}{"data": c.Bytes()}

		var entries []MetadataEntry
		if metadata != nil {
			entries = metadata[i]
		}
		pieceMetadata[i] = map[string]interface{}{
			"pieceIndex": new(big.Int).SetInt64(int64(i)),
			"metadata":   metadataValues(entries),
		}
	}

	return newPayload(TypeAddPieces, map[string]interface{}{
		"clientDataSetId": dataSetID,
		"firstAdded":      first,
		"pieceData":       pieceData,
		"pieceMetadata":   pieceMetadata,
	})
}

// BuildSchedulePieceRemovals assembles the SchedulePieceRemovals
// authorization payload.
func BuildSchedulePieceRemovals(clientDataSetID *big.Int, pieceIDs []*big.Int) (*TypedPayload, error) {
	dataSetID, err := toUint256("clientDataSetId", clientDataSetID)
	if err != nil {
		return nil, err
	}

	ids := make([]interface{}, len(pieceIDs))
	for i, id := range pieceIDs {
		v, err := toUint256("pieceIds", id)
		if err != nil {
			return nil, err
		}
		ids[i] = v
	}

	return newPayload(TypeSchedulePieceRemovals, map[string]interface{}{
		"clientDataSetId": dataSetID,
		"pieceIds":        ids,
	})
}

// BuildDeleteDataSet assembles the DeleteDataSet authorization payload.
func BuildDeleteDataSet(clientDataSetID *big.Int) (*TypedPayload, error) {
	dataSetID, err := toUint256("clientDataSetId", clientDataSetID)
	if err != nil {
		return nil, err
	}

	return newPayload(TypeDeleteDataSet, map[string]interface{}{
		"clientDataSetId": dataSetID,
	})
}

func newPayload(primaryType string, message map[string]interface{}) (*TypedPayload, error) {
	types, err := dependencyTypes(AuthTypes, primaryType)
	if err != nil {
		return nil, err
	}
	return &TypedPayload{
		Types:       types,
		PrimaryType: primaryType,
		Message:     message,
	}, nil
}

// dependencyTypes returns the subset of schema reachable from root.
func dependencyTypes(schema Schema, root string) (Schema, error) {
	if _, ok := schema[root]; !ok {
		return nil, autherr.SchemaNotFound(root)
	}
	deps := make([]string, 0, len(schema))
	walk := &typeWalk{
		schema: schema,
		seen:   make(map[string]bool, len(schema)),
		path:   make(map[string]bool, len(schema)),
	}
	if err := walk.collect(root, &deps, 0); err != nil {
		return nil, err
	}
	out := make(Schema, len(deps))
	for _, name := range deps {
		out[name] = schema[name]
	}
	return out, nil
}

func metadataValues(entries []MetadataEntry) []interface{} {
	out := make([]interface{}, len(entries))
	for i, e := range entries {
		out[i] = map[string]interface{}{
			"key":   e.Key,
			"value": e.Value,
		}
	}
	return out
}

// toUint256 normalizes an integer-like identifier into the fixed-width
// unsigned representation the schemas require.
func toUint256(name string, v *big.Int) (*big.Int, error) {
	if v == nil {
		return nil, autherr.InvalidArgument("%s must not be nil", name)
	}
	if v.Sign() < 0 {
		return nil, autherr.InvalidArgument("%s must not be negative", name)
	}
	if v.BitLen() > 256 {
		return nil, autherr.InvalidArgument("%s does not fit in 256 bits", name)
	}
	return new(big.Int).Set(v), nil
}
