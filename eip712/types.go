// Package eip712 implements the structured-data encoding and
// authorization signing used to authenticate off-chain requests to the
// warm storage service. It derives canonical type encodings and type
// hashes for the authorization schemas, builds the value payloads for the
// four authorization operations, and produces verifiable signatures over
// them through either a local key or an interactive signing agent.
package eip712

// Field describes one field of a structured-data type: its name and its
// declared solidity type, which may be a primitive, a reference to
// another schema type, or an array of either.
type Field struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Schema maps type names to their ordered field lists. Every referenced
// non-primitive type (array suffix stripped) must itself be present in
// the schema; recursive types are not representable.
type Schema map[string][]Field

// Authorization operation type names.
const (
	TypeCreateDataSet         = "CreateDataSet"
	TypeAddPieces             = "AddPieces"
	TypeSchedulePieceRemovals = "SchedulePieceRemovals"
	TypeDeleteDataSet         = "DeleteDataSet"
)

// AuthTypes is the schema registry for the authorization operations and
// their referenced types. It is defined at process start and never
// mutated.
var AuthTypes = Schema{
	TypeCreateDataSet: {
		{Name: "clientDataSetId", Type: "uint256"},
		{Name: "payee", Type: "address"},
		{Name: "metadata", Type: "MetadataEntry[]"},
	},
	TypeAddPieces: {
		{Name: "clientDataSetId", Type: "uint256"},
		{Name: "firstAdded", Type: "uint256"},
		{Name: "pieceData", Type: "Cid[]"},
		{Name: "pieceMetadata", Type: "PieceMetadata[]"},
	},
	TypeSchedulePieceRemovals: {
		{Name: "clientDataSetId", Type: "uint256"},
		{Name: "pieceIds", Type: "uint256[]"},
	},
	TypeDeleteDataSet: {
		{Name: "clientDataSetId", Type: "uint256"},
	},
	"Cid": {
		{Name: "data", Type: "bytes"},
	},
	"MetadataEntry": {
		{Name: "key", Type: "string"},
		{Name: "value", Type: "string"},
	},
	"PieceMetadata": {
		{Name: "pieceIndex", Type: "uint256"},
		{Name: "metadata", Type: "MetadataEntry[]"},
	},
}

// MetadataEntry is one key/value pair attached to a dataset or piece.
type MetadataEntry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}
