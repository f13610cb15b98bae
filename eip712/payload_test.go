package eip712

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"

	"github.com/filozone/synapse-go/autherr"
)

func testCid(t *testing.T, data string) cid.Cid {
	t.Helper()
	mh, err := multihash.Sum([]byte(data), multihash.SHA2_256, -1)
	if err != nil {
		t.Fatalf("building multihash: %v", err)
	}
	return cid.NewCidV1(cid.Raw, mh)
}

func TestBuildCreateDataSet(t *testing.T) {
	payee := common.HexToAddress("0x9876543210987654321098765432109876543210")

	t.Run("builds message with dependency-closed types", func(t *testing.T) {
		payload, err := BuildCreateDataSet(big.NewInt(7), payee, []MetadataEntry{{Key: "label", Value: "test"}})
		if err != nil {
			t.Fatalf("BuildCreateDataSet failed: %v", err)
		}
		if payload.PrimaryType != TypeCreateDataSet {
			t.Errorf("primary type = %s, want %s", payload.PrimaryType, TypeCreateDataSet)
		}
		if _, ok := payload.Types["MetadataEntry"]; !ok {
			t.Error("types missing MetadataEntry dependency")
		}
		if _, ok := payload.Types["Cid"]; ok {
			t.Error("types include Cid, which CreateDataSet does not reference")
		}
		if got := payload.Message["payee"]; got != payee.Hex() {
			t.Errorf("payee = %v, want %s", got, payee.Hex())
		}
	})

	t.Run("nil dataset id fails", func(t *testing.T) {
		_, err := BuildCreateDataSet(nil, payee, nil)
		if !autherr.HasCode(err, autherr.CodeInvalidArgument) {
			t.Errorf("expected invalid_argument, got %v", err)
		}
	})

	t.Run("negative dataset id fails", func(t *testing.T) {
		_, err := BuildCreateDataSet(big.NewInt(-1), payee, nil)
		if !autherr.HasCode(err, autherr.CodeInvalidArgument) {
			t.Errorf("expected invalid_argument, got %v", err)
		}
	})

	t.Run("oversized dataset id fails", func(t *testing.T) {
		huge := new(big.Int).Lsh(big.NewInt(1), 256)
		_, err := BuildCreateDataSet(huge, payee, nil)
		if !autherr.HasCode(err, autherr.CodeInvalidArgument) {
			t.Errorf("expected invalid_argument, got %v", err)
		}
	})
}

func TestBuildAddPieces(t *testing.T) {
	pieces := []PieceInput{
		Piece(testCid(t, "piece-0")),
		Piece(testCid(t, "piece-1")),
	}

	t.Run("defaults to empty metadata per piece", func(t *testing.T) {
		payload, err := BuildAddPieces(big.NewInt(1), big.NewInt(0), pieces, nil)
		if err != nil {
			t.Fatalf("BuildAddPieces failed: %v", err)
		}
		pieceMetadata := payload.Message["pieceMetadata"].([]interface{})
		if len(pieceMetadata) != len(pieces) {
			t.Fatalf("pieceMetadata length = %d, want %d", len(pieceMetadata), len(pieces))
		}
		for i, entry := range pieceMetadata {
			m := entry.(map[string]interface{})
			if got := m["pieceIndex"].(*big.Int); got.Int64() != int64(i) {
				t.Errorf("pieceMetadata[%d].pieceIndex = %v, want %d", i, got, i)
			}
			if got := m["metadata"].([]interface{}); len(got) != 0 {
				t.Errorf("pieceMetadata[%d].metadata = %v, want empty", i, got)
			}
		}
	})

	t.Run("explicit metadata length mismatch fails", func(t *testing.T) {
		metadata := [][]MetadataEntry{{{Key: "k", Value: "v"}}}
		_, err := BuildAddPieces(big.NewInt(1), big.NewInt(0), pieces, metadata)
		if !autherr.HasCode(err, autherr.CodeInvalidArgument) {
			t.Errorf("expected invalid_argument, got %v", err)
		}
	})

	t.Run("string piece identifier is parsed", func(t *testing.T) {
		c := testCid(t, "piece-0")
		payload, err := BuildAddPieces(big.NewInt(1), big.NewInt(0), []PieceInput{PieceString(c.String())}, nil)
		if err != nil {
			t.Fatalf("BuildAddPieces failed: %v", err)
		}
		pieceData := payload.Message["pieceData"].([]interface{})
		got := pieceData[0].(map[string]interface{})["data"].([]byte)
		if string(got) != string(c.Bytes()) {
			t.Error("parsed piece bytes do not match the original identifier")
		}
	})

	t.Run("unparsable string piece identifier fails", func(t *testing.T) {
		_, err := BuildAddPieces(big.NewInt(1), big.NewInt(0), []PieceInput{PieceString("not-a-cid")}, nil)
		if !autherr.HasCode(err, autherr.CodeInvalidPieceIdentifier) {
			t.Errorf("expected invalid_piece_identifier, got %v", err)
		}
	})

	t.Run("empty piece input fails", func(t *testing.T) {
		_, err := BuildAddPieces(big.NewInt(1), big.NewInt(0), []PieceInput{{}}, nil)
		if !autherr.HasCode(err, autherr.CodeInvalidArgument) {
			t.Errorf("expected invalid_argument, got %v", err)
		}
	})

	t.Run("negative firstAdded fails", func(t *testing.T) {
		_, err := BuildAddPieces(big.NewInt(1), big.NewInt(-5), pieces, nil)
		if !autherr.HasCode(err, autherr.CodeInvalidArgument) {
			t.Errorf("expected invalid_argument, got %v", err)
		}
	})
}

func TestBuildSchedulePieceRemovals(t *testing.T) {
	t.Run("copies piece ids", func(t *testing.T) {
		original := big.NewInt(42)
		payload, err := BuildSchedulePieceRemovals(big.NewInt(1), []*big.Int{original})
		if err != nil {
			t.Fatalf("BuildSchedulePieceRemovals failed: %v", err)
		}
		ids := payload.Message["pieceIds"].([]interface{})
		original.SetInt64(99)
		if got := ids[0].(*big.Int); got.Int64() != 42 {
			t.Errorf("pieceIds[0] = %v, caller mutation leaked into payload", got)
		}
	})

	t.Run("nil piece id fails", func(t *testing.T) {
		_, err := BuildSchedulePieceRemovals(big.NewInt(1), []*big.Int{nil})
		if !autherr.HasCode(err, autherr.CodeInvalidArgument) {
			t.Errorf("expected invalid_argument, got %v", err)
		}
	})
}
