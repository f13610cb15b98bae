package signers

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// TypeField describes one field of a structured-data type as it appears
// in a typed-data document.
type TypeField struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// TypedDataDocument is the fully self-describing structured-signing
// request submitted to an interactive agent. It carries the dependency
// closed type map (including EIP712Domain), the primary type name, the
// domain fields and the message with binary values hex-encoded so the
// agent can render them.
type TypedDataDocument struct {
	Types       map[string][]TypeField `json:"types"`
	PrimaryType string                 `json:"primaryType"`
	Domain      map[string]interface{} `json:"domain"`
	Message     map[string]interface{} `json:"message"`
}

// DisplayValue converts a message value into the representation an
// interactive agent can display: byte slices become 0x-prefixed hex,
// big integers become decimal strings, addresses become checksummed hex,
// and containers are converted element-wise.
func DisplayValue(v interface{}) interface{} {
	switch val := v.(type) {
	case []byte:
		return hexutil.Encode(val)
	case *big.Int:
		return val.String()
	case common.Address:
		return val.Hex()
	case common.Hash:
		return val.Hex()
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = DisplayValue(item)
		}
		return out
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, item := range val {
			out[k] = DisplayValue(item)
		}
		return out
	default:
		return v
	}
}

// DisplayMessage converts a whole message map for display.
func DisplayMessage(message map[string]interface{}) map[string]interface{} {
	out, _ := DisplayValue(message).(map[string]interface{})
	return out
}
