package voting

import (
	"encoding/binary"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// CallsScriptID prefixes every encoded script.
var CallsScriptID = []byte{0x00, 0x00, 0x00, 0x01}

const (
	scriptIDLen   = 4
	actionHeadLen = common.AddressLength + 4
)

// EncodeScript serializes actions as the script id followed by
// [address][uint32 calldata length][calldata] per action.
func EncodeScript(actions ...Action) []byte {
	size := scriptIDLen
	for _, a := range actions {
		size += actionHeadLen + len(a.Calldata)
	}
	b := make([]byte, 0, size)
	b = append(b, CallsScriptID...)
	for _, a := range actions {
		b = append(b, a.To[:]...)
		b = binary.BigEndian.AppendUint32(b, uint32(len(a.Calldata)))
		b = append(b, a.Calldata...)
	}
	return b
}

// DecodeScript parses an encoded script. Zero bytes and a bare script id both
// decode to no actions.
func DecodeScript(script []byte) ([]Action, error) {
	if len(script) == 0 {
		return nil, nil
	}
	if len(script) < scriptIDLen || string(script[:scriptIDLen]) != string(CallsScriptID) {
		return nil, fmt.Errorf("%w: unknown script id", ErrMalformedScript)
	}
	var actions []Action
	for off := scriptIDLen; off < len(script); {
		if len(script)-off < actionHeadLen {
			return nil, fmt.Errorf("%w: truncated action header at %d", ErrMalformedScript, off)
		}
		to := common.BytesToAddress(script[off : off+common.AddressLength])
		n := int(binary.BigEndian.Uint32(script[off+common.AddressLength : off+actionHeadLen]))
		off += actionHeadLen
		if n > len(script)-off {
			return nil, fmt.Errorf("%w: calldata length %d exceeds script", ErrMalformedScript, n)
		}
		actions = append(actions, Action{To: to, Calldata: common.CopyBytes(script[off : off+n])})
		off += n
	}
	return actions, nil
}

// ScriptCommitment is what a quadratic proposal stores in place of its script.
func ScriptCommitment(script []byte) []byte {
	return crypto.Keccak256(script)
}
