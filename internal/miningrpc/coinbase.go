package miningrpc

import (
	"strconv"

	"github.com/btcsuite/btcd/wire"
)

// parseCompactBits parses the hex-encoded "bits" field returned by
// getblocktemplate into the compact representation wire.BlockHeader expects.
func parseCompactBits(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, err
	}
	return uint32(v), nil
}

// buildCoinbaseTx assembles a minimal coinbase transaction paying the full
// block subsidy + fees to an anyone-can-spend placeholder output. Real
// deployments are expected to replace the output script with the operator's
// own payout logic downstream of this adapter; the TP's job is only to
// reserve blockReservedWeight extra weight units for whatever the client adds
// on top (see sv2.BlockCreateOptions), which here is represented as
// blockReservedWeight/4 bytes of padding in the scriptSig.
func buildCoinbaseTx(height int64, coinbaseValue int64, blockReservedWeight uint32) *wire.MsgTx {
	tx := wire.NewMsgTx(wire.TxVersion)

	scriptSig := heightPrefix(height)
	// Pad the scriptSig so the assembled coinbase reserves roughly
	// blockReservedWeight extra weight units for the client's own outputs,
	// mirroring BlockAssembler's reserved-weight bookkeeping.
	pad := int(blockReservedWeight / 4)
	for i := 0; i < pad; i++ {
		scriptSig = append(scriptSig, 0x00)
	}

	tx.AddTxIn(&wire.TxIn{
		PreviousOutPoint: wire.OutPoint{Index: 0xffffffff},
		SignatureScript:  scriptSig,
		Sequence:         wire.MaxTxInSequenceNum,
		Witness:          wire.TxWitness{make([]byte, 32)}, // witness reserve value
	})

	tx.AddTxOut(&wire.TxOut{
		Value:    coinbaseValue,
		PkScript: []byte{0x51}, // OP_TRUE placeholder, replaced downstream
	})

	return tx
}

// heightPrefix encodes height as a BIP34 minimally-encoded script push.
func heightPrefix(height int64) []byte {
	var data []byte
	h := height
	for h > 0 {
		data = append(data, byte(h&0xff))
		h >>= 8
	}
	if len(data) > 0 && data[len(data)-1]&0x80 != 0 {
		data = append(data, 0x00)
	}
	return append([]byte{byte(len(data))}, data...)
}
