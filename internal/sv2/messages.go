package sv2

import (
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// Message codes for the Template Distribution sub-protocol. The byte values
// match the Stratum v2 spec; actual wire encoding is left to the transport
// (see Connman), this package only needs the type tag for routing.
const (
	MsgTypeCoinbaseOutputConstraints  = 0x70
	MsgTypeNewTemplate                = 0x71
	MsgTypeSetNewPrevHash             = 0x72
	MsgTypeRequestTransactionData     = 0x73
	MsgTypeRequestTransactionDataOK   = 0x74
	MsgTypeRequestTransactionDataErr  = 0x75
	MsgTypeSubmitSolution             = 0x76
)

// NewTemplateMsg is sent whenever a worker has a fresh candidate block for
// its client.
type NewTemplateMsg struct {
	Header                 wire.BlockHeader
	CoinbaseTx             *wire.MsgTx
	CoinbaseMerklePath     []chainhash.Hash
	WitnessCommitmentIndex int
	TemplateID             uint64
	FutureTemplate         bool
}

func (NewTemplateMsg) Type() uint8 { return MsgTypeNewTemplate }

// SetNewPrevHashMsg activates a previously-advertised future template.
type SetNewPrevHashMsg struct {
	Header     wire.BlockHeader
	TemplateID uint64
}

func (SetNewPrevHashMsg) Type() uint8 { return MsgTypeSetNewPrevHash }

// RequestTransactionDataMsg is sent by a client that wants the full
// transaction set for a template it intends to submit a solution for.
type RequestTransactionDataMsg struct {
	TemplateID uint64
}

func (RequestTransactionDataMsg) Type() uint8 { return MsgTypeRequestTransactionData }

// RequestTransactionDataSuccessMsg answers a RequestTransactionDataMsg for a
// template that is still current.
type RequestTransactionDataSuccessMsg struct {
	TemplateID         uint64
	WitnessReserveValue []byte
	Transactions       []*wire.MsgTx // excludes the coinbase
}

func (RequestTransactionDataSuccessMsg) Type() uint8 { return MsgTypeRequestTransactionDataOK }

// RequestTransactionDataErrorCode enumerates the only two failure reasons
// the request-transaction-data handler may report.
type RequestTransactionDataErrorCode string

const (
	ErrTemplateIDNotFound RequestTransactionDataErrorCode = "template-id-not-found"
	ErrStaleTemplateID    RequestTransactionDataErrorCode = "stale-template-id"
)

// RequestTransactionDataErrorMsg reports a protocol-level failure to resolve
// a template id's transaction data. This is not a Go error: the connection
// continues normally after it is sent.
type RequestTransactionDataErrorMsg struct {
	TemplateID uint64
	ErrorCode  RequestTransactionDataErrorCode
}

func (RequestTransactionDataErrorMsg) Type() uint8 { return MsgTypeRequestTransactionDataErr }

// CoinbaseOutputConstraintsMsg is sent by a client once, early in the
// connection, to declare how much additional coinbase output space it needs
// reserved in assembled templates.
type CoinbaseOutputConstraintsMsg struct {
	CoinbaseOutputMaxAdditionalSize   uint32
	CoinbaseOutputMaxAdditionalSigOps uint16
}

func (CoinbaseOutputConstraintsMsg) Type() uint8 { return MsgTypeCoinbaseOutputConstraints }

// SubmitSolutionMsg carries a candidate solution for a previously-issued
// template back to the template provider.
type SubmitSolutionMsg struct {
	TemplateID      uint64
	Version         int32
	HeaderTimestamp uint32
	HeaderNonce     uint32
	CoinbaseTx      *wire.MsgTx
}

func (SubmitSolutionMsg) Type() uint8 { return MsgTypeSubmitSolution }

// Message is implemented by every Template Distribution payload so the
// outbound queue can stay typed without an interface{} grab-bag.
type Message interface {
	Type() uint8
}
