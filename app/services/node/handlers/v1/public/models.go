package public

import (
	"github.com/ardanlabs/fcoin/foundation/blockchain/database"
	"github.com/ardanlabs/fcoin/foundation/nameservice"
)

type tx struct {
	Source          string `json:"source"`
	SourceName      string `json:"source_name"`
	Destination     string `json:"destination"`
	DestinationName string `json:"destination_name"`
	Amount          uint64 `json:"amount"`
	Signature       string `json:"signature"`
}

type block struct {
	Hash         string `json:"hash"`
	Time         uint64 `json:"time"`
	Miner        string `json:"miner"`
	MinerName    string `json:"miner_name"`
	PreviousHash string `json:"previous_hash"`
	Nonce        string `json:"nonce"`
	Transaction  tx     `json:"transaction"`
}

type protoBlock struct {
	Nonce       string `json:"nonce"`
	Transaction tx     `json:"transaction"`
}

type balance struct {
	Identity string `json:"identity"`
	Address  string `json:"address"`
	Name     string `json:"name"`
	Tip      string `json:"tip"`
	Balance  int64  `json:"balance"`
}

type status struct {
	Host        string   `json:"host"`
	Miner       string   `json:"miner"`
	MinerName   string   `json:"miner_name"`
	Difficulty  uint     `json:"difficulty"`
	TipHash     string   `json:"tip_hash"`
	ChainLength int      `json:"chain_length"`
	Blocks      int      `json:"blocks"`
	Pending     int      `json:"pending"`
	KnownPeers  []string `json:"known_peers"`
}

// submitTx is the payload for submitting a signed transaction. Identities
// and the signature are 0x prefixed hex.
type submitTx struct {
	Source      string `json:"source" validate:"required,hexadecimal"`
	Destination string `json:"destination" validate:"required,hexadecimal,nefield=Source"`
	Amount      uint64 `json:"amount"`
	Signature   string `json:"signature" validate:"required,hexadecimal"`
}

// =============================================================================

func toTx(ns *nameservice.NameService, t database.Transaction) tx {
	return tx{
		Source:          t.Details.Source.Hex(),
		SourceName:      ns.Lookup(t.Details.Source),
		Destination:     t.Details.Destination.Hex(),
		DestinationName: ns.Lookup(t.Details.Destination),
		Amount:          t.Details.Amount,
		Signature:       t.Signature.Hex(),
	}
}

func toBlock(ns *nameservice.NameService, b database.Block) block {
	return block{
		Hash:         b.Hash().String(),
		Time:         b.Time,
		Miner:        b.Miner.Hex(),
		MinerName:    ns.Lookup(b.Miner),
		PreviousHash: b.PreviousHash.String(),
		Nonce:        b.Nonce.String(),
		Transaction:  toTx(ns, b.Transaction),
	}
}

func toProtoBlock(ns *nameservice.NameService, pb database.ProtoBlock) protoBlock {
	return protoBlock{
		Nonce:       pb.Nonce.String(),
		Transaction: toTx(ns, pb.Transaction),
	}
}
