// Package public maintains the group of handlers for public access.
package public

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/ardanlabs/fcoin/business/web/errs"
	"github.com/ardanlabs/fcoin/foundation/blockchain/database"
	"github.com/ardanlabs/fcoin/foundation/blockchain/state"
	"github.com/ardanlabs/fcoin/foundation/events"
	"github.com/ardanlabs/fcoin/foundation/nameservice"
	"github.com/ardanlabs/fcoin/foundation/validate"
	"github.com/ardanlabs/fcoin/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handlers manages the set of node endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
	NS    *nameservice.NameService
	WS    websocket.Upgrader
	Evts  *events.Events
}

// Events handles a web socket to provide events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	ch := h.Evts.Acquire(v.TraceID)
	defer h.Evts.Release(v.TraceID)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return nil
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// Status returns the current view this node has of the chain.
func (h Handlers) Status(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	st, err := h.State.QueryStatus()
	if err != nil {
		return err
	}

	peers := make([]string, len(st.KnownPeers))
	for i, p := range st.KnownPeers {
		peers[i] = p.Host
	}

	miner := h.State.RetrieveIdentity()

	resp := status{
		Host:        h.State.RetrieveHost(),
		Miner:       miner.Hex(),
		MinerName:   h.NS.Lookup(miner),
		Difficulty:  uint(h.State.RetrieveDifficulty()),
		TipHash:     st.TipHash.String(),
		ChainLength: st.ChainLength,
		Blocks:      st.Blocks,
		Pending:     st.Pending,
		KnownPeers:  peers,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Balance returns the balance of an identity derived at the current tip.
func (h Handlers) Balance(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	id, err := database.ToIdentity(web.Param(r, "identity"))
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	tip, value, err := h.State.QueryBalance(id)
	if err != nil {
		return err
	}

	resp := balance{
		Identity: id.Hex(),
		Address:  id.Address(),
		Name:     h.NS.Lookup(id),
		Tip:      tip.String(),
		Balance:  value,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Blocks returns the canonical chain from the tip back to the root.
func (h Handlers) Blocks(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	chain, err := h.State.QueryChain()
	if err != nil {
		return err
	}

	blocks := make([]block, len(chain))
	for i, b := range chain {
		blocks[i] = toBlock(h.NS, b)
	}

	return web.Respond(ctx, w, blocks, http.StatusOK)
}

// Block returns one stored block, on the canonical chain or orphaned.
func (h Handlers) Block(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	hash, err := database.ToHash(web.Param(r, "hash"))
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	b, err := h.State.QueryBlock(hash)
	if err != nil {
		return errs.FromNode(err)
	}

	return web.Respond(ctx, w, toBlock(h.NS, b), http.StatusOK)
}

// Mempool returns the set of transactions waiting to be mined.
func (h Handlers) Mempool(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	pool := h.State.QueryMempool()

	pbs := make([]protoBlock, len(pool))
	for i, pb := range pool {
		pbs[i] = toProtoBlock(h.NS, pb)
	}

	return web.Respond(ctx, w, pbs, http.StatusOK)
}

// SubmitTransaction adds a signed transaction to the mempool.
func (h Handlers) SubmitTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var stx submitTx
	if err := web.Decode(r, &stx); err != nil {
		return errs.NewTrusted(fmt.Errorf("unable to decode payload: %w", err), http.StatusBadRequest)
	}

	if err := validate.Check(stx); err != nil {
		return err
	}

	tx, err := toTransaction(stx)
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	h.Log.Infow("submit tx", "traceid", v.TraceID, "source", tx.Details.Source.Address(), "destination", tx.Details.Destination.Address(), "amount", tx.Details.Amount)

	if err := h.State.SubmitTransaction(ctx, tx); err != nil {
		return errs.FromNode(err)
	}

	resp := struct {
		Status string `json:"status"`
	}{
		Status: "transaction added to mempool",
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// =============================================================================

func toTransaction(stx submitTx) (database.Transaction, error) {
	source, err := database.ToIdentity(stx.Source)
	if err != nil {
		return database.Transaction{}, fmt.Errorf("source: %w", err)
	}

	destination, err := database.ToIdentity(stx.Destination)
	if err != nil {
		return database.Transaction{}, fmt.Errorf("destination: %w", err)
	}

	var sig database.Signature
	if err := sig.UnmarshalText([]byte(stx.Signature)); err != nil {
		return database.Transaction{}, fmt.Errorf("signature: %w", err)
	}

	details := database.NewTransactionDetails(source, destination, stx.Amount)

	return database.NewTransaction(details, sig), nil
}
