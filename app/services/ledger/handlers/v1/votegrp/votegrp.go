// Package votegrp maintains the group of handlers for ledger access.
package votegrp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/ardanlabs/votechain/business/sys/metrics"
	"github.com/ardanlabs/votechain/business/web/errs"
	"github.com/ardanlabs/votechain/business/web/v1/validate"
	"github.com/ardanlabs/votechain/foundation/blockchain/database"
	"github.com/ardanlabs/votechain/foundation/blockchain/mempool"
	"github.com/ardanlabs/votechain/foundation/blockchain/state"
	"github.com/ardanlabs/votechain/foundation/events"
	"github.com/ardanlabs/votechain/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handlers manages the set of ledger endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
	WS    websocket.Upgrader
	Evts  *events.Events
}

// SubmitVote admits a vote and mines the block holding it.
func (h Handlers) SubmitVote(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var nv newVote
	if err := web.Decode(r, &nv); err != nil {
		return errs.NewTrusted(fmt.Errorf("unable to decode payload: %w", err), http.StatusBadRequest)
	}

	if err := validate.Check(nv); err != nil {
		return err
	}

	difficulty := h.difficulty(nv.Difficulty)

	h.Log.Infow("submit vote", "traceid", v.TraceID, "voter", nv.VoterID, "candidate", nv.Candidate, "difficulty", difficulty)

	bs, err := h.State.SubmitVote(ctx, nv.VoterID, nv.Candidate, difficulty)
	if err != nil {
		return toTrusted(err)
	}

	metrics.AddVotes(ctx)
	metrics.AddBlocks(ctx)

	resp := blockResult{
		Status: "vote recorded",
		Block:  bs,
	}

	return web.Respond(ctx, w, resp, http.StatusCreated)
}

// MinePending mines a block from the votes left in the mempool.
func (h Handlers) MinePending(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var mr mineRequest
	if err := web.Decode(r, &mr); err != nil && !errors.Is(err, web.ErrEmptyBody) {
		return errs.NewTrusted(fmt.Errorf("unable to decode payload: %w", err), http.StatusBadRequest)
	}

	if err := validate.Check(mr); err != nil {
		return err
	}

	difficulty := h.difficulty(mr.Difficulty)

	h.Log.Infow("mine pending", "traceid", v.TraceID, "difficulty", difficulty)

	bs, err := h.State.MinePending(ctx, difficulty)
	if err != nil {
		return toTrusted(err)
	}

	metrics.AddBlocks(ctx)

	resp := blockResult{
		Status: "pending votes mined",
		Block:  bs,
	}

	return web.Respond(ctx, w, resp, http.StatusCreated)
}

// Pending returns the votes waiting to be mined.
func (h Handlers) Pending(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	votes := h.State.RetrievePending()

	resp := pending{
		Count: len(votes),
		Votes: make([]vote, len(votes)),
	}
	for i, vt := range votes {
		resp.Votes[i] = vote{
			VoterID:   vt.VoterID,
			Candidate: vt.Candidate,
			TimeStamp: vt.Time().Format(database.TimeFormat),
		}
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Receipt returns the merkle proof that the voter's vote is on the chain.
func (h Handlers) Receipt(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	voterID := web.Param(r, "voter")

	receipt, err := h.State.QueryVoteReceipt(voterID)
	if err != nil {
		return toTrusted(err)
	}

	return web.Respond(ctx, w, receipt, http.StatusOK)
}

// Chain returns every block on the chain in its exported form.
func (h Handlers) Chain(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.ExportChain(), http.StatusOK)
}

// Block returns the specified block in its exported form.
func (h Handlers) Block(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	number, err := strconv.ParseUint(web.Param(r, "number"), 10, 64)
	if err != nil {
		return errs.NewTrusted(fmt.Errorf("invalid block number: %w", err), http.StatusBadRequest)
	}

	bd, err := h.State.QueryBlock(number)
	if err != nil {
		return toTrusted(err)
	}

	return web.Respond(ctx, w, bd, http.StatusOK)
}

// Validate re-checks the chain and returns the report. An invalid chain is
// still a successful request.
func (h Handlers) Validate(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.ValidateChain(), http.StatusOK)
}

// Tally returns the vote count per candidate.
func (h Handlers) Tally(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.Tally(), http.StatusOK)
}

// Genesis returns the genesis information.
func (h Handlers) Genesis(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.RetrieveGenesis(), http.StatusOK)
}

// Events handles a web socket to provide events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	// The subscription must exist before the handshake completes.
	ch := h.Evts.Acquire(v.TraceID)
	defer h.Evts.Release(v.TraceID)

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

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

// =============================================================================

func (h Handlers) difficulty(requested *uint) uint {
	if requested == nil {
		return h.State.RetrieveGenesis().Difficulty
	}
	return *requested
}

// toTrusted maps ledger errors to the HTTP status a client should see.
// Anything not recognized is left as an unexpected error.
func toTrusted(err error) error {
	switch {
	case errors.Is(err, mempool.ErrAlreadyVoted):
		return errs.NewTrusted(err, http.StatusConflict)

	case errors.Is(err, database.ErrInvalidTransaction),
		errors.Is(err, state.ErrInvalidDifficulty),
		errors.Is(err, state.ErrNoTransactions):
		return errs.NewTrusted(err, http.StatusBadRequest)

	case errors.Is(err, state.ErrNotFound),
		errors.Is(err, state.ErrVotePending):
		return errs.NewTrusted(err, http.StatusNotFound)

	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return errs.NewTrusted(fmt.Errorf("mining stopped, vote left pending: %w", err), http.StatusServiceUnavailable)
	}

	return err
}
