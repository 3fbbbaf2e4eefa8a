// Package v1 contains the full set of handler functions and routes
// supported by the v1 web api.
package v1

import (
	"net/http"

	"github.com/ardanlabs/votechain/app/services/ledger/handlers/v1/votegrp"
	"github.com/ardanlabs/votechain/foundation/blockchain/state"
	"github.com/ardanlabs/votechain/foundation/events"
	"github.com/ardanlabs/votechain/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const version = "v1"

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log   *zap.SugaredLogger
	State *state.State
	Evts  *events.Events
	Limit web.Middleware
}

// Routes binds all the version 1 routes.
func Routes(app *web.App, cfg Config) {
	vgh := votegrp.Handlers{
		Log:   cfg.Log,
		State: cfg.State,
		WS:    websocket.Upgrader{},
		Evts:  cfg.Evts,
	}

	app.Handle(http.MethodGet, version, "/events", vgh.Events)
	app.Handle(http.MethodGet, version, "/genesis", vgh.Genesis)

	app.Handle(http.MethodPost, version, "/votes", vgh.SubmitVote, cfg.Limit)
	app.Handle(http.MethodPost, version, "/votes/mine", vgh.MinePending, cfg.Limit)
	app.Handle(http.MethodGet, version, "/votes/pending", vgh.Pending)
	app.Handle(http.MethodGet, version, "/votes/:voter/receipt", vgh.Receipt)

	app.Handle(http.MethodGet, version, "/chain", vgh.Chain)
	app.Handle(http.MethodGet, version, "/chain/validate", vgh.Validate)
	app.Handle(http.MethodGet, version, "/chain/:number", vgh.Block)

	app.Handle(http.MethodGet, version, "/tally", vgh.Tally)
}
