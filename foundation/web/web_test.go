package web_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/ardanlabs/votechain/foundation/web"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func Test_App(t *testing.T) {
	shutdown := make(chan os.Signal, 1)

	var order []string
	tag := func(name string) web.Middleware {
		return func(handler web.Handler) web.Handler {
			return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
				order = append(order, name)
				return handler(ctx, w, r)
			}
		}
	}

	app := web.NewApp(shutdown, tag("app"))

	app.Handle(http.MethodGet, "v1", "/echo/:name", func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		v, err := web.GetValues(ctx)
		if err != nil {
			return err
		}
		resp := struct {
			Name    string `json:"name"`
			TraceID string `json:"trace_id"`
		}{
			Name:    web.Param(r, "name"),
			TraceID: v.TraceID,
		}
		return web.Respond(ctx, w, resp, http.StatusOK)
	}, tag("route"))

	app.Handle(http.MethodPost, "v1", "/decode", func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var in struct {
			Value int `json:"value"`
		}
		if err := web.Decode(r, &in); err != nil {
			if errors.Is(err, web.ErrEmptyBody) {
				return web.Respond(ctx, w, nil, http.StatusNoContent)
			}
			return web.Respond(ctx, w, err.Error(), http.StatusBadRequest)
		}
		return web.Respond(ctx, w, in, http.StatusOK)
	})

	app.Handle(http.MethodGet, "", "/fatal", func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		return web.NewShutdownError("integrity issue")
	})

	t.Log("Given the need to route requests through the web framework.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen handling a request with a path parameter.", testID)
		{
			r := httptest.NewRequest(http.MethodGet, "/v1/echo/bill", nil)
			w := httptest.NewRecorder()
			app.ServeHTTP(w, r)

			if w.Code != http.StatusOK {
				t.Fatalf("\t%s\tTest %d:\tShould receive a 200 status, got %d.", failed, testID, w.Code)
			}

			var got struct {
				Name    string `json:"name"`
				TraceID string `json:"trace_id"`
			}
			if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould decode the response: %v", failed, testID, err)
			}
			if got.Name != "bill" || got.TraceID == "" {
				t.Fatalf("\t%s\tTest %d:\tShould receive the param and a trace id, got %+v.", failed, testID, got)
			}
			t.Logf("\t%s\tTest %d:\tShould receive the param and a trace id.", success, testID)

			if strings.Join(order, ",") != "app,route" {
				t.Fatalf("\t%s\tTest %d:\tShould run app middleware before route middleware, got %v.", failed, testID, order)
			}
			t.Logf("\t%s\tTest %d:\tShould run app middleware before route middleware.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen decoding request bodies.", testID)
		{
			tt := []struct {
				name   string
				body   string
				status int
			}{
				{"valid", `{"value":7}`, http.StatusOK},
				{"empty", ``, http.StatusNoContent},
				{"unknown", `{"other":7}`, http.StatusBadRequest},
				{"garbage", `{`, http.StatusBadRequest},
			}

			for _, tst := range tt {
				f := func(t *testing.T) {
					r := httptest.NewRequest(http.MethodPost, "/v1/decode", strings.NewReader(tst.body))
					w := httptest.NewRecorder()
					app.ServeHTTP(w, r)

					if w.Code != tst.status {
						t.Fatalf("\t%s\tTest %d:\tShould receive a %d status, got %d.", failed, testID, tst.status, w.Code)
					}
					t.Logf("\t%s\tTest %d:\tShould receive a %d status.", success, testID, tst.status)
				}
				t.Run(tst.name, f)
			}
		}

		testID++
		t.Logf("\tTest %d:\tWhen a handler returns a shutdown error.", testID)
		{
			r := httptest.NewRequest(http.MethodGet, "/fatal", nil)
			w := httptest.NewRecorder()
			app.ServeHTTP(w, r)

			select {
			case <-shutdown:
				t.Logf("\t%s\tTest %d:\tShould signal a shutdown.", success, testID)
			default:
				t.Fatalf("\t%s\tTest %d:\tShould signal a shutdown.", failed, testID)
			}

			if !web.IsShutdown(web.NewShutdownError("x")) {
				t.Fatalf("\t%s\tTest %d:\tShould identify shutdown errors.", failed, testID)
			}
		}
	}
}
