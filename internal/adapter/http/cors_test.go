package httpadapter

import (
	"context"
	"testing"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

func TestApplyCORSHeaders(t *testing.T) {
	ctx := &app.RequestContext{}
	applyCORSHeaders(ctx)

	if got, want := string(ctx.Response.Header.Peek("Access-Control-Allow-Origin")), "*"; got != want {
		t.Fatalf("allow-origin mismatch: got=%q want=%q", got, want)
	}
	if got, want := string(ctx.Response.Header.Peek("Access-Control-Allow-Methods")), "GET,POST,DELETE,OPTIONS"; got != want {
		t.Fatalf("allow-methods mismatch: got=%q want=%q", got, want)
	}
}

func TestCORSMiddleware_Preflight(t *testing.T) {
	cases := []struct {
		requested string
		want      int
	}{
		{consts.MethodDelete, consts.StatusNoContent},
		{"delete", consts.StatusNoContent},
		{consts.MethodPost, consts.StatusNoContent},
		{consts.MethodPut, consts.StatusMethodNotAllowed},
		{"", consts.StatusNoContent},
	}
	for _, tc := range cases {
		ctx := &app.RequestContext{}
		ctx.Request.Header.SetMethod(consts.MethodOptions)
		ctx.Request.SetRequestURI("/api/profiles/slot-1")
		if tc.requested != "" {
			ctx.Request.Header.Set("Access-Control-Request-Method", tc.requested)
		}
		corsMiddleware()(context.Background(), ctx)
		if got := ctx.Response.StatusCode(); got != tc.want {
			t.Fatalf("preflight %q: got=%d want=%d", tc.requested, got, tc.want)
		}
		if !ctx.IsAborted() {
			t.Fatalf("preflight %q should not reach the route", tc.requested)
		}
	}
}

func TestCORSMiddleware_PassesThroughRequests(t *testing.T) {
	ctx := &app.RequestContext{}
	ctx.Request.Header.SetMethod(consts.MethodDelete)
	corsMiddleware()(context.Background(), ctx)
	if ctx.IsAborted() {
		t.Fatalf("non-preflight request was aborted")
	}
	if got := string(ctx.Response.Header.Peek("Access-Control-Allow-Origin")); got != "*" {
		t.Fatalf("allow-origin mismatch: got=%q", got)
	}
}
