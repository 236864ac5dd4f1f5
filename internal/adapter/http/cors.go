package httpadapter

import (
	"context"
	"strings"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

var corsMethods = []string{consts.MethodGet, consts.MethodPost, consts.MethodDelete, consts.MethodOptions}

const corsAllowHeaders = "Content-Type"

func applyCORSHeaders(ctx *app.RequestContext) {
	ctx.Response.Header.Set("Access-Control-Allow-Origin", "*")
	ctx.Response.Header.Set("Access-Control-Allow-Methods", strings.Join(corsMethods, ","))
	ctx.Response.Header.Set("Access-Control-Allow-Headers", corsAllowHeaders)
	ctx.Response.Header.Set("Access-Control-Max-Age", "600")
}

func corsMethodAllowed(method string) bool {
	for _, m := range corsMethods {
		if strings.EqualFold(m, method) {
			return true
		}
	}
	return false
}

// corsMiddleware answers preflights itself. A preflight for a method the admin
// API never serves gets 405.
func corsMiddleware() app.HandlerFunc {
	return func(c context.Context, ctx *app.RequestContext) {
		applyCORSHeaders(ctx)
		if string(ctx.Method()) == consts.MethodOptions {
			requested := string(ctx.Request.Header.Peek("Access-Control-Request-Method"))
			if requested != "" && !corsMethodAllowed(requested) {
				ctx.AbortWithStatus(consts.StatusMethodNotAllowed)
				return
			}
			ctx.AbortWithStatus(consts.StatusNoContent)
			return
		}
		ctx.Next(c)
	}
}
