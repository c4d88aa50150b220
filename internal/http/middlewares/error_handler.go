package middlewares

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/geocoder89/jobsapi/internal/apperrors"
)

// ErrorHandler is the single place failures become responses. Handlers and
// middlewares attach tagged errors with ctx.Error and abort; after the chain
// unwinds this writes exactly one mapped response. Unknown errors are logged
// in full and leave the client with a generic message.
func ErrorHandler(log *slog.Logger) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ctx.Next()

		if len(ctx.Errors) == 0 || ctx.Writer.Written() {
			return
		}

		err := ctx.Errors.Last().Err
		resp := apperrors.Map(err)

		if apperrors.Internal(err) {
			reqID, _ := ctx.Get(CtxRequestID)

			log.ErrorContext(ctx.Request.Context(), "unhandled error",
				"err", err,
				"method", ctx.Request.Method,
				"path", ctx.Request.URL.Path,
				"request_id", reqID,
			)
		}

		writeMapped(ctx, resp)
	}
}

// Recovered funnels panics into the same response shape. Wired through
// gin.CustomRecovery so the connection still gets an answer.
func Recovered(log *slog.Logger) gin.RecoveryFunc {
	return func(ctx *gin.Context, recovered any) {
		reqID, _ := ctx.Get(CtxRequestID)

		log.ErrorContext(ctx.Request.Context(), "panic recovered",
			"panic", recovered,
			"method", ctx.Request.Method,
			"path", ctx.Request.URL.Path,
			"request_id", reqID,
		)

		writeMapped(ctx, apperrors.Map(nil))
		ctx.Abort()
	}
}

func writeMapped(ctx *gin.Context, resp apperrors.Response) {
	body := gin.H{
		"msg":  resp.Msg,
		"code": resp.Code,
	}

	if reqID, ok := ctx.Get(CtxRequestID); ok {
		body["requestId"] = reqID
	}

	if resp.Fields != nil {
		body["fields"] = resp.Fields
	}

	ctx.JSON(resp.Status, body)
}
