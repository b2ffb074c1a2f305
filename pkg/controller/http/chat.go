package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/m-mizutani/goerr/v2"

	"github.com/kindred-lab/kindred/pkg/domain/model"
	"github.com/kindred-lab/kindred/pkg/usecase"
	"github.com/kindred-lab/kindred/pkg/utils/errutil"
	"github.com/kindred-lab/kindred/pkg/utils/safe"
)

// statusOf maps taxonomy errors to HTTP status codes. Anything outside
// the taxonomy is an unhandled 500.
func statusOf(err error) int {
	switch {
	case errors.Is(err, usecase.ErrUnauthorized),
		errors.Is(err, usecase.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, usecase.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, usecase.ErrAgentNotFound):
		return http.StatusNotFound
	case errors.Is(err, usecase.ErrInvalidInput),
		errors.Is(err, usecase.ErrContentBlocked):
		return http.StatusBadRequest
	case errors.Is(err, usecase.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, usecase.ErrQuotaExhausted):
		return http.StatusPaymentRequired
	case errors.Is(err, usecase.ErrServiceSuspended):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func chatHandler(uc *usecase.UseCases) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req model.ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			errutil.HandleHTTP(ctx, w, goerr.Wrap(usecase.ErrInvalidInput, "malformed request body"), http.StatusBadRequest)
			return
		}

		authorization := r.Header.Get("Authorization")

		if !req.Stream {
			reply, err := uc.Chat.HandleTurn(ctx, authorization, &req, nil)
			if err != nil {
				errutil.HandleHTTP(ctx, w, err, statusOf(err))
				return
			}
			writeJSON(ctx, w, http.StatusOK, reply)
			return
		}

		flusher, ok := w.(http.Flusher)
		if !ok {
			errutil.HandleHTTP(ctx, w, goerr.New("streaming unsupported by connection"), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")

		emit := func(event *model.StreamEvent) error {
			data, err := json.Marshal(event)
			if err != nil {
				return goerr.Wrap(err, "failed to marshal stream event")
			}
			safe.Write(ctx, w, []byte("data: "))
			safe.Write(ctx, w, data)
			safe.Write(ctx, w, []byte("\n\n"))
			flusher.Flush()
			return nil
		}

		reply, err := uc.Chat.HandleTurn(ctx, authorization, &req, func(delta string) error {
			return emit(&model.StreamEvent{Token: delta})
		})
		if err != nil {
			// the stream may already be open; deliver the error as a
			// terminal event rather than a status code
			_ = errutil.Handle(ctx, err, "streaming turn failed")
			_ = emit(&model.StreamEvent{Done: true})
			return
		}

		_ = emit(&model.StreamEvent{
			Done:     true,
			Reaction: reply.Reaction,
			Provider: reply.Provider,
		})
	}
}
