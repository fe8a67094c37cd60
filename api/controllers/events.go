package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/mconcas/pantrybot-backend/api/responses"
	"github.com/mconcas/pantrybot-backend/api/validators"
	"github.com/mconcas/pantrybot-backend/internal/bot"
	pkgerrors "github.com/mconcas/pantrybot-backend/pkg/errors"
	"github.com/mconcas/pantrybot-backend/pkg/logger"
)

// eventRequest is the wire form of one chat interaction as decoded by the
// transport bridge. Kind-specific fields are optional; the dispatcher
// ignores the ones its kind does not use.
type eventRequest struct {
	Kind     string          `json:"kind" validate:"required,oneof=command callback text scan"`
	ChatID   int64           `json:"chat_id" validate:"required"`
	UserID   int64           `json:"user_id" validate:"required"`
	ChatType string          `json:"chat_type"`
	UserName string          `json:"user_name"`
	Command  string          `json:"command"`
	Args     []string        `json:"args"`
	Token    string          `json:"token"`
	Text     string          `json:"text"`
	ScanData json.RawMessage `json:"scan_data"`
}

// HandleEvent accepts one normalized chat event, runs it through the
// dispatcher and returns the reply description for the bridge to render.
func HandleEvent(dispatcher *bot.Dispatcher, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if dispatcher == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "dispatcher unavailable"))
			return
		}

		var req eventRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		event := bot.Event{
			Kind:     bot.Kind(req.Kind),
			ChatID:   req.ChatID,
			UserID:   req.UserID,
			ChatType: req.ChatType,
			UserName: req.UserName,
			Command:  req.Command,
			Args:     req.Args,
			Token:    req.Token,
			Text:     req.Text,
			ScanData: req.ScanData,
		}

		reply, err := dispatcher.Handle(r.Context(), event)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, reply)
	}
}
