package bot

import (
	"context"
	"time"

	"github.com/mconcas/pantrybot-backend/internal/inventory"
	"github.com/mconcas/pantrybot-backend/internal/scan"
	"github.com/mconcas/pantrybot-backend/internal/session"
	pkgerrors "github.com/mconcas/pantrybot-backend/pkg/errors"
	"github.com/mconcas/pantrybot-backend/pkg/logger"
	"github.com/mconcas/pantrybot-backend/pkg/metrics"
)

// Params groups dispatcher dependencies.
type Params struct {
	Inventory inventory.Service
	Engine    *scan.Engine
	Sessions  session.Store
	Logger    *logger.Logger
	Metrics   *metrics.BotMetrics
}

// Dispatcher routes normalized events through the conversational flows.
// Commands and callbacks are stateless entry points; free text is
// interpreted against the session's current state.
type Dispatcher struct {
	inv      inventory.Service
	engine   *scan.Engine
	sessions session.Store
	logg     *logger.Logger
	metrics  *metrics.BotMetrics
}

// NewDispatcher builds the dispatcher with validated dependencies.
func NewDispatcher(params Params) (*Dispatcher, error) {
	if params.Inventory == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "inventory service is required")
	}
	if params.Engine == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "scan engine is required")
	}
	if params.Sessions == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session store is required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "logger is required")
	}
	return &Dispatcher{
		inv:      params.Inventory,
		engine:   params.Engine,
		sessions: params.Sessions,
		logg:     params.Logger,
		metrics:  params.Metrics,
	}, nil
}

// Handle processes one event and returns the reply to render.
func (d *Dispatcher) Handle(ctx context.Context, event Event) (Reply, error) {
	start := time.Now()
	ctx = d.logg.WithChatID(ctx, event.ChatID)
	ctx = d.logg.WithUserID(ctx, event.UserID)

	reply, err := d.route(ctx, event)

	outcome := "ok"
	if err != nil {
		outcome = "error"
		d.logg.Error(ctx, "event handling failed", err)
	}
	d.metrics.ObserveEvent(string(event.Kind), outcome, time.Since(start))
	return reply, err
}

func (d *Dispatcher) route(ctx context.Context, event Event) (Reply, error) {
	switch event.Kind {
	case KindCommand:
		return d.routeCommand(ctx, event)
	case KindCallback:
		return d.routeCallback(ctx, event)
	case KindText:
		return d.routeText(ctx, event)
	case KindScan:
		return d.scanEntry(ctx, event)
	default:
		return Reply{}, pkgerrors.New(pkgerrors.CodeValidation, "unknown event kind")
	}
}

func (d *Dispatcher) routeCommand(ctx context.Context, event Event) (Reply, error) {
	switch event.Command {
	case "start", "help", "menu":
		return d.startCommand(ctx, event)
	case "pantry":
		return d.renderPantry(ctx, event)
	case "categories":
		return d.renderCategories(ctx, event)
	case "review":
		return d.renderReview(ctx, event, "")
	case "search":
		return d.searchCommand(ctx, event)
	case "cancel":
		return d.cancelCommand(ctx, event)
	default:
		return textReply("Unknown command. Try /help."), nil
	}
}

func (d *Dispatcher) routeCallback(ctx context.Context, event Event) (Reply, error) {
	token, err := DecodeToken(event.Token)
	if err != nil {
		return Reply{}, err
	}

	switch token.Family {
	case familyMenu:
		return d.menuCallback(ctx, event, token)
	case familyPantry:
		return d.pantryCallback(ctx, event, token)
	case familyCategory:
		return d.categoryCallback(ctx, event, token)
	case familyScan:
		return d.scanCategoryCallback(ctx, event, token)
	case familyReview:
		return d.reviewCallback(ctx, event, token)
	default:
		return Reply{}, pkgerrors.New(pkgerrors.CodeValidation, "unknown callback token family")
	}
}

func (d *Dispatcher) routeText(ctx context.Context, event Event) (Reply, error) {
	state, _, err := d.sessions.Get(ctx, event.SessionKey(), session.FieldState)
	if err != nil {
		return Reply{}, err
	}

	switch session.State(state) {
	case session.StateAddingCategory:
		return d.categoryNameReceived(ctx, event)
	case session.StateRenamingProduct:
		return d.renameReceived(ctx, event)
	case session.StateFixingBarcode:
		return d.fixcodeReceived(ctx, event)
	default:
		return textReply("I wasn't expecting a message. Try /help."), nil
	}
}

func (d *Dispatcher) cancelCommand(ctx context.Context, event Event) (Reply, error) {
	if err := d.sessions.Clear(ctx, event.SessionKey()); err != nil {
		return Reply{}, err
	}
	return textReply("Cancelled."), nil
}
