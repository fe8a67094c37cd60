package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/mconcas/pantrybot-backend/internal/scan"
	"github.com/mconcas/pantrybot-backend/internal/session"
	pkgerrors "github.com/mconcas/pantrybot-backend/pkg/errors"
)

const cancelAction = "__cancel__"

// scanEntry receives a scanner payload, parks it in the session, and asks
// which category the batch applies to. Categories are ensured for the
// effective owner so a deep-link scan sees the group's categories.
func (d *Dispatcher) scanEntry(ctx context.Context, event Event) (Reply, error) {
	batch, err := scan.ParsePayload(event.ScanData)
	if err != nil {
		if coded := pkgerrors.As(err); coded != nil && coded.Code() == pkgerrors.CodeValidation {
			return textReply("Invalid data from scanner: " + coded.Message() + "."), nil
		}
		return Reply{}, err
	}

	owner, _, err := d.effectiveOwner(ctx, event, false)
	if err != nil {
		return Reply{}, err
	}
	if err := d.inv.EnsureDefaultCategories(ctx, owner); err != nil {
		return Reply{}, err
	}
	names, err := d.inv.CategoryNames(ctx, owner)
	if err != nil {
		return Reply{}, err
	}

	encoded, err := json.Marshal(batch)
	if err != nil {
		return Reply{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode scan batch")
	}
	key := event.SessionKey()
	if err := d.sessions.Set(ctx, key, session.FieldScanBatch, string(encoded)); err != nil {
		return Reply{}, err
	}
	if err := d.sessions.Set(ctx, key, session.FieldState, string(session.StateAwaitingCategory)); err != nil {
		return Reply{}, err
	}

	var b strings.Builder
	count := len(batch.Scans)
	fmt.Fprintf(&b, "Scanned %d %s (%s mode)\n\n", count, pluralize("barcode", count), batch.Mode)
	for i, s := range batch.Scans {
		if i == 10 {
			fmt.Fprintf(&b, "...and %d more\n", count-10)
			break
		}
		fmt.Fprintf(&b, "- %s\n", s.Code)
	}
	b.WriteString("\nSelect the category:")

	reply := textReply(b.String())
	for _, name := range names {
		reply = reply.withButtonRow(Button{Label: name, Token: EncodeToken(familyScan, name)})
	}
	return reply.withButtonRow(Button{Label: "Cancel", Token: EncodeToken(familyScan, cancelAction)}), nil
}

// scanCategoryCallback settles a pending batch once a category is chosen.
func (d *Dispatcher) scanCategoryCallback(ctx context.Context, event Event, token Token) (Reply, error) {
	key := event.SessionKey()

	if token.Action == cancelAction {
		if err := d.sessions.Clear(ctx, key, session.FieldState, session.FieldScanBatch, session.FieldScanTarget); err != nil {
			return Reply{}, err
		}
		return textReply("Cancelled."), nil
	}

	encoded, ok, err := d.sessions.Pop(ctx, key, session.FieldScanBatch)
	if err != nil {
		return Reply{}, err
	}
	if !ok {
		if err := d.sessions.Clear(ctx, key, session.FieldState); err != nil {
			return Reply{}, err
		}
		return textReply("No pending scans. Send a new scan to start over."), nil
	}
	var batch scan.Batch
	if err := json.Unmarshal([]byte(encoded), &batch); err != nil {
		return Reply{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode scan batch")
	}

	// the override is one-shot: consumed here no matter how the batch went
	owner, overrideChat, err := d.effectiveOwner(ctx, event, true)
	if err != nil {
		return Reply{}, err
	}
	if err := d.sessions.Clear(ctx, key, session.FieldState); err != nil {
		return Reply{}, err
	}

	category := token.Action
	summary, err := d.engine.Reconcile(ctx, owner, batch, category)
	if err != nil {
		return Reply{}, err
	}

	body := summaryBody(summary)
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s:\n\n%s", summaryVerb(summary.Mode), category, body)
	if summary.Unverified > 0 {
		b.WriteString("\n\nItems marked [?] need review. Use /review to verify product names.")
	}
	reply := textReply(b.String())

	if overrideChat != 0 {
		verb := "added items to"
		if summary.Mode == scan.ModeRemove {
			verb = "removed items from"
		}
		reply.Broadcast = &Broadcast{
			ChatID: overrideChat,
			Text: fmt.Sprintf("%s %s %s:\n\n%s\n\nUse /pantry to see the full list.",
				event.UserName, verb, category, body),
		}
	}
	return reply, nil
}

// effectiveOwner resolves the inventory owner, honoring an armed deep-link
// override. When consume is set the override is removed from the session.
func (d *Dispatcher) effectiveOwner(ctx context.Context, event Event, consume bool) (int64, int64, error) {
	key := event.SessionKey()
	var (
		value string
		ok    bool
		err   error
	)
	if consume {
		value, ok, err = d.sessions.Pop(ctx, key, session.FieldScanTarget)
	} else {
		value, ok, err = d.sessions.Get(ctx, key, session.FieldScanTarget)
	}
	if err != nil {
		return 0, 0, err
	}
	if !ok {
		return event.OwnerID(), 0, nil
	}
	target, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return event.OwnerID(), 0, nil
	}
	return target, target, nil
}

func summaryVerb(mode scan.Mode) string {
	if mode == scan.ModeRemove {
		return "Removed from"
	}
	return "Added to"
}

func summaryBody(summary scan.Summary) string {
	if len(summary.Results) == 0 {
		return "Nothing to do."
	}
	lines := make([]string, 0, len(summary.Results))
	for _, result := range summary.Results {
		switch result.Outcome {
		case scan.OutcomeAdded:
			lines = append(lines, fmt.Sprintf("%s %s", verifiedMark(result.Verified), result.Name))
		case scan.OutcomeRemoved:
			lines = append(lines, "Removed: "+result.Barcode)
		case scan.OutcomeNotFound:
			lines = append(lines, "Not found: "+result.Barcode)
		default:
			lines = append(lines, "Failed: "+result.Barcode)
		}
	}
	return strings.Join(lines, "\n")
}
