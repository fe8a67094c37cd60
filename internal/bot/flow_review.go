package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mconcas/pantrybot-backend/internal/session"
	pkgerrors "github.com/mconcas/pantrybot-backend/pkg/errors"
)

// renderReview shows the next unverified product. Skipped barcodes stay in
// the session's skip set for the length of the review session, so skip
// advances instead of looping on the same product.
func (d *Dispatcher) renderReview(ctx context.Context, event Event, prefix string) (Reply, error) {
	owner := event.OwnerID()
	items, err := d.inv.UnverifiedProducts(ctx, owner)
	if err != nil {
		return Reply{}, err
	}

	skipped, err := d.loadSkipSet(ctx, event)
	if err != nil {
		return Reply{}, err
	}
	pending := items[:0:0]
	for _, item := range items {
		if _, ok := skipped[item.Barcode]; ok {
			continue
		}
		pending = append(pending, item)
	}

	if len(pending) == 0 {
		if err := d.sessions.Clear(ctx, event.SessionKey(), session.FieldReviewBarcode, session.FieldReviewSkip); err != nil {
			return Reply{}, err
		}
		text := "All items have been reviewed. Nothing to verify."
		if len(items) > 0 {
			text = "Nothing left to review (skipped items stay unverified)."
		}
		if prefix != "" {
			text = prefix + "\n\n" + text
		}
		return textReply(text).withButtonRow(backRow()), nil
	}

	item := pending[0]
	if err := d.sessions.Set(ctx, event.SessionKey(), session.FieldReviewBarcode, item.Barcode); err != nil {
		return Reply{}, err
	}

	var b strings.Builder
	if prefix != "" {
		b.WriteString(prefix + "\n\n")
	}
	fmt.Fprintf(&b, "Review Product (%d remaining)\n\n", len(pending))
	fmt.Fprintf(&b, "Barcode: %s\n", item.Barcode)
	fmt.Fprintf(&b, "Auto-detected name: %s\n", item.ProductName)
	fmt.Fprintf(&b, "Category: %s\n\n", item.Category)
	b.WriteString("Is this name correct?")

	return textReply(b.String()).
		withButtonRow(
			Button{Label: "Correct", Token: EncodeToken(familyReview, "ok", item.Barcode)},
			Button{Label: "Rename", Token: EncodeToken(familyReview, "rename", item.Barcode)},
		).
		withButtonRow(
			Button{Label: "Fix Barcode", Token: EncodeToken(familyReview, "fixcode", item.Barcode)},
			Button{Label: "Remove", Token: EncodeToken(familyReview, "remove", item.Barcode)},
		).
		withButtonRow(
			Button{Label: "Skip", Token: EncodeToken(familyReview, "skip")},
			Button{Label: "Done", Token: EncodeToken(familyReview, "done")},
		), nil
}

func (d *Dispatcher) reviewCallback(ctx context.Context, event Event, token Token) (Reply, error) {
	owner := event.OwnerID()
	key := event.SessionKey()

	switch token.Action {
	case "ok":
		count, err := d.inv.VerifyProduct(ctx, owner, token.Arg(0))
		if err != nil {
			return Reply{}, err
		}
		return d.renderReview(ctx, event, fmt.Sprintf("Verified %d %s.", count, pluralize("item", count)))

	case "rename":
		if err := d.sessions.Set(ctx, key, session.FieldReviewBarcode, token.Arg(0)); err != nil {
			return Reply{}, err
		}
		if err := d.sessions.Set(ctx, key, session.FieldState, string(session.StateRenamingProduct)); err != nil {
			return Reply{}, err
		}
		return textReply(fmt.Sprintf("Type the correct product name for barcode %s:", token.Arg(0))), nil

	case "fixcode":
		if err := d.sessions.Set(ctx, key, session.FieldReviewBarcode, token.Arg(0)); err != nil {
			return Reply{}, err
		}
		if err := d.sessions.Set(ctx, key, session.FieldState, string(session.StateFixingBarcode)); err != nil {
			return Reply{}, err
		}
		return textReply(fmt.Sprintf("Type the correct barcode to replace %s:", token.Arg(0))), nil

	case "remove":
		count, err := d.inv.RemoveProduct(ctx, owner, token.Arg(0))
		if err != nil {
			return Reply{}, err
		}
		return d.renderReview(ctx, event, fmt.Sprintf("Removed %d %s.", count, pluralize("item", count)))

	case "skip":
		if err := d.skipCurrent(ctx, event); err != nil {
			return Reply{}, err
		}
		return d.renderReview(ctx, event, "")

	case "done":
		if err := d.sessions.Clear(ctx, key, session.FieldState, session.FieldReviewBarcode, session.FieldReviewSkip); err != nil {
			return Reply{}, err
		}
		return textReply("Review session ended."), nil

	default:
		return d.renderReview(ctx, event, "")
	}
}

// renameReceived completes the rename leg: all lots under the barcode get
// the corrected name and the fix lands in the shared product cache.
func (d *Dispatcher) renameReceived(ctx context.Context, event Event) (Reply, error) {
	key := event.SessionKey()
	barcode, ok, err := d.sessions.Pop(ctx, key, session.FieldReviewBarcode)
	if err != nil {
		return Reply{}, err
	}
	if err := d.sessions.Clear(ctx, key, session.FieldState); err != nil {
		return Reply{}, err
	}

	newName := strings.TrimSpace(event.Text)
	if !ok || newName == "" {
		return textReply("Cancelled."), nil
	}

	count, err := d.inv.RenameProduct(ctx, event.OwnerID(), barcode, newName)
	if err != nil {
		if coded := pkgerrors.As(err); coded != nil && coded.Code() == pkgerrors.CodeValidation {
			return textReply(coded.Message() + "."), nil
		}
		return Reply{}, err
	}
	return textReply(fmt.Sprintf("Renamed %d %s to %q and marked as verified.\n\nUse /review to continue reviewing.",
		count, pluralize("item", count), newName)), nil
}

// fixcodeReceived completes the fix-barcode leg: lots move to the corrected
// barcode, adopting the cached trusted name when one exists.
func (d *Dispatcher) fixcodeReceived(ctx context.Context, event Event) (Reply, error) {
	key := event.SessionKey()
	oldBarcode, ok, err := d.sessions.Pop(ctx, key, session.FieldReviewBarcode)
	if err != nil {
		return Reply{}, err
	}
	if err := d.sessions.Clear(ctx, key, session.FieldState); err != nil {
		return Reply{}, err
	}

	newBarcode := strings.TrimSpace(event.Text)
	if !ok || newBarcode == "" {
		return textReply("Cancelled."), nil
	}

	moved, adoptedName, err := d.inv.RetargetBarcode(ctx, event.OwnerID(), oldBarcode, newBarcode)
	if err != nil {
		if coded := pkgerrors.As(err); coded != nil && coded.Code() == pkgerrors.CodeValidation {
			return textReply(coded.Message() + "."), nil
		}
		return Reply{}, err
	}
	if moved == 0 {
		return textReply(fmt.Sprintf("No items found for barcode %s.", oldBarcode)), nil
	}

	text := fmt.Sprintf("Moved %d %s to barcode %s.", moved, pluralize("item", moved), newBarcode)
	if adoptedName != "" {
		text += fmt.Sprintf(" Known product: %q (verified).", adoptedName)
	}
	return textReply(text + "\n\nUse /review to continue reviewing."), nil
}

func (d *Dispatcher) skipCurrent(ctx context.Context, event Event) error {
	key := event.SessionKey()
	barcode, ok, err := d.sessions.Get(ctx, key, session.FieldReviewBarcode)
	if err != nil || !ok {
		return err
	}

	skipped, err := d.loadSkipSet(ctx, event)
	if err != nil {
		return err
	}
	skipped[barcode] = struct{}{}

	list := make([]string, 0, len(skipped))
	for code := range skipped {
		list = append(list, code)
	}
	encoded, err := json.Marshal(list)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode review skip set")
	}
	return d.sessions.Set(ctx, key, session.FieldReviewSkip, string(encoded))
}

func (d *Dispatcher) loadSkipSet(ctx context.Context, event Event) (map[string]struct{}, error) {
	value, ok, err := d.sessions.Get(ctx, event.SessionKey(), session.FieldReviewSkip)
	if err != nil {
		return nil, err
	}
	skipped := map[string]struct{}{}
	if !ok {
		return skipped, nil
	}
	var list []string
	if err := json.Unmarshal([]byte(value), &list); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode review skip set")
	}
	for _, code := range list {
		skipped[code] = struct{}{}
	}
	return skipped, nil
}
