package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/mconcas/pantrybot-backend/internal/session"
	pkgerrors "github.com/mconcas/pantrybot-backend/pkg/errors"
)

// renderCategories shows the management view: per-category counts plus
// delete buttons and the add-category entry point.
func (d *Dispatcher) renderCategories(ctx context.Context, event Event) (Reply, error) {
	if err := d.inv.EnsureDefaultCategories(ctx, event.OwnerID()); err != nil {
		return Reply{}, err
	}
	summaries, err := d.inv.Categories(ctx, event.OwnerID())
	if err != nil {
		return Reply{}, err
	}

	reply := textReply("Categories\n\nManage your pantry categories:")
	for _, summary := range summaries {
		reply = reply.withButtonRow(
			Button{
				Label: fmt.Sprintf("%s (%d)", summary.Name, summary.Quantity),
				Token: EncodeToken(familyPantry, "cat", summary.Name),
			},
			Button{
				Label: "Delete",
				Token: EncodeToken(familyCategory, "del", summary.Name),
			},
		)
	}
	return reply.
		withButtonRow(Button{Label: "Add Category", Token: EncodeToken(familyCategory, "add")}).
		withButtonRow(backRow()), nil
}

func (d *Dispatcher) categoryCallback(ctx context.Context, event Event, token Token) (Reply, error) {
	switch token.Action {
	case "add":
		return d.addCategoryPrompt(ctx, event)
	case "del":
		return d.deleteCategory(ctx, event, token.Arg(0))
	default:
		return d.renderCategories(ctx, event)
	}
}

func (d *Dispatcher) addCategoryPrompt(ctx context.Context, event Event) (Reply, error) {
	if err := d.sessions.Set(ctx, event.SessionKey(), session.FieldState, string(session.StateAddingCategory)); err != nil {
		return Reply{}, err
	}
	return textReply("New Category\n\nType the category name (e.g. \"Bathroom\"):"), nil
}

// categoryNameReceived completes the add-category flow from free text.
// An empty name re-prompts without leaving the state.
func (d *Dispatcher) categoryNameReceived(ctx context.Context, event Event) (Reply, error) {
	name := strings.TrimSpace(event.Text)
	if name == "" {
		return textReply("Name cannot be empty. Try again:"), nil
	}

	created, err := d.inv.AddCategory(ctx, event.OwnerID(), name)
	if err != nil {
		if coded := pkgerrors.As(err); coded != nil && coded.Code() == pkgerrors.CodeValidation {
			return textReply(coded.Message() + ". Try again:"), nil
		}
		return Reply{}, err
	}

	if err := d.sessions.Clear(ctx, event.SessionKey(), session.FieldState); err != nil {
		return Reply{}, err
	}
	if !created {
		return textReply(fmt.Sprintf("Category %q already exists.", name)), nil
	}
	return textReply(fmt.Sprintf("Category %q created.\n\nUse /categories to manage.", name)), nil
}

// deleteCategory enforces the non-empty guard and maps coded failures to
// user-facing text instead of errors.
func (d *Dispatcher) deleteCategory(ctx context.Context, event Event, name string) (Reply, error) {
	backToCategories := Button{Label: "Back to Categories", Token: EncodeToken(familyMenu, "categories")}

	err := d.inv.DeleteCategory(ctx, event.OwnerID(), name)
	if err != nil {
		coded := pkgerrors.As(err)
		switch {
		case coded != nil && coded.Code() == pkgerrors.CodeConflict:
			text := fmt.Sprintf("%q still has items.\nRemove all items first before deleting the category.", name)
			return textReply(text).withButtonRow(backToCategories), nil
		case coded != nil && coded.Code() == pkgerrors.CodeNotFound:
			return textReply("Category not found.").withButtonRow(backToCategories), nil
		default:
			return Reply{}, err
		}
	}
	return textReply(fmt.Sprintf("Category %q deleted.", name)).withButtonRow(backToCategories), nil
}
