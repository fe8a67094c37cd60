package bot

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"
)

// renderPantry shows the owner's categories with aggregated unit counts.
func (d *Dispatcher) renderPantry(ctx context.Context, event Event) (Reply, error) {
	if err := d.inv.EnsureDefaultCategories(ctx, event.OwnerID()); err != nil {
		return Reply{}, err
	}
	summaries, err := d.inv.Categories(ctx, event.OwnerID())
	if err != nil {
		return Reply{}, err
	}
	if len(summaries) == 0 {
		return textReply("No categories yet. Use /categories to add one."), nil
	}

	reply := textReply("Your Pantry\n\nSelect a category to view items:")
	for _, summary := range summaries {
		label := fmt.Sprintf("%s (%d %s)", summary.Name, summary.Quantity, pluralize("item", summary.Quantity))
		reply = reply.withButtonRow(Button{
			Label: label,
			Token: EncodeToken(familyPantry, "cat", summary.Name),
		})
	}
	return reply.withButtonRow(backRow()), nil
}

func (d *Dispatcher) pantryCallback(ctx context.Context, event Event, token Token) (Reply, error) {
	switch token.Action {
	case "cat":
		return d.renderCategoryItems(ctx, event, token.Arg(0), "")
	case "del":
		return d.deleteOneUnit(ctx, event, token.Arg(0), token.Arg(1))
	default:
		return d.renderPantry(ctx, event)
	}
}

// renderCategoryItems shows one category grouped per product, one delete
// button per line. prefix carries an acknowledgement from a preceding
// action; the refresh itself is a plain render, not a synthetic event.
func (d *Dispatcher) renderCategoryItems(ctx context.Context, event Event, category, prefix string) (Reply, error) {
	grouped, err := d.inv.GroupedItems(ctx, event.OwnerID(), category)
	if err != nil {
		return Reply{}, err
	}

	backToPantry := Button{Label: "Back to Pantry", Token: EncodeToken(familyMenu, "pantry")}

	if len(grouped) == 0 {
		text := fmt.Sprintf("%s is empty.\n\nScan some items to add them.", category)
		if prefix != "" {
			text = prefix + "\n\n" + text
		}
		return textReply(text).withButtonRow(backToPantry), nil
	}

	var b strings.Builder
	if prefix != "" {
		b.WriteString(prefix + "\n\n")
	}
	fmt.Fprintf(&b, "%s (%d %s):\n\n", category, len(grouped), pluralize("product", len(grouped)))

	reply := Reply{}
	for _, product := range grouped {
		name := product.ProductName
		if name == "" {
			name = product.Barcode
		}
		fmt.Fprintf(&b, "%s %s x %d\n", verifiedMark(product.Verified), name, product.Quantity)
		reply = reply.withButtonRow(Button{
			Label: "Remove " + truncate(name, 30),
			Token: EncodeToken(familyPantry, "del", product.Barcode, category),
		})
	}
	b.WriteString("\nTap an item to remove one unit.")

	reply.Text = b.String()
	return reply.withButtonRow(backToPantry), nil
}

// deleteOneUnit removes the oldest lot of a product and re-renders the view.
func (d *Dispatcher) deleteOneUnit(ctx context.Context, event Event, barcode, category string) (Reply, error) {
	removed, err := d.inv.DeleteOneUnit(ctx, event.OwnerID(), barcode, category)
	if err != nil {
		return Reply{}, err
	}
	ack := "Removed one unit."
	if !removed {
		ack = "Item not found."
	}
	return d.renderCategoryItems(ctx, event, category, ack)
}

func pluralize(noun string, count int) string {
	if count == 1 {
		return noun
	}
	return noun + "s"
}

// truncate shortens s to at most max runes, keeping multibyte names valid.
func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}
