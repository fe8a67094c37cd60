package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/mconcas/pantrybot-backend/internal/session"
)

const welcomeText = "Welcome to Pantry Bot!\n\n" +
	"I help you keep track of what's in your pantry.\n" +
	"Scan barcodes when you come back from groceries to add items, " +
	"and scan again when you use them up to remove them.\n\n" +
	"Choose an option below:"

const helpText = "How to use Pantry Bot:\n\n" +
	"1. Scan to add - scan barcodes of items you bought\n" +
	"2. Scan to remove - scan barcodes of items you used up\n" +
	"3. /pantry - see what's in stock\n" +
	"4. /categories - organize items into Pantry, Fridge, Freezer, etc.\n" +
	"5. /review - confirm auto-detected product names\n" +
	"6. /search <name> - find items by product name\n\n" +
	"Product names are looked up from Open Food Facts automatically.\n" +
	"The bot works in private chats and groups."

func mainMenu() Reply {
	return textReply(welcomeText).
		withButtonRow(Button{Label: "My Pantry", Token: EncodeToken(familyMenu, "pantry")}).
		withButtonRow(Button{Label: "Categories", Token: EncodeToken(familyMenu, "categories")}).
		withButtonRow(Button{Label: "Review Products", Token: EncodeToken(familyMenu, "review")}).
		withButtonRow(Button{Label: "Help", Token: EncodeToken(familyMenu, "help")})
}

func backRow() Button {
	return Button{Label: "Back", Token: EncodeToken(familyMenu, "back")}
}

// startCommand handles /start, /help, and /menu. A private-chat deep link
// "scan_<chat>" arms a one-shot owner override so the scan lands in the
// group's inventory.
func (d *Dispatcher) startCommand(ctx context.Context, event Event) (Reply, error) {
	if err := d.inv.EnsureDefaultCategories(ctx, event.OwnerID()); err != nil {
		return Reply{}, err
	}

	if event.Command == "help" {
		return textReply(helpText).withButtonRow(backRow()), nil
	}

	if event.ChatType == ChatTypePrivate && len(event.Args) > 0 && strings.HasPrefix(event.Args[0], "scan") {
		if _, rest, found := strings.Cut(event.Args[0], "_"); found {
			if groupChatID, err := strconv.ParseInt(rest, 10, 64); err == nil {
				if err := d.sessions.Set(ctx, event.SessionKey(), session.FieldScanTarget, fmt.Sprint(groupChatID)); err != nil {
					return Reply{}, err
				}
				return textReply("Scanner armed for your group. Send a scan to add or remove items."), nil
			}
		}
		return textReply("Scanner ready. Send a scan to add or remove items."), nil
	}

	return mainMenu(), nil
}

func (d *Dispatcher) menuCallback(ctx context.Context, event Event, token Token) (Reply, error) {
	switch token.Action {
	case "pantry":
		return d.renderPantry(ctx, event)
	case "categories":
		return d.renderCategories(ctx, event)
	case "review":
		return d.renderReview(ctx, event, "")
	case "help":
		return textReply(helpText).withButtonRow(backRow()), nil
	case "scan_info":
		return textReply("Scan items\n\nUse the scanner to capture barcodes continuously. " +
			"You can scan multiple items in one session.").withButtonRow(backRow()), nil
	case "back":
		return mainMenu(), nil
	default:
		return mainMenu(), nil
	}
}

func (d *Dispatcher) searchCommand(ctx context.Context, event Event) (Reply, error) {
	query := strings.TrimSpace(strings.Join(event.Args, " "))
	if query == "" {
		return textReply("Usage: /search <product name>"), nil
	}

	items, err := d.inv.SearchItems(ctx, event.OwnerID(), query)
	if err != nil {
		return Reply{}, err
	}
	if len(items) == 0 {
		return textReply(fmt.Sprintf("No items matching %q.", query)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Items matching %q:\n\n", query)
	for _, item := range items {
		fmt.Fprintf(&b, "%s %s - %s\n", verifiedMark(item.Verified), item.ProductName, item.Category)
	}
	return textReply(b.String()), nil
}

func verifiedMark(verified bool) string {
	if verified {
		return "[ok]"
	}
	return "[?]"
}
