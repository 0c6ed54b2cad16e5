package flow

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/sokolabs/sokobot-backend/internal/communities"
	"github.com/sokolabs/sokobot-backend/internal/escrow"
	"github.com/sokolabs/sokobot-backend/internal/messaging"
	"github.com/sokolabs/sokobot-backend/internal/models"
	"github.com/sokolabs/sokobot-backend/internal/session"
	"github.com/sokolabs/sokobot-backend/internal/storage"
)

const fallbackMessage = "😕 Sorry, something went wrong on our side. Please try that again."

// Handlers holds one handler per conversational stage. Each handler
// validates input, mutates the session through the session store, and
// replies. Session mutations are committed before the outbound send, so a
// crash between the two loses at most one reply, never progress.
type Handlers struct {
	sessions *session.Store
	store    storage.Store
	msgr     messaging.Messenger
	escrow   escrow.Client
}

// NewHandlers wires the flow handlers to their collaborators.
func NewHandlers(sessions *session.Store, store storage.Store, msgr messaging.Messenger, escrowClient escrow.Client) *Handlers {
	return &Handlers{
		sessions: sessions,
		store:    store,
		msgr:     msgr,
		escrow:   escrowClient,
	}
}

// ShowMainMenu resets the conversation to the main menu and renders it.
// Used for global commands and as the safe landing state after faults.
func (h *Handlers) ShowMainMenu(ctx context.Context, key string) {
	h.sessions.Update(key, session.Update{
		CurrentFlow: session.FlowPtr(session.FlowMainMenu),
		Scratch:     &session.Scratch{},
	})
	h.sendMenu(ctx, key, "🏪 *Welcome to SokoBot!*", mainMenuOptions(), "Reply with a number. Type *help* anytime to come back here.")
}

// Apologize sends the generic fallback message for a failed turn.
func (h *Handlers) Apologize(ctx context.Context, key string) {
	h.send(ctx, key, fallbackMessage)
}

// MainMenu handles role selection.
func (h *Handlers) MainMenu(ctx context.Context, sess *session.Session, ev Event) error {
	var role string
	switch ev.Input() {
	case "1", "sell", "seller":
		role = models.RoleSeller
	case "2", "buy", "buyer":
		role = models.RoleBuyer
	default:
		h.send(ctx, sess.AddressKey, h.withMenu("❌ I didn't understand that.", "🏪 *Welcome to SokoBot!*", mainMenuOptions(), "Reply with a number."))
		return nil
	}

	_, ok := h.sessions.Update(sess.AddressKey, session.Update{
		CurrentFlow: session.FlowPtr(session.FlowCommunitySelection),
		Scratch:     &session.Scratch{PendingRole: role},
	})
	if !ok {
		return nil
	}

	h.sendMenu(ctx, sess.AddressKey, "📍 *Choose your community:*", communityOptions(), "Reply with a number, or 0 for the main menu.")
	return nil
}

// CommunitySelection assigns the user to a community and persists the role
// picked on the main menu. First-time users get the community's default
// voucher allocation.
func (h *Handlers) CommunitySelection(ctx context.Context, sess *session.Session, ev Event) error {
	community, ok := resolveCommunity(ev.Input())
	if !ok {
		h.send(ctx, sess.AddressKey, h.withMenu("❌ That's not one of our communities.", "📍 *Choose your community:*", communityOptions(), "Reply with a number, or 0 for the main menu."))
		return nil
	}

	role := sess.Scratch.PendingRole
	if role == "" {
		// The role selection step was skipped somehow; start over.
		log.Printf("Community selection without pending role for %s, resetting", sess.AddressKey)
		h.ShowMainMenu(ctx, sess.AddressKey)
		return nil
	}

	firstTime := false
	user, err := h.store.GetUserByPhone(ctx, sess.AddressKey)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		firstTime = true
		user, err = h.store.CreateUser(ctx, &models.User{
			Phone:          sess.AddressKey,
			Role:           role,
			Community:      community.Code,
			VoucherBalance: community.DefaultVouchers,
		})
		if err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		if _, err := h.escrow.AllocateVouchers(ctx, user.UserID, community.Code, community.DefaultVouchers); err != nil {
			log.Printf("Voucher allocation failed for %s: %v", user.UserID, err)
		}
	case err != nil:
		return fmt.Errorf("look up user: %w", err)
	default:
		user.Role = role
		if user.Community == "" {
			user.Community = community.Code
		}
		if err := h.store.UpdateUser(ctx, user); err != nil {
			return fmt.Errorf("update user: %w", err)
		}
	}

	nextFlow := session.FlowSellerMenu
	if role == models.RoleBuyer {
		nextFlow = session.FlowBuyerMenu
	}
	_, ok = h.sessions.Update(sess.AddressKey, session.Update{
		CurrentFlow: session.FlowPtr(nextFlow),
		Role:        session.StrPtr(role),
		Community:   session.StrPtr(user.Community),
		Scratch:     &session.Scratch{},
	})
	if !ok {
		return nil
	}

	var notice string
	if firstTime {
		notice = fmt.Sprintf("🎉 *Welcome to %s!* You've received %d community vouchers to get started.", community.Name, community.DefaultVouchers)
	} else {
		notice = fmt.Sprintf("✅ You're set up in *%s*.", community.Name)
	}
	if role == models.RoleSeller {
		h.send(ctx, sess.AddressKey, h.withMenu(notice, "🛍 *Seller Menu*", sellerMenuOptions(), "Reply with a number."))
	} else {
		h.send(ctx, sess.AddressKey, h.withMenu(notice, "🛒 *Buyer Menu*", buyerMenuOptions(), "Reply with a number."))
	}
	return nil
}

// SellerMenu handles the seller's top-level options.
func (h *Handlers) SellerMenu(ctx context.Context, sess *session.Session, ev Event) error {
	switch ev.Input() {
	case "1", "create_shop":
		_, err := h.store.GetShopByOwner(ctx, sess.AddressKey)
		if err == nil {
			h.send(ctx, sess.AddressKey, h.withMenu("ℹ️ You already have a shop. Each seller can run one shop.", "🛍 *Seller Menu*", sellerMenuOptions(), "Reply with a number."))
			return nil
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("look up shop: %w", err)
		}

		_, ok := h.sessions.Update(sess.AddressKey, session.Update{
			CurrentFlow: session.FlowPtr(session.FlowShopNameInput),
			Scratch:     &session.Scratch{ShopDraft: &models.ShopDraft{}},
		})
		if !ok {
			return nil
		}
		h.send(ctx, sess.AddressKey, "🏪 *Let's create your shop!*\n\nStep 1 of 4: What should we call it?\n\nSend a name (2-50 characters), or *cancel* to stop.")
		return nil

	case "2", "my_shop":
		shop, err := h.store.GetShopByOwner(ctx, sess.AddressKey)
		if errors.Is(err, storage.ErrNotFound) {
			h.send(ctx, sess.AddressKey, h.withMenu("ℹ️ You don't have a shop yet. Pick option 1 to create one.", "🛍 *Seller Menu*", sellerMenuOptions(), "Reply with a number."))
			return nil
		}
		if err != nil {
			return fmt.Errorf("look up shop: %w", err)
		}
		h.send(ctx, sess.AddressKey, h.withMenu(renderShop(shop), "🛍 *Seller Menu*", sellerMenuOptions(), "Reply with a number."))
		return nil

	case "3", "browse":
		return h.browseCommunityShops(ctx, sess, session.FlowSellerBrowse)

	default:
		h.send(ctx, sess.AddressKey, h.withMenu("❌ Please pick one of the options.", "🛍 *Seller Menu*", sellerMenuOptions(), "Reply with a number."))
		return nil
	}
}

// BuyerMenu handles the buyer's top-level options.
func (h *Handlers) BuyerMenu(ctx context.Context, sess *session.Session, ev Event) error {
	switch ev.Input() {
	case "1", "browse":
		return h.browseCommunityShops(ctx, sess, session.FlowBuyerBrowse)
	default:
		h.send(ctx, sess.AddressKey, h.withMenu("❌ Please pick one of the options.", "🛒 *Buyer Menu*", buyerMenuOptions(), "Reply with a number."))
		return nil
	}
}

// SellerBrowse returns the seller to their menu after browsing.
func (h *Handlers) SellerBrowse(ctx context.Context, sess *session.Session, _ Event) error {
	_, ok := h.sessions.Update(sess.AddressKey, session.Update{
		CurrentFlow: session.FlowPtr(session.FlowSellerMenu),
	})
	if !ok {
		return nil
	}
	h.sendMenu(ctx, sess.AddressKey, "🛍 *Seller Menu*", sellerMenuOptions(), "Reply with a number.")
	return nil
}

// BuyerBrowse returns the buyer to their menu after browsing.
func (h *Handlers) BuyerBrowse(ctx context.Context, sess *session.Session, _ Event) error {
	_, ok := h.sessions.Update(sess.AddressKey, session.Update{
		CurrentFlow: session.FlowPtr(session.FlowBuyerMenu),
	})
	if !ok {
		return nil
	}
	h.sendMenu(ctx, sess.AddressKey, "🛒 *Buyer Menu*", buyerMenuOptions(), "Reply with a number.")
	return nil
}

// browseCommunityShops lists the shops of the session's community and moves
// into the matching browse state. Any reply there returns to the menu.
func (h *Handlers) browseCommunityShops(ctx context.Context, sess *session.Session, browseFlow session.Flow) error {
	shops, err := h.store.GetShopsByCommunity(ctx, sess.Community)
	if err != nil {
		return fmt.Errorf("list shops: %w", err)
	}

	_, ok := h.sessions.Update(sess.AddressKey, session.Update{
		CurrentFlow: session.FlowPtr(browseFlow),
	})
	if !ok {
		return nil
	}

	if len(shops) == 0 {
		h.send(ctx, sess.AddressKey, "🏜 No shops in your community yet.\n\nSend anything to go back.")
		return nil
	}

	var b strings.Builder
	b.WriteString("🏘 *Shops in your community:*\n")
	for i, shop := range shops {
		fmt.Fprintf(&b, "\n%d. *%s* — %s", i+1, shop.Name, shop.Category)
	}
	b.WriteString("\n\nSend anything to go back.")
	h.send(ctx, sess.AddressKey, b.String())
	return nil
}

// send delivers a plain text reply, logging delivery failures. A send
// failure never fails the turn; the session state is already committed.
func (h *Handlers) send(ctx context.Context, key, body string) {
	if _, err := h.msgr.SendText(ctx, key, body); err != nil {
		log.Printf("Failed to send reply to %s: %v", key, err)
	}
}

// sendMenu delivers a rendered menu, logging delivery failures.
func (h *Handlers) sendMenu(ctx context.Context, key, title string, options []messaging.MenuOption, footer string) {
	if _, err := h.msgr.SendMenu(ctx, key, title, options, footer); err != nil {
		log.Printf("Failed to send menu to %s: %v", key, err)
	}
}

// withMenu prefixes a notice line to a rendered menu so each turn costs a
// single outbound message.
func (h *Handlers) withMenu(notice, title string, options []messaging.MenuOption, footer string) string {
	return notice + "\n\n" + messaging.RenderMenu(title, options, footer)
}

func mainMenuOptions() []messaging.MenuOption {
	return []messaging.MenuOption{
		{ID: "sell", Label: "Sell in your community"},
		{ID: "buy", Label: "Buy from local shops"},
	}
}

func sellerMenuOptions() []messaging.MenuOption {
	return []messaging.MenuOption{
		{ID: "create_shop", Label: "Create your shop"},
		{ID: "my_shop", Label: "View my shop"},
		{ID: "browse", Label: "Browse community shops"},
	}
}

func buyerMenuOptions() []messaging.MenuOption {
	return []messaging.MenuOption{
		{ID: "browse", Label: "Browse community shops"},
	}
}

func communityOptions() []messaging.MenuOption {
	all := communities.All()
	options := make([]messaging.MenuOption, 0, len(all))
	for _, c := range all {
		options = append(options, messaging.MenuOption{ID: c.Code, Label: c.Name})
	}
	return options
}

// resolveCommunity accepts either a 1-based menu index or a community code.
func resolveCommunity(input string) (communities.Community, bool) {
	if n, err := strconv.Atoi(input); err == nil {
		return communities.ByIndex(n)
	}
	return communities.ByCode(input)
}

func renderShop(shop *models.Shop) string {
	return fmt.Sprintf("🏪 *%s*\n📂 %s\n📝 %s", shop.Name, shop.Category, shop.Description)
}
