package flow

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/sokolabs/sokobot-backend/internal/communities"
	"github.com/sokolabs/sokobot-backend/internal/messaging"
	"github.com/sokolabs/sokobot-backend/internal/models"
	"github.com/sokolabs/sokobot-backend/internal/session"
	"github.com/sokolabs/sokobot-backend/internal/storage"
)

// Shop-creation wizard: four sequential steps accumulating a ShopDraft in
// session scratch. The draft becomes a Shop only on final confirmation.
// "cancel" discards the draft from any step.

const (
	shopNameMin        = 2
	shopNameMax        = 50
	shopDescriptionMin = 10
	shopDescriptionMax = 200
)

// ShopName handles step 1: naming the shop.
func (h *Handlers) ShopName(ctx context.Context, sess *session.Session, ev Event) error {
	if h.wizardCancelled(ctx, sess, ev) {
		return nil
	}
	draft := sess.Scratch.ShopDraft
	if draft == nil {
		return h.resetBrokenWizard(ctx, sess)
	}

	name := strings.TrimSpace(ev.RawText())
	if utf8.RuneCountInString(name) < shopNameMin {
		h.send(ctx, sess.AddressKey, fmt.Sprintf("❌ That name is too short. Use at least %d characters.\n\nStep 1 of 4: What should we call your shop?", shopNameMin))
		return nil
	}
	if utf8.RuneCountInString(name) > shopNameMax {
		h.send(ctx, sess.AddressKey, fmt.Sprintf("❌ That name is too long. Keep it under %d characters.\n\nStep 1 of 4: What should we call your shop?", shopNameMax))
		return nil
	}

	taken, err := h.store.IsShopNameTaken(ctx, name, sess.Community)
	if err != nil {
		return fmt.Errorf("check shop name: %w", err)
	}
	if taken {
		h.send(ctx, sess.AddressKey, fmt.Sprintf("❌ *%s* is already taken in your community. Try another name.", name))
		return nil
	}

	updated := *draft
	updated.Name = name
	_, ok := h.sessions.Update(sess.AddressKey, session.Update{
		CurrentFlow: session.FlowPtr(session.FlowShopDescriptionInput),
		Scratch:     &session.Scratch{ShopDraft: &updated},
	})
	if !ok {
		return nil
	}

	h.send(ctx, sess.AddressKey, fmt.Sprintf("✅ *%s* it is!\n\nStep 2 of 4: Describe what you sell (%d-%d characters).\n\nSend *back* to change the name, or *cancel* to stop.", name, shopDescriptionMin, shopDescriptionMax))
	return nil
}

// ShopDescription handles step 2: describing the shop. "back" regresses to
// the name step; the name already captured stays in the draft and is
// overwritten by whatever the user sends next.
func (h *Handlers) ShopDescription(ctx context.Context, sess *session.Session, ev Event) error {
	if h.wizardCancelled(ctx, sess, ev) {
		return nil
	}
	draft := sess.Scratch.ShopDraft
	if draft == nil {
		return h.resetBrokenWizard(ctx, sess)
	}

	if ev.Input() == "back" {
		_, ok := h.sessions.Update(sess.AddressKey, session.Update{
			CurrentFlow: session.FlowPtr(session.FlowShopNameInput),
		})
		if !ok {
			return nil
		}
		h.send(ctx, sess.AddressKey, "↩️ Back to step 1: What should we call your shop?")
		return nil
	}

	description := strings.TrimSpace(ev.RawText())
	if utf8.RuneCountInString(description) < shopDescriptionMin {
		h.send(ctx, sess.AddressKey, fmt.Sprintf("❌ That description is too short. Use at least %d characters.\n\nStep 2 of 4: Describe what you sell.", shopDescriptionMin))
		return nil
	}
	if utf8.RuneCountInString(description) > shopDescriptionMax {
		h.send(ctx, sess.AddressKey, fmt.Sprintf("❌ That description is too long. Keep it under %d characters.\n\nStep 2 of 4: Describe what you sell.", shopDescriptionMax))
		return nil
	}

	updated := *draft
	updated.Description = description
	_, ok := h.sessions.Update(sess.AddressKey, session.Update{
		CurrentFlow: session.FlowPtr(session.FlowShopCategorySelect),
		Scratch:     &session.Scratch{ShopDraft: &updated},
	})
	if !ok {
		return nil
	}

	h.send(ctx, sess.AddressKey, h.withMenu("✅ Got it!", "Step 3 of 4: Pick a category:", categoryOptions(), "Reply with a number, or *cancel* to stop."))
	return nil
}

// ShopCategory handles step 3: picking a category from the fixed list.
func (h *Handlers) ShopCategory(ctx context.Context, sess *session.Session, ev Event) error {
	if h.wizardCancelled(ctx, sess, ev) {
		return nil
	}
	draft := sess.Scratch.ShopDraft
	if draft == nil {
		return h.resetBrokenWizard(ctx, sess)
	}

	category, ok := resolveCategory(ev.Input())
	if !ok {
		h.send(ctx, sess.AddressKey, h.withMenu("❌ That isn't on the list.", "Step 3 of 4: Pick a category:", categoryOptions(), "Reply with a number, or *cancel* to stop."))
		return nil
	}

	updated := *draft
	updated.Category = category
	_, okUpd := h.sessions.Update(sess.AddressKey, session.Update{
		CurrentFlow: session.FlowPtr(session.FlowShopConfirmation),
		Scratch:     &session.Scratch{ShopDraft: &updated},
	})
	if !okUpd {
		return nil
	}

	h.send(ctx, sess.AddressKey, confirmationPrompt(&updated))
	return nil
}

// ShopConfirmation handles step 4: committing or discarding the draft.
func (h *Handlers) ShopConfirmation(ctx context.Context, sess *session.Session, ev Event) error {
	if h.wizardCancelled(ctx, sess, ev) {
		return nil
	}
	draft := sess.Scratch.ShopDraft
	if draft == nil {
		return h.resetBrokenWizard(ctx, sess)
	}

	switch ev.Input() {
	case "1", "confirm":
		return h.commitShopDraft(ctx, sess, draft)

	case "2", "change_category":
		_, ok := h.sessions.Update(sess.AddressKey, session.Update{
			CurrentFlow: session.FlowPtr(session.FlowShopCategorySelect),
		})
		if !ok {
			return nil
		}
		h.sendMenu(ctx, sess.AddressKey, "Step 3 of 4: Pick a category:", categoryOptions(), "Reply with a number, or *cancel* to stop.")
		return nil

	case "3", "discard":
		h.discardDraft(ctx, sess, "🗑 Draft discarded.")
		return nil

	default:
		h.send(ctx, sess.AddressKey, confirmationPrompt(draft))
		return nil
	}
}

// commitShopDraft turns a completed draft into a persisted Shop. A draft
// with missing fields means a step was skipped; the wizard regresses to the
// earliest incomplete step instead of failing.
func (h *Handlers) commitShopDraft(ctx context.Context, sess *session.Session, draft *models.ShopDraft) error {
	switch {
	case draft.Name == "":
		return h.regressWizard(ctx, sess, session.FlowShopNameInput, "Step 1 of 4: What should we call your shop?")
	case draft.Description == "":
		return h.regressWizard(ctx, sess, session.FlowShopDescriptionInput, "Step 2 of 4: Describe what you sell.")
	case draft.Category == "":
		_, ok := h.sessions.Update(sess.AddressKey, session.Update{
			CurrentFlow: session.FlowPtr(session.FlowShopCategorySelect),
		})
		if ok {
			h.sendMenu(ctx, sess.AddressKey, "Step 3 of 4: Pick a category:", categoryOptions(), "Reply with a number, or *cancel* to stop.")
		}
		return nil
	}

	shop, err := h.store.CreateShop(ctx, &models.Shop{
		OwnerPhone:  sess.AddressKey,
		Community:   sess.Community,
		Name:        draft.Name,
		Description: draft.Description,
		Category:    draft.Category,
	})

	var nameTaken *storage.NameTakenError
	if errors.As(err, &nameTaken) {
		// Someone else took the name between entry and commit. Surface the
		// registry's message as-is and end the wizard.
		h.discardDraft(ctx, sess, "❌ "+nameTaken.Error())
		return nil
	}
	if err != nil {
		// State unchanged; the user can send 1 again to retry.
		return fmt.Errorf("create shop: %w", err)
	}

	if ref, err := h.escrow.RegisterShopAccount(ctx, shop.ShopID, shop.Community); err != nil {
		log.Printf("Escrow registration failed for shop %s: %v", shop.ShopID, err)
	} else {
		shop.EscrowRef = ref
		if err := h.store.UpdateShop(ctx, shop); err != nil {
			log.Printf("Failed to store escrow ref for shop %s: %v", shop.ShopID, err)
		}
	}

	_, ok := h.sessions.Update(sess.AddressKey, session.Update{
		CurrentFlow: session.FlowPtr(session.FlowSellerMenu),
		Scratch:     &session.Scratch{},
	})
	if !ok {
		return nil
	}

	notice := fmt.Sprintf("🎉 *%s* is open for business!\n%s", shop.Name, renderShop(shop))
	h.send(ctx, sess.AddressKey, h.withMenu(notice, "🛍 *Seller Menu*", sellerMenuOptions(), "Reply with a number."))
	return nil
}

// wizardCancelled handles the wizard-wide cancel command. Returns true if
// the event was consumed.
func (h *Handlers) wizardCancelled(ctx context.Context, sess *session.Session, ev Event) bool {
	if ev.Input() != "cancel" {
		return false
	}
	h.discardDraft(ctx, sess, "🗑 Shop creation cancelled.")
	return true
}

// discardDraft drops the draft, returns to the seller menu, and reports why.
func (h *Handlers) discardDraft(ctx context.Context, sess *session.Session, notice string) {
	_, ok := h.sessions.Update(sess.AddressKey, session.Update{
		CurrentFlow: session.FlowPtr(session.FlowSellerMenu),
		Scratch:     &session.Scratch{},
	})
	if !ok {
		return
	}
	h.send(ctx, sess.AddressKey, h.withMenu(notice, "🛍 *Seller Menu*", sellerMenuOptions(), "Reply with a number."))
}

// resetBrokenWizard recovers a wizard state reached without a draft.
func (h *Handlers) resetBrokenWizard(ctx context.Context, sess *session.Session) error {
	log.Printf("Wizard state %q without draft for %s, resetting", sess.CurrentFlow, sess.AddressKey)
	_, ok := h.sessions.Update(sess.AddressKey, session.Update{
		CurrentFlow: session.FlowPtr(session.FlowSellerMenu),
		Scratch:     &session.Scratch{},
	})
	if !ok {
		return nil
	}
	h.send(ctx, sess.AddressKey, h.withMenu("⚠️ Something went wrong with your shop draft. Let's start over.", "🛍 *Seller Menu*", sellerMenuOptions(), "Reply with a number."))
	return nil
}

func (h *Handlers) regressWizard(ctx context.Context, sess *session.Session, to session.Flow, prompt string) error {
	_, ok := h.sessions.Update(sess.AddressKey, session.Update{
		CurrentFlow: session.FlowPtr(to),
	})
	if !ok {
		return nil
	}
	h.send(ctx, sess.AddressKey, prompt)
	return nil
}

func confirmationPrompt(draft *models.ShopDraft) string {
	summary := fmt.Sprintf("📋 *Step 4 of 4: Confirm your shop*\n\n🏪 %s\n📂 %s\n📝 %s", draft.Name, draft.Category, draft.Description)
	return summary + "\n\n" + messaging.RenderMenu("What would you like to do?", []messaging.MenuOption{
		{ID: "confirm", Label: "Create the shop"},
		{ID: "change_category", Label: "Change the category"},
		{ID: "discard", Label: "Discard the draft"},
	}, "Reply with a number.")
}

// resolveCategory accepts a 1-based menu index or the category label carried
// by an interactive list reply.
func resolveCategory(input string) (string, bool) {
	if n, err := strconv.Atoi(input); err == nil {
		return communities.CategoryByIndex(n)
	}
	for _, c := range communities.ShopCategories {
		if strings.EqualFold(c, input) {
			return c, true
		}
	}
	return "", false
}

func categoryOptions() []messaging.MenuOption {
	options := make([]messaging.MenuOption, 0, len(communities.ShopCategories))
	for _, c := range communities.ShopCategories {
		options = append(options, messaging.MenuOption{ID: c, Label: c})
	}
	return options
}
