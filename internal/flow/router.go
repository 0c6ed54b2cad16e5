package flow

import (
	"context"
	"log"

	"github.com/sokolabs/sokobot-backend/internal/session"
)

// handlerFunc processes one inbound event for a session. Handlers own the
// state transition: they validate input, mutate the session through the
// session store, and reply. The router only dispatches.
type handlerFunc func(ctx context.Context, sess *session.Session, ev Event) error

// Router dispatches inbound events to the handler bound to the session's
// current flow. Global commands are checked before any state handler.
type Router struct {
	sessions *session.Store
	handlers *Handlers
	bindings map[session.Flow]handlerFunc
}

// NewRouter creates a router over the given session store and handlers.
func NewRouter(sessions *session.Store, handlers *Handlers) *Router {
	r := &Router{
		sessions: sessions,
		handlers: handlers,
	}
	r.bindings = map[session.Flow]handlerFunc{
		session.FlowMainMenu:             handlers.MainMenu,
		session.FlowCommunitySelection:   handlers.CommunitySelection,
		session.FlowSellerMenu:           handlers.SellerMenu,
		session.FlowBuyerMenu:            handlers.BuyerMenu,
		session.FlowShopNameInput:        handlers.ShopName,
		session.FlowShopDescriptionInput: handlers.ShopDescription,
		session.FlowShopCategorySelect:   handlers.ShopCategory,
		session.FlowShopConfirmation:     handlers.ShopConfirmation,
		session.FlowSellerBrowse:         handlers.SellerBrowse,
		session.FlowBuyerBrowse:          handlers.BuyerBrowse,
	}
	return r
}

// ProcessEvent is the entry point for one inbound event. It fetches or
// creates the sender's session, resolves global commands, and dispatches to
// the current flow's handler. A fault while handling one user's event is
// logged and answered with a fallback message; it never propagates.
func (r *Router) ProcessEvent(ctx context.Context, ev Event) {
	if ev.Empty() {
		log.Printf("Dropping empty event from %s", ev.AddressKey)
		return
	}

	sess, ok := r.sessions.Get(ev.AddressKey)
	if !ok {
		created, err := r.sessions.Create(ev.AddressKey)
		if err != nil {
			log.Printf("Failed to create session for %s: %v", ev.AddressKey, err)
			return
		}
		sess = created
	}

	if ev.IsGlobalCommand() {
		r.handlers.ShowMainMenu(ctx, sess.AddressKey)
		return
	}

	handler, bound := r.bindings[sess.CurrentFlow]
	if !bound {
		// Unknown state; reset to a safe one instead of failing the turn.
		log.Printf("No handler bound for flow %q (session %s), resetting", sess.CurrentFlow, sess.AddressKey)
		r.handlers.ShowMainMenu(ctx, sess.AddressKey)
		return
	}

	if err := handler(ctx, sess, ev); err != nil {
		log.Printf("Handler for flow %q failed for %s: %v", sess.CurrentFlow, sess.AddressKey, err)
		r.handlers.Apologize(ctx, sess.AddressKey)
	}
}
