package session

import (
	"time"

	"github.com/sokolabs/sokobot-backend/internal/models"
)

// Flow identifies a stage of the conversation state machine.
type Flow string

const (
	FlowMainMenu             Flow = "main_menu"
	FlowCommunitySelection   Flow = "community_selection"
	FlowSellerMenu           Flow = "seller_menu"
	FlowBuyerMenu            Flow = "buyer_menu"
	FlowShopNameInput        Flow = "shop_name_input"
	FlowShopDescriptionInput Flow = "shop_description_input"
	FlowShopCategorySelect   Flow = "shop_category_select"
	FlowShopConfirmation     Flow = "shop_confirmation"
	FlowSellerBrowse         Flow = "seller_browse"
	FlowBuyerBrowse          Flow = "buyer_browse"
)

// InShopWizard reports whether f is one of the shop-creation sub-states.
// A session in any of these states must carry a non-nil Scratch.ShopDraft.
func (f Flow) InShopWizard() bool {
	switch f {
	case FlowShopNameInput, FlowShopDescriptionInput, FlowShopCategorySelect, FlowShopConfirmation:
		return true
	}
	return false
}

// Scratch holds transient, flow-scoped data. Fields are typed per flow
// rather than an open map: PendingRole is set while the user is picking a
// community, ShopDraft while the shop-creation wizard is in progress.
// Scratch is replaced wholesale when a flow completes or is cancelled.
type Scratch struct {
	PendingRole string            `json:"pending_role,omitempty"`
	ShopDraft   *models.ShopDraft `json:"shop_draft,omitempty"`
}

func (s Scratch) clone() Scratch {
	out := Scratch{PendingRole: s.PendingRole}
	if s.ShopDraft != nil {
		draft := *s.ShopDraft
		out.ShopDraft = &draft
	}
	return out
}

// Session is the live conversational state for one user.
type Session struct {
	AddressKey     string    `json:"address_key"`
	CurrentFlow    Flow      `json:"current_flow"`
	Role           string    `json:"role"`
	Community      string    `json:"community"`
	Scratch        Scratch   `json:"scratch"`
	CreatedAt      time.Time `json:"created_at"`
	LastActivityAt time.Time `json:"last_activity_at"`
}

func (s *Session) clone() *Session {
	out := *s
	out.Scratch = s.Scratch.clone()
	return &out
}

// Update is a partial session mutation. Nil fields are left untouched.
// AddressKey and CreatedAt are identity fields and cannot be updated;
// Community is set-once and ignored after onboarding.
type Update struct {
	CurrentFlow *Flow
	Role        *string
	Community   *string
	Scratch     *Scratch
}

// FlowPtr is a convenience helper for building Updates.
func FlowPtr(f Flow) *Flow { return &f }

// StrPtr is a convenience helper for building Updates.
func StrPtr(s string) *string { return &s }
