package flow

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sokolabs/sokobot-backend/internal/models"
	"github.com/sokolabs/sokobot-backend/internal/session"
)

func enterWizard(t *testing.T, rig *testRig) {
	t.Helper()
	rig.onboardSeller(t)
	rig.text(t, "1")
	require.Equal(t, session.FlowShopNameInput, rig.flow(t))
}

func TestShopNameTooShort(t *testing.T) {
	rig := newTestRig(t)
	enterWizard(t, rig)

	rig.text(t, "X")

	assert.Equal(t, session.FlowShopNameInput, rig.flow(t))
	assert.Contains(t, rig.msgr.last(), "too short")
}

func TestShopNameTooLong(t *testing.T) {
	rig := newTestRig(t)
	enterWizard(t, rig)

	rig.text(t, strings.Repeat("a", 51))

	assert.Equal(t, session.FlowShopNameInput, rig.flow(t))
	assert.Contains(t, rig.msgr.last(), "too long")
}

func TestShopNameCountsCharactersNotBytes(t *testing.T) {
	rig := newTestRig(t)
	enterWizard(t, rig)

	// Two runes, six bytes. Must pass the 2-character minimum.
	rig.text(t, "店舗")

	assert.Equal(t, session.FlowShopDescriptionInput, rig.flow(t))
}

func TestShopNameKeepsOriginalCasing(t *testing.T) {
	rig := newTestRig(t)
	enterWizard(t, rig)

	rig.text(t, "Mama Njeri Groceries")

	sess := rig.session(t)
	require.NotNil(t, sess.Scratch.ShopDraft)
	assert.Equal(t, "Mama Njeri Groceries", sess.Scratch.ShopDraft.Name)
}

func TestShopNameAlreadyTakenAtEntry(t *testing.T) {
	rig := newTestRig(t)
	enterWizard(t, rig)

	_, err := rig.durable.CreateShop(context.Background(), &models.Shop{
		OwnerPhone:  "+254700000001",
		Community:   "kibera",
		Name:        "Duka Bora",
		Description: "General goods for the neighbourhood",
		Category:    "Household Goods",
	})
	require.NoError(t, err)

	rig.text(t, "Duka Bora")

	assert.Equal(t, session.FlowShopNameInput, rig.flow(t))
	assert.Contains(t, rig.msgr.last(), "already taken")
}

func TestShopDescriptionTooShort(t *testing.T) {
	rig := newTestRig(t)
	enterWizard(t, rig)
	rig.text(t, "Duka Bora")

	rig.text(t, "shoes")

	assert.Equal(t, session.FlowShopDescriptionInput, rig.flow(t))
	assert.Contains(t, rig.msgr.last(), "too short")
}

func TestShopDescriptionBackKeepsName(t *testing.T) {
	rig := newTestRig(t)
	enterWizard(t, rig)
	rig.text(t, "Duka Bora")

	rig.text(t, "back")

	sess := rig.session(t)
	assert.Equal(t, session.FlowShopNameInput, sess.CurrentFlow)
	require.NotNil(t, sess.Scratch.ShopDraft)
	assert.Equal(t, "Duka Bora", sess.Scratch.ShopDraft.Name)

	// A new name overwrites the kept one.
	rig.text(t, "Duka Mpya")
	sess = rig.session(t)
	assert.Equal(t, session.FlowShopDescriptionInput, sess.CurrentFlow)
	assert.Equal(t, "Duka Mpya", sess.Scratch.ShopDraft.Name)
}

func TestShopCategoryRejectsOutOfRange(t *testing.T) {
	rig := newTestRig(t)
	enterWizard(t, rig)
	rig.text(t, "Duka Bora")
	rig.text(t, "Fresh produce and daily household staples")
	require.Equal(t, session.FlowShopCategorySelect, rig.flow(t))

	rig.text(t, "9")
	assert.Equal(t, session.FlowShopCategorySelect, rig.flow(t))
	assert.Contains(t, rig.msgr.last(), "isn't on the list")

	rig.text(t, "food")
	assert.Equal(t, session.FlowShopCategorySelect, rig.flow(t))
}

func TestConfirmationChangeCategory(t *testing.T) {
	rig := newTestRig(t)
	enterWizard(t, rig)
	rig.text(t, "Duka Bora")
	rig.text(t, "Fresh produce and daily household staples")
	rig.text(t, "1")
	require.Equal(t, session.FlowShopConfirmation, rig.flow(t))

	rig.text(t, "2")
	require.Equal(t, session.FlowShopCategorySelect, rig.flow(t))

	rig.text(t, "4")
	rig.text(t, "1")

	shop, err := rig.durable.GetShopByOwner(context.Background(), testKey)
	require.NoError(t, err)
	assert.Equal(t, "Household Goods", shop.Category)
}

func TestConfirmationDiscard(t *testing.T) {
	rig := newTestRig(t)
	enterWizard(t, rig)
	rig.text(t, "Duka Bora")
	rig.text(t, "Fresh produce and daily household staples")
	rig.text(t, "1")

	rig.text(t, "3")

	sess := rig.session(t)
	assert.Equal(t, session.FlowSellerMenu, sess.CurrentFlow)
	assert.Nil(t, sess.Scratch.ShopDraft)

	_, err := rig.durable.GetShopByOwner(context.Background(), testKey)
	assert.Error(t, err)
}

func TestConfirmationDiscardBySelection(t *testing.T) {
	rig := newTestRig(t)
	enterWizard(t, rig)
	rig.text(t, "Duka Bora")
	rig.text(t, "Fresh produce and daily household staples")
	rig.text(t, "1")

	rig.selection(t, "discard")

	sess := rig.session(t)
	assert.Equal(t, session.FlowSellerMenu, sess.CurrentFlow)
	assert.Nil(t, sess.Scratch.ShopDraft)
}

func TestConfirmationUnknownInputReprompts(t *testing.T) {
	rig := newTestRig(t)
	enterWizard(t, rig)
	rig.text(t, "Duka Bora")
	rig.text(t, "Fresh produce and daily household staples")
	rig.text(t, "1")

	rig.text(t, "yes please")

	assert.Equal(t, session.FlowShopConfirmation, rig.flow(t))
	assert.Contains(t, rig.msgr.last(), "Step 4 of 4")
}

func TestCancelDiscardsDraftFromEveryStep(t *testing.T) {
	steps := []struct {
		name   string
		inputs []string
	}{
		{"name", nil},
		{"description", []string{"Duka Bora"}},
		{"category", []string{"Duka Bora", "Fresh produce and daily household staples"}},
		{"confirmation", []string{"Duka Bora", "Fresh produce and daily household staples", "1"}},
	}
	for _, step := range steps {
		t.Run(step.name, func(t *testing.T) {
			rig := newTestRig(t)
			enterWizard(t, rig)
			for _, in := range step.inputs {
				rig.text(t, in)
			}

			rig.text(t, "cancel")

			sess := rig.session(t)
			assert.Equal(t, session.FlowSellerMenu, sess.CurrentFlow)
			assert.Nil(t, sess.Scratch.ShopDraft)
			assert.Contains(t, rig.msgr.last(), "cancelled")
		})
	}
}

func TestWizardRoundtripPersistsShop(t *testing.T) {
	rig := newTestRig(t)
	enterWizard(t, rig)

	rig.text(t, "Duka Bora")
	rig.text(t, "Fresh produce and daily household staples")
	rig.text(t, "1")
	rig.text(t, "1")

	sess := rig.session(t)
	assert.Equal(t, session.FlowSellerMenu, sess.CurrentFlow)
	assert.Nil(t, sess.Scratch.ShopDraft)
	assert.Contains(t, rig.msgr.last(), "open for business")

	shop, err := rig.durable.GetShopByOwner(context.Background(), testKey)
	require.NoError(t, err)
	assert.Equal(t, "Duka Bora", shop.Name)
	assert.Equal(t, "Fresh produce and daily household staples", shop.Description)
	assert.Equal(t, "Food & Groceries", shop.Category)
	assert.Equal(t, "kibera", shop.Community)
	assert.Equal(t, "TX-test", shop.EscrowRef)
	assert.Equal(t, []string{shop.ShopID}, rig.escrow.shops)
}

func TestNameTakenAtCommitEndsWizard(t *testing.T) {
	rig := newTestRig(t)
	enterWizard(t, rig)
	rig.text(t, "Duka Bora")
	rig.text(t, "Fresh produce and daily household staples")
	rig.text(t, "1")
	require.Equal(t, session.FlowShopConfirmation, rig.flow(t))

	// A neighbour grabs the name between entry and commit.
	_, err := rig.durable.CreateShop(context.Background(), &models.Shop{
		OwnerPhone:  "+254700000001",
		Community:   "kibera",
		Name:        "duka bora",
		Description: "General goods for the neighbourhood",
		Category:    "Household Goods",
	})
	require.NoError(t, err)

	rig.text(t, "1")

	sess := rig.session(t)
	assert.Equal(t, session.FlowSellerMenu, sess.CurrentFlow)
	assert.Nil(t, sess.Scratch.ShopDraft)
	assert.Contains(t, rig.msgr.last(), `the shop name "Duka Bora" is already taken in your community`)

	_, err = rig.durable.GetShopByOwner(context.Background(), testKey)
	assert.Error(t, err)
}
