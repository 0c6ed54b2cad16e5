package communities

// Community is one entry in the static community registry. The bot only
// operates in communities listed here; joining one for the first time grants
// the default voucher allocation.
type Community struct {
	Code            string
	Name            string
	DefaultVouchers int
}

// registry is the single source of truth for communities. Menu numbering
// follows slice order, so entries are append-only.
var registry = []Community{
	{Code: "kibera", Name: "Kibera", DefaultVouchers: 50},
	{Code: "mathare", Name: "Mathare", DefaultVouchers: 50},
	{Code: "mukuru", Name: "Mukuru", DefaultVouchers: 40},
	{Code: "dandora", Name: "Dandora", DefaultVouchers: 40},
	{Code: "kawangware", Name: "Kawangware", DefaultVouchers: 30},
}

// ShopCategories is the fixed, ordered category list used by the
// shop-creation wizard. Selections are 1-based indexes into this slice.
var ShopCategories = []string{
	"Food & Groceries",
	"Clothing & Tailoring",
	"Electronics & Repairs",
	"Household Goods",
	"Services",
	"Crafts & Art",
}

// All returns the registry in menu order.
func All() []Community {
	return registry
}

// ByCode looks up a community by its code.
func ByCode(code string) (Community, bool) {
	for _, c := range registry {
		if c.Code == code {
			return c, true
		}
	}
	return Community{}, false
}

// ByIndex looks up a community by its 1-based menu position.
func ByIndex(i int) (Community, bool) {
	if i < 1 || i > len(registry) {
		return Community{}, false
	}
	return registry[i-1], true
}

// CategoryByIndex looks up a shop category by its 1-based menu position.
func CategoryByIndex(i int) (string, bool) {
	if i < 1 || i > len(ShopCategories) {
		return "", false
	}
	return ShopCategories[i-1], true
}
