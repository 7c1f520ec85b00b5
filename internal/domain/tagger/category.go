package tagger

// DefaultCategory is applied when an item's product category has no
// mapping, and to aggregated (non-itemized) proposals.
const DefaultCategory = "Shopping"

// RefundCategory is applied to refund credit proposals.
const RefundCategory = "Returned Purchase"

// MiscCategory is applied to charges with no itemized lines (gift wrap,
// digital credits, gift cards).
const MiscCategory = "Shopping"

// categoryMap translates Amazon product categories to ledger categories.
// Unlisted product categories fall back to DefaultCategory.
var categoryMap = map[string]string{
	"Abis Book":              "Books",
	"Art and Craft Supply":   "Arts",
	"Accessory":              "Electronics & Software",
	"Apparel":                "Clothing",
	"Audible":                "Books",
	"Baby Product":           "Baby Supplies",
	"Battery":                "Electronics & Software",
	"Beauty":                 "Personal Care",
	"Blu-ray":                "Movies & DVDs",
	"Book":                   "Books",
	"CE":                     "Electronics & Software",
	"Camera":                 "Electronics & Software",
	"Drugstore":              "Pharmacy",
	"DVD":                    "Movies & DVDs",
	"Grocery":                "Groceries",
	"Headphones":             "Electronics & Software",
	"Health and Beauty":      "Personal Care",
	"Home":                   "Furnishings",
	"Home Improvement":       "Home Improvement",
	"Kitchen":                "Kitchen",
	"Lawn & Patio":           "Lawn & Garden",
	"Luggage":                "Shopping",
	"Music":                  "Music",
	"Network Media Player":   "Electronics & Software",
	"Office Product":         "Office Supplies",
	"Pantry":                 "Groceries",
	"PC Accessory":           "Electronics & Software",
	"Personal Computer":      "Electronics & Software",
	"Pet Products":           "Pet Food & Supplies",
	"Shoes":                  "Clothing",
	"Software":               "Electronics & Software",
	"Sports":                 "Sporting Goods",
	"Tools":                  "Home Improvement",
	"Toy":                    "Toys",
	"Video Games":            "Electronics & Software",
	"Wireless":               "Electronics & Software",
}

// MapCategory returns the ledger category for an Amazon product category.
func MapCategory(amazonCategory string) string {
	if c, ok := categoryMap[amazonCategory]; ok {
		return c
	}
	return DefaultCategory
}

// managedCategories is the set of categories this tool may assign. A
// transaction carrying any other category was recategorized by the user
// and is never overwritten.
var managedCategories = func() map[string]bool {
	set := map[string]bool{
		DefaultCategory: true,
		RefundCategory:  true,
	}
	set[MiscCategory] = true
	for _, c := range categoryMap {
		set[c] = true
	}
	return set
}()

// IsManagedCategory reports whether the tool considers the category its own.
func IsManagedCategory(category string) bool {
	return managedCategories[category]
}
