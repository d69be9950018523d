package nav

// Route paths.
const (
	PathSplash             = "/"
	PathHome               = "/home"
	PathVaultAllocations   = "/vault-allocations"
	PathBorrowingHistory   = "/borrowing-history"
	PathTransactionHistory = "/transaction-history"
	PathInvestmentStrategy = "/investment-strategy"
	PathPools              = "/pools"
	PathPartner            = "/partner"
)

// PropertyPath is the detail route of one property.
func PropertyPath(id string) string { return "/properties/" + id }

func item(path, label string) Item { return Item{Key: path, Label: label, Href: path} }

// PrimaryMenu builds the side navigation. A fresh slice is returned on every
// call so renders never share items.
func PrimaryMenu() Menu {
	return Menu{
		item(PathHome, "Home"),
		item(PathVaultAllocations, "Vault Allocations"),
		item(PathBorrowingHistory, "Borrowing History"),
		item(PathTransactionHistory, "Transaction History"),
		item(PathInvestmentStrategy, "Investment Strategies"),
		item(PathPools, "Lend/Borrow Pools"),
	}
}

// UserMenu holds wallet-scoped entries; empty until a wallet is connected.
func UserMenu(connected bool) Menu {
	if !connected {
		return nil
	}
	return Menu{item(PathPartner, "Add Property")}
}

// NewLayout assembles the layout for a page of the given type.
func NewLayout(typ string, connected bool) Layout {
	return Layout{Type: typ, Primary: PrimaryMenu(), User: UserMenu(connected)}
}
