package domain

// Storage keys. Each key holds one JSON document: an array for collections,
// an object for singletons.
const (
	KeyTransactions  = "transactions"
	KeyCategories    = "categories"
	KeyBudgets       = "budgets"
	KeyMonthlyData   = "monthlyData"
	KeyUserSettings  = "userSettings"
	KeyUserProfile   = "userProfile"
	KeyFamilySharing = "familySharing"
	KeyInitialized   = "isInitialized"
)

// CollectionKeys lists the keys that hold arrays.
var CollectionKeys = []string{
	KeyTransactions,
	KeyCategories,
	KeyBudgets,
	KeyMonthlyData,
}

// Entity is implemented by every record stored in a collection.
type Entity interface {
	EntityID() string
}
