package db

type ListingEntry struct {
	Title        string
	Url          string
	Price        string
	FullPrice    string
	Currency     string
	IsPreOrder   bool
	IsPriceRange bool
	IsSoldOut    bool
	IsVinyl      bool
	FirstSeen    int64
	UpdatedAt    int64
}
