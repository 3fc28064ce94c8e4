package catalog

// Entry is a single catalog item observed on a listing page.
//
// Title is the identity of an entry. Url is presentation only: it never
// takes part in change detection and is not overwritten once stored.
type Entry struct {
	Title     string
	Url       string
	Price     string
	FullPrice string
	Currency  string

	IsPreOrder   bool
	IsPriceRange bool
	IsSoldOut    bool
	IsVinyl      bool
}

// Diff returns the names of the compared fields that differ between e and other.
// Title and Url are not compared.
func (e Entry) Diff(other Entry) []string {
	var changed []string
	if e.Price != other.Price {
		changed = append(changed, "price")
	}
	if e.FullPrice != other.FullPrice {
		changed = append(changed, "full_price")
	}
	if e.Currency != other.Currency {
		changed = append(changed, "currency")
	}
	if e.IsPreOrder != other.IsPreOrder {
		changed = append(changed, "is_pre_order")
	}
	if e.IsPriceRange != other.IsPriceRange {
		changed = append(changed, "is_price_range")
	}
	if e.IsSoldOut != other.IsSoldOut {
		changed = append(changed, "is_sold_out")
	}
	if e.IsVinyl != other.IsVinyl {
		changed = append(changed, "is_vinyl")
	}
	return changed
}

// ApplyFrom copies every compared field of other into e and reports whether
// anything changed.
func (e *Entry) ApplyFrom(other Entry) bool {
	if len(e.Diff(other)) == 0 {
		return false
	}
	e.Price = other.Price
	e.FullPrice = other.FullPrice
	e.Currency = other.Currency
	e.IsPreOrder = other.IsPreOrder
	e.IsPriceRange = other.IsPriceRange
	e.IsSoldOut = other.IsSoldOut
	e.IsVinyl = other.IsVinyl
	return true
}
