package core

import "context"

// Transactor runs fn inside a single storage transaction.
// The transaction travels in the context passed to fn; repositories pick it up from there.
// A nested call joins the outer transaction. fn returning an error rolls everything back.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type DBOrdering struct {
	Field     string
	Ascending bool
}

func (ord DBOrdering) String() string {
	direction := "DESC"
	if ord.Ascending {
		direction = "ASC"
	}
	return ord.Field + " " + direction
}

// AllowedOrderings drops every ordering whose field is not in allowed.
func AllowedOrderings(orderings []DBOrdering, allowed ...string) []DBOrdering {
	res := make([]DBOrdering, 0, len(orderings))
	for _, ord := range orderings {
		for _, fld := range allowed {
			if ord.Field == fld {
				res = append(res, ord)
				break
			}
		}
	}
	return res
}
