// Package catalog manages products: the filter/pagination query builder,
// client-side drafts with validation, and the product service that reads
// through the query cache and writes through the mutation coordinator.
//
// Cache keys:
//
//	["products", page, category|_, status|_, search]  one filtered page
//	["product", id]                                    one product
//
// Every write settles by invalidating the whole ["products"] family so the
// list reconciles with the server whatever the optimistic guess was.
package catalog
