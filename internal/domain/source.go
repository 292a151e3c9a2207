package domain

import "context"

// ListingSource searches one marketplace.
type ListingSource interface {
	Platform() Platform
	Search(ctx context.Context, keyword string, limit int) ([]Listing, error)
}
