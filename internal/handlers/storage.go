package handlers

import (
	"context"

	"github.com/jenyyy4/gigflow/db"
)

type StorageInterface interface {
	CreateUser(ctx context.Context, u *db.User) error
	GetUser(ctx context.Context, id int) (*db.User, error)
	GetUserByEmail(ctx context.Context, email string) (*db.User, error)

	CreateGig(ctx context.Context, g *db.Gig) error
	GetGig(ctx context.Context, gigID int) (*db.Gig, error)
	GetGigDetails(ctx context.Context, gigID int) (*db.GigDetails, error)
	GetGigs(ctx context.Context, search, status string) ([]db.GigDetails, error)
	GetUserGigs(ctx context.Context, ownerID int) ([]db.GigDetails, error)
	UpdateGig(ctx context.Context, g *db.Gig) error
	DeleteGig(ctx context.Context, gigID int) error

	CreateBid(ctx context.Context, b *db.Bid) error
	GetBid(ctx context.Context, bidID int) (*db.Bid, error)
	GetBidDetails(ctx context.Context, bidID int) (*db.BidDetails, error)
	HasBid(ctx context.Context, gigID, freelancerID int) (bool, error)
	GetBidsForGig(ctx context.Context, gigID int) ([]db.BidDetails, error)
	GetUserBids(ctx context.Context, freelancerID int) ([]db.BidDetails, error)
	HireBid(ctx context.Context, gigID, bidID, freelancerID int) error
}
