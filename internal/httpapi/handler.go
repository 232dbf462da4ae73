package httpapi

import (
	"github.com/Godszeal/votting-sub000/internal/config"
	"github.com/Godszeal/votting-sub000/internal/election"
	"github.com/Godszeal/votting-sub000/internal/httpmiddleware"
	"github.com/Godszeal/votting-sub000/internal/identity"
	"github.com/Godszeal/votting-sub000/internal/voting"
)

// Handler carries the services behind the HTTP surface.
type Handler struct {
	cfg       config.App
	users     *identity.Service
	elections *election.Manager
	votes     *voting.Service
	logins    *httpmiddleware.LoginLimiter
}

// New creates the HTTP handler set.
func New(cfg config.App, users *identity.Service, elections *election.Manager,
	votes *voting.Service, logins *httpmiddleware.LoginLimiter) *Handler {
	return &Handler{
		cfg:       cfg,
		users:     users,
		elections: elections,
		votes:     votes,
		logins:    logins,
	}
}
