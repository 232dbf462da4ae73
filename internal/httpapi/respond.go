package httpapi

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Godszeal/votting-sub000/internal/election"
	"github.com/Godszeal/votting-sub000/internal/identity"
	"github.com/Godszeal/votting-sub000/internal/voting"
)

// respondError maps a domain error onto a status code and a JSON body.
// Domain and validation failures surface their message; anything
// unrecognized is logged and hidden behind a generic 500.
func respondError(c *gin.Context, err error) {
	var ineligible *voting.IneligibleError
	var conflict *identity.ConflictError

	switch {
	case errors.As(err, &ineligible):
		c.JSON(http.StatusBadRequest, gin.H{"message": ineligible.Reason})
	case errors.As(err, &conflict):
		c.JSON(http.StatusBadRequest, gin.H{"message": conflict.Error(), "field": conflict.Field})
	case errors.Is(err, voting.ErrAlreadyVoted), errors.Is(err, election.ErrDuplicateToken):
		c.JSON(http.StatusConflict, gin.H{"message": err.Error()})
	case errors.Is(err, voting.ErrNotEnded):
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
	case errors.Is(err, voting.ErrCandidateMissing):
		c.JSON(http.StatusBadRequest, gin.H{"message": "unknown candidate"})
	case errors.Is(err, identity.ErrInvalidCredentials):
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
	case errors.Is(err, identity.ErrValidation), errors.Is(err, election.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
	case errors.Is(err, identity.ErrNotFound), errors.Is(err, election.ErrNotFound),
		errors.Is(err, voting.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": err.Error()})
	default:
		log.Printf("internal error on %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "internal server error"})
	}
}
