package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Godszeal/votting-sub000/internal/auth"
	"github.com/Godszeal/votting-sub000/internal/obs"
	"github.com/Godszeal/votting-sub000/internal/voting"
)

type voteRequest struct {
	ElectionID  string `json:"electionId" binding:"required"`
	CandidateID string `json:"candidate" binding:"required"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required"`
}

// ListElections handles GET /user/elections: only elections the caller is
// currently eligible to vote in.
func (h *Handler) ListElections(c *gin.Context) {
	userID, ok := auth.UserIDFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "missing bearer token"})
		return
	}
	list, err := h.votes.EligibleElections(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"elections": list})
}

// CastVote handles POST /user/vote.
func (h *Handler) CastVote(c *gin.Context) {
	userID, ok := auth.UserIDFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "missing bearer token"})
		return
	}
	var req voteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	e, err := h.votes.CastVote(c.Request.Context(), userID, req.ElectionID, req.CandidateID)
	if err != nil {
		obs.VoteRejected(rejectionLabel(err))
		respondError(c, err)
		return
	}
	obs.VoteCast()

	c.JSON(http.StatusOK, gin.H{"message": "vote recorded", "election": e})
}

func rejectionLabel(err error) string {
	var ineligible *voting.IneligibleError
	switch {
	case errors.As(err, &ineligible):
		switch ineligible.Reason {
		case voting.ReasonAlreadyVoted:
			return obs.RejectAlreadyVoted
		case voting.ReasonNotActive:
			return obs.RejectNotActive
		case voting.ReasonDepartment:
			return obs.RejectDepartment
		case "unknown candidate":
			return obs.RejectUnknownCandidate
		default:
			return obs.RejectFaculty
		}
	case errors.Is(err, voting.ErrAlreadyVoted):
		return obs.RejectConflict
	default:
		return obs.RejectNotFound
	}
}

// Results handles GET /user/results/:id, gated until the election ends.
func (h *Handler) Results(c *gin.Context) {
	e, err := h.votes.Results(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"election": e})
}

// Eligibility handles GET /user/elections/:id/eligibility, the "can I vote"
// pre-check running the same evaluator as CastVote.
func (h *Handler) Eligibility(c *gin.Context) {
	userID, ok := auth.UserIDFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "missing bearer token"})
		return
	}
	v, err := h.votes.CheckEligibility(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	resp := gin.H{"eligible": v.Eligible}
	if !v.Eligible {
		resp["reason"] = v.Reason
	}
	c.JSON(http.StatusOK, resp)
}

// Me handles GET /user/me.
func (h *Handler) Me(c *gin.Context) {
	userID, ok := auth.UserIDFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "missing bearer token"})
		return
	}
	u, err := h.users.Get(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// ChangePassword handles POST /user/change-password.
func (h *Handler) ChangePassword(c *gin.Context) {
	userID, ok := auth.UserIDFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "missing bearer token"})
		return
	}
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	if err := h.users.ChangePassword(c.Request.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "password updated"})
}
