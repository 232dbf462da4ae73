package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Godszeal/votting-sub000/internal/election"
)

type createElectionRequest struct {
	Title                  string    `json:"title" binding:"required"`
	Description            string    `json:"description"`
	Candidates             []string  `json:"candidates" binding:"required"`
	StartDate              time.Time `json:"startDate"`
	EndDate                time.Time `json:"endDate" binding:"required"`
	IsActive               bool      `json:"isActive"`
	FacultyRestriction     string    `json:"facultyRestriction"`
	DepartmentRestrictions []string  `json:"departmentRestrictions"`
}

type updateElectionRequest struct {
	Title                  *string    `json:"title"`
	Description            *string    `json:"description"`
	Candidates             []string   `json:"candidates"`
	StartDate              *time.Time `json:"startDate"`
	EndDate                *time.Time `json:"endDate"`
	IsActive               *bool      `json:"isActive"`
	FacultyRestriction     *string    `json:"facultyRestriction"`
	DepartmentRestrictions *[]string  `json:"departmentRestrictions"`
}

// CreateElection handles POST /admin/elections.
func (h *Handler) CreateElection(c *gin.Context) {
	var req createElectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	e, err := h.elections.Create(c.Request.Context(), election.CreateInput{
		Title:                  req.Title,
		Description:            req.Description,
		Candidates:             req.Candidates,
		StartDate:              req.StartDate,
		EndDate:                req.EndDate,
		IsActive:               req.IsActive,
		FacultyRestriction:     req.FacultyRestriction,
		DepartmentRestrictions: req.DepartmentRestrictions,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"election": e})
}

// UpdateElection handles PUT /admin/elections/:id.
func (h *Handler) UpdateElection(c *gin.Context) {
	var req updateElectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	e, err := h.elections.Update(c.Request.Context(), c.Param("id"), election.UpdateInput{
		Title:                  req.Title,
		Description:            req.Description,
		Candidates:             req.Candidates,
		StartDate:              req.StartDate,
		EndDate:                req.EndDate,
		IsActive:               req.IsActive,
		FacultyRestriction:     req.FacultyRestriction,
		DepartmentRestrictions: req.DepartmentRestrictions,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"election": e})
}

// AdminListElections handles GET /admin/elections, newest-first.
func (h *Handler) AdminListElections(c *gin.Context) {
	list, err := h.elections.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"elections": list})
}

// AdminGetElection handles GET /admin/elections/:id.
func (h *Handler) AdminGetElection(c *gin.Context) {
	e, err := h.elections.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"election": e})
}

// EndElection handles POST /admin/elections/:id/end: deactivate and close
// the window immediately.
func (h *Handler) EndElection(c *gin.Context) {
	if err := h.elections.EndNow(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "election ended"})
}

// DeleteElection handles DELETE /admin/elections/:id. Removal cascades to
// the election's ledger entries and every voter's voted set.
func (h *Handler) DeleteElection(c *gin.Context) {
	if err := h.elections.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "election deleted"})
}

// ElectionVotes handles GET /admin/elections/:id/votes, the audit view of
// the ledger.
func (h *Handler) ElectionVotes(c *gin.Context) {
	votes, err := h.votes.VotesFor(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"votes": votes, "count": len(votes)})
}

// RemoveVote handles DELETE /admin/votes/:id. The ledger entry, the
// candidate tally and the voter's voted set are compensated together.
func (h *Handler) RemoveVote(c *gin.Context) {
	if err := h.votes.RemoveVote(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "vote removed"})
}
