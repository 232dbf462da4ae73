package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ResolveVotingLink handles GET /voting/:token. The endpoint is public:
// a shared link should open without a session, so only metadata needed to
// render the landing page is returned.
func (h *Handler) ResolveVotingLink(c *gin.Context) {
	e, err := h.elections.GetByToken(c.Request.Context(), c.Param("token"))
	if err != nil {
		respondError(c, err)
		return
	}

	candidates := make([]gin.H, 0, len(e.Candidates))
	for _, cand := range e.Candidates {
		candidates = append(candidates, gin.H{"id": cand.ID, "name": cand.Name})
	}

	c.JSON(http.StatusOK, gin.H{
		"election": gin.H{
			"id":                     e.ID,
			"title":                  e.Title,
			"description":            e.Description,
			"candidates":             candidates,
			"startDate":              e.StartDate,
			"endDate":                e.EndDate,
			"isActive":               e.IsActive,
			"facultyRestriction":     e.FacultyRestriction,
			"departmentRestrictions": e.DepartmentRestrictions,
		},
	})
}
