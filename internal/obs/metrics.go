package obs

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	votesCastTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "votes_cast_total",
		Help: "Total number of successfully recorded votes.",
	})

	votesRejectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "votes_rejected_total",
			Help: "Total number of rejected vote attempts.",
		},
		[]string{"reason"},
	)

	loginsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "logins_total",
			Help: "Total number of login attempts.",
		},
		[]string{"outcome"},
	)
)

// Init registers the service metrics with the default registry.
func Init() {
	prometheus.MustRegister(votesCastTotal, votesRejectedTotal, loginsTotal)
}

// Handler exposes the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// VoteCast counts one recorded vote.
func VoteCast() { votesCastTotal.Inc() }

// Rejection reason labels. Coarse buckets, never raw reason strings, to
// keep metric cardinality bounded.
const (
	RejectAlreadyVoted     = "already_voted"
	RejectNotActive        = "not_active"
	RejectFaculty          = "faculty"
	RejectDepartment       = "department"
	RejectUnknownCandidate = "unknown_candidate"
	RejectConflict         = "conflict"
	RejectNotFound         = "not_found"
)

// VoteRejected counts one rejected vote attempt.
func VoteRejected(reason string) { votesRejectedTotal.WithLabelValues(reason).Inc() }

// Login counts one login attempt with outcome "success", "failure" or "locked".
func Login(outcome string) { loginsTotal.WithLabelValues(outcome).Inc() }
