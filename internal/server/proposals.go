package server

import (
	"github.com/braeddy/aura-tracker/internal/db"
)

// requiredVotes is the absolute-majority threshold: floor(n/2)+1, so an
// exact half is never enough.
func requiredVotes(totalVoters int) int {
	return totalVoters/2 + 1
}

// tallyStatus decides the post-vote status of a proposal from its
// counters alone. Approval and rejection use the same absolute-majority
// threshold; if every voter has voted and neither side reached it, the
// proposal still closes as rejected.
func tallyStatus(p *db.Proposal) string {
	if p.VotesFor >= p.RequiredVotes {
		return db.ProposalApproved
	}
	if p.VotesAgainst >= requiredVotes(p.TotalVoters) {
		return db.ProposalRejected
	}
	if p.VotesFor+p.VotesAgainst >= p.TotalVoters {
		return db.ProposalRejected
	}
	return db.ProposalPending
}
