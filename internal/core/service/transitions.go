package service

import (
	"time"

	"github.com/rl1809/supplydesk/internal/core/domain"
)

// transition describes what a status command does to a request.
type transition struct {
	// persisted is the status stored on the request.
	persisted domain.Status
	// logged is the text appended to the status log. It is the command
	// itself, which differs from persisted for Production Complete.
	logged string
	// update adjusts request fields other than Status.
	update func(req *domain.Request, now time.Time)
	// restock replays the requested production into inventory.
	restock bool
}

var transitionTable = map[domain.Status]transition{
	domain.StatusFulfilled: {
		persisted: domain.StatusFulfilled,
		logged:    string(domain.StatusFulfilled),
		update: func(req *domain.Request, now time.Time) {
			req.FulfilledAt = &now
		},
	},
	domain.StatusInTransit: {
		persisted: domain.StatusInTransit,
		logged:    string(domain.StatusInTransit),
		update: func(req *domain.Request, now time.Time) {
			if req.EstimatedDelivery == "" {
				req.EstimatedDelivery = arrivalEstimate(now)
			}
		},
	},
	domain.StatusForwardedToProduction: {
		persisted: domain.StatusForwardedToProduction,
		logged:    string(domain.StatusForwardedToProduction),
		update: func(req *domain.Request, _ time.Time) {
			req.ForwardedToProduction = true
			req.EstimatedDelivery = estimateAwaitingProduction
		},
	},
	domain.StatusProductionComplete: {
		persisted: domain.StatusReadyForShipment,
		logged:    string(domain.StatusProductionComplete),
		update: func(req *domain.Request, now time.Time) {
			req.EstimatedDelivery = shipmentEstimate(now)
		},
		restock: true,
	},
}

// transitionFor returns the table entry for command. Commands without an
// entry are administrative overrides: the status is stored verbatim.
func transitionFor(command domain.Status) transition {
	if t, ok := transitionTable[command]; ok {
		return t
	}
	return transition{persisted: command, logged: string(command)}
}

func (t transition) apply(req *domain.Request, now time.Time) {
	if t.update != nil {
		t.update(req, now)
	}
	req.Status = t.persisted
	if req.Status != domain.StatusFulfilled {
		req.FulfilledAt = nil
	}
}
