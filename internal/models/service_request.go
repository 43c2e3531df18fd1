package models

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

type RequestStatus string

const (
	StatusPending   RequestStatus = "Pending"
	StatusAssigned  RequestStatus = "Assigned"
	StatusAccepted  RequestStatus = "Accepted"
	StatusCompleted RequestStatus = "Completed"
	StatusRejected  RequestStatus = "Rejected"
)

// Lifecycle guard errors. ErrInvalidTransition maps to a 400 conflict
// response, the ownership errors to 403, ErrRatingOutOfRange to 400.
var (
	ErrInvalidTransition = errors.New("invalid request state")
	ErrNotAssignedWorker = errors.New("this request is assigned to another worker")
	ErrNotRequestOwner   = errors.New("you are not the owner of this request")
	ErrNoAssignedWorker  = errors.New("this request does not have an assigned worker")
	ErrWorkerMismatch    = errors.New("worker ID does not match the assigned worker")
	ErrAlreadyRated      = errors.New("this service has already been rated")
	ErrRatingOutOfRange  = errors.New("rating must be between 1 and 5")
)

type ServiceRequest struct {
	ID          uuid.UUID     `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Title       string        `gorm:"not null" json:"title"`
	Description string        `gorm:"type:text;not null" json:"description"`
	Category    string        `gorm:"type:varchar(40);not null;index" json:"category"`
	Location    string        `gorm:"not null" json:"location"`
	Status      RequestStatus `gorm:"type:varchar(20);not null;default:'Pending';index" json:"status"`

	CustomerID uuid.UUID  `gorm:"type:uuid;not null;index" json:"customerId"`
	WorkerID   *uuid.UUID `gorm:"type:uuid;index" json:"workerId"`

	IsWorkerConfirmed bool   `gorm:"default:false" json:"isWorkerConfirmed"`
	RejectionMessage  string `gorm:"type:text" json:"rejectionMessage,omitempty"`

	WorkerRating   *int   `json:"workerRating,omitempty"`
	WorkerFeedback string `gorm:"type:text" json:"workerFeedback,omitempty"`
	IsRated        bool   `gorm:"default:false" json:"isRated"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Customer *User `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	Worker   *User `gorm:"foreignKey:WorkerID" json:"worker,omitempty"`
}

func transitionErr(status RequestStatus) error {
	return fmt.Errorf("%w: request already %s", ErrInvalidTransition, strings.ToLower(string(status)))
}

// AcceptBy applies the accept transition for the calling worker. A Pending
// request is claimed by any worker; an Assigned request can only be
// confirmed by the pre-assigned worker.
func (r *ServiceRequest) AcceptBy(workerID uuid.UUID) error {
	switch r.Status {
	case StatusPending:
		r.WorkerID = &workerID
	case StatusAssigned:
		if r.WorkerID == nil || *r.WorkerID != workerID {
			return ErrNotAssignedWorker
		}
	default:
		return transitionErr(r.Status)
	}
	r.Status = StatusAccepted
	r.IsWorkerConfirmed = true
	return nil
}

// RejectBy applies the reject transition. Only the pre-assigned worker of an
// Assigned request may reject; once Accepted there is no un-accept.
func (r *ServiceRequest) RejectBy(workerID uuid.UUID, message string) error {
	if r.Status != StatusAssigned {
		return fmt.Errorf("%w: only assigned requests can be rejected", ErrInvalidTransition)
	}
	if r.WorkerID == nil {
		return ErrNoAssignedWorker
	}
	if *r.WorkerID != workerID {
		return ErrNotAssignedWorker
	}
	r.Status = StatusRejected
	r.IsWorkerConfirmed = false
	if message != "" {
		r.RejectionMessage = message
	}
	return nil
}

// CompleteBy applies the complete transition for the assigned worker.
func (r *ServiceRequest) CompleteBy(workerID uuid.UUID) error {
	if r.WorkerID == nil || *r.WorkerID != workerID {
		return ErrNotAssignedWorker
	}
	if r.Status != StatusAccepted {
		return fmt.Errorf("%w: only accepted requests can be completed, current status: %s", ErrInvalidTransition, r.Status)
	}
	r.Status = StatusCompleted
	return nil
}

// CancelableBy reports whether the calling customer may cancel the request.
// Cancellation deletes the record rather than transitioning it.
func (r *ServiceRequest) CancelableBy(customerID uuid.UUID) error {
	if r.CustomerID != customerID {
		return ErrNotRequestOwner
	}
	if r.Status != StatusPending && r.Status != StatusAssigned {
		return fmt.Errorf("%w: only pending or assigned requests can be cancelled", ErrInvalidTransition)
	}
	return nil
}

// RateBy records a one-time rating on a completed request owned by the
// calling customer.
func (r *ServiceRequest) RateBy(customerID, workerID uuid.UUID, rating int, feedback string) error {
	if rating < 1 || rating > 5 {
		return ErrRatingOutOfRange
	}
	if r.CustomerID != customerID {
		return ErrNotRequestOwner
	}
	if r.Status != StatusCompleted {
		return fmt.Errorf("%w: only completed services can be rated", ErrInvalidTransition)
	}
	if r.IsRated {
		return ErrAlreadyRated
	}
	if r.WorkerID == nil || *r.WorkerID != workerID {
		return ErrWorkerMismatch
	}
	r.WorkerRating = &rating
	r.WorkerFeedback = feedback
	r.IsRated = true
	return nil
}

// AverageRating is the mean of all recorded ratings rounded to one decimal
// place, or 0 when no ratings exist.
func AverageRating(ratings []int) float64 {
	if len(ratings) == 0 {
		return 0
	}
	total := 0
	for _, v := range ratings {
		total += v
	}
	avg := float64(total) / float64(len(ratings))
	return math.Round(avg*10) / 10
}
