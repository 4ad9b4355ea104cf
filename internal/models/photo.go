package models

import "time"

type Photo struct {
	ID          int64
	URL         string
	Description string
	DateAdded   time.Time
	IsMain      bool
	PublicID    *string
	IsApproved  bool
	UserID      int64
}

// PhotoForModeration is an unapproved photo joined with its owner's name.
type PhotoForModeration struct {
	ID         int64
	URL        string
	UserName   string
	IsApproved bool
}
