package registry

import (
	"time"

	"github.com/sharedcode/idxstore"
)

// User is a registered account, keyed by Username.
type User struct {
	Username string    `json:"username"`
	FullName string    `json:"full_name,omitempty"`
	Email    string    `json:"email,omitempty"`
	Created  time.Time `json:"created"`
}

// Package is a parcel sent by a registered user. A sender can have many packages.
type Package struct {
	ID          idxstore.UUID `json:"id"`
	Sender      string        `json:"sender"`
	Recipient   string        `json:"recipient"`
	Description string        `json:"description,omitempty"`
	Weight      float64       `json:"weight"`
	Created     time.Time     `json:"created"`
}

// Report is a free form operational report, keyed by its ID.
type Report struct {
	ID      idxstore.UUID `json:"id"`
	Author  string        `json:"author,omitempty"`
	Title   string        `json:"title"`
	Body    string        `json:"body,omitempty"`
	Created time.Time     `json:"created"`
}

// Snapshot is the full content of a registry, used to reload it wholesale.
type Snapshot struct {
	Users    []User    `json:"users"`
	Packages []Package `json:"packages"`
	Reports  []Report  `json:"reports"`
}

func userKey(u User) string       { return u.Username }
func packageKey(p Package) string { return p.Sender }
func reportKey(r Report) string   { return r.ID.String() }
