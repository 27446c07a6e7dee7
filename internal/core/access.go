package core

import "strings"

const (
	AccessNone  AccessLevel = "none"
	AccessRead  AccessLevel = "read"
	AccessWrite AccessLevel = "write"
	AccessFull  AccessLevel = "full"
)

const (
	PerspectiveSelf      Perspective = "self"
	PerspectiveNone      Perspective = "none"
	PerspectiveRequester Perspective = "requester"
	PerspectiveRecipient Perspective = "recipient"
	PerspectiveUnknown   Perspective = "unknown"
)

type (
	// AccessLevel is the ordered permission tier governing cross-user data
	// visibility: none < read < write < full.
	AccessLevel string

	// Perspective identifies which side of a relationship the viewer occupies.
	Perspective string

	// Party is one side of a sharing relationship.
	Party struct {
		ID string `json:"id"`
	}

	// Relationship is a bidirectional sharing record between two users.
	// Grants are directional: RequesterAccess governs what the recipient may
	// do with the requester's data, and RecipientAccess the reverse. This
	// layer only reads relationships, it never mutates them.
	Relationship struct {
		ID              string      `json:"id"`
		Requester       Party       `json:"requester"`
		Recipient       Party       `json:"recipient"`
		RequesterAccess AccessLevel `json:"requesterAccess"`
		RecipientAccess AccessLevel `json:"recipientAccess"`
	}

	// Resolution is the effective access of a viewer against a target user.
	Resolution struct {
		Perspective Perspective `json:"perspective"`
		Level       AccessLevel `json:"accessLevel"`
		CanRead     bool        `json:"canRead"`
		CanWrite    bool        `json:"canWrite"`
		IsOwn       bool        `json:"isOwn"`
	}
)

// ParseAccessLevel normalizes a raw level string. Case is folded and anything
// outside the four known levels collapses to none, never to a broader grant.
func ParseAccessLevel(s string) AccessLevel {
	switch AccessLevel(strings.ToLower(strings.TrimSpace(s))) {
	case AccessRead:
		return AccessRead
	case AccessWrite:
		return AccessWrite
	case AccessFull:
		return AccessFull
	default:
		return AccessNone
	}
}

func (l AccessLevel) rank() int {
	switch l {
	case AccessRead:
		return 1
	case AccessWrite:
		return 2
	case AccessFull:
		return 3
	default:
		return 0
	}
}

// CanRead reports whether the level permits reading shared data.
func (l AccessLevel) CanRead() bool {
	return ParseAccessLevel(string(l)).rank() >= AccessRead.rank()
}

// CanWrite reports whether the level permits mutating shared data.
func (l AccessLevel) CanWrite() bool {
	return ParseAccessLevel(string(l)).rank() >= AccessWrite.rank()
}

// ResolveAccess computes the viewer's effective permission against a target
// user's data. It is total: nil or partially populated relationships degrade
// to none/unknown instead of failing.
//
// Self-access is unconditional: an absent target or target equal to the
// viewer resolves to full regardless of relationship content. Otherwise the
// governing level is the grant the counterpart extended to the viewer:
// the requester sees RecipientAccess, the recipient sees RequesterAccess.
func ResolveAccess(rel *Relationship, viewerID, targetID string) Resolution {
	if targetID == "" || targetID == viewerID {
		return Resolution{
			Perspective: PerspectiveSelf,
			Level:       AccessFull,
			CanRead:     true,
			CanWrite:    true,
			IsOwn:       true,
		}
	}

	if rel == nil {
		return Resolution{Perspective: PerspectiveNone, Level: AccessNone}
	}

	perspective := PerspectiveUnknown
	level := AccessNone

	switch {
	case viewerID != "" && viewerID == rel.Requester.ID:
		perspective = PerspectiveRequester
		level = ParseAccessLevel(string(rel.RecipientAccess))
	case viewerID != "" && viewerID == rel.Recipient.ID:
		perspective = PerspectiveRecipient
		level = ParseAccessLevel(string(rel.RequesterAccess))
	case targetID == rel.Requester.ID:
		// Viewer id matches neither side; the target does, so treat the
		// viewer as sitting on the recipient side of the grant.
		level = ParseAccessLevel(string(rel.RequesterAccess))
	case targetID == rel.Recipient.ID:
		level = ParseAccessLevel(string(rel.RecipientAccess))
	}

	return Resolution{
		Perspective: perspective,
		Level:       level,
		CanRead:     level.CanRead(),
		CanWrite:    level.CanWrite(),
	}
}
