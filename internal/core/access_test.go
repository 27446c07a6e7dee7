package core

import "testing"

func sampleRelationship() *Relationship {
	return &Relationship{
		ID:              "rel-1",
		Requester:       Party{ID: "alice"},
		Recipient:       Party{ID: "bob"},
		RequesterAccess: AccessWrite,
		RecipientAccess: AccessRead,
	}
}

func TestResolveAccessSelf(t *testing.T) {
	cases := []struct {
		name     string
		rel      *Relationship
		targetID string
	}{
		{"absent target", sampleRelationship(), ""},
		{"target equals viewer", sampleRelationship(), "alice"},
		{"nil relationship", nil, "alice"},
	}
	for _, tc := range cases {
		res := ResolveAccess(tc.rel, "alice", tc.targetID)
		if res.Perspective != PerspectiveSelf {
			t.Fatalf("%s: expected self perspective, got %s", tc.name, res.Perspective)
		}
		if res.Level != AccessFull || !res.CanRead || !res.CanWrite || !res.IsOwn {
			t.Fatalf("%s: self access must be unconditional full, got %+v", tc.name, res)
		}
	}
}

func TestResolveAccessNoRelationship(t *testing.T) {
	res := ResolveAccess(nil, "alice", "bob")
	if res.Perspective != PerspectiveNone {
		t.Fatalf("expected none perspective, got %s", res.Perspective)
	}
	if res.Level != AccessNone || res.CanRead || res.CanWrite || res.IsOwn {
		t.Fatalf("expected no access, got %+v", res)
	}
}

func TestResolveAccessDirection(t *testing.T) {
	rel := sampleRelationship()

	// The requester sees what the recipient granted back.
	res := ResolveAccess(rel, "alice", "bob")
	if res.Perspective != PerspectiveRequester {
		t.Fatalf("expected requester perspective, got %s", res.Perspective)
	}
	if res.Level != AccessRead || !res.CanRead || res.CanWrite {
		t.Fatalf("expected read-only for requester, got %+v", res)
	}

	// The recipient sees the requester's grant.
	res = ResolveAccess(rel, "bob", "alice")
	if res.Perspective != PerspectiveRecipient {
		t.Fatalf("expected recipient perspective, got %s", res.Perspective)
	}
	if res.Level != AccessWrite || !res.CanRead || !res.CanWrite {
		t.Fatalf("expected write for recipient, got %+v", res)
	}
}

func TestResolveAccessUnknownViewer(t *testing.T) {
	rel := sampleRelationship()

	res := ResolveAccess(rel, "mallory", "alice")
	if res.Perspective != PerspectiveUnknown {
		t.Fatalf("expected unknown perspective, got %s", res.Perspective)
	}
	// Best-effort direction: target is the requester, so the grant covering
	// the requester's data applies.
	if res.Level != AccessWrite {
		t.Fatalf("expected write from best-effort direction, got %s", res.Level)
	}

	res = ResolveAccess(rel, "mallory", "nobody")
	if res.Perspective != PerspectiveUnknown || res.Level != AccessNone {
		t.Fatalf("expected unknown/none, got %+v", res)
	}
}

func TestResolveAccessPartialRelationship(t *testing.T) {
	// Missing nested ids must degrade, not panic.
	res := ResolveAccess(&Relationship{}, "alice", "bob")
	if res.Perspective != PerspectiveUnknown || res.Level != AccessNone {
		t.Fatalf("expected unknown/none for empty relationship, got %+v", res)
	}
}

func TestAccessLevelCapabilities(t *testing.T) {
	cases := []struct {
		level    AccessLevel
		canRead  bool
		canWrite bool
	}{
		{AccessNone, false, false},
		{AccessRead, true, false},
		{AccessWrite, true, true},
		{AccessFull, true, true},
	}
	for _, tc := range cases {
		if tc.level.CanRead() != tc.canRead {
			t.Fatalf("%s: CanRead expected %v", tc.level, tc.canRead)
		}
		if tc.level.CanWrite() != tc.canWrite {
			t.Fatalf("%s: CanWrite expected %v", tc.level, tc.canWrite)
		}
	}
}

func TestParseAccessLevel(t *testing.T) {
	cases := []struct {
		in  string
		out AccessLevel
	}{
		{"FULL", AccessFull},
		{" Read ", AccessRead},
		{"write", AccessWrite},
		{"none", AccessNone},
		{"admin", AccessNone}, // unknown collapses, fail-closed
		{"", AccessNone},
	}
	for _, tc := range cases {
		if got := ParseAccessLevel(tc.in); got != tc.out {
			t.Fatalf("%q: expected %s, got %s", tc.in, tc.out, got)
		}
	}
}

func TestResolveAccessBothDirectionsAllLevels(t *testing.T) {
	levels := []AccessLevel{AccessNone, AccessRead, AccessWrite, AccessFull}
	for _, granted := range levels {
		rel := &Relationship{
			Requester:       Party{ID: "alice"},
			Recipient:       Party{ID: "bob"},
			RequesterAccess: granted,
			RecipientAccess: granted,
		}
		for _, viewer := range []string{"alice", "bob"} {
			target := "bob"
			if viewer == "bob" {
				target = "alice"
			}
			res := ResolveAccess(rel, viewer, target)
			if res.Level != granted {
				t.Fatalf("viewer %s granted %s: got %s", viewer, granted, res.Level)
			}
			wantWrite := granted == AccessWrite || granted == AccessFull
			wantRead := wantWrite || granted == AccessRead
			if res.CanWrite != wantWrite || res.CanRead != wantRead {
				t.Fatalf("viewer %s granted %s: flags %+v", viewer, granted, res)
			}
		}
	}
}
