package authz

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestIsOwner(t *testing.T) {
	owner := uuid.NewString()
	other := uuid.NewString()

	cases := []struct {
		name      string
		principal *Principal
		ownerID   string
		want      bool
	}{
		{name: "same id", principal: &Principal{ID: owner}, ownerID: owner, want: true},
		{name: "case differs", principal: &Principal{ID: strings.ToUpper(owner)}, ownerID: owner, want: true},
		{name: "different id", principal: &Principal{ID: other}, ownerID: owner, want: false},
		{name: "nil principal", principal: nil, ownerID: owner, want: false},
		{name: "empty principal id", principal: &Principal{}, ownerID: owner, want: false},
		{name: "empty owner", principal: &Principal{ID: owner}, ownerID: "", want: false},
		{name: "malformed owner", principal: &Principal{ID: owner}, ownerID: "not-an-id", want: false},
		{name: "malformed principal", principal: &Principal{ID: "42"}, ownerID: owner, want: false},
		{name: "nil uuid", principal: &Principal{ID: uuid.Nil.String()}, ownerID: uuid.Nil.String(), want: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsOwner(tc.principal, tc.ownerID); got != tc.want {
				t.Fatalf("IsOwner() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestValidID(t *testing.T) {
	if !ValidID(uuid.NewString()) {
		t.Fatal("expected generated id to be valid")
	}
	if ValidID("") || ValidID("abc") {
		t.Fatal("expected malformed ids to be rejected")
	}
}
