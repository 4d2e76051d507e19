package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestActor_Valid(t *testing.T) {
	assert.True(t, UserActor(7).Valid())
	assert.True(t, GuestActor("guest-abc").Valid())
	assert.False(t, Actor{}.Valid())
	assert.False(t, Actor{UserID: 7, GuestID: "guest-abc"}.Valid())
}

func TestActor_IsGuest(t *testing.T) {
	assert.False(t, UserActor(7).IsGuest())
	assert.True(t, GuestActor("guest-abc").IsGuest())
}
