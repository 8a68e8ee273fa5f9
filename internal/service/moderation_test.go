package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/classifieds/internal/domain"
	"github.com/Skotchmaster/classifieds/internal/events"
)

func TestApprove_Scenario(t *testing.T) {
	e := newEnv(t)
	ad := e.submit(t)

	got, err := e.mod.Approve(context.Background(), domain.RoleAdmin, ad.ID)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusActive, got.Status)
	assert.Equal(t, domain.VerificationVerified, got.VerificationStatus)
	require.NotNil(t, got.PublishedAt)
	require.NotNil(t, got.ExpiresAt)
	assert.WithinDuration(t, t0, *got.PublishedAt, time.Second)
	assert.WithinDuration(t, t0.Add(7*24*time.Hour), *got.ExpiresAt, time.Second)
}

func TestApprove_OnlyFromPending(t *testing.T) {
	for _, s := range everyState {
		t.Run(string(s.st), func(t *testing.T) {
			e := newEnv(t)
			ad := e.submit(t)
			e.force(t, ad.ID, s.st, s.ver)

			_, err := e.mod.Approve(context.Background(), domain.RoleModerator, ad.ID)
			got := e.reload(t, ad.ID)

			if s.st == domain.StatusPending {
				require.NoError(t, err)
				assert.Equal(t, domain.StatusActive, got.Status)
				return
			}
			require.ErrorIs(t, err, domain.ErrInvalidTransition)
			assert.Equal(t, s.st, got.Status)
			assert.Equal(t, s.ver, got.VerificationStatus)
			assert.Nil(t, got.PublishedAt)
		})
	}
}

func TestApprove_PendingWithStaleVerificationIsRefused(t *testing.T) {
	e := newEnv(t)
	ad := e.submit(t)
	e.force(t, ad.ID, domain.StatusPending, domain.VerificationRejected)

	_, err := e.mod.Approve(context.Background(), domain.RoleAdmin, ad.ID)
	require.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Equal(t, domain.VerificationRejected, e.reload(t, ad.ID).VerificationStatus)
}

func TestReject_Scenario(t *testing.T) {
	e := newEnv(t)
	ad := e.submit(t)

	got, err := e.mod.Reject(context.Background(), domain.RoleModerator, ad.ID, "blurry photo")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRejected, got.Status)
	assert.Equal(t, domain.VerificationRejected, got.VerificationStatus)
	require.NotNil(t, got.VerificationReason)
	assert.Equal(t, "blurry photo", *got.VerificationReason)
	assert.Nil(t, got.ExpiresAt)

	_, err = e.mod.Approve(context.Background(), domain.RoleModerator, ad.ID)
	require.ErrorIs(t, err, domain.ErrInvalidTransition, "rejected is terminal")

	assert.Equal(t, []events.Type{events.AdSubmitted, events.AdRejected}, e.events.Types())
}

func TestModeration_Errors(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	ad := e.submit(t)

	_, err := e.mod.Reject(ctx, domain.RoleAdmin, ad.ID, "  ")
	require.ErrorIs(t, err, domain.ErrValidation)

	_, err = e.mod.Approve(ctx, domain.RoleAdmin, 999)
	require.ErrorIs(t, err, domain.ErrNotFound)

	_, err = e.mod.Reject(ctx, domain.RoleAdmin, 999, "spam")
	require.ErrorIs(t, err, domain.ErrNotFound)

	for _, role := range []domain.Role{domain.RoleUser, "", "root"} {
		_, err = e.mod.Approve(ctx, role, ad.ID)
		require.ErrorIs(t, err, domain.ErrForbidden)
		_, err = e.mod.Reject(ctx, role, ad.ID, "spam")
		require.ErrorIs(t, err, domain.ErrForbidden)
		_, err = e.mod.ListPending(ctx, role)
		require.ErrorIs(t, err, domain.ErrForbidden)
	}
	assert.Equal(t, domain.StatusPending, e.reload(t, ad.ID).Status)
}

func TestListPending(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	first := e.submit(t)
	second := e.submit(t)
	approved := e.approved(t)

	items, err := e.mod.ListPending(ctx, domain.RoleModerator)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, second.ID, items[0].ID)
	assert.Equal(t, first.ID, items[1].ID)
	for _, ad := range items {
		assert.NotEqual(t, approved.ID, ad.ID)
		require.NotNil(t, ad.Category)
		require.NotNil(t, ad.User)
		assert.Equal(t, e.owner.Name, ad.User.Name)
	}
}
