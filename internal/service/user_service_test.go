package service

import (
	"context"
	"testing"

	"unnest/internal/models"
	"unnest/internal/repository"
	"unnest/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserService_UpdateAccount(t *testing.T) {
	db := testutil.NewTestDB(t)
	store := newMemStore()
	svc := NewUserService(repository.NewUserRepository(db), NewMediaService(store))
	ctx := context.Background()

	alice := testutil.CreateUser(t, db, "alice", "alice@example.com")

	updated, err := svc.UpdateAccount(ctx, UpdateAccountInput{
		UserID:   alice.ID,
		Username: "alice2",
		Email:    "alice2@example.com",
		Bio:      "Writes about SQL.",
		Picture:  testutil.FileHeader(t, "me.png", testutil.PNG(t, 400, 400)),
	})
	require.NoError(t, err)
	assert.Regexp(t, `^[0-9a-f]{16}\.png$`, updated.ImageFile)
	assert.Contains(t, store.objects, "images/profile_pics/"+updated.ImageFile)

	stored, err := svc.GetUserByUsername(ctx, "alice2")
	require.NoError(t, err)
	assert.Equal(t, "alice2@example.com", stored.Email)
	assert.Equal(t, "Writes about SQL.", stored.AboutAuthor)
	assert.Equal(t, updated.ImageFile, stored.ImageFile)
	assert.Equal(t, alice.Password, stored.Password)
}

func TestUserService_UpdateAccountKeepsPictureWhenNoneUploaded(t *testing.T) {
	db := testutil.NewTestDB(t)
	svc := NewUserService(repository.NewUserRepository(db), NewMediaService(newMemStore()))
	alice := testutil.CreateUser(t, db, "alice", "alice@example.com")

	updated, err := svc.UpdateAccount(context.Background(), UpdateAccountInput{
		UserID: alice.ID, Username: "alice", Email: "alice@example.com", Bio: "hi",
	})
	require.NoError(t, err)
	assert.Equal(t, models.DefaultProfileImage, updated.ImageFile)
}

func TestUserService_UpdateAccountTakenEmail(t *testing.T) {
	db := testutil.NewTestDB(t)
	svc := NewUserService(repository.NewUserRepository(db), NewMediaService(newMemStore()))
	alice := testutil.CreateUser(t, db, "alice", "alice@example.com")
	testutil.CreateUser(t, db, "bob", "bob@example.com")

	_, err := svc.UpdateAccount(context.Background(), UpdateAccountInput{
		UserID: alice.ID, Username: "alice", Email: "bob@example.com",
	})
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "email", appErr.Field)
}

func TestUserService_GetUserByUsernameMissing(t *testing.T) {
	svc := NewUserService(repository.NewUserRepository(testutil.NewTestDB(t)), nil)
	_, err := svc.GetUserByUsername(context.Background(), "ghost")
	assert.True(t, models.IsCode(err, models.CodeNotFound))
}
