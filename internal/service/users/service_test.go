package users_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/acquaintance/internal/app/apptest"
	"github.com/oggyb/acquaintance/internal/db"
	apperr "github.com/oggyb/acquaintance/internal/errors"
	"github.com/oggyb/acquaintance/internal/repository"
	"github.com/oggyb/acquaintance/internal/service/users"
)

func ids(us []db.User) []uint64 {
	out := make([]uint64, 0, len(us))
	for _, u := range us {
		out = append(out, u.ID)
	}
	return out
}

func TestListUsersDefaultsToOppositeGender(t *testing.T) {
	ctx := context.Background()
	env := apptest.New(t)
	svc := users.NewUsersService(env.App)

	alice := env.CreateUser(t, "alice", db.GenderFemale, 25)
	bob := env.CreateUser(t, "bob", db.GenderMale, 30)
	carol := env.CreateUser(t, "carol", db.GenderFemale, 27)

	page, err := svc.ListUsers(ctx, users.ListParams{RequesterID: alice.ID})
	require.NoError(t, err)
	assert.Equal(t, []uint64{bob.ID}, ids(page.Items))
	assert.Equal(t, int64(1), page.TotalCount)

	page, err = svc.ListUsers(ctx, users.ListParams{RequesterID: bob.ID})
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint64{alice.ID, carol.ID}, ids(page.Items))

	// explicit filter overrides the default, requester still excluded
	page, err = svc.ListUsers(ctx, users.ListParams{RequesterID: alice.ID, Gender: db.GenderFemale})
	require.NoError(t, err)
	assert.Equal(t, []uint64{carol.ID}, ids(page.Items))
}

func TestListUsersAnyGenderPolicy(t *testing.T) {
	env := apptest.New(t)
	env.App.Config.Discovery.GenderPolicy = users.PolicyAny
	svc := users.NewUsersService(env.App)

	alice := env.CreateUser(t, "alice", db.GenderFemale, 25)
	env.CreateUser(t, "bob", db.GenderMale, 30)
	env.CreateUser(t, "carol", db.GenderFemale, 27)

	page, err := svc.ListUsers(context.Background(), users.ListParams{RequesterID: alice.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.TotalCount)
}

func TestListUsersAgeBounds(t *testing.T) {
	env := apptest.New(t)
	svc := users.NewUsersService(env.App)

	me := env.CreateUser(t, "me", db.GenderMale, 30)
	env.CreateUser(t, "w20", db.GenderFemale, 20)
	w25 := env.CreateUser(t, "w25", db.GenderFemale, 25)
	w30 := env.CreateUser(t, "w30", db.GenderFemale, 30)
	env.CreateUser(t, "w35", db.GenderFemale, 35)

	page, err := svc.ListUsers(context.Background(), users.ListParams{RequesterID: me.ID, MinAge: 25, MaxAge: 30})
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint64{w25.ID, w30.ID}, ids(page.Items))

	_, err = svc.ListUsers(context.Background(), users.ListParams{RequesterID: me.ID, MinAge: 40, MaxAge: 30})
	assert.ErrorIs(t, err, users.ErrInvalidAge)
}

func TestBirthDateRangeIsInclusive(t *testing.T) {
	now := time.Date(2025, 6, 15, 13, 0, 0, 0, time.UTC)
	minDOB, maxDOB := users.BirthDateRange(now, 18, 30)

	assert.Equal(t, time.Date(1994, 6, 16, 0, 0, 0, 0, time.UTC), minDOB)
	assert.Equal(t, time.Date(2007, 6, 15, 0, 0, 0, 0, time.UTC), maxDOB)

	assert.Equal(t, 30, db.User{DateOfBirth: minDOB}.Age(now))
	assert.Equal(t, 18, db.User{DateOfBirth: maxDOB}.Age(now))
}

func TestListUsersPagination(t *testing.T) {
	ctx := context.Background()
	env := apptest.New(t)
	env.App.Config.Discovery.MaxPageSize = 5
	svc := users.NewUsersService(env.App)

	me := env.CreateUser(t, "me", db.GenderMale, 30)
	for i := 0; i < 7; i++ {
		env.CreateUser(t, fmt.Sprintf("w%d", i), db.GenderFemale, 20+i)
	}

	page, err := svc.ListUsers(ctx, users.ListParams{RequesterID: me.ID, PageNumber: 2, PageSize: 3})
	require.NoError(t, err)
	assert.Len(t, page.Items, 3)
	assert.Equal(t, 2, page.CurrentPage)
	assert.Equal(t, int64(7), page.TotalCount)
	assert.Equal(t, 3, page.TotalPages)

	page, err = svc.ListUsers(ctx, users.ListParams{RequesterID: me.ID, PageNumber: 5, PageSize: 3})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Equal(t, int64(7), page.TotalCount)
	assert.Equal(t, 3, page.TotalPages)

	// page size is clamped to the configured maximum
	page, err = svc.ListUsers(ctx, users.ListParams{RequesterID: me.ID, PageSize: 500})
	require.NoError(t, err)
	assert.Len(t, page.Items, 5)
	assert.Equal(t, 5, page.PageSize)
	assert.Equal(t, 2, page.TotalPages)
}

func TestListUsersHugePageNumberIsEmpty(t *testing.T) {
	env := apptest.New(t)
	svc := users.NewUsersService(env.App)

	alice := env.CreateUser(t, "alice", db.GenderFemale, 25)
	env.CreateUser(t, "bob", db.GenderMale, 30)

	// (PageNumber-1)*PageSize overflows int here
	page, err := svc.ListUsers(context.Background(), users.ListParams{
		RequesterID: alice.ID,
		PageNumber:  1<<62 + 1,
		PageSize:    10,
	})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Equal(t, int64(1), page.TotalCount)
	assert.Equal(t, 1, page.TotalPages)
}

func TestListUsersRejectsBadInput(t *testing.T) {
	env := apptest.New(t)
	svc := users.NewUsersService(env.App)
	me := env.CreateUser(t, "me", db.GenderMale, 30)

	_, err := svc.ListUsers(context.Background(), users.ListParams{RequesterID: me.ID, Gender: "robot"})
	assert.ErrorIs(t, err, users.ErrInvalidGender)

	_, err = svc.ListUsers(context.Background(), users.ListParams{RequesterID: me.ID, OrderBy: "name"})
	assert.ErrorIs(t, err, users.ErrInvalidSort)
}

func TestGetUserUsesCache(t *testing.T) {
	ctx := context.Background()
	env := apptest.New(t)
	svc := users.NewUsersService(env.App)
	bob := env.CreateUser(t, "bob", db.GenderMale, 30)

	got, err := svc.GetUser(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, "bob", got.Username)
	assert.Empty(t, got.PasswordHash)
	assert.True(t, env.Redis.Exists(env.App.RedisCache.KeyForUser(bob.ID)))

	// served from cache even though the row changed underneath
	require.NoError(t, env.App.DB.Model(&db.User{}).Where("id = ?", bob.ID).Update("city", "Paris").Error)
	got, err = svc.GetUser(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, "", got.City)

	_, err = svc.GetUser(ctx, 9999)
	assert.ErrorIs(t, err, users.ErrUserNotFound)
}

func TestGetUserSharedReadIgnoresCallerCancel(t *testing.T) {
	env := apptest.New(t)
	svc := users.NewUsersService(env.App)
	bob := env.CreateUser(t, "bob", db.GenderMale, 30)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got, err := svc.GetUser(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, bob.ID, got.ID)
	assert.True(t, env.Redis.Exists(env.App.RedisCache.KeyForUser(bob.ID)))
}

func TestUpdateUser(t *testing.T) {
	ctx := context.Background()
	env := apptest.New(t)
	svc := users.NewUsersService(env.App)
	bob := env.CreateUser(t, "bob", db.GenderMale, 30)
	alice := env.CreateUser(t, "alice", db.GenderFemale, 25)

	_, err := svc.GetUser(ctx, bob.ID)
	require.NoError(t, err)

	err = svc.UpdateUser(ctx, bob.ID, bob.ID, repository.ProfileUpdate{Introduction: "hello", City: "Paris"})
	require.NoError(t, err)
	assert.False(t, env.Redis.Exists(env.App.RedisCache.KeyForUser(bob.ID)), "update invalidates the cache")

	got, err := svc.GetUser(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, "hello", got.Introduction)
	assert.Equal(t, "Paris", got.City)

	err = svc.UpdateUser(ctx, alice.ID, bob.ID, repository.ProfileUpdate{})
	assert.ErrorIs(t, err, users.ErrNotYourself)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestUpdateUserPersistenceFailure(t *testing.T) {
	ctx := context.Background()
	env := apptest.New(t)
	svc := users.NewUsersService(env.App)
	bob := env.CreateUser(t, "bob", db.GenderMale, 30)

	require.NoError(t, env.App.DB.Exec(
		"CREATE TRIGGER users_readonly BEFORE UPDATE ON users BEGIN SELECT RAISE(ABORT, 'read only'); END",
	).Error)

	err := svc.UpdateUser(ctx, bob.ID, bob.ID, repository.ProfileUpdate{Introduction: "x"})
	require.Error(t, err)
	assert.Equal(t, apperr.KindPersistence, apperr.KindOf(err))
}

func TestMatches(t *testing.T) {
	ctx := context.Background()
	env := apptest.New(t)
	svc := users.NewUsersService(env.App)
	alice := env.CreateUser(t, "alice", db.GenderFemale, 25)
	bob := env.CreateUser(t, "bob", db.GenderMale, 30)

	require.NoError(t, env.App.DB.Create(&[]db.Like{
		{LikerID: alice.ID, LikeeID: bob.ID},
		{LikerID: bob.ID, LikeeID: alice.ID},
	}).Error)

	matches, err := svc.Matches(ctx, alice.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint64{bob.ID}, ids(matches))

	_, err = svc.Matches(ctx, bob.ID, alice.ID)
	assert.ErrorIs(t, err, users.ErrNotYourself)
}

func TestTouchActivity(t *testing.T) {
	env := apptest.New(t)
	at := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	env.App.Now = func() time.Time { return at }
	svc := users.NewUsersService(env.App)
	bob := env.CreateUser(t, "bob", db.GenderMale, 30)

	require.NoError(t, svc.TouchActivity(context.Background(), bob.ID))

	var got db.User
	require.NoError(t, env.App.DB.First(&got, bob.ID).Error)
	assert.True(t, at.Equal(got.LastActive))
}
