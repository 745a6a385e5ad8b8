package fakeuserrepo_test

import (
	"testing"

	apperrors "github.com/jrsteele09/vineyard-dashboard/internal/errors"
	"github.com/jrsteele09/vineyard-dashboard/users"
	fakeuserrepo "github.com/jrsteele09/vineyard-dashboard/users/repofake"
	"github.com/stretchr/testify/require"
)

func TestFakeUserRepo_Register(t *testing.T) {
	repo := fakeuserrepo.NewFakeUserRepo()

	u := &users.User{Email: "Wes@Vineyard.test", Role: users.RoleWorker}
	require.NoError(t, repo.Register(u, "vineyard123"))
	require.NotEmpty(t, u.ID)
	require.False(t, u.CreatedAt.IsZero())

	err := repo.Register(&users.User{Email: "wes@vineyard.test"}, "vineyard123")
	require.ErrorIs(t, err, apperrors.ErrEmailTaken)

	found, err := repo.GetByEmail("WES@vineyard.test")
	require.NoError(t, err)
	require.Equal(t, u.ID, found.ID)

	require.True(t, repo.CheckPassword("wes@vineyard.test", "vineyard123"))
	require.False(t, repo.CheckPassword("wes@vineyard.test", "nope12345"))
}

func TestFakeUserRepo_SeedAndList(t *testing.T) {
	repo := fakeuserrepo.NewFakeUserRepo(
		&users.User{ID: "2", Email: "zed@vineyard.test"},
		&users.User{ID: "1", Email: "amy@vineyard.test"},
	)

	list, err := repo.List()
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "amy@vineyard.test", list[0].Email)

	// seeded users have no password
	require.False(t, repo.CheckPassword("amy@vineyard.test", ""))

	_, err = repo.GetByEmail("missing@vineyard.test")
	require.ErrorIs(t, err, apperrors.ErrUserNotFound)
}
