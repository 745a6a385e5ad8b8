package fakeuserrepo

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/jrsteele09/vineyard-dashboard/internal/errors"
	"github.com/jrsteele09/vineyard-dashboard/users"
)

var _ users.Repo = (*FakeUserRepo)(nil)

type storedUser struct {
	user         *users.User
	passwordHash string
}

// FakeUserRepo is the in-memory fixture list behind the signup page
type FakeUserRepo struct {
	users map[string]storedUser // lower-cased email to user
	lock  sync.RWMutex
}

func NewFakeUserRepo(seed ...*users.User) *FakeUserRepo {
	ur := &FakeUserRepo{
		users: make(map[string]storedUser),
	}
	for _, u := range seed {
		ur.users[strings.ToLower(u.Email)] = storedUser{user: u}
	}
	return ur
}

func (ur *FakeUserRepo) Register(user *users.User, password string) error {
	hash, err := users.HashPassword(password)
	if err != nil {
		return apperrors.Wrapf(err, "[FakeUserRepo Register] hash password")
	}

	ur.lock.Lock()
	defer ur.lock.Unlock()

	key := strings.ToLower(user.Email)
	if _, ok := ur.users[key]; ok {
		return apperrors.ErrEmailTaken
	}
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	ur.users[key] = storedUser{user: user, passwordHash: hash}
	return nil
}

func (ur *FakeUserRepo) GetByEmail(email string) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	stored, ok := ur.users[strings.ToLower(email)]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	return stored.user, nil
}

// CheckPassword reports whether password matches the stored hash for email
func (ur *FakeUserRepo) CheckPassword(email, password string) bool {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	stored, ok := ur.users[strings.ToLower(email)]
	if !ok || stored.passwordHash == "" {
		return false
	}
	return users.CheckPasswordHash(password, stored.passwordHash)
}

func (ur *FakeUserRepo) List() ([]*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	userList := make([]*users.User, 0, len(ur.users))
	for _, v := range ur.users {
		userList = append(userList, v.user)
	}

	sort.Slice(userList, func(i, j int) bool {
		return userList[i].Email < userList[j].Email
	})
	return userList, nil
}
