package repository

import (
	"errors"
	"regexp"
	"testing"

	"bizzy/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestIsUniqueConstraintError(t *testing.T) {
	assert.False(t, isUniqueConstraintError(nil))
	assert.True(t, isUniqueConstraintError(&pgconn.PgError{Code: "23505"}))
	assert.False(t, isUniqueConstraintError(&pgconn.PgError{Code: "23503"}))
	assert.True(t, isUniqueConstraintError(gorm.ErrDuplicatedKey))
	assert.True(t, isUniqueConstraintError(errors.New("UNIQUE constraint failed: users.email")))
	assert.False(t, isUniqueConstraintError(errors.New("connection reset")))
}

func TestUserRepository_GetByID(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db)
	seedUser(t, db, "u1", "Ada", "ada@example.com", nil)

	u, err := repo.GetByID(ctx(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "Ada", u.Name)

	_, err = repo.GetByID(ctx(), "missing")
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeNotFound, appErr.Code)
	assert.Equal(t, "User not found", appErr.Message)
}

func TestUserRepository_GetByID_DatabaseError(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE id = $1`)).
		WithArgs("u1", 1).
		WillReturnError(errors.New("connection timeout"))

	u, err := repo.GetByID(ctx(), "u1")
	assert.Nil(t, u)
	assert.Equal(t, models.CodeInternal, models.ErrorCode(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_LookupsReturnNilWhenMissing(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db)
	seedUser(t, db, "u1", "Ada", "ada@example.com", nil)

	u, err := repo.GetByEmail(ctx(), "nobody@example.com")
	assert.NoError(t, err)
	assert.Nil(t, u)

	u, err = repo.GetByUsername(ctx(), "nobody")
	assert.NoError(t, err)
	assert.Nil(t, u)

	u, err = repo.GetByUsername(ctx(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", u.Email)
}

func TestUserRepository_CreateWithAccount(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db)

	user := &models.User{ID: "u1", Name: "Ada", Email: "ada@example.com", Username: "ada"}
	account := &models.Account{ID: "a1", AccountID: "u1", ProviderID: models.ProviderCredential, Password: strPtr("hash")}
	require.NoError(t, repo.CreateWithAccount(ctx(), user, account))
	assert.Equal(t, "u1", account.UserID)

	dup := &models.User{ID: "u2", Name: "Eve", Email: "ada@example.com", Username: "eve"}
	err := repo.CreateWithAccount(ctx(), dup, &models.Account{ID: "a2", AccountID: "u2", ProviderID: models.ProviderCredential})
	assert.Equal(t, models.CodeConflict, models.ErrorCode(err))

	var accounts int64
	require.NoError(t, db.Model(&models.Account{}).Count(&accounts).Error)
	assert.Equal(t, int64(1), accounts, "failed signup must not leave an account behind")
}

func TestUserRepository_Search(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db)
	seedUser(t, db, "me", "Alice Me", "alice@example.com", nil)
	seedUser(t, db, "u2", "Alicia Keys", "keys@example.com", nil)
	seedUser(t, db, "u3", "Bob", "ALIbob@example.com", nil)
	seedUser(t, db, "u4", "Carol", "carol@example.com", nil)
	seedUser(t, db, "u5", "100% Real", "real@example.com", nil)

	users, err := repo.Search(ctx(), "ALI", "me", 0)
	require.NoError(t, err)
	ids := make([]string, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	assert.ElementsMatch(t, []string{"u2", "u3"}, ids)

	users, err = repo.Search(ctx(), "0%", "me", 0)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "u5", users[0].ID)
}

func TestUserRepository_ListExceptAndWithInterests(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db)
	seedUser(t, db, "me", "Me", "me@example.com", strPtr(`["park"]`))
	seedUser(t, db, "u2", "Two", "two@example.com", nil)
	seedUser(t, db, "u3", "Three", "three@example.com", strPtr(`["zoo"]`))

	others, err := repo.ListExcept(ctx(), "me")
	require.NoError(t, err)
	require.Len(t, others, 2)
	assert.Equal(t, "u2", others[0].ID)
	assert.Equal(t, "u3", others[1].ID)

	withInterests, err := repo.ListWithInterests(ctx())
	require.NoError(t, err)
	require.Len(t, withInterests, 2)
	assert.Equal(t, "me", withInterests[0].ID)
	assert.Equal(t, []string{"zoo"}, withInterests[1].InterestList())
}

func TestUserRepository_Updates(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db)
	seedUser(t, db, "u1", "Ada", "ada@example.com", nil)
	seedUser(t, db, "u2", "Bob", "bob@example.com", nil)

	require.NoError(t, repo.UpdateName(ctx(), "u1", "Ada L"))
	require.NoError(t, repo.UpdateUsername(ctx(), "u1", "adal"))
	require.NoError(t, repo.UpdateImage(ctx(), "u1", "data:image/png;base64,AAAA"))
	require.NoError(t, repo.CompleteOnboarding(ctx(), "u1", `["cafe"]`))

	u, err := repo.GetByID(ctx(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "Ada L", u.Name)
	assert.Equal(t, "adal", u.Username)
	require.NotNil(t, u.DisplayUsername)
	assert.Equal(t, "adal", *u.DisplayUsername)
	require.NotNil(t, u.Image)
	assert.True(t, u.OnboardingCompleted)
	assert.Equal(t, []string{"cafe"}, u.InterestList())

	err = repo.UpdateUsername(ctx(), "u2", "adal")
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeConflict, appErr.Code)
	assert.Equal(t, "Username already taken", appErr.Message)

	assert.Equal(t, models.CodeNotFound, models.ErrorCode(repo.UpdateName(ctx(), "ghost", "x")))
}

func TestUserRepository_UsernameExists(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db)
	seedUser(t, db, "u1", "Ada", "ada@example.com", nil)

	taken, err := repo.UsernameExists(ctx(), "u1", "")
	require.NoError(t, err)
	assert.True(t, taken)

	taken, err = repo.UsernameExists(ctx(), "u1", "u1")
	require.NoError(t, err)
	assert.False(t, taken)

	taken, err = repo.UsernameExists(ctx(), "free", "")
	require.NoError(t, err)
	assert.False(t, taken)
}

func TestUserRepository_UpdateName_PostgresShape(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "users" SET "name"=$1,"updated_at"=$2 WHERE id = $3`)).
		WithArgs("New", sqlmock.AnyArg(), "u1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.UpdateName(ctx(), "u1", "New"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
