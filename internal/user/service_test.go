package user

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (UserService, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&User{}))
	return NewUserService(NewUserRepository(db), zap.NewNop()), db
}

func birthDate(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse("2006-01-02", value)
	require.NoError(t, err)
	return parsed
}

func TestCreateUserNormalizesEmail(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	u, err := svc.CreateUser(ctx, "Jane Doe", " X@Y.com ", birthDate(t, "2000-01-01"), "secretpass")
	require.NoError(t, err)
	require.Equal(t, "x@y.com", u.Email)
}

func TestCreateUserRejectsDuplicateEmailWithoutWriting(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateUser(ctx, "Jane Doe", "a@b.com", birthDate(t, "2000-01-01"), "secretpass")
	require.NoError(t, err)

	// normalized form collides with the stored address
	_, err = svc.CreateUser(ctx, "John Doe", " A@B.COM ", birthDate(t, "1990-05-05"), "secretpass")
	require.ErrorIs(t, err, ErrEmailAlreadyExists)

	var count int64
	require.NoError(t, db.Model(&User{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestCreateUserHashesPassword(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	u, err := svc.CreateUser(ctx, "Jane Doe", "jane@b.com", birthDate(t, "2000-01-01"), "secretpass")
	require.NoError(t, err)
	require.NotEqual(t, "secretpass", u.PasswordHash)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("secretpass")))
}

func TestCreateUserValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	past := birthDate(t, "2000-01-01")

	cases := []struct {
		name      string
		fullName  string
		email     string
		birthDate time.Time
		password  string
		want      error
	}{
		{"empty email", "Jane Doe", "   ", past, "secretpass", ErrEmailRequired},
		{"malformed email", "Jane Doe", "not-an-email", past, "secretpass", ErrInvalidEmailFormat},
		{"no tld", "Jane Doe", "jane@localhost", past, "secretpass", ErrInvalidEmailFormat},
		{"short name", "Jo", "jane@b.com", past, "secretpass", ErrFullNameTooShort},
		{"whitespace name", "  a  ", "jane@b.com", past, "secretpass", ErrFullNameTooShort},
		{"missing birth date", "Jane Doe", "jane@b.com", time.Time{}, "secretpass", ErrBirthDateRequired},
		{"future birth date", "Jane Doe", "jane@b.com", time.Now().Add(24 * time.Hour), "secretpass", ErrBirthDateInFuture},
		{"short password", "Jane Doe", "jane@b.com", past, "short", ErrPasswordTooShort},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateUser(ctx, tc.fullName, tc.email, tc.birthDate, tc.password)
			require.ErrorIs(t, err, tc.want)
		})
	}
}

func TestCreateUserRejectsLongFullName(t *testing.T) {
	svc, _ := newTestService(t)

	long := make([]byte, FullNameMaxLength+1)
	for i := range long {
		long[i] = 'a'
	}
	_, err := svc.CreateUser(context.Background(), string(long), "jane@b.com", birthDate(t, "2000-01-01"), "secretpass")
	require.ErrorIs(t, err, ErrFullNameTooLong)
}

func TestCreateUserAcceptsBarelyPastBirthDate(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.CreateUser(context.Background(), "Jane Doe", "jane@b.com", time.Now().Add(-time.Second), "secretpass")
	require.NoError(t, err)
}

func TestReadUserByEmailNormalizes(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateUser(ctx, "Jane Doe", "jane@b.com", birthDate(t, "2000-01-01"), "secretpass")
	require.NoError(t, err)

	found, err := svc.ReadUserByEmail(ctx, " JANE@B.com ")
	require.NoError(t, err)
	require.Equal(t, created.ID, found.ID)
}

func TestReadUserByIDNotFound(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.ReadUserByID(context.Background(), 404)
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestUpdateUserPartialFields(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	u, err := svc.CreateUser(ctx, "Jane Doe", "jane@b.com", birthDate(t, "2000-01-01"), "secretpass")
	require.NoError(t, err)

	newName := "  Jane Smith  "
	require.NoError(t, svc.UpdateUser(ctx, u.ID, UserUpdate{FullName: &newName}))

	updated, err := svc.ReadUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, "Jane Smith", updated.FullName)
	require.Equal(t, "jane@b.com", updated.Email)
}

func TestUpdateUserEmailConflict(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateUser(ctx, "Jane Doe", "jane@b.com", birthDate(t, "2000-01-01"), "secretpass")
	require.NoError(t, err)
	other, err := svc.CreateUser(ctx, "John Doe", "john@b.com", birthDate(t, "1990-05-05"), "secretpass")
	require.NoError(t, err)

	taken := "JANE@b.com"
	err = svc.UpdateUser(ctx, other.ID, UserUpdate{Email: &taken})
	require.ErrorIs(t, err, ErrEmailAlreadyExists)

	// re-submitting your own address is not a conflict
	own := "john@b.com"
	require.NoError(t, svc.UpdateUser(ctx, other.ID, UserUpdate{Email: &own}))
}

func TestUpdateUserNotFound(t *testing.T) {
	svc, _ := newTestService(t)

	name := "Jane Smith"
	err := svc.UpdateUser(context.Background(), 404, UserUpdate{FullName: &name})
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestUpdatePassword(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	u, err := svc.CreateUser(ctx, "Jane Doe", "jane@b.com", birthDate(t, "2000-01-01"), "secretpass")
	require.NoError(t, err)

	err = svc.UpdatePassword(ctx, u.ID, "wrong-old", "newsecret99")
	require.ErrorIs(t, err, ErrWrongPassword)

	require.NoError(t, svc.UpdatePassword(ctx, u.ID, "secretpass", "newsecret99"))

	updated, err := svc.ReadUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.True(t, svc.CheckPassword(updated, "newsecret99"))
	require.False(t, svc.CheckPassword(updated, "secretpass"))
}

func TestUpdatePasswordValidatesNewPassword(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	u, err := svc.CreateUser(ctx, "Jane Doe", "jane@b.com", birthDate(t, "2000-01-01"), "secretpass")
	require.NoError(t, err)

	err = svc.UpdatePassword(ctx, u.ID, "secretpass", "short")
	require.ErrorIs(t, err, ErrPasswordTooShort)
}
