package auth_test

import (
	"strconv"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colegiohq/backend/core"
	"github.com/colegiohq/backend/core/auth"
	"github.com/colegiohq/backend/core/school"
	"github.com/colegiohq/backend/core/user"
	dummydb "github.com/colegiohq/backend/storage/database/dummy"
)

type testEnv struct {
	conf    *core.Config
	usrSvc  *user.Service
	authSvc *auth.Service
	usr     user.User
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	conf := core.NewTestConfig()
	db, err := dummydb.Open()
	require.NoError(t, err)

	schoolSvc := school.NewService(dummydb.NewSchoolRepository(db))
	sch, err := schoolSvc.Create(school.NewSchool{Name: "North", FullName: "North High School", Email: "north@test.cd"})
	require.NoError(t, err)

	usrSvc := user.NewService(dummydb.NewUserRepository(db))
	usr, err := usrSvc.Create(user.NewUser{
		Name:     "Jane",
		Surname:  "Doe",
		Username: "jane",
		Email:    "jane@test.cd",
		Password: "Str0ngPwd!",
		SchoolID: sch.ID,
		Role:     user.RoleTeacher,
	})
	require.NoError(t, err)

	return &testEnv{
		conf:    conf,
		usrSvc:  usrSvc,
		authSvc: auth.NewService(conf, usrSvc),
		usr:     usr,
	}
}

func TestService_IssueValidate(t *testing.T) {
	env := newTestEnv(t)

	token, err := env.authSvc.Issue(env.usr)
	require.NoError(t, err)

	claims, err := env.authSvc.Validate(token)
	require.NoError(t, err)

	assert.Equal(t, env.conf.AppName, claims.Issuer)
	assert.Equal(t, strconv.Itoa(env.usr.ID), claims.Subject)
	assert.Equal(t, claims.IssuedAt, claims.OriginalIssuedAt)

	uid, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, env.usr.ID, uid)

	assert.Equal(t, env.usr.ID, claims.User.ID)
	assert.Equal(t, "Jane Doe", claims.User.Name)
	assert.Equal(t, env.usr.SchoolID, claims.User.SchoolID)
	assert.Equal(t, []string{user.RoleTeacher}, claims.User.Roles)
	assert.Contains(t, claims.User.Permissions, user.PermCreateGrades)
}

func TestService_Validate_rejects(t *testing.T) {
	env := newTestEnv(t)

	t.Run("garbage", func(t *testing.T) {
		_, err := env.authSvc.Validate("not.a.token")
		assert.Equal(t, auth.ErrInvalidToken, err)
	})

	t.Run("expired", func(t *testing.T) {
		conf := core.NewTestConfig()
		conf.Server.JWTExpirationDelta = -time.Minute
		expiredToken, err := auth.NewService(conf, env.usrSvc).Issue(env.usr)
		require.NoError(t, err)

		_, err = env.authSvc.Validate(expiredToken)
		assert.Equal(t, auth.ErrInvalidToken, err)
	})

	t.Run("wrong key", func(t *testing.T) {
		claims := &auth.Claims{
			StandardClaims: jwt.StandardClaims{
				Subject:   strconv.Itoa(env.usr.ID),
				ExpiresAt: time.Now().Add(time.Hour).Unix(),
			},
		}
		tkn := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
		ss, err := tkn.SignedString([]byte("other-secret"))
		require.NoError(t, err)

		_, err = env.authSvc.Validate(ss)
		assert.Equal(t, auth.ErrInvalidToken, err)
	})

	t.Run("unsigned", func(t *testing.T) {
		claims := &auth.Claims{
			StandardClaims: jwt.StandardClaims{
				Subject:   strconv.Itoa(env.usr.ID),
				ExpiresAt: time.Now().Add(time.Hour).Unix(),
			},
		}
		tkn := jwt.NewWithClaims(jwt.SigningMethodNone, claims)
		ss, err := tkn.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = env.authSvc.Validate(ss)
		assert.Equal(t, auth.ErrInvalidToken, err)
	})
}

func TestService_Authenticate(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name    string
		uname   string
		pwd     string
		wantErr error
	}{
		{name: "by username", uname: "jane", pwd: "Str0ngPwd!"},
		{name: "by email", uname: "jane@test.cd", pwd: "Str0ngPwd!"},
		{name: "wrong password", uname: "jane", pwd: "nope", wantErr: auth.ErrAuthenticationFailed},
		{name: "unknown user", uname: "ghost", pwd: "Str0ngPwd!", wantErr: auth.ErrAuthenticationFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			usr, token, err := env.authSvc.Authenticate(tt.uname, tt.pwd)
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, env.usr.ID, usr.ID)
			assert.NotEmpty(t, token)
		})
	}

	t.Run("deactivated account", func(t *testing.T) {
		active := false
		_, err := env.usrSvc.Update(env.usr.ID, user.UpdateUser{IsActive: &active})
		require.NoError(t, err)

		_, _, err = env.authSvc.Authenticate("jane", "Str0ngPwd!")
		assert.Equal(t, auth.ErrAccountDeactivated, err)
	})
}

func TestService_Refresh(t *testing.T) {
	env := newTestEnv(t)

	token, err := env.authSvc.Issue(env.usr)
	require.NoError(t, err)
	claims, err := env.authSvc.Validate(token)
	require.NoError(t, err)

	t.Run("within window", func(t *testing.T) {
		refreshed, err := env.authSvc.Refresh(claims)
		require.NoError(t, err)

		newClaims, err := env.authSvc.Validate(refreshed)
		require.NoError(t, err)
		// the anchor survives the refresh
		assert.Equal(t, claims.OriginalIssuedAt, newClaims.OriginalIssuedAt)
	})

	t.Run("window elapsed", func(t *testing.T) {
		stale := *claims
		stale.OriginalIssuedAt = time.Now().Add(-env.conf.Server.JWTRefreshExpirationDelta - time.Hour).Unix()
		_, err := env.authSvc.Refresh(&stale)
		assert.Equal(t, auth.ErrRefreshExpired, err)
	})

	t.Run("picks up current roles", func(t *testing.T) {
		_, err := env.usrSvc.Update(env.usr.ID, user.UpdateUser{Role: user.RoleCoordinator})
		require.NoError(t, err)

		refreshed, err := env.authSvc.Refresh(claims)
		require.NoError(t, err)
		newClaims, err := env.authSvc.Validate(refreshed)
		require.NoError(t, err)
		assert.Equal(t, []string{user.RoleCoordinator}, newClaims.User.Roles)
	})

	t.Run("deleted user", func(t *testing.T) {
		stale := *claims
		stale.Subject = "99999"
		_, err := env.authSvc.Refresh(&stale)
		assert.Equal(t, auth.ErrInvalidToken, err)
	})
}
