package auth

import (
	"strconv"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/pkg/errors"

	"github.com/colegiohq/backend/core"
	"github.com/colegiohq/backend/core/user"
)

var (
	ErrAuthenticationFailed = errors.New("wrong credentials")
	ErrAccountDeactivated   = errors.New("account deactivated")
	ErrInvalidToken         = errors.New("invalid or expired token")
	ErrRefreshExpired       = errors.New("refresh has expired")
)

// UserSnapshot is the denormalized user embedded in token claims. It reflects
// the user as of issuance; the principal resolver re-reads the stored user on
// every request, so a stale snapshot never widens access.
type UserSnapshot struct {
	ID          int      `json:"id"`
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	SchoolID    int      `json:"school_id"`
	Roles       []string `json:"roles"`
	Permissions []string `json:"permissions"`
}

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	OriginalIssuedAt int64        `json:"oriat,omitempty"`
	User             UserSnapshot `json:"user"`
}

// Service issues, validates and refreshes HS256-signed tokens.
type Service struct {
	conf   *core.Config
	usrSvc *user.Service
}

func NewService(conf *core.Config, usrSvc *user.Service) *Service {
	return &Service{conf: conf, usrSvc: usrSvc}
}

func (svc *Service) claimsFor(usr user.User, origIat ...int64) *Claims {
	now := time.Now()
	nownix := now.Unix()

	var oriat int64
	if len(origIat) > 0 {
		oriat = origIat[0]
	} else {
		oriat = nownix
	}

	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    svc.conf.AppName,
			Subject:   strconv.Itoa(usr.ID),
			Audience:  svc.conf.FrontendBaseURL,
			ExpiresAt: now.Add(svc.conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  nownix,
		},
		OriginalIssuedAt: oriat,
		User: UserSnapshot{
			ID:          usr.ID,
			Name:        usr.Name + " " + usr.Surname,
			Email:       usr.Email,
			SchoolID:    usr.SchoolID,
			Roles:       usr.Roles(),
			Permissions: usr.Permissions(),
		},
	}
}

// Issue generates a signed token string for the user.
func (svc *Service) Issue(usr user.User) (string, error) {
	return svc.sign(svc.claimsFor(usr))
}

func (svc *Service) sign(claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	ss, err := token.SignedString(svc.conf.SecretKey)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

// Authenticate checks the credentials against the stored user and issues a
// fresh token. The same error is returned for an unknown identifier and a
// wrong password.
func (svc *Service) Authenticate(uname, pwd string) (user.User, string, error) {
	usr, err := svc.usrSvc.GetByUsernameOrEmail(uname)
	if err != nil {
		return user.User{}, "", ErrAuthenticationFailed
	}
	if err := usr.CheckPassword(pwd); err != nil {
		return user.User{}, "", ErrAuthenticationFailed
	}
	if !usr.IsActive {
		return user.User{}, "", ErrAccountDeactivated
	}
	token, err := svc.Issue(usr)
	if err != nil {
		return user.User{}, "", err
	}
	return usr, token, nil
}

// Validate parses and verifies a signed token string, rejecting anything not
// signed with HS256 and the configured key.
func (svc *Service) Validate(tokenStr string) (*Claims, error) {
	claims := new(Claims)
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return svc.conf.SecretKey, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Refresh re-reads the user behind the claims and issues a new token carrying
// the current roles and permissions, as long as the refresh window anchored at
// the original issuance has not elapsed.
func (svc *Service) Refresh(claims *Claims) (string, error) {
	uid, err := strconv.Atoi(claims.Subject)
	if err != nil {
		return "", ErrInvalidToken
	}
	usr, err := svc.usrSvc.GetByID(uid)
	if err != nil {
		return "", ErrInvalidToken
	}
	if !usr.IsActive {
		return "", ErrAccountDeactivated
	}
	expTime := time.Unix(claims.OriginalIssuedAt, 0).Add(svc.conf.Server.JWTRefreshExpirationDelta)
	if time.Now().After(expTime) {
		return "", ErrRefreshExpired
	}
	return svc.sign(svc.claimsFor(usr, claims.OriginalIssuedAt))
}

// UserID extracts the subject user id.
func (c *Claims) UserID() (int, error) {
	uid, err := strconv.Atoi(c.Subject)
	if err != nil {
		return 0, ErrInvalidToken
	}
	return uid, nil
}
