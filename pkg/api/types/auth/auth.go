package auth

import (
	"github.com/ai-field-tools/iris-api/pkg/cmp"
	"github.com/ai-field-tools/iris-api/pkg/utils/rfctime"
)

type RegisterRequest struct {
	Username string  `json:"username"`
	Email    string  `json:"email"`
	Password string  `json:"password"`
	FullName *string `json:"full_name,omitempty"`
}

type UserInfo struct {
	Id       int     `json:"id"`
	Username string  `json:"username"`
	Email    string  `json:"email"`
	FullName *string `json:"full_name,omitempty"`
	IsActive bool    `json:"is_active"`

	CreatedAt rfctime.RFC3339  `json:"created_at"`
	LastLogin *rfctime.RFC3339 `json:"last_login,omitempty"`
}

func (u UserInfo) Equal(o UserInfo) bool {
	return u.Id == o.Id &&
		u.Username == o.Username &&
		u.Email == o.Email &&
		cmp.PEqEq(u.FullName, o.FullName) &&
		u.IsActive == o.IsActive &&
		u.CreatedAt.Equal(o.CreatedAt) &&
		cmp.PEqualWith(u.LastLogin, o.LastLogin, rfctime.RFC3339.Equal)
}

type UserUpdate struct {
	Username *string `json:"username,omitempty"`
	Email    *string `json:"email,omitempty"`
	FullName *string `json:"full_name,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
}

// one page of users. Total ignores paging.
type Page struct {
	Items []UserInfo `json:"items"`
	Total int        `json:"total"`
}

func (p Page) Equal(o Page) bool {
	return p.Total == o.Total &&
		cmp.SliceEqWith(p.Items, o.Items, UserInfo.Equal)
}

// credentials for login. Username may also be the email address.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	TokenType    string   `json:"token_type"`
	ExpiresIn    int      `json:"expires_in"`
	User         UserInfo `json:"user"`
}

func (l LoginResponse) Equal(o LoginResponse) bool {
	return l.AccessToken == o.AccessToken &&
		l.RefreshToken == o.RefreshToken &&
		l.TokenType == o.TokenType &&
		l.ExpiresIn == o.ExpiresIn &&
		l.User.Equal(o.User)
}

type TokenRefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type TokenRefreshResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// Message is the body of operations which only report what they did
// (logout, password change, reset requests).
type Message struct {
	Message string `json:"message"`
}

type PasswordChangeRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

type PasswordResetRequest struct {
	Email string `json:"email"`
}

type PasswordResetConfirm struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// one login attempt as recorded.
type LoginRecord struct {
	At            rfctime.RFC3339 `json:"at"`
	Address       string          `json:"address,omitempty"`
	UserAgent     string          `json:"user_agent,omitempty"`
	Success       bool            `json:"success"`
	FailureReason *string         `json:"failure_reason,omitempty"`
}

func (l LoginRecord) Equal(o LoginRecord) bool {
	return l.At.Equal(o.At) &&
		l.Address == o.Address &&
		l.UserAgent == o.UserAgent &&
		l.Success == o.Success &&
		cmp.PEqEq(l.FailureReason, o.FailureReason)
}
