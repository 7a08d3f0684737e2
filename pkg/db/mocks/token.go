package mocks

import (
	"context"
	"errors"
	"time"

	kdb "github.com/ai-field-tools/iris-api/pkg/db"
)

type TokenInterface struct {
	Impl struct {
		AddRefresh          func(context.Context, kdb.RefreshToken) error
		GetRefresh          func(context.Context, string) (kdb.RefreshToken, error)
		RevokeRefresh       func(context.Context, string) error
		RevokeRefreshByUser func(context.Context, int) error
		Blacklist           func(context.Context, string, time.Time) error
		IsBlacklisted       func(context.Context, string) (bool, error)
		PurgeBlacklist      func(context.Context, time.Time) (int64, error)
	}
	Calls struct {
		AddRefresh          CallLog[kdb.RefreshToken]
		GetRefresh          CallLog[string]
		RevokeRefresh       CallLog[string]
		RevokeRefreshByUser CallLog[int]
		Blacklist           CallLog[struct {
			Jti       string
			ExpiresAt time.Time
		}]
		IsBlacklisted  CallLog[string]
		PurgeBlacklist CallLog[time.Time]
	}
}

func NewTokenInterface() *TokenInterface {
	return &TokenInterface{}
}

var _ kdb.TokenInterface = &TokenInterface{}

func (m *TokenInterface) AddRefresh(ctx context.Context, token kdb.RefreshToken) error {
	m.Calls.AddRefresh = append(m.Calls.AddRefresh, token)
	if m.Impl.AddRefresh != nil {
		return m.Impl.AddRefresh(ctx, token)
	}
	panic(errors.New("it should not be called"))
}

func (m *TokenInterface) GetRefresh(ctx context.Context, jti string) (kdb.RefreshToken, error) {
	m.Calls.GetRefresh = append(m.Calls.GetRefresh, jti)
	if m.Impl.GetRefresh != nil {
		return m.Impl.GetRefresh(ctx, jti)
	}
	panic(errors.New("it should not be called"))
}

func (m *TokenInterface) RevokeRefresh(ctx context.Context, jti string) error {
	m.Calls.RevokeRefresh = append(m.Calls.RevokeRefresh, jti)
	if m.Impl.RevokeRefresh != nil {
		return m.Impl.RevokeRefresh(ctx, jti)
	}
	panic(errors.New("it should not be called"))
}

func (m *TokenInterface) RevokeRefreshByUser(ctx context.Context, userId int) error {
	m.Calls.RevokeRefreshByUser = append(m.Calls.RevokeRefreshByUser, userId)
	if m.Impl.RevokeRefreshByUser != nil {
		return m.Impl.RevokeRefreshByUser(ctx, userId)
	}
	panic(errors.New("it should not be called"))
}

func (m *TokenInterface) Blacklist(ctx context.Context, jti string, expiresAt time.Time) error {
	m.Calls.Blacklist = append(m.Calls.Blacklist, struct {
		Jti       string
		ExpiresAt time.Time
	}{Jti: jti, ExpiresAt: expiresAt})
	if m.Impl.Blacklist != nil {
		return m.Impl.Blacklist(ctx, jti, expiresAt)
	}
	panic(errors.New("it should not be called"))
}

func (m *TokenInterface) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	m.Calls.IsBlacklisted = append(m.Calls.IsBlacklisted, jti)
	if m.Impl.IsBlacklisted != nil {
		return m.Impl.IsBlacklisted(ctx, jti)
	}
	panic(errors.New("it should not be called"))
}

func (m *TokenInterface) PurgeBlacklist(ctx context.Context, now time.Time) (int64, error) {
	m.Calls.PurgeBlacklist = append(m.Calls.PurgeBlacklist, now)
	if m.Impl.PurgeBlacklist != nil {
		return m.Impl.PurgeBlacklist(ctx, now)
	}
	panic(errors.New("it should not be called"))
}
