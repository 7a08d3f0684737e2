package mocks

import (
	"context"
	"errors"
	"time"

	kdb "github.com/ai-field-tools/iris-api/pkg/db"
)

type ResetInterface struct {
	Impl struct {
		New   func(context.Context, kdb.PasswordReset) error
		Use   func(context.Context, string, time.Time) (kdb.PasswordReset, error)
		Purge func(context.Context, time.Time) (int64, error)
	}
	Calls struct {
		New CallLog[kdb.PasswordReset]
		Use CallLog[struct {
			Token string
			At    time.Time
		}]
		Purge CallLog[time.Time]
	}
}

func NewResetInterface() *ResetInterface {
	return &ResetInterface{}
}

var _ kdb.ResetInterface = &ResetInterface{}

func (m *ResetInterface) New(ctx context.Context, reset kdb.PasswordReset) error {
	m.Calls.New = append(m.Calls.New, reset)
	if m.Impl.New != nil {
		return m.Impl.New(ctx, reset)
	}
	panic(errors.New("it should not be called"))
}

func (m *ResetInterface) Use(ctx context.Context, token string, at time.Time) (kdb.PasswordReset, error) {
	m.Calls.Use = append(m.Calls.Use, struct {
		Token string
		At    time.Time
	}{Token: token, At: at})
	if m.Impl.Use != nil {
		return m.Impl.Use(ctx, token, at)
	}
	panic(errors.New("it should not be called"))
}

func (m *ResetInterface) Purge(ctx context.Context, now time.Time) (int64, error) {
	m.Calls.Purge = append(m.Calls.Purge, now)
	if m.Impl.Purge != nil {
		return m.Impl.Purge(ctx, now)
	}
	panic(errors.New("it should not be called"))
}
