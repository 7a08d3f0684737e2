package mocks

import (
	"context"
	"errors"
	"time"

	kdb "github.com/ai-field-tools/iris-api/pkg/db"
)

type LoginInterface struct {
	Impl struct {
		Record              func(context.Context, kdb.LoginRecord) error
		CountRecentFailures func(context.Context, string, time.Time) (int, error)
		FindByUser          func(context.Context, int, int, int) ([]kdb.LoginRecord, error)
	}
	Calls struct {
		Record              CallLog[kdb.LoginRecord]
		CountRecentFailures CallLog[struct {
			UserName string
			Since    time.Time
		}]
		FindByUser CallLog[struct {
			UserId int
			Skip   int
			Limit  int
		}]
	}
}

func NewLoginInterface() *LoginInterface {
	return &LoginInterface{}
}

var _ kdb.LoginInterface = &LoginInterface{}

func (m *LoginInterface) Record(ctx context.Context, record kdb.LoginRecord) error {
	m.Calls.Record = append(m.Calls.Record, record)
	if m.Impl.Record != nil {
		return m.Impl.Record(ctx, record)
	}
	panic(errors.New("it should not be called"))
}

func (m *LoginInterface) CountRecentFailures(ctx context.Context, username string, since time.Time) (int, error) {
	m.Calls.CountRecentFailures = append(m.Calls.CountRecentFailures, struct {
		UserName string
		Since    time.Time
	}{UserName: username, Since: since})
	if m.Impl.CountRecentFailures != nil {
		return m.Impl.CountRecentFailures(ctx, username, since)
	}
	panic(errors.New("it should not be called"))
}

func (m *LoginInterface) FindByUser(ctx context.Context, userId int, skip int, limit int) ([]kdb.LoginRecord, error) {
	m.Calls.FindByUser = append(m.Calls.FindByUser, struct {
		UserId int
		Skip   int
		Limit  int
	}{UserId: userId, Skip: skip, Limit: limit})
	if m.Impl.FindByUser != nil {
		return m.Impl.FindByUser(ctx, userId, skip, limit)
	}
	panic(errors.New("it should not be called"))
}
