package mocks

import (
	"context"
	"errors"
	"time"

	kdb "github.com/ai-field-tools/iris-api/pkg/db"
)

type UserInterface struct {
	Impl struct {
		Register     func(context.Context, kdb.UserSpec) (kdb.User, error)
		Get          func(context.Context, int) (kdb.User, error)
		GetByName    func(context.Context, string) (kdb.User, error)
		Find         func(context.Context, kdb.UserFindQuery) ([]kdb.User, error)
		Count        func(context.Context, kdb.UserFindQuery) (int, error)
		Update       func(context.Context, int, kdb.UserDelta) (kdb.User, error)
		Delete       func(context.Context, int) error
		SetActive    func(context.Context, int, bool) (kdb.User, error)
		SetPassword  func(context.Context, int, string) error
		DidLogin     func(context.Context, int, time.Time) error
		DidFailLogin func(context.Context, int, time.Time, int, time.Duration) (bool, error)
	}
	Calls struct {
		Register  CallLog[kdb.UserSpec]
		Get       CallLog[int]
		GetByName CallLog[string]
		Find      CallLog[kdb.UserFindQuery]
		Count     CallLog[kdb.UserFindQuery]
		Update    CallLog[struct {
			Id    int
			Delta kdb.UserDelta
		}]
		Delete    CallLog[int]
		SetActive CallLog[struct {
			Id     int
			Active bool
		}]
		SetPassword CallLog[struct {
			Id             int
			HashedPassword string
		}]
		DidLogin CallLog[struct {
			Id int
			At time.Time
		}]
		DidFailLogin CallLog[struct {
			Id        int
			At        time.Time
			LockAfter int
			LockFor   time.Duration
		}]
	}
}

func NewUserInterface() *UserInterface {
	return &UserInterface{}
}

var _ kdb.UserInterface = &UserInterface{}

func (m *UserInterface) Register(ctx context.Context, spec kdb.UserSpec) (kdb.User, error) {
	m.Calls.Register = append(m.Calls.Register, spec)
	if m.Impl.Register != nil {
		return m.Impl.Register(ctx, spec)
	}
	panic(errors.New("it should not be called"))
}

func (m *UserInterface) Get(ctx context.Context, id int) (kdb.User, error) {
	m.Calls.Get = append(m.Calls.Get, id)
	if m.Impl.Get != nil {
		return m.Impl.Get(ctx, id)
	}
	panic(errors.New("it should not be called"))
}

func (m *UserInterface) GetByName(ctx context.Context, name string) (kdb.User, error) {
	m.Calls.GetByName = append(m.Calls.GetByName, name)
	if m.Impl.GetByName != nil {
		return m.Impl.GetByName(ctx, name)
	}
	panic(errors.New("it should not be called"))
}

func (m *UserInterface) Find(ctx context.Context, query kdb.UserFindQuery) ([]kdb.User, error) {
	m.Calls.Find = append(m.Calls.Find, query)
	if m.Impl.Find != nil {
		return m.Impl.Find(ctx, query)
	}
	panic(errors.New("it should not be called"))
}

func (m *UserInterface) Count(ctx context.Context, query kdb.UserFindQuery) (int, error) {
	m.Calls.Count = append(m.Calls.Count, query)
	if m.Impl.Count != nil {
		return m.Impl.Count(ctx, query)
	}
	panic(errors.New("it should not be called"))
}

func (m *UserInterface) Update(ctx context.Context, id int, delta kdb.UserDelta) (kdb.User, error) {
	m.Calls.Update = append(m.Calls.Update, struct {
		Id    int
		Delta kdb.UserDelta
	}{Id: id, Delta: delta})
	if m.Impl.Update != nil {
		return m.Impl.Update(ctx, id, delta)
	}
	panic(errors.New("it should not be called"))
}

func (m *UserInterface) Delete(ctx context.Context, id int) error {
	m.Calls.Delete = append(m.Calls.Delete, id)
	if m.Impl.Delete != nil {
		return m.Impl.Delete(ctx, id)
	}
	panic(errors.New("it should not be called"))
}

func (m *UserInterface) SetActive(ctx context.Context, id int, active bool) (kdb.User, error) {
	m.Calls.SetActive = append(m.Calls.SetActive, struct {
		Id     int
		Active bool
	}{Id: id, Active: active})
	if m.Impl.SetActive != nil {
		return m.Impl.SetActive(ctx, id, active)
	}
	panic(errors.New("it should not be called"))
}

func (m *UserInterface) SetPassword(ctx context.Context, id int, hashedPassword string) error {
	m.Calls.SetPassword = append(m.Calls.SetPassword, struct {
		Id             int
		HashedPassword string
	}{Id: id, HashedPassword: hashedPassword})
	if m.Impl.SetPassword != nil {
		return m.Impl.SetPassword(ctx, id, hashedPassword)
	}
	panic(errors.New("it should not be called"))
}

func (m *UserInterface) DidLogin(ctx context.Context, id int, at time.Time) error {
	m.Calls.DidLogin = append(m.Calls.DidLogin, struct {
		Id int
		At time.Time
	}{Id: id, At: at})
	if m.Impl.DidLogin != nil {
		return m.Impl.DidLogin(ctx, id, at)
	}
	panic(errors.New("it should not be called"))
}

func (m *UserInterface) DidFailLogin(ctx context.Context, id int, at time.Time, lockAfter int, lockFor time.Duration) (bool, error) {
	m.Calls.DidFailLogin = append(m.Calls.DidFailLogin, struct {
		Id        int
		At        time.Time
		LockAfter int
		LockFor   time.Duration
	}{Id: id, At: at, LockAfter: lockAfter, LockFor: lockFor})
	if m.Impl.DidFailLogin != nil {
		return m.Impl.DidFailLogin(ctx, id, at, lockAfter, lockFor)
	}
	panic(errors.New("it should not be called"))
}
