package users

import (
	apiauth "github.com/ai-field-tools/iris-api/pkg/api/types/auth"
	kdb "github.com/ai-field-tools/iris-api/pkg/db"
	"github.com/ai-field-tools/iris-api/pkg/utils/pointer"
	"github.com/ai-field-tools/iris-api/pkg/utils/rfctime"
)

// ComposeDetail builds the wire representation of a user.
//
// The password hash never leaves here.
func ComposeDetail(u kdb.User) apiauth.UserInfo {
	info := apiauth.UserInfo{
		Id:        u.Id,
		Username:  u.UserName,
		Email:     u.Email,
		IsActive:  u.IsActive,
		CreatedAt: rfctime.New(u.CreatedAt),
	}
	if u.FullName != "" {
		info.FullName = pointer.Ref(u.FullName)
	}
	if u.LastLogin != nil {
		info.LastLogin = pointer.Ref(rfctime.New(*u.LastLogin))
	}
	return info
}

func ComposeLoginRecord(r kdb.LoginRecord) apiauth.LoginRecord {
	rec := apiauth.LoginRecord{
		At:        rfctime.New(r.CreatedAt),
		Address:   r.RemoteAddr,
		UserAgent: r.UserAgent,
		Success:   r.Success,
	}
	if !r.Success && r.Reason != "" {
		rec.FailureReason = pointer.Ref(r.Reason)
	}
	return rec
}
