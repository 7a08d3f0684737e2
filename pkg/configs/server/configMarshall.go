package server

import (
	"fmt"
	"time"
)

type Marshalled[S any] interface {
	trySeal(string) S
}

// seal marshalled object.
//
// this function CAN CAUSE PANIC if misconfiguration is found.
//
// All types named `pkg/configs/server.XxxMarshall` are `Marshalled[*Xxx]` .
func TrySeal[S any](conf Marshalled[S]) S {
	return conf.trySeal("(root)")
}

type ServerConfigMarshall struct {
	Port  string               `yaml:"port"`
	DBURI string               `yaml:"dbURI"`
	Model *ModelConfigMarshall `yaml:"model"`
	Auth  *AuthConfigMarshall  `yaml:"auth"`
}

var _ Marshalled[*ServerConfig] = &ServerConfigMarshall{}

func (s *ServerConfigMarshall) trySeal(path string) *ServerConfig {
	return &ServerConfig{
		port:  required(s.Port, path+".port"),
		dbURI: required(s.DBURI, path+".dbURI"),
		model: nonnil(s.Model, path+".model").trySeal(path + ".model"),
		auth:  nonnil(s.Auth, path+".auth").trySeal(path + ".auth"),
	}
}

type ModelConfigMarshall struct {
	Path string `yaml:"path"`
}

func (m *ModelConfigMarshall) trySeal(path string) *ModelConfig {
	return &ModelConfig{
		path: required(m.Path, path+".path"),
	}
}

// Configuration of tokens and login protection.
//
// This type is marshalling value and mutable.
// Consider to use immutable version, `AuthConfig`.
// You can get `AuthConfig` instance with `ServerConfigMarshall.TrySeal()`
type AuthConfigMarshall struct {
	SecretKey           string `yaml:"secretKey"`
	AccessTokenExpiry   string `yaml:"accessTokenExpiry,omitempty"`
	RefreshTokenExpiry  string `yaml:"refreshTokenExpiry,omitempty"`
	PasswordResetExpiry string `yaml:"passwordResetExpiry,omitempty"`
	MaxLoginFailures    int    `yaml:"maxLoginFailures,omitempty"`
	ThrottleWindow      string `yaml:"throttleWindow,omitempty"`
	LockDuration        string `yaml:"lockDuration,omitempty"`
}

func (a *AuthConfigMarshall) trySeal(path string) *AuthConfig {
	maxFailures := a.MaxLoginFailures
	if maxFailures == 0 {
		maxFailures = 5
	}
	return &AuthConfig{
		secretKey:           required(a.SecretKey, path+".secretKey"),
		accessTokenExpiry:   duration(a.AccessTokenExpiry, "15m", path+".accessTokenExpiry"),
		refreshTokenExpiry:  duration(a.RefreshTokenExpiry, "168h", path+".refreshTokenExpiry"),
		passwordResetExpiry: duration(a.PasswordResetExpiry, "1h", path+".passwordResetExpiry"),
		maxLoginFailures:    maxFailures,
		throttleWindow:      duration(a.ThrottleWindow, "15m", path+".throttleWindow"),
		lockDuration:        duration(a.LockDuration, "30m", path+".lockDuration"),
	}
}

func duration(v string, defaultValue string, path string) time.Duration {
	if v == "" {
		v = defaultValue
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		panic(fmt.Errorf("%s can not be parsed: %w", path, err))
	}
	if d <= 0 {
		panic(path + " should be positive")
	}
	return d
}

func nonnil[T any](v *T, path string) *T {
	if v == nil {
		panic(path + " is required")
	}
	return v
}

func required[T comparable](v T, path string) T {
	if v == *new(T) {
		panic(path + " is required")
	}
	return v
}
