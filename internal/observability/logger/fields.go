package logger

import (
	"time"

	"go.uber.org/zap"
)

// HTTP

func RequestID(v string) zap.Field { return zap.String("request_id", v) }
func Method(v string) zap.Field    { return zap.String("method", v) }
func Path(v string) zap.Field      { return zap.String("path", v) }
func Status(v int) zap.Field       { return zap.Int("status", v) }
func Bytes(v int) zap.Field        { return zap.Int("bytes", v) }
func ClientIP(v string) zap.Field  { return zap.String("client_ip", v) }

// DurationMs logs a duration in milliseconds.
func DurationMs(d time.Duration) zap.Field { return zap.Int64("duration_ms", d.Milliseconds()) }

// Authentication flow

func Provider(v string) zap.Field { return zap.String("provider", v) }

// Step is the callback state reached when the entry was written.
func Step(v string) zap.Field { return zap.String("step", v) }

// Login is the normalized (provider-namespaced) login.
func Login(v string) zap.Field { return zap.String("login", v) }

// Email must be given an already masked value.
func Email(v string) zap.Field { return zap.String("email", v) }

func UserID(v string) zap.Field   { return zap.String("user_id", v) }
func Endpoint(v string) zap.Field { return zap.String("endpoint", v) }

// System

func Component(v string) zap.Field { return zap.String("component", v) }
func Layer(v string) zap.Field     { return zap.String("layer", v) }
func Op(v string) zap.Field        { return zap.String("op", v) }
func Err(err error) zap.Field      { return zap.Error(err) }

// Generic

func String(key, v string) zap.Field    { return zap.String(key, v) }
func Bool(key string, v bool) zap.Field { return zap.Bool(key, v) }
func Int(key string, v int) zap.Field   { return zap.Int(key, v) }
func Any(key string, v any) zap.Field   { return zap.Any(key, v) }
