package auth

import (
	"errors"
	"fmt"
)

// Stage names the step of the exchange that failed
type Stage string

const (
	StageTokenExchange Stage = "token_exchange"
	StageProfileFetch  Stage = "profile_fetch"
	StageGuildFetch    Stage = "guild_fetch"
)

var (
	ErrTokenExchange = errors.New("token exchange failed")
	ErrProfileFetch  = errors.New("profile fetch failed")
	ErrGuildFetch    = errors.New("guild fetch failed")
)

// ExchangeError carries the upstream status and body of a failed step for
// the operator log. It is never shown to the end user.
type ExchangeError struct {
	Stage  Stage
	Status int
	Body   string
	Err    error
}

func (e *ExchangeError) Error() string {
	msg := e.sentinel().Error()
	switch {
	case e.Status != 0 && e.Body != "":
		return fmt.Sprintf("%s: status %d: %s", msg, e.Status, e.Body)
	case e.Status != 0:
		return fmt.Sprintf("%s: status %d", msg, e.Status)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap exposes both the stage sentinel and the cause to errors.Is/As
func (e *ExchangeError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.sentinel()}
	}
	return []error{e.sentinel(), e.Err}
}

func (e *ExchangeError) sentinel() error {
	switch e.Stage {
	case StageTokenExchange:
		return ErrTokenExchange
	case StageProfileFetch:
		return ErrProfileFetch
	default:
		return ErrGuildFetch
	}
}
