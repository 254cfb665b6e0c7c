package game

import (
	"errors"
	"fmt"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	ErrIllegalTurn           = errors.New("illegal turn")
	ErrDecisionPending       = fmt.Errorf("%w: decision pending", ErrIllegalTurn)
	ErrInsufficientResources = errors.New("insufficient resources")
	ErrInvalidTarget         = errors.New("invalid target")
	ErrInvalidDecision       = errors.New("invalid decision")
	ErrLocationFull          = errors.New("location full")
	ErrCardNotFound          = errors.New("card not found")
	// ErrDeckExhausted is informational: draws from an empty deck and
	// discard yield fewer cards instead of failing.
	ErrDeckExhausted = errors.New("deck exhausted")
	ErrGameOver      = errors.New("game over")
	ErrUnknownPlayer = errors.New("unknown player")
	ErrUnknownAction = errors.New("unknown action")
	ErrGameNotFound  = errors.New("game not found")
)

// Code is a stable, transport-friendly reason for a rejected action.
type Code string

const (
	CodeOK                    Code = "OK"
	CodeIllegalTurn           Code = "ILLEGAL_TURN"
	CodeDecisionPending       Code = "DECISION_PENDING"
	CodeInsufficientResources Code = "INSUFFICIENT_RESOURCES"
	CodeInvalidTarget         Code = "INVALID_TARGET"
	CodeInvalidDecision       Code = "INVALID_DECISION"
	CodeLocationFull          Code = "LOCATION_FULL"
	CodeCardNotFound          Code = "CARD_NOT_FOUND"
	CodeDeckExhausted         Code = "DECK_EXHAUSTED"
	CodeGameOver              Code = "GAME_OVER"
	CodeUnknownPlayer         Code = "UNKNOWN_PLAYER"
	CodeUnknownAction         Code = "UNKNOWN_ACTION"
	CodeGameNotFound          Code = "GAME_NOT_FOUND"
	CodeInternal              Code = "INTERNAL"
)

// reasons is checked in order; ErrDecisionPending wraps ErrIllegalTurn and
// must come first.
var reasons = []struct {
	err  error
	code Code
	grpc codes.Code
}{
	{ErrDecisionPending, CodeDecisionPending, codes.FailedPrecondition},
	{ErrIllegalTurn, CodeIllegalTurn, codes.FailedPrecondition},
	{ErrInsufficientResources, CodeInsufficientResources, codes.FailedPrecondition},
	{ErrInvalidTarget, CodeInvalidTarget, codes.InvalidArgument},
	{ErrInvalidDecision, CodeInvalidDecision, codes.InvalidArgument},
	{ErrLocationFull, CodeLocationFull, codes.FailedPrecondition},
	{ErrCardNotFound, CodeCardNotFound, codes.NotFound},
	{ErrDeckExhausted, CodeDeckExhausted, codes.OutOfRange},
	{ErrGameOver, CodeGameOver, codes.FailedPrecondition},
	{ErrUnknownPlayer, CodeUnknownPlayer, codes.NotFound},
	{ErrUnknownAction, CodeUnknownAction, codes.InvalidArgument},
	{ErrGameNotFound, CodeGameNotFound, codes.NotFound},
}

// ReasonCode maps err to its reason code. A nil error is CodeOK and any
// error outside the game's sentinels is CodeInternal.
func ReasonCode(err error) Code {
	if err == nil {
		return CodeOK
	}
	for _, r := range reasons {
		if errors.Is(err, r.err) {
			return r.code
		}
	}
	return CodeInternal
}

func grpcCode(err error) codes.Code {
	for _, r := range reasons {
		if errors.Is(err, r.err) {
			return r.grpc
		}
	}
	return codes.Internal
}

// ActionError is returned by Apply. It keeps the underlying error for
// errors.Is and carries the reason code for callers and transports.
type ActionError struct {
	Code     Code
	Action   ActionType
	PlayerID int
	Err      error
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("%s by player %d rejected (%s): %v", e.Action, e.PlayerID, e.Code, e.Err)
}

func (e *ActionError) Unwrap() error {
	return e.Err
}

// GRPCStatus lets status.FromError surface the rejection unchanged.
func (e *ActionError) GRPCStatus() *status.Status {
	st := status.New(grpcCode(e.Err), e.Err.Error())
	detailed, err := st.WithDetails(&errdetails.ErrorInfo{
		Reason: string(e.Code),
		Domain: "imperium",
		Metadata: map[string]string{
			"action":    string(e.Action),
			"player_id": fmt.Sprint(e.PlayerID),
		},
	})
	if err != nil {
		return st
	}
	return detailed
}

func newActionError(playerID int, action ActionType, err error) error {
	if err == nil {
		return nil
	}
	var ae *ActionError
	if errors.As(err, &ae) {
		return err
	}
	return &ActionError{Code: ReasonCode(err), Action: action, PlayerID: playerID, Err: err}
}
