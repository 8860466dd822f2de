package voting

import "errors"

var (
	ErrUninitialized         = errors.New("voting not initialized")
	ErrAlreadyInitialized    = errors.New("voting already initialized")
	ErrPetrified             = errors.New("voting template is petrified")
	ErrUnauthorized          = errors.New("sender not authorized")
	ErrProposalNotFound      = errors.New("proposal not found")
	ErrProposalNotOpen       = errors.New("proposal not open")
	ErrProposalExecuted      = errors.New("proposal already executed")
	ErrProposalExecuting     = errors.New("proposal execution in progress")
	ErrNoVotingPower         = errors.New("no voting power")
	ErrNotAVoter             = errors.New("not a voter")
	ErrInsufficientBalance   = errors.New("insufficient voting balance")
	ErrThresholdsNotMet      = errors.New("support or quorum not met")
	ErrZeroEligibleSupply    = errors.New("zero eligible supply")
	ErrActionExecutionFailed = errors.New("action execution failed")
	ErrMalformedScript       = errors.New("malformed script")
	ErrScriptMismatch        = errors.New("script does not match commitment")
	ErrInvalidDelegate       = errors.New("invalid delegate")
	ErrZeroUnits             = errors.New("zero voting units")
	ErrInvalidParams         = errors.New("invalid voting params")
	ErrUnsupportedInMode     = errors.New("operation unsupported in voting mode")
	ErrArithmeticOverflow    = errors.New("arithmetic overflow")
)
