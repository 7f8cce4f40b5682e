package loyalty

import "errors"

var (
	ErrUnauthorized     = errors.New("loyalty: unauthorized")
	ErrNotDeployed      = errors.New("loyalty: minter not deployed")
	ErrAlreadyDeployed  = errors.New("loyalty: minter already deployed")
	ErrInvalidRecipient = errors.New("loyalty: invalid recipient")
	ErrTokenNotFound    = errors.New("loyalty: token not found")
	errNilState         = errors.New("loyalty: state not configured")
)
