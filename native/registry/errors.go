package registry

import "errors"

var (
	ErrUnauthorized   = errors.New("registry: unauthorized")
	ErrTokenNotFound  = errors.New("registry: token not found")
	ErrTokenExists    = errors.New("registry: token already minted")
	ErrInvalidAddress = errors.New("registry: invalid address")
	ErrInvalidToken   = errors.New("registry: invalid token id")
	ErrNotOwner       = errors.New("registry: from address is not the owner")
	ErrNotApproved    = errors.New("registry: operator not approved")
	ErrSelfApproval   = errors.New("registry: cannot approve the current owner")
	ErrInvalidName    = errors.New("registry: invalid domain name")
	ErrNameTaken      = errors.New("registry: domain name already registered")
	errNilState       = errors.New("registry: state not configured")
)
