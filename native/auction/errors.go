package auction

import "errors"

var (
	ErrInsufficientBond      = errors.New("auction: insufficient bond")
	ErrLotNotAcceptingBonds  = errors.New("auction: lot not accepting bonds")
	ErrLotNotActive          = errors.New("auction: lot not active")
	ErrLotExpired            = errors.New("auction: lot expired")
	ErrBidBelowClearingPrice = errors.New("auction: bid below clearing price")
	ErrNothingToRefund       = errors.New("auction: nothing to refund")
	ErrLotStillActive        = errors.New("auction: lot still active")
	ErrNotSeller             = errors.New("auction: caller is not the seller")
	ErrAlreadySettled        = errors.New("auction: lot already settled")

	ErrLotNotFound         = errors.New("auction: lot not found")
	ErrInvalidLot          = errors.New("auction: invalid lot")
	ErrInvalidAmount       = errors.New("auction: invalid amount")
	ErrHardBidPending      = errors.New("auction: hard bid commitment pending")
	ErrNoCommitment        = errors.New("auction: no hard bid commitment")
	ErrCommitmentsDisabled = errors.New("auction: hard bid commitments disabled")
	ErrBidderBarred        = errors.New("auction: bidder forfeited a bond on this lot")
	ErrSellerCannotBid     = errors.New("auction: seller cannot bid on own lot")
	ErrInsufficientFunds   = errors.New("auction: insufficient funds")

	errNilState    = errors.New("auction engine: state not configured")
	errNilRegistry = errors.New("auction engine: ownership registry not configured")
)
