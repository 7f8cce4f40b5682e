package loyalty

import (
	"encoding/hex"
	"math/big"

	"domaauction/core/types"
)

const (
	EventTypeMinted               = "loyalty.nft.minted"
	EventTypeOwnershipTransferred = "loyalty.ownership.transferred"
)

func newMintedEvent(tokenID *big.Int, to [20]byte) *types.Event {
	return &types.Event{Type: EventTypeMinted, Attributes: map[string]string{
		"tokenId":   tokenID.String(),
		"recipient": hex.EncodeToString(to[:]),
	}}
}

func newOwnershipTransferredEvent(previous, next [20]byte) *types.Event {
	return &types.Event{Type: EventTypeOwnershipTransferred, Attributes: map[string]string{
		"previousOwner": hex.EncodeToString(previous[:]),
		"newOwner":      hex.EncodeToString(next[:]),
	}}
}
