package registry

import (
	"encoding/hex"
	"math/big"
	"strconv"

	"domaauction/core/types"
)

const (
	EventTypeMinted         = "registry.minted"
	EventTypeApproval       = "registry.approval"
	EventTypeApprovalForAll = "registry.approval_for_all"
	EventTypeTransfer       = "registry.transfer"
)

func addrAttr(addr [20]byte) string { return hex.EncodeToString(addr[:]) }

func newMintedEvent(d *Domain) *types.Event {
	return &types.Event{Type: EventTypeMinted, Attributes: map[string]string{
		"tokenId": d.TokenID.String(),
		"owner":   addrAttr(d.Owner),
		"name":    d.Name,
	}}
}

func newApprovalEvent(tokenID *big.Int, owner, spender [20]byte) *types.Event {
	return &types.Event{Type: EventTypeApproval, Attributes: map[string]string{
		"tokenId": tokenID.String(),
		"owner":   addrAttr(owner),
		"spender": addrAttr(spender),
	}}
}

func newApprovalForAllEvent(owner, operator [20]byte, approved bool) *types.Event {
	return &types.Event{Type: EventTypeApprovalForAll, Attributes: map[string]string{
		"owner":    addrAttr(owner),
		"operator": addrAttr(operator),
		"approved": strconv.FormatBool(approved),
	}}
}

func newTransferEvent(tokenID *big.Int, from, to, operator [20]byte) *types.Event {
	return &types.Event{Type: EventTypeTransfer, Attributes: map[string]string{
		"tokenId":  tokenID.String(),
		"from":     addrAttr(from),
		"to":       addrAttr(to),
		"operator": addrAttr(operator),
	}}
}
