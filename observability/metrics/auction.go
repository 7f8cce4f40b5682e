package metrics

import (
	"math"
	"math/big"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"domaauction/core/events"
	"domaauction/native/auction"
)

// AuctionMetrics derives auction house metrics from committed events. It is an
// events.Emitter so it can sit in the node's fanout.
type AuctionMetrics struct {
	events        *prometheus.CounterVec
	clearingPrice prometheus.Histogram
	bondVolume    *prometheus.CounterVec
	feesCollected prometheus.Counter
	loyalty       *prometheus.CounterVec
}

var (
	auctionOnce     sync.Once
	auctionRegistry *AuctionMetrics
)

func Auction() *AuctionMetrics {
	auctionOnce.Do(func() {
		auctionRegistry = &AuctionMetrics{
			events: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "auction",
				Name:      "events_total",
				Help:      "Count of committed events by type.",
			}, []string{"type"}),
			clearingPrice: prometheus.NewHistogram(prometheus.HistogramOpts{
				Namespace: "auction",
				Name:      "clearing_price_ether",
				Help:      "Clearing price of settled lots in ether.",
				Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
			}),
			bondVolume: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "auction",
				Name:      "bond_volume_ether_total",
				Help:      "Bond value moved in ether segmented by ledger outcome.",
			}, []string{"outcome"}),
			feesCollected: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "auction",
				Name:      "protocol_fees_ether_total",
				Help:      "Protocol fees paid to the fee treasury in ether.",
			}),
			loyalty: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "auction",
				Name:      "loyalty_rewards_total",
				Help:      "Loyalty NFT rewards segmented by outcome.",
			}, []string{"outcome"}),
		}
		prometheus.MustRegister(
			auctionRegistry.events,
			auctionRegistry.clearingPrice,
			auctionRegistry.bondVolume,
			auctionRegistry.feesCollected,
			auctionRegistry.loyalty,
		)
	})
	return auctionRegistry
}

// Emit implements events.Emitter.
func (m *AuctionMetrics) Emit(evt events.Event) {
	if m == nil || evt == nil {
		return
	}
	m.events.WithLabelValues(evt.EventType()).Inc()
	payload, ok := events.Payload(evt)
	if !ok {
		return
	}
	attrs := payload.Attributes
	switch payload.Type {
	case auction.EventTypeLotSettled:
		m.clearingPrice.Observe(weiToEther(attrs["clearingPrice"]))
		m.feesCollected.Add(weiToEther(attrs["fee"]))
	case auction.EventTypeBondDeposited, auction.EventTypeBondRefunded,
		auction.EventTypeBondForfeited, auction.EventTypeBondApplied:
		outcome := payload.Type[strings.LastIndex(payload.Type, ".")+1:]
		m.bondVolume.WithLabelValues(outcome).Add(weiToEther(attrs["amount"]))
	case auction.EventTypeLoyaltyRewarded:
		m.loyalty.WithLabelValues("rewarded").Inc()
	case auction.EventTypeLoyaltySkipped:
		m.loyalty.WithLabelValues("skipped").Inc()
	}
}

func weiToEther(raw string) float64 {
	wei, ok := new(big.Int).SetString(strings.TrimSpace(raw), 10)
	if !ok || wei.Sign() < 0 {
		return 0
	}
	ether, _ := new(big.Float).Quo(new(big.Float).SetInt(wei), big.NewFloat(1e18)).Float64()
	if math.IsNaN(ether) || math.IsInf(ether, 0) {
		return 0
	}
	return ether
}
