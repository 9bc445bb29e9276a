package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mezonai/utxochain/logx"
)

type TxRejectedReason string

var (
	TxInvalidSignature    TxRejectedReason = "invalid_signature"
	TxMissingPrevTx       TxRejectedReason = "missing_prev_tx"
	TxInsufficientBalance TxRejectedReason = "insufficient_balance"
	TxRejectedUnknown     TxRejectedReason = "other"
)

type ledgerPromMetrics struct {
	nodeUpUnixSeconds prometheus.Gauge
	blocksMined       prometheus.Counter
	hashAttempts      prometheus.Histogram
	miningDuration    prometheus.Histogram
	blockHeight       prometheus.Gauge
	txInBlock         prometheus.Histogram
	rejectedTxCount   *prometheus.CounterVec
	utxoReindexCount  prometheus.Counter
	panicCount        prometheus.Counter
}

func newLedgerPromMetrics() *ledgerPromMetrics {
	return &ledgerPromMetrics{
		nodeUpUnixSeconds: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "utxochain_up_timestamp_unix_seconds",
				Help: "Unix timestamp of the process start",
			},
		),
		blocksMined: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "utxochain_blocks_mined_total",
				Help: "The total number of blocks mined by this process",
			},
		),
		hashAttempts: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "utxochain_pow_hash_attempts",
				Help:    "Number of nonces tried before a block met the difficulty target",
				Buckets: prometheus.ExponentialBuckets(1024, 2, 10),
			},
		),
		miningDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name: "utxochain_pow_duration_seconds",
				Help: "Wall time spent searching for a nonce",
			},
		),
		blockHeight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "utxochain_block_height",
				Help: "The current chain height",
			},
		),
		txInBlock: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name: "utxochain_tx_in_block",
				Help: "Number of tx in block",
			},
		),
		rejectedTxCount: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "utxochain_rejected_tx_count",
				Help: "The total number of rejected transactions",
			},
			[]string{"reason"},
		),
		utxoReindexCount: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "utxochain_utxo_reindex_total",
				Help: "The total number of full UTXO index rebuilds",
			},
		),
		panicCount: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "utxochain_panic_total",
				Help: "The total number of recovered panics",
			},
		),
	}
}

var ledgerMetrics = newLedgerPromMetrics()

func init() {
	ledgerMetrics.nodeUpUnixSeconds.SetToCurrentTime()
}

func RegisterMetrics(mux *http.ServeMux) {
	logx.Info("MONITORING", "Registering prometheus metrics")
	mux.Handle("/metrics", promhttp.Handler())
}

// Serve exposes /metrics on addr and blocks until the server stops
func Serve(addr string) error {
	mux := http.NewServeMux()
	RegisterMetrics(mux)
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return srv.ListenAndServe()
}

func RecordMinedBlock(attempts int64, duration time.Duration, txCount int) {
	ledgerMetrics.blocksMined.Inc()
	ledgerMetrics.hashAttempts.Observe(float64(attempts))
	ledgerMetrics.miningDuration.Observe(duration.Seconds())
	ledgerMetrics.txInBlock.Observe(float64(txCount))
}

func SetBlockHeight(blockHeight int32) {
	ledgerMetrics.blockHeight.Set(float64(blockHeight))
}

func RecordRejectedTx(reason TxRejectedReason) {
	ledgerMetrics.rejectedTxCount.With(prometheus.Labels{
		"reason": string(reason),
	}).Inc()
}

func IncreaseReindexCount() {
	ledgerMetrics.utxoReindexCount.Inc()
}

func IncreasePanicCount() {
	ledgerMetrics.panicCount.Inc()
}
