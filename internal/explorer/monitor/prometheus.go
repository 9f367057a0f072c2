package monitor

import "github.com/prometheus/client_golang/prometheus"

var (
	// RPCRequests JSON-RPC 调用相关
	RPCRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rpc_requests_total",
			Help: "Total number of JSON-RPC requests by chain, method and outcome.",
		},
		[]string{"chain", "method", "outcome"},
	)
	RPCRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rpc_request_duration_seconds",
			Help:    "Time from dispatch to decoded JSON-RPC response.",
			Buckets: []float64{0.05, 0.1, 0.2, 0.5, 1.0, 2.0, 5.0, 15.0},
		},
		[]string{"chain", "method"},
	)
	RPCPacingWait = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rpc_pacing_wait_seconds",
			Help:    "Time a request waited at the pacing gate before dispatch.",
			Buckets: []float64{0, 0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0},
		},
		[]string{"chain"},
	)

	// Resolutions 查询结果
	Resolutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resolutions_total",
			Help: "Total number of resolutions by entity kind and result.",
		},
		[]string{"kind", "result"},
	)
	DecodeDegradations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "decode_degradations_total",
			Help: "Fields that fell back to a default value during resolution.",
		},
		[]string{"chain", "field"},
	)
)

func init() {
	prometheus.MustRegister(
		// rpc指标
		RPCRequests,
		RPCRequestDuration,
		RPCPacingWait,

		// 解析指标
		Resolutions,
		DecodeDegradations,
	)
}
