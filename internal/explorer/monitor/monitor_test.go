package monitor

import (
	"context"
	"testing"
	"time"

	"stablecoin-explorer/internal/explorer/config"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"
)

func TestRPCHooks(t *testing.T) {
	hooks := RPCHooks("test-chain")
	before := testutil.ToFloat64(RPCRequests.WithLabelValues("test-chain", "getSlot", "ok"))

	hooks.OnDispatch("getSlot", time.Now(), 10*time.Millisecond)
	hooks.OnDone("getSlot", "ok", 20*time.Millisecond)

	assert.Equal(t, before+1, testutil.ToFloat64(RPCRequests.WithLabelValues("test-chain", "getSlot", "ok")))
}

func TestDegraded(t *testing.T) {
	before := testutil.ToFloat64(DecodeDegradations.WithLabelValues("evm", "timestamp"))
	Degraded("evm", "timestamp")
	assert.Equal(t, before+1, testutil.ToFloat64(DecodeDegradations.WithLabelValues("evm", "timestamp")))
}

func TestMetricsServer_Disabled(t *testing.T) {
	s := NewMetricsServer(config.MonitorConfig{Enable: false}, zaptest.NewLogger(t))
	s.Run()
	assert.NoError(t, s.Stop(context.Background()))
}
