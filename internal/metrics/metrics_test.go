package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserve(t *testing.T) {
	before := testutil.ToFloat64(SoftFailuresTotal.WithLabelValues("decrypt", "cipher_error"))
	beforeOps := testutil.ToFloat64(OperationsTotal.WithLabelValues("decrypt", OutcomeSoftFailure))

	ObserveSoftFailure("decrypt", "cipher_error")

	assert.Equal(t, before+1, testutil.ToFloat64(SoftFailuresTotal.WithLabelValues("decrypt", "cipher_error")))
	assert.Equal(t, beforeOps+1, testutil.ToFloat64(OperationsTotal.WithLabelValues("decrypt", OutcomeSoftFailure)))

	okBefore := testutil.ToFloat64(OperationsTotal.WithLabelValues("encrypt", OutcomeOK))
	ObserveOK("encrypt")
	assert.Equal(t, okBefore+1, testutil.ToFloat64(OperationsTotal.WithLabelValues("encrypt", OutcomeOK)))

	errBefore := testutil.ToFloat64(OperationsTotal.WithLabelValues("protect", OutcomeError))
	ObserveError("protect")
	assert.Equal(t, errBefore+1, testutil.ToFloat64(OperationsTotal.WithLabelValues("protect", OutcomeError)))
}

func TestRegistryIsSingleton(t *testing.T) {
	assert.Same(t, Registry(), Registry())
}

func TestWriteTextfile(t *testing.T) {
	ObserveOK("encrypt")

	path := filepath.Join(t.TempDir(), "credseal.prom")
	require.NoError(t, WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "credseal_operations_total"))
}
