package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sharedcode/idxstore/indexed"
)

type fixedStats []indexed.Stats

func (f fixedStats) Stats() []indexed.Stats { return f }

func TestCollector(t *testing.T) {
	src := fixedStats{
		{Name: "users", Shape: indexed.OneToOne, Size: 3, Keys: 3, Capacity: 11, LoadFactor: 3.0 / 11, Valid: true, Efficiency: 1, Relocations: 2},
		{Name: "packages", Shape: indexed.OneToMany, Size: 5, Keys: 2, Height: 2, BlackHeight: 1, Valid: false, Efficiency: 0.5},
	}
	c := NewCollector("test", src)

	// users: 8 series, packages: 7 series.
	assert.Equal(t, 15, testutil.CollectAndCount(c))

	expected := `
# HELP test_set_records Number of records held by the set
# TYPE test_set_records gauge
test_set_records{set="packages"} 5
test_set_records{set="users"} 3
# HELP test_set_valid 1 when the set passes its integrity check
# TYPE test_set_valid gauge
test_set_valid{set="packages"} 0
test_set_valid{set="users"} 1
# HELP test_set_relocations_total Records moved to keep the set's store dense
# TYPE test_set_relocations_total counter
test_set_relocations_total{set="packages"} 0
test_set_relocations_total{set="users"} 2
`
	require.NoError(t, testutil.CollectAndCompare(c, strings.NewReader(expected),
		"test_set_records", "test_set_valid", "test_set_relocations_total"))
}

func TestRegister(t *testing.T) {
	reg := prometheus.NewPedanticRegistry()
	require.NoError(t, Register(reg, "idxstore", fixedStats{}))
	assert.Error(t, Register(reg, "idxstore", fixedStats{}), "second registration must collide")
}
