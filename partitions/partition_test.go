package partitions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlockPartition(t *testing.T) {
	pb := &PartitionBuilder{NumElements: 10, TargetPartitionSize: 4}
	layout, err := pb.BuildPartitions()
	require.NoError(t, err)

	assert.Equal(t, 3, layout.NumPartitions)
	assert.Equal(t, 4, layout.KpartMax)
	assert.Equal(t, []int{0, 1, 2, 3}, layout.Partitions[0].Elements)
	assert.Equal(t, []int{8, 9}, layout.Partitions[2].Elements)
	assert.Equal(t, 2, layout.GetPartition(9))
	assert.Equal(t, -1, layout.GetPartition(10))
	assert.NoError(t, layout.ValidateLayout())
}

func TestRoundRobin(t *testing.T) {
	pb := &PartitionBuilder{NumElements: 7, NumPartitions: 3, Strategy: RoundRobin}
	layout, err := pb.BuildPartitions()
	require.NoError(t, err)
	assert.Equal(t, []int{0, 3, 6}, layout.Partitions[0].Elements)
	assert.Equal(t, []int{1, 4}, layout.Partitions[1].Elements)

	stats := layout.PartitionStatistics()
	assert.Equal(t, 2, stats.MinElements)
	assert.Equal(t, 3, stats.MaxElements)
	assert.InDelta(t, 3/(7.0/3), stats.Imbalance, 1e-12)
}

func TestCostBalanced(t *testing.T) {
	costs := []float64{8, 1, 1, 1, 1, 1, 1, 1, 1}
	pb := &PartitionBuilder{NumElements: len(costs), NumPartitions: 2, Strategy: CostBalanced, Costs: costs}
	layout, err := pb.BuildPartitions()
	require.NoError(t, err)
	assert.Equal(t, []int{0}, layout.Partitions[0].Elements)
	assert.Equal(t, 8.0, layout.Partitions[0].Cost)
	assert.Equal(t, 8.0, layout.Partitions[1].Cost)

	// Every partition gets an element even when the cost sits at the end
	costs = []float64{0, 0, 0, 0, 10}
	pb = &PartitionBuilder{NumElements: len(costs), NumPartitions: 4, Strategy: CostBalanced, Costs: costs}
	layout, err = pb.BuildPartitions()
	require.NoError(t, err)
	for _, p := range layout.Partitions {
		assert.Greater(t, p.NumElements, 0)
	}
}

func TestPartitionEdgeCases(t *testing.T) {
	layout, err := (&PartitionBuilder{}).BuildPartitions()
	require.NoError(t, err)
	assert.Equal(t, 1, layout.NumPartitions)
	assert.Equal(t, 0, layout.KpartMax)

	// More partitions than elements
	layout, err = (&PartitionBuilder{NumElements: 2, NumPartitions: 8}).BuildPartitions()
	require.NoError(t, err)
	assert.Equal(t, 2, layout.NumPartitions)

	_, err = (&PartitionBuilder{NumElements: 2, Costs: []float64{1}}).BuildPartitions()
	assert.Error(t, err)
	_, err = (&PartitionBuilder{NumElements: -1}).BuildPartitions()
	assert.Error(t, err)
}

func TestValidateLayout(t *testing.T) {
	layout := &PartitionLayout{
		Partitions: []Partition{
			{ID: 0, Elements: []int{0}, NumElements: 1, MaxElements: 2},
			{ID: 1, Elements: []int{1, 2}, NumElements: 2, MaxElements: 2},
		},
		KpartMax:      2,
		TotalElements: 3,
		NumPartitions: 2,
		EToP:          []int{0, 1, 1},
	}
	require.NoError(t, layout.ValidateLayout())

	layout.EToP[2] = 0
	assert.Error(t, layout.ValidateLayout())
	layout.EToP[2] = 1
	layout.KpartMax = 3
	assert.Error(t, layout.ValidateLayout())
}

func TestParseStrategy(t *testing.T) {
	for _, s := range []PartitionStrategy{BlockPartition, RoundRobin, CostBalanced} {
		got, err := ParseStrategy(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}
	_, err := ParseStrategy("metis")
	assert.Error(t, err)
}
