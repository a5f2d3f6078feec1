package partitions

import (
	"fmt"
	"math"
	"strings"
)

// PartitionBuilder constructs partitions over NumElements elements
type PartitionBuilder struct {
	NumElements int

	// Partitioning parameters
	TargetPartitionSize int // Desired elements per partition
	NumPartitions       int // Overrides TargetPartitionSize when > 0
	Strategy            PartitionStrategy

	// Optional per element cost, used by CostBalanced
	Costs []float64
}

// PartitionStrategy defines how elements are grouped
type PartitionStrategy int

const (
	BlockPartition PartitionStrategy = iota // Consecutive elements
	RoundRobin                              // Distribute cyclically
	CostBalanced                            // Consecutive elements, equal cost
)

func (s PartitionStrategy) String() string {
	switch s {
	case RoundRobin:
		return "roundrobin"
	case CostBalanced:
		return "cost"
	}
	return "block"
}

// ParseStrategy accepts "block", "roundrobin" and "cost"
func ParseStrategy(s string) (PartitionStrategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "block":
		return BlockPartition, nil
	case "roundrobin", "round-robin":
		return RoundRobin, nil
	case "cost":
		return CostBalanced, nil
	}
	return 0, fmt.Errorf("unknown partition strategy %q", s)
}

// BuildPartitions creates a partition layout
func (pb *PartitionBuilder) BuildPartitions() (*PartitionLayout, error) {
	if pb.NumElements < 0 {
		return nil, fmt.Errorf("negative element count %d", pb.NumElements)
	}
	if pb.Costs != nil && len(pb.Costs) != pb.NumElements {
		return nil, fmt.Errorf("%d costs for %d elements", len(pb.Costs), pb.NumElements)
	}
	numPartitions := pb.calculateNumPartitions()
	eToP := pb.partitionElements(numPartitions)
	partitions := pb.createPartitions(eToP, numPartitions)

	kpartMax := 0
	for _, p := range partitions {
		kpartMax = max(kpartMax, p.NumElements)
	}
	for i := range partitions {
		partitions[i].MaxElements = kpartMax
	}

	layout := &PartitionLayout{
		Partitions:    partitions,
		KpartMax:      kpartMax,
		TotalElements: pb.NumElements,
		NumPartitions: numPartitions,
		EToP:          eToP,
	}
	if err := layout.ValidateLayout(); err != nil {
		return nil, fmt.Errorf("invalid partition layout: %w", err)
	}
	return layout, nil
}

// calculateNumPartitions never exceeds the element count and is at least one
func (pb *PartitionBuilder) calculateNumPartitions() int {
	numPartitions := pb.NumPartitions
	if numPartitions <= 0 {
		size := max(pb.TargetPartitionSize, 1)
		numPartitions = int(math.Ceil(float64(pb.NumElements) / float64(size)))
	}
	numPartitions = min(numPartitions, pb.NumElements)
	return max(numPartitions, 1)
}

func (pb *PartitionBuilder) cost(k int) float64 {
	if pb.Costs == nil {
		return 1
	}
	return pb.Costs[k]
}

// partitionElements assigns elements to partitions
func (pb *PartitionBuilder) partitionElements(numPartitions int) []int {
	eToP := make([]int, pb.NumElements)
	switch pb.Strategy {
	case RoundRobin:
		for i := range eToP {
			eToP[i] = i % numPartitions
		}

	case CostBalanced:
		total := 0.0
		for k := 0; k < pb.NumElements; k++ {
			total += pb.cost(k)
		}
		share := total / float64(numPartitions)
		part, acc := 0, 0.0
		for k := range eToP {
			// Leave at least one element for each remaining partition
			remaining := pb.NumElements - k
			if k > 0 && part < numPartitions-1 && (acc >= share*float64(part+1) || remaining <= numPartitions-1-part) {
				part++
			}
			eToP[k] = part
			acc += pb.cost(k)
		}

	default:
		perPartition := int(math.Ceil(float64(pb.NumElements) / float64(numPartitions)))
		for i := range eToP {
			eToP[i] = min(i/perPartition, numPartitions-1)
		}
	}
	return eToP
}

// createPartitions builds partition structures from element assignments
func (pb *PartitionBuilder) createPartitions(eToP []int, numPartitions int) []Partition {
	partitions := make([]Partition, numPartitions)
	for i := range partitions {
		partitions[i] = Partition{ID: i, Elements: make([]int, 0)}
	}
	for elem, part := range eToP {
		partitions[part].Elements = append(partitions[part].Elements, elem)
		partitions[part].NumElements++
		partitions[part].Cost += pb.cost(elem)
	}
	return partitions
}
