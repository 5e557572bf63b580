package kafka

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Shopify/sarama"
	"github.com/cespare/xxhash"
	jump "github.com/dgryski/go-jump"
)

// returns elements that are in a but not in b
func DiffPartitions(a []int32, b []int32) []int32 {
	var diff []int32
Iter:
	for _, eA := range a {
		for _, eB := range b {
			if eA == eB {
				continue Iter
			}
		}
		diff = append(diff, eA)
	}
	return diff
}

// GetPartitions returns the partitions of the given topics, which must all have the same partition count
func GetPartitions(client sarama.Client, topics []string) ([]int32, error) {
	partitionCount := 0
	partitions := make([]int32, 0)
	var err error
	for i, topic := range topics {
		partitions, err = client.Partitions(topic)
		if err != nil {
			return nil, fmt.Errorf("Failed to get partitions for topic %s. %s", topic, err)
		}
		if len(partitions) == 0 {
			return nil, fmt.Errorf("No partitions returned for topic %s", topic)
		}
		if i > 0 {
			if len(partitions) != partitionCount {
				return nil, fmt.Errorf("Configured topics have different partition counts, this is not supported")
			}
			continue
		}
		partitionCount = len(partitions)
	}
	return partitions, nil
}

// ParsePartitions parses '*' or a comma separated list of partition id's,
// checked against the available partitions.
func ParsePartitions(s string, avail []int32) ([]int32, error) {
	if s == "*" {
		return avail, nil
	}
	var partitions []int32
	for _, part := range strings.Split(s, ",") {
		i, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("could not parse partition %q. partitions must be '*' or a comma separated list of id's", part)
		}
		partitions = append(partitions, int32(i))
	}
	if missing := DiffPartitions(partitions, avail); len(missing) > 0 {
		return nil, fmt.Errorf("configured partitions not in list of available partitions. missing %v", missing)
	}
	return partitions, nil
}

// PartitionFor maps key consistently onto one of n partitions
func PartitionFor(key []byte, n int32) int32 {
	if n <= 1 {
		return 0
	}
	return jump.Hash(xxhash.Sum64(key), int(n))
}
