package stats

import "strconv"

// Kafka tracks the health of a consumer, per partition
type Kafka map[int32]*KafkaPartition

func NewKafka(prefix string, partitions []int32) Kafka {
	k := make(map[int32]*KafkaPartition)
	for _, part := range partitions {
		k[part] = NewKafkaPartition(prefix + ".partition." + strconv.Itoa(int(part)))
	}
	return k
}

// KafkaPartition tracks the health of a partition consumer
type KafkaPartition struct {
	Offset *Gauge64
	Lag    *Gauge64
	Ready  *Bool
}

func NewKafkaPartition(prefix string) *KafkaPartition {
	return &KafkaPartition{
		Offset: NewGauge64(prefix + ".offset"),
		Lag:    NewGauge64(prefix + ".lag"),
		Ready:  NewBool(prefix + ".ready"),
	}
}

// Update records that the message at offset was consumed, with hwm being the
// offset the next produced message will get.
func (k *KafkaPartition) Update(offset, hwm int64) {
	k.Offset.SetUint64(uint64(offset))
	lag := hwm - offset - 1
	if lag < 0 {
		lag = 0
	}
	k.Lag.SetUint64(uint64(lag))
}
