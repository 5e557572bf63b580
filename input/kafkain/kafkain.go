// Package kafkain consumes meter reads and configuration updates from kafka.
package kafkain

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Shopify/sarama"
	"github.com/grafana/globalconf"
	"github.com/grafana/metersummary/input"
	"github.com/grafana/metersummary/kafka"
	"github.com/grafana/metersummary/stats"
	log "github.com/sirupsen/logrus"
)

// metric input.kafka-in.decode_err is a count of times a message failed to parse
var decodeErr = stats.NewCounterRate32("input.kafka-in.decode_err")

// metric input.kafka-in.config.received is a count of configuration messages received
var configReceived = stats.NewCounter32("input.kafka-in.config.received")

// IntervalSetter applies report interval changes
type IntervalSetter interface {
	SetReportInterval(ctx context.Context, seconds uint32) (bool, error)
}

// ConfigMessage is a configuration update.
// Name selects the setting, Content holds its value.
type ConfigMessage struct {
	Name    string          `json:"rn"`
	Content json.RawMessage `json:"con"`
}

type KafkaIn struct {
	input.Handler
	consumer   sarama.Consumer
	client     sarama.Client
	intervals  IntervalSetter
	partStats  stats.Kafka
	partitions []int32
	wg         sync.WaitGroup

	shutdown chan struct{}
	// signal to caller that it should shutdown
	cancel context.CancelFunc
}

func (k *KafkaIn) Name() string {
	return "kafka-in"
}

var (
	Enabled        bool
	readsTopic     string
	configTopic    string
	partitionStr   string
	offsetStr      string
	offsetDuration time.Duration
	net            *kafka.Net
	config         *sarama.Config
	partitions     []int32
	kafkaStats     stats.Kafka
)

func ConfigSetup() {
	fs := flag.NewFlagSet("kafka-in", flag.ExitOnError)
	fs.BoolVar(&Enabled, "enabled", false, "consume meter reads from kafka")
	fs.StringVar(&readsTopic, "reads-topic", "meter-reads", "topic with json meter reads")
	fs.StringVar(&configTopic, "config-topic", "", "topic with configuration updates. empty disables")
	fs.StringVar(&offsetStr, "offset", "newest", "Set the offset to start consuming from. Can be oldest, newest or a time duration")
	fs.StringVar(&partitionStr, "partitions", "*", "kafka partitions to consume. use '*' or a comma separated list of id's")
	net = kafka.ConfigNet(fs)
	globalconf.Register("kafka-in", fs, flag.ExitOnError)
}

func ConfigProcess(instance string) {
	if !Enabled {
		return
	}

	var err error
	switch offsetStr {
	case "oldest":
	case "newest":
	default:
		offsetDuration, err = time.ParseDuration(offsetStr)
		if err != nil {
			log.Fatalf("kafka-in: invalid offset format. %s", err)
		}
	}

	config = sarama.NewConfig()
	config.ClientID = instance + "-reads"
	if err := net.Configure(config); err != nil {
		log.Fatalf("kafka-in: invalid config: %s", err)
	}

	// validate our partitions
	client, err := sarama.NewClient(net.Brokers, config)
	if err != nil {
		log.Fatalf("kafka-in: failed to create client. %s", err)
	}
	defer client.Close()

	availParts, err := kafka.GetPartitions(client, []string{readsTopic})
	if err != nil {
		log.Fatalf("kafka-in: %s", err.Error())
	}
	log.Infof("kafka-in: available partitions %v", availParts)
	partitions, err = kafka.ParsePartitions(partitionStr, availParts)
	if err != nil {
		log.Fatalf("kafka-in: %s", err.Error())
	}

	// metric input.kafka-in.partition.%d.offset is the current offset for the partition (%d) that we have consumed.

	// metric input.kafka-in.partition.%d.lag is how many messages there are in the partition (%d) that we have not yet consumed.
	kafkaStats = stats.NewKafka("input.kafka-in", partitions)
}

// New creates the plugin configured from the kafka-in flags
func New(intervals IntervalSetter) *KafkaIn {
	client, err := sarama.NewClient(net.Brokers, config)
	if err != nil {
		log.Fatalf("kafka-in: failed to create client. %s", err)
	}
	consumer, err := sarama.NewConsumerFromClient(client)
	if err != nil {
		log.Fatalf("kafka-in: failed to create consumer: %s", err)
	}
	log.Info("kafka-in: consumer created without error")
	k := newKafkaIn(consumer, intervals, partitions, kafkaStats)
	k.client = client
	return k
}

func newKafkaIn(consumer sarama.Consumer, intervals IntervalSetter, partitions []int32, partStats stats.Kafka) *KafkaIn {
	return &KafkaIn{
		consumer:   consumer,
		intervals:  intervals,
		partitions: partitions,
		partStats:  partStats,
		shutdown:   make(chan struct{}),
	}
}

func (k *KafkaIn) Start(handler input.Handler, cancel context.CancelFunc) error {
	k.Handler = handler
	k.cancel = cancel
	for _, partition := range k.partitions {
		offset, err := k.startOffset(readsTopic, partition)
		if err != nil {
			return err
		}
		k.wg.Add(1)
		go k.consumePartition(readsTopic, partition, offset, k.handleRead)
	}
	if configTopic != "" {
		// configuration is small and rare, so it lives on partition 0 and is always read from the newest offset
		k.wg.Add(1)
		go k.consumePartition(configTopic, 0, sarama.OffsetNewest, k.handleConfig)
	}
	return nil
}

func (k *KafkaIn) startOffset(topic string, partition int32) (int64, error) {
	switch offsetStr {
	case "oldest":
		return sarama.OffsetOldest, nil
	case "newest", "":
		return sarama.OffsetNewest, nil
	}
	if k.client == nil {
		return 0, fmt.Errorf("kafka-in: offset %s requires a client", offsetStr)
	}
	offset, err := k.client.GetOffset(topic, partition, time.Now().Add(-1*offsetDuration).UnixNano()/int64(time.Millisecond))
	if err != nil {
		log.Warnf("kafka-in: failed to get offset %s: %s -> will use oldest instead", offsetDuration, err)
		return sarama.OffsetOldest, nil
	}
	return offset, nil
}

// consumePartition consumes from the topic until k.shutdown is triggered.
func (k *KafkaIn) consumePartition(topic string, partition int32, offset int64, handle func([]byte)) {
	defer k.wg.Done()

	log.Infof("kafka-in: consuming from %s:%d from offset %d", topic, partition, offset)
	pc, err := k.consumer.ConsumePartition(topic, partition, offset)
	if err != nil {
		log.Errorf("kafka-in: failed to start partitionConsumer for %s:%d. %s", topic, partition, err)
		k.cancel()
		return
	}
	partStats := k.partStats[partition]
	if topic != readsTopic {
		partStats = nil
	}
	messages := pc.Messages()
	for {
		select {
		case msg, ok := <-messages:
			// https://github.com/Shopify/sarama/wiki/Frequently-Asked-Questions#why-am-i-getting-a-nil-message-from-the-sarama-consumer
			if !ok {
				log.Errorf("kafka-in: kafka consumer for %s:%d has shutdown. stop consuming", topic, partition)
				k.cancel()
				return
			}
			if log.IsLevelEnabled(log.DebugLevel) {
				log.Debugf("kafka-in: received message: Topic %s, Partition: %d, Offset: %d, Key: %x", msg.Topic, msg.Partition, msg.Offset, msg.Key)
			}
			handle(msg.Value)
			if partStats != nil {
				partStats.Update(msg.Offset, pc.HighWaterMarkOffset())
				partStats.Ready.Set(true)
			}
		case <-k.shutdown:
			pc.Close()
			log.Infof("kafka-in: consumer for %s:%d ended.", topic, partition)
			return
		}
	}
}

func (k *KafkaIn) handleRead(data []byte) {
	err := k.Handler.ProcessRead(data)
	if err == input.ErrBufferFull {
		log.Warn("kafka-in: ingest buffer full, dropping read")
		return
	}
	if err != nil {
		decodeErr.Inc()
		log.Errorf("kafka-in: skipping read. %s", err)
	}
}

func (k *KafkaIn) handleConfig(data []byte) {
	configReceived.Inc()
	var msg ConfigMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		decodeErr.Inc()
		log.Errorf("kafka-in: skipping config message. %s", err)
		return
	}
	switch msg.Name {
	case "reportInterval":
		seconds, err := parseSeconds(msg.Content)
		if err != nil {
			decodeErr.Inc()
			log.Errorf("kafka-in: invalid reportInterval %s: %s", msg.Content, err)
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if _, err := k.intervals.SetReportInterval(ctx, seconds); err != nil {
			log.Errorf("kafka-in: failed to set report interval: %s", err)
		}
	default:
		log.Warnf("kafka-in: config message has unknown name %q", msg.Name)
	}
}

// parseSeconds accepts a json number or a quoted number of seconds
func parseSeconds(raw json.RawMessage) (uint32, error) {
	s := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint32(v), nil
}

// Stop will initiate a graceful stop of the Consumer (permanent)
// and block until it stopped.
func (k *KafkaIn) Stop() {
	// closes notifications and messages channels, amongst others
	close(k.shutdown)
	k.wg.Wait()
	if k.client != nil {
		k.client.Close()
	}
}
