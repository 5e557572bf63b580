// Package kafka publishes summaries to a kafka topic.
package kafka

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/Shopify/sarama"
	"github.com/grafana/globalconf"
	"github.com/grafana/metersummary/kafka"
	"github.com/grafana/metersummary/mdata"
	"github.com/grafana/metersummary/stats"
	"github.com/jpillora/backoff"
	log "github.com/sirupsen/logrus"
)

var (
	// ErrNotConnected is returned by Publish while the producer is not connected yet
	ErrNotConnected = errors.New("kafka-out: not connected")
	errClosed       = errors.New("kafka-out: publisher closed")
)

var (
	// metric kafka-out.published is how many summaries were sent to kafka
	published = stats.NewCounterRate32("kafka-out.published")
	// metric kafka-out.message_size is the size of the produced messages
	messageSize = stats.NewRange32("kafka-out.message_size")
	// metric kafka-out.publish is the duration of sending a message
	publishDuration = stats.NewLatencyHistogram15s32("kafka-out.publish")
	// metric kafka-out.send_error is how many messages failed to send
	sendErr = stats.NewCounterRate32("kafka-out.send_error")
	// metric kafka-out.connected is whether the producer is connected
	connected = stats.NewBool("kafka-out.connected")

	Enabled         bool
	topic           string
	codec           string
	compression     string
	partitionStr    string
	backoffMin      time.Duration
	backoffMax      time.Duration
	net             *kafka.Net
	config          *sarama.Config
	producerTimeout time.Duration
)

func ConfigSetup() {
	fs := flag.NewFlagSet("kafka-out", flag.ExitOnError)
	fs.BoolVar(&Enabled, "enabled", false, "publish summaries to kafka")
	fs.StringVar(&topic, "topic", "", "topic to publish to. overrides dispatch.destination when set")
	fs.StringVar(&codec, "codec", "json", "message encoding: json|msgp")
	fs.StringVar(&compression, "compression", "snappy", "compression: none|gzip|snappy")
	fs.StringVar(&partitionStr, "partitions", "*", "partitions to spread summaries over. use '*' or a comma separated list of id's")
	fs.DurationVar(&backoffMin, "backoff-min", 30*time.Second, "initial wait between connection attempts")
	fs.DurationVar(&backoffMax, "backoff-max", 16*time.Minute, "max wait between connection attempts")
	fs.DurationVar(&producerTimeout, "timeout", 10*time.Second, "max time to wait for all in-sync replicas to acknowledge a message")
	net = kafka.ConfigNet(fs)
	globalconf.Register("kafka-out", fs, flag.ExitOnError)
}

func ConfigProcess(instance string) {
	if !Enabled {
		return
	}
	if codec != "json" && codec != "msgp" {
		log.Fatalf("kafka-out: unknown codec %q", codec)
	}
	if backoffMin <= 0 || backoffMax < backoffMin {
		log.Fatal("kafka-out: backoff-min must be positive and not exceed backoff-max")
	}

	config = sarama.NewConfig()
	config.ClientID = instance + "-summaries"
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 10
	config.Producer.Compression = getCompression(compression)
	config.Producer.Return.Successes = true
	config.Producer.Partitioner = sarama.NewManualPartitioner
	config.Producer.Timeout = producerTimeout
	if err := net.Configure(config); err != nil {
		log.Fatalf("kafka-out: invalid config: %s", err)
	}
}

func getCompression(codec string) sarama.CompressionCodec {
	switch codec {
	case "none":
		return sarama.CompressionNone
	case "gzip":
		return sarama.CompressionGZIP
	case "snappy":
		return sarama.CompressionSnappy
	default:
		log.Fatalf("kafka-out: unknown compression codec %q", codec)
		return 0
	}
}

// Publisher produces one message per summary, keyed by instance
type Publisher struct {
	key   []byte
	codec string
	topic string

	sync.RWMutex
	closed     bool
	producer   sarama.SyncProducer
	client     io.Closer
	partitions func(topic string) ([]int32, error)
}

// New creates a publisher configured from the kafka-out flags.
// It is not connected until Start succeeds in connecting.
func New(instance string) *Publisher {
	return &Publisher{
		key:   []byte(instance),
		codec: codec,
		topic: topic,
	}
}

// Start connects to kafka in the background, retrying with exponential backoff
// until it succeeds or ctx is canceled.
func (p *Publisher) Start(ctx context.Context) {
	go func() {
		b := &backoff.Backoff{
			Min:    backoffMin,
			Max:    backoffMax,
			Factor: 2,
		}
		for {
			err := p.connect()
			if err == nil {
				log.Infof("kafka-out: connected to %v", net.Brokers)
				return
			}
			if err == errClosed {
				return
			}
			wait := b.Duration()
			log.Warnf("kafka-out: failed to connect: %s. retrying in %s", err.Error(), wait)
			select {
			case <-ctx.Done():
				return
			case <-time.After(wait):
			}
		}
	}()
}

func (p *Publisher) connect() error {
	client, err := sarama.NewClient(net.Brokers, config)
	if err != nil {
		return err
	}
	partitions := func(topic string) ([]int32, error) {
		avail, err := client.Partitions(topic)
		if err != nil {
			return nil, err
		}
		return kafka.ParsePartitions(partitionStr, avail)
	}
	// with a fixed topic, catch partition misconfiguration at connect time
	if p.topic != "" {
		if _, err := partitions(p.topic); err != nil {
			client.Close()
			return err
		}
	}
	producer, err := sarama.NewSyncProducerFromClient(client)
	if err != nil {
		client.Close()
		return err
	}
	return p.setProducer(producer, client, partitions)
}

// setProducer installs a connected producer and the client it was created from.
// If the publisher was closed in the meantime, both are closed and errClosed is returned.
func (p *Publisher) setProducer(producer sarama.SyncProducer, client io.Closer, partitions func(topic string) ([]int32, error)) error {
	p.Lock()
	if p.closed {
		p.Unlock()
		producer.Close()
		if client != nil {
			client.Close()
		}
		return errClosed
	}
	p.producer = producer
	p.client = client
	p.partitions = partitions
	p.Unlock()
	connected.Set(true)
	return nil
}

func (p *Publisher) topicFor(destination string) string {
	if p.topic != "" {
		return p.topic
	}
	return destination
}

func (p *Publisher) encode(s *mdata.Summary) ([]byte, error) {
	if p.codec == "msgp" {
		return s.MarshalMsg(make([]byte, 0, s.Msgsize()))
	}
	return s.MarshalJSONFast(nil)
}

func (p *Publisher) Publish(ctx context.Context, destination string, s *mdata.Summary) error {
	p.RLock()
	producer, partitions := p.producer, p.partitions
	p.RUnlock()
	if producer == nil {
		return ErrNotConnected
	}

	t := p.topicFor(destination)
	parts, err := partitions(t)
	if err != nil {
		return fmt.Errorf("kafka-out: can't get partitions for topic %s: %w", t, err)
	}
	if len(parts) == 0 {
		return fmt.Errorf("kafka-out: no partitions for topic %s", t)
	}

	data, err := p.encode(s)
	if err != nil {
		return err
	}
	message := &sarama.ProducerMessage{
		Topic:     t,
		Partition: parts[kafka.PartitionFor(p.key, int32(len(parts)))],
		Key:       sarama.ByteEncoder(p.key),
		Value:     sarama.ByteEncoder(data),
	}

	pre := time.Now()
	partition, offset, err := producer.SendMessage(message)
	if err != nil {
		sendErr.Inc()
		return fmt.Errorf("kafka-out: %w", err)
	}
	publishDuration.Value(time.Since(pre))
	messageSize.Value(len(data))
	published.Inc()
	log.Debugf("kafka-out: published summary %d - %d to %s:%d at offset %d", s.Start, s.End, t, partition, offset)
	return nil
}

func (*Publisher) Type() string {
	return "kafka"
}

// Close closes the producer and its client, if connected.
// A connection attempt still in flight is discarded once it completes.
func (p *Publisher) Close() error {
	p.Lock()
	defer p.Unlock()
	p.closed = true
	if p.producer == nil {
		return nil
	}
	connected.Set(false)
	err := p.producer.Close()
	if p.client != nil {
		if cerr := p.client.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	p.producer = nil
	p.client = nil
	return err
}
