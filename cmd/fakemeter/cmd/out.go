package cmd

import (
	"bytes"
	"context"
	"fmt"
	"io/ioutil"
	"net/http"
	"strings"
	"time"

	"github.com/Shopify/sarama"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Out delivers encoded messages to one destination
type Out interface {
	Name() string
	// Read sends a json meter read
	Read(ctx context.Context, data []byte) error
	// Config sends a json configuration message
	Config(ctx context.Context, data []byte) error
	Close() error
}

// getOutputs returns the outputs selected via the flags, or exits
func getOutputs() []Out {
	var outs []Out
	if addr := viper.GetString("http-addr"); addr != "" {
		outs = append(outs, newHTTPOut(addr, viper.GetString("token")))
	}
	if addr := viper.GetString("kafka-addr"); addr != "" {
		o, err := newKafkaOut(addr, viper.GetString("kafka-comp"), viper.GetString("reads-topic"), viper.GetString("config-topic"))
		if err != nil {
			log.Fatalf("failed to create kafka output: %s", err.Error())
		}
		outs = append(outs, o)
	}
	if viper.GetBool("stdout") {
		outs = append(outs, stdoutOut{})
	}
	if len(outs) == 0 {
		log.Fatal("need to define an output")
	}
	return outs
}

type httpOut struct {
	addr   string
	token  string
	client *http.Client
}

func newHTTPOut(addr, token string) *httpOut {
	return &httpOut{
		addr:   strings.TrimSuffix(addr, "/"),
		token:  token,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (o *httpOut) Name() string {
	return "http"
}

func (o *httpOut) post(ctx context.Context, path string, data []byte, auth bool) error {
	req, err := http.NewRequestWithContext(ctx, "POST", o.addr+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if auth && o.token != "" {
		req.Header.Set("Authorization", "Bearer "+o.token)
	}
	resp, err := o.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	body, _ := ioutil.ReadAll(resp.Body)
	if resp.StatusCode >= 300 {
		return fmt.Errorf("%s: %d %s", path, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}

func (o *httpOut) Read(ctx context.Context, data []byte) error {
	return o.post(ctx, "/reads", data, false)
}

// Config translates the configuration message into a reportInterval call,
// the only setting the http api supports.
func (o *httpOut) Config(ctx context.Context, data []byte) error {
	seconds, err := intervalFromConfig(data)
	if err != nil {
		return err
	}
	return o.post(ctx, "/reportInterval", []byte(fmt.Sprintf(`{"seconds":%d}`, seconds)), true)
}

func (o *httpOut) Close() error {
	return nil
}

type kafkaOut struct {
	producer    sarama.SyncProducer
	readsTopic  string
	configTopic string
}

func newKafkaOut(addr, compression, readsTopic, configTopic string) (*kafkaOut, error) {
	config := sarama.NewConfig()
	config.ClientID = "fakemeter"
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 3
	config.Producer.Return.Successes = true
	switch compression {
	case "none":
		config.Producer.Compression = sarama.CompressionNone
	case "gzip":
		config.Producer.Compression = sarama.CompressionGZIP
	case "snappy":
		config.Producer.Compression = sarama.CompressionSnappy
	default:
		return nil, fmt.Errorf("unknown compression %q", compression)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	producer, err := sarama.NewSyncProducer(strings.Split(addr, ","), config)
	if err != nil {
		return nil, err
	}
	return &kafkaOut{
		producer:    producer,
		readsTopic:  readsTopic,
		configTopic: configTopic,
	}, nil
}

func (o *kafkaOut) Name() string {
	return "kafka"
}

func (o *kafkaOut) send(topic string, data []byte) error {
	_, _, err := o.producer.SendMessage(&sarama.ProducerMessage{
		Topic: topic,
		Value: sarama.ByteEncoder(data),
	})
	return err
}

func (o *kafkaOut) Read(ctx context.Context, data []byte) error {
	return o.send(o.readsTopic, data)
}

func (o *kafkaOut) Config(ctx context.Context, data []byte) error {
	return o.send(o.configTopic, data)
}

func (o *kafkaOut) Close() error {
	return o.producer.Close()
}

type stdoutOut struct{}

func (stdoutOut) Name() string {
	return "stdout"
}

func (stdoutOut) Read(ctx context.Context, data []byte) error {
	fmt.Println(string(data))
	return nil
}

func (stdoutOut) Config(ctx context.Context, data []byte) error {
	fmt.Println(string(data))
	return nil
}

func (stdoutOut) Close() error {
	return nil
}
