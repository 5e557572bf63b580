package kafka

import (
	"flag"
	"fmt"
	"strconv"
	"strings"

	"github.com/Shopify/sarama"
	"github.com/Shopify/sarama/tools/tls"
)

// Net holds the connection settings shared by all kafka plugins
type Net struct {
	brokerStr       string
	kafkaVersionStr string
	tlsEnabled      bool
	tlsSkipVerify   bool
	tlsClientCert   string
	tlsClientKey    string
	saslEnabled     bool
	saslMechanism   string
	saslUsername    string
	saslPassword    string

	Brokers []string
}

// ConfigNet registers the connection flags on the given flagset
func ConfigNet(fs *flag.FlagSet) *Net {
	kn := &Net{}
	fs.StringVar(&kn.brokerStr, "brokers", "kafka:9092", "tcp address for kafka (may be be given multiple times as a comma-separated list)")
	fs.StringVar(&kn.kafkaVersionStr, "kafka-version", "2.0.0", "Kafka version in semver format. All brokers must be this version or newer.")
	fs.BoolVar(&kn.tlsEnabled, "tls-enabled", false, "Whether to enable TLS")
	fs.BoolVar(&kn.tlsSkipVerify, "tls-skip-verify", false, "Whether to skip TLS server cert verification")
	fs.StringVar(&kn.tlsClientCert, "tls-client-cert", "", "Client cert for client authentication (use with -tls-enabled and -tls-client-key)")
	fs.StringVar(&kn.tlsClientKey, "tls-client-key", "", "Client key for client authentication (use with -tls-enabled and -tls-client-cert)")
	fs.BoolVar(&kn.saslEnabled, "sasl-enabled", false, "Whether to enable SASL")
	fs.StringVar(&kn.saslMechanism, "sasl-mechanism", "", "The SASL mechanism configuration (possible values: SCRAM-SHA-256, SCRAM-SHA-512, PLAINTEXT)")
	fs.StringVar(&kn.saslUsername, "sasl-username", "", "Username for client authentication (use with -sasl-enabled and -sasl-password)")
	fs.StringVar(&kn.saslPassword, "sasl-password", "", "Password for client authentication (use with -sasl-enabled and -sasl-user)")
	return kn
}

// ParseBrokers validates a comma separated list of host[:port] addresses
func ParseBrokers(s string) ([]string, error) {
	var brokers []string
	for _, b := range strings.Split(s, ",") {
		b = strings.TrimSpace(b)
		if b == "" {
			return nil, fmt.Errorf("invalid broker ''")
		}
		switch strings.Count(b, ":") {
		case 0:
		case 1:
			parts := strings.SplitN(b, ":", 2)
			if parts[0] == "" || parts[1] == "" {
				return nil, fmt.Errorf("invalid broker %q", b)
			}
			if _, err := strconv.Atoi(parts[1]); err != nil {
				return nil, fmt.Errorf("invalid broker %q: %s", b, err.Error())
			}
		default:
			return nil, fmt.Errorf("invalid broker %q", b)
		}
		brokers = append(brokers, b)
	}
	return brokers, nil
}

// Configure validates the connection flags, sets Brokers and applies
// version, TLS and SASL settings to config.
func (k *Net) Configure(config *sarama.Config) error {
	var err error
	k.Brokers, err = ParseBrokers(k.brokerStr)
	if err != nil {
		return err
	}
	config.Version, err = sarama.ParseKafkaVersion(k.kafkaVersionStr)
	if err != nil {
		return fmt.Errorf("invalid kafka-version. %s", err)
	}

	if k.tlsEnabled {
		tlsConfig, err := tls.NewConfig(k.tlsClientCert, k.tlsClientKey)
		if err != nil {
			return fmt.Errorf("failed to create TLS config: %s", err)
		}
		config.Net.TLS.Enable = true
		config.Net.TLS.Config = tlsConfig
		config.Net.TLS.Config.InsecureSkipVerify = k.tlsSkipVerify
	}

	if k.saslEnabled {
		switch k.saslMechanism {
		case "SCRAM-SHA-256":
			config.Net.SASL.Mechanism = sarama.SASLTypeSCRAMSHA256
			config.Net.SASL.SCRAMClientGeneratorFunc = func() sarama.SCRAMClient { return &XDGSCRAMClient{HashGeneratorFcn: SHA256} }
		case "SCRAM-SHA-512":
			config.Net.SASL.Mechanism = sarama.SASLTypeSCRAMSHA512
			config.Net.SASL.SCRAMClientGeneratorFunc = func() sarama.SCRAMClient { return &XDGSCRAMClient{HashGeneratorFcn: SHA512} }
		case "PLAINTEXT":
			config.Net.SASL.Mechanism = sarama.SASLTypePlaintext
		default:
			return fmt.Errorf("failed to recognize sasl-mechanism %q", k.saslMechanism)
		}
		config.Net.SASL.Enable = true
		config.Net.SASL.User = k.saslUsername
		config.Net.SASL.Password = k.saslPassword
	}
	return config.Validate()
}
