package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/grafana/metersummary/input/kafkain"
	"github.com/raintank/dur"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var intervalCmd = &cobra.Command{
	Use:   "interval <duration>",
	Short: "Changes the report interval, e.g. 'interval 15min'",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		seconds, err := dur.ParseNDuration(args[0])
		if err != nil {
			log.Fatalf("can't parse interval %q: %s", args[0], err.Error())
		}
		data, err := configMessage(seconds)
		if err != nil {
			log.Fatalf("can't encode configuration message: %s", err.Error())
		}
		outs := getOutputs()
		defer closeOutputs(outs)

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		failed := false
		for _, o := range outs {
			if err := o.Config(ctx, data); err != nil {
				log.Errorf("%s: failed to set report interval: %s", o.Name(), err.Error())
				failed = true
				continue
			}
			log.Infof("%s: report interval set to %ds", o.Name(), seconds)
		}
		if failed {
			log.Fatal("not all outputs accepted the change")
		}
	},
}

func init() {
	rootCmd.AddCommand(intervalCmd)
}

func configMessage(seconds uint32) ([]byte, error) {
	return json.Marshal(kafkain.ConfigMessage{
		Name:    "reportInterval",
		Content: json.RawMessage(strconv.FormatUint(uint64(seconds), 10)),
	})
}

func intervalFromConfig(data []byte) (uint32, error) {
	var msg kafkain.ConfigMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return 0, err
	}
	if msg.Name != "reportInterval" {
		return 0, fmt.Errorf("unsupported setting %q", msg.Name)
	}
	seconds, err := strconv.ParseUint(string(msg.Content), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid interval %q: %w", msg.Content, err)
	}
	return uint32(seconds), nil
}

func closeOutputs(outs []Out) {
	for _, o := range outs {
		if err := o.Close(); err != nil {
			log.Warnf("%s: close: %s", o.Name(), err.Error())
		}
	}
}
