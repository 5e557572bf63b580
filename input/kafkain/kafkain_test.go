package kafkain

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/Shopify/sarama"
	"github.com/Shopify/sarama/mocks"
	"github.com/grafana/metersummary/meter"
	"github.com/grafana/metersummary/stats"
	. "github.com/smartystreets/goconvey/convey"
)

type fakeHandler struct {
	sync.Mutex
	reads [][]byte
}

func (f *fakeHandler) ProcessRead(data []byte) error {
	f.Lock()
	f.reads = append(f.reads, data)
	f.Unlock()
	return nil
}

func (f *fakeHandler) ProcessSample(s meter.Sample) error {
	return nil
}

func (f *fakeHandler) count() int {
	f.Lock()
	defer f.Unlock()
	return len(f.reads)
}

type fakeIntervals struct {
	sync.Mutex
	set []uint32
}

func (f *fakeIntervals) SetReportInterval(ctx context.Context, seconds uint32) (bool, error) {
	f.Lock()
	f.set = append(f.set, seconds)
	f.Unlock()
	return true, nil
}

func (f *fakeIntervals) get() []uint32 {
	f.Lock()
	defer f.Unlock()
	return append([]uint32(nil), f.set...)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestKafkaIn(t *testing.T) {
	readsTopic = "meter-reads"
	configTopic = "meter-config"
	offsetStr = "oldest"
	defer func() {
		readsTopic, configTopic, offsetStr = "", "", ""
	}()

	consumer := mocks.NewConsumer(t, nil)
	reads := consumer.ExpectConsumePartition("meter-reads", 0, sarama.OffsetOldest)
	cfg := consumer.ExpectConsumePartition("meter-config", 0, sarama.OffsetNewest)

	intervals := &fakeIntervals{}
	handler := &fakeHandler{}
	k := newKafkaIn(consumer, intervals, []int32{0}, stats.NewKafka("test.kafka-in", []int32{0}))
	if err := k.Start(handler, func() { t.Errorf("plugin canceled unexpectedly") }); err != nil {
		t.Fatalf("start: %s", err)
	}

	reads.YieldMessage(&sarama.ConsumerMessage{Value: []byte(`{"powerQuality":{}}`)})
	reads.YieldMessage(&sarama.ConsumerMessage{Value: []byte(`{"powerQuality":{}}`)})
	cfg.YieldMessage(&sarama.ConsumerMessage{Value: []byte(`{"rn":"reportInterval","con":900}`)})
	cfg.YieldMessage(&sarama.ConsumerMessage{Value: []byte(`{"rn":"reportInterval","con":"60"}`)})
	cfg.YieldMessage(&sarama.ConsumerMessage{Value: []byte(`{"rn":"somethingElse","con":1}`)})

	waitFor(t, func() bool { return handler.count() == 2 })
	waitFor(t, func() bool { return len(intervals.get()) == 2 })
	k.Stop()

	got := intervals.get()
	if got[0] != 900 || got[1] != 60 {
		t.Fatalf("expected intervals [900 60], got %v", got)
	}
	if err := consumer.Close(); err != nil {
		t.Fatalf("close: %s", err)
	}
}

func TestParseSeconds(t *testing.T) {
	Convey("When parsing interval contents", t, func() {
		cases := []struct {
			raw     string
			exp     uint32
			wantErr bool
		}{
			{`3600`, 3600, false},
			{`"15"`, 15, false},
			{` 60 `, 60, false},
			{`-1`, 0, true},
			{`1.5`, 0, true},
			{`"abc"`, 0, true},
			{`99999999999`, 0, true},
		}
		for _, c := range cases {
			got, err := parseSeconds(json.RawMessage(c.raw))
			So(err != nil, ShouldEqual, c.wantErr)
			So(got, ShouldEqual, c.exp)
		}
	})
}
