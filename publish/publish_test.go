package publish

import (
	"context"
	"errors"
	"testing"

	"github.com/grafana/metersummary/mdata"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

type fakePublisher struct {
	name  string
	err   error
	calls int
}

func (f *fakePublisher) Publish(ctx context.Context, destination string, s *mdata.Summary) error {
	f.calls++
	return f.err
}

func (f *fakePublisher) Type() string {
	return f.name
}

func TestInstrumented(t *testing.T) {
	Convey("Given an instrumented publisher", t, func() {
		fake := &fakePublisher{name: "fake-instrumented"}
		p := Instrumented(fake)
		s := &mdata.Summary{Count: 5}

		Convey("successful publishes are counted with their samples", func() {
			So(p.Publish(context.Background(), "dest", s), ShouldBeNil)
			So(testutil.ToFloat64(publishedSummaries.WithLabelValues("fake-instrumented", "dest")), ShouldEqual, 1)
			So(testutil.ToFloat64(publishedSamples.WithLabelValues("fake-instrumented")), ShouldEqual, 5)
		})
		Convey("failures are counted and returned", func() {
			fake.err = errors.New("nope")
			So(p.Publish(context.Background(), "dest-fail", s), ShouldEqual, fake.err)
			So(testutil.ToFloat64(failedSummaries.WithLabelValues("fake-instrumented", "dest-fail")), ShouldEqual, 1)
		})
	})
	Convey("Without a publisher summaries are dropped silently", t, func() {
		p := Instrumented(nil)
		So(p.Type(), ShouldEqual, "nullPublisher")
		So(p.Publish(context.Background(), "dest", &mdata.Summary{}), ShouldBeNil)
	})
}

func TestMulti(t *testing.T) {
	Convey("Given a multi publisher where one publisher fails", t, func() {
		boom := errors.New("boom")
		a := &fakePublisher{name: "a"}
		b := &fakePublisher{name: "b", err: boom}
		c := &fakePublisher{name: "c"}
		m := Multi{a, b, c}

		err := m.Publish(context.Background(), "dest", &mdata.Summary{})
		So(errors.Is(err, boom), ShouldBeTrue)
		So(err.Error(), ShouldContainSubstring, "b: boom")
		So(a.calls+b.calls+c.calls, ShouldEqual, 3)
		So(m.Type(), ShouldEqual, "a+b+c")
	})
}
