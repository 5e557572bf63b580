package dispatch

import (
	"testing"

	"github.com/grafana/metersummary/mdata"
	. "github.com/smartystreets/goconvey/convey"
)

func summary(start int64) *mdata.Summary {
	return &mdata.Summary{Count: 1, Start: start, End: start}
}

func TestQueue(t *testing.T) {
	Convey("Given an empty queue", t, func() {
		q := NewQueue()
		_, ok := q.Dequeue()
		So(ok, ShouldBeFalse)
		So(q.Len(), ShouldEqual, 0)

		Convey("enqueueing never blocks and signals once", func() {
			for i := int64(0); i < 100; i++ {
				q.Enqueue(summary(i))
			}
			So(q.Len(), ShouldEqual, 100)
			So(len(q.Signal()), ShouldEqual, 1)

			Convey("and summaries come out in order", func() {
				for i := int64(0); i < 100; i++ {
					s, ok := q.Dequeue()
					So(ok, ShouldBeTrue)
					So(s.Start, ShouldEqual, i)
				}
				_, ok := q.Dequeue()
				So(ok, ShouldBeFalse)
			})
		})
	})
}

func TestHistory(t *testing.T) {
	Convey("Given a history of 3", t, func() {
		h, err := NewHistory(3)
		So(err, ShouldBeNil)
		_, ok := h.Latest()
		So(ok, ShouldBeFalse)

		for _, start := range []int64{30, 10, 20, 40} {
			h.Dispatched(summary(start), nil)
		}
		Convey("only the last 3 are kept, sorted by window start", func() {
			r := h.Recent()
			So(r, ShouldHaveLength, 3)
			So(r[0].Start, ShouldEqual, 10)
			So(r[1].Start, ShouldEqual, 20)
			So(r[2].Start, ShouldEqual, 40)
			l, ok := h.Latest()
			So(ok, ShouldBeTrue)
			So(l.Start, ShouldEqual, 40)
		})
		Convey("failed deliveries are not recorded", func() {
			h.Dispatched(summary(50), errFake)
			l, _ := h.Latest()
			So(l.Start, ShouldEqual, 40)
		})
	})
	Convey("A history of size 0 is invalid", t, func() {
		_, err := NewHistory(0)
		So(err, ShouldNotBeNil)
	})
}
