package logger

import (
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	. "github.com/smartystreets/goconvey/convey"
)

func TestTextFormatter(t *testing.T) {
	Convey("Given a formatter with a module name", t, func() {
		f := &TextFormatter{TimestampFormat: TimestampFormat, ModuleName: "report"}
		entry := &logrus.Entry{
			Time:    time.Date(2020, 3, 4, 5, 6, 7, 8000000, time.UTC),
			Level:   logrus.WarnLevel,
			Message: "report time in the past",
			Data:    logrus.Fields{"period": 3600, "reason": "stalled ingest", "err": errors.New("x")},
		}
		out, err := f.Format(entry)
		So(err, ShouldBeNil)
		So(string(out), ShouldEqual, `2020-03-04 05:06:07.008 [WARNING] [report] report time in the past err=x period=3600 reason="stalled ingest"`+"\n")
	})
	Convey("Without timestamp and lowercase level", t, func() {
		f := &TextFormatter{DisableTimestamp: true, DisableUppercase: true, QuoteEmptyFields: true}
		entry := &logrus.Entry{Level: logrus.InfoLevel, Message: "hi", Data: logrus.Fields{"dest": ""}}
		out, err := f.Format(entry)
		So(err, ShouldBeNil)
		So(string(out), ShouldEqual, `[info] hi dest=""`+"\n")
	})
	Convey("Setup rejects unknown levels", t, func() {
		So(Setup("chatty", ""), ShouldNotBeNil)
		So(Setup("debug", "test"), ShouldBeNil)
		So(logrus.GetLevel(), ShouldEqual, logrus.DebugLevel)
		logrus.SetLevel(logrus.InfoLevel)
	})
}
