package stats

import (
	"os"
	"time"

	"github.com/prometheus/procfs"
)

// ProcessReporter sources stats from /proc
type ProcessReporter struct {
	proc procfs.Proc
}

func NewProcessReporter() (*ProcessReporter, error) {
	proc, err := procfs.NewProc(os.Getpid())
	if err != nil {
		return nil, err
	}
	return registry.getOrAdd("process", &ProcessReporter{proc: proc}).(*ProcessReporter), nil
}

func (m *ProcessReporter) ReportGraphite(prefix, buf []byte, now time.Time) []byte {
	stat, err := m.proc.NewStat()
	if err != nil {
		return buf
	}
	// metric process.virtual_memory_bytes is a gauge of the process VSZ from /proc/pid/stat
	buf = WriteUint64(buf, prefix, []byte("virtual_memory_bytes.gauge64"), uint64(stat.VirtualMemory()), now)
	// metric process.resident_memory_bytes is a gauge of the process RSS from /proc/pid/stat
	buf = WriteUint64(buf, prefix, []byte("resident_memory_bytes.gauge64"), uint64(stat.ResidentMemory()), now)
	// metric process.major_page_faults is the number of major faults the process has made which have required loading a memory page from disk
	buf = WriteUint64(buf, prefix, []byte("major_page_faults.counter64"), uint64(stat.MajFlt), now)
	// metric process.cpu_seconds_total is the total user and system CPU time spent
	buf = WriteFloat64(buf, prefix, []byte("cpu_seconds_total.counter64"), stat.CPUTime(), now)
	return buf
}
