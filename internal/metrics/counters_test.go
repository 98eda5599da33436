package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCountersTotals(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg, "test")

	c.IncIn(10)
	c.IncIn(6)
	c.IncOut(4)
	c.Unknown(0x1234)
	c.Unknown(0x1234)
	c.ShortRead(0x0087)
	c.FramingError()

	s := c.Snapshot()
	if s.InPackets != 2 || s.InBytes != 16 {
		t.Errorf("in = %d/%d, want 2/16", s.InPackets, s.InBytes)
	}
	if s.OutPackets != 1 || s.OutBytes != 4 {
		t.Errorf("out = %d/%d, want 1/4", s.OutPackets, s.OutBytes)
	}
	if s.Unknown != 2 || s.ShortReads != 1 || s.FramingErrors != 1 {
		t.Errorf("diagnostics = %+v", s)
	}

	if got := testutil.ToFloat64(c.promInBytes); got != 16 {
		t.Errorf("in_bytes_total = %v, want 16", got)
	}
	if got := testutil.ToFloat64(c.promUnknown.WithLabelValues("0x1234")); got != 2 {
		t.Errorf("unknown_packets_total{opcode=0x1234} = %v, want 2", got)
	}
	if n := testutil.CollectAndCount(c.promShortReads); n != 1 {
		t.Errorf("short_reads_total series = %d, want 1", n)
	}
}

func TestCountersRates(t *testing.T) {
	c := New(nil, "")
	start := time.Unix(1000, 0)
	c.Update(start)

	for i := 0; i < 20; i++ {
		c.IncIn(100)
	}
	c.Update(start.Add(500 * time.Millisecond))
	if r := c.Snapshot().Rates; r.InPackets != 0 {
		t.Errorf("rates updated before a second passed: %+v", r)
	}

	c.Update(start.Add(2 * time.Second))
	r := c.Snapshot().Rates
	if r.InPackets != 10 || r.InBytes != 1000 {
		t.Errorf("rates = %+v, want 10 packets/s 1000 B/s", r)
	}
}

func TestSnapshotHuman(t *testing.T) {
	s := Snapshot{InPackets: 1204, InBytes: 38000}
	if got := s.HumanIn(); got != "1,204 packets / 38 kB" {
		t.Errorf("HumanIn() = %q", got)
	}
}
