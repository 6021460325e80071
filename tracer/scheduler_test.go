package tracer

import (
	"testing"
	"time"
)

func TestSchedulerSpeedEstimates(t *testing.T) {
	type spec struct {
		speed1   float32
		speed2   float32
		frameH   uint32
		expRows1 uint32
		expRows2 uint32
	}
	specs := []spec{
		{1, 2, 10, 4, 6},
		{2, 1, 10, 7, 3},
		{1, 1000, 10, 1, 9},
	}

	for index, s := range specs {
		tr1 := makeMockTracer("mock-1", s.speed1)
		tr2 := makeMockTracer("mock-2", s.speed2)
		tracers := []Tracer{tr1, tr2}

		sch := NewPerfectScheduler()
		blockAssignment := sch.Schedule(tracers, s.frameH)

		if blockAssignment[0] != s.expRows1 {
			t.Fatalf("[spec %d] expected tracer 0 to be assigned %d rows; got %d", index, s.expRows1, blockAssignment[0])
		}

		if blockAssignment[1] != s.expRows2 {
			t.Fatalf("[spec %d] expected tracer 1 to be assigned %d rows; got %d", index, s.expRows2, blockAssignment[1])
		}
	}
}

func TestPerfectScheduler(t *testing.T) {
	type spec struct {
		frameH   uint32
		rTime1   time.Duration
		rTime2   time.Duration
		expRows1 uint32
		expRows2 uint32
	}
	specs := []spec{
		// First call uses the tracer speed estimates
		{10, time.Duration(1), time.Duration(5), 5, 5},
		// Second call should use the block times to assign rows
		{10, time.Duration(1), time.Duration(5), 9, 1},
		// This time tracer 2 performed much better
		{10, time.Duration(5), time.Duration(1), 7, 3},
	}

	// Tracers have same speed
	tr1 := makeMockTracer("mock-1", 1)
	tr2 := makeMockTracer("mock-2", 1)
	tracers := []Tracer{tr1, tr2}

	sch := NewPerfectScheduler()
	for index, s := range specs {
		tr1.stats.BlockTime = s.rTime1.Nanoseconds()
		tr2.stats.BlockTime = s.rTime2.Nanoseconds()

		blockAssignment := sch.Schedule(tracers, s.frameH)

		if blockAssignment[0] != s.expRows1 {
			t.Fatalf("[spec %d] expected tracer 0 to be assigned %d rows; got %d", index, s.expRows1, blockAssignment[0])
		}

		if blockAssignment[1] != s.expRows2 {
			t.Fatalf("[spec %d] expected tracer 1 to be assigned %d rows; got %d", index, s.expRows2, blockAssignment[1])
		}

		tr1.stats.BlockH = blockAssignment[0]
		tr2.stats.BlockH = blockAssignment[1]
	}
}

func TestSchedulerRowsAddUp(t *testing.T) {
	type spec struct {
		numTracers int
		frameH     uint32
	}
	specs := []spec{
		{3, 10},
		{7, 720},
		{3, 2},
		{1, 1},
	}

	for index, s := range specs {
		tracers := make([]Tracer, s.numTracers)
		for idx := range tracers {
			tracers[idx] = makeMockTracer("mock", 1)
		}

		sch := NewPerfectScheduler()
		blockAssignment := sch.Schedule(tracers, s.frameH)

		var total uint32
		for _, rows := range blockAssignment {
			total += rows
		}
		if total != s.frameH {
			t.Fatalf("[spec %d] expected block assignment %v to add up to %d rows; got %d", index, blockAssignment, s.frameH, total)
		}
	}

	if NewPerfectScheduler().Schedule(nil, 10) != nil {
		t.Fatal("expected a nil assignment for an empty tracer list")
	}
}

type mockTracer struct {
	id    string
	speed float32
	stats *Stats
}

func makeMockTracer(id string, speed float32) *mockTracer {
	return &mockTracer{
		id:    id,
		speed: speed,
		stats: &Stats{},
	}
}

func (mt *mockTracer) Id() string {
	return mt.id
}

func (mt *mockTracer) SpeedEstimate() float32 {
	return mt.speed
}

func (mt *mockTracer) Setup(_, _ uint32, _ []uint8) error {
	return nil
}

func (mt *mockTracer) Close() {
}

func (mt *mockTracer) Enqueue(_ BlockRequest) {
}

func (mt *mockTracer) AppendChange(_ ChangeType, _ interface{}) {
}

func (mt *mockTracer) ApplyPendingChanges() error {
	return nil
}

func (mt *mockTracer) Stats() *Stats {
	return mt.stats
}
