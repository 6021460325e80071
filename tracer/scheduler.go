package tracer

import "math"

// The BlockScheduler interface is implemented by all block scheduling algorithms.
type BlockScheduler interface {
	// Split frame into blocks of variable height and assign to the pool
	// of tracers using feedback collected from previous frames.
	//
	// This function returns the block height assignment for each tracer
	// in the input list.
	Schedule(tracers []Tracer, frameH uint32) []uint32
}

// The perfect scheduler assumes that the volume of tracing work between two
// subsequent frames is approximately the same.
type perfectScheduler struct {
	blockAssignment []uint32
}

// Create a new perfect scheduler instance
func NewPerfectScheduler() BlockScheduler {
	return &perfectScheduler{}
}

// Split frame into blocks of variable height and assign to the pool
// of tracers using feedback collected from previous frames.
//
// This function returns the block height assignment for each tracer in the
// input list. When previous frame information is available the scheduler
// uses the following formula for estimating the workload for tracer w and frame i+1:
// w_i, f_i+1 = (blockH,w_i / time,w_i) / Σ(blockH_i-1 / time,i-1)
//
// Every tracer is assigned at least one row as long as there are no more
// tracers than frame rows.
func (sch *perfectScheduler) Schedule(tracers []Tracer, frameH uint32) []uint32 {
	if len(tracers) == 0 {
		return nil
	}

	weights := make([]float64, len(tracers))

	// If this is the first time we try to schedule or the number of tracers
	// has changed we need to reset the block assignments and use the
	// speed estimate of each tracer.
	if len(sch.blockAssignment) != len(tracers) {
		sch.blockAssignment = make([]uint32, len(tracers))
		for idx, tr := range tracers {
			weights[idx] = float64(tr.SpeedEstimate())
		}
	} else {
		// Use last frame statistics
		for idx, tr := range tracers {
			stats := tr.Stats()
			blockTime := stats.BlockTime
			if blockTime <= 0 {
				blockTime = 1
			}
			weights[idx] = float64(stats.BlockH) / float64(blockTime)
		}
	}

	var total float64
	for _, w := range weights {
		total += w
	}
	if total <= 0 {
		for idx := range weights {
			weights[idx] = 1
		}
		total = float64(len(weights))
	}

	scaler := float64(frameH) / total
	var scheduledRows uint32 = 0
	for idx, w := range weights {
		sch.blockAssignment[idx] = uint32(math.Max(1.0, math.Floor(w*scaler)))
		scheduledRows += sch.blockAssignment[idx]
	}

	// In case rows don't add up to the frame height append the missing ones
	// to the first tracer. Excess rows caused by the one row minimum are
	// taken away from the tracers with the largest blocks.
	if scheduledRows < frameH {
		sch.blockAssignment[0] += frameH - scheduledRows
	}
	for scheduledRows > frameH {
		largest := 0
		for idx, rows := range sch.blockAssignment {
			if rows > sch.blockAssignment[largest] {
				largest = idx
			}
		}
		if sch.blockAssignment[largest] == 0 {
			break
		}
		sch.blockAssignment[largest]--
		scheduledRows--
	}

	return sch.blockAssignment
}
