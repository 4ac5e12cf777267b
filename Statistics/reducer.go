package Statistics

import (
	"fmt"
	"math"
	"sync"

	"github.com/notargets/goamr/utils"
)

// Reducer combines per rank values into global ones. Every rank of the group
// must make the same sequence of calls with slices of the same length.
type Reducer interface {
	Rank() int
	Size() int
	// AllreduceSum and AllreduceMax replace vals on every rank with the
	// reduction over all ranks
	AllreduceSum(vals []float64) error
	AllreduceMax(vals []float64) error
}

// SerialReducer is the single rank group
type SerialReducer struct{}

func (SerialReducer) Rank() int                         { return 0 }
func (SerialReducer) Size() int                         { return 1 }
func (SerialReducer) AllreduceSum(vals []float64) error { return nil }
func (SerialReducer) AllreduceMax(vals []float64) error { return nil }

type localGroup struct {
	mu         sync.Mutex
	cond       *sync.Cond
	size       int
	arrived    int
	generation int
	parts      [][]float64
	result     []float64
}

// LocalCommunicator is one rank of a group of goroutines reducing through
// shared memory. Contributions are combined in rank order, so results do not
// depend on the order in which ranks arrive.
type LocalCommunicator struct {
	rank  int
	group *localGroup
}

// NewLocalCommunicators returns the ranks of a group of size n
func NewLocalCommunicators(n int) (comms []*LocalCommunicator) {
	if n < 1 {
		panic(fmt.Errorf("communicator group needs at least one rank, have %d", n))
	}
	g := &localGroup{size: n, parts: make([][]float64, n)}
	g.cond = sync.NewCond(&g.mu)
	comms = make([]*LocalCommunicator, n)
	for r := range comms {
		comms[r] = &LocalCommunicator{rank: r, group: g}
	}
	return
}

func (lc *LocalCommunicator) Rank() int { return lc.rank }

func (lc *LocalCommunicator) Size() int { return lc.group.size }

func (lc *LocalCommunicator) AllreduceSum(vals []float64) error {
	return lc.group.allreduce(lc.rank, vals, func(a, b float64) float64 { return a + b })
}

func (lc *LocalCommunicator) AllreduceMax(vals []float64) error {
	return lc.group.allreduce(lc.rank, vals, math.Max)
}

func (g *localGroup) allreduce(rank int, vals []float64, op func(a, b float64) float64) (err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	gen := g.generation
	g.parts[rank] = append(g.parts[rank][:0], vals...)
	g.arrived++
	if g.arrived == g.size {
		g.result = append([]float64(nil), g.parts[0]...)
		for r := 1; r < g.size; r++ {
			if len(g.parts[r]) != len(g.result) {
				g.result = nil
				break
			}
			for i, v := range g.parts[r] {
				g.result[i] = op(g.result[i], v)
			}
		}
		g.arrived = 0
		g.generation++
		g.cond.Broadcast()
	} else {
		for gen == g.generation {
			g.cond.Wait()
		}
	}
	if g.result == nil {
		return fmt.Errorf("allreduce lengths differ between ranks")
	}
	copy(vals, g.result)
	return
}

// RunRanks runs f on every rank of a new local group, the nItems work items
// split into contiguous ranges, and waits for all of them. The first error
// returned by a rank is returned.
func RunRanks(nRanks, nItems int, f func(red Reducer, lo, hi int) error) (err error) {
	var (
		comms = NewLocalCommunicators(nRanks)
		pm    = utils.NewPartitionMap(nRanks, nItems)
		wg    sync.WaitGroup
		errs  = make([]error, nRanks)
	)
	for r := 0; r < nRanks; r++ {
		wg.Add(1)
		go func(r int) {
			defer wg.Done()
			lo, hi := pm.GetBucketRange(r)
			errs[r] = f(comms[r], lo, hi)
		}(r)
	}
	wg.Wait()
	for _, e := range errs {
		if e != nil {
			return e
		}
	}
	return
}
