package clone

import (
	"fmt"
	"io"
	"sort"

	"github.com/kelvinlabs/bita/internal/chunker"
	"github.com/kelvinlabs/bita/internal/dictionary"
	"github.com/kelvinlabs/bita/internal/stronghash"
)

// residency maps a descriptor index to every offset in the existing output
// where a chunk with that identity currently sits. Built once by scanning
// the whole output before any self-seed writes begin.
type residency map[uint32][]uint64

func scanResidency(idx *dictionary.Index, r io.Reader) (residency, error) {
	ck, err := chunker.New(r, idx.Dict.ChunkerConfig)
	if err != nil {
		return nil, fmt.Errorf("clone: self-seed scan: %w", err)
	}
	res := make(residency)
	for {
		chunk, err := ck.Next()
		if err == io.EOF {
			return res, nil
		}
		if err != nil {
			return nil, fmt.Errorf("clone: self-seed scan: %w", err)
		}
		sh := stronghash.Sum(chunk.Data)
		descIdx, ok := idx.Lookup(sh)
		if !ok {
			continue
		}
		res[descIdx] = append(res[descIdx], uint64(chunk.Offset))
	}
}

// localWrite is one in-place write the self-seed plan must perform: copy
// the bytes currently resident at source (offset source, size bytes) to
// target.
type localWrite struct {
	target uint64
	source uint64
	desc   uint32
	size   uint32
}

// selfSeedPlan is the ordered result of planSelfSeed.
type selfSeedPlan struct {
	writes   []localWrite
	buffered map[uint64][]byte // source offset -> bytes captured ahead of a cycle-breaking write
	covered  int               // descriptors newly covered by residency in the existing output
}

// planSelfSeed scans the existing output, marks every descriptor found
// resident as covered, and schedules the in-place writes needed to finish
// rearranging them. Where a chunk currently occupies a position another
// chunk needs, writes are ordered so the occupying chunk is read before it
// is overwritten; where that is impossible because two or more chunks
// depend on each other in a cycle, the offending chunk's bytes are
// buffered in memory ahead of time to break it.
func planSelfSeed(idx *dictionary.Index, output io.Reader, readAt func(offset uint64, length uint32) ([]byte, error)) (*selfSeedPlan, error) {
	res, err := scanResidency(idx, output)
	if err != nil {
		return nil, err
	}

	plan := &selfSeedPlan{buffered: make(map[uint64][]byte)}
	targetOf := make(map[uint64]int) // target offset -> index into plan.writes, pending writes only

	descIndices := make([]uint32, 0, len(res))
	for d := range res {
		descIndices = append(descIndices, d)
	}
	sort.Slice(descIndices, func(i, j int) bool { return descIndices[i] < descIndices[j] })

	for _, descIdx := range descIndices {
		offsets := res[descIdx]
		if len(offsets) == 0 {
			continue
		}
		if !idx.MarkCovered(descIdx) {
			continue // already covered
		}
		plan.covered++
		resident := make(map[uint64]bool, len(offsets))
		for _, o := range offsets {
			resident[o] = true
		}
		size := idx.Dict.Descriptors[descIdx].UncompressedSize
		for _, t := range idx.SourceOffsets(descIdx) {
			if resident[t] {
				continue // already correct in place, no write needed
			}
			targetOf[t] = len(plan.writes)
			plan.writes = append(plan.writes, localWrite{target: t, source: offsets[0], desc: descIdx, size: size})
		}
	}

	ordered, buffered, err := scheduleWrites(plan.writes, targetOf, readAt)
	if err != nil {
		return nil, err
	}
	plan.writes = ordered
	plan.buffered = buffered
	return plan, nil
}

// scheduleWrites topologically orders writes so that, for any write whose
// source offset is itself another write's target, the read happens before
// the clobbering write. Cycles are broken by buffering the cycle-breaking
// write's source bytes immediately, which frees its dependents without
// requiring it to run first.
func scheduleWrites(writes []localWrite, targetOf map[uint64]int, readAt func(offset uint64, length uint32) ([]byte, error)) ([]localWrite, map[uint64][]byte, error) {
	n := len(writes)
	adjacency := make([][]int, n)
	indegree := make([]int, n)

	for i, w := range writes {
		if j, ok := targetOf[w.source]; ok && j != i {
			adjacency[i] = append(adjacency[i], j)
			indegree[j]++
		}
	}

	buffered := make(map[uint64][]byte)
	done := make([]bool, n)
	var order []localWrite

	queue := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if indegree[i] == 0 {
			queue = append(queue, i)
		}
	}
	sort.Ints(queue)

	remaining := n
	for remaining > 0 {
		for len(queue) > 0 {
			i := queue[0]
			queue = queue[1:]
			if done[i] {
				continue
			}
			done[i] = true
			remaining--
			order = append(order, writes[i])
			next := append([]int{}, adjacency[i]...)
			sort.Ints(next)
			for _, j := range next {
				indegree[j]--
				if indegree[j] == 0 && !done[j] {
					queue = append(queue, j)
				}
			}
		}
		if remaining == 0 {
			break
		}

		// Stuck: a cycle remains among the undone nodes. Pick the
		// lowest-indexed undone node and buffer its source bytes now,
		// which lets its dependents proceed without waiting on it.
		pick := -1
		for i := 0; i < n; i++ {
			if !done[i] {
				pick = i
				break
			}
		}
		w := writes[pick]
		b, err := readAt(w.source, w.size)
		if err != nil {
			return nil, nil, fmt.Errorf("clone: buffering self-seed cycle chunk at %d: %w", w.source, err)
		}
		buffered[w.source] = b

		for _, j := range adjacency[pick] {
			indegree[j]--
			if indegree[j] == 0 && !done[j] {
				queue = append(queue, j)
			}
		}
		sort.Ints(queue)
		// pick itself is now unblocked too: its source is buffered, so it
		// no longer needs to be ordered ahead of anything; schedule it
		// once its own remaining predecessors (if any) clear.
		if indegree[pick] == 0 && !done[pick] {
			queue = append(queue, pick)
			sort.Ints(queue)
		}
	}

	return order, buffered, nil
}
